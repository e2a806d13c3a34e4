// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/pod-backend/internal/i18n"
	"github.com/javajoker/pod-backend/internal/models"
	"github.com/javajoker/pod-backend/internal/utils"
)

// AuthRequired validates the bearer token issued by the auth service.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		claims, ok := bearerClaims(authHeader)
		if !ok {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		setUser(c, claims)
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return requireUserType(models.UserTypeAdmin)
}

func VendorRequired() gin.HandlerFunc {
	return requireUserType(models.UserTypeVendor)
}

func requireUserType(userType models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, exists := utils.GetUserTypeFromContext(c)
		if !exists || current != string(userType) {
			utils.ForbiddenResponse(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c.GetHeader("Authorization")); ok {
			setUser(c, claims)
		}
		c.Next()
	}
}

func bearerClaims(header string) (*utils.JWTClaims, bool) {
	// Extract token from "Bearer <token>"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := utils.ValidateJWT(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setUser(c *gin.Context, claims *utils.JWTClaims) {
	c.Set(utils.ContextKeyUserID, claims.UserID)
	c.Set(utils.ContextKeyUsername, claims.Username)
	c.Set(utils.ContextKeyUserType, claims.UserType)
}
