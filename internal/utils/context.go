// internal/utils/context.go
package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by the auth and i18n middleware.
const (
	ContextKeyLang     = "lang"
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyUserType = "user_type"
)

func GetLangFromContext(c *gin.Context) string {
	if lang, ok := c.Get(ContextKeyLang); ok {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userID, ok := c.Get(ContextKeyUserID); ok {
		if userIDStr, ok := userID.(string); ok {
			return userIDStr, true
		}
	}
	return "", false
}

// GetUserUUIDFromContext is GetUserIDFromContext parsed. Tokens whose
// subject is not a uuid count as anonymous.
func GetUserUUIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := GetUserIDFromContext(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func GetUserTypeFromContext(c *gin.Context) (string, bool) {
	if userType, ok := c.Get(ContextKeyUserType); ok {
		if userTypeStr, ok := userType.(string); ok {
			return userTypeStr, true
		}
	}
	return "", false
}
