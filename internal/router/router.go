// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/pod-backend/internal/config"
	"github.com/javajoker/pod-backend/internal/handlers"
	"github.com/javajoker/pod-backend/internal/middleware"
	"github.com/javajoker/pod-backend/internal/services"
	"github.com/javajoker/pod-backend/internal/utils"
)

func Initialize(svc *services.Services, cfg *config.Config, log *logrus.Logger) *gin.Engine {
	// Initialize handlers
	designHandler := handlers.NewDesignHandler(svc.Designs, cfg.Design.MaxBytes)
	productHandler := handlers.NewVendorProductHandler(svc.Products, svc.Catalog, cfg.Design.MaxBytes)
	adminHandler := handlers.NewAdminHandler(svc.Designs, svc.Links, svc.Validation, svc.Reconciler, svc.Audit)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()
	r.MaxMultipartMemory = cfg.Design.MaxBytes + 1<<20

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateBurst))
	r.Use(middleware.AuditLogMiddleware(svc.Audit, log))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	if cfg.Storage.LocalDir != "" {
		r.Static("/uploads", cfg.Storage.LocalDir)
	}

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Public storefront
		v1.GET("/base-products", productHandler.GetBaseProducts)
		v1.GET("/products", productHandler.GetPublishedProducts)
		v1.GET("/products/:id", middleware.OptionalAuth(), productHandler.GetProduct)

		// Notifications for any signed-in user
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
		}

		// Vendor routes
		vendor := v1.Group("/vendor")
		vendor.Use(middleware.AuthRequired(), middleware.VendorRequired())
		{
			designs := vendor.Group("/designs")
			{
				designs.GET("", designHandler.GetMyDesigns)
				designs.POST("", middleware.UploadRateLimit(), designHandler.UploadDesign)
				designs.GET("/:id", designHandler.GetDesign)
				designs.PUT("/:id", designHandler.UpdateDesign)
				designs.POST("/:id/submit", designHandler.SubmitDesign)
			}

			products := vendor.Group("/products")
			{
				products.GET("", productHandler.GetMyProducts)
				products.POST("", middleware.UploadRateLimit(), productHandler.CreateProduct)
				products.PUT("/:id", productHandler.UpdateProduct)
				products.DELETE("/:id", productHandler.DeleteProduct)
				products.PUT("/:id/post-validation-action", productHandler.SetPostValidationAction)
				products.POST("/:id/publish", productHandler.PublishProduct)
			}
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/designs/pending", adminHandler.GetPendingDesigns)
			admin.GET("/designs/:id", adminHandler.GetDesign)
			admin.POST("/designs/:id/decision", middleware.DecisionRateLimit(), adminHandler.DecideDesign)
			admin.POST("/reconcile", adminHandler.ReconcileLinks)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		}
	}

	return r
}
