package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"health-assistant/internal/service"
)

const rootMessage = "AI Health Assistant Backend is running"

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth   service.AuthService
	recs   service.RecommendationService
	logger *logrus.Logger
}

func NewHandler(auth service.AuthService, recs service.RecommendationService, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		auth:   auth,
		recs:   recs,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	router.Use(corsMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": rootMessage})
	})

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", h.signup)
			authGroup.POST("/login", h.login)
			authGroup.GET("/me", h.requireAuth(), h.me)
		}

		recs := api.Group("/recommendations", h.requireAuth())
		{
			recs.POST("", h.createRecommendation)
			recs.GET("", h.listRecommendations)
			recs.GET("/:id", h.getRecommendation)
			recs.PATCH("/:id/feedback", h.setFeedback)
			recs.DELETE("/:id", h.deleteRecommendation)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindAuthentication:
		return http.StatusUnauthorized
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError serializes err as {"error": message}. Causes of internal failures are logged, not returned.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(service.KindOf(err))
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": service.PublicMessage(err)})
}
