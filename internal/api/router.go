package api

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/study-material-service/internal/auth"
)

// NewRouter sets up the API router. jwtManager may be nil to serve the
// API without authentication.
func NewRouter(handler *Handler, jwtManager *auth.JWTManager, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(cors.New(corsConfig(allowedOrigins)))

	// Public routes
	router.GET("/", handler.HealthCheck)

	authorized := router.Group("/api")
	authorized.Use(AuthMiddleware(jwtManager, logger))
	{
		// Upload endpoints
		authorized.POST("/upload", handler.UploadDocument)
		authorized.GET("/upload/current", handler.CurrentUpload)
		authorized.GET("/upload/:id", handler.GetUpload)
		authorized.DELETE("/upload/:id", handler.DeleteUpload)
		authorized.POST("/upload/:id/messages", handler.AppendUploadMessage)
		authorized.POST("/quiz/upload", handler.QuizUpload)

		// Study document endpoints
		authorized.POST("/chat/docs", handler.CreateStudyDoc)
		authorized.GET("/chat/docs", handler.ListStudyDocs)
		authorized.GET("/chat/docs/:id", handler.GetStudyDoc)
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = allowedOrigins
	return cfg
}
