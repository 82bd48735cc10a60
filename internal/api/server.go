package api

import (
	"fmt"
	"net/http"

	"dialtest/internal/catalog"
	"dialtest/internal/metrics"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Server wraps the REST API server
type Server struct {
	handler *Handler
	router  *gin.Engine
}

// NewServer creates a new API server
func NewServer(db *gorm.DB, jwtSecret []byte) *Server {
	store := catalog.NewStore(db)
	service := catalog.NewService(store)
	handler := NewHandler(db, store, service, jwtSecret)

	// gin.New() instead of gin.Default() so we control the log format
	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] %s %s %d %s %s \"%s\" %s\n",
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			param.ClientIP,
			param.Method,
			param.StatusCode,
			param.Latency,
			param.Path,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api/v1")
	{
		// Public auth endpoint (no authentication required)
		api.POST("/auth/login", handler.Login)

		// Protected console endpoints
		protected := api.Group("")
		protected.Use(AuthMiddleware(jwtSecret))
		{
			protected.GET("/auth/me", handler.GetCurrentUser)

			// Case set catalog
			protected.POST("/casesets/upload", handler.UploadCaseSet)
			protected.GET("/casesets", handler.ListCaseSets)
			protected.GET("/casesets/missing-scripts", handler.ListMissingScripts)
			protected.GET("/casesets/:id", handler.GetCaseSet)
			protected.GET("/casesets/:id/download", handler.DownloadCaseSet)
			protected.PATCH("/casesets/:id", handler.UpdateCaseSet)
			protected.DELETE("/casesets/:id", handler.DeleteCaseSet)

			// Reference data and audit trail
			protected.GET("/apptypes", handler.ListAppTypes)
			protected.GET("/audit", handler.ListAudit)
		}
	}

	return &Server{
		handler: handler,
		router:  router,
	}
}

// GetRouter returns the router
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
