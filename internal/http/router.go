package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/careerkb-backend/internal/http/handlers"
	httpMW "github.com/yungbote/careerkb-backend/internal/http/middleware"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	// UploadDir is served at /uploads when set.
	UploadDir string

	AuthMiddleware *httpMW.AuthMiddleware
	SessionHandler *httpH.SessionHandler
	KBHandler      *httpH.KBHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}
	if cfg.UploadDir != "" {
		r.Static("/uploads", cfg.UploadDir)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Sessions
	if cfg.SessionHandler != nil {
		protected.POST("/sessions", cfg.SessionHandler.Create)
		protected.GET("/sessions", cfg.SessionHandler.List)
		protected.GET("/sessions/:id", cfg.SessionHandler.Get)
		protected.POST("/sessions/:id/turns", cfg.SessionHandler.AddTurn)
		protected.POST("/sessions/:id/agent/next", cfg.SessionHandler.Next)
		protected.POST("/sessions/:id/extract", cfg.SessionHandler.Extract)
		protected.POST("/sessions/:id/advance", cfg.SessionHandler.Advance)
	}

	// Knowledge base
	if cfg.KBHandler != nil {
		protected.GET("/kb/search", cfg.KBHandler.Search)
		protected.GET("/kb/export", cfg.KBHandler.Export)
		protected.POST("/kb/export/:connector", cfg.KBHandler.Publish)
		protected.GET("/kb/stats", cfg.KBHandler.Stats)
		protected.GET("/kb/open-questions", cfg.KBHandler.ListOpenQuestions)
		protected.PATCH("/kb/open-questions/:id", cfg.KBHandler.PatchOpenQuestion)
	}

	return r
}
