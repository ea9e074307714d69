package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/careerkb-backend/internal/http"
	httpH "github.com/yungbote/careerkb-backend/internal/http/handlers"
	httpMW "github.com/yungbote/careerkb-backend/internal/http/middleware"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health  *httpH.HealthHandler
	Session *httpH.SessionHandler
	KB      *httpH.KBHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, svc Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(db, svc.Connectors),
		Session: httpH.NewSessionHandler(log, svc.Interview, svc.Agent, svc.Costs, cfg.MaxAudioBytes),
		KB:      httpH.NewKBHandler(log, svc.Knowledge, svc.Connectors),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, svc Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecret, svc.Interview),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, mw Middleware) *gin.Engine {
	uploadDir := ""
	if cfg.AudioBucket == "" {
		uploadDir = cfg.UploadDir
	}
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		UploadDir:      uploadDir,
		AuthMiddleware: mw.Auth,
		SessionHandler: handlers.Session,
		KBHandler:      handlers.KB,
		HealthHandler:  handlers.Health,
	})
}
