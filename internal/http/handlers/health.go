package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/careerkb-backend/internal/connectors"
)

type HealthHandler struct {
	db         *gorm.DB
	connectors *connectors.Manager
}

func NewHealthHandler(db *gorm.DB, conns *connectors.Manager) *HealthHandler {
	return &HealthHandler{db: db, connectors: conns}
}

// GET /healthz
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	dbOK := h.pingDB(ctx)
	conns := map[string]bool{}
	if h.connectors != nil {
		conns = h.connectors.HealthCheckAll(ctx)
	}

	status, code := "ok", http.StatusOK
	if !dbOK {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"database":   dbOK,
		"connectors": conns,
		"time":       time.Now().UTC(),
	})
}

func (h *HealthHandler) pingDB(ctx context.Context) bool {
	if h.db == nil {
		return false
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}
