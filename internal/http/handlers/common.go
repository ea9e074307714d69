package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/careerkb-backend/internal/http/response"
	"github.com/yungbote/careerkb-backend/internal/platform/apierr"
	"github.com/yungbote/careerkb-backend/internal/platform/ctxutil"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

func requestPerson(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
		return uuid.Nil, false
	}
	return rd.PersonID, true
}

func pathUUID(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

func requestDBC(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

// respondServiceError writes err through the API error mapping. Internal
// failures are logged and their detail is not sent to the client.
func respondServiceError(c *gin.Context, log *logger.Logger, err error) {
	ae := apierr.FromError(err)
	if ae.Status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "status", ae.Status, "request_id", ctxutil.RequestID(c.Request.Context()), "error", err)
		if ae.Code == "internal" {
			response.RespondError(c, ae.Status, ae.Code, errors.New("internal error"))
			return
		}
	}
	response.RespondError(c, ae.Status, ae.Code, ae.Err)
}
