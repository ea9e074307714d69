package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/careerkb-backend/internal/connectors"
	"github.com/yungbote/careerkb-backend/internal/http/response"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
	"github.com/yungbote/careerkb-backend/internal/services"
)

const exportEntity = "kb_exports"

type KBHandler struct {
	log        *logger.Logger
	kb         services.KnowledgeService
	connectors *connectors.Manager
}

func NewKBHandler(log *logger.Logger, kb services.KnowledgeService, conns *connectors.Manager) *KBHandler {
	return &KBHandler{log: log.With("handler", "KBHandler"), kb: kb, connectors: conns}
}

// GET /api/kb/search?q=&types=a,b&limit=
func (h *KBHandler) Search(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("limit: %w", err))
			return
		}
		limit = n
	}
	var kinds []string
	if raw := strings.TrimSpace(c.Query("types")); raw != "" {
		kinds = strings.Split(raw, ",")
	}
	res, err := h.kb.Search(requestDBC(c), personID, c.Query("q"), kinds, limit)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, res)
}

func exportFormat(c *gin.Context, raw string) (string, bool) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		format = services.ExportJSON
	}
	if format != services.ExportJSON && format != services.ExportMarkdown {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("unknown format %q", raw))
		return "", false
	}
	return format, true
}

// GET /api/kb/export?format=json|markdown
func (h *KBHandler) Export(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	format, ok := exportFormat(c, c.Query("format"))
	if !ok {
		return
	}
	exp, err := h.kb.Export(requestDBC(c), personID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	stamp := exp.ExportedAt.UnixMilli()
	if format == services.ExportMarkdown {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="kb_export_%d.md"`, stamp))
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(services.RenderMarkdown(exp)))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="kb_export_%d.json"`, stamp))
	response.RespondOK(c, exp)
}

type publishRequest struct {
	Format string `json:"format"`
}

// POST /api/kb/export/:connector
func (h *KBHandler) Publish(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	if h.connectors == nil {
		response.RespondError(c, http.StatusNotFound, "not_found", errors.New("no connectors configured"))
		return
	}
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	format, ok := exportFormat(c, req.Format)
	if !ok {
		return
	}
	exp, err := h.kb.Export(requestDBC(c), personID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	rec := connectors.Record{
		"person_id":   personID.String(),
		"format":      format,
		"exported_at": exp.ExportedAt.Format(time.RFC3339),
	}
	if format == services.ExportMarkdown {
		rec["content"] = services.RenderMarkdown(exp)
	} else {
		rec["content"] = exp
	}

	connectorID := c.Param("connector")
	out, err := h.connectors.Execute(c.Request.Context(), connectorID, connectors.OpCreate, connectors.Request{
		Entity: exportEntity,
		Data:   rec,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	h.log.Info("kb export published", "person_id", personID, "connector", connectorID, "format", format)
	response.RespondCreated(c, gin.H{"connector": connectorID, "record": out[0]})
}

// GET /api/kb/stats
func (h *KBHandler) Stats(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	st, err := h.kb.Stats(requestDBC(c), personID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"stats": st})
}

// GET /api/kb/open-questions?status=
func (h *KBHandler) ListOpenQuestions(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	qs, err := h.kb.ListOpenQuestions(requestDBC(c), personID, c.Query("status"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"open_questions": qs})
}

type patchQuestionRequest struct {
	Status string `json:"status" binding:"required"`
}

// PATCH /api/kb/open-questions/:id
func (h *KBHandler) PatchOpenQuestion(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id", "invalid_question_id")
	if !ok {
		return
	}
	var req patchQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	q, err := h.kb.SetOpenQuestionStatus(requestDBC(c), personID, id, req.Status)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"open_question": q})
}
