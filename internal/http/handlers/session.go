package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/careerkb-backend/internal/http/response"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
	"github.com/yungbote/careerkb-backend/internal/services"
)

const defaultMaxAudioBytes = 25 << 20

type SessionHandler struct {
	log           *logger.Logger
	interview     services.InterviewService
	agent         services.AgentService
	costs         services.CostTracker
	maxAudioBytes int64
}

func NewSessionHandler(log *logger.Logger, interview services.InterviewService, agent services.AgentService, costs services.CostTracker, maxAudioBytes int64) *SessionHandler {
	if maxAudioBytes <= 0 {
		maxAudioBytes = defaultMaxAudioBytes
	}
	return &SessionHandler{
		log:           log.With("handler", "SessionHandler"),
		interview:     interview,
		agent:         agent,
		costs:         costs,
		maxAudioBytes: maxAudioBytes,
	}
}

type createSessionRequest struct {
	Module string `json:"module"`
}

// POST /api/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, err := h.interview.CreateSession(requestDBC(c), personID, req.Module)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"session": session})
}

// GET /api/sessions
func (h *SessionHandler) List(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	sessions, err := h.interview.ListSessions(requestDBC(c), personID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions})
}

// GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id", "invalid_session_id")
	if !ok {
		return
	}
	dbc := requestDBC(c)
	session, err := h.interview.GetSession(dbc, personID, sessionID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	body := gin.H{"session": session}
	if h.costs != nil {
		if total, err := h.costs.SessionCost(dbc, sessionID.String()); err != nil {
			h.log.Warn("session cost lookup failed (continuing)", "session_id", sessionID, "error", err)
		} else {
			body["cost_usd"] = total
		}
	}
	response.RespondOK(c, body)
}

type addTurnRequest struct {
	Speaker    string         `json:"speaker"`
	Transcript string         `json:"transcript"`
	Meta       map[string]any `json:"meta"`
}

// POST /api/sessions/:id/turns
// Accepts multipart form data with an "audio" file, or a JSON text turn.
func (h *SessionHandler) AddTurn(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id", "invalid_session_id")
	if !ok {
		return
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		in, err := h.readAudio(c)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_audio", err)
			return
		}
		turn, err := h.interview.AddAudioTurn(requestDBC(c), personID, sessionID, in)
		if err != nil {
			respondServiceError(c, h.log, err)
			return
		}
		response.RespondCreated(c, gin.H{"turn": turn})
		return
	}

	var req addTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	turn, err := h.interview.AddTextTurn(requestDBC(c), personID, sessionID, req.Speaker, req.Transcript, req.Meta)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"turn": turn})
}

func (h *SessionHandler) readAudio(c *gin.Context) (services.AudioInput, error) {
	fh, err := c.FormFile("audio")
	if err != nil {
		return services.AudioInput{}, fmt.Errorf("missing audio file: %w", err)
	}
	if fh.Size > h.maxAudioBytes {
		return services.AudioInput{}, fmt.Errorf("audio file too large (%d bytes)", fh.Size)
	}
	f, err := fh.Open()
	if err != nil {
		return services.AudioInput{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxAudioBytes+1))
	if err != nil {
		return services.AudioInput{}, err
	}
	if int64(len(data)) > h.maxAudioBytes {
		return services.AudioInput{}, fmt.Errorf("audio file too large")
	}
	mime := fh.Header.Get("Content-Type")
	if mime == "" {
		mime = "audio/webm"
	}
	return services.AudioInput{Data: data, MimeType: mime, Filename: fh.Filename}, nil
}

// POST /api/sessions/:id/agent/next
func (h *SessionHandler) Next(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id", "invalid_session_id")
	if !ok {
		return
	}
	res, err := h.agent.Next(requestDBC(c), personID, sessionID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, res)
}

type extractRequest struct {
	TurnIDs []string `json:"turn_ids"`
}

// POST /api/sessions/:id/extract
func (h *SessionHandler) Extract(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id", "invalid_session_id")
	if !ok {
		return
	}
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	turnIDs := make([]uuid.UUID, 0, len(req.TurnIDs))
	for _, raw := range req.TurnIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_turn_id", err)
			return
		}
		turnIDs = append(turnIDs, id)
	}

	res, stats, err := h.interview.TriggerExtraction(requestDBC(c), personID, sessionID, turnIDs)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{
		"extracted": res.Output,
		"summary":   res.Summary,
		"turn_ids":  res.TurnIDs,
		"stats":     stats,
	})
}

// POST /api/sessions/:id/advance
func (h *SessionHandler) Advance(c *gin.Context) {
	personID, ok := requestPerson(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id", "invalid_session_id")
	if !ok {
		return
	}
	session, err := h.interview.AdvanceSession(requestDBC(c), personID, sessionID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"session": session})
}
