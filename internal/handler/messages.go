package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pymentor/agent-server/internal/export"
	"github.com/pymentor/agent-server/internal/middleware"
	"github.com/pymentor/agent-server/internal/model"
	"github.com/pymentor/agent-server/internal/prompt"
	"github.com/pymentor/agent-server/internal/service"
	"github.com/pymentor/agent-server/internal/session"
	"github.com/pymentor/agent-server/pkg/logger"
)

// MessageHandler serves the conversation views and mode switching.
type MessageHandler struct {
	chat     *service.ChatService
	sessions *session.Registry
	logger   *logger.Logger
}

// NewMessageHandler creates a message handler.
func NewMessageHandler(chat *service.ChatService, sessions *session.Registry, log *logger.Logger) *MessageHandler {
	return &MessageHandler{chat: chat, sessions: sessions, logger: log}
}

// List handles GET /api/v1/messages. It returns the visible display
// window, not the full persistent history.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.GetOrCreate(middleware.GetSessionID(ctx))

	sess.Lock()
	defer sess.Unlock()

	if err := h.chat.EnsureInitialized(ctx, sess); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	visible := sess.Window.VisibleSlice()
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if limit < len(visible) {
			visible = visible[len(visible)-limit:]
		}
	}
	writeJSON(w, http.StatusOK, model.ListMessagesResponse{
		Messages: visible,
		Total:    len(visible),
	})
}

// History handles GET /api/v1/history. The optional format query
// renders the full persisted history as markdown or a standalone HTML
// page; the default is JSON. limit restricts the result to the most
// recent N messages.
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		msgs []model.Message
		err  error
	)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, convErr := strconv.Atoi(limitStr)
		if convErr != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		msgs, err = h.chat.RecentHistory(ctx, limit)
	} else {
		msgs, err = h.chat.History(ctx)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, model.ListMessagesResponse{Messages: msgs, Total: len(msgs)})
	case "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write(export.Markdown(msgs))
	case "html":
		page, err := export.HTML(msgs)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	default:
		writeError(w, http.StatusBadRequest, "format must be json, md or html")
	}
}

// Clear handles DELETE /api/v1/history.
func (h *MessageHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.GetOrCreate(middleware.GetSessionID(ctx))

	sess.Lock()
	defer sess.Unlock()

	if err := h.chat.ClearHistory(ctx, sess); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess.File.Clear()
	sess.FileName = ""
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

// setModeRequest is the body for POST /api/v1/mode.
type setModeRequest struct {
	Mode string `json:"mode"`
}

// SetMode handles POST /api/v1/mode.
func (h *MessageHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.GetOrCreate(middleware.GetSessionID(ctx))

	var req setModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := prompt.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.Lock()
	defer sess.Unlock()

	h.chat.SwitchMode(sess, mode)
	writeJSON(w, http.StatusOK, map[string]string{
		"mode":         string(mode),
		"display_name": mode.DisplayName(),
	})
}

// Modes handles GET /api/v1/modes.
func (h *MessageHandler) Modes(w http.ResponseWriter, r *http.Request) {
	type modeInfo struct {
		Mode        string `json:"mode"`
		DisplayName string `json:"display_name"`
	}
	out := make([]modeInfo, 0, len(prompt.Modes()))
	for _, m := range prompt.Modes() {
		out = append(out, modeInfo{Mode: string(m), DisplayName: m.DisplayName()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"modes": out})
}
