package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pymentor/agent-server/internal/middleware"
	"github.com/pymentor/agent-server/internal/model"
	"github.com/pymentor/agent-server/internal/service"
	"github.com/pymentor/agent-server/internal/session"
	"github.com/pymentor/agent-server/pkg/logger"
	"github.com/pymentor/agent-server/pkg/metrics"
)

// ChatHandler streams chat turns over SSE.
type ChatHandler struct {
	chat     *service.ChatService
	sessions *session.Registry
	logger   *logger.Logger
	maxBytes int
}

// NewChatHandler creates a chat handler.
func NewChatHandler(chat *service.ChatService, sessions *session.Registry, log *logger.Logger, maxMessageBytes int) *ChatHandler {
	return &ChatHandler{
		chat:     chat,
		sessions: sessions,
		logger:   log,
		maxBytes: maxMessageBytes,
	}
}

// Send handles POST /api/v1/chat. The user message is accepted as JSON
// and the assistant reply streams back as SSE token events, finished by
// a message_complete event.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.GetOrCreate(middleware.GetSessionID(ctx))

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Content, h.maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sess.Lock()
	defer sess.Unlock()

	result, err := h.chat.SendMessage(ctx, sess, req.Content, func(token string, index int) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return sendSSEEvent(w, flusher, "token", &model.TokenEvent{
			Token: token,
			Index: index,
		})
	})
	if err != nil {
		h.logger.Warn("chat turn failed", zap.Error(err))
		sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
			Code:    "stream_error",
			Message: err.Error(),
		})
		return
	}

	sendSSEEvent(w, flusher, "message_complete", &model.MessageCompleteEvent{
		Message:      result.Assistant,
		ChunkIndex:   result.ChunkIndex,
		ChunkCount:   result.ChunkCount,
		AutoAdvanced: result.AutoAdvanced,
	})
	sendSSEEvent(w, flusher, "done", map[string]bool{"success": true})
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
