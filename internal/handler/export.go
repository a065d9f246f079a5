package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pymentor/agent-server/internal/export"
	"github.com/pymentor/agent-server/internal/model"
	"github.com/pymentor/agent-server/internal/service"
	"github.com/pymentor/agent-server/pkg/logger"
)

// ExportHandler serves downloadable conversation transcripts.
type ExportHandler struct {
	chat   *service.ChatService
	logger *logger.Logger
}

// NewExportHandler creates an export handler.
func NewExportHandler(chat *service.ChatService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{chat: chat, logger: log}
}

func (h *ExportHandler) load(r *http.Request) ([]model.Message, error) {
	ctx := r.Context()
	q := r.URL.Query()

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return nil, fmt.Errorf("limit must be a positive integer")
		}
		return h.chat.RecentHistory(ctx, limit)
	}

	fromStr, toStr := q.Get("from"), q.Get("to")
	if fromStr == "" && toStr == "" {
		return h.chat.History(ctx)
	}

	from := time.Time{}
	to := time.Now().UTC()
	var err error
	if fromStr != "" {
		if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
			return nil, fmt.Errorf("from must be RFC 3339: %w", err)
		}
	}
	if toStr != "" {
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			return nil, fmt.Errorf("to must be RFC 3339: %w", err)
		}
	}
	return h.chat.HistoryBetween(ctx, from, to)
}

// Markdown handles GET /api/v1/export/markdown.
func (h *ExportHandler) Markdown(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.load(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := fmt.Sprintf("chat_history_%s.md", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(export.Markdown(msgs))
}

// PDF handles GET /api/v1/export/pdf.
func (h *ExportHandler) PDF(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.load(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, err := export.PDF(msgs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	name := fmt.Sprintf("chat_history_%s.pdf", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(doc)
}
