package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pymentor/agent-server/internal/extract"
	"github.com/pymentor/agent-server/internal/middleware"
	"github.com/pymentor/agent-server/internal/session"
	"github.com/pymentor/agent-server/internal/textchunk"
	"github.com/pymentor/agent-server/pkg/logger"
	"github.com/pymentor/agent-server/pkg/metrics"
)

// FileHandler manages the attached file context and its chunking.
type FileHandler struct {
	extractor *extract.Extractor
	sessions  *session.Registry
	logger    *logger.Logger
}

// NewFileHandler creates a file handler.
func NewFileHandler(extractor *extract.Extractor, sessions *session.Registry, log *logger.Logger) *FileHandler {
	return &FileHandler{extractor: extractor, sessions: sessions, logger: log}
}

// contextState describes the current file attachment.
type contextState struct {
	Loaded          bool   `json:"loaded"`
	FileName        string `json:"file_name,omitempty"`
	Chunked         bool   `json:"chunked"`
	ChunkIndex      int    `json:"chunk_index"`
	ChunkCount      int    `json:"chunk_count"`
	EstimatedTokens int    `json:"estimated_tokens"`
	CurrentChars    int    `json:"current_chars"`
}

func stateOf(sess *session.Session) contextState {
	return contextState{
		Loaded:          sess.File.Loaded(),
		FileName:        sess.FileName,
		Chunked:         sess.File.Chunked(),
		ChunkIndex:      sess.File.ChunkIndex(),
		ChunkCount:      sess.File.ChunkCount(),
		EstimatedTokens: sess.File.EstimatedTokens(),
		CurrentChars:    len(sess.File.CurrentSlice()),
	}
}

// Upload handles POST /api/v1/files. The file arrives as multipart
// form data under the "file" field.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.GetOrCreate(middleware.GetSessionID(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, h.extractor.MaxBytes()+4096)
	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.FileUploadsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "multipart form must carry a \"file\" field")
		return
	}
	defer file.Close()

	if err := middleware.ValidateFileName(header.Filename); err != nil {
		metrics.FileUploadsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		metrics.FileUploadsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	text, err := h.extractor.Process(header.Filename, data)
	if err != nil {
		metrics.FileUploadsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess.Lock()
	defer sess.Unlock()

	sess.File.Load(text)
	sess.FileName = header.Filename
	metrics.FileUploadsTotal.WithLabelValues("accepted").Inc()
	metrics.FileChunksGauge.Set(float64(sess.File.ChunkIndex()))
	h.logger.Info("file attached",
		zap.String("file", header.Filename),
		zap.Int("chars", len(text)),
		zap.Int("chunks", sess.File.ChunkCount()),
		zap.Int("estimated_tokens", textchunk.EstimateTokens(text)))

	writeJSON(w, http.StatusOK, stateOf(sess))
}

// Remove handles DELETE /api/v1/files.
func (h *FileHandler) Remove(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.GetOrCreate(middleware.GetSessionID(r.Context()))

	sess.Lock()
	defer sess.Unlock()

	sess.File.Clear()
	sess.FileName = ""
	metrics.FileChunksGauge.Set(0)
	writeJSON(w, http.StatusOK, stateOf(sess))
}

// Context handles GET /api/v1/files/context.
func (h *FileHandler) Context(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.GetOrCreate(middleware.GetSessionID(r.Context()))

	sess.Lock()
	defer sess.Unlock()

	state := stateOf(sess)
	writeJSON(w, http.StatusOK, map[string]any{
		"state":   state,
		"content": sess.File.CurrentSlice(),
	})
}

// Advance handles POST /api/v1/files/chunks/advance.
func (h *FileHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(sess *session.Session) bool { return sess.File.Advance() })
}

// Retreat handles POST /api/v1/files/chunks/retreat.
func (h *FileHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(sess *session.Session) bool { return sess.File.Retreat() })
}

func (h *FileHandler) step(w http.ResponseWriter, r *http.Request, move func(*session.Session) bool) {
	sess := h.sessions.GetOrCreate(middleware.GetSessionID(r.Context()))

	sess.Lock()
	defer sess.Unlock()

	if !sess.File.Chunked() {
		writeError(w, http.StatusConflict, "file context is not chunked")
		return
	}
	moved := move(sess)
	metrics.FileChunksGauge.Set(float64(sess.File.ChunkIndex()))
	writeJSON(w, http.StatusOK, map[string]any{
		"moved": moved,
		"state": stateOf(sess),
	})
}

// Jump handles PUT /api/v1/files/chunks/{index}.
func (h *FileHandler) Jump(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.GetOrCreate(middleware.GetSessionID(r.Context()))

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "chunk index must be an integer")
		return
	}

	sess.Lock()
	defer sess.Unlock()

	if !sess.File.Chunked() {
		writeError(w, http.StatusConflict, "file context is not chunked")
		return
	}
	sess.File.Jump(index)
	metrics.FileChunksGauge.Set(float64(sess.File.ChunkIndex()))
	writeJSON(w, http.StatusOK, stateOf(sess))
}

// chunkConfigRequest is the body for PUT /api/v1/files/chunks/config.
type chunkConfigRequest struct {
	ByTokens    bool `json:"by_tokens"`
	TokenLimit  int  `json:"token_limit"`
	AutoAdvance bool `json:"auto_advance"`
}

// Configure handles PUT /api/v1/files/chunks/config.
func (h *FileHandler) Configure(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.GetOrCreate(middleware.GetSessionID(r.Context()))

	var req chunkConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ByTokens && req.TokenLimit < 1 {
		writeError(w, http.StatusBadRequest, "token_limit must be positive when by_tokens is set")
		return
	}

	sess.Lock()
	defer sess.Unlock()

	sess.File.Configure(req.ByTokens, req.TokenLimit, req.AutoAdvance)
	metrics.FileChunksGauge.Set(float64(sess.File.ChunkIndex()))
	writeJSON(w, http.StatusOK, stateOf(sess))
}
