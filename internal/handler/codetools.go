package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pymentor/agent-server/internal/codetools"
	"github.com/pymentor/agent-server/pkg/logger"
)

// CodeToolsHandler exposes the Python lint and format tools.
type CodeToolsHandler struct {
	runner *codetools.Runner
	logger *logger.Logger
}

// NewCodeToolsHandler creates a code tools handler.
func NewCodeToolsHandler(runner *codetools.Runner, log *logger.Logger) *CodeToolsHandler {
	return &CodeToolsHandler{runner: runner, logger: log}
}

// codeRequest is the body for the format and check endpoints.
type codeRequest struct {
	Code string `json:"code"`
}

const maxSnippetBytes = 256 * 1024

func decodeCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req codeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSnippetBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code cannot be empty")
		return "", false
	}
	return req.Code, true
}

// Format handles POST /api/v1/code/format.
func (h *CodeToolsHandler) Format(w http.ResponseWriter, r *http.Request) {
	code, ok := decodeCode(w, r)
	if !ok {
		return
	}
	formatted, ok := h.runner.Format(r.Context(), code)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": ok,
		"code":    formatted,
	})
}

// Check handles POST /api/v1/code/check.
func (h *CodeToolsHandler) Check(w http.ResponseWriter, r *http.Request) {
	code, ok := decodeCode(w, r)
	if !ok {
		return
	}
	diags, ok := h.runner.Check(r.Context(), code)
	if diags == nil {
		diags = []codetools.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     ok,
		"diagnostics": diags,
	})
}
