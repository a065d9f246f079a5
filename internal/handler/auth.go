package handler

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/pymentor/agent-server/internal/auth"
	"github.com/pymentor/agent-server/internal/model"
	"github.com/pymentor/agent-server/pkg/logger"
	"github.com/pymentor/agent-server/pkg/metrics"
)

// AuthHandler handles the master-password login.
type AuthHandler struct {
	verifier *auth.Verifier
	limiter  *auth.Limiter
	issuer   *auth.TokenIssuer
	hash     string
	logger   *logger.Logger
}

// NewAuthHandler creates an auth handler. hash is the bcrypt hash of
// the master password.
func NewAuthHandler(verifier *auth.Verifier, limiter *auth.Limiter, issuer *auth.TokenIssuer, hash string, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		verifier: verifier,
		limiter:  limiter,
		issuer:   issuer,
		hash:     hash,
		logger:   log,
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identifier := clientIP(r)

	if !h.limiter.IsAllowed(ctx, identifier) {
		metrics.LoginAttemptsTotal.WithLabelValues("locked_out").Inc()
		h.logger.Warn("login locked out", zap.String("client", identifier))
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(h.limiter.Window().Seconds())))
		writeError(w, http.StatusTooManyRequests, "too many failed attempts, try again later")
		return
	}

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.verifier.Verify(req.Password, h.hash) {
		h.limiter.RecordAttempt(ctx, identifier)
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		remaining := h.limiter.Remaining(ctx, identifier)
		h.logger.Warn("login failed",
			zap.String("client", identifier),
			zap.Int("attempts_remaining", remaining))
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":              "invalid password",
			"attempts_remaining": remaining,
		})
		return
	}

	token, sessionID, expiresAt, err := h.issuer.Issue()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	h.logger.Info("login succeeded",
		zap.String("client", identifier),
		zap.String("session_id", sessionID))
	writeJSON(w, http.StatusOK, model.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// clientIP derives the limiter identifier from RemoteAddr. The RealIP
// middleware has already resolved forwarding headers upstream; reading
// them here would let a client rotate identifiers per request.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
