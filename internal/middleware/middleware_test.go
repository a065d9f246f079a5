package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pymentor/agent-server/internal/auth"
)

func TestAuthAcceptsValidToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	token, sessionID, _, err := issuer.Issue()
	if err != nil {
		t.Fatal(err)
	}

	var gotSession string
	h := Auth(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = GetSessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotSession != sessionID {
		t.Errorf("session ID in context = %q, want %q", gotSession, sessionID)
	}
}

func TestAuthRejectsMissingAndMalformedHeaders(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	h := Auth(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without valid credentials")
	}))

	cases := []string{"", "Basic abc", "Bearer", "Bearer not-a-jwt"}
	for _, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestAuthRejectsTokenFromOtherSecret(t *testing.T) {
	other := auth.NewTokenIssuer("other-secret", time.Hour)
	token, _, _, err := other.Issue()
	if err != nil {
		t.Fatal(err)
	}

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	h := Auth(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with a forged token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestValidateMessageContent(t *testing.T) {
	if err := ValidateMessageContent("hello", 100); err != nil {
		t.Errorf("valid content rejected: %v", err)
	}
	if err := ValidateMessageContent("", 100); err == nil {
		t.Error("empty content accepted")
	}
	if err := ValidateMessageContent("toolong", 3); err == nil {
		t.Error("oversized content accepted")
	}
	if err := ValidateMessageContent(string([]byte{0xff, 0xfe}), 100); err == nil {
		t.Error("invalid UTF-8 accepted")
	}
}
