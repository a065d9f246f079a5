package auth

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestVerifier_CorrectAndWrongPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	v := NewVerifier(8)
	if !v.Verify("s3cret", hash) {
		t.Fatal("correct password rejected")
	}
	if v.Verify("wrong", hash) {
		t.Fatal("wrong password accepted")
	}
	// Cached paths must agree with the first verification.
	if !v.Verify("s3cret", hash) {
		t.Fatal("cached correct password rejected")
	}
	if v.Verify("wrong", hash) {
		t.Fatal("cached wrong password accepted")
	}
}

func TestVerifier_MalformedHash(t *testing.T) {
	v := NewVerifier(8)
	if v.Verify("anything", "not-a-bcrypt-hash") {
		t.Fatal("malformed hash verified")
	}
}

func TestVerifier_EvictsAtCapacity(t *testing.T) {
	hash, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	v := NewVerifier(3)
	for i := 0; i < 10; i++ {
		v.Verify(fmt.Sprintf("guess-%d", i), hash)
		if v.Len() > 3 {
			t.Fatalf("cache grew to %d entries, capacity 3", v.Len())
		}
	}
}

type fakeAttemptStore struct {
	counts   map[string]int
	recorded []string
	err      error
}

func (f *fakeAttemptStore) RecordLoginAttempt(ctx context.Context, identifier string) error {
	f.recorded = append(f.recorded, identifier)
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[identifier]++
	return f.err
}

func (f *fakeAttemptStore) CountRecentLoginAttempts(ctx context.Context, identifier string, window time.Duration) (int, error) {
	return f.counts[identifier], f.err
}

func TestLimiter_LocksOutAfterMaxAttempts(t *testing.T) {
	fs := &fakeAttemptStore{}
	l := NewLimiter(fs, 3, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.IsAllowed(ctx, "client") {
			t.Fatalf("attempt %d blocked early", i+1)
		}
		l.RecordAttempt(ctx, "client")
	}

	if l.IsAllowed(ctx, "client") {
		t.Fatal("client allowed after exhausting attempts")
	}
	if got := l.Remaining(ctx, "client"); got != 0 {
		t.Fatalf("remaining = %d, want 0", got)
	}
	// A different identifier is unaffected.
	if !l.IsAllowed(ctx, "someone-else") {
		t.Fatal("unrelated identifier blocked")
	}
}

func TestLimiter_UnknownIdentifierNeverLimited(t *testing.T) {
	fs := &fakeAttemptStore{}
	l := NewLimiter(fs, 1, time.Minute)
	ctx := context.Background()

	l.RecordAttempt(ctx, "")
	l.RecordAttempt(ctx, "unknown")
	if len(fs.recorded) != 0 {
		t.Fatalf("recorded %v, want nothing for unknown identifiers", fs.recorded)
	}
	if !l.IsAllowed(ctx, "") || !l.IsAllowed(ctx, "unknown") {
		t.Fatal("unknown identifier limited")
	}
}

func TestLimiter_FailsOpenOnStoreError(t *testing.T) {
	fs := &fakeAttemptStore{err: fmt.Errorf("db down")}
	l := NewLimiter(fs, 1, time.Minute)
	if !l.IsAllowed(context.Background(), "client") {
		t.Fatal("store error should fail open")
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, sessionID, expiresAt, err := issuer.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("token already expired")
	}

	got, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != sessionID {
		t.Fatalf("parsed session %q, want %q", got, sessionID)
	}
}

func TestTokenIssuer_RejectsForgedToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	token, _, _, err := other.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Parse(token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
	if _, err := issuer.Parse("garbage"); err == nil {
		t.Fatal("garbage token accepted")
	}
}

func TestTokenIssuer_RejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)
	token, _, _, err := issuer.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Parse(token); err == nil {
		t.Fatal("expired token accepted")
	}
}
