package store

import (
	"context"
	"testing"
	"time"

	"github.com/pymentor/agent-server/internal/model"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	seed := []model.Message{
		{Role: model.RoleUser, Content: "first"},
		{Role: model.RoleAssistant, Content: "second"},
		{Role: model.RoleUser, Content: "third"},
	}
	for _, m := range seed {
		if err := s.Save(ctx, m.Role, m.Content); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("loaded %d messages, want 3", len(got))
	}
	for i, m := range got {
		if m.Role != seed[i].Role || m.Content != seed[i].Content {
			t.Fatalf("message %d = %+v, want %+v", i, m, seed[i])
		}
		if m.Timestamp.IsZero() {
			t.Fatalf("message %d has no store-assigned timestamp", i)
		}
	}
}

func TestStore_SaveRejectsInvalidRole(t *testing.T) {
	s := openTest(t)
	if err := s.Save(context.Background(), model.Role("robot"), "x"); err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestStore_LoadRecentReturnsOldestFirstSuffix(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	for _, c := range []string{"m1", "m2", "m3", "m4", "m5"} {
		if err := s.Save(ctx, model.RoleUser, c); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := s.LoadRecent(ctx, 3)
	if err != nil {
		t.Fatalf("load recent: %v", err)
	}
	want := []string{"m3", "m4", "m5"}
	if len(got) != len(want) {
		t.Fatalf("loaded %d messages, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Content != w {
			t.Fatalf("recent[%d] = %q, want %q", i, got[i].Content, w)
		}
	}
}

func TestStore_DeleteAll(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if err := s.Save(ctx, model.RoleUser, "gone"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	got, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("loaded %d messages after delete, want 0", len(got))
	}
}

func TestStore_LoadBetween(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if err := s.Save(ctx, model.RoleUser, "inside"); err != nil {
		t.Fatalf("save: %v", err)
	}

	now := time.Now().UTC()
	got, err := s.LoadBetween(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("load between: %v", err)
	}
	if len(got) != 1 || got[0].Content != "inside" {
		t.Fatalf("got %v, want the one message inside the range", got)
	}

	got, err = s.LoadBetween(ctx, now.Add(-2*time.Hour), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("load between: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d messages outside the range, want 0", len(got))
	}
}

func TestStore_PurgeOlderThanIgnoresNonPositiveDays(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if err := s.Save(ctx, model.RoleUser, "keep"); err != nil {
		t.Fatalf("save: %v", err)
	}
	n, err := s.PurgeOlderThan(ctx, 0)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 0 {
		t.Fatalf("purged %d messages with days=0, want 0", n)
	}
}

func TestStore_LoginAttempts(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.RecordLoginAttempt(ctx, "1.2.3.4"); err != nil {
			t.Fatalf("record attempt: %v", err)
		}
	}
	if err := s.RecordLoginAttempt(ctx, "other"); err != nil {
		t.Fatalf("record attempt: %v", err)
	}

	count, err := s.CountRecentLoginAttempts(ctx, "1.2.3.4", 15*time.Minute)
	if err != nil {
		t.Fatalf("count attempts: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	// An empty identifier is never recorded.
	if err := s.RecordLoginAttempt(ctx, ""); err != nil {
		t.Fatalf("record empty identifier: %v", err)
	}
	count, err = s.CountRecentLoginAttempts(ctx, "", 15*time.Minute)
	if err != nil {
		t.Fatalf("count attempts: %v", err)
	}
	if count != 0 {
		t.Fatalf("count for empty identifier = %d, want 0", count)
	}
}
