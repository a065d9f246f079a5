package window

import (
	"strings"
	"testing"

	"github.com/pymentor/agent-server/internal/model"
)

func msgs(contents ...string) []model.Message {
	out := make([]model.Message, len(contents))
	for i, c := range contents {
		role := model.RoleUser
		if i == 0 {
			role = model.RoleSystem
		} else if i%2 == 0 {
			role = model.RoleAssistant
		}
		out[i] = model.Message{Role: role, Content: c}
	}
	return out
}

func TestTrim_Empty(t *testing.T) {
	if got := Trim(nil, 100); got != nil {
		t.Fatalf("Trim(nil) = %v, want nil", got)
	}
}

func TestTrim_KeepsSystemUnconditionally(t *testing.T) {
	h := msgs(strings.Repeat("s", 5000), strings.Repeat("u", 5000))
	got := Trim(h, 10)
	if len(got) != 1 || got[0].Role != model.RoleSystem {
		t.Fatalf("got %d messages, want only the system message", len(got))
	}
	if got[0].Content != h[0].Content {
		t.Fatal("system message content changed")
	}
}

func TestTrim_DropsOldestFirst(t *testing.T) {
	// History A(4000), B(4000), C(4000) under budget 8000: A is dropped
	// because including it would total 12000.
	h := []model.Message{
		{Role: model.RoleSystem, Content: "S"},
		{Role: model.RoleUser, Content: strings.Repeat("A", 4000)},
		{Role: model.RoleAssistant, Content: strings.Repeat("B", 4000)},
		{Role: model.RoleUser, Content: strings.Repeat("C", 4000)},
	}
	got := Trim(h, 8000)
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	if got[0].Content != "S" {
		t.Fatalf("first message = %q, want system", got[0].Content)
	}
	if got[1].Content[0] != 'B' || got[2].Content[0] != 'C' {
		t.Fatalf("kept wrong suffix: %c, %c", got[1].Content[0], got[2].Content[0])
	}
}

func TestTrim_BudgetInvariant(t *testing.T) {
	histories := [][]model.Message{
		msgs("sys", "aaaa", "bbbbbbbb", "cc", "ddddddddddddd", "e"),
		msgs("sys", strings.Repeat("x", 300), strings.Repeat("y", 300)),
		msgs("sys"),
	}
	budgets := []int{0, 1, 5, 13, 100, 10000}

	for _, h := range histories {
		for _, b := range budgets {
			got := Trim(h, b)
			if got[0].Content != h[0].Content {
				t.Fatalf("budget %d: system message not preserved", b)
			}
			total := 0
			for _, m := range got[1:] {
				total += len(m.Content)
			}
			if total > b {
				t.Fatalf("budget %d exceeded: %d chars kept", b, total)
			}
		}
	}
}

func TestTrim_ChronologicallyContiguous(t *testing.T) {
	h := msgs("sys", "m1", "m2", "m3", "m4", "m5")
	got := Trim(h, 6) // room for exactly the last three 2-char messages

	if len(got) != 4 {
		t.Fatalf("got %d messages, want 4", len(got))
	}
	want := []string{"sys", "m3", "m4", "m5"}
	for i, w := range want {
		if got[i].Content != w {
			t.Fatalf("message %d = %q, want %q", i, got[i].Content, w)
		}
	}
}

func TestTrim_DoesNotMutateInput(t *testing.T) {
	h := msgs("sys", "one", "two", "three")
	snapshot := make([]model.Message, len(h))
	copy(snapshot, h)

	Trim(h, 3)

	for i := range h {
		if h[i] != snapshot[i] {
			t.Fatalf("input message %d mutated", i)
		}
	}
}
