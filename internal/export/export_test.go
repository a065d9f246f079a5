package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pymentor/agent-server/internal/model"
)

var sample = []model.Message{
	{Role: model.RoleSystem, Content: "you are a helpful agent"},
	{Role: model.RoleUser, Content: "How do I *reverse* a list?", Timestamp: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
	{Role: model.RoleAssistant, Content: "Use `reversed(xs)`."},
}

func TestMarkdown(t *testing.T) {
	got := string(Markdown(sample))

	if !strings.HasPrefix(got, "# Chat History") {
		t.Fatalf("missing title: %q", got[:40])
	}
	if strings.Contains(got, "helpful agent") {
		t.Fatal("system prompt leaked into export")
	}
	for _, want := range []string{"### User", "### Agent", "reverse", "reversed(xs)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in markdown export", want)
		}
	}
}

func TestMarkdown_EmptyHistory(t *testing.T) {
	got := Markdown(nil)
	if len(got) == 0 {
		t.Fatal("empty history must produce a placeholder, not empty bytes")
	}
	if !strings.Contains(string(got), "Empty history") {
		t.Fatalf("got %q", got)
	}
}

func TestMarkdown_SkipsBlankMessages(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleSystem, Content: "s"},
		{Role: model.RoleUser, Content: "   \n  "},
	}
	got := string(Markdown(msgs))
	if strings.Contains(got, "### User") {
		t.Fatal("blank message was exported")
	}
}

func TestPDF(t *testing.T) {
	got, err := PDF(sample)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(got, []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}
}

func TestPDF_EmptyHistory(t *testing.T) {
	got, err := PDF(nil)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(got, []byte("%PDF")) {
		t.Fatal("empty history must still produce a valid PDF")
	}
}

func TestHTML(t *testing.T) {
	got, err := HTML(sample)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	s := string(got)
	if !strings.Contains(s, "<h1>Chat History</h1>") {
		t.Fatal("missing page title")
	}
	// Markdown must have been converted, not escaped wholesale.
	if !strings.Contains(s, "<em>reverse</em>") {
		t.Fatalf("markdown emphasis not rendered: %s", s)
	}
	if !strings.Contains(s, "<code>reversed(xs)</code>") {
		t.Fatalf("inline code not rendered: %s", s)
	}
	if strings.Contains(s, "helpful agent") {
		t.Fatal("system prompt leaked into export")
	}
}

func TestHTML_EmptyHistory(t *testing.T) {
	got, err := HTML(nil)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if !strings.Contains(string(got), "Empty history") {
		t.Fatalf("got %s", got)
	}
}

func TestSanitizeForPDF(t *testing.T) {
	in := "plain é text\nwith 🚀 emoji"
	out := sanitizeForPDF(in)
	if strings.Contains(out, "🚀") {
		t.Fatal("non-CP1252 rune survived")
	}
	if !strings.Contains(out, "é") || !strings.Contains(out, "\n") {
		t.Fatalf("latin text or newline lost: %q", out)
	}
}
