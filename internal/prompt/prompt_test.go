package prompt

import (
	"strings"
	"testing"
)

func TestEveryModeHasPrompt(t *testing.T) {
	for _, m := range Modes() {
		p := SystemPrompt(m)
		if strings.TrimSpace(p) == "" {
			t.Errorf("mode %q has an empty system prompt", m)
		}
		if !strings.Contains(p, "Response format") {
			t.Errorf("mode %q prompt is missing the shared response format block", m)
		}
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    AgentMode
		wantErr bool
	}{
		{"architect", ModeArchitect, false},
		{"  Security ", ModeSecurity, false},
		{"Database Specialist", ModeDatabase, false},
		{"REFACTOR", ModeRefactor, false},
		{"poet", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q) returned error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildSystemPromptWithFileContext(t *testing.T) {
	got := BuildSystemPrompt(ModeGenerator, "def add(a, b): return a + b")
	if !strings.Contains(got, "BEGIN ATTACHED FILE CONTEXT") {
		t.Error("file context header missing")
	}
	if !strings.Contains(got, "def add(a, b): return a + b") {
		t.Error("file context body missing")
	}
	if !strings.Contains(got, "END ATTACHED FILE CONTEXT") {
		t.Error("file context footer missing")
	}
	if !strings.HasPrefix(got, SystemPrompt(ModeGenerator)) {
		t.Error("base prompt must come before the file context")
	}
}

func TestBuildSystemPromptWithoutFileContext(t *testing.T) {
	got := BuildSystemPrompt(ModeSecurity, "")
	if got != SystemPrompt(ModeSecurity) {
		t.Error("empty file context must not alter the base prompt")
	}
	if strings.Contains(got, "ATTACHED FILE CONTEXT") {
		t.Error("empty file context must not add delimiters")
	}
}

func TestUnknownModeFallsBack(t *testing.T) {
	if SystemPrompt(AgentMode("nope")) != SystemPrompt(DefaultMode) {
		t.Error("unknown mode should fall back to the default prompt")
	}
}
