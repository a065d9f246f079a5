// Package codetools runs external Python code-quality tools (ruff) over
// snippets from the chat and reports their findings.
package codetools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Diagnostic is one finding from a lint tool.
type Diagnostic struct {
	Tool     string `json:"tool"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Code     string `json:"code,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

// Runner shells out to the ruff binary.
type Runner struct {
	binary string
}

// NewRunner creates a runner. binary defaults to "ruff" on PATH.
func NewRunner(binary string) *Runner {
	if binary == "" {
		binary = "ruff"
	}
	return &Runner{binary: binary}
}

// writeTemp writes code to a temporary .py file and returns its path.
func writeTemp(code string) (string, error) {
	f, err := os.CreateTemp("", "snippet-*.py")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.WriteString(code); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

// Format runs `ruff format` over the code and returns the formatted
// source. A missing binary or formatter failure returns the tool's
// message and success=false; it never panics or crashes the session.
func (r *Runner) Format(ctx context.Context, code string) (string, bool) {
	path, err := writeTemp(code)
	if err != nil {
		return err.Error(), false
	}
	defer os.Remove(path)

	out, err := exec.CommandContext(ctx, r.binary, "format", path).CombinedOutput()
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return fmt.Sprintf("the %q command was not found; make sure it is installed and on PATH", r.binary), false
		}
		return strings.TrimSpace(string(out)), false
	}

	formatted, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("read formatted file: %v", err), false
	}
	return string(formatted), true
}

// ruffFinding is the JSON shape of one `ruff check` result.
type ruffFinding struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location struct {
		Row    int `json:"row"`
		Column int `json:"column"`
	} `json:"location"`
}

// Check runs `ruff check` over the code and returns its diagnostics.
// success=false means the tool itself could not run or produced
// unparseable output, in which case a single diagnostic carries the
// failure message.
func (r *Runner) Check(ctx context.Context, code string) ([]Diagnostic, bool) {
	path, err := writeTemp(code)
	if err != nil {
		return []Diagnostic{{Tool: "ruff", Severity: "error", Message: err.Error()}}, false
	}
	defer os.Remove(path)

	out, err := exec.CommandContext(ctx, r.binary,
		"check", "--output-format", "json", "--exit-zero", path).Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return []Diagnostic{{
				Tool:     "ruff",
				Severity: "error",
				Message:  fmt.Sprintf("the %q command was not found; make sure it is installed and on PATH", r.binary),
			}}, false
		}
		return []Diagnostic{{Tool: "ruff", Severity: "error", Message: strings.TrimSpace(string(out))}}, false
	}

	if strings.TrimSpace(string(out)) == "" {
		return nil, true
	}

	var findings []ruffFinding
	if err := json.Unmarshal(out, &findings); err != nil {
		return []Diagnostic{{
			Tool:     "ruff",
			Severity: "error",
			Message:  fmt.Sprintf("ruff produced invalid JSON: %v", err),
		}}, false
	}

	return toDiagnostics(findings), true
}

func toDiagnostics(findings []ruffFinding) []Diagnostic {
	diags := make([]Diagnostic, 0, len(findings))
	for _, f := range findings {
		severity := "warning"
		// Ruff E9/F-prefixed rules are genuine errors (syntax, undefined
		// names); the rest are style findings.
		if strings.HasPrefix(f.Code, "E9") || strings.HasPrefix(f.Code, "F") {
			severity = "error"
		}
		diags = append(diags, Diagnostic{
			Tool:     "ruff",
			Message:  f.Message,
			Severity: severity,
			Code:     f.Code,
			Line:     f.Location.Row,
			Column:   f.Location.Column,
		})
	}
	return diags
}
