package codetools

import (
	"context"
	"strings"
	"testing"
)

func TestFormatMissingBinary(t *testing.T) {
	r := NewRunner("definitely-not-a-real-binary-xyz")
	msg, ok := r.Format(context.Background(), "x=1\n")
	if ok {
		t.Fatal("Format with a missing binary reported success")
	}
	if !strings.Contains(msg, "not found") {
		t.Errorf("Format message = %q, want a not-found explanation", msg)
	}
}

func TestCheckMissingBinary(t *testing.T) {
	r := NewRunner("definitely-not-a-real-binary-xyz")
	diags, ok := r.Check(context.Background(), "x=1\n")
	if ok {
		t.Fatal("Check with a missing binary reported success")
	}
	if len(diags) != 1 {
		t.Fatalf("len(diags) = %d, want 1", len(diags))
	}
	if diags[0].Severity != "error" {
		t.Errorf("diags[0].Severity = %q, want %q", diags[0].Severity, "error")
	}
}

func TestNewRunnerDefaultsBinary(t *testing.T) {
	r := NewRunner("")
	if r.binary != "ruff" {
		t.Errorf("binary = %q, want %q", r.binary, "ruff")
	}
}

func TestToDiagnostics(t *testing.T) {
	findings := []ruffFinding{
		{Code: "F821", Message: "Undefined name `foo`"},
		{Code: "E501", Message: "Line too long"},
		{Code: "E999", Message: "SyntaxError"},
	}
	findings[0].Location.Row = 3
	findings[0].Location.Column = 7

	diags := toDiagnostics(findings)
	if len(diags) != 3 {
		t.Fatalf("len(diags) = %d, want 3", len(diags))
	}
	if diags[0].Severity != "error" {
		t.Errorf("F821 severity = %q, want error", diags[0].Severity)
	}
	if diags[1].Severity != "warning" {
		t.Errorf("E501 severity = %q, want warning", diags[1].Severity)
	}
	if diags[2].Severity != "error" {
		t.Errorf("E999 severity = %q, want error", diags[2].Severity)
	}
	if diags[0].Line != 3 || diags[0].Column != 7 {
		t.Errorf("diags[0] at %d:%d, want 3:7", diags[0].Line, diags[0].Column)
	}
}
