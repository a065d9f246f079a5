package extract

import (
	"bytes"
	"strings"
	"testing"
)

func TestProcess_PlainText(t *testing.T) {
	e := New(5)
	got, err := e.Process("notes.txt", []byte("hello world"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestProcess_SupportedCodeFile(t *testing.T) {
	e := New(5)
	src := "def main():\n    pass\n"
	got, err := e.Process("script.py", []byte(src))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got != src {
		t.Fatalf("got %q, want source verbatim", got)
	}
}

func TestProcess_Latin1Fallback(t *testing.T) {
	e := New(5)
	// "café" encoded in Latin-1: 0xE9 is not valid UTF-8 on its own.
	data := []byte{'c', 'a', 'f', 0xE9}
	got, err := e.Process("legacy.txt", data)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got != "café" {
		t.Fatalf("got %q, want café", got)
	}
}

func TestProcess_RejectsUnsupportedExtension(t *testing.T) {
	e := New(5)
	for _, name := range []string{"binary.exe", "archive.zip", "noext", "image.PNG"} {
		if _, err := e.Process(name, []byte("data")); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}

func TestProcess_ExtensionCaseInsensitive(t *testing.T) {
	e := New(5)
	if _, err := e.Process("README.MD", []byte("# title")); err != nil {
		t.Fatalf("uppercase extension rejected: %v", err)
	}
}

func TestProcess_RejectsOversizedFile(t *testing.T) {
	e := New(1)
	big := bytes.Repeat([]byte("x"), 1024*1024+1)
	_, err := e.Process("big.txt", big)
	if err == nil {
		t.Fatal("oversized file accepted")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Fatalf("error %q does not mention size", err)
	}
}

func TestProcess_RejectsCorruptPDF(t *testing.T) {
	e := New(5)
	if _, err := e.Process("doc.pdf", []byte("not a pdf at all")); err == nil {
		t.Fatal("corrupt PDF accepted")
	}
}
