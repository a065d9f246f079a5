package filectx

import (
	"strings"
	"testing"
)

func TestManager_EmptyState(t *testing.T) {
	m := NewManager(8000, 2000)
	if m.Loaded() || m.Chunked() {
		t.Fatal("fresh manager should be empty")
	}
	if m.CurrentSlice() != "" {
		t.Fatalf("slice = %q, want empty", m.CurrentSlice())
	}
}

func TestManager_SmallFileUnchunked(t *testing.T) {
	m := NewManager(100, 2000)
	m.Load("tiny file")
	if !m.Loaded() || m.Chunked() {
		t.Fatal("small file must be loaded and unchunked")
	}
	if m.CurrentSlice() != "tiny file" {
		t.Fatalf("slice = %q, want full text", m.CurrentSlice())
	}
	if m.ChunkCount() != 0 {
		t.Fatalf("chunk count = %d, want 0", m.ChunkCount())
	}
}

func TestManager_LargeFileChunked(t *testing.T) {
	m := NewManager(8000, 2000)
	text := strings.Repeat("x", 20000)
	m.Load(text)

	if !m.Chunked() {
		t.Fatal("20000-char file under 8000 threshold must chunk")
	}
	if m.ChunkCount() != 3 {
		t.Fatalf("chunk count = %d, want 3", m.ChunkCount())
	}
	if m.ChunkIndex() != 0 {
		t.Fatalf("initial index = %d, want 0", m.ChunkIndex())
	}
	if m.CurrentSlice() != text[:8000] {
		t.Fatal("initial slice is not the first chunk")
	}
}

func TestManager_Navigation(t *testing.T) {
	m := NewManager(10, 2000)
	m.Load(strings.Repeat("z", 25))

	if m.ChunkCount() != 3 {
		t.Fatalf("chunk count = %d, want 3", m.ChunkCount())
	}
	if m.Retreat() {
		t.Fatal("retreat at first chunk should not move")
	}
	if !m.Advance() || m.ChunkIndex() != 1 {
		t.Fatalf("advance failed, index = %d", m.ChunkIndex())
	}
	if !m.Advance() || m.ChunkIndex() != 2 {
		t.Fatalf("advance failed, index = %d", m.ChunkIndex())
	}
	if m.Advance() {
		t.Fatal("advance past last chunk should not move")
	}
	if !m.Retreat() || m.ChunkIndex() != 1 {
		t.Fatalf("retreat failed, index = %d", m.ChunkIndex())
	}

	m.Jump(99)
	if m.ChunkIndex() != 2 {
		t.Fatalf("jump clamped to %d, want 2", m.ChunkIndex())
	}
	m.Jump(-5)
	if m.ChunkIndex() != 0 {
		t.Fatalf("jump clamped to %d, want 0", m.ChunkIndex())
	}
}

func TestManager_RechunkResetsIndex(t *testing.T) {
	m := NewManager(10, 5)
	text := strings.Repeat("a", 60)
	m.Load(text)
	m.Jump(2)

	// Switching to token-based sizing (5 tokens * 4 = 20 chars) changes
	// the threshold, so chunks are recomputed and the index resets.
	m.Configure(true, 5, false)

	if m.ChunkIndex() != 0 {
		t.Fatalf("index = %d after rechunk, want 0", m.ChunkIndex())
	}
	var rejoined strings.Builder
	for i := 0; i < m.ChunkCount(); i++ {
		m.Jump(i)
		rejoined.WriteString(m.CurrentSlice())
	}
	if rejoined.String() != text {
		t.Fatal("rechunked chunks do not reconstruct the full text")
	}
}

func TestManager_ConfigureSameThresholdKeepsChunks(t *testing.T) {
	m := NewManager(10, 2000)
	m.Load(strings.Repeat("b", 30))
	m.Jump(1)

	// Only toggling auto-advance leaves the threshold, and therefore the
	// chunks and index, alone.
	m.Configure(false, 0, true)
	if m.ChunkIndex() != 1 {
		t.Fatalf("index = %d, want unchanged 1", m.ChunkIndex())
	}
	if !m.AutoAdvance() {
		t.Fatal("auto-advance not enabled")
	}
}

func TestManager_NonPositiveThresholdEmbedsWhole(t *testing.T) {
	m := NewManager(0, 0)
	text := strings.Repeat("c", 5000)
	m.Load(text)
	if m.Chunked() {
		t.Fatal("non-positive threshold must fall back to unchunked")
	}
	if m.CurrentSlice() != text {
		t.Fatal("slice should be the whole file")
	}
}

func TestManager_AutoAdvanceAfterSend(t *testing.T) {
	m := NewManager(10, 2000)
	m.Load(strings.Repeat("d", 25))

	if m.AutoAdvanceAfterSend() {
		t.Fatal("auto-advance disabled: must not move")
	}

	m.Configure(false, 0, true)
	if !m.AutoAdvanceAfterSend() || m.ChunkIndex() != 1 {
		t.Fatalf("auto-advance did not move, index = %d", m.ChunkIndex())
	}
	m.AutoAdvanceAfterSend()
	if m.AutoAdvanceAfterSend() {
		t.Fatal("auto-advance at last chunk must not move")
	}

	// Unchunked file: never advances.
	m.Load("small")
	if m.AutoAdvanceAfterSend() {
		t.Fatal("auto-advance on unchunked file must not move")
	}
}

func TestManager_LoadReplacesPreviousFile(t *testing.T) {
	m := NewManager(10, 2000)
	m.Load(strings.Repeat("e", 25))
	m.Jump(2)

	m.Load("fresh")
	if m.Chunked() || m.ChunkIndex() != 0 {
		t.Fatal("new file did not reset chunk state")
	}
	if m.CurrentSlice() != "fresh" {
		t.Fatalf("slice = %q, want new file text", m.CurrentSlice())
	}
}
