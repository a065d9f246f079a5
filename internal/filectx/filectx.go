// Package filectx holds the extracted text of an attached file and
// exposes the slice of it that is embedded into the system prompt,
// chunking the text when it exceeds the active size threshold.
package filectx

import "github.com/pymentor/agent-server/internal/textchunk"

// Manager tracks one session's attached-file context. Not safe for
// concurrent use; each session owns its own instance.
type Manager struct {
	fullText string
	chunks   []string
	index    int

	maxChars    int
	tokenLimit  int
	byTokens    bool
	autoAdvance bool
}

// NewManager creates an empty manager. maxChars is the character
// threshold used when token-based sizing is off; tokenLimit is the token
// threshold used when it is on.
func NewManager(maxChars, tokenLimit int) *Manager {
	return &Manager{maxChars: maxChars, tokenLimit: tokenLimit}
}

// Load replaces the attached file text and rechunks under the current
// threshold. Navigation state from any previous file is discarded.
func (m *Manager) Load(text string) {
	m.fullText = text
	m.rechunk()
}

// Clear removes the attached file entirely.
func (m *Manager) Clear() {
	m.fullText = ""
	m.chunks = nil
	m.index = 0
}

// Loaded reports whether a file is attached.
func (m *Manager) Loaded() bool {
	return m.fullText != ""
}

// Chunked reports whether the file exceeded the threshold and was split.
func (m *Manager) Chunked() bool {
	return m.chunks != nil
}

// threshold returns the active chunking threshold in characters. The
// token limit converts at the estimator's four chars per token.
func (m *Manager) threshold() int {
	if m.byTokens {
		return m.tokenLimit * 4
	}
	return m.maxChars
}

// rechunk recomputes chunks for the current text and threshold, resetting
// the navigation index. Chunk contents shift when the threshold changes,
// so preserving the old index would be meaningless.
func (m *Manager) rechunk() {
	m.index = 0
	m.chunks = nil
	if m.fullText == "" {
		return
	}
	limit := m.threshold()
	if limit <= 0 {
		// Misconfigured threshold: embed the file whole.
		return
	}
	if len(m.fullText) <= limit {
		return
	}
	m.chunks = textchunk.Chunk(m.fullText, limit)
}

// CurrentSlice returns the text to embed into the system prompt: the
// whole file when unchunked, otherwise the chunk at the current index.
func (m *Manager) CurrentSlice() string {
	if m.chunks == nil {
		return m.fullText
	}
	return m.chunks[m.index]
}

// FullText returns the complete extracted file text.
func (m *Manager) FullText() string {
	return m.fullText
}

// ChunkIndex returns the current navigation index (0 when unchunked).
func (m *Manager) ChunkIndex() int {
	return m.index
}

// ChunkCount returns the number of chunks (0 when unchunked).
func (m *Manager) ChunkCount() int {
	return len(m.chunks)
}

// Advance moves to the next chunk if there is one. Returns true on move.
func (m *Manager) Advance() bool {
	if m.chunks == nil || m.index >= len(m.chunks)-1 {
		return false
	}
	m.index++
	return true
}

// Retreat moves to the previous chunk if there is one.
func (m *Manager) Retreat() bool {
	if m.chunks == nil || m.index <= 0 {
		return false
	}
	m.index--
	return true
}

// Jump moves to the given chunk index, clamped to the valid range.
func (m *Manager) Jump(index int) {
	if m.chunks == nil {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(m.chunks)-1 {
		index = len(m.chunks) - 1
	}
	m.index = index
}

// AutoAdvance reports whether auto-advance is enabled.
func (m *Manager) AutoAdvance() bool {
	return m.autoAdvance
}

// AutoAdvanceAfterSend advances to the next chunk after a completed turn,
// but only when auto-advance is enabled and the file is chunked. Returns
// true when the index moved.
func (m *Manager) AutoAdvanceAfterSend() bool {
	if !m.autoAdvance || m.chunks == nil {
		return false
	}
	return m.Advance()
}

// Configure sets the sizing mode and options, rechunking when the active
// threshold changes.
func (m *Manager) Configure(byTokens bool, tokenLimit int, autoAdvance bool) {
	m.autoAdvance = autoAdvance
	prev := m.threshold()
	m.byTokens = byTokens
	if tokenLimit > 0 {
		m.tokenLimit = tokenLimit
	}
	if m.threshold() != prev {
		m.rechunk()
	}
}

// EstimatedTokens reports the estimator's token count for the current
// slice, for display alongside the chunk navigator.
func (m *Manager) EstimatedTokens() int {
	return textchunk.EstimateTokens(m.CurrentSlice())
}
