package window

import "github.com/pymentor/agent-server/internal/model"

// Manager owns one session's working message list: a single system prompt
// at index 0 followed by up to windowSize history messages in
// chronological order. It is not safe for concurrent use; each session
// gets its own instance and handlers run one at a time per session.
type Manager struct {
	windowSize    int
	displayWindow int
	maxChars      int

	messages []model.Message
}

// NewManager creates a window manager. displayWindow is clamped to the
// [0, windowSize] range; a non-positive windowSize degrades to keeping
// only the system message.
func NewManager(windowSize, displayWindow, messagesMaxChars int) *Manager {
	if displayWindow > windowSize {
		displayWindow = windowSize
	}
	if displayWindow < 0 {
		displayWindow = 0
	}
	return &Manager{
		windowSize:    windowSize,
		displayWindow: displayWindow,
		maxChars:      messagesMaxChars,
	}
}

// Initialize seats the system prompt. On first call the working list
// becomes the system message followed by seedHistory (the most recent
// persisted messages, oldest first). On later calls only the system
// message is replaced, so a changed file context or agent mode takes
// effect without losing accumulated conversation.
func (m *Manager) Initialize(systemPrompt string, seedHistory []model.Message) {
	system := model.Message{Role: model.RoleSystem, Content: systemPrompt}
	if len(m.messages) == 0 {
		m.messages = append(m.messages, system)
		m.messages = append(m.messages, seedHistory...)
		m.enforceCap()
		return
	}
	m.messages[0] = system
}

// WindowSize reports the configured history cap.
func (m *Manager) WindowSize() int {
	return m.windowSize
}

// Initialized reports whether the working list has been seeded.
func (m *Manager) Initialized() bool {
	return len(m.messages) > 0
}

// Reset discards the working list entirely. The next Initialize reseeds.
func (m *Manager) Reset() {
	m.messages = nil
}

// AppendUser appends a user message and drops the oldest history messages
// if the window cap is exceeded. The drop is from memory only, not from
// the persistent store.
func (m *Manager) AppendUser(content string) {
	m.append(model.Message{Role: model.RoleUser, Content: content})
}

// AppendAssistant appends an assistant message under the same cap rule.
func (m *Manager) AppendAssistant(content string) {
	m.append(model.Message{Role: model.RoleAssistant, Content: content})
}

func (m *Manager) append(msg model.Message) {
	if len(m.messages) == 0 {
		// Degraded use before Initialize; keep a placeholder system slot.
		m.messages = append(m.messages, model.Message{Role: model.RoleSystem})
	}
	m.messages = append(m.messages, msg)
	m.enforceCap()
}

func (m *Manager) enforceCap() {
	history := len(m.messages) - 1
	if history <= m.windowSize {
		return
	}
	keep := m.windowSize
	if keep < 0 {
		keep = 0
	}
	trimmed := make([]model.Message, 0, keep+1)
	trimmed = append(trimmed, m.messages[0])
	trimmed = append(trimmed, m.messages[len(m.messages)-keep:]...)
	m.messages = trimmed
}

// VisibleSlice returns the last displayWindow history messages for
// rendering. This is a presentation truncation only; it does not affect
// the upstream payload.
func (m *Manager) VisibleSlice() []model.Message {
	if len(m.messages) <= 1 {
		return nil
	}
	history := m.messages[1:]
	if len(history) > m.displayWindow {
		history = history[len(history)-m.displayWindow:]
	}
	out := make([]model.Message, len(history))
	copy(out, history)
	return out
}

// Len returns the working list length including the system message.
func (m *Manager) Len() int {
	return len(m.messages)
}

// PayloadForUpstream returns the budget-trimmed messages for the next
// model call. Computed fresh on every call; never cached.
func (m *Manager) PayloadForUpstream() []model.Message {
	return Trim(m.messages, m.maxChars)
}
