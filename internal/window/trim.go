// Package window maintains the in-memory conversation working list for a
// session and decides which messages are rendered and which are sent
// upstream.
package window

import "github.com/pymentor/agent-server/internal/model"

// Trim selects the messages to send upstream under a character budget.
//
// The leading message (the system prompt) is always kept and is not
// counted against the budget. The remaining messages are walked from the
// most recent backward, accumulating content length; accumulation stops
// at the first message that would push the total past maxChars, so the
// result is the longest chronologically contiguous trailing run that
// fits. If even the most recent message is over budget, only the system
// message is returned.
//
// The input slice is never mutated.
func Trim(messages []model.Message, maxChars int) []model.Message {
	if len(messages) == 0 {
		return nil
	}

	system := messages[0]
	history := messages[1:]

	charCount := 0
	keepFrom := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		n := len(history[i].Content)
		if charCount+n > maxChars {
			break
		}
		charCount += n
		keepFrom = i
	}

	out := make([]model.Message, 0, 1+len(history)-keepFrom)
	out = append(out, system)
	out = append(out, history[keepFrom:]...)
	return out
}
