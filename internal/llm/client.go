// Package llm provides upstream model client interfaces and
// implementations.
package llm

import (
	"context"
)

// StreamCallback is called for each text fragment during streaming. The
// fragment sequence is finite and not restartable; returning an error
// aborts the stream.
type StreamCallback func(fragment string, index int) error

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message in provider wire format.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completed (fully consumed) response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for upstream model providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream sends a streaming completion request, invoking the
	// callback for each fragment as it arrives. On error the partial
	// content accumulated so far is discarded and only the error is
	// returned.
	CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}
