// Package service orchestrates chat turns between the session state,
// the persistent store and the upstream model provider.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pymentor/agent-server/internal/events"
	"github.com/pymentor/agent-server/internal/llm"
	"github.com/pymentor/agent-server/internal/model"
	"github.com/pymentor/agent-server/internal/prompt"
	"github.com/pymentor/agent-server/internal/session"
	"github.com/pymentor/agent-server/pkg/logger"
	"github.com/pymentor/agent-server/pkg/metrics"
)

// MessageStore is the subset of the persistence layer the chat service
// needs. *store.Store satisfies it.
type MessageStore interface {
	Save(ctx context.Context, role model.Role, content string) error
	LoadRecent(ctx context.Context, limit int) ([]model.Message, error)
	LoadAll(ctx context.Context) ([]model.Message, error)
	LoadBetween(ctx context.Context, start, end time.Time) ([]model.Message, error)
	DeleteAll(ctx context.Context) error
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

// Options configures a ChatService.
type Options struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	MaxMessageSize int
}

// ChatService runs conversation turns.
type ChatService struct {
	store     MessageStore
	client    llm.Client
	publisher events.Publisher
	logger    *logger.Logger
	opts      Options
}

// NewChatService creates a chat service. publisher may be events.Noop{}.
func NewChatService(store MessageStore, client llm.Client, publisher events.Publisher, log *logger.Logger, opts Options) *ChatService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &ChatService{
		store:     store,
		client:    client,
		publisher: publisher,
		logger:    log,
		opts:      opts,
	}
}

// TurnResult is the outcome of a completed chat turn.
type TurnResult struct {
	Assistant    model.Message
	ChunkIndex   int
	ChunkCount   int
	AutoAdvanced bool
}

// EnsureInitialized seeds the session window from the store on first
// use and refreshes the system prompt for the current mode and file
// slice on every call.
func (s *ChatService) EnsureInitialized(ctx context.Context, sess *session.Session) error {
	system := prompt.BuildSystemPrompt(sess.Mode, sess.File.CurrentSlice())
	if sess.Window.Initialized() {
		sess.Window.Initialize(system, nil)
		return nil
	}
	history, err := s.store.LoadRecent(ctx, sess.Window.WindowSize())
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	sess.Window.Initialize(system, history)
	return nil
}

// SendMessage runs one full turn: persist the user message, stream the
// assistant reply through onToken, persist the reply and advance the
// attached file chunk when auto-advance applies. On upstream failure
// partial output is discarded and nothing assistant-side is persisted.
func (s *ChatService) SendMessage(ctx context.Context, sess *session.Session, content string, onToken llm.StreamCallback) (*TurnResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content is empty")
	}
	if s.opts.MaxMessageSize > 0 && len(content) > s.opts.MaxMessageSize {
		return nil, fmt.Errorf("message exceeds %d bytes", s.opts.MaxMessageSize)
	}

	if err := s.EnsureInitialized(ctx, sess); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, model.RoleUser, content); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}
	sess.Window.AppendUser(content)
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()
	s.publish(ctx, events.SubjectMessageSaved, events.MessageSaved{
		SessionID: sess.ID,
		Role:      string(model.RoleUser),
		Chars:     len(content),
		Timestamp: time.Now().UTC(),
	})

	req := &llm.CompletionRequest{
		Model:       s.opts.Model,
		Messages:    toChatMessages(sess.Window.PayloadForUpstream()),
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	}

	start := time.Now()
	resp, err := s.client.CompleteStream(ctx, req, onToken)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordLLMStream(s.opts.Model, "error", elapsed.Seconds(), 0, 0)
		s.publish(ctx, events.SubjectTurnFailed, events.TurnFailed{
			SessionID: sess.ID,
			Mode:      string(sess.Mode),
			Reason:    err.Error(),
		})
		s.logger.Error("upstream completion failed",
			zap.String("provider", s.client.Name()),
			zap.String("model", s.opts.Model),
			zap.Error(err))
		return nil, fmt.Errorf("upstream completion: %w", err)
	}
	metrics.RecordLLMStream(s.opts.Model, "ok", elapsed.Seconds(), resp.TokensIn, resp.TokensOut)

	if err := s.store.Save(ctx, model.RoleAssistant, resp.Content); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}
	sess.Window.AppendAssistant(resp.Content)
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
	s.publish(ctx, events.SubjectMessageSaved, events.MessageSaved{
		SessionID: sess.ID,
		Role:      string(model.RoleAssistant),
		Chars:     len(resp.Content),
		Timestamp: time.Now().UTC(),
	})
	s.publish(ctx, events.SubjectTurnCompleted, events.TurnCompleted{
		SessionID:  sess.ID,
		Mode:       string(sess.Mode),
		Duration:   elapsed,
		OutputSize: len(resp.Content),
	})

	result := &TurnResult{
		Assistant: model.Message{
			Role:      model.RoleAssistant,
			Content:   resp.Content,
			Timestamp: time.Now().UTC(),
		},
		ChunkIndex: sess.File.ChunkIndex(),
		ChunkCount: sess.File.ChunkCount(),
	}
	if sess.File.AutoAdvanceAfterSend() {
		result.AutoAdvanced = true
		result.ChunkIndex = sess.File.ChunkIndex()
		metrics.FileChunksGauge.Set(float64(sess.File.ChunkIndex()))
	}
	return result, nil
}

// SwitchMode changes the agent specialization. The working list is
// destroyed and replaced with a fresh system message: the conversation
// restarts under the new mode. Persisted history is untouched and is
// not reloaded into the fresh window.
func (s *ChatService) SwitchMode(sess *session.Session, mode prompt.AgentMode) {
	sess.Mode = mode
	sess.Window.Reset()
	sess.Window.Initialize(prompt.BuildSystemPrompt(mode, sess.File.CurrentSlice()), nil)
}

// History returns every persisted message.
func (s *ChatService) History(ctx context.Context) ([]model.Message, error) {
	msgs, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return msgs, nil
}

// RecentHistory returns the most recent persisted messages.
func (s *ChatService) RecentHistory(ctx context.Context, limit int) ([]model.Message, error) {
	msgs, err := s.store.LoadRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent history: %w", err)
	}
	return msgs, nil
}

// HistoryBetween returns the persisted messages inside [start, end].
func (s *ChatService) HistoryBetween(ctx context.Context, start, end time.Time) ([]model.Message, error) {
	msgs, err := s.store.LoadBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load history range: %w", err)
	}
	return msgs, nil
}

// ClearHistory wipes the persistent record and resets the session
// window so the next turn starts clean.
func (s *ChatService) ClearHistory(ctx context.Context, sess *session.Session) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	sess.Window.Reset()
	return nil
}

// PurgeOld removes messages older than the retention period.
func (s *ChatService) PurgeOld(ctx context.Context, days int) (int64, error) {
	return s.store.PurgeOlderThan(ctx, days)
}

func (s *ChatService) publish(ctx context.Context, subject string, event any) {
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

func toChatMessages(msgs []model.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
