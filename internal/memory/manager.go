package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
)

// Manager layers a langchaingo ConversationBuffer cache over the
// persistent Store. The buffer keeps prompt-ready history in process;
// Redis keeps it across restarts and between service instances.
type Manager struct {
	mu      sync.Mutex
	store   Store
	buffers map[string]*memory.ConversationBuffer
}

func NewManager(store Store) *Manager {
	return &Manager{
		store:   store,
		buffers: make(map[string]*memory.ConversationBuffer),
	}
}

// buffer returns the cached conversation buffer for the session,
// hydrating it from the store on first use.
func (m *Manager) buffer(ctx context.Context, sessionID string) (*memory.ConversationBuffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if buf, ok := m.buffers[sessionID]; ok {
		return buf, nil
	}

	buf := memory.NewConversationBuffer()
	session, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	for _, msg := range session.Messages {
		var chatMsg llms.ChatMessage
		switch msg.Role {
		case "user":
			chatMsg = llms.HumanChatMessage{Content: msg.Content}
		case "assistant":
			chatMsg = llms.AIChatMessage{Content: msg.Content}
		default:
			continue
		}
		if err := buf.ChatHistory.AddMessage(ctx, chatMsg); err != nil {
			return nil, fmt.Errorf("failed to hydrate session buffer: %w", err)
		}
	}

	m.buffers[sessionID] = buf
	return buf, nil
}

// RecordUserMessage appends a user turn to the buffer and the store.
func (m *Manager) RecordUserMessage(ctx context.Context, sessionID, text string) error {
	buf, err := m.buffer(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := buf.ChatHistory.AddUserMessage(ctx, text); err != nil {
		return fmt.Errorf("failed to buffer user message: %w", err)
	}
	return m.store.Append(ctx, sessionID, Message{Role: "user", Content: text, Timestamp: time.Now()})
}

// RecordAssistantMessage appends an assistant turn to the buffer and the
// store.
func (m *Manager) RecordAssistantMessage(ctx context.Context, sessionID, text string) error {
	buf, err := m.buffer(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := buf.ChatHistory.AddAIMessage(ctx, text); err != nil {
		return fmt.Errorf("failed to buffer assistant message: %w", err)
	}
	return m.store.Append(ctx, sessionID, Message{Role: "assistant", Content: text, Timestamp: time.Now()})
}

// FormattedHistory renders the session's conversation for inclusion in
// the classifier prompt.
func (m *Manager) FormattedHistory(ctx context.Context, sessionID string) (string, error) {
	buf, err := m.buffer(ctx, sessionID)
	if err != nil {
		return "", err
	}
	messages, err := buf.ChatHistory.Messages(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read session buffer: %w", err)
	}
	if len(messages) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, msg := range messages {
		switch v := msg.(type) {
		case llms.HumanChatMessage:
			fmt.Fprintf(&b, "User: %s\n", v.Content)
		case llms.AIChatMessage:
			fmt.Fprintf(&b, "Assistant: %s\n", v.Content)
		}
	}
	return b.String(), nil
}

// ClearSession drops the session from the cache and the store.
func (m *Manager) ClearSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.buffers, sessionID)
	m.mu.Unlock()
	return m.store.Clear(ctx, sessionID)
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
