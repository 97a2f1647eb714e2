package memory

import (
	"context"
	"strings"
	"testing"
	"time"
)

// fakeStore keeps sessions in a map, standing in for Redis.
type fakeStore struct {
	sessions map[string]*Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*Session)}
}

func (f *fakeStore) Load(_ context.Context, sessionID string) (*Session, error) {
	if s, ok := f.sessions[sessionID]; ok {
		return s, nil
	}
	return &Session{SessionID: sessionID, Messages: []Message{}, LastActivity: time.Now()}, nil
}

func (f *fakeStore) Append(_ context.Context, sessionID string, msg Message) error {
	s, ok := f.sessions[sessionID]
	if !ok {
		s = &Session{SessionID: sessionID}
		f.sessions[sessionID] = s
	}
	s.Messages = append(s.Messages, msg)
	return nil
}

func (f *fakeStore) Clear(_ context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func TestManager_RecordAndFormat(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newFakeStore())

	if err := m.RecordUserMessage(ctx, "s1", "deploy api"); err != nil {
		t.Fatalf("RecordUserMessage failed: %v", err)
	}
	if err := m.RecordAssistantMessage(ctx, "s1", "Proposed plan: Deploy api to staging"); err != nil {
		t.Fatalf("RecordAssistantMessage failed: %v", err)
	}

	history, err := m.FormattedHistory(ctx, "s1")
	if err != nil {
		t.Fatalf("FormattedHistory failed: %v", err)
	}
	if !strings.Contains(history, "User: deploy api") {
		t.Errorf("History missing user turn: %q", history)
	}
	if !strings.Contains(history, "Assistant: Proposed plan") {
		t.Errorf("History missing assistant turn: %q", history)
	}
}

func TestManager_HydratesFromStore(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.sessions["s1"] = &Session{
		SessionID: "s1",
		Messages: []Message{
			{Role: "user", Content: "is redis up", Timestamp: time.Now()},
			{Role: "assistant", Content: "status", Timestamp: time.Now()},
		},
	}

	m := NewManager(store)
	history, err := m.FormattedHistory(ctx, "s1")
	if err != nil {
		t.Fatalf("FormattedHistory failed: %v", err)
	}
	if !strings.Contains(history, "is redis up") {
		t.Errorf("Persisted history not hydrated: %q", history)
	}
}

func TestManager_ClearSession(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newFakeStore())

	if err := m.RecordUserMessage(ctx, "s1", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := m.ClearSession(ctx, "s1"); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	history, err := m.FormattedHistory(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if history != "" {
		t.Errorf("Expected empty history after clear, got %q", history)
	}
}
