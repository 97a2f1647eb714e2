package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okabe-dev/opsbridge/internal/schema"
)

func searchSchema(service string, timeoutMs int) *schema.ActionSchema {
	return &schema.ActionSchema{
		Name: "research.search",
		Handler: schema.Handler{
			Service:   service,
			Endpoint:  "/search",
			TimeoutMs: timeoutMs,
		},
	}
}

func TestDispatch_PostsValidatedParams(t *testing.T) {
	var gotBody map[string]any
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	d := NewDispatcher(map[string]string{"research": srv.URL})
	defer d.CloseAll()

	raw, err := d.Dispatch(context.Background(), searchSchema("research", 5000), map[string]any{"query": "golang"})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if gotPath != "/search" {
		t.Errorf("Expected POST to /search, got %s", gotPath)
	}
	if gotBody["query"] != "golang" {
		t.Errorf("Expected body to carry params, got %v", gotBody)
	}
	if string(raw) != `{"ok":true}` {
		t.Errorf("Unexpected raw payload: %s", raw)
	}
}

func TestDispatch_UnknownService(t *testing.T) {
	d := NewDispatcher(map[string]string{"research": "http://localhost:1"})
	defer d.CloseAll()

	_, err := d.Dispatch(context.Background(), searchSchema("nonexistent", 1000), nil)
	var unknown *UnknownServiceError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownServiceError, got %v", err)
	}
}

func TestDispatch_NonOKBecomesServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher(map[string]string{"research": srv.URL})
	defer d.CloseAll()

	_, err := d.Dispatch(context.Background(), searchSchema("research", 5000), nil)
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("Expected ServiceError, got %v", err)
	}
	if svcErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", svcErr.StatusCode)
	}
}

func TestDispatch_TimeoutBecomesTimeoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	d := NewDispatcher(map[string]string{"research": srv.URL})
	defer d.CloseAll()

	_, err := d.Dispatch(context.Background(), searchSchema("research", 20), nil)
	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("Expected TimeoutError, got %v", err)
	}
}
