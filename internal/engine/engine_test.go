package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/okabe-dev/opsbridge/internal/dispatch"
	"github.com/okabe-dev/opsbridge/internal/models"
	"github.com/okabe-dev/opsbridge/internal/normalize"
	"github.com/okabe-dev/opsbridge/internal/schema"
)

func newTestEngine(baseURL string) *Engine {
	registry := schema.NewRegistry(
		&schema.ActionSchema{
			Name: "research.search",
			Parameters: []schema.Parameter{
				{Name: "query", Type: "string", Required: true},
				{Name: "max_results", Type: "int", Default: 5},
			},
			Handler: schema.Handler{Service: "research", Endpoint: "/search", TimeoutMs: 2000},
		},
		&schema.ActionSchema{
			Name:       "code.deploy",
			Parameters: []schema.Parameter{{Name: "app", Type: "string", Required: true}},
			Handler:    schema.Handler{Service: "ghost", Endpoint: "/deploy", TimeoutMs: 2000},
		},
	)
	dispatcher := dispatch.NewDispatcher(map[string]string{"research": baseURL})
	return New(registry, dispatcher, normalize.NewRegistry())
}

func TestExecute_UnknownAction(t *testing.T) {
	e := newTestEngine("http://localhost:1")

	result := e.Execute(context.Background(), "nonexistent.verb", map[string]any{})

	if result.Status != models.StatusFailure {
		t.Fatalf("Expected FAILURE, got %s", result.Status)
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "Unknown action") {
		t.Errorf("Expected 'Unknown action' error, got %v", result.Errors)
	}
	if len(result.Results) != 0 {
		t.Errorf("Failure envelope must carry empty results, got %d", len(result.Results))
	}
}

func TestExecute_MissingRequiredMakesNoHTTPCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	e := newTestEngine(srv.URL)
	result := e.Execute(context.Background(), "research.search", map[string]any{})

	if result.Status != models.StatusFailure {
		t.Fatalf("Expected FAILURE, got %s", result.Status)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("Validation must fail closed: no dispatch before validation passes")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "query") {
		t.Errorf("Expected missing parameter error naming query, got %v", result.Errors)
	}
}

func TestExecute_DispatchFailureContained(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	e := newTestEngine(srv.URL)
	result := e.Execute(context.Background(), "research.search", map[string]any{"query": "x"})

	if result.Status != models.StatusFailure {
		t.Fatalf("Expected FAILURE, got %s", result.Status)
	}
	if len(result.Errors) == 0 {
		t.Error("Failure must carry a non-empty errors list")
	}
	if len(result.Results) != 0 {
		t.Error("Failure must carry an empty results list")
	}
}

func TestExecute_UnknownServiceContained(t *testing.T) {
	e := newTestEngine("http://localhost:1")

	result := e.Execute(context.Background(), "code.deploy", map[string]any{"app": "api"})

	if result.Status != models.StatusFailure {
		t.Fatalf("Expected FAILURE for unknown service, got %s", result.Status)
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "unknown service") {
		t.Errorf("Expected unknown service error, got %v", result.Errors)
	}
}

func TestExecute_SuccessFillsTiming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sources":[{"title":"T","url":"http://x","name":"serper","relevance_score":0.9}],"summary":"ok"}`))
	}))
	defer srv.Close()

	e := newTestEngine(srv.URL)
	result := e.Execute(context.Background(), "research.search", map[string]any{"query": "golang"})

	if result.Status != models.StatusSuccess {
		t.Fatalf("Expected SUCCESS, got %s: %v", result.Status, result.Errors)
	}
	if result.ExecutionTimeMs < 0 {
		t.Errorf("Expected non-negative execution time, got %d", result.ExecutionTimeMs)
	}
	if result.Timestamp == "" {
		t.Error("Expected timestamp to be auto-filled")
	}
	if result.Query != "golang" {
		t.Errorf("Expected query golang, got %s", result.Query)
	}
}

func TestExecuteFanOut_MergesByURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sources":[{"title":"A","url":"http://same"},{"title":"B","url":"http://same"}],"summary":""}`))
	}))
	defer srv.Close()

	e := newTestEngine(srv.URL)
	result := e.ExecuteFanOut(context.Background(), []Request{
		{Action: "research.search", Params: map[string]any{"query": "q"}},
		{Action: "research.search", Params: map[string]any{"query": "q"}},
	})

	if result.Status != models.StatusSuccess {
		t.Fatalf("Expected SUCCESS, got %s: %v", result.Status, result.Errors)
	}
	if len(result.Results) != 1 {
		t.Errorf("Expected records merged by URL to 1 entry, got %d", len(result.Results))
	}
}

func TestExecuteFanOut_PartialOnMixedOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sources":[{"title":"A","url":"http://a"}],"summary":""}`))
	}))
	defer srv.Close()

	e := newTestEngine(srv.URL)
	result := e.ExecuteFanOut(context.Background(), []Request{
		{Action: "research.search", Params: map[string]any{"query": "q"}},
		{Action: "nonexistent.verb", Params: map[string]any{}},
	})

	if result.Status != models.StatusPartial {
		t.Fatalf("Expected PARTIAL, got %s", result.Status)
	}
	if len(result.Errors) == 0 {
		t.Error("Expected errors from the failed branch to be aggregated")
	}
	if len(result.Results) != 1 {
		t.Errorf("Expected 1 record from the successful branch, got %d", len(result.Results))
	}
}
