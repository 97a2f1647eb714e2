package normalize

import (
	"encoding/json"
	"testing"

	"github.com/okabe-dev/opsbridge/internal/models"
)

func TestNormalize_ResearchRoundTrip(t *testing.T) {
	raw := json.RawMessage(`{
		"sources": [
			{"title":"T","url":"http://x","snippet":"s","name":"serper","relevance_score":0.8}
		],
		"summary": "ok"
	}`)

	r := NewRegistry()
	result := r.Normalize(raw, "research.search", map[string]any{"query": "golang"})

	if result.Status != models.StatusSuccess {
		t.Fatalf("Expected SUCCESS, got %s", result.Status)
	}
	if len(result.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(result.Results))
	}
	rec, ok := result.Results[0].(models.ResearchRecord)
	if !ok {
		t.Fatalf("Expected ResearchRecord, got %T", result.Results[0])
	}
	if rec.Title != "T" || rec.URL != "http://x" || rec.Source != "serper" || rec.Score != 0.8 {
		t.Errorf("Record not normalized correctly: %+v", rec)
	}
	if rec.FetchedAt == "" {
		t.Error("Expected fetched_at to be filled")
	}
	if result.Summary == nil || result.Summary.Text != "ok" {
		t.Fatalf("Expected summary text ok, got %+v", result.Summary)
	}
	if result.Summary.Confidence != 0.8 {
		t.Errorf("Expected default summary confidence 0.8, got %v", result.Summary.Confidence)
	}
	if result.Summary.Model != DefaultSummaryModel {
		t.Errorf("Expected default summary model, got %s", result.Summary.Model)
	}
	if len(result.Summary.Sources) != 1 || result.Summary.Sources[0].URL != "http://x" {
		t.Errorf("Summary sources not built from records: %+v", result.Summary.Sources)
	}
	if result.Query != "golang" {
		t.Errorf("Expected query golang, got %s", result.Query)
	}
}

func TestNormalize_ResearchNoSourcesIsPartial(t *testing.T) {
	raw := json.RawMessage(`{"sources":[],"summary":"no results"}`)

	result := NewRegistry().Normalize(raw, "research.search", nil)

	if result.Status != models.StatusPartial {
		t.Errorf("Expected PARTIAL, got %s", result.Status)
	}
	if len(result.Results) != 0 {
		t.Errorf("Expected empty results, got %d", len(result.Results))
	}
	if result.Summary != nil {
		t.Errorf("Sentinel summary must not be wrapped, got %+v", result.Summary)
	}
}

func TestNormalize_DegradedSummaryWithSources(t *testing.T) {
	raw := json.RawMessage(`{
		"sources": [{"title":"T","url":"http://x"}],
		"summary": "Summary generation failed"
	}`)

	result := NewRegistry().Normalize(raw, "research.search", nil)

	if result.Status != models.StatusPartial {
		t.Errorf("Failed summary with sources must degrade to PARTIAL, got %s", result.Status)
	}
	if len(result.Results) != 1 {
		t.Errorf("Degraded result must keep its records, got %d", len(result.Results))
	}
	if result.Summary != nil {
		t.Error("Degraded result must carry no summary")
	}
	if len(result.Errors) != 0 {
		t.Errorf("PARTIAL is not a failure: errors must stay empty, got %v", result.Errors)
	}
}

func TestNormalize_SummarySourcesCappedAtThree(t *testing.T) {
	raw := json.RawMessage(`{
		"sources": [
			{"title":"a","url":"http://a"},
			{"title":"b","url":"http://b"},
			{"title":"c","url":"http://c"},
			{"title":"d","url":"http://d"}
		],
		"summary": "ok"
	}`)

	result := NewRegistry().Normalize(raw, "research.search", nil)
	if len(result.Results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(result.Results))
	}
	if result.Summary == nil || len(result.Summary.Sources) != 3 {
		t.Fatalf("Expected summary to cite first 3 sources, got %+v", result.Summary)
	}
}

func TestNormalize_BusinessPassThrough(t *testing.T) {
	raw := json.RawMessage(`{"calls": 12, "period": "7d"}`)

	result := NewRegistry().Normalize(raw, "business.gong_summary", nil)

	if result.Status != models.StatusSuccess {
		t.Errorf("Expected SUCCESS, got %s", result.Status)
	}
	if len(result.Results) != 1 {
		t.Fatalf("Expected raw payload wrapped as sole result, got %d entries", len(result.Results))
	}
	payload, ok := result.Results[0].(map[string]any)
	if !ok || payload["period"] != "7d" {
		t.Errorf("Raw payload not preserved: %+v", result.Results[0])
	}
}

func TestNormalize_UnrecognizedNamespaceGenericWrap(t *testing.T) {
	raw := json.RawMessage(`{"task_id": "123"}`)

	result := NewRegistry().Normalize(raw, "task.create", nil)

	if result.Status != models.StatusSuccess {
		t.Errorf("Expected SUCCESS, got %s", result.Status)
	}
	if len(result.Results) != 1 {
		t.Errorf("Expected generic wrap with one entry, got %d", len(result.Results))
	}
}

func TestNormalize_RegisteredNamespaceWins(t *testing.T) {
	r := NewRegistry()
	r.Register("task", func(raw json.RawMessage, action string, params map[string]any) *models.ActionResult {
		return &models.ActionResult{Status: models.StatusPartial, Results: []any{}, Errors: []string{}}
	})

	result := r.Normalize(json.RawMessage(`{}`), "task.create", nil)
	if result.Status != models.StatusPartial {
		t.Errorf("Registered normalizer not used, got status %s", result.Status)
	}
}
