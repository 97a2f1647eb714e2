package normalize

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/okabe-dev/opsbridge/internal/models"
)

// DefaultSummaryModel labels summaries whose upstream did not name the
// generating model.
const DefaultSummaryModel = "research-aggregator"

const defaultSummaryConfidence = 0.8

// Sentinel strings an upstream summarizer emits when it could not
// produce a real summary. These are never wrapped as a Summary.
var failedSummarySentinels = map[string]bool{
	"no results":                true,
	"summary generation failed": true,
}

// Func converts one backend's raw JSON into the common result envelope.
type Func func(raw json.RawMessage, action string, params map[string]any) *models.ActionResult

// Registry maps a namespace (the dot-prefix of an action name) to its
// normalizer. Adding a namespace is a Register call, not a code edit.
type Registry struct {
	byNamespace map[string]Func
	generic     Func
}

// NewRegistry builds the registry with the standard namespaces:
// research gets the full record/summary conversion, business and code
// are pass-through wraps pending their own normalizers, and anything
// unrecognized falls back to a generic wrap.
func NewRegistry() *Registry {
	r := &Registry{
		byNamespace: make(map[string]Func),
		generic:     genericWrap,
	}
	r.Register("research", normalizeResearch)
	r.Register("business", genericWrap)
	r.Register("code", genericWrap)
	return r
}

func (r *Registry) Register(namespace string, fn Func) {
	r.byNamespace[namespace] = fn
}

// Normalize selects the namespace normalizer for the action and applies it.
func (r *Registry) Normalize(raw json.RawMessage, action string, params map[string]any) *models.ActionResult {
	ns := action
	if i := strings.Index(action, "."); i > 0 {
		ns = action[:i]
	}
	fn, ok := r.byNamespace[ns]
	if !ok {
		fn = r.generic
	}
	result := fn(raw, action, params)
	if result.Timestamp == "" {
		result.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return result
}

// rawSource is the per-provider source shape emitted by the research
// backend before normalization.
type rawSource struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Snippet        string  `json:"snippet"`
	ExtractedText  string  `json:"extracted_text"`
	Name           string  `json:"name"`
	FetchedAt      string  `json:"fetched_at"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rawResearch struct {
	Sources []rawSource `json:"sources"`
	Summary string      `json:"summary"`
}

func normalizeResearch(raw json.RawMessage, action string, params map[string]any) *models.ActionResult {
	var payload rawResearch
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.FailureResult(models.StatusFailure, queryOf(action, params),
			"failed to parse research response: "+err.Error())
	}

	now := time.Now().UTC().Format(time.RFC3339)
	results := make([]any, 0, len(payload.Sources))
	refs := make([]models.SourceRef, 0, 3)
	for _, src := range payload.Sources {
		fetchedAt := src.FetchedAt
		if fetchedAt == "" {
			fetchedAt = now
		}
		rec := models.ResearchRecord{
			Title:         src.Title,
			URL:           src.URL,
			Snippet:       src.Snippet,
			ExtractedText: src.ExtractedText,
			Source:        src.Name,
			FetchedAt:     fetchedAt,
			Score:         src.RelevanceScore,
		}
		results = append(results, rec)
		if len(refs) < 3 {
			refs = append(refs, models.SourceRef{Title: rec.Title, URL: rec.URL})
		}
	}

	result := &models.ActionResult{
		Status:  models.StatusPartial,
		Query:   queryOf(action, params),
		Results: results,
		Errors:  []string{},
	}

	// A sentinel summary means upstream summarization failed: the
	// result is degraded to PARTIAL, never FAILURE, and carries the
	// records without a summary.
	summaryFailed := payload.Summary != "" && failedSummarySentinels[strings.ToLower(payload.Summary)]
	if len(results) > 0 && !summaryFailed {
		result.Status = models.StatusSuccess
	}

	if payload.Summary != "" && !summaryFailed {
		result.Summary = &models.Summary{
			Text:       payload.Summary,
			Confidence: defaultSummaryConfidence,
			Model:      DefaultSummaryModel,
			Sources:    refs,
		}
	}
	return result
}

// genericWrap keeps the raw payload intact as the sole result entry.
// Used for business.* and code.* until those grow normalizers of their
// own, and for any namespace without a registration.
func genericWrap(raw json.RawMessage, action string, params map[string]any) *models.ActionResult {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.FailureResult(models.StatusFailure, queryOf(action, params),
			"failed to parse response: "+err.Error())
	}
	return &models.ActionResult{
		Status:  models.StatusSuccess,
		Query:   queryOf(action, params),
		Results: []any{payload},
		Errors:  []string{},
	}
}

func queryOf(action string, params map[string]any) string {
	if q, ok := params["query"].(string); ok && q != "" {
		return q
	}
	return action
}
