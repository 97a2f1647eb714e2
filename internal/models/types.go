package models

import "time"

// Interaction modes governing which resolution strategies run
const (
	ModeNatural = "natural"
	ModeCommand = "command"
	ModeHybrid  = "hybrid"
)

// Response types for the (response_type, payload) envelope
const (
	TypeSuccess       = "success"
	TypeError         = "error"
	TypePlan          = "plan"
	TypeApproved      = "approved"
	TypeExecuting     = "executing"
	TypeCancelled     = "cancelled"
	TypeStatus        = "status"
	TypeHelp          = "help"
	TypeClarification = "clarification"
	TypeChat          = "chat"
)

// Intent error codes carried on error-typed ParsedIntents
const (
	ErrInputParse     = "input_parse_error"
	ErrUnknownIntent  = "unknown_intent"
	ErrClassification = "classification_error"
	ErrParse          = "parse_error"
	ErrPlanNotFound   = "plan_not_found"
	ErrNoPlans        = "no_plans"
	ErrMissingParam   = "missing_parameter"
	ErrUnknownAction  = "unknown_action"
	ErrUnknownService = "unknown_service"
	ErrServiceTimeout = "service_timeout"
	ErrServiceError   = "service_error"
	ErrNormDegraded   = "normalization_degraded"
)

// ParsedIntent is the structured meaning of one piece of raw user input.
// Immutable once created; error paths are expressed as a dedicated
// error-typed intent, never as an intent plus an error list.
type ParsedIntent struct {
	IntentType string         `json:"intent_type"`
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	Confidence float64        `json:"confidence"`
	RawText    string         `json:"raw_text"`
}

// ErrorIntent builds the error-typed ParsedIntent used on every
// resolution/lookup failure path.
func ErrorIntent(code, rawText, message string) *ParsedIntent {
	return &ParsedIntent{
		IntentType: code,
		Action:     "none",
		Parameters: map[string]any{"message": message},
		Confidence: 0,
		RawText:    rawText,
	}
}

// PlanOperation is one logical, not-yet-executed step of a plan.
type PlanOperation struct {
	Type   string         `json:"type"`
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// ExecutionPlan is a human-reviewable bundle of operations with disclosed
// risks and cost estimates. Costs are descriptive strings, not measurements.
// Seq is assigned by the plan store and orders plans by creation; "most
// recent" selection sorts on Seq, never on the id text.
type ExecutionPlan struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Operations        []PlanOperation   `json:"operations"`
	Risks             []string          `json:"risks"`
	Costs             map[string]string `json:"costs"`
	AffectedServices  []string          `json:"affected_services"`
	EstimatedDuration string            `json:"estimated_duration"`
	RequiresApproval  bool              `json:"requires_approval"`
	CreatedAt         time.Time         `json:"created_at"`
	Seq               uint64            `json:"-"`
}

// Action result statuses
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
	StatusPartial = "PARTIAL"
	StatusTimeout = "TIMEOUT"
)

// ResearchRecord is the fixed normalized shape for research.* results.
type ResearchRecord struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Snippet       string  `json:"snippet"`
	ExtractedText string  `json:"extracted_text"`
	Source        string  `json:"source"`
	FetchedAt     string  `json:"fetched_at"`
	Score         float64 `json:"score"`
}

// SourceRef is a title/url pair cited by a summary.
type SourceRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Summary wraps an upstream-generated summary of normalized results.
type Summary struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Model      string      `json:"model"`
	Sources    []SourceRef `json:"sources"`
}

// ActionResult is the single common envelope every dispatched action
// resolves to, whatever backend produced the raw payload. ExecutionTimeMs
// is filled in last, after normalization.
type ActionResult struct {
	Status          string   `json:"status"`
	Query           string   `json:"query"`
	Results         []any    `json:"results"`
	Summary         *Summary `json:"summary,omitempty"`
	Timestamp       string   `json:"timestamp"`
	ExecutionTimeMs int64    `json:"execution_time_ms"`
	Errors          []string `json:"errors"`
}

// FailureResult builds a well-formed failure envelope. Errors is always
// non-empty and Results always empty on this path.
func FailureResult(status, query string, errs ...string) *ActionResult {
	return &ActionResult{
		Status:    status,
		Query:     query,
		Results:   []any{},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Errors:    errs,
	}
}

// Response is the tagged (response_type, payload) pair returned by the
// conversational router. Exactly one of Intent, Plan or Result is set
// depending on the path taken.
type Response struct {
	Type    string         `json:"response_type"`
	Intent  *ParsedIntent  `json:"intent,omitempty"`
	Plan    *ExecutionPlan `json:"plan,omitempty"`
	Result  *ActionResult  `json:"result,omitempty"`
	Message string         `json:"message,omitempty"`
}
