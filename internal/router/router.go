package router

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/okabe-dev/opsbridge/internal/intent"
	"github.com/okabe-dev/opsbridge/internal/models"
	"github.com/okabe-dev/opsbridge/internal/plan"
	"github.com/okabe-dev/opsbridge/internal/prompts"
)

// History supplies conversation context for the AI classifier and
// records the exchange afterwards. Optional; a nil History means the
// classifier runs without prior context.
type History interface {
	FormattedHistory(ctx context.Context, sessionID string) (string, error)
	RecordUserMessage(ctx context.Context, sessionID, text string) error
	RecordAssistantMessage(ctx context.Context, sessionID, text string) error
}

// Router resolves raw input into the tagged (response_type, payload)
// envelope. Strategies are an explicit ordered list evaluated until the
// first match: command grammar, then regex patterns, then the AI
// classifier. The command strategy always runs; the other two are
// skipped in command mode.
type Router struct {
	mu         sync.Mutex
	mode       string
	store      *plan.Store
	classifier *intent.Classifier
	history    History
	strategies []strategy
}

// strategy is one resolution step. naturalOnly strategies are skipped
// when the interaction mode is command.
type strategy struct {
	name        string
	naturalOnly bool
	resolve     func(ctx context.Context, sessionID, text string) (*models.Response, bool)
}

// New builds a router. classifier and history may be nil; without a
// classifier, unmatched natural input resolves to unknown_intent.
func New(store *plan.Store, classifier *intent.Classifier, history History, mode string) *Router {
	if mode == "" {
		mode = models.ModeHybrid
	}
	r := &Router{
		mode:       mode,
		store:      store,
		classifier: classifier,
		history:    history,
	}
	r.strategies = []strategy{
		{name: "command", resolve: r.resolveCommand},
		{name: "pattern", naturalOnly: true, resolve: r.resolvePattern},
		{name: "classifier", naturalOnly: true, resolve: r.resolveClassifier},
	}
	return r
}

// Mode returns the current interaction mode.
func (r *Router) Mode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

func (r *Router) setMode(mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
}

// Route resolves one input through the strategy list. It never returns
// an error: every failure path is an error-typed ParsedIntent inside the
// response envelope.
func (r *Router) Route(ctx context.Context, sessionID, text string) *models.Response {
	text = strings.TrimSpace(text)
	if text == "" {
		return &models.Response{
			Type:   models.TypeError,
			Intent: models.ErrorIntent(models.ErrInputParse, text, "empty input"),
		}
	}

	r.recordUser(ctx, sessionID, text)

	commandOnly := r.Mode() == models.ModeCommand
	for _, s := range r.strategies {
		if s.naturalOnly && commandOnly {
			continue
		}
		if resp, ok := s.resolve(ctx, sessionID, text); ok {
			r.recordAssistant(ctx, sessionID, resp)
			return resp
		}
	}

	resp := &models.Response{
		Type:   models.TypeError,
		Intent: models.ErrorIntent(models.ErrUnknownIntent, text, "could not resolve input to an intent"),
	}
	if commandOnly {
		resp.Intent = models.ErrorIntent(models.ErrUnknownIntent, text,
			"command mode accepts slash commands only; see /help")
	}
	r.recordAssistant(ctx, sessionID, resp)
	return resp
}

// resolvePattern tries the ordered regex category patterns. Plan
// categories go through the plan builder; status resolves directly.
func (r *Router) resolvePattern(_ context.Context, _ string, text string) (*models.Response, bool) {
	category, params, ok := intent.MatchPatterns(text)
	if !ok {
		return nil, false
	}
	if !intent.IsPlanCategory(category) {
		return &models.Response{
			Type: models.TypeStatus,
			Intent: &models.ParsedIntent{
				IntentType: category,
				Action:     "status",
				Parameters: params,
				Confidence: 1,
				RawText:    text,
			},
		}, true
	}
	return r.buildPlan(category, params, text), true
}

// resolveClassifier is the AI fallback. A call failure or an
// unparseable reply yields an error response; a parsed reply below the
// confidence floor yields a clarification and never a plan. Classified
// plan categories route through the same templates as the regex path.
func (r *Router) resolveClassifier(ctx context.Context, sessionID, text string) (*models.Response, bool) {
	if r.classifier == nil {
		return nil, false
	}

	history := ""
	if r.history != nil {
		h, err := r.history.FormattedHistory(ctx, sessionID)
		if err != nil {
			log.Printf("Failed to load history for session %s: %v", sessionID, err)
		} else {
			history = h
		}
	}

	c, err := r.classifier.Classify(ctx, text, history)
	if err != nil {
		code := models.ErrClassification
		if errors.Is(err, prompts.ErrInvalidReply) {
			code = models.ErrParse
		}
		return &models.Response{
			Type:   models.TypeError,
			Intent: models.ErrorIntent(code, text, err.Error()),
		}, true
	}

	parsed := &models.ParsedIntent{
		IntentType: c.Intent,
		Action:     c.SuggestedAction,
		Parameters: c.Parameters,
		Confidence: c.Confidence,
		RawText:    text,
	}

	if intent.NeedsClarification(c) {
		return &models.Response{
			Type:    models.TypeClarification,
			Intent:  parsed,
			Message: prompts.ClarificationMessage,
		}, true
	}

	if intent.IsPlanCategory(c.Intent) {
		return r.buildPlan(c.Intent, c.Parameters, text), true
	}
	if c.Intent == intent.CategoryStatus {
		return &models.Response{Type: models.TypeStatus, Intent: parsed}, true
	}

	// Confident classification outside the plan categories: hand the
	// intent back as conversation.
	return &models.Response{Type: models.TypeChat, Intent: parsed}, true
}

// buildPlan runs the category template and inserts the plan into the
// store before returning it for review.
func (r *Router) buildPlan(category string, params map[string]any, text string) *models.Response {
	p, ok := plan.Build(category, params)
	if !ok {
		return &models.Response{
			Type:   models.TypeError,
			Intent: models.ErrorIntent(models.ErrUnknownIntent, text, "no plan template for category "+category),
		}
	}
	r.store.Put(p)
	return &models.Response{Type: models.TypePlan, Plan: p}
}

func (r *Router) recordUser(ctx context.Context, sessionID, text string) {
	if r.history == nil || sessionID == "" {
		return
	}
	if err := r.history.RecordUserMessage(ctx, sessionID, text); err != nil {
		log.Printf("Failed to record user message for session %s: %v", sessionID, err)
	}
}

func (r *Router) recordAssistant(ctx context.Context, sessionID string, resp *models.Response) {
	if r.history == nil || sessionID == "" {
		return
	}
	text := resp.Message
	if text == "" {
		if resp.Plan != nil {
			text = "Proposed plan: " + resp.Plan.Title
		} else {
			text = resp.Type
		}
	}
	if err := r.history.RecordAssistantMessage(ctx, sessionID, text); err != nil {
		log.Printf("Failed to record assistant message for session %s: %v", sessionID, err)
	}
}
