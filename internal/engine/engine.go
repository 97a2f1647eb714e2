package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/okabe-dev/opsbridge/internal/dispatch"
	"github.com/okabe-dev/opsbridge/internal/models"
	"github.com/okabe-dev/opsbridge/internal/normalize"
	"github.com/okabe-dev/opsbridge/internal/schema"
)

// Engine runs the full action pipeline: registry lookup, parameter
// validation, HTTP dispatch and result normalization. Every failure mode
// is converted into a well-formed ActionResult; Execute never returns a
// Go error and never lets a dispatch failure escape to the caller.
type Engine struct {
	registry   *schema.Registry
	dispatcher *dispatch.Dispatcher
	normalizer *normalize.Registry
}

func New(registry *schema.Registry, dispatcher *dispatch.Dispatcher, normalizer *normalize.Registry) *Engine {
	return &Engine{
		registry:   registry,
		dispatcher: dispatcher,
		normalizer: normalizer,
	}
}

// Execute validates params against the named action's schema, dispatches
// them to the owning backend and normalizes the response.
// ExecutionTimeMs spans dispatch start through normalization end and is
// attached as the very last step.
func (e *Engine) Execute(ctx context.Context, action string, params map[string]any) *models.ActionResult {
	s, ok := e.registry.Get(action)
	if !ok {
		return models.FailureResult(models.StatusFailure, queryOf(action, params),
			fmt.Sprintf("Unknown action: %s", action))
	}

	validated, err := schema.Validate(params, s)
	if err != nil {
		return models.FailureResult(models.StatusFailure, queryOf(action, params), err.Error())
	}

	start := time.Now()
	raw, err := e.dispatcher.Dispatch(ctx, s, validated)
	if err != nil {
		log.Printf("Dispatch failed for %s: %v", action, err)
		result := models.FailureResult(dispatchStatus(err), queryOf(action, validated), err.Error())
		result.ExecutionTimeMs = time.Since(start).Milliseconds()
		return result
	}

	result := e.normalizer.Normalize(raw, action, validated)
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	return result
}

func dispatchStatus(err error) string {
	var timeout *dispatch.TimeoutError
	if errors.As(err, &timeout) {
		return models.StatusTimeout
	}
	return models.StatusFailure
}

// Request names one action with its parameters for fan-out execution.
type Request struct {
	Action string
	Params map[string]any
}

// ExecuteFanOut dispatches independent requests concurrently and merges
// their results into a single envelope. Completion order carries no
// meaning: research-style records are deduplicated by URL, everything
// else is appended as it arrives. Status is SUCCESS when every branch
// succeeded, FAILURE when all failed, PARTIAL otherwise.
func (e *Engine) ExecuteFanOut(ctx context.Context, reqs []Request) *models.ActionResult {
	if len(reqs) == 0 {
		return models.FailureResult(models.StatusFailure, "", "no actions to execute")
	}

	results := make([]*models.ActionResult, len(reqs))
	var wg sync.WaitGroup
	start := time.Now()
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			results[i] = e.Execute(ctx, req.Action, req.Params)
		}(i, req)
	}
	wg.Wait()

	merged := &models.ActionResult{
		Query:     queryOf(reqs[0].Action, reqs[0].Params),
		Results:   []any{},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Errors:    []string{},
	}
	seenURL := make(map[string]bool)
	succeeded := 0
	for _, r := range results {
		if r.Status == models.StatusSuccess || r.Status == models.StatusPartial {
			succeeded++
		}
		merged.Errors = append(merged.Errors, r.Errors...)
		if merged.Summary == nil && r.Summary != nil {
			merged.Summary = r.Summary
		}
		for _, entry := range r.Results {
			if rec, ok := entry.(models.ResearchRecord); ok && rec.URL != "" {
				if seenURL[rec.URL] {
					continue
				}
				seenURL[rec.URL] = true
			}
			merged.Results = append(merged.Results, entry)
		}
	}

	switch succeeded {
	case len(results):
		merged.Status = models.StatusSuccess
	case 0:
		merged.Status = models.StatusFailure
	default:
		merged.Status = models.StatusPartial
	}
	merged.ExecutionTimeMs = time.Since(start).Milliseconds()
	return merged
}

func queryOf(action string, params map[string]any) string {
	if q, ok := params["query"].(string); ok && q != "" {
		return q
	}
	return action
}
