package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/okabe-dev/opsbridge/internal/models"
)

const helpText = `Available commands:
/plan <text>      build an execution plan from a description
/approve [id]     approve a pending plan (latest if no id)
/execute [id]     pop an approved plan for execution (latest if no id)
/cancel [id]      discard a pending plan (latest if no id)
/mode <natural|command|hybrid>  switch interaction mode
/status [service] report service status
/help [topic]     show this help`

// resolveCommand is the first resolution strategy: the explicit slash
// command grammar. Verb matching is case-insensitive. It always runs,
// whatever the interaction mode, so "/status api" never falls through
// to pattern matching.
func (r *Router) resolveCommand(ctx context.Context, sessionID, text string) (*models.Response, bool) {
	if !strings.HasPrefix(text, "/") {
		return nil, false
	}

	fields := strings.Fields(text)
	verb := strings.ToLower(fields[0])
	args := fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))

	switch verb {
	case "/plan":
		return r.handlePlanCommand(ctx, sessionID, rest), true
	case "/approve":
		return r.handleApprove(firstOrEmpty(args), text), true
	case "/execute":
		return r.handleExecute(firstOrEmpty(args), text), true
	case "/cancel":
		return r.handleCancel(firstOrEmpty(args), text), true
	case "/mode":
		return r.handleMode(firstOrEmpty(args), text), true
	case "/status":
		return r.handleStatus(firstOrEmpty(args), text), true
	case "/help":
		return &models.Response{Type: models.TypeHelp, Message: helpText}, true
	default:
		return &models.Response{
			Type:   models.TypeError,
			Intent: models.ErrorIntent(models.ErrInputParse, text, fmt.Sprintf("unknown command %s; see /help", verb)),
		}, true
	}
}

// handlePlanCommand forces plan construction from free text. The
// remainder goes through the natural strategies; if neither the patterns
// nor the classifier yield a plan category, the generic task template is
// used so the command always produces a reviewable plan.
func (r *Router) handlePlanCommand(ctx context.Context, sessionID, rest string) *models.Response {
	if rest == "" {
		return &models.Response{
			Type:   models.TypeError,
			Intent: models.ErrorIntent(models.ErrInputParse, "/plan", "usage: /plan <description>"),
		}
	}

	if resp, ok := r.resolvePattern(ctx, sessionID, rest); ok && resp.Type == models.TypePlan {
		return resp
	}
	if resp, ok := r.resolveClassifier(ctx, sessionID, rest); ok && resp.Type == models.TypePlan {
		return resp
	}
	return r.buildPlan("generic_task", map[string]any{"title": rest}, rest)
}

// handleApprove acknowledges a plan without mutating the store. There is
// no persisted approved state: approval is returned to the caller, and
// execute accepts the plan whether or not approve was called first. A
// known limitation carried over from the source behavior.
func (r *Router) handleApprove(id, text string) *models.Response {
	p, errResp := r.lookup(id, text, false)
	if errResp != nil {
		return errResp
	}
	return &models.Response{Type: models.TypeApproved, Plan: p}
}

// handleExecute pops the plan and returns it for out-of-core execution.
func (r *Router) handleExecute(id, text string) *models.Response {
	p, errResp := r.lookup(id, text, true)
	if errResp != nil {
		return errResp
	}
	return &models.Response{Type: models.TypeExecuting, Plan: p}
}

// handleCancel pops the plan and discards it. No rollback exists for a
// plan already mid-execution elsewhere.
func (r *Router) handleCancel(id, text string) *models.Response {
	p, errResp := r.lookup(id, text, true)
	if errResp != nil {
		return errResp
	}
	return &models.Response{Type: models.TypeCancelled, Plan: p}
}

// lookup resolves the plan-op target: the given id, or the most
// recently created plan when the id is omitted. pop removes the plan
// from the store.
func (r *Router) lookup(id, text string, pop bool) (*models.ExecutionPlan, *models.Response) {
	if id == "" {
		latest, ok := r.store.Latest()
		if !ok {
			return nil, &models.Response{
				Type:   models.TypeError,
				Intent: models.ErrorIntent(models.ErrNoPlans, text, "no pending plans"),
			}
		}
		id = latest.ID
	}

	var p *models.ExecutionPlan
	var ok bool
	if pop {
		p, ok = r.store.Remove(id)
	} else {
		p, ok = r.store.Get(id)
	}
	if !ok {
		return nil, &models.Response{
			Type:   models.TypeError,
			Intent: models.ErrorIntent(models.ErrPlanNotFound, text, fmt.Sprintf("plan %q not found", id)),
		}
	}
	return p, nil
}

func (r *Router) handleMode(mode, text string) *models.Response {
	mode = strings.ToLower(mode)
	switch mode {
	case models.ModeNatural, models.ModeCommand, models.ModeHybrid:
		r.setMode(mode)
		return &models.Response{Type: models.TypeSuccess, Message: "mode set to " + mode}
	default:
		return &models.Response{
			Type:   models.TypeError,
			Intent: models.ErrorIntent(models.ErrInputParse, text, "usage: /mode <natural|command|hybrid>"),
		}
	}
}

func (r *Router) handleStatus(service, text string) *models.Response {
	params := map[string]any{}
	if service != "" {
		params["service"] = service
	}
	return &models.Response{
		Type: models.TypeStatus,
		Intent: &models.ParsedIntent{
			IntentType: "status",
			Action:     "status",
			Parameters: params,
			Confidence: 1,
			RawText:    text,
		},
	}
}

func firstOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
