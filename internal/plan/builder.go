package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okabe-dev/opsbridge/internal/intent"
	"github.com/okabe-dev/opsbridge/internal/models"
)

// Build turns a resolved intent category plus seed parameters into a
// human-reviewable ExecutionPlan. One deterministic template per
// category; the same templates serve the regex path and the classifier
// path, so the plan shape has a single source of truth. Returns false
// when no template exists for the category.
func Build(category string, params map[string]any) (*models.ExecutionPlan, bool) {
	if params == nil {
		params = map[string]any{}
	}
	template := category
	if category == intent.CategoryCreateTask {
		template = taskTemplate(params)
	}

	builder, ok := templates[template]
	if !ok {
		return nil, false
	}
	p := builder(params)
	p.ID = newPlanID(template)
	p.CreatedAt = time.Now().UTC()
	p.RequiresApproval = true
	return p, true
}

// taskTemplate picks the tracker-specific template when the user named
// a tool, the generic one otherwise.
func taskTemplate(params map[string]any) string {
	tool, _ := params["tool"].(string)
	switch strings.ToLower(tool) {
	case "asana":
		return "asana_task"
	case "linear":
		return "linear_issue"
	default:
		return "generic_task"
	}
}

// newPlanID keeps a human-scannable category prefix but uses an opaque
// uuid fragment for identity; creation time lives in CreatedAt, not in
// the id.
func newPlanID(category string) string {
	return fmt.Sprintf("%s_%s", category, uuid.NewString()[:8])
}

var templates = map[string]func(params map[string]any) *models.ExecutionPlan{
	"deploy": func(params map[string]any) *models.ExecutionPlan {
		app := stringParam(params, "app", "the application")
		env := stringParam(params, "environment", "staging")
		return &models.ExecutionPlan{
			Title:       fmt.Sprintf("Deploy %s to %s", app, env),
			Description: fmt.Sprintf("Build, deploy and verify %s on the %s environment.", app, env),
			Operations: []models.PlanOperation{
				{Type: "check", Action: "code.github_status", Params: map[string]any{"repo": app}},
				{Type: "execute", Action: "code.deploy", Params: map[string]any{"app": app, "environment": env}},
			},
			Risks: []string{
				"Deployment replaces the currently running release",
				"A failed health check leaves the service in a degraded state until rolled back manually",
			},
			Costs: map[string]string{
				"api_calls": "2-4 calls to the deployment backend",
				"downtime":  "up to 30 seconds during instance rotation",
			},
			AffectedServices:  []string{"code"},
			EstimatedDuration: "2-5 minutes",
		}
	},
	"gong_summary": func(params map[string]any) *models.ExecutionPlan {
		period := stringParam(params, "period", "7d")
		return &models.ExecutionPlan{
			Title:       "Summarize recent Gong calls",
			Description: fmt.Sprintf("Fetch call recordings for the last %s and produce a summary digest.", period),
			Operations: []models.PlanOperation{
				{Type: "fetch", Action: "business.gong_summary", Params: map[string]any{"period": period}},
			},
			Risks: []string{
				"Summaries may omit context from calls without transcripts",
			},
			Costs: map[string]string{
				"api_calls": "1 call per recorded conversation in the period",
				"tokens":    "roughly 2k-10k summarization tokens",
			},
			AffectedServices:  []string{"business"},
			EstimatedDuration: "1-2 minutes",
		}
	},
	"asana_task": func(params map[string]any) *models.ExecutionPlan {
		title := stringParam(params, "title", "New task")
		return &models.ExecutionPlan{
			Title:       fmt.Sprintf("Create Asana task: %s", title),
			Description: "Create a task in the default Asana project.",
			Operations: []models.PlanOperation{
				{Type: "create", Action: "task.create", Params: map[string]any{"title": title, "tool": "asana"}},
			},
			Risks: []string{
				"Task is created in the default project and may need manual re-filing",
			},
			Costs: map[string]string{
				"api_calls": "1 Asana API call",
			},
			AffectedServices:  []string{"tasks"},
			EstimatedDuration: "under 30 seconds",
		}
	},
	"linear_issue": func(params map[string]any) *models.ExecutionPlan {
		title := stringParam(params, "title", "New issue")
		return &models.ExecutionPlan{
			Title:       fmt.Sprintf("Create Linear issue: %s", title),
			Description: "Create an issue in the default Linear team.",
			Operations: []models.PlanOperation{
				{Type: "create", Action: "task.create", Params: map[string]any{"title": title, "tool": "linear"}},
			},
			Risks: []string{
				"Issue lands in the default team backlog without labels or priority",
			},
			Costs: map[string]string{
				"api_calls": "1 Linear API call",
			},
			AffectedServices:  []string{"tasks"},
			EstimatedDuration: "under 30 seconds",
		}
	},
	"generic_task": func(params map[string]any) *models.ExecutionPlan {
		title := stringParam(params, "title", stringParam(params, "description", "New task"))
		return &models.ExecutionPlan{
			Title:       fmt.Sprintf("Create task: %s", title),
			Description: "Create a task in the configured default tracker.",
			Operations: []models.PlanOperation{
				{Type: "create", Action: "task.create", Params: map[string]any{"title": title}},
			},
			Risks: []string{
				"The default tracker is used; the task may belong elsewhere",
			},
			Costs: map[string]string{
				"api_calls": "1 tracker API call",
			},
			AffectedServices:  []string{"tasks"},
			EstimatedDuration: "under 30 seconds",
		}
	},
	"research": func(params map[string]any) *models.ExecutionPlan {
		query := stringParam(params, "query", "the topic")
		return &models.ExecutionPlan{
			Title:       fmt.Sprintf("Research: %s", query),
			Description: fmt.Sprintf("Search configured providers for %q, extract the best sources and summarize.", query),
			Operations: []models.PlanOperation{
				{Type: "fetch", Action: "research.search", Params: map[string]any{"query": query}},
				{Type: "fetch", Action: "research.deep_dive", Params: map[string]any{"query": query}},
			},
			Risks: []string{
				"Web sources may be stale or contradictory",
			},
			Costs: map[string]string{
				"api_calls": "2-6 provider searches plus page fetches",
				"tokens":    "roughly 1k-5k summarization tokens",
			},
			AffectedServices:  []string{"research"},
			EstimatedDuration: "1-3 minutes",
		}
	},
}

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
