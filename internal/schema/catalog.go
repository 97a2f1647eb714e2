package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog bundles the static action set with the service registry that
// resolves handler service names to base URLs. The built-in catalog is
// the startup default; a YAML catalog file can add or override entries.
type Catalog struct {
	Services map[string]string `yaml:"services"`
	Actions  []*ActionSchema   `yaml:"actions"`
}

// DefaultCatalog returns the built-in action set and service registry.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Services: map[string]string{
			"research": "http://localhost:8081",
			"business": "http://localhost:8082",
			"code":     "http://localhost:8083",
			"tasks":    "http://localhost:8084",
		},
		Actions: []*ActionSchema{
			{
				Name:        "research.search",
				Description: "Search configured research providers and aggregate sources",
				Parameters: []Parameter{
					{Name: "query", Type: "string", Required: true},
					{Name: "max_results", Type: "int", Default: 5},
					{Name: "sources", Type: "list", Default: []any{"serper", "tavily"}},
				},
				Handler: Handler{Service: "research", Endpoint: "/search", TimeoutMs: 30000},
			},
			{
				Name:        "research.deep_dive",
				Description: "Fetch and extract full text for a set of URLs",
				Parameters: []Parameter{
					{Name: "query", Type: "string", Required: true},
					{Name: "depth", Type: "int", Default: 2},
				},
				Handler: Handler{Service: "research", Endpoint: "/deep-dive", TimeoutMs: 60000},
			},
			{
				Name:        "business.gong_summary",
				Description: "Summarize recent Gong call recordings",
				Parameters: []Parameter{
					{Name: "period", Type: "string", Default: "7d"},
					{Name: "team", Type: "string"},
				},
				Handler: Handler{Service: "business", Endpoint: "/gong/summary", TimeoutMs: 20000},
			},
			{
				Name:        "business.hubspot_contacts",
				Description: "Look up HubSpot contacts matching a query",
				Parameters: []Parameter{
					{Name: "query", Type: "string", Required: true},
					{Name: "limit", Type: "int", Default: 10},
				},
				Handler: Handler{Service: "business", Endpoint: "/hubspot/contacts", TimeoutMs: 15000},
			},
			{
				Name:        "code.deploy",
				Description: "Deploy an application to a target environment",
				Parameters: []Parameter{
					{Name: "app", Type: "string", Required: true},
					{Name: "environment", Type: "string", Default: "staging"},
				},
				Handler: Handler{Service: "code", Endpoint: "/deploy", TimeoutMs: 60000},
			},
			{
				Name:        "code.github_status",
				Description: "Report CI and PR status for a repository",
				Parameters: []Parameter{
					{Name: "repo", Type: "string", Required: true},
				},
				Handler: Handler{Service: "code", Endpoint: "/github/status", TimeoutMs: 10000},
			},
			{
				Name:        "task.create",
				Description: "Create a task in the configured tracker",
				Parameters: []Parameter{
					{Name: "title", Type: "string", Required: true},
					{Name: "tool", Type: "string", Default: "asana"},
					{Name: "notes", Type: "string"},
				},
				Handler: Handler{Service: "tasks", Endpoint: "/tasks/create", TimeoutMs: 15000},
			},
		},
	}
}

// LoadCatalog reads a YAML catalog file and merges it over the built-in
// catalog: services override by name, actions override by action name.
// An empty path returns the built-in catalog unchanged.
func LoadCatalog(path string) (*Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	for name, url := range override.Services {
		cat.Services[name] = url
	}
	byName := make(map[string]int, len(cat.Actions))
	for i, a := range cat.Actions {
		byName[a.Name] = i
	}
	for _, a := range override.Actions {
		if i, ok := byName[a.Name]; ok {
			cat.Actions[i] = a
		} else {
			cat.Actions = append(cat.Actions, a)
		}
	}
	return cat, nil
}

// BuildRegistry constructs an action registry from the catalog.
func (c *Catalog) BuildRegistry() *Registry {
	return NewRegistry(c.Actions...)
}
