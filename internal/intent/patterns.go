package intent

import "regexp"

// Categories recognized by the regex patterns and the AI classifier.
const (
	CategoryDeploy      = "deploy"
	CategoryGongSummary = "gong_summary"
	CategoryCreateTask  = "create_task"
	CategoryResearch    = "research"
	CategoryStatus      = "status"
)

// Pattern binds one intent category to its recognizers. Named capture
// groups become seed parameters for the plan template.
type Pattern struct {
	Category string
	Regexes  []*regexp.Regexp
}

// patterns is evaluated in order; the first category with a matching
// regex wins. Order is part of the contract, not an implementation
// detail.
var patterns = []Pattern{
	{
		Category: CategoryDeploy,
		Regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bdeploy\s+(?P<app>[\w./-]+)(?:\s+to\s+(?P<environment>[\w-]+))?`),
			regexp.MustCompile(`(?i)\broll\s*out\s+(?P<app>[\w./-]+)(?:\s+to\s+(?P<environment>[\w-]+))?`),
		},
	},
	{
		Category: CategoryGongSummary,
		Regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:gong|sales\s+calls?)\b.*\bsummar(?:y|ies|ize|ise)`),
			regexp.MustCompile(`(?i)\bsummar(?:y|ies|ize|ise)\b.*\b(?:gong|sales\s+calls?)\b`),
		},
	},
	{
		Category: CategoryCreateTask,
		Regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:create|add|open|file)\s+(?:an?\s+)?(?:(?P<tool>asana|linear)\s+)?(?:task|issue|ticket)\b(?:\s*(?:for|to|about|:)\s*(?P<title>.+))?`),
		},
	},
	{
		Category: CategoryResearch,
		Regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:research|look\s+up|search\s+for|find\s+out\s+about)\s+(?P<query>.+)`),
		},
	},
	{
		Category: CategoryStatus,
		Regexes: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bstatus\s+of\s+(?P<service>[\w-]+)`),
			regexp.MustCompile(`(?i)\bis\s+(?P<service>[\w-]+)\s+(?:up|down|healthy|alive)\b`),
		},
	},
}

// planCategories marks which categories resolve to a plan template.
// Everything else (status) is answered directly by the router.
var planCategories = map[string]bool{
	CategoryDeploy:      true,
	CategoryGongSummary: true,
	CategoryCreateTask:  true,
	CategoryResearch:    true,
}

// IsPlanCategory reports whether the category routes to the plan builder.
func IsPlanCategory(category string) bool {
	return planCategories[category]
}

// MatchPatterns runs the ordered category patterns over the input. On a
// match it returns the category and the named capture groups as seed
// parameters.
func MatchPatterns(text string) (string, map[string]any, bool) {
	for _, p := range patterns {
		for _, re := range p.Regexes {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			params := make(map[string]any)
			for i, name := range re.SubexpNames() {
				if name == "" || i >= len(m) || m[i] == "" {
					continue
				}
				params[name] = m[i]
			}
			return p.Category, params, true
		}
	}
	return "", nil, false
}
