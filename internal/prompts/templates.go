package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const ClassifierPrompt = `You are the intent classifier for opsbridge, an operations assistant. Analyze the user's request and decide which operational intent it expresses.

Known intents: deploy, gong_summary, create_task, research, status.
If the request does not clearly express one of these, use intent "unclear".

RESPONSE FORMAT:
Respond with ONLY a valid JSON object in this exact shape, no prose before or after:
{
  "intent": "intent name or unclear",
  "confidence": 0.0,
  "parameters": {
    "param_name": "extracted value"
  },
  "suggested_action": "namespace.verb of the action that would fulfil this"
}

Extract parameters from the conversation, e.g. app and environment for deploy, query for research, title and tool for create_task.

Conversation so far:
%s

User request: %s`

const FallbackMessage = "I couldn't work out what you want me to do. Could you rephrase the request, or use /help to see the available commands?"

const ClarificationMessage = "I'm not confident I understood that correctly. Could you be more specific about what you'd like me to do?"

// BuildClassifierPrompt fills the classifier template with conversation
// history and the current request.
func BuildClassifierPrompt(history, text string) string {
	if strings.TrimSpace(history) == "" {
		history = "No previous conversation."
	}
	return fmt.Sprintf(ClassifierPrompt, history, text)
}

// ErrInvalidReply marks a classifier reply that failed the strict JSON
// contract. Such replies are rejected whole, never partially accepted.
var ErrInvalidReply = errors.New("invalid classifier reply")

// Classification is the strict JSON reply contract for the classifier.
// Any reply that does not parse into this exact shape is a hard failure,
// never partially accepted.
type Classification struct {
	Intent          string         `json:"intent"`
	Confidence      float64        `json:"confidence"`
	Parameters      map[string]any `json:"parameters"`
	SuggestedAction string         `json:"suggested_action"`
}

// ParseClassification extracts and decodes the JSON object from a raw
// model reply.
func ParseClassification(content string) (*Classification, error) {
	jsonContent := extractJSON(content)
	if jsonContent == "" {
		return nil, fmt.Errorf("%w: no JSON object found", ErrInvalidReply)
	}

	var c Classification
	if err := json.Unmarshal([]byte(jsonContent), &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}

	if c.Intent == "" {
		return nil, fmt.Errorf("%w: missing intent field", ErrInvalidReply)
	}
	if c.Parameters == nil {
		c.Parameters = make(map[string]any)
	}
	return &c, nil
}

func extractJSON(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(content, "}")
	if end == -1 || end <= start {
		return ""
	}
	return content[start : end+1]
}
