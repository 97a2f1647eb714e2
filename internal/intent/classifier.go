package intent

import (
	"context"

	"github.com/okabe-dev/opsbridge/internal/prompts"
	"github.com/tmc/langchaingo/llms"
)

// MinConfidence is the floor below which a classification is returned
// as a clarification request instead of being turned into a plan.
const MinConfidence = 0.6

// Classifier is the AI fallback strategy: it asks the model for a
// strict-JSON classification of the raw input. It runs only when the
// command grammar and the regex patterns both failed to match.
type Classifier struct {
	model llms.Model
}

func NewClassifier(model llms.Model) *Classifier {
	return &Classifier{model: model}
}

// Classify sends the classifier prompt and parses the strict JSON reply.
// A transport error or an unparseable reply is returned as an error; the
// caller converts it to the matching error-typed intent.
func (c *Classifier) Classify(ctx context.Context, text, history string) (*prompts.Classification, error) {
	prompt := prompts.BuildClassifierPrompt(history, text)

	reply, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithTemperature(0.1),
		llms.WithMaxTokens(500),
	)
	if err != nil {
		return nil, err
	}

	return prompts.ParseClassification(reply)
}

// NeedsClarification reports whether the classification falls below the
// confidence floor or the model itself declared the request unclear.
func NeedsClarification(c *prompts.Classification) bool {
	return c.Confidence < MinConfidence || c.Intent == "unclear"
}
