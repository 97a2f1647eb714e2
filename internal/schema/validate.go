package schema

import "fmt"

// MissingParameterError reports a required parameter absent from the
// input. Validation fails closed: the dispatcher never sees the request.
type MissingParameterError struct {
	Action    string
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter %q for action %q", e.Parameter, e.Action)
}

// Validate checks input against the schema's parameter contract and
// returns the map that will be dispatched:
//   - required and absent: *MissingParameterError, nothing dispatched
//   - present: copied through unchanged
//   - absent with a declared default: default filled in
//
// Keys present in input but not declared in the schema are dropped
// silently, so callers can send forward-compatible payloads.
func Validate(input map[string]any, s *ActionSchema) (map[string]any, error) {
	out := make(map[string]any, len(s.Parameters))
	for _, p := range s.Parameters {
		v, ok := input[p.Name]
		switch {
		case ok:
			out[p.Name] = v
		case p.Required:
			return nil, &MissingParameterError{Action: s.Name, Parameter: p.Name}
		case p.Default != nil:
			out[p.Name] = p.Default
		}
	}
	return out, nil
}
