package classifier

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrUpstreamFailed means the external service reported a terminal
	// failure while processing the uploaded file.
	ErrUpstreamFailed = errors.New("classifier upstream failed")
	// ErrMalformedVerdict means the generated response was not the expected
	// two-field JSON object.
	ErrMalformedVerdict = errors.New("malformed classifier verdict")
)

// Verdict is the structured safety answer for one video.
type Verdict struct {
	Safe   bool   `json:"safe"`
	Reason string `json:"reason"`
}

// ParseVerdict extracts a Verdict from the raw model response. The model is
// told not to use markdown but wraps the JSON in code fences often enough
// that the delimiters are stripped before parsing.
func ParseVerdict(text string) (Verdict, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var raw struct {
		Safe   *bool   `json:"safe"`
		Reason *string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return Verdict{}, ErrMalformedVerdict
	}
	if raw.Safe == nil || raw.Reason == nil {
		return Verdict{}, ErrMalformedVerdict
	}
	return Verdict{Safe: *raw.Safe, Reason: *raw.Reason}, nil
}
