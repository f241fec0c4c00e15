package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Completer turns a prompt into raw completion text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Failures a Completer reports. Callers match them with errors.Is, or
// errors.As for *ServiceError.
var (
	ErrNetwork         = errors.New("network error")
	ErrTimeout         = errors.New("completion request timed out")
	ErrInvalidResponse = errors.New("invalid completion response")
)

// ServiceError is returned when the completion service answers but refuses
// the request: a non-2xx status or an explicit success:false body.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion service error (status: %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("completion service error: %s", e.Message)
}

// ExtractJSONObject returns the span from the first '{' to the last '}' in
// text. Model replies often wrap the JSON in prose or markdown fences.
func ExtractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", truncate(text, 200))
	}
	return text[start : end+1], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
