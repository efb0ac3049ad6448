package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Mock returns a canned response after an optional delay. Used for
// development and tests without network access.
type Mock struct {
	Delay time.Duration
	// Response is returned verbatim when set; otherwise the mock echoes the
	// first line of the prompt.
	Response string
	// Err, when set, is returned wrapped in *GenerationError.
	Err error
}

func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", &GenerationError{Err: fmt.Errorf("mock: %w", ctx.Err())}
		}
	}
	if m.Err != nil {
		return "", &GenerationError{Err: m.Err}
	}
	if m.Response != "" {
		return m.Response, nil
	}

	first, _, _ := strings.Cut(strings.TrimSpace(prompt), "\n")
	return "// mock response\n// " + first + "\n", nil
}
