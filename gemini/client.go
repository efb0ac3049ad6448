// Package gemini calls the Google Generative Language API
// (generateContent) with an API key.
//
// A Client is built once by the caller and passed to whatever needs it;
// there is no package-level client. The prompt travels inside a JSON
// request body encoded by resty, so arbitrary prompt text never breaks the
// envelope.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultModel   = "gemini-1.5-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	APIVersion     = "v1beta"
)

// GenerationError wraps every failure of a generation call. Causes are not
// distinguished for the user.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Config configures a Client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// Proxy overrides HTTP_PROXY/HTTPS_PROXY when set.
	Proxy string
}

// Client calls the Gemini REST API.
type Client struct {
	model   string
	baseURL string
	http    *resty.Client
}

// New builds a client. No request timeout is applied; callers cancel
// through the context.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	h := resty.New().
		SetHeader("x-goog-api-key", cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	if cfg.Proxy != "" {
		h.SetProxy(cfg.Proxy)
	}

	return &Client{
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    h,
	}, nil
}

// Model returns the model id used for requests.
func (c *Client) Model() string { return c.model }

// Endpoint is the generateContent URL for the configured model.
func (c *Client) Endpoint() string {
	return fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, APIVersion, c.model)
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *apiError `json:"error"`
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}

func newRequest(prompt string) generateRequest {
	return generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
}

// ---------------------------------------------------------------------------
// Generate
// ---------------------------------------------------------------------------

// Generate sends prompt and returns the text of the first candidate. Any
// failure is returned as *GenerationError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.generate(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	var out generateResponse
	var fail errorEnvelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(newRequest(prompt)).
		SetResult(&out).
		SetError(&fail).
		Post(c.Endpoint())
	if err != nil {
		return "", err
	}

	if resp.IsError() {
		if fail.Error != nil && fail.Error.Message != "" {
			return "", fmt.Errorf("API error (%s): %s", resp.Status(), fail.Error.Message)
		}
		return "", fmt.Errorf("API error (%s): %s", resp.Status(), truncate(resp.String(), 500))
	}

	return extractText(out)
}

func extractText(out generateResponse) (string, error) {
	if out.Error != nil {
		return "", fmt.Errorf("API error: %s", out.Error.Message)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}

	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty response (finish reason %q)", out.Candidates[0].FinishReason)
	}
	return b.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
