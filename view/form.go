// Package view holds the per-form state machines behind the two pages and
// the session store that owns them.
//
// A form moves idle → validating → valid|invalid → submitting →
// success|error. Submission is admitted by an explicit in-flight flag, and
// every submission takes a sequence number: a response whose number is no
// longer current (the form was reset or resubmitted meanwhile) is dropped.
// The form mutex is never held while the model call is pending.
package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/minios-linux/locode/i18n"
	"github.com/minios-linux/locode/logger"
	"github.com/minios-linux/locode/metrics"
	"github.com/minios-linux/locode/prompt"
	"github.com/minios-linux/locode/validate"
)

// Generator turns a prompt into response text. *gemini.Client and
// *gemini.Mock satisfy it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Phase is the externally visible state of a form.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseValid      Phase = "valid"
	PhaseInvalid    Phase = "invalid"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// DefaultMaxUpload bounds uploaded files when Deps.MaxUpload is zero.
const DefaultMaxUpload = 1 << 20

// Deps are the collaborators shared by every form instance.
type Deps struct {
	Generator Generator
	// Prompts may be nil to use the built-in templates.
	Prompts   *prompt.Builder
	Validator validate.Validator
	MaxUpload int64
}

func (d Deps) maxUpload() int64 {
	if d.MaxUpload > 0 {
		return d.MaxUpload
	}
	return DefaultMaxUpload
}

// core is the submission machinery shared by both forms. Fields below mu
// are guarded by it.
type core struct {
	form string
	deps Deps

	mu       sync.Mutex
	phase    Phase
	inFlight bool
	seq      uint64
	result   string
	message  string
}

func newCore(form string, deps Deps) core {
	return core{form: form, deps: deps, phase: PhaseIdle}
}

// begin takes the in-flight slot and a fresh sequence number.
// Caller holds mu and has checked inFlight.
func (c *core) begin() uint64 {
	c.inFlight = true
	c.seq++
	c.message = ""
	c.phase = PhaseSubmitting
	return c.seq
}

// cancelLocked invalidates any pending request. Caller holds mu.
func (c *core) cancelLocked() {
	c.seq++
	c.inFlight = false
}

// run renders and sends req, then applies the outcome if seq is still
// current. Caller must not hold mu.
func (c *core) run(ctx context.Context, seq uint64, req prompt.Request, failMsg string) error {
	start := time.Now()
	text, err := c.generate(ctx, req)
	elapsed := time.Since(start)
	metrics.GenerationDuration.WithLabelValues(c.form).Observe(elapsed.Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		metrics.GenerationsTotal.WithLabelValues(c.form, metrics.OutcomeStale).Inc()
		logger.Info("discarding stale response",
			zap.String("form", c.form), zap.Uint64("seq", seq), zap.Uint64("current", c.seq))
		return ErrStale
	}

	c.inFlight = false
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(c.form, metrics.OutcomeError).Inc()
		logger.Warn("generation failed",
			zap.String("form", c.form), zap.Uint64("seq", seq), zap.Duration("elapsed", elapsed), zap.Error(err))
		c.result = ""
		c.message = i18n.T(failMsg)
		c.phase = PhaseError
		return err
	}

	metrics.GenerationsTotal.WithLabelValues(c.form, metrics.OutcomeSuccess).Inc()
	logger.Debug("generation succeeded",
		zap.String("form", c.form), zap.Uint64("seq", seq), zap.Duration("elapsed", elapsed), zap.Int("chars", len(text)))
	c.result = text
	c.message = ""
	c.phase = PhaseSuccess
	return nil
}

func (c *core) generate(ctx context.Context, req prompt.Request) (string, error) {
	if c.deps.Generator == nil {
		return "", errors.New("no generator configured")
	}
	p, err := c.deps.Prompts.Build(req)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}
	return c.deps.Generator.Generate(ctx, p)
}

// readUpload reads an uploaded file fully or not at all.
func readUpload(name string, r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", &FileReadError{Name: name, Err: err}
	}
	if int64(len(data)) > limit {
		return "", &FileReadError{Name: name, Err: fmt.Errorf("file exceeds %d bytes", limit)}
	}
	if !utf8.Valid(data) {
		return "", &FileReadError{Name: name, Err: errors.New("file is not UTF-8 text")}
	}
	return string(data), nil
}

// normalizeLocales keeps known locales in the order given, without
// duplicates.
func normalizeLocales(in []string, known func(string) bool) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, l := range in {
		if !known(l) || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
