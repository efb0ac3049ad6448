package view

import (
	"context"
	"fmt"
	"io"

	"github.com/minios-linux/locode/catalog"
	"github.com/minios-linux/locode/i18n"
	"github.com/minios-linux/locode/metrics"
	"github.com/minios-linux/locode/prompt"
	"github.com/minios-linux/locode/validate"
)

const formLocaleToCode = "locale-to-code"

// LocaleToCode turns a translation file plus source code into an
// internationalized component.
type LocaleToCode struct {
	core

	format      catalog.FormatID
	platform    catalog.Platform
	framework   string
	text        string
	source      string
	locales     []string
	status      validate.Status
	validation  string
	showPreview bool
}

// LocaleToCodeSnapshot is a consistent copy of the form for rendering.
type LocaleToCodeSnapshot struct {
	Format            catalog.FormatID
	Platform          catalog.PlatformID
	Framework         string
	Frameworks        []string
	Text              string
	Source            string
	Locales           []string
	Status            validate.Status
	ValidationMessage string
	Phase             Phase
	InFlight          bool
	Result            string
	Error             string
	ShowPreview       bool
	CanSubmit         bool
}

// NewLocaleToCode returns a form with the default selections
// (json, react, react-i18next).
func NewLocaleToCode(deps Deps) *LocaleToCode {
	f := &LocaleToCode{core: newCore(formLocaleToCode, deps)}
	f.resetLocked()
	return f
}

func (f *LocaleToCode) resetLocked() {
	f.format = catalog.FormatJSON
	f.platform, _ = catalog.LookupPlatform(string(catalog.PlatformReact))
	f.framework = f.platform.DefaultFramework()
	f.text = ""
	f.source = ""
	f.locales = nil
	f.status = validate.Unchecked
	f.validation = ""
	f.showPreview = false
	f.result = ""
	f.message = ""
	f.phase = PhaseIdle
}

// validateLocked re-runs validation for the current text and format.
// Caller holds mu.
func (f *LocaleToCode) validateLocked() error {
	if f.text == "" {
		f.status = validate.Unchecked
		f.validation = ""
		f.idleLocked()
		return nil
	}

	f.phase = PhaseValidating
	res := f.deps.Validator.Validate(f.text, f.format)
	metrics.ValidationsTotal.WithLabelValues(string(f.format), res.Status.String()).Inc()

	f.status = res.Status
	f.validation = res.Message
	if !f.inFlight {
		if res.Status == validate.Valid {
			f.phase = PhaseValid
		} else {
			f.phase = PhaseInvalid
		}
	} else {
		f.phase = PhaseSubmitting
	}
	if res.Status == validate.Invalid {
		return &ValidationError{Format: f.format, Message: res.Message}
	}
	return nil
}

func (f *LocaleToCode) idleLocked() {
	if f.inFlight {
		f.phase = PhaseSubmitting
	} else {
		f.phase = PhaseIdle
	}
}

// SetFormat selects the translation file format and revalidates
// non-empty text against it.
func (f *LocaleToCode) SetFormat(id catalog.FormatID) error {
	if _, ok := catalog.LookupFormat(string(id)); !ok {
		return fmt.Errorf("%w: format %q", ErrUnknownOption, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.format == id {
		return nil
	}
	f.format = id
	return f.validateLocked()
}

// SelectPlatform selects the target platform and resets the framework to
// its first listed one.
func (f *LocaleToCode) SelectPlatform(id catalog.PlatformID) error {
	p, ok := catalog.LookupPlatform(string(id))
	if !ok {
		return fmt.Errorf("%w: platform %q", ErrUnknownOption, id)
	}
	f.mu.Lock()
	f.platform = p
	f.framework = p.DefaultFramework()
	f.mu.Unlock()
	return nil
}

// SetFramework selects one of the current platform's frameworks.
func (f *LocaleToCode) SetFramework(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.platform.HasFramework(name) {
		return fmt.Errorf("%w: framework %q for %s", ErrUnknownOption, name, f.platform.ID)
	}
	f.framework = name
	return nil
}

// SetText replaces the translation file. Non-empty text is validated
// immediately; a *ValidationError is returned when it fails.
func (f *LocaleToCode) SetText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	return f.validateLocked()
}

// SetSource replaces the source code to internationalize.
func (f *LocaleToCode) SetSource(source string) {
	f.mu.Lock()
	f.source = source
	f.mu.Unlock()
}

// SetLocales selects extra languages to request translations for.
func (f *LocaleToCode) SetLocales(locales []string) {
	l := normalizeLocales(locales, catalog.IsLocale)
	f.mu.Lock()
	f.locales = l
	f.mu.Unlock()
}

// Upload replaces the translation file with the content of a file. The
// format follows the file extension when it is recognized and is left
// alone otherwise; the text is then validated. On a read failure no text
// is applied and the status becomes invalid.
func (f *LocaleToCode) Upload(name string, r io.Reader) error {
	text, err := readUpload(name, r, f.deps.maxUpload())

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.message = i18n.T(msgReadFailed)
		f.status = validate.Invalid
		f.validation = ""
		if !f.inFlight {
			f.phase = PhaseInvalid
		}
		return err
	}

	f.text = text
	f.message = ""
	f.format = catalog.DetectOrKeep(name, f.format)
	return f.validateLocked()
}

// Submit asks the model for the component. It returns ErrNotReady without
// calling the model unless the text is non-empty and valid for the
// current format and the source code is non-empty.
func (f *LocaleToCode) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrInFlight
	}
	if f.text == "" || f.source == "" {
		f.mu.Unlock()
		return ErrNotReady
	}
	if err := f.validateLocked(); err != nil {
		f.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	req := f.requestLocked()
	seq := f.begin()
	f.result = ""
	f.mu.Unlock()

	return f.run(ctx, seq, req, msgCodeFailed)
}

func (f *LocaleToCode) requestLocked() prompt.Request {
	return prompt.NewRequest(prompt.LocaleToCode, string(f.platform.ID), f.framework, f.format, f.text, f.source, f.locales)
}

// Prompt renders the prompt Submit would send, without sending it.
func (f *LocaleToCode) Prompt() (string, error) {
	f.mu.Lock()
	req := f.requestLocked()
	f.mu.Unlock()
	return f.deps.Prompts.Build(req)
}

// TogglePreview flips the expanded view of the result.
func (f *LocaleToCode) TogglePreview() {
	f.mu.Lock()
	f.showPreview = !f.showPreview
	f.mu.Unlock()
}

// ReportCopyFailure records that copying the result to the clipboard
// failed in the browser.
func (f *LocaleToCode) ReportCopyFailure(cause error) error {
	f.mu.Lock()
	f.message = i18n.T(msgClipboardFailed)
	f.mu.Unlock()
	return &ClipboardError{Err: cause}
}

// Reset restores the defaults and drops any pending response.
func (f *LocaleToCode) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelLocked()
	f.resetLocked()
}

// Snapshot returns a copy of the current state.
func (f *LocaleToCode) Snapshot() LocaleToCodeSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return LocaleToCodeSnapshot{
		Format:            f.format,
		Platform:          f.platform.ID,
		Framework:         f.framework,
		Frameworks:        append([]string(nil), f.platform.Frameworks...),
		Text:              f.text,
		Source:            f.source,
		Locales:           append([]string(nil), f.locales...),
		Status:            f.status,
		ValidationMessage: f.validation,
		Phase:             f.phase,
		InFlight:          f.inFlight,
		Result:            f.result,
		Error:             f.message,
		ShowPreview:       f.showPreview,
		CanSubmit:         !f.inFlight && f.text != "" && f.status == validate.Valid && f.source != "",
	}
}
