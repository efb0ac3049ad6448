package view

import (
	"context"
	"fmt"
	"io"

	"github.com/minios-linux/locode/catalog"
	"github.com/minios-linux/locode/i18n"
	"github.com/minios-linux/locode/prompt"
)

const formCodeToLocale = "code-to-locale"

// CodeToLocale turns source code into translation files.
type CodeToLocale struct {
	core

	target  string
	format  catalog.FormatID
	locales []string
	text    string
}

// CodeToLocaleSnapshot is a consistent copy of the form for rendering.
type CodeToLocaleSnapshot struct {
	Target    string
	Format    catalog.FormatID
	Locales   []string
	Text      string
	Phase     Phase
	InFlight  bool
	Result    string
	Error     string
	CanSubmit bool
}

// NewCodeToLocale returns a form with the default selections
// (swiftui, json, no locales).
func NewCodeToLocale(deps Deps) *CodeToLocale {
	f := &CodeToLocale{core: newCore(formCodeToLocale, deps)}
	f.resetLocked()
	return f
}

func (f *CodeToLocale) resetLocked() {
	f.target = "swiftui"
	f.format = catalog.FormatJSON
	f.locales = nil
	f.text = ""
	f.result = ""
	f.message = ""
	f.phase = PhaseIdle
}

// SetTarget selects the technology the code is written for.
func (f *CodeToLocale) SetTarget(id string) error {
	if _, ok := catalog.LookupCodeTarget(id); !ok {
		return fmt.Errorf("%w: target %q", ErrUnknownOption, id)
	}
	f.mu.Lock()
	f.target = id
	f.mu.Unlock()
	return nil
}

// SetFormat selects the output format (json, xml or yaml).
func (f *CodeToLocale) SetFormat(id catalog.FormatID) error {
	if !catalog.IsOutputFormat(string(id)) {
		return fmt.Errorf("%w: output format %q", ErrUnknownOption, id)
	}
	f.mu.Lock()
	f.format = id
	f.mu.Unlock()
	return nil
}

// SetLocales selects the languages to translate into. Unknown entries are
// dropped.
func (f *CodeToLocale) SetLocales(locales []string) {
	l := normalizeLocales(locales, catalog.IsLocale)
	f.mu.Lock()
	f.locales = l
	f.mu.Unlock()
}

// SetText replaces the code to translate.
func (f *CodeToLocale) SetText(text string) {
	f.mu.Lock()
	f.text = text
	f.mu.Unlock()
}

// Upload replaces the code with the content of a file. On failure the
// current text is kept and the read error is shown.
func (f *CodeToLocale) Upload(name string, r io.Reader) error {
	text, err := readUpload(name, r, f.deps.maxUpload())

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.message = i18n.T(msgReadFailed)
		return err
	}
	f.text = text
	f.message = ""
	return nil
}

// Submit asks the model for translation files. It blocks until the
// response arrives or ctx is done.
func (f *CodeToLocale) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrInFlight
	}
	if f.text == "" {
		f.message = i18n.T(msgNoCode)
		f.mu.Unlock()
		return ErrNotReady
	}
	req := prompt.NewRequest(prompt.CodeToLocale, f.target, "", f.format, f.text, "", f.locales)
	seq := f.begin()
	f.mu.Unlock()

	return f.run(ctx, seq, req, msgFilesFailed)
}

// Prompt renders the prompt Submit would send, without sending it.
func (f *CodeToLocale) Prompt() (string, error) {
	f.mu.Lock()
	req := prompt.NewRequest(prompt.CodeToLocale, f.target, "", f.format, f.text, "", f.locales)
	f.mu.Unlock()
	return f.deps.Prompts.Build(req)
}

// Reset restores the defaults and drops any pending response.
func (f *CodeToLocale) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelLocked()
	f.resetLocked()
}

// Snapshot returns a copy of the current state.
func (f *CodeToLocale) Snapshot() CodeToLocaleSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return CodeToLocaleSnapshot{
		Target:    f.target,
		Format:    f.format,
		Locales:   append([]string(nil), f.locales...),
		Text:      f.text,
		Phase:     f.phase,
		InFlight:  f.inFlight,
		Result:    f.result,
		Error:     f.message,
		CanSubmit: !f.inFlight && f.text != "",
	}
}
