// Package prompt renders the natural-language instructions sent to the
// generative API. Interpolated text is inserted verbatim; the request body
// that carries the prompt is encoded separately by the client.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/locode/catalog"
)

// Kind selects which template is rendered.
type Kind string

const (
	CodeToLocale Kind = "code-to-locale"
	LocaleToCode Kind = "locale-to-code"
)

// Request is built fresh for each submission and not modified afterwards.
type Request struct {
	Kind Kind
	// Target is the code target (code-to-locale) or platform label
	// (locale-to-code).
	Target    string
	Framework string
	Format    catalog.FormatID
	// Text is the code (code-to-locale) or translation file (locale-to-code).
	Text string
	// Source is the code to internationalize (locale-to-code only).
	Source  string
	Locales []string
}

// NewRequest copies locales so later edits to the caller's slice do not
// leak into the request.
func NewRequest(kind Kind, target, framework string, format catalog.FormatID, text, source string, locales []string) Request {
	return Request{
		Kind:      kind,
		Target:    target,
		Framework: framework,
		Format:    format,
		Text:      text,
		Source:    source,
		Locales:   append([]string(nil), locales...),
	}
}

// data is what templates see.
type data struct {
	Target     string
	Framework  string
	Format     string // upper-cased, e.g. "JSON"
	FormatLow  string // lower-cased id, e.g. "json"
	Text       string
	Source     string
	Locales    string // comma-joined
	HasLocales bool
}

var builtins = map[Kind]string{
	CodeToLocale: "Translate the following code into {{.Target}} and generate a {{.FormatLow}} file. " +
		"Please give me each file separately, don't put any other information than the {{.FormatLow}} file. " +
		"Also, provide translations in the following languages: {{.Locales}}. Here is the code:\n\n{{.Text}}",

	LocaleToCode: "Generate a {{.Target}} component using {{.Framework}} with these requirements:\n" +
		"1. Convert this {{.Format}} translation file\n" +
		"2. Implement full i18n support\n" +
		"3. Include proper error handling and validation\n" +
		"4. Implement best practices for {{.Target}} and {{.Framework}}\n" +
		"5. Give me only the code don't put any extra information." +
		"{{if .HasLocales}}\n6. Provide translations for: {{.Locales}}{{end}}" +
		"\n\nTranslation file:\n{{.Text}}\n\nSource code to translate:\n{{.Source}}",
}

// Builder renders requests. The zero value uses the built-in templates.
type Builder struct {
	overrides map[Kind]string
}

// NewBuilder returns a builder with the given template overrides. Empty
// bodies are ignored.
func NewBuilder(overrides map[Kind]string) (*Builder, error) {
	b := &Builder{overrides: make(map[Kind]string)}
	for k, body := range overrides {
		if _, ok := builtins[k]; !ok {
			return nil, fmt.Errorf("unknown prompt %q", k)
		}
		if strings.TrimSpace(body) == "" {
			continue
		}
		if _, err := template.New(string(k)).Parse(body); err != nil {
			return nil, fmt.Errorf("prompt %q: %w", k, err)
		}
		b.overrides[k] = body
	}
	return b, nil
}

// Build renders the template for r.Kind.
func (b *Builder) Build(r Request) (string, error) {
	body, ok := builtins[r.Kind]
	if !ok {
		return "", fmt.Errorf("unknown prompt kind %q", r.Kind)
	}
	if b != nil {
		if o, ok := b.overrides[r.Kind]; ok {
			body = o
		}
	}

	tpl, err := template.New(string(r.Kind)).Option("missingkey=error").Parse(body)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data{
		Target:     r.Target,
		Framework:  r.Framework,
		Format:     strings.ToUpper(string(r.Format)),
		FormatLow:  string(r.Format),
		Text:       r.Text,
		Source:     r.Source,
		Locales:    strings.Join(r.Locales, ", "),
		HasLocales: len(r.Locales) > 0,
	}); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", r.Kind, err)
	}
	return buf.String(), nil
}

// Builtin returns the default template body for kind.
func Builtin(kind Kind) string {
	return builtins[kind]
}

// overridesFile is the on-disk shape of a prompts file:
//
//	prompts:
//	  code-to-locale: |
//	    ...
type overridesFile struct {
	Prompts map[string]string `yaml:"prompts"`
}

// LoadOverrides reads template overrides from a YAML file. A missing file
// yields no overrides and no error.
func LoadOverrides(path string) (map[Kind]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var f overridesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(map[Kind]string, len(f.Prompts))
	for k, v := range f.Prompts {
		out[Kind(k)] = v
	}
	return out, nil
}
