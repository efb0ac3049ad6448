// Package catalog holds the closed reference sets shown by both forms:
// translation-file formats (with their file extensions), target platforms
// with their i18n frameworks, code targets, and output locales.
//
// All values are immutable. Lookups return copies so callers cannot mutate
// the shared tables.
package catalog

import (
	"path/filepath"
	"strings"
)

// ---------------------------------------------------------------------------
// Translation formats
// ---------------------------------------------------------------------------

// FormatID identifies a translation-file format.
type FormatID string

const (
	FormatJSON       FormatID = "json"
	FormatXML        FormatID = "xml"
	FormatYAML       FormatID = "yaml"
	FormatProperties FormatID = "properties"
	FormatIOSStrings FormatID = "ios-strings"
)

// Format describes a translation-file format.
type Format struct {
	ID    FormatID
	Label string
	// Extensions are lower-case and include the leading dot.
	Extensions []string
}

// PromptName is the upper-cased name used inside prompts ("JSON", "XML", ...).
func (f Format) PromptName() string {
	return strings.ToUpper(string(f.ID))
}

// ExtensionList joins the extensions for display, e.g. ".yaml, .yml".
func (f Format) ExtensionList() string {
	return strings.Join(f.Extensions, ", ")
}

var formats = []Format{
	{ID: FormatJSON, Label: "JSON", Extensions: []string{".json"}},
	{ID: FormatXML, Label: "XML", Extensions: []string{".xml"}},
	{ID: FormatYAML, Label: "YAML", Extensions: []string{".yaml", ".yml"}},
	{ID: FormatProperties, Label: "Properties", Extensions: []string{".properties"}},
	{ID: FormatIOSStrings, Label: "iOS Strings", Extensions: []string{".strings"}},
}

// outputFormats are the formats the code-to-locale form can ask for.
var outputFormats = []FormatID{FormatJSON, FormatXML, FormatYAML}

// Formats returns every recognized translation format in display order.
func Formats() []Format {
	out := make([]Format, len(formats))
	for i, f := range formats {
		f.Extensions = append([]string(nil), f.Extensions...)
		out[i] = f
	}
	return out
}

// LookupFormat returns the format with the given id.
func LookupFormat(id string) (Format, bool) {
	for _, f := range Formats() {
		if string(f.ID) == id {
			return f, true
		}
	}
	return Format{}, false
}

// OutputFormats returns the formats offered by the code-to-locale form.
func OutputFormats() []Format {
	out := make([]Format, 0, len(outputFormats))
	for _, id := range outputFormats {
		f, _ := LookupFormat(string(id))
		out = append(out, f)
	}
	return out
}

// IsOutputFormat reports whether id may be requested by the code-to-locale form.
func IsOutputFormat(id string) bool {
	for _, o := range outputFormats {
		if string(o) == id {
			return true
		}
	}
	return false
}

// DetectFormat maps a file name to a format by its extension
// (case-insensitive, exact match against the recognized sets).
func DetectFormat(name string) (FormatID, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "", false
	}
	for _, f := range formats {
		for _, e := range f.Extensions {
			if e == ext {
				return f.ID, true
			}
		}
	}
	return "", false
}

// DetectOrKeep returns the format detected from name, or current when the
// extension is not recognized.
func DetectOrKeep(name string, current FormatID) FormatID {
	if id, ok := DetectFormat(name); ok {
		return id
	}
	return current
}

// ---------------------------------------------------------------------------
// Target platforms (locale-to-code)
// ---------------------------------------------------------------------------

// PlatformID identifies a UI technology.
type PlatformID string

const (
	PlatformReact   PlatformID = "react"
	PlatformVue     PlatformID = "vue"
	PlatformAngular PlatformID = "angular"
	PlatformFlutter PlatformID = "flutter"
	PlatformSwiftUI PlatformID = "swiftui"
)

// Platform is a UI technology and the i18n libraries conventionally used
// with it. Frameworks is never empty.
type Platform struct {
	ID         PlatformID
	Label      string
	Frameworks []string
}

// DefaultFramework is the first listed framework.
func (p Platform) DefaultFramework() string {
	return p.Frameworks[0]
}

// HasFramework reports whether name is one of the platform's frameworks.
func (p Platform) HasFramework(name string) bool {
	for _, f := range p.Frameworks {
		if f == name {
			return true
		}
	}
	return false
}

var platforms = []Platform{
	{ID: PlatformReact, Label: "React", Frameworks: []string{"react-i18next", "react-intl", "next-intl"}},
	{ID: PlatformVue, Label: "Vue.js", Frameworks: []string{"vue-i18n", "vue-intl"}},
	{ID: PlatformAngular, Label: "Angular", Frameworks: []string{"ngx-translate", "@angular/localize"}},
	{ID: PlatformFlutter, Label: "Flutter", Frameworks: []string{"flutter_localizations", "easy_localization"}},
	{ID: PlatformSwiftUI, Label: "Swift UI", Frameworks: []string{"SwiftGen", "Localize-Swift"}},
}

// Platforms returns every target platform in display order.
func Platforms() []Platform {
	out := make([]Platform, len(platforms))
	for i, p := range platforms {
		p.Frameworks = append([]string(nil), p.Frameworks...)
		out[i] = p
	}
	return out
}

// LookupPlatform returns the platform with the given id.
func LookupPlatform(id string) (Platform, bool) {
	for _, p := range Platforms() {
		if string(p.ID) == id {
			return p, true
		}
	}
	return Platform{}, false
}

// ---------------------------------------------------------------------------
// Code targets (code-to-locale)
// ---------------------------------------------------------------------------

// CodeTarget is a technology the code-to-locale form can translate code into.
type CodeTarget struct {
	ID    string
	Label string
}

var codeTargets = []CodeTarget{
	{ID: "swiftui", Label: "SwiftUI"},
	{ID: "react", Label: "React"},
	{ID: "react-native", Label: "React Native"},
	{ID: "kotlin-android", Label: "Kotlin Android"},
	{ID: "jetpack-compose", Label: "Jetpack Compose"},
}

// CodeTargets returns the code-to-locale targets in display order.
func CodeTargets() []CodeTarget {
	return append([]CodeTarget(nil), codeTargets...)
}

// LookupCodeTarget returns the code target with the given id.
func LookupCodeTarget(id string) (CodeTarget, bool) {
	for _, t := range codeTargets {
		if t.ID == id {
			return t, true
		}
	}
	return CodeTarget{}, false
}

// ---------------------------------------------------------------------------
// Locales
// ---------------------------------------------------------------------------

// Locale is a human language requested for translated output.
type Locale struct {
	ID    string
	Label string
}

var locales = []Locale{
	{ID: "english", Label: "English"},
	{ID: "french", Label: "French"},
	{ID: "spanish", Label: "Spanish"},
}

// Locales returns the selectable output locales in display order.
func Locales() []Locale {
	return append([]Locale(nil), locales...)
}

// IsLocale reports whether id names a selectable locale.
func IsLocale(id string) bool {
	for _, l := range locales {
		if l.ID == id {
			return true
		}
	}
	return false
}
