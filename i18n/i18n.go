// Package i18n translates locode's own user-facing strings: form labels,
// status messages and CLI output. Catalogs are embedded .po files loaded
// once by Init; T and N pass strings through unchanged before that.
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Directory structure: locales/{lang}/LC_MESSAGES/locode.po
//
//go:embed all:locales
var locales embed.FS

const domain = "locode"

var (
	po   *gotext.Locale
	lang = "en"
)

// Init loads the catalog for code. An empty code is detected from
// LANGUAGE, LC_ALL, LC_MESSAGES and LANG, in that order.
//
// Call once at startup before serving requests.
func Init(code string) {
	if code == "" {
		code = detectLanguage()
	}

	po = gotext.NewLocaleFSWithPath(code, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
	lang = code
}

// Lang returns the BCP 47 primary tag of the active language, e.g. "fr".
func Lang() string {
	primary, _, _ := strings.Cut(lang, "_")
	return strings.ToLower(primary)
}

// T translates msgid, returning it unchanged when no translation exists.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage follows GNU gettext priority.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list; take the first
			if env == "LANGUAGE" {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// Strip encoding suffix (e.g. "ru_RU.UTF-8" -> "ru_RU")
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			// "C" and "POSIX" mean no translation
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}
