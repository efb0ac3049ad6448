package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// runCLI executes the root command with a clean environment and returns
// what it wrote to stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "C")
	for _, name := range []string{"LOCODE_API_KEY", "GEMINI_API_KEY", "LOCODE_MOCK", "LOCODE_PROMPTS_FILE"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}
	return path
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "locode version dev\n") {
		t.Fatalf("version output = %q", out)
	}
}

func TestFormats(t *testing.T) {
	out, err := runCLI(t, "", "formats")
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	for _, want := range []string{"ios-strings", ".yaml, .yml", "react-i18next", "jetpack-compose", "spanish"} {
		if !strings.Contains(out, want) {
			t.Fatalf("formats output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateCodeToLocale_DryRun(t *testing.T) {
	out, err := runCLI(t, "let title = \"Hi\"\n",
		"generate", "code-to-locale", "--dry-run",
		"--target", "react", "--format", "yaml", "--locale", "english", "--locale", "spanish")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, want := range []string{"generate a yaml file", "english, spanish", `let title = "Hi"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("prompt missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateCodeToLocale_RejectsUnknownOptions(t *testing.T) {
	if _, err := runCLI(t, "x", "generate", "code-to-locale", "--dry-run", "--format", "properties"); err == nil {
		t.Fatal("properties accepted as an output format")
	}
	if _, err := runCLI(t, "x", "generate", "code-to-locale", "--dry-run", "--target", "cobol"); err == nil {
		t.Fatal("unknown target accepted")
	}
}

func TestGenerateCodeToLocale_Mock(t *testing.T) {
	out, err := runCLI(t, "print('hi')", "generate", "code-to-locale", "--mock")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(out, "// mock response\n") {
		t.Fatalf("output = %q", out)
	}
}

func TestGenerateCodeToLocale_NeedsAPIKey(t *testing.T) {
	_, err := runCLI(t, "print('hi')", "generate", "code-to-locale")
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("error = %v, want missing API key", err)
	}
}

func TestGenerateLocaleToCode_DryRunDetectsFormat(t *testing.T) {
	translations := writeFile(t, "en.yml", "greeting: Hello\n")
	source := writeFile(t, "App.vue", "<template><p>Hello</p></template>\n")

	out, err := runCLI(t, "", "generate", "locale-to-code", translations,
		"--source", source, "--platform", "vue", "--dry-run")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, want := range []string{"YAML translation file", "vue-i18n", "greeting: Hello", "<template><p>Hello</p></template>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("prompt missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateLocaleToCode_InvalidFile(t *testing.T) {
	translations := writeFile(t, "en.json", "{not json")
	source := writeFile(t, "App.jsx", "export default App\n")

	_, err := runCLI(t, "", "generate", "locale-to-code", translations, "--source", source, "--mock")
	if err == nil || !strings.Contains(err.Error(), "Invalid JSON format") {
		t.Fatalf("error = %v, want validation failure", err)
	}
}

func TestGenerateLocaleToCode_ExplicitFormatOverridesExtension(t *testing.T) {
	translations := writeFile(t, "strings.txt", "\"hello\" = \"Hello\";\n")
	source := writeFile(t, "View.swift", "Text(\"Hello\")\n")

	out, err := runCLI(t, "", "generate", "locale-to-code", translations,
		"--source", source, "--platform", "swiftui", "--format", "ios-strings", "--mock")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "// mock response") {
		t.Fatalf("output = %q", out)
	}
}

func TestJanitorInterval(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want time.Duration
	}{
		{30 * time.Minute, 450 * time.Second},
		{2 * time.Second, time.Second},
		{0, time.Second},
	}
	for _, tc := range tests {
		if got := janitorInterval(tc.ttl); got != tc.want {
			t.Fatalf("janitorInterval(%s) = %s, want %s", tc.ttl, got, tc.want)
		}
	}
}
