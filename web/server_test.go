package web

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minios-linux/locode/catalog"
	"github.com/minios-linux/locode/validate"
	"github.com/minios-linux/locode/view"
)

type stubGen struct {
	mu      sync.Mutex
	prompts []string
	reply   string
}

func (g *stubGen) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.reply, nil
}

func (g *stubGen) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type harness struct {
	t        *testing.T
	gen      *stubGen
	sessions *view.Sessions
	handler  http.Handler
	cookie   *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gen := &stubGen{reply: "<generated & done>"}
	sessions := view.NewSessions(view.Deps{Generator: gen, MaxUpload: 1024}, time.Hour)
	srv, err := New(Options{Sessions: sessions, MaxUpload: 1024})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{t: t, gen: gen, sessions: sessions, handler: srv.Handler()}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	h.t.Helper()
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			h.cookie = c
		}
	}
	return rec
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	return h.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (h *harness) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func (h *harness) session() *view.Session {
	h.t.Helper()
	if h.cookie == nil {
		h.t.Fatal("no session cookie")
	}
	sess, ok := h.sessions.Get(h.cookie.Value)
	if !ok {
		h.t.Fatalf("session %q not found", h.cookie.Value)
	}
	return sess
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, code int, location string) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func TestRootRedirects(t *testing.T) {
	h := newHarness(t)
	expectRedirect(t, h.get("/"), http.StatusFound, "/code-to-locale")
}

func TestNotFound(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/nope", "/code-to-locale/extra", "/locale-to-code/"} {
		rec := h.get(path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s = %d, want 404", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "404 - Page Not Found") {
			t.Fatalf("GET %s body missing not-found message", path)
		}
	}
}

func TestPagesRender(t *testing.T) {
	h := newHarness(t)
	for path, want := range map[string]string{
		"/code-to-locale": "Translate your code across multiple languages",
		"/locale-to-code": "Convert translation files into fully internationalized components",
	} {
		rec := h.get(path)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("GET %s body missing %q", path, want)
		}
	}
	if h.cookie == nil || !h.cookie.HttpOnly {
		t.Fatalf("session cookie = %+v", h.cookie)
	}
}

func TestCodeToLocale_GenerateFlow(t *testing.T) {
	h := newHarness(t)
	h.get("/code-to-locale")

	form := url.Values{
		"form":    {"1"},
		"target":  {"react"},
		"format":  {"yaml"},
		"locales": {"english", "french"},
		"text":    {"{\"a\":1}\r\n"},
		"action":  {"update", "generate"},
	}
	expectRedirect(t, h.post("/code-to-locale", form), http.StatusSeeOther, "/code-to-locale")

	if h.gen.calls() != 1 {
		t.Fatalf("generator called %d times, want 1", h.gen.calls())
	}
	p := h.gen.prompts[0]
	if !strings.Contains(p, "english, french") || !strings.Contains(p, "{\"a\":1}\n") || !strings.Contains(p, "generate a yaml file") {
		t.Fatalf("prompt = %q", p)
	}

	body := h.get("/code-to-locale").Body.String()
	if !strings.Contains(body, "&lt;generated &amp; done&gt;") {
		t.Fatalf("result not rendered escaped:\n%s", body)
	}
}

func TestCodeToLocale_EmptyGenerate(t *testing.T) {
	h := newHarness(t)
	h.get("/code-to-locale")
	h.post("/code-to-locale", url.Values{"form": {"1"}, "target": {"swiftui"}, "format": {"json"}, "text": {""}, "action": {"generate"}})

	if h.gen.calls() != 0 {
		t.Fatal("generator called for empty text")
	}
	if body := h.get("/code-to-locale").Body.String(); !strings.Contains(body, "Please enter or upload code") {
		t.Fatal("missing empty-text message")
	}
}

func TestCodeToLocale_BadInput(t *testing.T) {
	h := newHarness(t)
	if rec := h.post("/code-to-locale", url.Values{"form": {"1"}, "target": {"cobol"}, "format": {"json"}}); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown target status = %d", rec.Code)
	}
	if rec := h.post("/code-to-locale", url.Values{"action": {"explode"}}); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown action status = %d", rec.Code)
	}
}

func TestLocaleToCode_InvalidTextDisablesGenerate(t *testing.T) {
	h := newHarness(t)
	h.get("/locale-to-code")
	h.post("/locale-to-code", url.Values{
		"form": {"1"}, "format": {"json"}, "platform": {"react"}, "framework": {"react-i18next"},
		"text": {"not json"}, "source": {"App"}, "action": {"generate"},
	})

	if h.gen.calls() != 0 {
		t.Fatal("generator called for invalid text")
	}
	snap := h.session().LocaleToCode.Snapshot()
	if snap.Status != validate.Invalid || snap.CanSubmit {
		t.Fatalf("snapshot = %+v", snap)
	}
	body := h.get("/locale-to-code").Body.String()
	if !strings.Contains(body, "Invalid JSON format") {
		t.Fatal("validation message not rendered")
	}
	if !strings.Contains(body, `value="generate" data-busy="Generating..." disabled`) {
		t.Fatal("generate button not disabled")
	}
}

func TestLocaleToCode_PlatformChangeResetsFramework(t *testing.T) {
	h := newHarness(t)
	h.get("/locale-to-code")
	h.post("/locale-to-code", url.Values{
		"form": {"1"}, "format": {"json"}, "platform": {"vue"}, "framework": {"react-intl"},
	})
	snap := h.session().LocaleToCode.Snapshot()
	if snap.Platform != catalog.PlatformVue || snap.Framework != "vue-i18n" {
		t.Fatalf("platform/framework = %s/%s", snap.Platform, snap.Framework)
	}

	h.post("/locale-to-code", url.Values{
		"form": {"1"}, "format": {"json"}, "platform": {"vue"}, "framework": {"vue-intl"},
	})
	if got := h.session().LocaleToCode.Snapshot().Framework; got != "vue-intl" {
		t.Fatalf("framework = %q, want vue-intl", got)
	}

	rec := h.post("/locale-to-code", url.Values{
		"form": {"1"}, "format": {"json"}, "platform": {"vue"}, "framework": {"SwiftGen"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("foreign framework status = %d", rec.Code)
	}
}

func TestLocaleToCode_UploadGenerateAndDownload(t *testing.T) {
	h := newHarness(t)
	h.get("/locale-to-code")

	if rec := h.get("/locale-to-code/result.txt"); rec.Code != http.StatusNotFound {
		t.Fatalf("empty result status = %d, want 404", rec.Code)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"form": "1", "format": "json", "platform": "react", "framework": "react-i18next",
		"text": "", "source": "function App() {}", "action": "upload",
	} {
		mw.WriteField(k, v)
	}
	fw, _ := mw.CreateFormFile("file", "en.yml")
	io.WriteString(fw, "greeting: Hello\n")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/locale-to-code", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	expectRedirect(t, h.do(req), http.StatusSeeOther, "/locale-to-code")

	snap := h.session().LocaleToCode.Snapshot()
	if snap.Format != catalog.FormatYAML || snap.Status != validate.Valid || snap.Text != "greeting: Hello\n" {
		t.Fatalf("after upload: %+v", snap)
	}

	h.post("/locale-to-code", url.Values{
		"form": {"1"}, "format": {"yaml"}, "platform": {"react"}, "framework": {"react-i18next"},
		"text": {"greeting: Hello\n"}, "source": {"function App() {}"}, "action": {"generate"},
	})
	if h.gen.calls() != 1 {
		t.Fatalf("generator called %d times", h.gen.calls())
	}

	rec := h.get("/locale-to-code/result.txt")
	if rec.Code != http.StatusOK || rec.Body.String() != "<generated & done>" {
		t.Fatalf("result.txt = %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("Content-Type = %q", ct)
	}
}

func TestLocaleToCode_OversizedUpload(t *testing.T) {
	h := newHarness(t)
	h.get("/locale-to-code")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("action", "upload")
	fw, _ := mw.CreateFormFile("file", "big.json")
	fw.Write(bytes.Repeat([]byte("x"), 2048))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/locale-to-code", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	h.do(req)

	snap := h.session().LocaleToCode.Snapshot()
	if snap.Error != "Error reading file" || snap.Text != "" {
		t.Fatalf("after oversized upload: %+v", snap)
	}
}

func TestLocaleToCode_CopyFailedAndPreview(t *testing.T) {
	h := newHarness(t)
	h.get("/locale-to-code")

	h.post("/locale-to-code", url.Values{"action": {"copy-failed"}, "reason": {"NotAllowedError"}})
	if got := h.session().LocaleToCode.Snapshot().Error; got != "Failed to copy to clipboard" {
		t.Fatalf("Error = %q", got)
	}

	h.post("/locale-to-code", url.Values{"action": {"toggle-preview"}})
	if !h.session().LocaleToCode.Snapshot().ShowPreview {
		t.Fatal("ShowPreview = false")
	}

	h.post("/locale-to-code", url.Values{"action": {"reset"}})
	if snap := h.session().LocaleToCode.Snapshot(); snap.ShowPreview || snap.Error != "" {
		t.Fatalf("after reset: %+v", snap)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	a := newHarness(t)
	b := &harness{t: t, gen: a.gen, sessions: a.sessions, handler: a.handler}

	a.get("/code-to-locale")
	b.get("/code-to-locale")
	a.post("/code-to-locale", url.Values{"form": {"1"}, "target": {"react"}, "format": {"json"}, "text": {"only a"}})

	if a.cookie.Value == b.cookie.Value {
		t.Fatal("two clients share a session")
	}
	if got := b.session().CodeToLocale.Snapshot().Text; got != "" {
		t.Fatalf("b text = %q", got)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	if rec := h.get("/healthz"); rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	h.get("/code-to-locale")
	rec := h.get("/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "locode_http_requests_total") {
		t.Fatalf("metrics = %d", rec.Code)
	}
}
