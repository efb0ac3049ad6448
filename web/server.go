// Package web serves the two forms as server-rendered HTML pages.
//
// Every POST applies the submitted fields and one action to the caller's
// session forms, then redirects back to the page (post/redirect/get), so
// reloading never resubmits.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/minios-linux/locode/catalog"
	"github.com/minios-linux/locode/i18n"
	"github.com/minios-linux/locode/logger"
	"github.com/minios-linux/locode/view"
)

const (
	pathCodeToLocale = "/code-to-locale"
	pathLocaleToCode = "/locale-to-code"
	pathResult       = "/locale-to-code/result.txt"

	// SessionCookie names the cookie holding the session id.
	SessionCookie = "locode_session"

	// formSlack covers the text fields sent alongside an upload.
	formSlack = 4 << 20
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures a Server.
type Options struct {
	Sessions *view.Sessions
	// MaxUpload is the largest accepted file; defaults to
	// view.DefaultMaxUpload.
	MaxUpload int64
}

// Server renders the pages and applies form posts.
type Server struct {
	sessions  *view.Sessions
	maxUpload int64
	pages     map[string]*template.Template
}

// New parses the embedded templates.
func New(opts Options) (*Server, error) {
	if opts.Sessions == nil {
		return nil, errors.New("web: sessions are required")
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = view.DefaultMaxUpload
	}

	s := &Server{
		sessions:  opts.Sessions,
		maxUpload: opts.MaxUpload,
		pages:     make(map[string]*template.Template),
	}
	for _, page := range []string{"code_to_locale.html", "locale_to_code.html", "notfound.html"} {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		s.pages[page] = t
	}
	return s, nil
}

var funcs = template.FuncMap{
	"T":     i18n.T,
	"upper": strings.ToUpper,
	"has":   func(list []string, v string) bool { return slices.Contains(list, v) },
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, pathCodeToLocale, http.StatusFound)
	})
	mux.HandleFunc("GET "+pathCodeToLocale, s.getCodeToLocale)
	mux.HandleFunc("POST "+pathCodeToLocale, s.postCodeToLocale)
	mux.HandleFunc("GET "+pathLocaleToCode, s.getLocaleToCode)
	mux.HandleFunc("POST "+pathLocaleToCode, s.postLocaleToCode)
	mux.HandleFunc("GET "+pathResult, s.getResult)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok\n")
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/", s.notFound)
	return Chain(mux)
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func (s *Server) session(w http.ResponseWriter, r *http.Request) *view.Session {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

type pageData struct {
	Lang      string
	Title     string
	Active    string
	MaxUpload int64

	C2L *view.CodeToLocaleSnapshot
	L2C *view.LocaleToCodeSnapshot

	CodeTargets   []catalog.CodeTarget
	OutputFormats []catalog.Format
	Formats       []catalog.Format
	Platforms     []catalog.Platform
	Locales       []catalog.Locale
}

func (s *Server) newPageData(title, active string) pageData {
	return pageData{
		Lang:          i18n.Lang(),
		Title:         i18n.T(title),
		Active:        active,
		MaxUpload:     s.maxUpload,
		CodeTargets:   catalog.CodeTargets(),
		OutputFormats: catalog.OutputFormats(),
		Formats:       catalog.Formats(),
		Platforms:     catalog.Platforms(),
		Locales:       catalog.Locales(),
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	var buf strings.Builder
	if err := s.pages[page].Execute(&buf, data); err != nil {
		logger.Error("render failed",
			zap.String("page", page),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	io.WriteString(w, buf.String())
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "notfound.html", s.newPageData("404 - Page Not Found", ""))
}

// ---------------------------------------------------------------------------
// Code to locale
// ---------------------------------------------------------------------------

func (s *Server) getCodeToLocale(w http.ResponseWriter, r *http.Request) {
	snap := s.session(w, r).CodeToLocale.Snapshot()
	data := s.newPageData("Code to Locale", pathCodeToLocale)
	data.C2L = &snap
	s.render(w, r, http.StatusOK, "code_to_locale.html", data)
}

func (s *Server) postCodeToLocale(w http.ResponseWriter, r *http.Request) {
	f := s.session(w, r).CodeToLocale
	if !s.parseForm(w, r) {
		return
	}

	if r.PostFormValue("form") == "1" {
		if err := f.SetTarget(r.PostFormValue("target")); err != nil {
			badRequest(w, err)
			return
		}
		if err := f.SetFormat(catalog.FormatID(r.PostFormValue("format"))); err != nil {
			badRequest(w, err)
			return
		}
		f.SetLocales(r.PostForm["locales"])
		f.SetText(normalizeNewlines(r.PostFormValue("text")))
	}

	switch action := postedAction(r); action {
	case "", "update":
	case "upload":
		s.upload(r, f.Upload)
	case "generate":
		s.logSubmit(r, "code-to-locale", f.Submit(r.Context()))
	case "reset":
		f.Reset()
	default:
		badRequest(w, fmt.Errorf("unknown action %q", action))
		return
	}
	http.Redirect(w, r, pathCodeToLocale, http.StatusSeeOther)
}

// ---------------------------------------------------------------------------
// Locale to code
// ---------------------------------------------------------------------------

func (s *Server) getLocaleToCode(w http.ResponseWriter, r *http.Request) {
	snap := s.session(w, r).LocaleToCode.Snapshot()
	data := s.newPageData("Locale to Code", pathLocaleToCode)
	data.L2C = &snap
	s.render(w, r, http.StatusOK, "locale_to_code.html", data)
}

func (s *Server) postLocaleToCode(w http.ResponseWriter, r *http.Request) {
	f := s.session(w, r).LocaleToCode
	if !s.parseForm(w, r) {
		return
	}

	if r.PostFormValue("form") == "1" {
		if err := s.applyLocaleToCode(f, r); err != nil {
			badRequest(w, err)
			return
		}
	}

	switch action := postedAction(r); action {
	case "", "update":
	case "upload":
		s.upload(r, f.Upload)
	case "generate":
		s.logSubmit(r, "locale-to-code", f.Submit(r.Context()))
	case "reset":
		f.Reset()
	case "toggle-preview":
		f.TogglePreview()
	case "copy-failed":
		err := f.ReportCopyFailure(errors.New(r.PostFormValue("reason")))
		logger.Debug("clipboard copy failed",
			zap.String("request_id", RequestIDFromContext(r.Context())), zap.Error(err))
	default:
		badRequest(w, fmt.Errorf("unknown action %q", action))
		return
	}
	http.Redirect(w, r, pathLocaleToCode, http.StatusSeeOther)
}

// applyLocaleToCode copies the posted fields into f. A changed platform
// wins over the posted framework, which belonged to the old platform.
func (s *Server) applyLocaleToCode(f *view.LocaleToCode, r *http.Request) error {
	before := f.Snapshot()

	platform := catalog.PlatformID(r.PostFormValue("platform"))
	if platform != before.Platform {
		if err := f.SelectPlatform(platform); err != nil {
			return err
		}
	} else if fw := r.PostFormValue("framework"); fw != "" && fw != before.Framework {
		if err := f.SetFramework(fw); err != nil {
			return err
		}
	}

	f.SetSource(normalizeNewlines(r.PostFormValue("source")))
	f.SetLocales(r.PostForm["locales"])

	if text := normalizeNewlines(r.PostFormValue("text")); text != before.Text {
		f.SetText(text)
	}

	// A validation failure is shown on the page, not rejected.
	err := f.SetFormat(catalog.FormatID(r.PostFormValue("format")))
	var ve *view.ValidationError
	if errors.As(err, &ve) {
		return nil
	}
	return err
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	snap := s.session(w, r).LocaleToCode.Snapshot()
	if snap.Result == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="result.txt"`)
	io.WriteString(w, snap.Result)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// parseForm reads a multipart or urlencoded body. It writes the error
// response and returns false when the body cannot be read.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+formSlack)
	err := r.ParseMultipartForm(32 << 10)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		return false
	}
	badRequest(w, err)
	return false
}

// upload hands the posted file, if any, to apply. Errors are already
// reflected in the form state.
func (s *Server) upload(r *http.Request, apply func(name string, rd io.Reader) error) {
	file, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return
	}
	if err != nil {
		apply("upload", errReader{err})
		return
	}
	defer file.Close()

	if err := apply(hdr.Filename, file); err != nil {
		logger.Debug("upload rejected",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("file", hdr.Filename), zap.Error(err))
	}
}

func (s *Server) logSubmit(r *http.Request, form string, err error) {
	if err == nil {
		return
	}
	logger.Debug("submit did not produce a result",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.String("form", form), zap.Error(err))
}

// postedAction returns the last "action" value. The page carries a hidden
// default followed by the clicked button's value.
func postedAction(r *http.Request) string {
	if v := r.PostForm["action"]; len(v) > 0 {
		return v[len(v)-1]
	}
	return ""
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// normalizeNewlines undoes the CRLF line endings browsers send for
// textarea content.
func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
