package view

import (
	"errors"
	"fmt"

	"github.com/minios-linux/locode/catalog"
)

var (
	// ErrInFlight is returned by Submit while the form's previous request is
	// still pending. No call is made.
	ErrInFlight = errors.New("a generation request is already in flight")

	// ErrNotReady is returned by Submit when the form's inputs do not allow
	// submission. No call is made.
	ErrNotReady = errors.New("form is not ready to submit")

	// ErrStale is returned by Submit when its response arrived after the
	// form was reset or resubmitted. The response is discarded.
	ErrStale = errors.New("response superseded by a newer request")

	// ErrUnknownOption is returned by setters given a value outside the
	// closed reference sets.
	ErrUnknownOption = errors.New("unknown option")
)

// ValidationError reports a translation file that failed validation.
type ValidationError struct {
	Format  catalog.FormatID
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// FileReadError reports an upload that could not be read. No text from the
// file is applied.
type FileReadError struct {
	Name string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Name, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// ClipboardError reports a failed copy of the result in the browser.
type ClipboardError struct {
	Err error
}

func (e *ClipboardError) Error() string {
	if e.Err == nil {
		return "clipboard write failed"
	}
	return "clipboard write failed: " + e.Err.Error()
}

func (e *ClipboardError) Unwrap() error { return e.Err }

// User-facing messages. Translated through i18n when stored.
const (
	msgReadFailed      = "Error reading file"
	msgNoCode          = "Please enter or upload code"
	msgFilesFailed     = "Failed to generate files"
	msgCodeFailed      = "Failed to generate code"
	msgClipboardFailed = "Failed to copy to clipboard"
)
