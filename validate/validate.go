// Package validate performs the syntactic check that gates submission of a
// translation file.
//
// The default check is deliberately shallow: JSON must parse, XML must
// contain at least one tag-like substring, and every other format is
// accepted as is. Strict mode swaps in real parsers for each format.
package validate

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/locode/catalog"
	"github.com/minios-linux/locode/propfile"
	"github.com/minios-linux/locode/stringsfile"
)

// Status is the tri-state outcome of validation.
type Status int

const (
	Unchecked Status = iota
	Valid
	Invalid
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unchecked"
	}
}

// Result is the outcome of one Validate call. Message is empty unless
// Status is Invalid.
type Result struct {
	Status  Status
	Message string
}

// Validator checks text against a format. The zero value is the permissive
// validator.
type Validator struct {
	// Strict enables full parsing for every format.
	Strict bool
}

// tagPattern is the permissive XML check: any <...> substring.
var tagPattern = regexp.MustCompile(`<[^>]+>`)

var (
	errNoTag     = errors.New("Invalid XML")
	errNoEntries = errors.New("no entries")
)

// Validate checks text as format. Unknown formats are accepted.
func (v Validator) Validate(text string, format catalog.FormatID) Result {
	var err error
	switch format {
	case catalog.FormatJSON:
		err = checkJSON(text)
	case catalog.FormatXML:
		if v.Strict {
			err = checkXMLStrict(text)
		} else if !tagPattern.MatchString(text) {
			err = errNoTag
		}
	case catalog.FormatYAML:
		if v.Strict {
			err = checkYAML(text)
		}
	case catalog.FormatProperties:
		if v.Strict {
			err = checkProperties(text)
		}
	case catalog.FormatIOSStrings:
		if v.Strict {
			err = checkStrings(text)
		}
	}

	if err != nil {
		return Result{Status: Invalid, Message: Message(format, err)}
	}
	return Result{Status: Valid}
}

// Validate runs the permissive validator.
func Validate(text string, format catalog.FormatID) Result {
	return Validator{}.Validate(text, format)
}

// Message renders the user-facing text for a failed check,
// e.g. "Invalid JSON format: unexpected end of JSON input".
func Message(format catalog.FormatID, err error) string {
	name := strings.ToUpper(string(format))
	if f, ok := catalog.LookupFormat(string(format)); ok {
		name = f.PromptName()
	}
	return fmt.Sprintf("Invalid %s format: %s", name, err.Error())
}

// checkJSON checks syntax only. Decoding into a value would reject numbers
// that overflow float64.
func checkJSON(text string) error {
	var raw json.RawMessage
	return json.Unmarshal([]byte(text), &raw)
}

func checkXMLStrict(text string) error {
	dec := xml.NewDecoder(strings.NewReader(text))
	elements := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if _, ok := tok.(xml.StartElement); ok {
			elements++
		}
	}
	if elements == 0 {
		return errNoTag
	}
	return nil
}

func checkYAML(text string) error {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return errors.New("empty document")
	}
	if root := doc.Content[0]; root.Kind != yaml.MappingNode {
		return fmt.Errorf("root must be a mapping of keys to strings")
	}
	return nil
}

func checkProperties(text string) error {
	f, err := propfile.ParseStrict([]byte(text))
	if err != nil {
		return err
	}
	if len(f.Keys()) == 0 {
		return errNoEntries
	}
	return nil
}

func checkStrings(text string) error {
	f, err := stringsfile.Parse([]byte(text))
	if err != nil {
		return err
	}
	if len(f.Entries) == 0 {
		return errNoEntries
	}
	return nil
}
