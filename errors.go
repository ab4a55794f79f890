package sitegen

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTemplateNotFound is reported when a document or list names a template
// that the environment's template set does not contain.
var ErrTemplateNotFound = errors.New("template not found")

// ErrMissingClosingDelimiter indicates the file opened a front-matter block
// that never closes.
var ErrMissingClosingDelimiter = errors.New("front-matter start delimiter found but closing delimiter is missing")

// FieldError describes one front-matter field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) String() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ParseError is returned for a content file whose front-matter could not be
// read or validated. It is scoped to one document.
type ParseError struct {
	Path   string
	Fields []FieldError
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse ")
	b.WriteString(e.Path)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	for i, f := range e.Fields {
		if i == 0 && e.Err == nil {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(f.String())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// TemplateError wraps a failure to render a named template.
type TemplateError struct {
	Name string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %q: %v", e.Name, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }
