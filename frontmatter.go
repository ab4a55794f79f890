package sitegen

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// DateLayout is the only accepted datePublished format. Values are UTC.
const DateLayout = "2006-01-02 15:04"

// Document types with special meaning. Any other value is an ordinary post.
const (
	TypePage  = "page"
	TypeDraft = "draft"
)

// FrontMatter is the validated, typed view of a document's metadata block.
// Unknown keys are kept in Extra and reachable from templates via param.
type FrontMatter struct {
	Title           string         `mapstructure:"title"`
	DatePublished   string         `mapstructure:"datePublished"`
	Type            string         `mapstructure:"type"`
	Template        string         `mapstructure:"template"`
	Category        string         `mapstructure:"category"`
	Published       bool           `mapstructure:"published"`
	ExcludeFromFeed bool           `mapstructure:"excludeFromFeed"`
	Extra           map[string]any `mapstructure:",remain"`
}

// Param returns an extra front-matter field coerced to a string.
func (fm FrontMatter) Param(key string) string {
	for k, v := range fm.Extra {
		if strings.EqualFold(k, key) {
			return cast.ToString(v)
		}
	}
	return ""
}

// DecodeFrontMatter validates raw front-matter against the FrontMatter
// schema. Field problems are collected into a *ParseError instead of
// producing a half-filled record.
func DecodeFrontMatter(raw map[string]any) (FrontMatter, error) {
	var fm FrontMatter

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       timeToDateString,
		WeaklyTypedInput: true,
		Result:           &fm,
	})
	if err != nil {
		return FrontMatter{}, err
	}

	var fields []FieldError
	if err := decoder.Decode(raw); err != nil {
		var merr *mapstructure.Error
		if !errors.As(err, &merr) {
			return FrontMatter{}, &ParseError{Err: err}
		}
		for _, msg := range merr.Errors {
			fields = append(fields, fieldErrorFromMessage(msg))
		}
	}

	if fm.DatePublished != "" {
		if _, err := time.ParseInLocation(DateLayout, fm.DatePublished, time.UTC); err != nil {
			fields = append(fields, FieldError{
				Field:   "datePublished",
				Message: "must use the YYYY-MM-DD HH:mm format, got " + `"` + fm.DatePublished + `"`,
			})
		}
	}

	if len(fields) > 0 {
		return FrontMatter{}, &ParseError{Fields: fields}
	}
	for k, v := range fm.Extra {
		fm.Extra[k] = normalizeValue(v)
	}
	return fm, nil
}

// normalizeValue rewrites YAML v2 style map[any]any values into
// map[string]any so extras survive JSON encoding.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[cast.ToString(k)] = normalizeValue(val)
		}
		return m
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeValue(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeValue(val)
		}
		return t
	}
	return v
}

// YAML and TOML decoders turn unquoted timestamps into time.Time.
func timeToDateString(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	if t, ok := data.(time.Time); ok {
		return t.UTC().Format(DateLayout), nil
	}
	return data, nil
}

// mapstructure quotes the offending field first, e.g.
// "cannot parse 'published' as bool: ...".
func fieldErrorFromMessage(msg string) FieldError {
	start := strings.Index(msg, "'")
	if start < 0 {
		return FieldError{Message: msg}
	}
	end := strings.Index(msg[start+1:], "'")
	if end < 0 {
		return FieldError{Message: msg}
	}
	return FieldError{Field: msg[start+1 : start+1+end], Message: msg}
}
