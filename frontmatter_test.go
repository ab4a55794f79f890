package sitegen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrontMatter(t *testing.T) {
	fm, err := DecodeFrontMatter(map[string]any{
		"title":           "Hello",
		"datePublished":   "2024-01-01 10:00",
		"type":            "page",
		"published":       "true",
		"excludeFromFeed": 1,
		"description":     "A greeting",
		"meta":            map[any]any{"weight": 3},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello", fm.Title)
	assert.Equal(t, "2024-01-01 10:00", fm.DatePublished)
	assert.Equal(t, TypePage, fm.Type)
	assert.True(t, fm.Published)
	assert.True(t, fm.ExcludeFromFeed)
	assert.Equal(t, "A greeting", fm.Param("Description"))
	assert.Equal(t, map[string]any{"weight": 3}, fm.Extra["meta"])
	assert.Empty(t, fm.Param("missing"))
}

func TestDecodeFrontMatter_Defaults(t *testing.T) {
	fm, err := DecodeFrontMatter(map[string]any{})
	require.NoError(t, err)
	assert.False(t, fm.Published)
	assert.False(t, fm.ExcludeFromFeed)
	assert.Empty(t, fm.DatePublished)
}

func TestDecodeFrontMatter_TimestampValue(t *testing.T) {
	fm, err := DecodeFrontMatter(map[string]any{
		"datePublished": time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06 07:08", fm.DatePublished)
}

func TestDecodeFrontMatter_FieldErrors(t *testing.T) {
	_, err := DecodeFrontMatter(map[string]any{
		"published":     "maybe",
		"datePublished": "01/02/2024",
	})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)

	fields := make(map[string]string)
	for _, f := range pe.Fields {
		fields[f.Field] = f.Message
	}
	assert.Contains(t, fields, "published")
	assert.Contains(t, fields, "datePublished")
	assert.Contains(t, fields["datePublished"], "01/02/2024")
}

func TestParseError_Message(t *testing.T) {
	err := &ParseError{Path: "a.md", Fields: []FieldError{
		{Field: "published", Message: "not a bool"},
		{Message: "general"},
	}}
	assert.Equal(t, "parse a.md: published: not a bool; general", err.Error())

	err = &ParseError{Path: "b.md", Err: ErrMissingClosingDelimiter}
	assert.ErrorIs(t, err, ErrMissingClosingDelimiter)
	assert.Contains(t, err.Error(), "b.md")
}
