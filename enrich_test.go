package sitegen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testEnv  = Environment{Name: "en", Src: "/c", OutDir: "/out", Lang: "en", Permalinks: PermalinksFlat}
	testOpts = EnrichOptions{SiteURL: "https://example.com/", ContentFileExt: ".md"}
	testNow  = time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
)

func enrich(t *testing.T, env Environment, path string, fm map[string]any) *DocumentMeta {
	t.Helper()
	d, err := Enrich(&RawDocument{Path: path, FrontMatter: fm, ModTime: testNow}, env, testOpts, testNow)
	require.NoError(t, err)
	return d
}

func TestEnrich(t *testing.T) {
	d := enrich(t, testEnv, "/c/hello-world.md", map[string]any{
		"datePublished": "2024-01-01 10:00",
		"published":     true,
		"category":      " news ",
		"description":   "First words",
	})

	assert.Equal(t, "hello-world", d.Slug)
	assert.Equal(t, "Hello World", d.RawTitle)
	assert.Equal(t, "single", d.Template)
	assert.Equal(t, "news", d.Category)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).Unix(), d.UnixTimestamp)
	assert.Equal(t, "1 January 2024", d.HumanDate)
	assert.Equal(t, "2024-01-01T10:00:00Z", d.IsoPubDate)
	assert.Equal(t, testNow.UnixMilli(), d.LastModified)
	assert.Equal(t, "/hello-world/", d.RelativeLink)
	assert.Equal(t, "https://example.com/hello-world/", d.AbsoluteLink)
	assert.Equal(t, "en", d.Lang)
	assert.Equal(t, "First words", d.Param("description"))
	assert.True(t, d.Listed())
}

func TestEnrich_Defaults(t *testing.T) {
	d := enrich(t, testEnv, "/c/about.md", map[string]any{"type": "page", "title": "About"})

	assert.Equal(t, "page", d.Template)
	assert.Equal(t, "2024-06-01 12:30", d.DatePublished)
	assert.Equal(t, testNow.Unix(), d.UnixTimestamp)
	assert.False(t, d.Published)
	assert.False(t, d.Listed())
}

func TestEnrich_Links(t *testing.T) {
	nested := testEnv
	nested.Permalinks = PermalinksRetainStructure
	fi := testEnv
	fi.OutPath = "fi"

	tests := []struct {
		name string
		env  Environment
		path string
		fm   map[string]any
		want string
	}{
		{"flat", testEnv, "/c/notes/bread.md", nil, "/bread/"},
		{"retain structure", nested, "/c/notes/bread.md", nil, "/notes/bread/"},
		{"index slug", testEnv, "/c/index.md", nil, "/"},
		{"index slug below out path", fi, "/c/index.md", nil, "/fi/"},
		{"index template", testEnv, "/c/home.md", map[string]any{"template": "index"}, "/"},
		{"nested index", nested, "/c/notes/index.md", nil, "/notes/"},
		{"out path", fi, "/c/post.md", nil, "/fi/post/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := enrich(t, tt.env, tt.path, tt.fm)
			assert.Equal(t, tt.want, d.RelativeLink)
			assert.Equal(t, "https://example.com"+tt.want, d.AbsoluteLink)
		})
	}
}

func TestEnrich_RelativeSourcePath(t *testing.T) {
	assert.Equal(t, "notes/2024", enrich(t, testEnv, "/c/notes/2024/x.md", nil).RelativeSourcePath)
	assert.Empty(t, enrich(t, testEnv, "/c/x.md", nil).RelativeSourcePath)
}

func TestEnrich_BeautifiesTitle(t *testing.T) {
	d := enrich(t, testEnv, "/c/q.md", map[string]any{"title": `"Quoted" -- title & more`})
	assert.Equal(t, `"Quoted" -- title & more`, d.RawTitle)
	assert.Contains(t, string(d.Title), "&ldquo;Quoted&rdquo;")
	assert.Contains(t, string(d.Title), "&ndash;")
	assert.Contains(t, string(d.Title), "&amp;")
}

func TestEnrich_ParseErrorCarriesPath(t *testing.T) {
	_, err := Enrich(&RawDocument{
		Path:        "/c/bad.md",
		FrontMatter: map[string]any{"datePublished": "tomorrow"},
	}, testEnv, testOpts, testNow)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "/c/bad.md", pe.Path)
	require.Len(t, pe.Fields, 1)
	assert.Equal(t, "datePublished", pe.Fields[0].Field)
}

func TestEnrich_LocalisedMonths(t *testing.T) {
	months := []string{"tammikuuta", "helmikuuta", "maaliskuuta", "huhtikuuta", "toukokuuta", "kesäkuuta",
		"heinäkuuta", "elokuuta", "syyskuuta", "lokakuuta", "marraskuuta", "joulukuuta"}
	opts := testOpts
	opts.MonthNames = months

	d, err := Enrich(&RawDocument{
		Path:        "/c/x.md",
		FrontMatter: map[string]any{"datePublished": "2024-03-05 09:00"},
	}, testEnv, opts, testNow)
	require.NoError(t, err)
	assert.Equal(t, "5 maaliskuuta 2024", d.HumanDate)
}

func TestDocumentListed(t *testing.T) {
	assert.True(t, (&DocumentMeta{Published: true}).Listed())
	assert.True(t, (&DocumentMeta{Published: true, Type: "note"}).Listed())
	assert.False(t, (&DocumentMeta{Published: true, Type: TypePage}).Listed())
	assert.False(t, (&DocumentMeta{Published: true, Type: TypeDraft}).Listed())
	assert.False(t, (&DocumentMeta{}).Listed())
}

func TestIsReserved(t *testing.T) {
	deny := []string{"archive", "blog"}
	assert.True(t, IsReserved("archive", deny))
	assert.False(t, IsReserved("archives", deny))
	assert.False(t, IsReserved("archive", nil))
}

func TestTitleFromSlug(t *testing.T) {
	assert.Equal(t, "My First Post", titleFromSlug("my_first-post", "en"))
	assert.Equal(t, "Hello", titleFromSlug("hello", "not a language"))
}
