package sitegen

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/russross/blackfriday/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Markdown engines selectable in the configuration.
const (
	EngineBlackfriday = "blackfriday"
	EngineGoldmark    = "goldmark"
)

type renderer interface {
	render(in []byte) string
}

const htmlFlags = blackfriday.UseXHTML |
	blackfriday.Smartypants |
	blackfriday.SmartypantsFractions |
	blackfriday.SmartypantsDashes |
	blackfriday.SmartypantsLatexDashes

const extensions = blackfriday.NoIntraEmphasis |
	blackfriday.Tables |
	blackfriday.FencedCode |
	blackfriday.Autolink |
	blackfriday.Strikethrough |
	blackfriday.HardLineBreak |
	blackfriday.SpaceHeadings |
	blackfriday.HeadingIDs

func newMarkdownRenderer(engine string) (renderer, error) {
	switch engine {
	case "", EngineBlackfriday:
		return blackfridayHTMLRenderer{}, nil
	case EngineGoldmark:
		return newGoldmarkRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown markdown engine %q", engine)
	}
}

type blackfridayHTMLRenderer struct{}

// A fresh HTML renderer per call: it tracks heading ids per document.
func (blackfridayHTMLRenderer) render(in []byte) string {
	r := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{Flags: htmlFlags})
	return string(blackfriday.Run(in, blackfriday.WithRenderer(r), blackfriday.WithExtensions(extensions)))
}

type goldmarkRenderer struct {
	md goldmark.Markdown
}

func newGoldmarkRenderer() goldmarkRenderer {
	return goldmarkRenderer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithXHTML(),
			gmhtml.WithUnsafe(),
		),
	)}
}

func (g goldmarkRenderer) render(in []byte) string {
	var buf bytes.Buffer
	if err := g.md.Convert(in, &buf); err != nil {
		// Convert only fails on writer errors, which bytes.Buffer never returns.
		return ""
	}
	return buf.String()
}

// Body is a rendered document body.
type Body struct {
	Full    template.HTML
	Excerpt template.HTML
}

// BodyRenderer converts markdown bodies to HTML and cuts excerpts.
type BodyRenderer struct {
	toHTML    renderer
	cutString string
}

func NewBodyRenderer(engine, cutString string) (*BodyRenderer, error) {
	r, err := newMarkdownRenderer(engine)
	if err != nil {
		return nil, err
	}
	return &BodyRenderer{toHTML: r, cutString: cutString}, nil
}

// Render is a pure function of body and the renderer's settings.
func (br *BodyRenderer) Render(body string) Body {
	full := br.toHTML.render([]byte(body))
	return Body{
		Full:    template.HTML(full),
		Excerpt: template.HTML(excerpt(full, br.cutString)),
	}
}

// excerpt is everything before the first cut marker, or all of html.
func excerpt(html, cut string) string {
	if cut == "" {
		return html
	}
	before, _, found := strings.Cut(html, cut)
	if !found {
		return html
	}
	return before
}

var titleEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// beautifyTitle applies smart quotes and dashes to a plain-text title and
// returns HTML.
func beautifyTitle(title string) string {
	var b bytes.Buffer
	sp := blackfriday.NewSmartypantsRenderer(htmlFlags)
	sp.Process(&b, []byte(titleEscaper.Replace(title)))
	return b.String()
}
