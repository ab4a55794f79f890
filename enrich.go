package sitegen

import (
	"errors"
	"fmt"
	"html/template"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EnrichOptions carries the site-wide settings enrichment depends on.
type EnrichOptions struct {
	SiteURL        string
	ContentFileExt string
	// MonthNames localises humanDate; English is used unless it has 12 entries.
	MonthNames []string
}

// Enrich turns a raw document into its canonical record. It does no I/O and
// never reads the clock: now is the generation time used for a missing
// datePublished.
func Enrich(raw *RawDocument, env Environment, opts EnrichOptions, now time.Time) (*DocumentMeta, error) {
	fm, err := DecodeFrontMatter(raw.FrontMatter)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = raw.Path
			return nil, pe
		}
		return nil, &ParseError{Path: raw.Path, Err: err}
	}

	slug := slugFromPath(raw.Path, opts.ContentFileExt)
	if slug == "" {
		return nil, &ParseError{Path: raw.Path, Fields: []FieldError{{Field: "slug", Message: "file name yields an empty slug"}}}
	}

	if fm.DatePublished == "" {
		fm.DatePublished = now.UTC().Format(DateLayout)
	}
	date, err := time.ParseInLocation(DateLayout, fm.DatePublished, time.UTC)
	if err != nil {
		return nil, &ParseError{Path: raw.Path, Fields: []FieldError{{Field: "datePublished", Message: err.Error()}}}
	}

	if fm.Template == "" {
		if fm.Type == TypePage {
			fm.Template = "page"
		} else {
			fm.Template = "single"
		}
	}

	rawTitle := fm.Title
	if rawTitle == "" {
		rawTitle = titleFromSlug(slug, env.Lang)
	}

	meta := &DocumentMeta{
		Slug:               slug,
		FilePath:           raw.Path,
		RelativeSourcePath: relativeSourcePath(env.Src, raw.Path),
		DatePublished:      fm.DatePublished,
		UnixTimestamp:      date.Unix(),
		HumanDate:          humanDate(date, opts.MonthNames),
		IsoPubDate:         date.Format(time.RFC3339),
		LastModified:       raw.ModTime.UnixMilli(),
		Type:               fm.Type,
		Template:           fm.Template,
		Category:           strings.TrimSpace(fm.Category),
		Published:          fm.Published,
		ExcludeFromFeed:    fm.ExcludeFromFeed,
		RawTitle:           rawTitle,
		Title:              template.HTML(beautifyTitle(rawTitle)),
		Lang:               env.Lang,
		Params:             fm.Extra,
		date:               date,
	}
	meta.RelativeLink = relativeLink(env, meta)
	meta.AbsoluteLink = strings.TrimSuffix(opts.SiteURL, "/") + meta.RelativeLink

	return meta, nil
}

// IsReserved reports whether slug is on the denylist of names that must not
// become output directories.
func IsReserved(slug string, denylist []string) bool {
	return slices.Contains(denylist, slug)
}

func slugFromPath(p, ext string) string {
	base := filepath.Base(p)
	if ext != "" && strings.HasSuffix(base, ext) {
		return strings.TrimSuffix(base, ext)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// relativeSourcePath is the document's directory below the content root in
// slash form, empty for files directly in the root.
func relativeSourcePath(root, p string) string {
	rel, err := filepath.Rel(root, filepath.Dir(p))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

func isIndexDocument(d *DocumentMeta) bool {
	return d.Slug == "index" || d.Template == "index"
}

// documentSegments are the path elements below the environment's output path.
func documentSegments(env Environment, d *DocumentMeta) []string {
	if d.Template == "index" {
		return nil
	}
	var segments []string
	if env.Permalinks == PermalinksRetainStructure && d.RelativeSourcePath != "" {
		segments = append(segments, strings.Split(d.RelativeSourcePath, "/")...)
	}
	if !isIndexDocument(d) {
		segments = append(segments, d.Slug)
	}
	return segments
}

func relativeLink(env Environment, d *DocumentMeta) string {
	elems := append([]string{"/", env.OutPath}, documentSegments(env, d)...)
	link := path.Join(elems...)
	if link != "/" {
		link += "/"
	}
	return link
}

func titleFromSlug(slug, lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	words := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return cases.Title(tag).String(words)
}

func humanDate(t time.Time, months []string) string {
	if len(months) == 12 {
		return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
	}
	return t.Format("2 January 2006")
}
