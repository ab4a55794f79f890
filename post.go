package sitegen

import (
	"bytes"
	"fmt"
	"html/template"
	"slices"
	"time"
)

// DocumentMeta is the enriched record of one content file. It is what
// collection.json holds; rendered bodies are attached per render in PageData.
type DocumentMeta struct {
	Slug               string `json:"slug"`
	FilePath           string `json:"filePath"`
	RelativeSourcePath string `json:"relativeSourcePath"`

	DatePublished string `json:"datePublished"`
	UnixTimestamp int64  `json:"unixTimestamp"`
	HumanDate     string `json:"humanDate"`
	IsoPubDate    string `json:"isoPubDate"`
	LastModified  int64  `json:"lastModified"`

	Type            string `json:"type,omitempty"`
	Template        string `json:"template"`
	Category        string `json:"category,omitempty"`
	Published       bool   `json:"published"`
	ExcludeFromFeed bool   `json:"excludeFromFeed"`

	RawTitle string        `json:"rawTitle"`
	Title    template.HTML `json:"title"`

	AbsoluteLink string `json:"absoluteLink"`
	RelativeLink string `json:"relativeLink"`
	Lang         string `json:"lang"`

	Params map[string]any `json:"params,omitempty"`

	date time.Time
}

// Date is the publication time in UTC.
func (d *DocumentMeta) Date() time.Time { return d.date }

// Param is called from templates for front-matter fields outside the schema.
func (d *DocumentMeta) Param(key string) string {
	return FrontMatter{Extra: d.Params}.Param(key)
}

// Listed reports whether the document belongs on archive, blog and feed pages.
func (d *DocumentMeta) Listed() bool {
	return d.Published && d.Type != TypePage && d.Type != TypeDraft
}

func (d *DocumentMeta) String() string {
	b := new(bytes.Buffer)
	b.WriteString("title: ")
	b.WriteString(d.RawTitle)
	b.WriteString("\ndate: ")
	b.WriteString(d.DatePublished)
	b.WriteString("\ntype: ")
	b.WriteString(d.Type)
	b.WriteString("\ncategory: ")
	b.WriteString(d.Category)
	fmt.Fprintf(b, "\nlink: %s\n", d.RelativeLink)
	return b.String()
}

// Collection is an environment's documents, newest first.
type Collection []*DocumentMeta

func (c Collection) sortNewestFirst() {
	slices.SortFunc(c, func(a, b *DocumentMeta) int {
		switch {
		case a.UnixTimestamp > b.UnixTimestamp:
			return -1
		case a.UnixTimestamp < b.UnixTimestamp:
			return 1
		}
		return 0
	})
}

// Listed keeps the documents eligible for list pages, preserving order.
func (c Collection) Listed() Collection {
	listed := make(Collection, 0, len(c))
	for _, d := range c {
		if d.Listed() {
			listed = append(listed, d)
		}
	}
	return listed
}

func (c Collection) limit(n int) Collection {
	if n > 0 && len(c) > n {
		return c[:n]
	}
	return c
}

func (c Collection) earliestDate() time.Time {
	var t time.Time
	for i, d := range c {
		if i == 0 || d.date.Before(t) {
			t = d.date
		}
	}
	return t
}

func (c Collection) latestDate() time.Time {
	var t time.Time
	for _, d := range c {
		if d.date.After(t) {
			t = d.date
		}
	}
	return t
}
