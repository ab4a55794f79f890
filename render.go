package sitegen

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
)

// PartialMarker prefixes template files that are partials rather than pages.
const PartialMarker = "_"

func formatDate(d time.Time) string {
	return d.Format("January 2, 2006")
}

func formatDateShort(d time.Time) string {
	return d.Format("Jan 2, 2006")
}

type paramer interface {
	Param(key string) string
}

// localised returns the UI string for key, or key itself when untranslated.
func localised(strs map[string]string, key string) string {
	if v, ok := strs[key]; ok {
		return v
	}
	return key
}

var templateFuncs = template.FuncMap{
	"formatDate":      formatDate,
	"formatDateShort": formatDateShort,
	"param":           func(d paramer, key string) string { return d.Param(key) },
	"str":             localised,
	"safeHTML":        func(s string) template.HTML { return template.HTML(s) },
	"toString":        cast.ToString,
}

// PageData is passed to the template of a single document.
type PageData struct {
	*DocumentMeta
	Body     Body
	IsSingle bool
	IsBlog   bool
	NavPath  string
	Strings  map[string]string
}

// ListItem is one document on a list page, with its rendered body.
type ListItem struct {
	*DocumentMeta
	Body Body
}

// ListData is passed to the archive, blog and category templates.
type ListData struct {
	Title        string
	Kind         string
	Category     string
	DocumentList []ListItem
	// Categories is set on the archive and blog pages.
	Categories []CategoryGroup
	Updated    string
	IsBlog       bool
	NavPath      string
	Strings      map[string]string
}

// TemplateSet holds one environment's compiled templates. Partials are
// shared by the templates of this set only.
type TemplateSet struct {
	templates map[string]*template.Template
	partials  []string
}

// CompileTemplates parses every file ending in ext below views. Files whose
// name starts with PartialMarker become partials named without the marker;
// all other files become templates named after their base name.
func CompileTemplates(fs afero.Fs, views, ext string) (*TemplateSet, error) {
	var files []string
	err := afero.Walk(fs, views, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list templates in %s: %w", views, err)
	}
	sort.Strings(files)

	root := template.New("").Funcs(templateFuncs)
	set := &TemplateSet{templates: make(map[string]*template.Template)}
	pages := make(map[string]string)

	for _, f := range files {
		content, err := afero.ReadFile(fs, f)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(f), ext)
		if strings.HasPrefix(name, PartialMarker) {
			name = strings.TrimPrefix(name, PartialMarker)
			if _, err := root.New(name).Parse(string(content)); err != nil {
				return nil, fmt.Errorf("parse partial %s: %w", f, err)
			}
			set.partials = append(set.partials, name)
			continue
		}
		pages[name] = string(content)
	}

	for name, content := range pages {
		t, err := root.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.New(name).Parse(content); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		set.templates[name] = t
	}

	return set, nil
}

// Has reports whether a template called name was compiled.
func (ts *TemplateSet) Has(name string) bool {
	_, ok := ts.templates[name]
	return ok
}

// Names lists the compiled templates, sorted.
func (ts *TemplateSet) Names() []string {
	names := make([]string, 0, len(ts.templates))
	for n := range ts.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Render executes the named template with data.
func (ts *TemplateSet) Render(name string, data any) (string, error) {
	t, ok := ts.templates[name]
	if !ok {
		return "", &TemplateError{Name: name, Err: ErrTemplateNotFound}
	}
	var b bytes.Buffer
	if err := t.ExecuteTemplate(&b, name, data); err != nil {
		return "", &TemplateError{Name: name, Err: err}
	}
	return b.String(), nil
}
