package sitegen

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// RawDocument is a content file as found on disk.
type RawDocument struct {
	Path        string
	ModTime     time.Time
	FrontMatter map[string]any
	Body        string
}

// ListContentFiles returns every file under env.Src ending in ext, sorted.
// Paths matching one of the ignore globs (relative to env.Src, slash
// separated) are left out.
func ListContentFiles(fs afero.Fs, env Environment, ext string, ignore []glob.Glob) ([]string, error) {
	files := make([]string, 0, 100)

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ext) {
			return nil
		}
		if rel, err := filepath.Rel(env.Src, path); err == nil && isIgnored(filepath.ToSlash(rel), ignore) {
			return nil
		}
		files = append(files, path)
		return nil
	}

	if err := afero.Walk(fs, env.Src, walkFn); err != nil {
		return nil, fmt.Errorf("list content in %s: %w", env.Src, err)
	}
	sort.Strings(files)
	return files, nil
}

func isIgnored(rel string, ignore []glob.Glob) bool {
	for _, g := range ignore {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// CompileIgnore compiles slash-separated ignore patterns such as "**/.*".
func CompileIgnore(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// ParseFile reads a content file and splits it into front-matter and body.
// Delimited blocks (YAML ---, TOML +++, JSON {}) are recognised first; files
// without one may still carry a legacy header of "key: value" lines ended by
// the first blank line.
func ParseFile(fs afero.Fs, path string) (*RawDocument, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	info, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}

	doc := &RawDocument{
		Path:        path,
		ModTime:     info.ModTime(),
		FrontMatter: map[string]any{},
	}

	var fields map[string]any
	body, err := frontmatter.MustParse(bytes.NewReader(content), &fields)
	switch {
	case err == nil:
		if fields != nil {
			doc.FrontMatter = fields
		}
		doc.Body = string(body)
		return doc, nil
	case errors.Is(err, frontmatter.ErrNotFound):
		// An unterminated block is reported as "not found" by the parser.
		if opensDelimitedBlock(content) {
			return nil, &ParseError{Path: path, Err: ErrMissingClosingDelimiter}
		}
	default:
		return nil, &ParseError{Path: path, Err: err}
	}

	header, rest, ok := splitHeaderLines(content)
	if !ok {
		doc.Body = string(content)
		return doc, nil
	}
	doc.FrontMatter = header
	doc.Body = string(rest)
	return doc, nil
}

func opensDelimitedBlock(content []byte) bool {
	for _, line := range bytes.Split(content, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return bytes.Equal(line, []byte("---")) || bytes.Equal(line, []byte("+++"))
	}
	return false
}

// headerKeys are the front-matter fields. A legacy header names at least one.
var headerKeys = []string{"title", "datepublished", "type", "template", "category", "published", "excludefromfeed"}

// splitHeaderLines parses the legacy header: every line up to the first
// empty line must be "key: value", and one of the keys must be a known
// front-matter field. Keys are case-insensitive.
func splitHeaderLines(content []byte) (map[string]any, []byte, bool) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	firstEmptyLine := bytes.Index(content, []byte("\n\n"))
	if firstEmptyLine == -1 {
		return nil, nil, false
	}

	header := make(map[string]any)
	known := false
	for _, l := range bytes.Split(content[:firstEmptyLine], []byte("\n")) {
		colon := bytes.Index(l, []byte(":"))
		if colon <= 0 {
			return nil, nil, false
		}
		key := string(bytes.TrimSpace(l[:colon]))
		if key == "" || strings.ContainsAny(key, " \t#") {
			return nil, nil, false
		}
		known = known || slices.Contains(headerKeys, strings.ToLower(key))
		header[key] = string(bytes.TrimSpace(l[colon+1:]))
	}
	if !known {
		return nil, nil, false
	}

	return header, content[firstEmptyLine+2:], true
}
