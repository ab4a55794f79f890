// Package sitegen is a static site generator for multi-language blogs.
// Markdown files with front-matter are rendered through named templates into
// pages, archive, blog index, category pages and Atom feeds, once per
// configured environment.
//
// Templates are html/template files; those whose name starts with an
// underscore are partials, available to the other templates of the same
// environment as {{template "name" .}}.
package sitegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/otiai10/copy"
	"github.com/spf13/afero"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/xml"
	"golang.org/x/sync/errgroup"

	"github.com/thomas11/sitegen/internal/metrics"
)

// Generator renders the environments of one site configuration.
type Generator struct {
	conf     *SiteConf
	fs       afero.Fs
	logger   *slog.Logger
	recorder metrics.Recorder
	ignore   []glob.Glob
	minifier *minify.M

	// Now is the generation clock; it supplies datePublished defaults.
	Now func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithFs makes the generator read and write through fs instead of the OS.
func WithFs(fs afero.Fs) Option { return func(g *Generator) { g.fs = fs } }

func WithLogger(l *slog.Logger) Option { return func(g *Generator) { g.logger = l } }

func WithRecorder(r metrics.Recorder) Option { return func(g *Generator) { g.recorder = r } }

func WithClock(now func() time.Time) Option { return func(g *Generator) { g.Now = now } }

func NewGenerator(conf *SiteConf, opts ...Option) (*Generator, error) {
	ignore, err := CompileIgnore(conf.Ignore)
	if err != nil {
		return nil, err
	}
	g := &Generator{
		conf:     conf,
		fs:       afero.NewOsFs(),
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		ignore:   ignore,
		Now:      time.Now,
	}
	if conf.Minify {
		g.minifier = minify.New()
		g.minifier.AddFunc("text/html", html.Minify)
		g.minifier.AddFunc("application/atom+xml", xml.Minify)
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// Report summarises one environment's generation.
type Report struct {
	Environment string        `json:"environment"`
	RunID       string        `json:"runId"`
	Documents   int           `json:"documents"`
	Pages       int           `json:"pages"`
	Lists       int           `json:"lists"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	Errors      []error       `json:"-"`
	Duration    time.Duration `json:"duration"`
}

// EnvironmentResult is the outcome of one environment task.
type EnvironmentResult struct {
	Environment string
	Report      *Report
	Err         error
}

// GenerateAll generates every configured environment, at most
// ParallelEnvironments at a time. Each environment succeeds or fails on its
// own; results are in configuration order.
func (g *Generator) GenerateAll(ctx context.Context) []EnvironmentResult {
	envs := g.conf.Environments
	results := make([]EnvironmentResult, len(envs))

	var eg errgroup.Group
	eg.SetLimit(max(1, g.conf.ParallelEnvironments))
	for i, env := range envs {
		eg.Go(func() error {
			report, err := g.Generate(ctx, env)
			results[i] = EnvironmentResult{Environment: env.Name, Report: report, Err: err}
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// site is the state of one environment's generation run.
type site struct {
	*Generator
	env        Environment
	logger     *slog.Logger
	report     *Report
	collection Collection
	templates  *TemplateSet
	bodies     *BodyRenderer
	// nestedDirs belong to environments whose output root is inside this one.
	nestedDirs []string
}

// Generate runs the stages for env in order: discover, collect, compile
// templates, snapshot, pages, lists (blog environments only), static
// assets. Per-document problems are logged and counted in the report; an
// error is returned only when a whole stage fails or ctx is done.
func (g *Generator) Generate(ctx context.Context, env Environment) (report *Report, err error) {
	start := time.Now()
	report = &Report{Environment: env.Name, RunID: uuid.NewString()}
	logger := g.logger.With("env", env.Name, "run_id", report.RunID)

	defer func() {
		report.Duration = time.Since(start)
		g.recorder.ObserveGeneration(env.Name, report.Duration, err == nil)
		if err != nil {
			logger.Error("Environment generation failed", "error", err)
			return
		}
		logger.Info("Environment generated",
			"documents", report.Documents,
			"pages", report.Pages,
			"lists", report.Lists,
			"skipped", report.Skipped,
			"failed", report.Failed,
			"duration", report.Duration)
	}()

	bodies, err := NewBodyRenderer(g.conf.Markdown, g.conf.CutString)
	if err != nil {
		return report, err
	}
	s := &site{
		Generator:  g,
		env:        env,
		logger:     logger,
		report:     report,
		bodies:     bodies,
		nestedDirs: g.conf.nestedDirs(env),
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	files, err := ListContentFiles(g.fs, env, g.conf.ContentFileExt, g.ignore)
	if err != nil {
		return report, err
	}
	logger.Debug("Content files found", "count", len(files))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	collection, docErrs := BuildCollection(ctx, g.fs, files, env, g.conf.EnrichOptions(env), g.Now(), g.conf.Concurrency)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	for _, e := range docErrs {
		s.documentFailed(e)
	}
	s.collection = collection
	report.Documents = len(collection)

	s.templates, err = CompileTemplates(g.fs, env.Views, g.conf.TemplateFileExt)
	if err != nil {
		return report, fmt.Errorf("compile templates: %w", err)
	}
	logger.Debug("Templates compiled", "templates", s.templates.Names(), "partials", s.templates.partials)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := PersistSnapshot(g.fs, collection, env); err != nil {
		return report, fmt.Errorf("persist snapshot: %w", err)
	}

	if err := s.generateDocuments(ctx); err != nil {
		return report, err
	}

	if env.IsBlog {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		s.generateLists()
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := s.copyStaticFiles(); err != nil {
		return report, fmt.Errorf("copy static files: %w", err)
	}
	return report, nil
}

func (s *site) documentFailed(err error) {
	s.logger.Warn("Skipping document", "error", err)
	s.report.Failed++
	s.report.Errors = append(s.report.Errors, err)
	s.recorder.IncDocuments(s.env.Name, metrics.OutcomeFailed)
}

// documentOutputPath is the page file for d, relative to the output root.
func documentOutputPath(env Environment, d *DocumentMeta) string {
	return filepath.Join(append(documentSegments(env, d), "index.html")...)
}

func (s *site) generateDocuments(ctx context.Context) error {
	written := make(map[string]string, len(s.collection))

	for _, d := range s.collection {
		if err := ctx.Err(); err != nil {
			return err
		}

		if IsReserved(d.Slug, s.conf.UnforgivableFileNames) {
			s.logger.Warn("Reserved name, please rename this document", "slug", d.Slug, "path", d.FilePath)
			s.report.Skipped++
			s.recorder.IncDocuments(s.env.Name, metrics.OutcomeReserved)
			continue
		}

		out := documentOutputPath(s.env, d)
		if dir := strings.Split(filepath.ToSlash(out), "/")[0]; slices.Contains(s.nestedDirs, dir) {
			s.logger.Warn("Output path belongs to another environment, please rename this document",
				"path", d.FilePath, "output", out)
			s.report.Skipped++
			s.recorder.IncDocuments(s.env.Name, metrics.OutcomeReserved)
			continue
		}
		if other, ok := written[out]; ok {
			s.logger.Warn("Output path already taken, skipping document",
				"path", d.FilePath, "output", out, "taken_by", other)
			s.report.Skipped++
			s.recorder.IncDocuments(s.env.Name, metrics.OutcomeSkipped)
			continue
		}
		written[out] = d.FilePath

		if err := s.generateDocument(d, out); err != nil {
			s.documentFailed(fmt.Errorf("%s: %w", d.FilePath, err))
			continue
		}
		s.report.Pages++
		s.recorder.IncDocuments(s.env.Name, metrics.OutcomeWritten)
	}
	return nil
}

func (s *site) generateDocument(d *DocumentMeta, out string) error {
	body, err := s.renderBody(d)
	if err != nil {
		return err
	}
	page := PageData{
		DocumentMeta: d,
		Body:         body,
		IsSingle:     true,
		IsBlog:       s.env.IsBlog,
		NavPath:      navPath(s.env),
		Strings:      s.conf.Strings[s.env.Lang],
	}
	rendered, err := s.templates.Render(d.Template, page)
	if err != nil {
		return err
	}
	return s.writeFile(out, rendered, "text/html")
}

// renderBody re-reads d's file; bodies are not kept in the collection.
func (s *site) renderBody(d *DocumentMeta) (Body, error) {
	raw, err := ParseFile(s.fs, d.FilePath)
	if err != nil {
		return Body{}, err
	}
	return s.bodies.Render(raw.Body), nil
}

func (s *site) generateLists() {
	listed := s.collection.Listed()
	groups := GroupByCategory(listed)
	s.logger.Debug("Categories grouped", "groups", documentsByCategory(groups).String())

	s.generateList(listKind{name: "archive", title: s.str("archive", "Archive"), out: "archive/index.html", categories: groups}, listed)
	s.generateList(listKind{name: "blog", title: s.str("blogTitle", "Blog"), out: "blog/index.html", categories: groups}, listed.limit(s.conf.PostsOnBlogIndex))

	feedTitle := s.str("blog", s.conf.SiteTitle)
	feed := feedDocuments(listed, s.conf.PostsOnFeed)
	if err := s.renderAndSaveFeed(feedTitle, "", FeedFile, feed); err != nil {
		s.listFailed(FeedFile, err)
	} else if len(feed) > 0 {
		s.report.Lists++
	}

	for _, group := range groups {
		dir := filepath.Join("category", group.Category.Id())
		s.generateList(listKind{
			name:     "category",
			title:    group.Category.String(),
			category: group.Category.String(),
			out:      filepath.Join(dir, "index.html"),
		}, group.Documents)

		title := s.conf.SiteTitle + ` Category "` + group.Category.String() + `."`
		feedPath := filepath.Join(dir, FeedFile)
		if err := s.renderAndSaveFeed(title, filepath.ToSlash(dir)+"/", feedPath, feedDocuments(group.Documents, s.conf.PostsOnFeed)); err != nil {
			s.listFailed(feedPath, err)
		}
	}
}

// listFailed records a list page or feed that could not be written. The
// rest of the environment is still generated.
func (s *site) listFailed(out string, err error) {
	err = fmt.Errorf("%s: %w", out, err)
	s.logger.Error("Failed to generate list", "error", err)
	s.report.Errors = append(s.report.Errors, err)
}

type listKind struct {
	name       string
	title      string
	category   string
	out        string
	categories []CategoryGroup
}

func (s *site) generateList(kind listKind, docs Collection) {
	if !s.templates.Has(kind.name) {
		s.logger.Debug("No template for list, skipping", "list", kind.name)
		return
	}

	items := make([]ListItem, 0, len(docs))
	for _, d := range docs {
		body, err := s.renderBody(d)
		if err != nil {
			s.logger.Warn("Leaving document out of list", "list", kind.name, "path", d.FilePath, "error", err)
			continue
		}
		items = append(items, ListItem{DocumentMeta: d, Body: body})
	}

	data := ListData{
		Title:        kind.title,
		Kind:         kind.name,
		Category:     kind.category,
		DocumentList: items,
		Categories:   kind.categories,
		IsBlog:       s.env.IsBlog,
		NavPath:      navPath(s.env),
		Strings:      s.conf.Strings[s.env.Lang],
	}
	if len(items) > 0 {
		data.Updated = items[0].IsoPubDate
	}

	rendered, err := s.templates.Render(kind.name, data)
	if err != nil {
		s.listFailed(kind.out, err)
		return
	}
	if err := s.writeFile(kind.out, rendered, "text/html"); err != nil {
		s.listFailed(kind.out, err)
		return
	}
	s.report.Lists++
}

// navPath prefixes site-relative links in templates: "" at the site root,
// "/fi" for an environment with outPath fi.
func navPath(env Environment) string {
	if p := strings.Trim(filepath.ToSlash(env.OutPath), "/"); p != "" {
		return "/" + p
	}
	return ""
}

// str looks up a UI string for the environment's language.
func (s *site) str(key, fallback string) string {
	if v, ok := s.conf.Strings[s.env.Lang][key]; ok && v != "" {
		return v
	}
	return fallback
}

// writeFile writes content below the environment's output root, minifying
// it first when enabled.
func (s *site) writeFile(rel, content, mediaType string) error {
	if s.minifier != nil {
		minified, err := s.minifier.String(mediaType, content)
		if err != nil {
			return fmt.Errorf("minify %s: %w", rel, err)
		}
		content = minified
	}
	root := s.env.OutputRoot()
	p := filepath.Join(root, rel)
	if r, err := filepath.Rel(root, p); err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s is outside the output root %s", rel, root)
	}
	if err := s.fs.MkdirAll(filepath.Dir(p), os.FileMode(0o775)); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, p, []byte(content), os.FileMode(0o664))
}

// copyStaticFiles copies env.Static into the output root. Static assets
// always live on the OS filesystem.
func (s *site) copyStaticFiles() error {
	if s.env.Static == "" {
		return nil
	}
	if _, ok := s.fs.(*afero.OsFs); !ok {
		s.logger.Debug("Skipping static files on a non-OS filesystem", "static", s.env.Static)
		return nil
	}
	if _, err := os.Stat(s.env.Static); errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Static directory not found", "static", s.env.Static)
		return nil
	}
	dest := s.env.OutputRoot()
	s.logger.Debug("Copying static files", "from", s.env.Static, "to", dest)
	return copy.Copy(s.env.Static, dest)
}
