package sitegen

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Permalink styles.
const (
	PermalinksFlat            = "flat"
	PermalinksRetainStructure = "retainStructure"
)

// Environment is one content source rendered to one output destination,
// typically a language edition of the site.
type Environment struct {
	Name       string `yaml:"name"`
	Src        string `yaml:"src"`
	Views      string `yaml:"views"`
	OutDir     string `yaml:"outDir"`
	OutPath    string `yaml:"outPath"`
	Lang       string `yaml:"lang"`
	IsBlog     bool   `yaml:"isBlog"`
	Permalinks string `yaml:"permalinks"`
	// Static is copied verbatim into the environment's output root.
	Static string `yaml:"static,omitempty"`
}

// OutputRoot is the directory all of the environment's files go below.
func (e Environment) OutputRoot() string {
	return filepath.Join(e.OutDir, e.OutPath)
}

// AdminConf configures the admin HTTP server.
type AdminConf struct {
	Addr  string `yaml:"addr"`
	Token string `yaml:"token,omitempty"`
}

// SiteConf is the whole configuration file.
type SiteConf struct {
	SiteURL   string `yaml:"siteURL"`
	SiteTitle string `yaml:"siteTitle"`
	Author    string `yaml:"author"`
	AuthorURI string `yaml:"authorURI"`

	ContentFileExt  string `yaml:"contentFileExt"`
	TemplateFileExt string `yaml:"templateFileExt"`

	PostsOnBlogIndex int    `yaml:"postsOnBlogIndex"`
	PostsOnFeed      int    `yaml:"postsOnFeed"`
	CutString        string `yaml:"cutString"`

	UnforgivableFileNames []string                     `yaml:"unforgivableFileNames"`
	Strings               map[string]map[string]string `yaml:"strings"`
	MonthNames            map[string][]string          `yaml:"monthNames"`
	Ignore                []string                     `yaml:"ignore"`

	Concurrency          int    `yaml:"concurrency"`
	ParallelEnvironments int    `yaml:"parallelEnvironments"`
	Markdown             string `yaml:"markdown"`
	Minify               bool   `yaml:"minify"`

	Admin        AdminConf     `yaml:"admin"`
	Environments []Environment `yaml:"environments"`
}

// LoadConfig reads the YAML configuration at fileName. A .env file next to
// it is loaded first and ${VAR} references are expanded. Relative paths are
// resolved against the configuration file's directory.
func LoadConfig(fileName string) (*SiteConf, error) {
	baseDir := filepath.Dir(fileName)
	if err := godotenv.Load(filepath.Join(baseDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	rawConf, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var conf SiteConf
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(rawConf))), &conf); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", fileName, err)
	}

	conf.applyDefaults()

	for i := range conf.Environments {
		env := &conf.Environments[i]
		env.Src = normalizePath(env.Src, baseDir)
		env.Views = normalizePath(env.Views, baseDir)
		env.OutDir = normalizePath(env.OutDir, baseDir)
		if env.Static != "" {
			env.Static = normalizePath(env.Static, baseDir)
		}
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *SiteConf) applyDefaults() {
	if c.ContentFileExt == "" {
		c.ContentFileExt = ".md"
	}
	if c.TemplateFileExt == "" {
		c.TemplateFileExt = ".html"
	}
	if c.PostsOnBlogIndex == 0 {
		c.PostsOnBlogIndex = 10
	}
	if c.PostsOnFeed == 0 {
		c.PostsOnFeed = 20
	}
	if c.CutString == "" {
		c.CutString = "<!--more-->"
	}
	if c.Concurrency == 0 {
		c.Concurrency = 8
	}
	if c.ParallelEnvironments == 0 {
		c.ParallelEnvironments = 1
	}
	if c.Markdown == "" {
		c.Markdown = EngineBlackfriday
	}
	if c.Admin.Addr == "" {
		c.Admin.Addr = "localhost:3060"
	}
	for i := range c.Environments {
		env := &c.Environments[i]
		if env.Permalinks == "" {
			env.Permalinks = PermalinksFlat
		}
		if env.Lang == "" {
			env.Lang = "en"
		}
		if env.Name == "" {
			env.Name = env.Lang
		}
	}
}

// Validate checks the configuration for mistakes that would otherwise
// surface halfway through a run.
func (c *SiteConf) Validate() error {
	var errs []error
	if len(c.Environments) == 0 {
		errs = append(errs, errors.New("no environments configured"))
	}
	if c.Markdown != EngineBlackfriday && c.Markdown != EngineGoldmark {
		errs = append(errs, fmt.Errorf("unknown markdown engine %q", c.Markdown))
	}
	if c.Concurrency < 0 || c.ParallelEnvironments < 0 {
		errs = append(errs, errors.New("concurrency settings must not be negative"))
	}
	if _, err := CompileIgnore(c.Ignore); err != nil {
		errs = append(errs, err)
	}
	for lang, months := range c.MonthNames {
		if len(months) != 12 {
			errs = append(errs, fmt.Errorf("monthNames[%s]: need 12 names, got %d", lang, len(months)))
		}
	}

	names := make(map[string]bool)
	roots := make(map[string]string)
	blog := false
	for _, env := range c.Environments {
		blog = blog || env.IsBlog
		if names[env.Name] {
			errs = append(errs, fmt.Errorf("environment %q defined twice", env.Name))
		}
		names[env.Name] = true

		if env.Src == "" || env.Views == "" || env.OutDir == "" {
			errs = append(errs, fmt.Errorf("environment %q: src, views and outDir are required", env.Name))
		}
		if env.Permalinks != PermalinksFlat && env.Permalinks != PermalinksRetainStructure {
			errs = append(errs, fmt.Errorf("environment %q: unknown permalink style %q", env.Name, env.Permalinks))
		}
		if _, err := language.Parse(env.Lang); err != nil {
			errs = append(errs, fmt.Errorf("environment %q: invalid lang %q: %w", env.Name, env.Lang, err))
		}
		root := filepath.Clean(env.OutputRoot())
		if other, ok := roots[root]; ok {
			errs = append(errs, fmt.Errorf("environments %q and %q write to the same output root %s", other, env.Name, root))
		}
		roots[root] = env.Name
	}
	if blog && (c.SiteTitle == "" || c.Author == "") {
		errs = append(errs, errors.New("siteTitle and author are required for blog environments"))
	}
	return errors.Join(errs...)
}

// nestedDirs returns the top-level directories below env's output root that
// are the output roots of other environments, or contain them.
func (c *SiteConf) nestedDirs(env Environment) []string {
	root := filepath.Clean(env.OutputRoot())
	var dirs []string
	for _, other := range c.Environments {
		if other.Name == env.Name {
			continue
		}
		rel, err := filepath.Rel(root, filepath.Clean(other.OutputRoot()))
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		dir := strings.Split(filepath.ToSlash(rel), "/")[0]
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// Environment returns the environment called name.
func (c *SiteConf) Environment(name string) (Environment, bool) {
	for _, env := range c.Environments {
		if env.Name == name {
			return env, true
		}
	}
	return Environment{}, false
}

// EnrichOptions returns the enrichment settings for env.
func (c *SiteConf) EnrichOptions(env Environment) EnrichOptions {
	return EnrichOptions{
		SiteURL:        c.SiteURL,
		ContentFileExt: c.ContentFileExt,
		MonthNames:     c.MonthNames[env.Lang],
	}
}

func normalizePath(path, baseDir string) string {
	if path != "" && !filepath.IsAbs(path) {
		absPath := filepath.Join(baseDir, path)
		slog.Debug("Normalizing path", "path", path, "abs", absPath)
		return absPath
	}
	return path
}
