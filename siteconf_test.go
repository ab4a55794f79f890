package sitegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"sitegen.yaml": `
siteURL: ${SITEGEN_TEST_SITE_URL}
siteTitle: Test
author: Tester
unforgivableFileNames: [archive]
strings:
  fi:
    archive: Arkisto
environments:
  - lang: fi
    src: content
    views: views
    outDir: /abs/out
    isBlog: true
  - name: docs
    src: docs
    views: views
    outDir: out
    outPath: docs
    permalinks: retainStructure
`,
		".env": "SITEGEN_TEST_SITE_URL=https://from-env.example\n",
	})
	t.Cleanup(func() { os.Unsetenv("SITEGEN_TEST_SITE_URL") })

	conf, err := LoadConfig(filepath.Join(dir, "sitegen.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.example", conf.SiteURL)
	assert.Equal(t, ".md", conf.ContentFileExt)
	assert.Equal(t, ".html", conf.TemplateFileExt)
	assert.Equal(t, 10, conf.PostsOnBlogIndex)
	assert.Equal(t, 20, conf.PostsOnFeed)
	assert.Equal(t, "<!--more-->", conf.CutString)
	assert.Equal(t, EngineBlackfriday, conf.Markdown)
	assert.Equal(t, "localhost:3060", conf.Admin.Addr)
	assert.Equal(t, "Arkisto", conf.Strings["fi"]["archive"])

	require.Len(t, conf.Environments, 2)
	fi := conf.Environments[0]
	assert.Equal(t, "fi", fi.Name)
	assert.Equal(t, PermalinksFlat, fi.Permalinks)
	assert.Equal(t, filepath.Join(dir, "content"), fi.Src)
	assert.Equal(t, "/abs/out", fi.OutDir)
	assert.True(t, fi.IsBlog)

	docs, ok := conf.Environment("docs")
	require.True(t, ok)
	assert.Equal(t, "en", docs.Lang)
	assert.Equal(t, PermalinksRetainStructure, docs.Permalinks)
	assert.Equal(t, filepath.Join(dir, "out", "docs"), docs.OutputRoot())

	_, ok = conf.Environment("missing")
	assert.False(t, ok)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestValidate(t *testing.T) {
	env := Environment{Name: "en", Src: "s", Views: "v", OutDir: "o", Lang: "en", Permalinks: PermalinksFlat}
	odd := env
	odd.Permalinks = "weird"
	odd.IsBlog = true

	conf := &SiteConf{
		Markdown:     "rst",
		Ignore:       []string{"[x"},
		MonthNames:   map[string][]string{"fi": {"tammikuuta"}},
		Environments: []Environment{env, odd, {Name: "bad", Lang: "!!"}},
	}
	err := conf.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`unknown markdown engine "rst"`,
		`ignore pattern "[x"`,
		"monthNames[fi]: need 12 names, got 1",
		`environment "en" defined twice`,
		`unknown permalink style "weird"`,
		"write to the same output root",
		`environment "bad": src, views and outDir are required`,
		`environment "bad": invalid lang "!!"`,
		"siteTitle and author are required for blog environments",
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestValidate_BlogNeedsTitleAndAuthor(t *testing.T) {
	env := Environment{Name: "en", Src: "s", Views: "v", OutDir: "o", Lang: "en", Permalinks: PermalinksFlat, IsBlog: true}
	conf := &SiteConf{Markdown: EngineBlackfriday, SiteTitle: "Site", Environments: []Environment{env}}
	assert.ErrorContains(t, conf.Validate(), "siteTitle and author are required")

	conf.Author = "Joe User"
	assert.NoError(t, conf.Validate())

	env.IsBlog = false
	conf = &SiteConf{Markdown: EngineBlackfriday, Environments: []Environment{env}}
	assert.NoError(t, conf.Validate())
}

func TestNestedDirs(t *testing.T) {
	conf := &SiteConf{Environments: []Environment{
		{Name: "en", OutDir: "/out"},
		{Name: "fi", OutDir: "/out", OutPath: "fi"},
		{Name: "docs", OutDir: "/out", OutPath: "docs/v1"},
		{Name: "elsewhere", OutDir: "/other"},
	}}
	assert.Equal(t, []string{"fi", "docs"}, conf.nestedDirs(conf.Environments[0]))
	assert.Empty(t, conf.nestedDirs(conf.Environments[1]))
	assert.Empty(t, conf.nestedDirs(conf.Environments[3]))
}

func TestValidate_NoEnvironments(t *testing.T) {
	conf := &SiteConf{}
	conf.applyDefaults()
	assert.ErrorContains(t, conf.Validate(), "no environments configured")
}

func TestEnrichOptions(t *testing.T) {
	conf := &SiteConf{
		SiteURL:        "https://example.com",
		ContentFileExt: ".text",
		MonthNames:     map[string][]string{"fi": make([]string, 12)},
	}
	opts := conf.EnrichOptions(Environment{Lang: "fi"})
	assert.Equal(t, "https://example.com", opts.SiteURL)
	assert.Equal(t, ".text", opts.ContentFileExt)
	assert.Len(t, opts.MonthNames, 12)
	assert.Nil(t, conf.EnrichOptions(Environment{Lang: "en"}).MonthNames)
}
