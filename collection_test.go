package sitegen

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCollection(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/c/a.md":   "---\ntitle: A\ndatePublished: 2020-01-01 10:00\npublished: true\n---\nA body\n",
		"/c/b.md":   "---\ntitle: B\ndatePublished: 2020-02-01 10:00\npublished: true\n---\nB body\n",
		"/c/bad.md": "---\ntitle: Bad\npublished: sometimes\n---\n",
	})
	env := Environment{Name: "en", Src: "/c", OutDir: "/out", Lang: "en", Permalinks: PermalinksFlat}
	paths, err := ListContentFiles(fs, env, ".md", nil)
	require.NoError(t, err)

	c, errs := BuildCollection(context.Background(), fs, paths, env, testOpts, testNow, 2)
	require.Len(t, c, 2)
	assert.Equal(t, "b", c[0].Slug)
	assert.Equal(t, "a", c[1].Slug)

	require.Len(t, errs, 1)
	var pe *ParseError
	require.ErrorAs(t, errs[0], &pe)
	assert.Equal(t, "/c/bad.md", pe.Path)
}

func TestBuildCollection_Cancelled(t *testing.T) {
	fs := memFs(t, map[string]string{"/c/a.md": "---\ntitle: A\n---\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, errs := BuildCollection(ctx, fs, []string{"/c/a.md"}, testEnv, testOpts, testNow, 1)
	assert.Empty(t, c)
	assert.Empty(t, errs)
}

func TestPersistSnapshot(t *testing.T) {
	fs := afero.NewMemMapFs()
	env := Environment{OutDir: "/out", OutPath: "fi"}
	c := Collection{
		enrich(t, testEnv, "/c/b.md", map[string]any{"datePublished": "2020-02-01 10:00", "title": "B"}),
		enrich(t, testEnv, "/c/a.md", map[string]any{"datePublished": "2020-01-01 10:00", "title": "A"}),
	}
	require.NoError(t, PersistSnapshot(fs, c, env))
	assert.Equal(t, "/out/fi/collection.json", SnapshotPath(env))

	raw, err := afero.ReadFile(fs, "/out/fi/collection.json")
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0]["slug"])
	assert.Equal(t, "B", got[0]["rawTitle"])
	assert.Equal(t, "2020-02-01 10:00", got[0]["datePublished"])
	assert.Equal(t, "/b/", got[0]["relativeLink"])
	assert.NotContains(t, got[0], "date")
}

func TestPersistSnapshot_Empty(t *testing.T) {
	fs := afero.NewMemMapFs()
	env := Environment{OutDir: "/out"}
	require.NoError(t, PersistSnapshot(fs, nil, env))

	raw, err := afero.ReadFile(fs, "/out/collection.json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw))
}
