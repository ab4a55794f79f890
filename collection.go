package sitegen

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// SnapshotFile is written to every environment's output root.
const SnapshotFile = "collection.json"

// BuildCollection reads and enriches every path, at most concurrency at a
// time, and returns the documents newest first. A file that cannot be read
// or validated is left out and its error returned alongside; the rest of the
// batch is unaffected. The returned error list is nil when ctx is cancelled
// before any file fails; ctx.Err() tells the caller.
func BuildCollection(ctx context.Context, fs afero.Fs, paths []string, env Environment, opts EnrichOptions, now time.Time, concurrency int) (Collection, []error) {
	docs := make([]*DocumentMeta, len(paths))
	var (
		mu   sync.Mutex
		errs []error
	)

	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			meta, err := readDocument(fs, p, env, opts, now)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			docs[i] = meta
			return nil
		})
	}
	_ = g.Wait()

	collection := make(Collection, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			collection = append(collection, d)
		}
	}
	collection.sortNewestFirst()
	return collection, errs
}

func readDocument(fs afero.Fs, path string, env Environment, opts EnrichOptions, now time.Time) (*DocumentMeta, error) {
	raw, err := ParseFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Enrich(raw, env, opts, now)
}

// SnapshotPath is where PersistSnapshot writes for env.
func SnapshotPath(env Environment) string {
	return filepath.Join(env.OutDir, env.OutPath, SnapshotFile)
}

// PersistSnapshot writes the collection as a JSON array, replacing any
// previous snapshot.
func PersistSnapshot(fs afero.Fs, c Collection, env Environment) error {
	if c == nil {
		c = Collection{}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	p := SnapshotPath(env)
	if err := fs.MkdirAll(filepath.Dir(p), 0o775); err != nil {
		return err
	}
	return afero.WriteFile(fs, p, data, 0o664)
}
