package sitegen

import (
	"context"
	"strings"
	"time"

	"github.com/radovskyb/watcher"
)

// WatchDirs lists the content and template directories of every environment.
func (c *SiteConf) WatchDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, env := range c.Environments {
		for _, d := range []string{env.Src, env.Views} {
			if !seen[d] {
				seen[d] = true
				dirs = append(dirs, d)
			}
		}
	}
	return dirs
}

// hasWatchedExt reports whether a changed path can affect the output.
func hasWatchedExt(p string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// Watch triggers b whenever a content or template file below one of dirs
// changes. It blocks until ctx is done.
func Watch(ctx context.Context, b *Builder, dirs []string) error {
	conf := b.gen.conf
	exts := []string{conf.ContentFileExt, conf.TemplateFileExt}
	logger := b.logger

	w := watcher.New()
	w.SetMaxEvents(1)
	w.IgnoreHiddenFiles(true)
	w.FilterOps(watcher.Create, watcher.Write, watcher.Remove, watcher.Rename, watcher.Move)

	for _, d := range dirs {
		if err := w.AddRecursive(d); err != nil {
			return err
		}
		logger.Info("Watching for changes", "dir", d)
	}

	go func() {
		for {
			select {
			case ev := <-w.Event:
				if !hasWatchedExt(ev.Path, exts) && !hasWatchedExt(ev.OldPath, exts) {
					continue
				}
				logger.Info("Change detected, regenerating", "op", ev.Op.String(), "path", ev.Path)
				b.Trigger(ctx)
			case err := <-w.Error:
				logger.Warn("Watcher error", "error", err)
			case <-w.Closed:
				return
			}
		}
	}()

	go func() {
		w.Wait()
		<-ctx.Done()
		w.Close()
	}()

	if err := w.Start(200 * time.Millisecond); err != nil {
		return err
	}
	return ctx.Err()
}
