package sitegen

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Builder serialises regeneration of the whole site. The watcher and the
// admin server both go through it.
type Builder struct {
	gen    *Generator
	logger *slog.Logger

	runMu sync.Mutex

	mu       sync.Mutex
	running  bool
	pending  bool
	last     []EnvironmentResult
	lastTime time.Time

	wg sync.WaitGroup
}

func NewBuilder(gen *Generator) *Builder {
	return &Builder{gen: gen, logger: gen.logger}
}

// Run generates every environment and waits for the result. Concurrent
// calls run one after the other.
func (b *Builder) Run(ctx context.Context) []EnvironmentResult {
	b.runMu.Lock()
	defer b.runMu.Unlock()

	results := b.gen.GenerateAll(ctx)

	b.mu.Lock()
	b.last = results
	b.lastTime = time.Now()
	b.mu.Unlock()

	for _, r := range results {
		if r.Err != nil {
			b.logger.Error("Generation failed", "env", r.Environment, "error", r.Err)
		}
	}
	return results
}

// Trigger starts a run in the background and reports whether it did. While
// a run is in progress, triggers are coalesced into a single rerun after it.
func (b *Builder) Trigger(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		b.pending = true
		return false
	}
	b.running = true
	b.wg.Add(1)
	go b.loop(ctx)
	return true
}

func (b *Builder) loop(ctx context.Context) {
	defer b.wg.Done()
	for {
		b.Run(ctx)

		b.mu.Lock()
		if !b.pending || ctx.Err() != nil {
			b.running = false
			b.pending = false
			b.mu.Unlock()
			return
		}
		b.pending = false
		b.mu.Unlock()
		b.logger.Debug("Rerunning for changes made during the last run")
	}
}

// Wait blocks until no triggered run is in progress.
func (b *Builder) Wait() { b.wg.Wait() }

// Running reports whether a triggered run is in progress.
func (b *Builder) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Last returns the results of the most recent run and when it finished.
// Both are zero before the first run.
func (b *Builder) Last() ([]EnvironmentResult, time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.lastTime
}
