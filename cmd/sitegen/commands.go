package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/thomas11/sitegen"
	"github.com/thomas11/sitegen/internal/metrics"
)

func newGenerator(g *Global, cli *CLI, recorder metrics.Recorder) (*sitegen.SiteConf, *sitegen.Generator, error) {
	conf, err := sitegen.LoadConfig(cli.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	gen, err := sitegen.NewGenerator(conf,
		sitegen.WithLogger(g.Logger),
		sitegen.WithRecorder(recorder),
	)
	if err != nil {
		return nil, nil, err
	}
	return conf, gen, nil
}

func countFailed(results []sitegen.EnvironmentResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d environments failed", failed, len(results))
	}
	return nil
}

type GenerateCmd struct {
	Env string `short:"e" help:"Generate only the environment with this name"`
}

func (c *GenerateCmd) Run(g *Global, cli *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conf, gen, err := newGenerator(g, cli, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	if c.Env == "" {
		return countFailed(gen.GenerateAll(ctx))
	}
	env, ok := conf.Environment(c.Env)
	if !ok {
		return fmt.Errorf("no environment named %q", c.Env)
	}
	_, err = gen.Generate(ctx, env)
	return err
}

type WatchCmd struct{}

func (c *WatchCmd) Run(g *Global, cli *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conf, gen, err := newGenerator(g, cli, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	b := sitegen.NewBuilder(gen)
	b.Run(ctx)

	err = sitegen.Watch(ctx, b, conf.WatchDirs())
	b.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

type ServeCmd struct {
	Addr string `help:"Admin server address, overrides admin.addr"`
}

func (c *ServeCmd) Run(g *Global, cli *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	conf, gen, err := newGenerator(g, cli, recorder)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		conf.Admin.Addr = c.Addr
	}

	b := sitegen.NewBuilder(gen)
	b.Run(ctx)

	admin := sitegen.NewAdminServer(b, metrics.HTTPHandler(reg))
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return sitegen.Watch(ctx, b, conf.WatchDirs()) })
	eg.Go(func() error { return admin.ListenAndServe(ctx) })

	err = eg.Wait()
	b.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
