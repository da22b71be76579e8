package main

import (
	"context"
	"fmt"

	"github.com/fd1az/bridge-status/business/status/app"
	statusDI "github.com/fd1az/bridge-status/business/status/di"
	statusInfra "github.com/fd1az/bridge-status/business/status/infra"
)

func runWatch(ctx context.Context, opts *rootOptions) error {
	rt, err := bootstrap(ctx, opts, consoleLogger)
	if err != nil {
		return err
	}
	defer rt.Close()

	log := rt.log
	log.Info(ctx, "starting bridge status", "version", version, "environment", rt.cfg.App.Environment)

	layer, err := initialLayer(opts, rt.cfg)
	if err != nil {
		return err
	}

	if err := rt.Start(ctx); err != nil {
		return err
	}

	dash := statusDI.GetDashboard(rt.mono.Services())
	reg, err := dash.Activate(ctx, layer)
	if err != nil {
		return fmt.Errorf("activate %s: %w", layer, err)
	}
	for _, e := range reg.Errors {
		log.Warn(ctx, "indicator unavailable", "error", e)
	}
	chainCfg := dash.Config()
	log.Info(ctx, "layer active",
		"summary", describeLayer(layer, reg),
		"base", chainCfg.Base.Network.Name,
		"rollup", chainCfg.Rollup.Network.Name)

	app.Forward(ctx, dash.Stream(), statusInfra.NewConsoleReporter(), rt.cfg.Dashboard.SubscriberBuffer)

	log.Info(ctx, "shutting down")
	return nil
}
