package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	chainDI "github.com/fd1az/bridge-status/business/chain/di"
	"github.com/fd1az/bridge-status/business/status/app"
	statusDI "github.com/fd1az/bridge-status/business/status/di"
	"github.com/fd1az/bridge-status/internal/config"
	"github.com/fd1az/bridge-status/internal/logger"
)

func runIndicators(ctx context.Context, out io.Writer, opts *rootOptions) error {
	rt, err := bootstrap(ctx, opts, func(cfg *config.Config) *logger.Logger {
		cfg.Health.Enabled = false
		return consoleLogger(cfg)
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	layer, err := initialLayer(opts, rt.cfg)
	if err != nil {
		return err
	}

	if err := rt.Start(ctx); err != nil {
		return err
	}

	sr := rt.mono.Services()
	chainCfg, err := chainDI.GetResolver(sr).Resolve(ctx, layer)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", layer, err)
	}

	reg := app.BuildIndicators(chainCfg, app.Accessors{
		Chain:   statusDI.GetChainReader(sr),
		Indexer: statusDI.GetIndexerReader(sr),
	}, app.WithRegistryLogger(rt.log))

	fmt.Fprintf(out, "Layer %s (%s -> %s)\n\n", layer, chainCfg.Base.Network.Name, chainCfg.Rollup.Network.Name)

	fmt.Fprintln(out, renderIndicators(lipgloss.NewRenderer(out), reg))

	if len(reg.Errors) > 0 {
		fmt.Fprintln(out, "\nUnavailable:")
		for _, e := range reg.Errors {
			fmt.Fprintf(out, "  - %v\n", e)
		}
	}
	return nil
}

// renderIndicators lays the registry out as a borderless table. Styling is
// dropped when r writes to something that is not a terminal.
func renderIndicators(r *lipgloss.Renderer, reg app.Registry) string {
	header := r.NewStyle().Bold(true).PaddingRight(2)
	cell := r.NewStyle().PaddingRight(2)

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Headers("ID", "HEADER", "SIDE", "STRATEGY", "INTERVAL", "LINK").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	for _, d := range reg.Descriptors {
		interval := "-"
		if d.Interval() > 0 {
			interval = d.Interval().String()
		}
		link := string(d.Link)
		if link == "" {
			link = "-"
		}
		t.Row(d.ID, d.Header, string(d.Side), d.StrategyName(), interval, link)
	}
	return t.String()
}
