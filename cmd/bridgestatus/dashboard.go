package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	chainDomain "github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/business/status/app"
	statusDI "github.com/fd1az/bridge-status/business/status/di"
	statusInfra "github.com/fd1az/bridge-status/business/status/infra"
	"github.com/fd1az/bridge-status/internal/logger"
	"github.com/fd1az/bridge-status/pkg/ui"
)

const statsInterval = time.Second

func runDashboard(ctx context.Context, opts *rootOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Warnings and errors go to the TUI error panel instead of the terminal.
	forward := func(_ context.Context, r logger.Record) {
		level := "warn"
		if r.Level >= logger.LevelError {
			level = "error"
		}
		msg := r.Message
		if err, ok := r.Attributes["error"]; ok {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
		ui.Send(ui.LogMsg{Level: level, Message: msg})
	}

	rt, err := bootstrap(ctx, opts, eventLogger(forward))
	if err != nil {
		return err
	}
	defer rt.Close()

	layer, err := initialLayer(opts, rt.cfg)
	if err != nil {
		return err
	}

	// Channel to receive StartModulesMsg signal
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}
	ui.OnOpenLink = func(url string) {
		if err := openBrowser(url); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
		}
	}

	p := tea.NewProgram(ui.New(), tea.WithAltScreen(), tea.WithContext(ctx))
	ui.Program = p

	session := &tuiSession{rt: rt, layer: layer}
	ui.OnSwitchLayer = func() { session.switchLayer(ctx) }

	errCh := make(chan error, 1)
	go func() {
		// Wait for welcome screen to complete (StartModulesMsg signal)
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
		if err := rt.Start(ctx); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		dash := statusDI.GetDashboard(rt.mono.Services())
		go app.Forward(ctx, dash.Stream(), statusInfra.NewTUIReporter(p), rt.cfg.Dashboard.SubscriberBuffer)
		go session.reportStats(ctx, dash)

		if err := session.activate(ctx, layer); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
		}
		errCh <- nil
	}()

	// Run TUI (blocking) - shows immediately with welcome screen
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	cancel()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// tuiSession serialises layer activations requested from the TUI.
type tuiSession struct {
	rt *runtime

	mu    sync.Mutex
	layer chainDomain.Layer
}

func (s *tuiSession) activate(ctx context.Context, layer chainDomain.Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ui.Send(ui.StartupMsg{Step: "base", Status: "connecting"})
	ui.Send(ui.StartupMsg{Step: "rollup", Status: "connecting"})

	dash := statusDI.GetDashboard(s.rt.mono.Services())
	reg, err := dash.Activate(ctx, layer)
	if err != nil {
		return fmt.Errorf("activate %s: %w", layer, err)
	}
	s.layer = layer

	buildErrors := make([]string, 0, len(reg.Errors))
	for _, e := range reg.Errors {
		buildErrors = append(buildErrors, e.Error())
	}
	ui.Send(ui.LayerMsg{Layer: layer.String(), Indicators: len(reg.Descriptors), BuildErrors: buildErrors})
	return nil
}

func (s *tuiSession) switchLayer(ctx context.Context) {
	s.mu.Lock()
	next := s.layer.Next()
	s.mu.Unlock()

	if err := s.activate(ctx, next); err != nil {
		ui.Send(ui.ErrorMsg{Error: err})
	}
}

func (s *tuiSession) reportStats(ctx context.Context, dash *app.Dashboard) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ui.Send(ui.StatsMsg{Stats: dash.Stats(), Dropped: dash.Stream().Dropped()})
		}
	}
}

// describeLayer renders a layer and its indicator count for logs.
func describeLayer(layer chainDomain.Layer, reg app.Registry) string {
	parts := []string{fmt.Sprintf("%s: %d indicators", layer, len(reg.Descriptors))}
	if n := len(reg.Errors); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unavailable", n))
	}
	return strings.Join(parts, ", ")
}
