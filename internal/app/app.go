package app

import (
	"context"
	"fmt"

	"signalrelay/internal/config"
	"signalrelay/internal/logger"
	livehttp "signalrelay/internal/transport/http/live"

	"golang.org/x/sync/errgroup"
)

// App orchestrates startup: config in, live poll loop plus status HTTP out.
type App struct {
	cfg      *config.Config
	live     *LiveService
	liveHTTP *livehttp.Server
}

// NewApp builds the application object without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run starts the poll loop and the status server, blocking until ctx ends or
// either fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.live == nil {
		return fmt.Errorf("live service not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)

	if a.liveHTTP != nil {
		group.Go(func() error {
			logger.Infof("status server listening on %s", a.liveHTTP.Addr())
			if err := a.liveHTTP.Start(ctx); err != nil {
				return fmt.Errorf("live http server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		defer a.live.Close()
		return a.live.Run(ctx)
	})

	return group.Wait()
}

// LiveService exposes the underlying service instance for replay harnesses.
func (a *App) LiveService() *LiveService {
	if a == nil {
		return nil
	}
	return a.live
}
