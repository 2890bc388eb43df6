package daemon

import (
	"context"

	"github.com/matheus3301/flasher/internal/app"
	"github.com/matheus3301/flasher/internal/bus"
	"github.com/matheus3301/flasher/internal/config"
	"github.com/matheus3301/flasher/internal/flasher"
	"github.com/matheus3301/flasher/internal/lock"
	"github.com/matheus3301/flasher/internal/logging"
	"github.com/matheus3301/flasher/internal/reaper"
	"github.com/matheus3301/flasher/internal/session"
	"github.com/matheus3301/flasher/internal/status"
	"github.com/matheus3301/flasher/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved configuration passed to the fx module.
type Params struct {
	Config     *config.Config
	SocketPath string // optional override for testing; empty = use default
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideFlasher,
			provideApp,
			provideReaper,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) *config.Config {
	if p.Config == nil {
		return config.Defaults()
	}
	return p.Config
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(cfg *config.Config, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(cfg.DataDir); err != nil {
		return nil, err
	}
	logger.Info("acquiring data dir lock", zap.String("data_dir", cfg.DataDir))
	l, err := lock.Acquire(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	logger.Info("data dir lock acquired")
	return l, nil
}

// provideStore takes the lock so the store is never opened without it.
func provideStore(cfg *config.Config, _ *lock.Lock, logger *zap.Logger) (store.Store, error) {
	return store.FromConfig(context.Background(), cfg.Store, cfg.DataDir, logger)
}

func provideFlasher(st store.Store, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *flasher.Flasher {
	return flasher.New(st, flasher.OptionsFromConfig(cfg), b, logger.Named("flasher"))
}

func provideApp(logger *zap.Logger) *app.App {
	return app.New(logger.Named("app"))
}

func provideReaper(st store.Store, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *reaper.Reaper {
	return reaper.New(st, cfg.ReapInterval, b, logger.Named("reaper"))
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, st store.Store, rp *reaper.Reaper, machine *status.Machine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			srv.Start()
			rp.Start(context.Background())
			return machine.Transition(status.Serving)
		},
		OnStop: func(ctx context.Context) error {
			if machine.Current() == status.Serving {
				_ = machine.Transition(status.Draining)
			}
			srv.Stop(ctx)
			rp.Stop()
			if err := st.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			_ = machine.Transition(status.Stopped)
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
