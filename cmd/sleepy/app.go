package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kbukum/sleepy/component"
	"github.com/kbukum/sleepy/logger"
	"github.com/kbukum/sleepy/observability"
	"github.com/kbukum/sleepy/sleepy"
)

const shutdownTimeout = 10 * time.Second

// app holds the started infrastructure for one command invocation.
type app struct {
	cfg        *AppConfig
	log        *logger.Logger
	components *component.Registry
	gateway    *sleepy.Component
	shutdown   observability.ShutdownFunc
}

// startApp loads configuration, initializes logging and telemetry, and
// starts the gateway component.
func startApp(ctx context.Context, f *globalFlags, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, logOut)
	logger.SetGlobalLogger(log)

	shutdown, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		log:        log.WithComponent("cli"),
		components: component.NewRegistry(),
		gateway:    sleepy.NewComponent(cfg.Client, sleepy.WithLogger(log.WithComponent("sleepy"))),
		shutdown:   shutdown,
	}
	if err := a.components.Register(a.gateway); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	if err := a.components.StartAll(ctx); err != nil {
		_ = a.close()
		return nil, err
	}

	a.log.Debug("started", logger.Fields(
		"gateway", cfg.Client.Gateway.BaseURL,
		"server", cfg.Client.Server,
		"environment", cfg.Environment,
	))
	return a, nil
}

// client returns the started gateway client.
func (a *app) client() *sleepy.Client {
	return a.gateway.Client()
}

// close stops every component and flushes telemetry.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(a.components.StopAll(ctx), a.shutdown(ctx))
}
