package app

import (
	"context"
	"errors"
	"net/http"

	"gitlab.com/nevasik7/alerting/logger"
)

type HTTPServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

type EventConsumer interface {
	Start(ctx context.Context) error
	Stop() error
}

type App struct {
	log      logger.Logger
	httpSrv  HTTPServer
	consumer EventConsumer

	consumerCancel context.CancelFunc
}

func New(log logger.Logger, httpSrv HTTPServer, consumer EventConsumer) *App {
	return &App{log: log, httpSrv: httpSrv, consumer: consumer}
}

func (a *App) Start() error {
	a.log.Debug("App started begin...")

	if a.consumer != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.consumerCancel = cancel

		if err := a.consumer.Start(ctx); err != nil {
			cancel()
			return err
		}
	}

	go func() {
		if err := a.httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("Start HTTP server is error=%v", err)
		}
	}()

	a.log.Info("App started")
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.log.Debug("App stopped begin...")

	// stop taking new events first, then drain the API
	if a.consumer != nil {
		if err := a.consumer.Stop(); err != nil {
			a.log.Errorf("Failed to stop consumer: %v", err)
		}
		if a.consumerCancel != nil {
			a.consumerCancel()
		}
	}

	if err := a.httpSrv.Shutdown(ctx); err != nil {
		return err
	}

	a.log.Info("App stopped")
	return nil
}
