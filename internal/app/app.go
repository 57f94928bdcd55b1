package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/PhotoShare/internal/config"
	"github.com/GoArmGo/PhotoShare/internal/core/ports"
	"github.com/GoArmGo/PhotoShare/internal/handler"
	"github.com/GoArmGo/PhotoShare/internal/usecase"
)

type App struct {
	Config            *config.Config
	logger            *slog.Logger
	router            http.Handler
	rateLimiter       *handler.RateLimiter
	photoUseCase      usecase.PhotoUseCase
	transformConsumer ports.TransformConsumer
	// закрываются в обратном порядке
	closers []func() error
}

func NewApp(cfg *config.Config,
	logger *slog.Logger,
	router http.Handler,
	rateLimiter *handler.RateLimiter,
	photoUseCase usecase.PhotoUseCase,
	transformConsumer ports.TransformConsumer,
	closers ...func() error) *App {
	return &App{
		Config:            cfg,
		logger:            logger,
		router:            router,
		rateLimiter:       rateLimiter,
		photoUseCase:      photoUseCase,
		transformConsumer: transformConsumer,
		closers:           closers,
	}
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

func (a *App) Run(ctx context.Context, mode *string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("app starting", "mode", *mode)

	var err error

	switch *mode {
	case "server":
		err = runServer(ctx, a.Config, a.router, a.rateLimiter, a.logger)

	case "worker":
		err = runWorker(ctx, a.photoUseCase, a.transformConsumer, a.logger)

	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", *mode)
	}

	// аккуратно закрываем ресурсы
	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown finished with errors", "error", closeErr)
	}

	if err != nil {
		return err
	}
	a.logger.Info("app stopped")
	return nil
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
