package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/PhotoShare/internal/core/ports"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/GoArmGo/PhotoShare/internal/messaging/payloads"
)

// TransformApplier — часть PhotoUseCase, нужная воркеру
type TransformApplier interface {
	ApplyTransform(ctx context.Context, payload payloads.TransformPayload) (*domain.TransformResult, error)
}

// runWorker запускает потребителя RabbitMQ и блокируется до отмены ctx
func runWorker(
	ctx context.Context,
	applier TransformApplier,
	consumer ports.TransformConsumer,
	logger *slog.Logger,
) error {
	logger.Info("worker started, waiting for transform requests")

	if err := consumer.StartConsumingTransformRequests(ctx, transformHandler(applier, logger)); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received, worker stopped")
	return nil
}

// transformHandler применяет эффект из сообщения; решение ack/nack
// по возвращённой ошибке принимает потребитель.
func transformHandler(applier TransformApplier, logger *slog.Logger) func(context.Context, payloads.TransformPayload) error {
	return func(ctx context.Context, payload payloads.TransformPayload) error {
		log := logger.With("photo_id", payload.PhotoID, "effect", payload.Effect, "user_id", payload.UserID)

		if payload.RequestedAt > 0 {
			log = log.With("queued_ms", time.Since(time.Unix(payload.RequestedAt, 0)).Milliseconds())
		}
		log.Info("processing transform request")

		result, err := applier.ApplyTransform(ctx, payload)
		if err != nil {
			log.Error("transform request failed", "error", err)
			return err
		}

		log.Info("transform request done", "image_path", result.NewImagePath)
		return nil
	}
}
