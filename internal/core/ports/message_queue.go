package ports

import (
	"context"

	"github.com/GoArmGo/PhotoShare/internal/messaging/payloads"
)

// TransformPublisher публикует задачи на применение эффекта к фото.
// Используется HTTP-обработчиком после предварительной проверки прав.
type TransformPublisher interface {
	PublishTransformRequest(ctx context.Context, payload payloads.TransformPayload) error
}

// TransformConsumer потребляет задачи из очереди на стороне воркера
type TransformConsumer interface {
	// StartConsumingTransformRequests начинает прослушивание очереди и вызывает
	// handler для каждого сообщения. Возвращается сразу после регистрации потребителя.
	StartConsumingTransformRequests(ctx context.Context, handler func(context.Context, payloads.TransformPayload) error) error
}
