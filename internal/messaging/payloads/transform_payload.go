package payloads

import (
	"github.com/google/uuid"
)

// TransformPayload — задача на применение эффекта к фото, передаётся через RabbitMQ.
// Роль субъекта в сообщение не кладётся: воркер берёт её из справочника пользователей.
type TransformPayload struct {
	PhotoID     uuid.UUID `json:"photo_id"`
	Effect      string    `json:"effect"`
	UserID      uuid.UUID `json:"user_id"`
	RequestedAt int64     `json:"requested_at"`
}
