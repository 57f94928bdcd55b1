package usecase

import (
	"context"

	"github.com/GoArmGo/PhotoShare/internal/adapter/imagefx"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/GoArmGo/PhotoShare/internal/messaging/payloads"
	"github.com/google/uuid"
)

// ImageTransformer применяет эффект к закодированному изображению
type ImageTransformer interface {
	Apply(data []byte, effect imagefx.Effect) ([]byte, error)
}

// AvatarProcessor приводит загруженную картинку к формату аватара
type AvatarProcessor interface {
	Avatar(data []byte) ([]byte, error)
}

// UserLookup отдаёт актуальные данные пользователя, в том числе роль
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// UploadPhotoInput — данные загрузки фото от транспортного слоя
type UploadPhotoInput struct {
	Data        []byte
	Filename    string
	Description string
	Tags        string // теги через запятую
}

// PhotoUseCase определяет бизнес-логику работы с фотографиями
type PhotoUseCase interface {
	// UploadPhoto загружает изображение в медиахранилище и сохраняет фото.
	// Если сохранить не удалось, загруженный объект удаляется.
	UploadPhoto(ctx context.Context, owner domain.Principal, in UploadPhotoInput) (*domain.PhotoWithTags, error)

	GetPhoto(ctx context.Context, photoID uuid.UUID, p domain.Principal) (*domain.PhotoWithTags, error)

	UpdateDescription(ctx context.Context, photoID uuid.UUID, description string, p domain.Principal) (*domain.PhotoWithTags, error)

	// DeletePhoto удаляет фото вместе с комментариями и затем объект в медиахранилище
	DeletePhoto(ctx context.Context, photoID uuid.UUID, p domain.Principal) (*domain.DeletedPhoto, error)

	ListMine(ctx context.Context, owner domain.Principal, limit, offset int) (domain.PhotoPage, error)

	ListAll(ctx context.Context, limit, offset int) (domain.PhotoPage, error)

	// RequestTransform проверяет права и ставит задачу на эффект в очередь
	RequestTransform(ctx context.Context, photoID uuid.UUID, effect string, p domain.Principal) error

	// ApplyTransform выполняет задачу из очереди на стороне воркера
	ApplyTransform(ctx context.Context, payload payloads.TransformPayload) (*domain.TransformResult, error)
}

// CommentUseCase определяет бизнес-логику работы с комментариями
type CommentUseCase interface {
	AddComment(ctx context.Context, photoID uuid.UUID, text string, author domain.Principal) (*domain.Comment, error)
	ListComments(ctx context.Context, photoID uuid.UUID, limit int, p domain.Principal) ([]domain.Comment, error)
	EditComment(ctx context.Context, commentID uuid.UUID, text string, p domain.Principal) (*domain.Comment, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID, p domain.Principal) (*domain.Comment, error)
}

// UserUseCase определяет операции со справочником пользователей
type UserUseCase interface {
	Me(ctx context.Context, p domain.Principal) (*domain.User, error)
	// ListUsers доступен только администратору
	ListUsers(ctx context.Context, p domain.Principal) ([]domain.User, error)
	// AssignRole доступен только администратору
	AssignRole(ctx context.Context, p domain.Principal, userID uuid.UUID, role string) (*domain.User, error)
	// UpdateAvatar загружает новый аватар субъекта и удаляет предыдущий
	UpdateAvatar(ctx context.Context, p domain.Principal, data []byte, filename string) (*domain.User, error)
}
