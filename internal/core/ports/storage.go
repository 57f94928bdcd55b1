package ports

import (
	"context"

	"github.com/GoArmGo/PhotoShare/internal/authz"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
)

// PhotoStore определяет методы хранилища фотографий и их тегов
type PhotoStore interface {
	Create(ctx context.Context, owner domain.Principal, description, rawTagCSV, imagePath string) (*domain.PhotoWithTags, error)
	Get(ctx context.Context, photoID uuid.UUID, p domain.Principal) (*domain.PhotoWithTags, error)
	UpdateDescription(ctx context.Context, photoID uuid.UUID, description string, p domain.Principal) (*domain.PhotoWithTags, error)
	SetImagePath(ctx context.Context, photoID uuid.UUID, newPath string, p domain.Principal) (*domain.Photo, error)
	Delete(ctx context.Context, photoID uuid.UUID, p domain.Principal) (*domain.DeletedPhoto, error)
	Authorize(ctx context.Context, photoID uuid.UUID, action authz.Action, p domain.Principal) (*domain.Photo, error)
}

// CommentStore определяет методы хранилища комментариев
type CommentStore interface {
	Create(ctx context.Context, photoID uuid.UUID, text string, author domain.Principal) (*domain.Comment, error)
	List(ctx context.Context, photoID uuid.UUID, limit int, p domain.Principal) ([]domain.Comment, error)
	Update(ctx context.Context, commentID uuid.UUID, text string, p domain.Principal) (*domain.Comment, error)
	Delete(ctx context.Context, commentID uuid.UUID, p domain.Principal) (*domain.Comment, error)
}

// PhotoLister отвечает на постраничные запросы листинга
type PhotoLister interface {
	ListMine(ctx context.Context, owner domain.Principal, limit, offset int) ([]domain.PhotoInfo, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.PhotoInfo, error)
}

// UserDirectory — справочник пользователей (GORM для postgres, sqlx для sqlite)
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) (*domain.User, error)
	// UpdateAvatar возвращает пользователя и адрес предыдущего аватара
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*domain.User, string, error)
}

// MediaStore — внешнее хранилище изображений. Возвращаемый URL
// сохраняется в image_path как есть.
type MediaStore interface {
	// Upload загружает байты и возвращает публичный URL объекта.
	// hint — подсказка для имени объекта, например имя исходного файла.
	Upload(ctx context.Context, data []byte, hint string) (string, error)
	// Download читает объект по URL, ранее выданному Upload.
	Download(ctx context.Context, url string) ([]byte, error)
	// Delete удаляет объект по URL, ранее выданному Upload.
	Delete(ctx context.Context, url string) error
}
