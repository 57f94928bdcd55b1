package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxTagsPerPhoto ограничивает число различных тегов у одной фотографии.
const MaxTagsPerPhoto = 5

// Photo представляет модель фотографии в системе,
// соответствует таблице photos в бд
type Photo struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	ImagePath   string    `json:"image_path" db:"image_path"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

func (Photo) TableName() string {
	return "photos"
}

// Tag представляет модель тега,
// соответствует таблице tags в бд
type Tag struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

func (Tag) TableName() string {
	return "tags"
}

// PhotoTag представляет связующую модель для отношения Many-to-Many между Photo и Tag,
// соответствует таблице photo_tags в бд
type PhotoTag struct {
	PhotoID uuid.UUID `json:"photo_id" db:"photo_id"`
	TagID   uuid.UUID `json:"tag_id" db:"tag_id"`
}

func (PhotoTag) TableName() string {
	return "photo_tags"
}

// PhotoWithTags — фото вместе с привязанными тегами.
type PhotoWithTags struct {
	Photo
	Tags []Tag `json:"tags" db:"-"`
}

// TagNames возвращает имена тегов в порядке списка Tags.
func (p PhotoWithTags) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// PhotoInfo — строка листинга: фото, имя владельца и имена тегов.
type PhotoInfo struct {
	PhotoID       uuid.UUID `json:"photo_id" db:"id"`
	OwnerID       uuid.UUID `json:"owner_id" db:"owner_id"`
	OwnerUsername string    `json:"username" db:"username"`
	Description   string    `json:"description" db:"description"`
	ImagePath     string    `json:"image_path" db:"image_path"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
	Tags          []string  `json:"tags" db:"-"`
}

// PhotoPage — страница листинга. Пустая страница это не ошибка,
// а отдельный результат "фотографий пока нет".
type PhotoPage struct {
	Items  []PhotoInfo `json:"items"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// Empty сообщает, что на странице нет ни одной фотографии.
func (p PhotoPage) Empty() bool {
	return len(p.Items) == 0
}

// DeletedPhoto — подтверждение удаления фото.
type DeletedPhoto struct {
	PhotoID         uuid.UUID `json:"photo_id"`
	ImagePath       string    `json:"image_path"`
	CommentsRemoved int64     `json:"comments_removed"`
}

// TransformResult — результат применения эффекта к фото.
type TransformResult struct {
	PhotoID      uuid.UUID `json:"photo_id"`
	NewImagePath string    `json:"new_image_path"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
