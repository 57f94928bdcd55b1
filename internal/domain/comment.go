package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxCommentLength — максимальная длина текста комментария в символах.
const MaxCommentLength = 255

// Comment представляет комментарий к фотографии,
// соответствует таблице comments в бд
type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PhotoID   uuid.UUID `json:"photo_id" db:"photo_id"`
	AuthorID  uuid.UUID `json:"author_id" db:"author_id"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (Comment) TableName() string {
	return "comments"
}
