package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role — роль пользователя. Набор ролей закрыт: user, moderator, admin.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ParseRole разбирает роль из строки. Неизвестные значения не принимаются.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleModerator, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// User представляет модель пользователя в системе.
// Соответствует таблице 'users' в базе данных.
type User struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	Confirmed bool      `json:"confirmed" db:"confirmed"`
	AvatarURL string    `json:"avatar_url" db:"avatar_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Principal — аутентифицированный субъект запроса.
// Поставляется аутентификатором, ядро ему доверяет и сам не проверяет.
type Principal struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	Email  string    `json:"email"`
}

// IsAdmin сообщает, что субъект — администратор.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// IsModerator сообщает, что субъект — модератор.
func (p Principal) IsModerator() bool { return p.Role == RoleModerator }
