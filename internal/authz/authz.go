// Package authz — единственная точка принятия решений о правах.
// Функции чистые: без побочных эффектов, их можно вызывать до любой записи.
package authz

import (
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
)

// Action — действие над ресурсом.
type Action string

const (
	ActionView      Action = "view"
	ActionEdit      Action = "edit"
	ActionDelete    Action = "delete"
	ActionTransform Action = "transform"
)

// Allow решает, может ли субъект выполнить действие над фото владельца ownerID.
// Разрешено владельцу или администратору. Модераторы модерируют
// комментарии, а не чужие фотографии, поэтому здесь они не выделены.
func Allow(action Action, ownerID uuid.UUID, p domain.Principal) bool {
	switch action {
	case ActionView, ActionEdit, ActionDelete, ActionTransform:
		return p.UserID == ownerID || p.IsAdmin()
	}
	return false
}

// AllowComment решает, может ли субъект изменить или удалить комментарий автора authorID.
// Редактирует только автор; удаляет автор, модератор или администратор.
func AllowComment(action Action, authorID uuid.UUID, p domain.Principal) bool {
	switch action {
	case ActionEdit:
		return p.UserID == authorID
	case ActionDelete:
		return p.UserID == authorID || p.IsModerator() || p.IsAdmin()
	}
	return false
}
