// Package apperror описывает типизированные ошибки ядра.
// Каждая ошибка несёт вид (sentinel), сущность, идентификатор и действие,
// чтобы транспортный слой мог выбрать код ответа, не разбирая текст.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrPermission         = errors.New("permission denied")
	ErrConflict           = errors.New("conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

type AppError struct {
	Err     error  // вид ошибки, один из sentinel выше
	Message string // человекочитаемое сообщение, безопасно отдавать клиенту
	Entity  string // photo, comment, tag, user
	ID      string
	Action  string
	Field   string
	Cause   error // исходная ошибка, только для логов
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func Validation(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func NotFound(entity, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s with id %s not found", entity, id),
		Entity:  entity,
		ID:      id,
	}
}

// Permission — субъект аутентифицирован, но действие ему запрещено.
func Permission(action, entity, id string) *AppError {
	return &AppError{
		Err:     ErrPermission,
		Message: fmt.Sprintf("you don't have permission to %s this %s", action, entity),
		Entity:  entity,
		ID:      id,
		Action:  action,
	}
}

func Conflict(entity, key string, cause error) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %q conflicts with a concurrent write", entity, key),
		Entity:  entity,
		ID:      key,
		Cause:   cause,
	}
}

// StorageUnavailable — хранилище недоступно. Внутри не повторяем,
// чтобы не маскировать аварию; повтор с backoff решает вызывающий.
func StorageUnavailable(action string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorageUnavailable,
		Message: "storage is temporarily unavailable",
		Action:  action,
		Cause:   cause,
	}
}

// As извлекает *AppError из цепочки. Возвращает nil, если его нет.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HTTPStatus сопоставляет ошибку коду HTTP-ответа.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
