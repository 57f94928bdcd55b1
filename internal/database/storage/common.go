package storage

import (
	"errors"
	"log/slog"
	"time"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
)

// postgres хранит микросекунды, поэтому время округляется заранее,
// чтобы возвращаемая сущность совпадала с записанной строкой.
func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// touch возвращает новое значение updated_at, которое не бывает раньше предыдущего.
func touch(now func() time.Time, prev time.Time) time.Time {
	ts := now().UTC().Truncate(time.Microsecond)
	if ts.Before(prev) {
		return prev
	}
	return ts
}

// logFailure пишет ожидаемые отказы (валидация, права, отсутствие) на Warn,
// всё остальное на Error.
func logFailure(logger *slog.Logger, msg string, err error, args ...any) {
	args = append(args, "error", err)
	switch {
	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrNotFound),
		errors.Is(err, apperror.ErrPermission):
		logger.Warn(msg, args...)
	default:
		logger.Error(msg, args...)
	}
}
