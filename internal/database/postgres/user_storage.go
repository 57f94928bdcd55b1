package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserStorage — справочник пользователей на GORM для драйвера postgres.
type GormUserStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormUserStorage создает новый экземпляр GormUserStorage
func NewGormUserStorage(db *gorm.DB, logger *slog.Logger) *GormUserStorage {
	return &GormUserStorage{db: db, logger: logger}
}

// GetUser получает пользователя по id
func (s *GormUserStorage) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	result := s.db.WithContext(ctx).First(&user, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user", id.String())
	}
	if result.Error != nil {
		s.logger.Error("failed to get user", "user_id", id, "error", result.Error)
		return nil, fmt.Errorf("ошибка при получении пользователя с GORM: %w", result.Error)
	}
	return &user, nil
}

// ListUsers возвращает всех пользователей в порядке регистрации
func (s *GormUserStorage) ListUsers(ctx context.Context) ([]domain.User, error) {
	start := time.Now()

	users := make([]domain.User, 0)
	result := s.db.WithContext(ctx).Order("created_at, id").Find(&users)
	if result.Error != nil {
		s.logger.Error("failed to list users", "error", result.Error)
		return nil, fmt.Errorf("ошибка при получении списка пользователей с GORM: %w", result.Error)
	}

	s.logger.Info("users listed",
		"count", len(users),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return users, nil
}

// UpdateRole назначает роль пользователю в одной транзакции
func (s *GormUserStorage) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) (*domain.User, error) {
	start := time.Now()

	var user domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user", id.String())
			}
			return err
		}

		now := time.Now().UTC().Truncate(time.Microsecond)
		if now.Before(user.UpdatedAt) {
			now = user.UpdatedAt
		}
		user.Role = role
		user.UpdatedAt = now
		return tx.Model(&domain.User{}).
			Where("id = ?", id).
			Updates(map[string]any{"role": string(role), "updated_at": now}).Error
	})
	if err != nil {
		if apperror.As(err) != nil {
			return nil, err
		}
		s.logger.Error("failed to update user role", "user_id", id, "role", role, "error", err)
		return nil, fmt.Errorf("ошибка при смене роли с GORM: %w", err)
	}

	s.logger.Info("user role updated",
		"user_id", id,
		"role", role,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &user, nil
}

// UpdateAvatar сохраняет адрес аватара и возвращает предыдущий
func (s *GormUserStorage) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*domain.User, string, error) {
	start := time.Now()

	var (
		user     domain.User
		previous string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user", id.String())
			}
			return err
		}

		now := time.Now().UTC().Truncate(time.Microsecond)
		if now.Before(user.UpdatedAt) {
			now = user.UpdatedAt
		}
		previous = user.AvatarURL
		user.AvatarURL = avatarURL
		user.UpdatedAt = now
		return tx.Model(&domain.User{}).
			Where("id = ?", id).
			Updates(map[string]any{"avatar_url": avatarURL, "updated_at": now}).Error
	})
	if err != nil {
		if apperror.As(err) != nil {
			return nil, "", err
		}
		s.logger.Error("failed to update user avatar", "user_id", id, "error", err)
		return nil, "", fmt.Errorf("ошибка при обновлении аватара с GORM: %w", err)
	}

	s.logger.Info("user avatar updated",
		"user_id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &user, previous, nil
}
