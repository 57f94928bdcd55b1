package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/core/ports"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
)

// RoleInvalidator сбрасывает закэшированную роль пользователя после её смены
type RoleInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type userUseCase struct {
	users   ports.UserDirectory
	media   ports.MediaStore
	avatars AvatarProcessor
	cache   RoleInvalidator
	logger  *slog.Logger
}

// NewUserUseCase создает UserUseCase. cache может быть nil, если кэш ролей не используется.
func NewUserUseCase(
	users ports.UserDirectory,
	media ports.MediaStore,
	avatars AvatarProcessor,
	cache RoleInvalidator,
	logger *slog.Logger,
) UserUseCase {
	return &userUseCase{users: users, media: media, avatars: avatars, cache: cache, logger: logger}
}

func (uc *userUseCase) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	return uc.users.GetUser(ctx, p.UserID)
}

func (uc *userUseCase) ListUsers(ctx context.Context, p domain.Principal) ([]domain.User, error) {
	if !p.IsAdmin() {
		return nil, apperror.Permission("list", "user", "")
	}
	return uc.users.ListUsers(ctx)
}

func (uc *userUseCase) AssignRole(ctx context.Context, p domain.Principal, userID uuid.UUID, role string) (*domain.User, error) {
	if !p.IsAdmin() {
		return nil, apperror.Permission("assign role to", "user", userID.String())
	}
	r, ok := domain.ParseRole(role)
	if !ok {
		return nil, apperror.Validation("role", fmt.Sprintf("unknown role %q", role))
	}

	user, err := uc.users.UpdateRole(ctx, userID, r)
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, userID)

	uc.logger.Info("role assigned", "user_id", userID, "role", r, "admin_id", p.UserID)
	return user, nil
}

func (uc *userUseCase) UpdateAvatar(ctx context.Context, p domain.Principal, data []byte, filename string) (*domain.User, error) {
	if len(data) == 0 {
		return nil, apperror.Validation("file", "image file is required")
	}
	avatar, err := uc.avatars.Avatar(data)
	if err != nil {
		return nil, err
	}

	url, err := uc.media.Upload(ctx, avatar, "avatars/"+p.UserID.String()+"/"+path.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка загрузки аватара в медиахранилище: %w", err)
	}

	user, previous, err := uc.users.UpdateAvatar(ctx, p.UserID, url)
	if err != nil {
		removeMediaObject(ctx, uc.media, uc.logger, url, "avatar update failed")
		return nil, err
	}
	if previous != "" {
		removeMediaObject(ctx, uc.media, uc.logger, previous, "avatar replaced")
	}
	uc.invalidate(ctx, p.UserID)

	uc.logger.Info("avatar updated", "user_id", p.UserID, "avatar_url", url)
	return user, nil
}

// invalidate сбрасывает закэшированного субъекта; ошибка кэша не ломает операцию.
func (uc *userUseCase) invalidate(ctx context.Context, userID uuid.UUID) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, userID); err != nil {
		uc.logger.Warn("failed to invalidate cached principal", "user_id", userID, "error", err)
	}
}
