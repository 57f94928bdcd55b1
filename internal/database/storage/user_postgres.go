package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, email, role, confirmed, avatar_url, created_at, updated_at`

// UserStorage — справочник пользователей на sqlx. Пользователей заводит
// внешний сервис регистрации, ядро их только читает и меняет роль.
type UserStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewUserStorage(db *sqlx.DB, logger *slog.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger, now: systemClock}
}

// CreateUser сохраняет пользователя. Нужен локальному режиму и тестам.
func (s *UserStorage) CreateUser(ctx context.Context, user *domain.User) error {
	start := time.Now()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	if user.UpdatedAt.Before(user.CreatedAt) {
		user.UpdatedAt = user.CreatedAt
	}

	err := withTx(ctx, s.db, "create user", func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
		INSERT INTO users (id, username, email, role, confirmed, avatar_url, created_at, updated_at)
		VALUES (:id, :username, :email, :role, :confirmed, :avatar_url, :created_at, :updated_at)
		`, user)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user", user.Email, err)
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "failed to insert user", err, "email", user.Email)
		return err
	}

	s.logger.Info("user created successfully",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *UserStorage) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := withTx(ctx, s.db, "get user", func(tx *sqlx.Tx) error {
		return loadUser(ctx, tx, id, &user)
	})
	if err != nil {
		logFailure(s.logger, "failed to select user", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

// ListUsers возвращает всех пользователей в порядке регистрации.
func (s *UserStorage) ListUsers(ctx context.Context) ([]domain.User, error) {
	start := time.Now()

	users := make([]domain.User, 0)
	err := withTx(ctx, s.db, "list users", func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	})
	if err != nil {
		logFailure(s.logger, "failed to list users", err)
		return nil, err
	}

	s.logger.Info("users listed",
		"count", len(users),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return users, nil
}

// UpdateRole назначает пользователю роль.
func (s *UserStorage) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) (*domain.User, error) {
	start := time.Now()

	var user domain.User
	err := withTx(ctx, s.db, "update user role", func(tx *sqlx.Tx) error {
		if err := loadUser(ctx, tx, id, &user); err != nil {
			return err
		}

		user.Role = role
		user.UpdatedAt = touch(s.now, user.UpdatedAt)
		_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`),
			user.Role, user.UpdatedAt, user.ID)
		return err
	})
	if err != nil {
		logFailure(s.logger, "failed to update user role", err, "user_id", id, "role", role)
		return nil, err
	}

	s.logger.Info("user role updated",
		"user_id", id,
		"role", role,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &user, nil
}

// UpdateAvatar сохраняет адрес нового аватара и возвращает предыдущий.
func (s *UserStorage) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*domain.User, string, error) {
	start := time.Now()

	var (
		user     domain.User
		previous string
	)
	err := withTx(ctx, s.db, "update user avatar", func(tx *sqlx.Tx) error {
		if err := loadUser(ctx, tx, id, &user); err != nil {
			return err
		}

		previous = user.AvatarURL
		user.AvatarURL = avatarURL
		user.UpdatedAt = touch(s.now, user.UpdatedAt)
		_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE users SET avatar_url = ?, updated_at = ? WHERE id = ?`),
			user.AvatarURL, user.UpdatedAt, user.ID)
		return err
	})
	if err != nil {
		logFailure(s.logger, "failed to update user avatar", err, "user_id", id)
		return nil, "", err
	}

	s.logger.Info("user avatar updated",
		"user_id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &user, previous, nil
}

func loadUser(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, user *domain.User) error {
	err := tx.GetContext(ctx, user, tx.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("user", id.String())
	}
	if err != nil {
		return fmt.Errorf("select user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return nil
}
