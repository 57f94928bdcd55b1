package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/authz"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// MaxDescriptionLength — максимальная длина описания фото в символах.
const MaxDescriptionLength = 255

const photoColumns = `id, owner_id, image_path, description, created_at, updated_at`

// PhotoStore хранит фотографии и их связи с тегами.
// Каждая публичная операция это одна транзакция.
type PhotoStore struct {
	db     *sqlx.DB
	tags   *TagRegistry
	logger *slog.Logger
	now    func() time.Time
}

func NewPhotoStore(db *sqlx.DB, tags *TagRegistry, logger *slog.Logger) *PhotoStore {
	return &PhotoStore{db: db, tags: tags, logger: logger, now: systemClock}
}

// Create сохраняет фото владельца вместе с тегами из строки через запятую.
// Лимит тегов проверяется до открытия транзакции.
func (s *PhotoStore) Create(ctx context.Context, owner domain.Principal, description, rawTagCSV, imagePath string) (*domain.PhotoWithTags, error) {
	start := time.Now()

	names, err := NormalizeTagNames(ParseTagCSV(rawTagCSV))
	if err != nil {
		logFailure(s.logger, "photo rejected", err, "owner_id", owner.UserID)
		return nil, err
	}
	description, err = cleanDescription(strings.TrimRightFunc(description, unicode.IsSpace))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(imagePath) == "" {
		return nil, apperror.Validation("image_path", "image path must not be empty")
	}

	now := s.now()
	result := &domain.PhotoWithTags{
		Photo: domain.Photo{
			ID:          uuid.New(),
			OwnerID:     owner.UserID,
			ImagePath:   imagePath,
			Description: description,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	err = withTx(ctx, s.db, "create photo", func(tx *sqlx.Tx) error {
		tags, err := s.tags.EnsureTags(ctx, tx, names)
		if err != nil {
			return err
		}

		_, err = tx.NamedExecContext(ctx, `
		INSERT INTO photos (id, owner_id, image_path, description, created_at, updated_at)
		VALUES (:id, :owner_id, :image_path, :description, :created_at, :updated_at)
		`, &result.Photo)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperror.NotFound("user", owner.UserID.String())
			}
			return fmt.Errorf("insert photo: %w", err)
		}

		for _, tag := range tags {
			link := domain.PhotoTag{PhotoID: result.ID, TagID: tag.ID}
			if _, err := tx.NamedExecContext(ctx,
				`INSERT INTO photo_tags (photo_id, tag_id) VALUES (:photo_id, :tag_id)`, &link); err != nil {
				return fmt.Errorf("link tag %q: %w", tag.Name, err)
			}
		}
		result.Tags = tags
		return nil
	})
	if err != nil {
		logFailure(s.logger, "failed to create photo", err, "owner_id", owner.UserID)
		return nil, err
	}

	s.logger.Info("photo created",
		"photo_id", result.ID,
		"owner_id", owner.UserID,
		"tags", len(result.Tags),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Get возвращает фото владельцу или администратору. Для остальных фото
// как будто не существует: ответ NotFound, а не Permission.
func (s *PhotoStore) Get(ctx context.Context, photoID uuid.UUID, p domain.Principal) (*domain.PhotoWithTags, error) {
	start := time.Now()

	var result *domain.PhotoWithTags
	err := withTx(ctx, s.db, "get photo", func(tx *sqlx.Tx) error {
		photo, err := loadPhoto(ctx, tx, photoID)
		if err != nil {
			return err
		}
		if !authz.Allow(authz.ActionView, photo.OwnerID, p) {
			return apperror.NotFound("photo", photoID.String())
		}

		tags, err := loadPhotoTags(ctx, tx, photoID)
		if err != nil {
			return err
		}
		result = &domain.PhotoWithTags{Photo: *photo, Tags: tags}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "failed to get photo", err, "photo_id", photoID, "user_id", p.UserID)
		return nil, err
	}

	s.logger.Info("photo retrieved by id",
		"photo_id", photoID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// UpdateDescription меняет описание фото. owner_id в UPDATE не участвует.
func (s *PhotoStore) UpdateDescription(ctx context.Context, photoID uuid.UUID, description string, p domain.Principal) (*domain.PhotoWithTags, error) {
	start := time.Now()

	description, err := cleanDescription(strings.TrimSpace(description))
	if err != nil {
		return nil, err
	}

	var result *domain.PhotoWithTags
	err = withTx(ctx, s.db, "update photo", func(tx *sqlx.Tx) error {
		photo, err := s.authorized(ctx, tx, photoID, authz.ActionEdit, p)
		if err != nil {
			return err
		}

		photo.Description = description
		photo.UpdatedAt = touch(s.now, photo.UpdatedAt)
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE photos SET description = ?, updated_at = ? WHERE id = ?`),
			photo.Description, photo.UpdatedAt, photo.ID); err != nil {
			return fmt.Errorf("update photo description: %w", err)
		}

		tags, err := loadPhotoTags(ctx, tx, photoID)
		if err != nil {
			return err
		}
		result = &domain.PhotoWithTags{Photo: *photo, Tags: tags}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "failed to update photo", err, "photo_id", photoID, "user_id", p.UserID)
		return nil, err
	}

	s.logger.Info("photo description updated",
		"photo_id", photoID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// SetImagePath подменяет изображение фото, например после применения эффекта.
func (s *PhotoStore) SetImagePath(ctx context.Context, photoID uuid.UUID, newPath string, p domain.Principal) (*domain.Photo, error) {
	start := time.Now()

	if strings.TrimSpace(newPath) == "" {
		return nil, apperror.Validation("image_path", "image path must not be empty")
	}

	var result *domain.Photo
	err := withTx(ctx, s.db, "set image path", func(tx *sqlx.Tx) error {
		photo, err := s.authorized(ctx, tx, photoID, authz.ActionTransform, p)
		if err != nil {
			return err
		}

		photo.ImagePath = newPath
		photo.UpdatedAt = touch(s.now, photo.UpdatedAt)
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE photos SET image_path = ?, updated_at = ? WHERE id = ?`),
			photo.ImagePath, photo.UpdatedAt, photo.ID); err != nil {
			return fmt.Errorf("update photo image path: %w", err)
		}
		result = photo
		return nil
	})
	if err != nil {
		logFailure(s.logger, "failed to set image path", err, "photo_id", photoID, "user_id", p.UserID)
		return nil, err
	}

	s.logger.Info("photo image path updated",
		"photo_id", photoID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Delete удаляет фото: сначала комментарии, затем связи с тегами, затем саму строку.
// Теги остаются, даже если на них больше никто не ссылается.
func (s *PhotoStore) Delete(ctx context.Context, photoID uuid.UUID, p domain.Principal) (*domain.DeletedPhoto, error) {
	start := time.Now()

	var result *domain.DeletedPhoto
	err := withTx(ctx, s.db, "delete photo", func(tx *sqlx.Tx) error {
		// блокировка строки не даёт параллельной вставке комментария проскочить
		// между удалением комментариев и удалением фото
		photo, err := lockPhoto(ctx, tx, photoID)
		if err != nil {
			return err
		}
		if err := checkPhotoAccess(photo, authz.ActionDelete, p); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM comments WHERE photo_id = ?`), photoID)
		if err != nil {
			return fmt.Errorf("delete photo comments: %w", err)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("count deleted comments: %w", err)
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM photo_tags WHERE photo_id = ?`), photoID); err != nil {
			return fmt.Errorf("delete photo tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM photos WHERE id = ?`), photoID); err != nil {
			if isForeignKeyViolation(err) {
				return apperror.Conflict("photo", photoID.String(), err)
			}
			return fmt.Errorf("delete photo: %w", err)
		}

		result = &domain.DeletedPhoto{
			PhotoID:         photoID,
			ImagePath:       photo.ImagePath,
			CommentsRemoved: removed,
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "failed to delete photo", err, "photo_id", photoID, "user_id", p.UserID)
		return nil, err
	}

	s.logger.Info("photo deleted",
		"photo_id", photoID,
		"comments_removed", result.CommentsRemoved,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// Authorize проверяет право на действие без записи. Нужен, чтобы отказать
// до постановки фоновой задачи в очередь.
func (s *PhotoStore) Authorize(ctx context.Context, photoID uuid.UUID, action authz.Action, p domain.Principal) (*domain.Photo, error) {
	var result *domain.Photo
	err := withTx(ctx, s.db, "authorize photo", func(tx *sqlx.Tx) error {
		photo, err := s.authorized(ctx, tx, photoID, action, p)
		result = photo
		return err
	})
	if err != nil {
		logFailure(s.logger, "photo action denied", err, "photo_id", photoID, "action", action, "user_id", p.UserID)
		return nil, err
	}
	return result, nil
}

// authorized загружает фото и спрашивает authz. Отказ на просмотр
// маскируется под NotFound, отказ на изменение это Permission.
func (s *PhotoStore) authorized(ctx context.Context, tx *sqlx.Tx, photoID uuid.UUID, action authz.Action, p domain.Principal) (*domain.Photo, error) {
	photo, err := loadPhoto(ctx, tx, photoID)
	if err != nil {
		return nil, err
	}
	if err := checkPhotoAccess(photo, action, p); err != nil {
		return nil, err
	}
	return photo, nil
}

func checkPhotoAccess(photo *domain.Photo, action authz.Action, p domain.Principal) error {
	if authz.Allow(action, photo.OwnerID, p) {
		return nil
	}
	if action == authz.ActionView {
		return apperror.NotFound("photo", photo.ID.String())
	}
	return apperror.Permission(string(action), "photo", photo.ID.String())
}

func loadPhoto(ctx context.Context, tx *sqlx.Tx, photoID uuid.UUID) (*domain.Photo, error) {
	return selectPhoto(ctx, tx, `SELECT `+photoColumns+` FROM photos WHERE id = ?`, photoID)
}

// lockPhoto читает фото с блокировкой строки до конца транзакции.
// В sqlite FOR UPDATE нет: запись и так идёт через единственное соединение.
func lockPhoto(ctx context.Context, tx *sqlx.Tx, photoID uuid.UUID) (*domain.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = ?`
	if tx.DriverName() != "sqlite" {
		query += ` FOR UPDATE`
	}
	return selectPhoto(ctx, tx, query, photoID)
}

func selectPhoto(ctx context.Context, tx *sqlx.Tx, query string, photoID uuid.UUID) (*domain.Photo, error) {
	var photo domain.Photo
	err := tx.GetContext(ctx, &photo, tx.Rebind(query), photoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("photo", photoID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("select photo: %w", err)
	}
	photo.CreatedAt = photo.CreatedAt.UTC()
	photo.UpdatedAt = photo.UpdatedAt.UTC()
	return &photo, nil
}

func loadPhotoTags(ctx context.Context, tx *sqlx.Tx, photoID uuid.UUID) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0)
	err := tx.SelectContext(ctx, &tags, tx.Rebind(`
	SELECT t.id, t.name
	FROM tags t
	JOIN photo_tags pt ON pt.tag_id = t.id
	WHERE pt.photo_id = ?
	ORDER BY t.name
	`), photoID)
	if err != nil {
		return nil, fmt.Errorf("select photo tags: %w", err)
	}
	return tags, nil
}

func cleanDescription(description string) (string, error) {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", apperror.Validation("description",
			fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
	}
	return description, nil
}
