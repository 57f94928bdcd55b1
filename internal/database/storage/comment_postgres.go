package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/authz"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const commentColumns = `id, photo_id, author_id, text, created_at, updated_at`

// имя ограничения comments.photo_id, которое postgres даёт по умолчанию
const commentsPhotoFK = "comments_photo_id_fkey"

// CommentStore хранит комментарии к фотографиям.
type CommentStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewCommentStore(db *sqlx.DB, logger *slog.Logger) *CommentStore {
	return &CommentStore{db: db, logger: logger, now: systemClock}
}

// Create добавляет комментарий к существующему фото.
// Комментировать может любой аутентифицированный пользователь.
func (s *CommentStore) Create(ctx context.Context, photoID uuid.UUID, text string, author domain.Principal) (*domain.Comment, error) {
	start := time.Now()

	text, err := cleanCommentText(text)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comment := &domain.Comment{
		ID:        uuid.New(),
		PhotoID:   photoID,
		AuthorID:  author.UserID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = withTx(ctx, s.db, "create comment", func(tx *sqlx.Tx) error {
		if err := photoExists(ctx, tx, photoID); err != nil {
			return err
		}

		_, err := tx.NamedExecContext(ctx, `
		INSERT INTO comments (id, photo_id, author_id, text, created_at, updated_at)
		VALUES (:id, :photo_id, :author_id, :text, :created_at, :updated_at)
		`, comment)
		if err != nil {
			if isForeignKeyViolation(err) {
				return missingCommentReference(err, photoID, author.UserID)
			}
			return fmt.Errorf("insert comment: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "failed to create comment", err, "photo_id", photoID, "author_id", author.UserID)
		return nil, err
	}

	s.logger.Info("comment created",
		"comment_id", comment.ID,
		"photo_id", photoID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return comment, nil
}

// missingCommentReference называет, на что не нашлась ссылка при вставке
// комментария. Postgres сообщает имя ограничения: фото могли удалить
// параллельно. В sqlite имени нет, но фото уже проверено в этой же
// транзакции, значит не нашёлся автор.
func missingCommentReference(err error, photoID, authorID uuid.UUID) error {
	if foreignKeyConstraint(err) == commentsPhotoFK {
		return apperror.NotFound("photo", photoID.String())
	}
	return apperror.NotFound("user", authorID.String())
}

// List возвращает до limit комментариев фото в порядке создания.
func (s *CommentStore) List(ctx context.Context, photoID uuid.UUID, limit int, p domain.Principal) ([]domain.Comment, error) {
	start := time.Now()

	if limit <= 0 {
		return nil, apperror.Validation("limit", "limit must be positive")
	}

	comments := make([]domain.Comment, 0)
	err := withTx(ctx, s.db, "list comments", func(tx *sqlx.Tx) error {
		if err := photoExists(ctx, tx, photoID); err != nil {
			return err
		}

		err := tx.SelectContext(ctx, &comments, tx.Rebind(`
		SELECT `+commentColumns+`
		FROM comments
		WHERE photo_id = ?
		ORDER BY created_at, id
		LIMIT ?
		`), photoID, limit)
		if err != nil {
			return fmt.Errorf("select comments: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "failed to list comments", err, "photo_id", photoID, "user_id", p.UserID)
		return nil, err
	}

	for i := range comments {
		comments[i].CreatedAt = comments[i].CreatedAt.UTC()
		comments[i].UpdatedAt = comments[i].UpdatedAt.UTC()
	}

	s.logger.Info("comments listed",
		"photo_id", photoID,
		"count", len(comments),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return comments, nil
}

// Update меняет текст комментария. Разрешено только автору.
func (s *CommentStore) Update(ctx context.Context, commentID uuid.UUID, text string, p domain.Principal) (*domain.Comment, error) {
	start := time.Now()

	text, err := cleanCommentText(text)
	if err != nil {
		return nil, err
	}

	var comment *domain.Comment
	err = withTx(ctx, s.db, "update comment", func(tx *sqlx.Tx) error {
		c, err := loadComment(ctx, tx, commentID)
		if err != nil {
			return err
		}
		if !authz.AllowComment(authz.ActionEdit, c.AuthorID, p) {
			return apperror.Permission(string(authz.ActionEdit), "comment", commentID.String())
		}

		c.Text = text
		c.UpdatedAt = touch(s.now, c.UpdatedAt)
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE comments SET text = ?, updated_at = ? WHERE id = ?`),
			c.Text, c.UpdatedAt, c.ID); err != nil {
			return fmt.Errorf("update comment: %w", err)
		}
		comment = c
		return nil
	})
	if err != nil {
		logFailure(s.logger, "failed to update comment", err, "comment_id", commentID, "user_id", p.UserID)
		return nil, err
	}

	s.logger.Info("comment updated",
		"comment_id", commentID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return comment, nil
}

// Delete удаляет комментарий и возвращает его последнее состояние.
// Разрешено автору, модератору и администратору.
func (s *CommentStore) Delete(ctx context.Context, commentID uuid.UUID, p domain.Principal) (*domain.Comment, error) {
	start := time.Now()

	var comment *domain.Comment
	err := withTx(ctx, s.db, "delete comment", func(tx *sqlx.Tx) error {
		c, err := loadComment(ctx, tx, commentID)
		if err != nil {
			return err
		}
		if !authz.AllowComment(authz.ActionDelete, c.AuthorID, p) {
			return apperror.Permission(string(authz.ActionDelete), "comment", commentID.String())
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM comments WHERE id = ?`), commentID); err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		comment = c
		return nil
	})
	if err != nil {
		logFailure(s.logger, "failed to delete comment", err, "comment_id", commentID, "user_id", p.UserID)
		return nil, err
	}

	s.logger.Info("comment deleted",
		"comment_id", commentID,
		"photo_id", comment.PhotoID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return comment, nil
}

func loadComment(ctx context.Context, tx *sqlx.Tx, commentID uuid.UUID) (*domain.Comment, error) {
	var c domain.Comment
	err := tx.GetContext(ctx, &c, tx.Rebind(`SELECT `+commentColumns+` FROM comments WHERE id = ?`), commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("comment", commentID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("select comment: %w", err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func photoExists(ctx context.Context, tx *sqlx.Tx, photoID uuid.UUID) error {
	var n int
	if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM photos WHERE id = ?`), photoID); err != nil {
		return fmt.Errorf("check photo: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("photo", photoID.String())
	}
	return nil
}

func cleanCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	if n == 0 || n > domain.MaxCommentLength {
		return "", apperror.Validation("text",
			fmt.Sprintf("comment must be between 1 and %d characters", domain.MaxCommentLength))
	}
	return text, nil
}
