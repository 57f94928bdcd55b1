package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ListingEngine отвечает на постраничные запросы листинга.
// Порядок: created_at, затем id. Пагинация по смещению, поэтому при
// параллельных вставках и удалениях страницы могут сдвигаться.
type ListingEngine struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewListingEngine(db *sqlx.DB, logger *slog.Logger) *ListingEngine {
	return &ListingEngine{db: db, logger: logger}
}

// ListMine возвращает фотографии владельца. Пустой результат это
// непустой срез нулевой длины, а не ошибка.
func (l *ListingEngine) ListMine(ctx context.Context, owner domain.Principal, limit, offset int) ([]domain.PhotoInfo, error) {
	return l.list(ctx, "list my photos", &owner.UserID, limit, offset)
}

// ListAll возвращает фотографии всех пользователей вместе с именем владельца.
func (l *ListingEngine) ListAll(ctx context.Context, limit, offset int) ([]domain.PhotoInfo, error) {
	return l.list(ctx, "list all photos", nil, limit, offset)
}

type photoTagRow struct {
	PhotoID uuid.UUID `db:"photo_id"`
	Name    string    `db:"name"`
}

func (l *ListingEngine) list(ctx context.Context, action string, ownerID *uuid.UUID, limit, offset int) ([]domain.PhotoInfo, error) {
	start := time.Now()

	if limit <= 0 {
		return nil, apperror.Validation("limit", "limit must be positive")
	}
	if offset < 0 {
		return nil, apperror.Validation("offset", "offset must not be negative")
	}

	query := `
	SELECT p.id, p.owner_id, u.username, p.description, p.image_path, p.created_at, p.updated_at
	FROM photos p
	JOIN users u ON u.id = p.owner_id
	`
	args := make([]any, 0, 3)
	if ownerID != nil {
		query += `WHERE p.owner_id = ?
	`
		args = append(args, *ownerID)
	}
	query += `ORDER BY p.created_at, p.id
	LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	items := make([]domain.PhotoInfo, 0)
	err := withTx(ctx, l.db, action, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &items, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("select photo page: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		return attachTags(ctx, tx, items)
	})
	if err != nil {
		logFailure(l.logger, "failed to list photos", err, "action", action, "limit", limit, "offset", offset)
		return nil, err
	}

	l.logger.Info("photos listed",
		"action", action,
		"limit", limit,
		"offset", offset,
		"count", len(items),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return items, nil
}

// attachTags подгружает теги для всей страницы одним запросом и раскладывает их по фото.
func attachTags(ctx context.Context, tx *sqlx.Tx, items []domain.PhotoInfo) error {
	ids := make([]uuid.UUID, 0, len(items))
	byID := make(map[uuid.UUID]*domain.PhotoInfo, len(items))
	for i := range items {
		items[i].Tags = make([]string, 0)
		items[i].CreatedAt = items[i].CreatedAt.UTC()
		items[i].UpdatedAt = items[i].UpdatedAt.UTC()
		ids = append(ids, items[i].PhotoID)
		byID[items[i].PhotoID] = &items[i]
	}

	query, args, err := sqlx.In(`
	SELECT pt.photo_id, t.name
	FROM photo_tags pt
	JOIN tags t ON t.id = pt.tag_id
	WHERE pt.photo_id IN (?)
	ORDER BY t.name
	`, ids)
	if err != nil {
		return fmt.Errorf("build tag query: %w", err)
	}

	var rows []photoTagRow
	if err := tx.SelectContext(ctx, &rows, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("select page tags: %w", err)
	}
	for _, r := range rows {
		if item, ok := byID[r.PhotoID]; ok {
			item.Tags = append(item.Tags, r.Name)
		}
	}
	return nil
}
