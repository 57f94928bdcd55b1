package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ParseTagCSV разбивает строку тегов через запятую. Пустая строка даёт ноль имён.
func ParseTagCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// NormalizeTagNames обрезает пробелы, выбрасывает пустые имена и дубликаты
// с сохранением порядка первого вхождения. Больше MaxTagsPerPhoto различных имён
// это ошибка валидации.
func NormalizeTagNames(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}

	if len(out) > domain.MaxTagsPerPhoto {
		return nil, apperror.Validation("tags",
			fmt.Sprintf("a photo can have at most %d tags, got %d", domain.MaxTagsPerPhoto, len(out)))
	}
	return out, nil
}

type tagFinder func(ctx context.Context, tx *sqlx.Tx, name string) (*domain.Tag, error)

// TagRegistry находит или лениво создаёт теги по имени.
// Работает только внутри транзакции вызывающего и сам её не фиксирует.
type TagRegistry struct {
	logger *slog.Logger
	find   tagFinder
}

func NewTagRegistry(logger *slog.Logger) *TagRegistry {
	return &TagRegistry{logger: logger, find: findTagByName}
}

// EnsureTags возвращает по одному тегу на каждое различное имя, в порядке имён.
func (r *TagRegistry) EnsureTags(ctx context.Context, tx *sqlx.Tx, names []string) ([]domain.Tag, error) {
	normalized, err := NormalizeTagNames(names)
	if err != nil {
		return nil, err
	}

	tags := make([]domain.Tag, 0, len(normalized))
	for _, name := range normalized {
		tag, err := r.Ensure(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// Ensure находит тег по точному имени или создаёт его.
// Вставка идёт под savepoint: при гонке с параллельной транзакцией
// откатываемся к нему и перечитываем тег один раз.
func (r *TagRegistry) Ensure(ctx context.Context, tx *sqlx.Tx, name string) (*domain.Tag, error) {
	tag, err := r.find(ctx, tx, name)
	if err != nil {
		return nil, fmt.Errorf("find tag %q: %w", name, err)
	}
	if tag != nil {
		return tag, nil
	}

	if _, err := tx.ExecContext(ctx, `SAVEPOINT ensure_tag`); err != nil {
		return nil, fmt.Errorf("savepoint: %w", err)
	}

	created := domain.Tag{ID: uuid.New(), Name: name}
	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO tags (id, name) VALUES (?, ?)`), created.ID, created.Name)
	if err == nil {
		if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT ensure_tag`); err != nil {
			return nil, fmt.Errorf("release savepoint: %w", err)
		}
		r.logger.Debug("tag created", "tag_id", created.ID, "name", name)
		return &created, nil
	}

	if !isUniqueViolation(err) {
		return nil, fmt.Errorf("insert tag %q: %w", name, err)
	}

	r.logger.Warn("tag created concurrently, re-reading", "name", name)
	if _, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT ensure_tag`); rbErr != nil {
		return nil, fmt.Errorf("rollback to savepoint: %w", rbErr)
	}
	if _, relErr := tx.ExecContext(ctx, `RELEASE SAVEPOINT ensure_tag`); relErr != nil {
		return nil, fmt.Errorf("release savepoint: %w", relErr)
	}

	tag, findErr := r.find(ctx, tx, name)
	if findErr != nil {
		return nil, fmt.Errorf("re-read tag %q: %w", name, findErr)
	}
	if tag == nil {
		return nil, apperror.Conflict("tag", name, err)
	}
	return tag, nil
}

func findTagByName(ctx context.Context, tx *sqlx.Tx, name string) (*domain.Tag, error) {
	var tag domain.Tag
	err := tx.GetContext(ctx, &tag, tx.Rebind(`SELECT id, name FROM tags WHERE name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}
