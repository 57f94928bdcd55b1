package usecase

import (
	"context"
	"log/slog"

	"github.com/GoArmGo/PhotoShare/internal/core/ports"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
)

type commentUseCase struct {
	comments ports.CommentStore
	logger   *slog.Logger
}

func NewCommentUseCase(comments ports.CommentStore, logger *slog.Logger) CommentUseCase {
	return &commentUseCase{comments: comments, logger: logger}
}

func (uc *commentUseCase) AddComment(ctx context.Context, photoID uuid.UUID, text string, author domain.Principal) (*domain.Comment, error) {
	return uc.comments.Create(ctx, photoID, text, author)
}

func (uc *commentUseCase) ListComments(ctx context.Context, photoID uuid.UUID, limit int, p domain.Principal) ([]domain.Comment, error) {
	return uc.comments.List(ctx, photoID, limit, p)
}

func (uc *commentUseCase) EditComment(ctx context.Context, commentID uuid.UUID, text string, p domain.Principal) (*domain.Comment, error) {
	return uc.comments.Update(ctx, commentID, text, p)
}

func (uc *commentUseCase) DeleteComment(ctx context.Context, commentID uuid.UUID, p domain.Principal) (*domain.Comment, error) {
	deleted, err := uc.comments.Delete(ctx, commentID, p)
	if err != nil {
		return nil, err
	}
	if deleted.AuthorID != p.UserID {
		uc.logger.Info("comment removed by moderation",
			"comment_id", commentID,
			"author_id", deleted.AuthorID,
			"moderator_id", p.UserID,
			"role", p.Role,
		)
	}
	return deleted, nil
}
