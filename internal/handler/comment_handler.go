package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/usecase"
)

// CommentHandler — обработчик HTTP-запросов для комментариев.
type CommentHandler struct {
	commentUseCase usecase.CommentUseCase
	logger         *slog.Logger
}

func NewCommentHandler(uc usecase.CommentUseCase, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{commentUseCase: uc, logger: logger}
}

type commentRequest struct {
	Text string `json:"text"`
}

// AddComment — POST /photos/{id}/comments
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	photoID, err := pathUUID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}

	comment, err := h.commentUseCase.AddComment(r.Context(), photoID, req.Text, mustPrincipal(r))
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusCreated, comment, h.logger)
}

// ListComments — GET /photos/{id}/comments?limit=N
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	photoID, err := pathUUID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}

	limit := defaultCommentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageLimit {
			respondWithAppError(w, r, apperror.Validation("limit", "limit must be between 1 and 500"), h.logger)
			return
		}
	}

	comments, err := h.commentUseCase.ListComments(r.Context(), photoID, limit, mustPrincipal(r))
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, comments, h.logger)
}

// EditComment — PATCH /comments/{id}
func (h *CommentHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := pathUUID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}

	comment, err := h.commentUseCase.EditComment(r.Context(), commentID, req.Text, mustPrincipal(r))
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, comment, h.logger)
}

// DeleteComment — DELETE /comments/{id}, в ответе удалённый комментарий
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := pathUUID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}

	comment, err := h.commentUseCase.DeleteComment(r.Context(), commentID, mustPrincipal(r))
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, comment, h.logger)
}
