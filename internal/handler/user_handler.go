package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/PhotoShare/internal/usecase"
)

// UserHandler — профиль и администрирование ролей.
type UserHandler struct {
	userUseCase    usecase.UserUseCase
	uploadLimiter  chan struct{}
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewUserHandler создаёт UserHandler; лимитер загрузок общий с PhotoHandler.
func NewUserHandler(uc usecase.UserUseCase, limiter chan struct{}, maxUploadBytes int64, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase:    uc,
		uploadLimiter:  limiter,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Me — GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userUseCase.Me(r.Context(), mustPrincipal(r))
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, user, h.logger)
}

// ListUsers — GET /users, только для администратора
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userUseCase.ListUsers(r.Context(), mustPrincipal(r))
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, users, h.logger)
}

// UpdateAvatar — PATCH /users/avatar, multipart: file
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	release, ok := acquireUpload(r.Context(), h.uploadLimiter)
	if !ok {
		respondWithError(w, http.StatusServiceUnavailable, "upload queue is full, try again later", h.logger)
		return
	}
	defer release()

	data, filename, err := readUpload(w, r, "file", h.maxUploadBytes)
	if err != nil {
		respondWithUploadError(w, r, err, h.logger)
		return
	}

	user, err := h.userUseCase.UpdateAvatar(r.Context(), mustPrincipal(r), data, filename)
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, user, h.logger)
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

// AssignRole — POST /users/{id}/role, только для администратора
func (h *UserHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	var req assignRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}

	user, err := h.userUseCase.AssignRole(r.Context(), mustPrincipal(r), userID, req.Role)
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, user, h.logger)
}

// Pinger — всё, что умеет проверить свою доступность.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health — GET /healthz, проверяет соединение с бд.
func Health(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Error("health check failed", "error", err)
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"}, logger)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"}, logger)
	}
}
