package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/auth"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultPageLimit    = 10
	minPageLimit        = 10
	maxPageLimit        = 500
	defaultCommentLimit = 50
)

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload any, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError — отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"error": message}, logger)
}

// respondWithAppError выбирает код ответа по виду ошибки. Текст внутренних
// ошибок наружу не отдаётся, только в лог.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	if errors.Is(err, auth.ErrUnauthenticated) {
		respondWithError(w, http.StatusUnauthorized, "authentication required", logger)
		return
	}

	code := apperror.HTTPStatus(err)
	message := http.StatusText(code)
	if ae := apperror.As(err); ae != nil {
		message = ae.Message
	}

	if code >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	} else {
		logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	}
	respondWithError(w, code, message, logger)
}

// decodeJSON читает тело запроса в dst; лишние поля считаются ошибкой клиента.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.Validation("body", "request body must be valid JSON")
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperror.Validation(name, fmt.Sprintf("%s must be a UUID", name))
	}
	return id, nil
}

// pageParams разбирает limit (10..500, по умолчанию 10) и offset (>= 0).
func pageParams(r *http.Request) (limit, offset int, err error) {
	limit, offset = defaultPageLimit, 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < minPageLimit || limit > maxPageLimit {
			return 0, 0, apperror.Validation("limit",
				fmt.Sprintf("limit must be between %d and %d", minPageLimit, maxPageLimit))
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, apperror.Validation("offset", "offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

// mustPrincipal достаёт субъекта, положенного middleware Authenticate.
func mustPrincipal(r *http.Request) domain.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}
