package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/GoArmGo/PhotoShare/internal/usecase"
)

const emptyPageMessage = "no photos yet"

// PhotoHandler — обработчик HTTP-запросов для работы с фотографиями.
type PhotoHandler struct {
	photoUseCase   usecase.PhotoUseCase
	uploadLimiter  chan struct{}
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewPhotoHandler создаёт новый экземпляр PhotoHandler.
// uploadLimiter ограничивает число одновременных загрузок.
func NewPhotoHandler(uc usecase.PhotoUseCase, limiter chan struct{}, maxUploadBytes int64, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{
		photoUseCase:   uc,
		uploadLimiter:  limiter,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

type pageResponse struct {
	domain.PhotoPage
	Message string `json:"message,omitempty"`
}

// UploadPhoto — POST /photos, multipart: file, description, tags.
func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
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

	photo, err := h.photoUseCase.UploadPhoto(r.Context(), mustPrincipal(r), usecase.UploadPhotoInput{
		Data:        data,
		Filename:    filename,
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
	})
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, photo, h.logger)
}

// ListMine — GET /photos/mine
func (h *PhotoHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}

	page, err := h.photoUseCase.ListMine(r.Context(), mustPrincipal(r), limit, offset)
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	h.respondWithPage(w, page)
}

// ListAll — GET /photos/all
func (h *PhotoHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}

	page, err := h.photoUseCase.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	h.respondWithPage(w, page)
}

func (h *PhotoHandler) respondWithPage(w http.ResponseWriter, page domain.PhotoPage) {
	resp := pageResponse{PhotoPage: page}
	if page.Empty() {
		resp.Message = emptyPageMessage
	}
	respondWithJSON(w, http.StatusOK, resp, h.logger)
}

// GetPhoto — GET /photos/{id}
func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}

	photo, err := h.photoUseCase.GetPhoto(r.Context(), id, mustPrincipal(r))
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, photo, h.logger)
}

type updatePhotoRequest struct {
	Description string `json:"description"`
}

// UpdatePhoto — PATCH /photos/{id}
func (h *PhotoHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	var req updatePhotoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}

	photo, err := h.photoUseCase.UpdateDescription(r.Context(), id, req.Description, mustPrincipal(r))
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, photo, h.logger)
}

// DeletePhoto — DELETE /photos/{id}
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}

	deleted, err := h.photoUseCase.DeletePhoto(r.Context(), id, mustPrincipal(r))
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, deleted, h.logger)
}

type transformRequest struct {
	Effect string `json:"effect"`
}

// TransformPhoto — POST /photos/{id}/transform. Эффект применяется
// воркером асинхронно, поэтому ответ 202.
func (h *PhotoHandler) TransformPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	var req transformRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}

	if err := h.photoUseCase.RequestTransform(r.Context(), id, req.Effect, mustPrincipal(r)); err != nil {
		respondWithAppError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"status":   "accepted",
		"photo_id": id.String(),
		"effect":   req.Effect,
	}, h.logger)
}
