package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
)

var errFileTooLarge = errors.New("file is too large")

// acquireUpload занимает слот лимитера; release нужно вызвать по завершении.
func acquireUpload(ctx context.Context, limiter chan struct{}) (release func(), ok bool) {
	select {
	case limiter <- struct{}{}:
		return func() { <-limiter }, true
	case <-ctx.Done():
		return nil, false
	}
}

// readUpload разбирает multipart-форму и читает файл из поля field.
// Остальные поля формы после вызова доступны через r.FormValue.
func readUpload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) ([]byte, string, error) {
	// запас на поля формы сверх самого файла
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64<<10)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, "", errFileTooLarge
		}
		return nil, "", apperror.Validation(field, "request must be multipart/form-data")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", apperror.Validation(field, "image file is required")
	}
	defer file.Close()

	if header.Size > maxBytes {
		return nil, "", errFileTooLarge
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

func respondWithUploadError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	if errors.Is(err, errFileTooLarge) {
		respondWithError(w, http.StatusRequestEntityTooLarge, errFileTooLarge.Error(), logger)
		return
	}
	respondWithAppError(w, r, err, logger)
}
