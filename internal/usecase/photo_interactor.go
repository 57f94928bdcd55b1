package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/GoArmGo/PhotoShare/internal/adapter/imagefx"
	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/authz"
	"github.com/GoArmGo/PhotoShare/internal/core/ports"
	"github.com/GoArmGo/PhotoShare/internal/database/storage"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/GoArmGo/PhotoShare/internal/messaging/payloads"
	"github.com/google/uuid"
)

const cleanupTimeout = 10 * time.Second

// photoUseCase implements PhotoUseCase
type photoUseCase struct {
	photos      ports.PhotoStore
	listing     ports.PhotoLister
	media       ports.MediaStore
	publisher   ports.TransformPublisher
	transformer ImageTransformer
	users       UserLookup
	logger      *slog.Logger
}

// NewPhotoUseCase создает новый экземпляр PhotoUseCase.
// publisher и transformer могут быть nil в процессе, которому они не нужны
// (воркер не публикует, сервер не обрабатывает изображения).
func NewPhotoUseCase(
	photos ports.PhotoStore,
	listing ports.PhotoLister,
	media ports.MediaStore,
	publisher ports.TransformPublisher,
	transformer ImageTransformer,
	users UserLookup,
	logger *slog.Logger,
) PhotoUseCase {
	return &photoUseCase{
		photos:      photos,
		listing:     listing,
		media:       media,
		publisher:   publisher,
		transformer: transformer,
		users:       users,
		logger:      logger,
	}
}

func (uc *photoUseCase) UploadPhoto(ctx context.Context, owner domain.Principal, in UploadPhotoInput) (*domain.PhotoWithTags, error) {
	if len(in.Data) == 0 {
		return nil, apperror.Validation("file", "image file is required")
	}
	// лимит тегов проверяем до загрузки, чтобы не плодить объекты-сироты
	if _, err := storage.NormalizeTagNames(storage.ParseTagCSV(in.Tags)); err != nil {
		return nil, err
	}

	url, err := uc.media.Upload(ctx, in.Data, owner.UserID.String()+"/"+path.Base(in.Filename))
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка загрузки изображения в медиахранилище: %w", err)
	}

	photo, err := uc.photos.Create(ctx, owner, in.Description, in.Tags, url)
	if err != nil {
		uc.removeObject(ctx, url, "photo create failed")
		return nil, err
	}

	uc.logger.Info("photo uploaded", "photo_id", photo.ID, "owner_id", owner.UserID, "image_path", url)
	return photo, nil
}

func (uc *photoUseCase) GetPhoto(ctx context.Context, photoID uuid.UUID, p domain.Principal) (*domain.PhotoWithTags, error) {
	return uc.photos.Get(ctx, photoID, p)
}

func (uc *photoUseCase) UpdateDescription(ctx context.Context, photoID uuid.UUID, description string, p domain.Principal) (*domain.PhotoWithTags, error) {
	return uc.photos.UpdateDescription(ctx, photoID, description, p)
}

func (uc *photoUseCase) DeletePhoto(ctx context.Context, photoID uuid.UUID, p domain.Principal) (*domain.DeletedPhoto, error) {
	deleted, err := uc.photos.Delete(ctx, photoID, p)
	if err != nil {
		return nil, err
	}
	uc.removeObject(ctx, deleted.ImagePath, "photo deleted")
	return deleted, nil
}

func (uc *photoUseCase) ListMine(ctx context.Context, owner domain.Principal, limit, offset int) (domain.PhotoPage, error) {
	items, err := uc.listing.ListMine(ctx, owner, limit, offset)
	if err != nil {
		return domain.PhotoPage{}, err
	}
	return domain.PhotoPage{Items: items, Limit: limit, Offset: offset}, nil
}

func (uc *photoUseCase) ListAll(ctx context.Context, limit, offset int) (domain.PhotoPage, error) {
	items, err := uc.listing.ListAll(ctx, limit, offset)
	if err != nil {
		return domain.PhotoPage{}, err
	}
	return domain.PhotoPage{Items: items, Limit: limit, Offset: offset}, nil
}

func (uc *photoUseCase) RequestTransform(ctx context.Context, photoID uuid.UUID, effect string, p domain.Principal) error {
	e, err := imagefx.ParseEffect(effect)
	if err != nil {
		return err
	}
	if _, err := uc.photos.Authorize(ctx, photoID, authz.ActionTransform, p); err != nil {
		return err
	}

	payload := payloads.TransformPayload{
		PhotoID:     photoID,
		Effect:      string(e),
		UserID:      p.UserID,
		RequestedAt: time.Now().Unix(),
	}
	if err := uc.publisher.PublishTransformRequest(ctx, payload); err != nil {
		return fmt.Errorf("usecase: ошибка публикации задачи на обработку фото %s: %w", photoID, err)
	}
	return nil
}

// ApplyTransform повторно проверяет права: между запросом и обработкой
// фото могли удалить или у субъекта могли отобрать роль. Роль берётся
// из справочника пользователей, сообщение несёт только user_id.
func (uc *photoUseCase) ApplyTransform(ctx context.Context, payload payloads.TransformPayload) (*domain.TransformResult, error) {
	start := time.Now()

	effect, err := imagefx.ParseEffect(payload.Effect)
	if err != nil {
		return nil, err
	}

	user, err := uc.users.GetUser(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}
	principal := domain.Principal{UserID: user.ID, Role: user.Role, Email: user.Email}

	photo, err := uc.photos.Authorize(ctx, payload.PhotoID, authz.ActionTransform, principal)
	if err != nil {
		return nil, err
	}

	data, err := uc.media.Download(ctx, photo.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка скачивания изображения фото %s: %w", photo.ID, err)
	}

	out, err := uc.transformer.Apply(data, effect)
	if err != nil {
		return nil, err
	}

	newURL, err := uc.media.Upload(ctx, out, photo.OwnerID.String()+"/"+path.Base(photo.ImagePath))
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка загрузки обработанного изображения: %w", err)
	}

	updated, err := uc.photos.SetImagePath(ctx, photo.ID, newURL, principal)
	if err != nil {
		uc.removeObject(ctx, newURL, "set image path failed")
		return nil, err
	}
	uc.removeObject(ctx, photo.ImagePath, "image replaced")

	uc.logger.Info("transform applied",
		"photo_id", photo.ID,
		"effect", effect,
		"new_image_path", newURL,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &domain.TransformResult{
		PhotoID:      updated.ID,
		NewImagePath: updated.ImagePath,
		Description:  updated.Description,
		CreatedAt:    updated.CreatedAt,
		UpdatedAt:    updated.UpdatedAt,
	}, nil
}

// removeObject удаляет объект в медиахранилище без влияния на результат операции.
func (uc *photoUseCase) removeObject(ctx context.Context, url, reason string) {
	removeMediaObject(ctx, uc.media, uc.logger, url, reason)
}

func removeMediaObject(ctx context.Context, media ports.MediaStore, logger *slog.Logger, url, reason string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := media.Delete(cctx, url); err != nil {
		logger.Warn("failed to remove media object", "image_path", url, "reason", reason, "error", err)
		return
	}
	logger.Debug("media object removed", "image_path", url, "reason", reason)
}
