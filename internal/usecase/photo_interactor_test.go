package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/GoArmGo/PhotoShare/internal/adapter/imagefx"
	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/GoArmGo/PhotoShare/internal/logger"
	"github.com/GoArmGo/PhotoShare/internal/messaging/payloads"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type photoDeps struct {
	photos    *fakePhotos
	lister    *fakeLister
	media     *fakeMedia
	publisher *fakePublisher
	users     *fakeUsers
	uc        PhotoUseCase
}

func newPhotoDeps() *photoDeps {
	d := &photoDeps{
		photos:    newFakePhotos(),
		lister:    &fakeLister{},
		media:     newFakeMedia(),
		publisher: &fakePublisher{},
		users:     newFakeUsers(),
	}
	log := logger.Discard()
	d.uc = NewPhotoUseCase(d.photos, d.lister, d.media, d.publisher, imagefx.NewTransformer(log), d.users, log)
	return d
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func user(role domain.Role) domain.Principal {
	return domain.Principal{UserID: uuid.New(), Role: role}
}

func TestUploadPhoto(t *testing.T) {
	d := newPhotoDeps()
	owner := user(domain.RoleUser)

	photo, err := d.uc.UploadPhoto(context.Background(), owner, UploadPhotoInput{
		Data:        pngBytes(t),
		Filename:    "sunset.png",
		Description: "sunset",
		Tags:        "sea,sky",
	})
	require.NoError(t, err)
	assert.Equal(t, owner.UserID, photo.OwnerID)
	assert.True(t, d.media.has(photo.ImagePath))
	assert.Contains(t, photo.ImagePath, owner.UserID.String()+"/sunset.png")
}

func TestUploadPhoto_RejectsBeforeUpload(t *testing.T) {
	d := newPhotoDeps()
	owner := user(domain.RoleUser)

	_, err := d.uc.UploadPhoto(context.Background(), owner, UploadPhotoInput{Data: pngBytes(t), Tags: "a,b,c,d,e,f"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = d.uc.UploadPhoto(context.Background(), owner, UploadPhotoInput{})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Empty(t, d.media.objects)
	assert.Empty(t, d.photos.createdPaths)
}

func TestUploadPhoto_CreateFailureRemovesObject(t *testing.T) {
	d := newPhotoDeps()
	d.photos.createErr = apperror.StorageUnavailable("create photo", errors.New("connection refused"))

	_, err := d.uc.UploadPhoto(context.Background(), user(domain.RoleUser), UploadPhotoInput{Data: pngBytes(t), Filename: "a.png"})
	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)

	require.Len(t, d.photos.createdPaths, 1)
	assert.False(t, d.media.has(d.photos.createdPaths[0]))
}

func TestUploadPhoto_MediaFailure(t *testing.T) {
	d := newPhotoDeps()
	d.media.uploadErr = errors.New("s3 down")

	_, err := d.uc.UploadPhoto(context.Background(), user(domain.RoleUser), UploadPhotoInput{Data: pngBytes(t)})
	require.Error(t, err)
	assert.Empty(t, d.photos.createdPaths)
}

func TestDeletePhoto_RemovesMediaObject(t *testing.T) {
	d := newPhotoDeps()
	ctx := context.Background()
	owner := user(domain.RoleUser)

	url, err := d.media.Upload(ctx, []byte("img"), "x.png")
	require.NoError(t, err)
	photo := d.photos.add(owner.UserID, url)

	_, err = d.uc.DeletePhoto(ctx, photo.ID, user(domain.RoleModerator))
	assert.ErrorIs(t, err, apperror.ErrPermission)
	assert.True(t, d.media.has(url))

	deleted, err := d.uc.DeletePhoto(ctx, photo.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, url, deleted.ImagePath)
	assert.False(t, d.media.has(url))
}

func TestListing_WrapsPage(t *testing.T) {
	d := newPhotoDeps()
	owner := user(domain.RoleUser)
	d.lister.items = []domain.PhotoInfo{{PhotoID: uuid.New(), OwnerID: owner.UserID}}

	page, err := d.uc.ListMine(context.Background(), user(domain.RoleUser), 10, 0)
	require.NoError(t, err)
	assert.True(t, page.Empty())
	assert.NotNil(t, page.Items)

	page, err = d.uc.ListAll(context.Background(), 20, 5)
	require.NoError(t, err)
	assert.False(t, page.Empty())
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, 5, page.Offset)
}

func TestRequestTransform(t *testing.T) {
	d := newPhotoDeps()
	ctx := context.Background()
	owner := user(domain.RoleUser)
	photo := d.photos.add(owner.UserID, "mem://x")

	err := d.uc.RequestTransform(ctx, photo.ID, "sepia", owner)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	err = d.uc.RequestTransform(ctx, photo.ID, "grayscale", user(domain.RoleUser))
	assert.ErrorIs(t, err, apperror.ErrPermission)

	err = d.uc.RequestTransform(ctx, uuid.New(), "grayscale", owner)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Empty(t, d.publisher.published)

	require.NoError(t, d.uc.RequestTransform(ctx, photo.ID, "grayscale", owner))
	require.Len(t, d.publisher.published, 1)
	assert.Equal(t, photo.ID, d.publisher.published[0].PhotoID)
	assert.Equal(t, "grayscale", d.publisher.published[0].Effect)
	assert.Equal(t, owner.UserID, d.publisher.published[0].UserID)
}

func TestApplyTransform(t *testing.T) {
	d := newPhotoDeps()
	ctx := context.Background()
	owner := user(domain.RoleUser)
	d.users.register(owner)

	original, err := d.media.Upload(ctx, pngBytes(t), owner.UserID.String()+"/a.png")
	require.NoError(t, err)
	photo := d.photos.add(owner.UserID, original)

	result, err := d.uc.ApplyTransform(ctx, payloads.TransformPayload{
		PhotoID: photo.ID,
		Effect:  "flip_horizontal",
		UserID:  owner.UserID,
	})
	require.NoError(t, err)
	assert.Equal(t, photo.ID, result.PhotoID)
	assert.NotEqual(t, original, result.NewImagePath)
	assert.True(t, d.media.has(result.NewImagePath))
	assert.False(t, d.media.has(original))
	assert.Equal(t, result.NewImagePath, d.photos.photos[photo.ID].ImagePath)
}

func TestApplyTransform_FailedWriteRemovesNewObject(t *testing.T) {
	d := newPhotoDeps()
	ctx := context.Background()
	owner := user(domain.RoleUser)
	d.users.register(owner)

	original, err := d.media.Upload(ctx, pngBytes(t), "a.png")
	require.NoError(t, err)
	photo := d.photos.add(owner.UserID, original)
	d.photos.setPathErr = apperror.StorageUnavailable("set image path", errors.New("down"))

	_, err = d.uc.ApplyTransform(ctx, payloads.TransformPayload{PhotoID: photo.ID, Effect: "invert", UserID: owner.UserID})
	assert.ErrorIs(t, err, apperror.ErrStorageUnavailable)

	assert.True(t, d.media.has(original))
	assert.Len(t, d.media.objects, 1)
}

func TestApplyTransform_ReauthorizesPrincipal(t *testing.T) {
	d := newPhotoDeps()
	photo := d.photos.add(uuid.New(), "mem://x")
	mod := user(domain.RoleModerator)
	d.users.register(mod)

	_, err := d.uc.ApplyTransform(context.Background(), payloads.TransformPayload{
		PhotoID: photo.ID,
		Effect:  "blur",
		UserID:  mod.UserID,
	})
	assert.ErrorIs(t, err, apperror.ErrPermission)
}

func TestApplyTransform_UsesCurrentRole(t *testing.T) {
	d := newPhotoDeps()
	ctx := context.Background()

	original, err := d.media.Upload(ctx, pngBytes(t), "a.png")
	require.NoError(t, err)
	photo := d.photos.add(uuid.New(), original)

	admin := user(domain.RoleAdmin)
	d.users.register(admin)
	require.NoError(t, d.uc.RequestTransform(ctx, photo.ID, "invert", admin))
	require.Len(t, d.publisher.published, 1)

	// пока задача в очереди, администратора понизили
	d.users.users[admin.UserID].Role = domain.RoleUser

	_, err = d.uc.ApplyTransform(ctx, d.publisher.published[0])
	assert.ErrorIs(t, err, apperror.ErrPermission)
	assert.Equal(t, original, d.photos.photos[photo.ID].ImagePath)
	assert.Len(t, d.media.objects, 1)
}

func TestApplyTransform_UnknownUser(t *testing.T) {
	d := newPhotoDeps()
	photo := d.photos.add(uuid.New(), "mem://x")

	_, err := d.uc.ApplyTransform(context.Background(), payloads.TransformPayload{
		PhotoID: photo.ID,
		Effect:  "invert",
		UserID:  uuid.New(),
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
