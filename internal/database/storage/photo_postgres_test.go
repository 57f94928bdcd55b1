package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/authz"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoStore_CreateDeduplicatesTags(t *testing.T) {
	e := newTestEnv(t)
	owner := e.principal(t, "alice", domain.RoleUser)

	photo, err := e.photos.Create(context.Background(), owner, "sunset at the pier  ", "red, blue,red", "https://cdn/p/1.jpg")
	require.NoError(t, err)

	assert.Equal(t, owner.UserID, photo.OwnerID)
	assert.Equal(t, "sunset at the pier", photo.Description)
	assert.Equal(t, []string{"red", "blue"}, photo.TagNames())
	assert.True(t, photo.UpdatedAt.Equal(photo.CreatedAt))
	assert.Equal(t, 2, e.count(t, "photo_tags"))
	assert.Equal(t, 2, e.count(t, "tags"))
}

func TestPhotoStore_CreateRejectsTooManyTags(t *testing.T) {
	e := newTestEnv(t)
	owner := e.principal(t, "alice", domain.RoleUser)

	_, err := e.photos.Create(context.Background(), owner, "", "a,b,c,d,e,f", "https://cdn/p/1.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.Equal(t, 0, e.count(t, "photos"))
	assert.Equal(t, 0, e.count(t, "tags"))
	assert.Equal(t, 0, e.count(t, "photo_tags"))
}

func TestPhotoStore_CreateValidation(t *testing.T) {
	e := newTestEnv(t)
	owner := e.principal(t, "alice", domain.RoleUser)
	ctx := context.Background()

	_, err := e.photos.Create(ctx, owner, strings.Repeat("x", MaxDescriptionLength+1), "", "https://cdn/p/1.jpg")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = e.photos.Create(ctx, owner, "ok", "", "  ")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	photo, err := e.photos.Create(ctx, owner, "no tags", " , ,", "https://cdn/p/1.jpg")
	require.NoError(t, err)
	assert.Empty(t, photo.Tags)
}

func TestPhotoStore_CreateUnknownOwnerRollsBack(t *testing.T) {
	e := newTestEnv(t)
	ghost := domain.Principal{UserID: uuid.New(), Role: domain.RoleUser}

	_, err := e.photos.Create(context.Background(), ghost, "", "red", "https://cdn/p/1.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// тег создавался в той же транзакции и откатился вместе с фото
	assert.Equal(t, 0, e.count(t, "tags"))
	assert.Equal(t, 0, e.count(t, "photos"))
}

func TestPhotoStore_GetIsOwnershipScoped(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.principal(t, "alice", domain.RoleUser)
	stranger := e.principal(t, "bob", domain.RoleUser)
	moderator := e.principal(t, "mod", domain.RoleModerator)
	admin := e.principal(t, "root", domain.RoleAdmin)

	created, err := e.photos.Create(ctx, owner, "mine", "sea", "https://cdn/p/1.jpg")
	require.NoError(t, err)

	got, err := e.photos.Get(ctx, created.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, []string{"sea"}, got.TagNames())
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))

	_, err = e.photos.Get(ctx, created.ID, stranger)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = e.photos.Get(ctx, created.ID, moderator)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	got, err = e.photos.Get(ctx, created.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, owner.UserID, got.OwnerID)

	_, err = e.photos.Get(ctx, uuid.New(), admin)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPhotoStore_UpdateDescription(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.principal(t, "alice", domain.RoleUser)
	stranger := e.principal(t, "bob", domain.RoleUser)
	moderator := e.principal(t, "mod", domain.RoleModerator)
	admin := e.principal(t, "root", domain.RoleAdmin)

	created, err := e.photos.Create(ctx, owner, "before", "sea", "https://cdn/p/1.jpg")
	require.NoError(t, err)

	_, err = e.photos.UpdateDescription(ctx, created.ID, "hijacked", stranger)
	assert.ErrorIs(t, err, apperror.ErrPermission)
	_, err = e.photos.UpdateDescription(ctx, created.ID, "hijacked", moderator)
	assert.ErrorIs(t, err, apperror.ErrPermission)

	updated, err := e.photos.UpdateDescription(ctx, created.ID, "  after  ", owner)
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Description)
	assert.Equal(t, owner.UserID, updated.OwnerID)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.Equal(t, []string{"sea"}, updated.TagNames())

	byAdmin, err := e.photos.UpdateDescription(ctx, created.ID, "moderated", admin)
	require.NoError(t, err)
	assert.Equal(t, owner.UserID, byAdmin.OwnerID)
	assert.True(t, byAdmin.UpdatedAt.After(updated.UpdatedAt))

	_, err = e.photos.UpdateDescription(ctx, uuid.New(), "x", owner)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	got, err := e.photos.Get(ctx, created.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "moderated", got.Description)
}

func TestPhotoStore_UpdatedAtNeverMovesBackwards(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.principal(t, "alice", domain.RoleUser)

	created, err := e.photos.Create(ctx, owner, "before", "", "https://cdn/p/1.jpg")
	require.NoError(t, err)

	past := created.CreatedAt.Add(-24 * time.Hour)
	e.photos.now = func() time.Time { return past }

	updated, err := e.photos.UpdateDescription(ctx, created.ID, "after", owner)
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.Equal(created.UpdatedAt))
}

func TestPhotoStore_SetImagePath(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.principal(t, "alice", domain.RoleUser)
	stranger := e.principal(t, "bob", domain.RoleUser)

	created, err := e.photos.Create(ctx, owner, "", "", "https://cdn/p/1.jpg")
	require.NoError(t, err)

	_, err = e.photos.SetImagePath(ctx, created.ID, "https://cdn/p/2.jpg", stranger)
	assert.ErrorIs(t, err, apperror.ErrPermission)

	_, err = e.photos.SetImagePath(ctx, created.ID, "", owner)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	photo, err := e.photos.SetImagePath(ctx, created.ID, "https://cdn/p/2.jpg", owner)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/p/2.jpg", photo.ImagePath)
	assert.True(t, photo.UpdatedAt.After(created.UpdatedAt))
}

func TestPhotoStore_Authorize(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.principal(t, "alice", domain.RoleUser)
	stranger := e.principal(t, "bob", domain.RoleUser)

	created, err := e.photos.Create(ctx, owner, "", "", "https://cdn/p/1.jpg")
	require.NoError(t, err)

	photo, err := e.photos.Authorize(ctx, created.ID, authz.ActionTransform, owner)
	require.NoError(t, err)
	assert.Equal(t, created.ImagePath, photo.ImagePath)

	_, err = e.photos.Authorize(ctx, created.ID, authz.ActionTransform, stranger)
	assert.ErrorIs(t, err, apperror.ErrPermission)

	_, err = e.photos.Authorize(ctx, created.ID, authz.ActionView, stranger)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = e.photos.Authorize(ctx, uuid.New(), authz.ActionTransform, owner)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPhotoStore_DeleteRemovesChildren(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.principal(t, "alice", domain.RoleUser)
	commenter := e.principal(t, "bob", domain.RoleUser)

	created, err := e.photos.Create(ctx, owner, "", "red,blue", "https://cdn/p/1.jpg")
	require.NoError(t, err)
	kept, err := e.photos.Create(ctx, owner, "", "red", "https://cdn/p/2.jpg")
	require.NoError(t, err)

	for _, text := range []string{"nice", "great", "wow"} {
		_, err := e.comments.Create(ctx, created.ID, text, commenter)
		require.NoError(t, err)
	}
	_, err = e.comments.Create(ctx, kept.ID, "other", commenter)
	require.NoError(t, err)

	_, err = e.photos.Delete(ctx, created.ID, commenter)
	assert.ErrorIs(t, err, apperror.ErrPermission)

	deleted, err := e.photos.Delete(ctx, created.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.PhotoID)
	assert.Equal(t, "https://cdn/p/1.jpg", deleted.ImagePath)
	assert.EqualValues(t, 3, deleted.CommentsRemoved)

	assert.Equal(t, 1, e.count(t, "photos"))
	assert.Equal(t, 1, e.count(t, "comments"))
	assert.Equal(t, 1, e.count(t, "photo_tags"))
	// сиротские теги не удаляются
	assert.Equal(t, 2, e.count(t, "tags"))

	_, err = e.photos.Delete(ctx, created.ID, owner)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPhotoStore_AdminCanDelete(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.principal(t, "alice", domain.RoleUser)
	moderator := e.principal(t, "mod", domain.RoleModerator)
	admin := e.principal(t, "root", domain.RoleAdmin)

	created, err := e.photos.Create(ctx, owner, "", "", "https://cdn/p/1.jpg")
	require.NoError(t, err)

	_, err = e.photos.Delete(ctx, created.ID, moderator)
	assert.ErrorIs(t, err, apperror.ErrPermission)

	_, err = e.photos.Delete(ctx, created.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, 0, e.count(t, "photos"))
}

func TestPhotoStore_DeleteReferencedElsewhereConflicts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.principal(t, "alice", domain.RoleUser)

	created, err := e.photos.Create(ctx, owner, "", "red", "https://cdn/p/1.jpg")
	require.NoError(t, err)
	_, err = e.comments.Create(ctx, created.ID, "nice", owner)
	require.NoError(t, err)

	// внешняя ссылка, которую удаление фото не чистит
	_, err = e.db.Exec(`CREATE TABLE photo_pins (photo_id TEXT NOT NULL REFERENCES photos (id))`)
	require.NoError(t, err)
	_, err = e.db.Exec(`INSERT INTO photo_pins (photo_id) VALUES (?)`, created.ID)
	require.NoError(t, err)

	_, err = e.photos.Delete(ctx, created.ID, owner)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	// транзакция откатилась целиком
	assert.Equal(t, 1, e.count(t, "photos"))
	assert.Equal(t, 1, e.count(t, "comments"))
	assert.Equal(t, 1, e.count(t, "photo_tags"))
}
