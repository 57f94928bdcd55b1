package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/authz"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/GoArmGo/PhotoShare/internal/messaging/payloads"
	"github.com/google/uuid"
)

type fakeMedia struct {
	mu        sync.Mutex
	objects   map[string][]byte
	seq       int
	uploadErr error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: make(map[string][]byte)}
}

func (m *fakeMedia) Upload(_ context.Context, data []byte, hint string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.seq++
	url := fmt.Sprintf("mem://%d/%s", m.seq, hint)
	m.objects[url] = data
	return url, nil
}

func (m *fakeMedia) Download(_ context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[url]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func (m *fakeMedia) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, url)
	return nil
}

func (m *fakeMedia) has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[url]
	return ok
}

// fakePhotos хранит фото в памяти и решает права через authz, как настоящий стор.
type fakePhotos struct {
	photos       map[uuid.UUID]*domain.Photo
	createErr    error
	setPathErr   error
	createdPaths []string
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{photos: make(map[uuid.UUID]*domain.Photo)}
}

func (f *fakePhotos) add(owner uuid.UUID, imagePath string) *domain.Photo {
	p := &domain.Photo{ID: uuid.New(), OwnerID: owner, ImagePath: imagePath}
	f.photos[p.ID] = p
	return p
}

func (f *fakePhotos) Create(_ context.Context, owner domain.Principal, description, _ string, imagePath string) (*domain.PhotoWithTags, error) {
	f.createdPaths = append(f.createdPaths, imagePath)
	if f.createErr != nil {
		return nil, f.createErr
	}
	p := f.add(owner.UserID, imagePath)
	p.Description = description
	return &domain.PhotoWithTags{Photo: *p, Tags: []domain.Tag{}}, nil
}

func (f *fakePhotos) authorized(id uuid.UUID, action authz.Action, pr domain.Principal) (*domain.Photo, error) {
	p, ok := f.photos[id]
	if !ok {
		return nil, apperror.NotFound("photo", id.String())
	}
	if !authz.Allow(action, p.OwnerID, pr) {
		return nil, apperror.Permission(string(action), "photo", id.String())
	}
	return p, nil
}

func (f *fakePhotos) Get(_ context.Context, id uuid.UUID, pr domain.Principal) (*domain.PhotoWithTags, error) {
	p, err := f.authorized(id, authz.ActionView, pr)
	if err != nil {
		return nil, err
	}
	return &domain.PhotoWithTags{Photo: *p}, nil
}

func (f *fakePhotos) UpdateDescription(_ context.Context, id uuid.UUID, description string, pr domain.Principal) (*domain.PhotoWithTags, error) {
	p, err := f.authorized(id, authz.ActionEdit, pr)
	if err != nil {
		return nil, err
	}
	p.Description = description
	return &domain.PhotoWithTags{Photo: *p}, nil
}

func (f *fakePhotos) SetImagePath(_ context.Context, id uuid.UUID, newPath string, pr domain.Principal) (*domain.Photo, error) {
	p, err := f.authorized(id, authz.ActionTransform, pr)
	if err != nil {
		return nil, err
	}
	if f.setPathErr != nil {
		return nil, f.setPathErr
	}
	p.ImagePath = newPath
	cp := *p
	return &cp, nil
}

func (f *fakePhotos) Delete(_ context.Context, id uuid.UUID, pr domain.Principal) (*domain.DeletedPhoto, error) {
	p, err := f.authorized(id, authz.ActionDelete, pr)
	if err != nil {
		return nil, err
	}
	delete(f.photos, id)
	return &domain.DeletedPhoto{PhotoID: id, ImagePath: p.ImagePath}, nil
}

func (f *fakePhotos) Authorize(_ context.Context, id uuid.UUID, action authz.Action, pr domain.Principal) (*domain.Photo, error) {
	p, err := f.authorized(id, action, pr)
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

type fakeLister struct {
	items []domain.PhotoInfo
}

func (f *fakeLister) ListMine(_ context.Context, owner domain.Principal, _, _ int) ([]domain.PhotoInfo, error) {
	out := make([]domain.PhotoInfo, 0)
	for _, it := range f.items {
		if it.OwnerID == owner.UserID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeLister) ListAll(context.Context, int, int) ([]domain.PhotoInfo, error) {
	return append(make([]domain.PhotoInfo, 0), f.items...), nil
}

type fakePublisher struct {
	published []payloads.TransformPayload
	err       error
}

func (f *fakePublisher) PublishTransformRequest(_ context.Context, payload payloads.TransformPayload) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, payload)
	return nil
}

type fakeUsers struct {
	users     map[uuid.UUID]*domain.User
	avatarErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]*domain.User)}
}

// register заводит пользователя с ролью субъекта
func (f *fakeUsers) register(p domain.Principal) {
	f.users[p.UserID] = &domain.User{ID: p.UserID, Role: p.Role, Email: p.Email}
}

func (f *fakeUsers) GetUser(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}
	return u, nil
}

func (f *fakeUsers) ListUsers(context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id uuid.UUID, role domain.Role) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}
	u.Role = role
	return u, nil
}

func (f *fakeUsers) UpdateAvatar(_ context.Context, id uuid.UUID, avatarURL string) (*domain.User, string, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, "", apperror.NotFound("user", id.String())
	}
	if f.avatarErr != nil {
		return nil, "", f.avatarErr
	}
	previous := u.AvatarURL
	u.AvatarURL = avatarURL
	cp := *u
	return &cp, previous, nil
}

type fakeInvalidator struct {
	invalidated []uuid.UUID
}

func (f *fakeInvalidator) Invalidate(_ context.Context, id uuid.UUID) error {
	f.invalidated = append(f.invalidated, id)
	return nil
}
