package storage

import (
	"context"
	"testing"
	"time"

	"github.com/GoArmGo/PhotoShare/internal/database/client"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/GoArmGo/PhotoShare/internal/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// testClock отдаёт время с шагом в секунду, чтобы порядок записей был детерминирован.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type testEnv struct {
	db       *sqlx.DB
	clock    *testClock
	tags     *TagRegistry
	photos   *PhotoStore
	comments *CommentStore
	listing  *ListingEngine
	users    *UserStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.Discard()
	db, err := client.Open(client.DriverSQLite, ":memory:", client.PoolOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, client.RunMigrations(db, client.DriverSQLite, "", log))

	clock := newTestClock()
	tags := NewTagRegistry(log)
	env := &testEnv{
		db:       db,
		clock:    clock,
		tags:     tags,
		photos:   NewPhotoStore(db, tags, log),
		comments: NewCommentStore(db, log),
		listing:  NewListingEngine(db, log),
		users:    NewUserStorage(db, log),
	}
	env.photos.now = clock.Now
	env.comments.now = clock.Now
	env.users.now = clock.Now
	return env
}

func (e *testEnv) principal(t *testing.T, username string, role domain.Role) domain.Principal {
	t.Helper()

	u := &domain.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	require.NoError(t, e.users.CreateUser(context.Background(), u))
	return domain.Principal{UserID: u.ID, Role: u.Role, Email: u.Email}
}

func (e *testEnv) count(t *testing.T, table string) int {
	t.Helper()

	var n int
	require.NoError(t, e.db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}
