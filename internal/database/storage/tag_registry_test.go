package storage

import (
	"context"
	"testing"

	"github.com/GoArmGo/PhotoShare/internal/apperror"
	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagCSV(t *testing.T) {
	assert.Empty(t, ParseTagCSV(""))
	assert.Empty(t, ParseTagCSV("   "))
	assert.Equal(t, []string{"red", " blue"}, ParseTagCSV("red, blue"))
}

func TestNormalizeTagNames(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{name: "dedup keeps first occurrence", in: []string{"red", "blue", "red"}, want: []string{"red", "blue"}},
		{name: "trims and drops empty", in: []string{" sky ", "", "   ", "sea"}, want: []string{"sky", "sea"}},
		{name: "case sensitive", in: []string{"Red", "red"}, want: []string{"Red", "red"}},
		{name: "five distinct with duplicates", in: []string{"a", "b", "c", "d", "e", "a", "b"}, want: []string{"a", "b", "c", "d", "e"}},
		{name: "six distinct", in: []string{"a", "b", "c", "d", "e", "f"}, wantErr: true},
		{name: "nothing", in: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTagNames(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperror.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func inTx(t *testing.T, e *testEnv, fn func(tx *sqlx.Tx)) {
	t.Helper()

	tx, err := e.db.Beginx()
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	fn(tx)
	require.NoError(t, tx.Commit())
}

func TestEnsureTags_Idempotent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	var first, second []domain.Tag
	inTx(t, e, func(tx *sqlx.Tx) {
		var err error
		first, err = e.tags.EnsureTags(ctx, tx, []string{"red", "blue", "red"})
		require.NoError(t, err)
	})
	inTx(t, e, func(tx *sqlx.Tx) {
		var err error
		second, err = e.tags.EnsureTags(ctx, tx, []string{"blue", "red"})
		require.NoError(t, err)
	})

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[1].ID)
	assert.Equal(t, first[1].ID, second[0].ID)
	assert.Equal(t, 2, e.count(t, "tags"))
}

func TestEnsureTags_TooManyWritesNothing(t *testing.T) {
	e := newTestEnv(t)

	inTx(t, e, func(tx *sqlx.Tx) {
		_, err := e.tags.EnsureTags(context.Background(), tx, []string{"a", "b", "c", "d", "e", "f"})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})
	assert.Equal(t, 0, e.count(t, "tags"))
}

func TestEnsure_ConcurrentInsertIsReRead(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	var existing domain.Tag
	inTx(t, e, func(tx *sqlx.Tx) {
		tag, err := e.tags.Ensure(ctx, tx, "sunset")
		require.NoError(t, err)
		existing = *tag
	})

	// первый поиск "не видит" тег, как будто его вставила параллельная транзакция
	calls := 0
	e.tags.find = func(ctx context.Context, tx *sqlx.Tx, name string) (*domain.Tag, error) {
		calls++
		if calls == 1 {
			return nil, nil
		}
		return findTagByName(ctx, tx, name)
	}

	inTx(t, e, func(tx *sqlx.Tx) {
		tag, err := e.tags.Ensure(ctx, tx, "sunset")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, tag.ID)

		// транзакция остаётся рабочей после отката к savepoint
		other, err := e.tags.Ensure(ctx, tx, "dawn")
		require.NoError(t, err)
		assert.Equal(t, "dawn", other.Name)
	})

	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, e.count(t, "tags"))
}

func TestEnsure_StillMissingAfterRetryIsConflict(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	inTx(t, e, func(tx *sqlx.Tx) {
		_, err := e.tags.Ensure(ctx, tx, "sunset")
		require.NoError(t, err)
	})

	e.tags.find = func(context.Context, *sqlx.Tx, string) (*domain.Tag, error) {
		return nil, nil
	}

	tx, err := e.db.Beginx()
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = e.tags.Ensure(ctx, tx, "sunset")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}
