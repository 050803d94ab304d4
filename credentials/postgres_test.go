package credentials

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/MrEthical07/reelauth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []string
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		*(d.(*string)) = r.values[i]
	}
	return nil
}

type fakeQuerier struct {
	row     fakeRow
	tag     pgconn.CommandTag
	execErr error

	lastSQL  string
	lastArgs []any
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL, q.lastArgs = sql, args
	return q.row
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.lastSQL, q.lastArgs = sql, args
	return q.tag, q.execErr
}

func TestPostgresStoreFindByIdentifier(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{values: []string{"id-1", "admin", "$argon2id$x"}}}
	s := NewPostgresStore(q)

	a, err := s.FindByIdentifier(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, reelauth.Account{PrincipalID: "id-1", Identifier: "admin", PasswordHash: "$argon2id$x"}, a)
	assert.Equal(t, []any{"admin"}, q.lastArgs)
	assert.Contains(t, q.lastSQL, "FROM accounts")
}

func TestPostgresStoreFindMapsErrors(t *testing.T) {
	s := NewPostgresStore(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})
	_, err := s.FindByIdentifier(context.Background(), "nobody")
	assert.ErrorIs(t, err, reelauth.ErrAccountNotFound)

	boom := errors.New("conn reset")
	s = NewPostgresStore(&fakeQuerier{row: fakeRow{err: boom}})
	_, err = s.FindByIdentifier(context.Background(), "admin")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, reelauth.ErrAccountNotFound)
}

func TestPostgresStoreUpdatePasswordHash(t *testing.T) {
	q := &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
	s := NewPostgresStore(q)
	require.NoError(t, s.UpdatePasswordHash(context.Background(), "id-1", "new"))
	assert.Equal(t, []any{"id-1", "new"}, q.lastArgs)

	q.tag = pgconn.NewCommandTag("UPDATE 0")
	assert.ErrorIs(t, s.UpdatePasswordHash(context.Background(), "id-1", "new"), reelauth.ErrAccountNotFound)
}

func TestPostgresStoreCreate(t *testing.T) {
	q := &fakeQuerier{tag: pgconn.NewCommandTag("INSERT 0 1")}
	s := NewPostgresStore(q)

	a, err := s.Create(context.Background(), "admin", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, a.PrincipalID)
	assert.Equal(t, []any{a.PrincipalID, "admin", "hash"}, q.lastArgs)

	q.execErr = &pgconn.PgError{Code: "23505"}
	_, err = s.Create(context.Background(), "admin", "hash")
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	data, err := fs.ReadFile(migrations, files[0])
	require.NoError(t, err)
	body := string(data)
	assert.True(t, strings.Contains(body, "-- +goose Up"))
	assert.True(t, strings.Contains(body, "-- +goose Down"))
	assert.Contains(t, body, "accounts")
}
