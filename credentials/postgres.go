package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/reelauth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Querier is the subset of *pgxpool.Pool the store uses.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ Querier = (*pgxpool.Pool)(nil)

// PostgresStore reads accounts from the accounts table.
type PostgresStore struct {
	db Querier
}

var (
	_ reelauth.CredentialStore = (*PostgresStore)(nil)
	_ reelauth.PasswordUpdater = (*PostgresStore)(nil)
	_ reelauth.AccountCreator  = (*PostgresStore)(nil)
)

func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect opens a pool for dsn and verifies it with a ping. The caller owns
// the returned pool.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

func (s *PostgresStore) FindByIdentifier(ctx context.Context, identifier string) (reelauth.Account, error) {
	const query = `
        SELECT id, identifier, password_hash
        FROM accounts
        WHERE identifier = $1
    `

	var a reelauth.Account
	if err := s.db.QueryRow(ctx, query, identifier).Scan(&a.PrincipalID, &a.Identifier, &a.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return reelauth.Account{}, reelauth.ErrAccountNotFound
		}
		return reelauth.Account{}, fmt.Errorf("failed to find account: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, principalID, passwordHash string) error {
	const query = `
        UPDATE accounts
        SET password_hash = $2, updated_at = now()
        WHERE id = $1
    `

	tag, err := s.db.Exec(ctx, query, principalID, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return reelauth.ErrAccountNotFound
	}
	return nil
}

// Create inserts an account with a random principal id.
func (s *PostgresStore) Create(ctx context.Context, identifier, passwordHash string) (reelauth.Account, error) {
	const query = `
        INSERT INTO accounts (id, identifier, password_hash)
        VALUES ($1, $2, $3)
    `

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || passwordHash == "" {
		return reelauth.Account{}, errors.New("credentials: identifier and password hash are required")
	}

	a := reelauth.Account{
		PrincipalID:  uuid.NewString(),
		Identifier:   identifier,
		PasswordHash: passwordHash,
	}
	if _, err := s.db.Exec(ctx, query, a.PrincipalID, a.Identifier, a.PasswordHash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return reelauth.Account{}, ErrDuplicateIdentifier
		}
		return reelauth.Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	return a, nil
}
