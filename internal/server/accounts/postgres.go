package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const accountColumns = `id, username, email, first_name, last_name, password_hash,
		 is_active, is_verified, last_login, created_at, updated_at`

// PostgresDirectory is a Directory over the users table. It is bound to a
// single connection or transaction and must not outlive it.
type PostgresDirectory struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresDirectory(db dbx.DBTX) *PostgresDirectory {
	return &PostgresDirectory{db: db, now: time.Now}
}

func (r *PostgresDirectory) FindByUsernameOrEmail(ctx context.Context, value string) (*Account, error) {
	query :=
		`SELECT ` + accountColumns + ` FROM users
		 WHERE username = $1 OR email = $1
		 ORDER BY (username = $1) DESC
		 LIMIT 1
		 `
	return r.findOne(ctx, query, value)
}

func (r *PostgresDirectory) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	query :=
		`SELECT ` + accountColumns + ` FROM users
		 WHERE id = $1
		 `
	return r.findOne(ctx, query, id)
}

func (r *PostgresDirectory) FindByUsername(ctx context.Context, username string) (*Account, error) {
	query :=
		`SELECT ` + accountColumns + ` FROM users
		 WHERE username = $1
		 `
	return r.findOne(ctx, query, username)
}

func (r *PostgresDirectory) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresDirectory) Insert(ctx context.Context, account *Account) (*Account, error) {
	query :=
		`INSERT INTO users (id, username, email, first_name, last_name, password_hash,
		 is_active, is_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 `

	stored := *account
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := r.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		stored.ID, stored.Username, stored.Email,
		nullString(stored.FirstName), nullString(stored.LastName), stored.passwordHash,
		stored.IsActive, stored.IsVerified, stored.CreatedAt, stored.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &stored, nil
}

func (r *PostgresDirectory) Update(ctx context.Context, account *Account) error {
	query :=
		`UPDATE users SET first_name = $2, last_name = $3, is_active = $4,
		 is_verified = $5, last_login = $6, updated_at = $7
		 WHERE id = $1
		 `

	updatedAt := r.now().UTC()
	var lastLogin sql.NullTime
	if account.LastLogin != nil {
		lastLogin = sql.NullTime{Time: *account.LastLogin, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query,
		account.ID, nullString(account.FirstName), nullString(account.LastName),
		account.IsActive, account.IsVerified, lastLogin, updatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	account.UpdatedAt = updatedAt
	return nil
}

func (r *PostgresDirectory) findOne(ctx context.Context, query string, args ...any) (*Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var (
		a         Account
		first     sql.NullString
		last      sql.NullString
		lastLogin sql.NullTime
	)

	err := row.Scan(&a.ID, &a.Username, &a.Email, &first, &last, &a.passwordHash,
		&a.IsActive, &a.IsVerified, &lastLogin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.FirstName = first.String
	a.LastName = last.String
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLogin = &t
	}
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
