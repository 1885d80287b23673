package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/google/uuid"
)

// Directory stores accounts. Lookups are exact and case-sensitive; a miss is
// reported as common.ErrorNotFound. Implementations must enforce username and
// email uniqueness themselves and report violations from Insert as
// common.ErrorAlreadyExists.
type Directory interface {
	// FindByUsernameOrEmail prefers a username match over an email match.
	FindByUsernameOrEmail(ctx context.Context, value string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// Insert assigns an id when missing and sets both timestamps.
	Insert(ctx context.Context, account *Account) (*Account, error)

	// Update persists the mutable fields and refreshes UpdatedAt.
	Update(ctx context.Context, account *Account) error
}

// Store hands out a Directory bound to a per-call storage session. The
// session is released when fn returns, whatever the outcome.
type Store interface {
	WithSession(ctx context.Context, fn func(ctx context.Context, dir Directory) error) error

	// WithTx is WithSession inside a transaction committed only when fn succeeds.
	WithTx(ctx context.Context, fn func(ctx context.Context, dir Directory) error) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	Issue(subject auth.Subject) (string, error)
	Verify(token string) (auth.Subject, error)
}
