// Package accounts implements account registration, authentication and
// identity resolution on top of a pluggable account directory.
package accounts

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Profile is the caller-supplied part of an account.
type Profile struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// Account is a registered user. The password hash is unexported: it can only
// be checked with VerifyPassword and is never part of a View.
type Account struct {
	ID         uuid.UUID
	Username   string
	Email      string
	FirstName  string
	LastName   string
	IsActive   bool
	IsVerified bool
	LastLogin  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	passwordHash string
}

// NewAccountFromPlaintext hashes password and builds a new active,
// unverified account with a fresh id. Timestamps are set on insert.
func NewAccountFromPlaintext(hasher PasswordHasher, p Profile, password string) (*Account, error) {
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	if hash == "" || hash == password {
		return nil, errors.New("hasher returned an unusable hash")
	}

	a := NewAccountWithHashedPassword(p, hash)
	a.ID = uuid.New()
	return a, nil
}

// NewAccountWithHashedPassword rebuilds an account around an existing hash,
// as read back from storage.
func NewAccountWithHashedPassword(p Profile, passwordHash string) *Account {
	return &Account{
		Username:     p.Username,
		Email:        p.Email,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		IsActive:     true,
		passwordHash: passwordHash,
	}
}

// VerifyPassword reports whether password matches the stored hash.
func (a *Account) VerifyPassword(hasher PasswordHasher, password string) bool {
	return hasher.Verify(password, a.passwordHash)
}

func (a *Account) String() string {
	return fmt.Sprintf("<Account username=%s email=%s>", a.Username, a.Email)
}

// View is the outward representation of an account.
func (a *Account) View() AccountView {
	v := AccountView{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		IsActive:   a.IsActive,
		IsVerified: a.IsVerified,
		LastLogin:  a.LastLogin,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.FirstName != "" {
		v.FirstName = &a.FirstName
	}
	if a.LastName != "" {
		v.LastName = &a.LastName
	}
	return v
}

// AccountView is an account as returned to callers; it has no password field.
type AccountView struct {
	ID         uuid.UUID  `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FirstName  *string    `json:"first_name"`
	LastName   *string    `json:"last_name"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AuthResult is returned by a successful login.
type AuthResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	Account     AccountView `json:"user"`
}
