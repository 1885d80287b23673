package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the access token lifetime when none is configured.
const DefaultTokenTTL = 30 * time.Minute

// TokenService issues and verifies HS256 access tokens. It is safe for
// concurrent use: the secret is copied at construction and never written.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService builds a TokenService signing with secret. A non-positive
// ttl selects DefaultTokenTTL.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	return &TokenService{secret: key, ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime applied by Issue.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for subject valid for the configured TTL.
func (s *TokenService) Issue(subject Subject) (string, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL signs a token for subject valid for ttl. Every token carries a
// random jti, so two tokens issued in the same second still differ.
func (s *TokenService) IssueWithTTL(subject Subject, ttl time.Duration) (string, error) {
	if !subject.IsValid() {
		return "", errors.New("token subject must not be empty")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks algorithm, signature and expiry and returns the subject.
// Every failure matches common.ErrInvalidToken; expiry is reported as
// common.ErrTokenExpired.
func (s *TokenService) Verify(tokenString string) (Subject, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Subject{}, common.ErrTokenExpired
		}
		return Subject{}, common.ErrInvalidToken
	}
	if !token.Valid {
		return Subject{}, common.ErrInvalidToken
	}

	subject := ParseSubject(claims.Subject)
	if !subject.IsValid() {
		return Subject{}, common.ErrInvalidToken
	}
	return subject, nil
}
