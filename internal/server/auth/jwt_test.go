package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, secret string) *TokenService {
	t.Helper()
	s, err := NewTokenService([]byte(secret), time.Hour)
	require.NoError(t, err)
	return s
}

func TestNewTokenService(t *testing.T) {
	_, err := NewTokenService(nil, time.Minute)
	require.Error(t, err)

	s, err := NewTokenService([]byte("k"), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, s.TTL())
}

func TestNewTokenService_CopiesSecret(t *testing.T) {
	secret := []byte("super-secret")
	s, err := NewTokenService(secret, time.Hour)
	require.NoError(t, err)

	tok, err := s.Issue(UsernameSubject("alice"))
	require.NoError(t, err)

	secret[0] = 'X'

	_, err = s.Verify(tok)
	require.NoError(t, err, "mutating the caller's slice must not affect the service")
}

func TestIssueAndVerify_AccountID(t *testing.T) {
	s := newTestTokenService(t, "super-secret")
	id := uuid.New()

	tok, err := s.Issue(AccountIDSubject(id))
	require.NoError(t, err)

	sub, err := s.Verify(tok)
	require.NoError(t, err)
	got, ok := sub.AccountID()
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestIssueAndVerify_Username(t *testing.T) {
	s := newTestTokenService(t, "super-secret")

	tok, err := s.Issue(UsernameSubject("alice"))
	require.NoError(t, err)

	sub, err := s.Verify(tok)
	require.NoError(t, err)
	name, ok := sub.Username()
	require.True(t, ok)
	assert.Equal(t, "alice", name)
}

func TestIssue_InvalidSubject(t *testing.T) {
	s := newTestTokenService(t, "k")
	_, err := s.Issue(Subject{})
	require.Error(t, err)
}

func TestIssue_TokensDifferPerCall(t *testing.T) {
	s := newTestTokenService(t, "k")
	a, err := s.Issue(UsernameSubject("alice"))
	require.NoError(t, err)
	b, err := s.Issue(UsernameSubject("alice"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_Expired(t *testing.T) {
	s := newTestTokenService(t, "secret")

	tok, err := s.IssueWithTTL(UsernameSubject("u1"), -1*time.Second)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTokenExpired))
	assert.True(t, errors.Is(err, common.ErrInvalidToken))
}

func TestVerify_ExpiresLater(t *testing.T) {
	s := newTestTokenService(t, "secret")
	start := time.Now()
	s.now = func() time.Time { return start }

	tok, err := s.IssueWithTTL(UsernameSubject("u1"), 30*time.Minute)
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(29 * time.Minute) }
	_, err = s.Verify(tok)
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(31 * time.Minute) }
	_, err = s.Verify(tok)
	assert.True(t, errors.Is(err, common.ErrTokenExpired))
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := newTestTokenService(t, "right-secret").Issue(UsernameSubject("u2"))
	require.NoError(t, err)

	_, err = newTestTokenService(t, "wrong-secret").Verify(tok)
	assert.True(t, errors.Is(err, common.ErrInvalidToken))
}

func TestVerify_TamperedSignature(t *testing.T) {
	s := newTestTokenService(t, "secret")
	tok, err := s.Issue(UsernameSubject("alice"))
	require.NoError(t, err)

	dot := strings.LastIndex(tok, ".")
	sig := tok[dot+1:]

	for i := 0; i < len(sig); i++ {
		b := []byte(sig)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		tampered := tok[:dot+1] + string(b)

		_, err := s.Verify(tampered)
		require.Truef(t, errors.Is(err, common.ErrInvalidToken), "position %d: expected invalid token, got %v", i, err)
	}
}

// Changing only the unused low bits of the last signature character must not
// be accepted either.
func TestVerify_TamperedSignatureTrailingBits(t *testing.T) {
	s := newTestTokenService(t, "secret")
	tok, err := s.Issue(AccountIDSubject(uuid.New()))
	require.NoError(t, err)

	dot := strings.LastIndex(tok, ".")
	sig := tok[dot+1:]

	for _, c := range base64URLAlphabet {
		if byte(c) == sig[len(sig)-1] {
			continue
		}
		tampered := tok[:len(tok)-1] + string(c)
		_, err := s.Verify(tampered)
		require.Truef(t, errors.Is(err, common.ErrInvalidToken), "last char %q: expected invalid token, got %v", c, err)
	}
}

const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

func TestVerify_Malformed(t *testing.T) {
	s := newTestTokenService(t, "k")
	for _, tok := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		_, err := s.Verify(tok)
		assert.Truef(t, errors.Is(err, common.ErrInvalidToken), "token %q", tok)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	s := newTestTokenService(t, "secret")
	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = s.Verify(hs512)
	assert.True(t, errors.Is(err, common.ErrInvalidToken))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Verify(none)
	assert.True(t, errors.Is(err, common.ErrInvalidToken))
}

func TestVerify_EmptyOrMissingClaims(t *testing.T) {
	s := newTestTokenService(t, "secret")

	emptySub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = s.Verify(emptySub)
	assert.True(t, errors.Is(err, common.ErrInvalidToken), "empty sub must be invalid")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = s.Verify(noExp)
	assert.True(t, errors.Is(err, common.ErrInvalidToken), "missing exp must be invalid")
}

func TestIssue_StandardWireFormat(t *testing.T) {
	s := newTestTokenService(t, "secret")
	id := uuid.New()
	tok, err := s.Issue(AccountIDSubject(id))
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "HS256", parsed.Header["alg"])
	assert.Equal(t, id.String(), claims["sub"])
	_, ok := claims["exp"].(float64)
	assert.True(t, ok, "exp must be numeric")
}
