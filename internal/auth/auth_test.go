package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := hashPasswordWithCost("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, VerifyPassword(hash, "correct horse"))
	require.ErrorIs(t, VerifyPassword(hash, "wrong horse"), ErrPasswordMismatch)

	_, err = HashPassword("short")
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestTokenIssueAndParse(t *testing.T) {
	manager := NewTokenManager("secret", time.Hour, "enrollment-api")

	token, expiresAt, err := manager.Issue("identity-1", "student", "session-1")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	claims, err := manager.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "identity-1", claims.Subject)
	require.Equal(t, "student", claims.Role)
	require.Equal(t, "session-1", claims.SessionID)
}

func TestTokenParseRejectsForeignSignature(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour, "enrollment-api")
	verifier := NewTokenManager("secret-b", time.Hour, "enrollment-api")

	token, _, err := issuer.Issue("identity-1", "admin", "")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenParseRejectsExpired(t *testing.T) {
	manager := NewTokenManager("secret", time.Minute, "enrollment-api")
	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := manager.Issue("identity-1", "admin", "")
	require.NoError(t, err)

	manager.now = time.Now
	_, err = manager.Parse(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenParseRejectsMissingSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "admin"})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour, "").Parse(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}
