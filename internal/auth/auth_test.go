// internal/auth/auth_test.go
package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	a, err := New("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := a.IssueToken("wallet-abc")
	require.NoError(t, err)

	wallet, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "wallet-abc", wallet)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	a, err := New("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = a.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := New("other-secret", time.Hour)
	require.NoError(t, err)
	token, err := other.IssueToken("wallet-abc")
	require.NoError(t, err)

	_, err = a.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "token signed with a different secret must fail")
}

func TestExpiredToken(t *testing.T) {
	a, err := New("test-secret", -time.Minute)
	require.NoError(t, err)

	token, err := a.IssueToken("wallet-abc")
	require.NoError(t, err)

	_, err = a.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMissingSecret(t *testing.T) {
	_, err := New("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}
