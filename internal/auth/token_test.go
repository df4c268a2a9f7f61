package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Issue("p1", false)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.PlayerID)
	assert.False(t, claims.Guest)
	assert.Equal(t, "p1", claims.Subject)
}

func TestIssueGuest(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	playerID, token, err := m.IssueGuest()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(playerID, "guest-"))

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, playerID, claims.PlayerID)
	assert.True(t, claims.Guest)
}

func TestVerifyRejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	other := NewTokenManager("other", time.Hour)
	expired := NewTokenManager("secret", time.Nanosecond)

	foreign, err := other.Issue("p1", false)
	require.NoError(t, err)
	stale, err := expired.Issue("p1", false)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", foreign},
		{"expired", stale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestEmptySecretStillWorks(t *testing.T) {
	m := NewTokenManager("", 0)

	token, err := m.Issue("p1", false)
	require.NoError(t, err)
	_, err = m.Verify(token)
	assert.NoError(t, err)
}
