package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartwheel/storefront/internal/domain/auth"
)

func newTestService() *Service {
	return NewService([]byte("test-secret"), "storefront", time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService()

	signed, err := svc.Issue("alice", []string{auth.RoleAdmin})
	require.NoError(t, err)

	p, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.ID)
	assert.True(t, p.IsAdmin())
}

func TestVerify_WrongSecret(t *testing.T) {
	signed, err := newTestService().Issue("alice", nil)
	require.NoError(t, err)

	other := NewService([]byte("other-secret"), "storefront", time.Hour)
	_, err = other.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongIssuer(t *testing.T) {
	foreign := NewService([]byte("test-secret"), "someone-else", time.Hour)
	signed, err := foreign.Issue("alice", nil)
	require.NoError(t, err)

	_, err = newTestService().Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	expired := NewService([]byte("test-secret"), "storefront", -time.Minute)
	signed, err := expired.Issue("alice", nil)
	require.NoError(t, err)

	_, err = newTestService().Verify(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_Garbage(t *testing.T) {
	_, err := newTestService().Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
