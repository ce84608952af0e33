package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionFixture(t *testing.T) (*SessionService, *UserService, *memStore, *fakeSigner) {
	t.Helper()
	store := newMemStore()
	signer := newFakeSigner()
	users := NewUserService(store, &recordingNotifier{}, &fakeImages{})
	return NewSessionService(store, store, signer), users, store, signer
}

func TestSession_IssueAndVerify(t *testing.T) {
	sessions, users, _, _ := newSessionFixture(t)
	ctx := context.Background()
	u := register(t, users, "a@x.com")

	tok, err := sessions.Issue(ctx, u)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	got, raw, err := sessions.Verify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, tok, raw)
}

func TestSession_MultipleSessionsStayValid(t *testing.T) {
	sessions, users, _, _ := newSessionFixture(t)
	ctx := context.Background()
	u := register(t, users, "a@x.com")

	first, err := sessions.Issue(ctx, u)
	require.NoError(t, err)
	second, err := sessions.Issue(ctx, u)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, _, err = sessions.Verify(ctx, first)
	assert.NoError(t, err)
	_, _, err = sessions.Verify(ctx, second)
	assert.NoError(t, err)
}

func TestSession_RevokeSingle(t *testing.T) {
	sessions, users, _, _ := newSessionFixture(t)
	ctx := context.Background()
	u := register(t, users, "a@x.com")

	first, _ := sessions.Issue(ctx, u)
	second, _ := sessions.Issue(ctx, u)

	require.NoError(t, sessions.Revoke(ctx, u, first))

	_, _, err := sessions.Verify(ctx, first)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, _, err = sessions.Verify(ctx, second)
	assert.NoError(t, err)

	// revoking an already revoked token is harmless
	assert.NoError(t, sessions.Revoke(ctx, u, first))
}

func TestSession_RevokeAll(t *testing.T) {
	sessions, users, _, _ := newSessionFixture(t)
	ctx := context.Background()
	u := register(t, users, "a@x.com")
	other := register(t, users, "b@x.com")

	first, _ := sessions.Issue(ctx, u)
	second, _ := sessions.Issue(ctx, u)
	foreign, _ := sessions.Issue(ctx, other)

	require.NoError(t, sessions.RevokeAll(ctx, u))

	for _, tok := range []string{first, second} {
		_, _, err := sessions.Verify(ctx, tok)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	}
	_, _, err := sessions.Verify(ctx, foreign)
	assert.NoError(t, err)
}

func TestSession_VerifyFailures(t *testing.T) {
	sessions, users, store, _ := newSessionFixture(t)
	ctx := context.Background()
	u := register(t, users, "a@x.com")
	tok, _ := sessions.Issue(ctx, u)

	t.Run("garbage", func(t *testing.T) {
		_, _, err := sessions.Verify(ctx, "not-a-token")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("deleted user", func(t *testing.T) {
		require.NoError(t, users.DeleteUser(ctx, u))
		_, _, err := sessions.Verify(ctx, tok)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("store failure", func(t *testing.T) {
		other := register(t, users, "b@x.com")
		otherTok, _ := sessions.Issue(ctx, other)
		store.failWith = errors.New("db down")
		defer func() { store.failWith = nil }()

		_, _, err := sessions.Verify(ctx, otherTok)
		require.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrUnauthorized)
	})
}

func TestSession_IssueSignerError(t *testing.T) {
	sessions, users, store, signer := newSessionFixture(t)
	u := register(t, users, "a@x.com")
	signer.err = errors.New("sign failed")

	_, err := sessions.Issue(context.Background(), u)
	require.Error(t, err)
	assert.Empty(t, store.tokens[u.ID])
}
