package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/zipcase/internal/cryptutil"
	"github.com/nexconsult/zipcase/internal/models"
)

func setupCredentialStore(t *testing.T) (*CredentialStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	provider, err := cryptutil.NewStaticKeyProvider("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	sealer := cryptutil.NewSealer("test-key", provider)

	return NewCredentialStore(client, sealer), mr
}

func TestCredentialStore_SaveAndRetrieve(t *testing.T) {
	s, mr := setupCredentialStore(t)
	defer mr.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveCredentials(ctx, "user-1", "jdoe", "hunter2"))

	creds, err := s.Credentials(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", creds.Username)
	assert.Equal(t, "hunter2", creds.Password)
	assert.False(t, creds.IsBad)
}

func TestCredentialStore_NotFound(t *testing.T) {
	s, mr := setupCredentialStore(t)
	defer mr.Close()

	_, err := s.Credentials(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCredentialStore_MarkBad(t *testing.T) {
	s, mr := setupCredentialStore(t)
	defer mr.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveCredentials(ctx, "user-1", "jdoe", "hunter2"))
	require.NoError(t, s.MarkBad(ctx, "user-1"))

	creds, err := s.Credentials(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, creds.IsBad)
}

func TestCredentialStore_SessionRoundTrip(t *testing.T) {
	s, mr := setupCredentialStore(t)
	defer mr.Close()

	ctx := context.Background()
	session := models.UserSession{
		UserID:       "user-1",
		CookieBundle: "sessionid=abc123",
		ExpiresAt:    time.Now().Add(2 * time.Hour),
	}
	require.NoError(t, s.PutSession(ctx, "user-1", session))

	got, err := s.Session(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, session.CookieBundle, got.CookieBundle)
}

func TestCredentialStore_SessionExpires(t *testing.T) {
	s, mr := setupCredentialStore(t)
	defer mr.Close()

	ctx := context.Background()
	session := models.UserSession{
		UserID:       "user-1",
		CookieBundle: "sessionid=abc123",
		ExpiresAt:    time.Now().Add(time.Second),
	}
	require.NoError(t, s.PutSession(ctx, "user-1", session))

	mr.FastForward(2 * time.Second)

	_, err := s.Session(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCredentialStore_UserAgent_FallsBackToDefaults(t *testing.T) {
	s, mr := setupCredentialStore(t)
	defer mr.Close()

	ua, err := s.UserAgent(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Contains(t, defaultUserAgents, ua)
}

func TestCredentialStore_UserAgent_PinnedWins(t *testing.T) {
	s, mr := setupCredentialStore(t)
	defer mr.Close()

	ctx := context.Background()
	require.NoError(t, s.SetUserAgent(ctx, "user-1", "custom-agent/1.0"))

	ua, err := s.UserAgent(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "custom-agent/1.0", ua)
}

func TestCredentialStore_SeedUserAgentCollection(t *testing.T) {
	s, mr := setupCredentialStore(t)
	defer mr.Close()

	ctx := context.Background()
	require.NoError(t, s.SeedUserAgentCollection(ctx, "pool-agent/1.0"))

	ua, err := s.UserAgent(ctx, "user-without-pin")
	require.NoError(t, err)
	assert.Equal(t, "pool-agent/1.0", ua)
}
