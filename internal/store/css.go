package store

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexconsult/zipcase/internal/cryptutil"
	"github.com/nexconsult/zipcase/internal/models"
)

// ErrNotFound is returned by store readers when a key has never been
// seeded, distinguishing "absent" from "zero value".
var ErrNotFound = errors.New("store: not found")

// defaultUserAgents is the process-wide fallback bank used when a user
// has no rotating agent recorded yet, per spec.md §4.3.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// CredentialStore is the Credential & Session Store (CSS).
type CredentialStore struct {
	client *redis.Client
	sealer *cryptutil.Sealer
}

func NewCredentialStore(client *redis.Client, sealer *cryptutil.Sealer) *CredentialStore {
	return &CredentialStore{client: client, sealer: sealer}
}

// DecryptedCredentials is the plaintext view of PortalCredentials; PA
// needs this to perform a portal login.
type DecryptedCredentials struct {
	Username string
	Password string
	IsBad    bool
}

// SaveCredentials encrypts and persists username/password for userID,
// clearing any prior isBad flag.
func (s *CredentialStore) SaveCredentials(ctx context.Context, userID, username, password string) error {
	encUsername, err := s.sealer.Seal(username)
	if err != nil {
		return err
	}
	encPassword, err := s.sealer.Seal(password)
	if err != nil {
		return err
	}

	creds := models.PortalCredentials{
		UserID:            userID,
		EncryptedUsername: encUsername,
		EncryptedPassword: encPassword,
		IsBad:             false,
	}
	payload, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, userCredentialsKey(userID), payload, 0).Err()
}

// Credentials returns the decrypted credentials for userID, or
// ErrNotFound if none have been saved.
func (s *CredentialStore) Credentials(ctx context.Context, userID string) (*DecryptedCredentials, error) {
	raw, err := s.client.Get(ctx, userCredentialsKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var creds models.PortalCredentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, err
	}

	username, err := s.sealer.Open(creds.EncryptedUsername)
	if err != nil {
		return nil, err
	}
	password, err := s.sealer.Open(creds.EncryptedPassword)
	if err != nil {
		return nil, err
	}

	return &DecryptedCredentials{Username: username, Password: password, IsBad: creds.IsBad}, nil
}

// MarkBad flags userID's credentials as rejected by the portal, per
// spec.md §4.3/§7: this prevents repeated account-locking login
// attempts until credentials are re-saved.
func (s *CredentialStore) MarkBad(ctx context.Context, userID string) error {
	raw, err := s.client.Get(ctx, userCredentialsKey(userID)).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var creds models.PortalCredentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return err
	}
	creds.IsBad = true

	payload, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, userCredentialsKey(userID), payload, 0).Err()
}

// Session returns the most recently persisted UserSession for userID, or
// ErrNotFound.
func (s *CredentialStore) Session(ctx context.Context, userID string) (*models.UserSession, error) {
	raw, err := s.client.Get(ctx, userSessionKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var session models.UserSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// PutSession persists a freshly established session, expiring the Redis
// key alongside the session's own expiry so stale cookies are never
// served past their lifetime.
func (s *CredentialStore) PutSession(ctx context.Context, userID string, session models.UserSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, userSessionKey(userID), payload, ttl).Err()
}

// UserAgent returns a rotating per-user user-agent string, falling back
// to the process-wide collection when the user has none recorded.
func (s *CredentialStore) UserAgent(ctx context.Context, userID string) (string, error) {
	ua, err := s.client.Get(ctx, userAgentKey(userID)).Result()
	if err == nil && ua != "" {
		return ua, nil
	}
	if err != nil && err != redis.Nil {
		return "", err
	}

	pool, err := s.client.SMembers(ctx, userAgentCollectionKey).Result()
	if err != nil {
		return "", err
	}
	if len(pool) == 0 {
		pool = defaultUserAgents
	}
	return pool[rand.Intn(len(pool))], nil
}

// SetUserAgent pins a specific rotating user-agent for userID.
func (s *CredentialStore) SetUserAgent(ctx context.Context, userID, userAgent string) error {
	return s.client.Set(ctx, userAgentKey(userID), userAgent, 0).Err()
}

// SeedUserAgentCollection adds entries to the shared process-wide bank.
func (s *CredentialStore) SeedUserAgentCollection(ctx context.Context, agents ...string) error {
	if len(agents) == 0 {
		return nil
	}
	members := make([]interface{}, len(agents))
	for i, a := range agents {
		members[i] = a
	}
	return s.client.SAdd(ctx, userAgentCollectionKey, members...).Err()
}
