package portal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/nexconsult/zipcase/internal/apperr"
	"github.com/nexconsult/zipcase/internal/config"
	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/store"
)

// loginRate bounds how often a single user may attempt a portal login;
// the upstream account can be locked by repeated failed attempts, so
// this is deliberately conservative (one attempt every 10s, burst 1),
// the same shape as the teacher's captcha client's rate.Limiter use.
const loginRate = 10 * time.Second

// call coalesces concurrent GetOrCreateSession callers for the same
// user onto a single in-flight login, per spec.md §4.3's concurrency
// contract.
type call struct {
	wg     sync.WaitGroup
	result *models.UserSession
	err    error
}

// Authenticator is the Portal Authenticator (PA).
type Authenticator struct {
	client *Client
	css    *store.CredentialStore
	margin time.Duration
	logger *logrus.Logger

	mu       sync.Mutex
	inFlight map[string]*call
	limiters map[string]*rate.Limiter
}

func NewAuthenticator(client *Client, css *store.CredentialStore, cfg config.PortalConfig, logger *logrus.Logger) *Authenticator {
	return &Authenticator{
		client:   client,
		css:      css,
		margin:   cfg.SessionMargin,
		logger:   logger,
		inFlight: make(map[string]*call),
		limiters: make(map[string]*rate.Limiter),
	}
}

// GetOrCreateSession implements spec.md §4.3: reuse a non-near-expiry
// session if one exists, otherwise log in, coalescing concurrent callers
// for the same user onto a single attempt.
func (a *Authenticator) GetOrCreateSession(ctx context.Context, userID, userAgent string) (*models.UserSession, error) {
	session, err := a.css.Session(ctx, userID)
	if err == nil && !session.NearExpiry(time.Now(), a.margin) {
		return session, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if userAgent == "" {
		userAgent, err = a.css.UserAgent(ctx, userID)
		if err != nil {
			return nil, err
		}
	}
	return a.coalescedLogin(ctx, userID, userAgent)
}

func (a *Authenticator) coalescedLogin(ctx context.Context, userID, userAgent string) (*models.UserSession, error) {
	a.mu.Lock()
	if c, ok := a.inFlight[userID]; ok {
		a.mu.Unlock()
		c.wg.Wait()
		return c.result, c.err
	}

	c := &call{}
	c.wg.Add(1)
	a.inFlight[userID] = c
	a.mu.Unlock()

	c.result, c.err = a.login(ctx, userID, userAgent)

	a.mu.Lock()
	delete(a.inFlight, userID)
	a.mu.Unlock()
	c.wg.Done()

	return c.result, c.err
}

func (a *Authenticator) login(ctx context.Context, userID, userAgent string) (*models.UserSession, error) {
	creds, err := a.css.Credentials(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.NoCredentials, "no portal credentials saved for this user")
	}
	if err != nil {
		return nil, err
	}
	if creds.IsBad {
		return nil, apperr.New(apperr.BadCredentials, "portal credentials were previously rejected")
	}

	if err := a.limiterFor(userID).Wait(ctx); err != nil {
		return nil, err
	}

	session, err := a.client.Login(ctx, creds.Username, creds.Password, userAgent)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if markErr := a.css.MarkBad(ctx, userID); markErr != nil {
				a.logger.WithError(markErr).WithField("userId", userID).Warn("auth: failed to mark credentials bad")
			}
			return nil, apperr.New(apperr.BadCredentials, "invalid email or password")
		}
		if errors.Is(err, ErrTransient) {
			return nil, apperr.Wrap(apperr.PortalUnavailable, err)
		}
		return nil, apperr.Wrap(apperr.Internal, err)
	}

	session.UserID = userID
	if err := a.css.PutSession(ctx, userID, *session); err != nil {
		return nil, err
	}
	return session, nil
}

func (a *Authenticator) limiterFor(userID string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()
	if l, ok := a.limiters[userID]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(loginRate), 1)
	a.limiters[userID] = l
	return l
}

// Refresh forces a new login for userID, used by workers when a cookie
// bundle was stale (spec.md §5: "readers tolerate a stale bundle...
// invokes PA to refresh and retries once").
func (a *Authenticator) Refresh(ctx context.Context, userID, userAgent string) (*models.UserSession, error) {
	return a.coalescedLogin(ctx, userID, userAgent)
}
