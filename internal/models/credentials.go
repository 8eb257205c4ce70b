package models

import "time"

// PortalCredentials is the per-user secret the Portal Authenticator
// exchanges for a session. Username/password are ciphertext at rest; CSS
// is the only component that decrypts them.
type PortalCredentials struct {
	UserID             string `json:"userId"`
	EncryptedUsername  string `json:"encryptedUsername"`
	EncryptedPassword  string `json:"encryptedPassword"`
	IsBad              bool   `json:"isBad"`
}

// UserSession is the cookie bundle resulting from a successful portal
// login, owned logically by the Portal Authenticator.
type UserSession struct {
	UserID       string    `json:"userId"`
	CookieBundle string    `json:"cookieBundle"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// NearExpiry reports whether no more than margin remains before expiry,
// per spec.md §3: "expired if now + 1h >= expiresAt".
func (s UserSession) NearExpiry(now time.Time, margin time.Duration) bool {
	return now.Add(margin).After(s.ExpiresAt) || now.Add(margin).Equal(s.ExpiresAt)
}
