package portal

import "errors"

// ErrTransient marks a portal response that is retryable: network
// failure or 5xx. Callers leave the originating queue message unacked
// so the queue redelivers, per spec.md §4.6's retry discipline.
var ErrTransient = errors.New("portal: transient error")

// ErrSessionExpired marks a response that looks like a login redirect;
// callers should refresh the session via the authenticator and retry
// once, per spec.md §5's "cookie bundle" contract.
var ErrSessionExpired = errors.New("portal: session expired")

// ErrPortalBusy marks the portal's "having trouble processing" sentinel,
// translated by the resolve worker into failed{"portal_busy"}.
var ErrPortalBusy = errors.New("portal: busy")

// ErrInvalidCredentials marks a login response containing the portal's
// rejection sentinel.
var ErrInvalidCredentials = errors.New("portal: invalid email or password")
