package ports

import "context"

// TokenKey is the fixed storage key of the session token.
const TokenKey = "authToken"

// TokenStore persists the session token across restarts (file, Redis, memory).
type TokenStore interface {
	// Load returns the stored token, or "" when none is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	// Watch calls fn with the new value whenever the token is changed by
	// another process. Writes made through this store are not reported.
	// It returns once the watch is established; the watch ends with ctx.
	Watch(ctx context.Context, fn func(token string)) error
}

// Notifier shows transient notices to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}
