package sessiongate

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated principal as known to
// the external identity provider.
type Identity interface {
	ID() string
	Email() string
	DisplayName() string
}

// IdentityProvider is the consumed surface of the external identity service.
// SubscribeAuthState delivers the current identity immediately and then every
// sign-in/sign-out transition; the returned func cancels the subscription.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context) error
	SubscribeAuthState(fn func(Identity)) (unsubscribe func())
	UpdateDisplayName(ctx context.Context, id string, name string) error
	UpdatePassword(ctx context.Context, id string, newPassword string) error
	DeleteIdentity(ctx context.Context, id string) error
}

// ProfileLookup reads the authorization record keyed by identity id. A missing
// record returns ErrProfileNotFound, never a nil-nil pair.
type ProfileLookup interface {
	GetByIdentity(ctx context.Context, id string) (*Profile, error)
}

// IdentityPurger is the privileged remote capability that removes an identity
// from the provider. Only the server-side PurgeService is expected to hold a
// credentialed implementation.
type IdentityPurger interface {
	DeleteIdentityAuth(ctx context.Context, uid string) (*PurgeReceipt, error)
}

// PurgeReceipt is the capability's success payload.
type PurgeReceipt struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GuardConfig supplies the redirect targets the guard middleware uses.
type GuardConfig interface {
	GetLoginRoute() string
	GetLockedRoute() string
	GetUnauthorizedRoute() string
	GetLandingRoute() string
}

// TokenConfig supplies settings for minting and verifying identity tokens.
type TokenConfig interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSIONGATE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSIONGATE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSIONGATE "+newline(format), args...)
}

func newline(format string) string {
	if len(format) == 0 || format[len(format)-1] != '\n' {
		return format + "\n"
	}
	return format
}
