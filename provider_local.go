package sessiongate

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RecentLoginWindow is how long after a sign-in the provider will accept
// sensitive updates (password changes) before demanding fresh credentials.
var RecentLoginWindow = 5 * time.Minute

// LocalProvider is a self-hosted IdentityProvider backed by the identities
// collection. It exists so the whole authorization core can run without the
// managed provider: deployments against the real one only need the consumed
// interface plus a TokenVerifier for its ID tokens.
type LocalProvider struct {
	identities Identities
	tokens     *TokenService
	logger     Logger
	activity   ActivitySink
	window     time.Duration
	now        func() time.Time

	mu      sync.Mutex
	current Identity
	subs    map[int]func(Identity)
	nextID  int
}

// LocalProviderOption customizes provider construction.
type LocalProviderOption func(*LocalProvider)

// WithProviderLogger overrides the default logger.
func WithProviderLogger(l Logger) LocalProviderOption {
	return func(p *LocalProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProviderActivitySink sets the sink receiving auth events.
func WithProviderActivitySink(sink ActivitySink) LocalProviderOption {
	return func(p *LocalProvider) {
		p.activity = normalizeActivitySink(sink)
	}
}

// WithRecentLoginWindow overrides the sensitive-update window.
func WithRecentLoginWindow(d time.Duration) LocalProviderOption {
	return func(p *LocalProvider) {
		if d > 0 {
			p.window = d
		}
	}
}

// WithProviderClock injects a custom clock (useful for tests).
func WithProviderClock(clock func() time.Time) LocalProviderOption {
	return func(p *LocalProvider) {
		if clock != nil {
			p.now = clock
		}
	}
}

// NewLocalProvider builds a provider over the identities collection.
func NewLocalProvider(identities Identities, tokens *TokenService, opts ...LocalProviderOption) *LocalProvider {
	p := &LocalProvider{
		identities: identities,
		tokens:     tokens,
		logger:     defLogger{},
		activity:   noopActivitySink{},
		window:     RecentLoginWindow,
		now:        time.Now,
		subs:       map[int]func(Identity){},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ IdentityProvider = (*LocalProvider)(nil)

// SignIn verifies credentials and makes the identity current. A missing
// account reports the same mismatch error as a wrong password.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	record, err := p.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			p.emitActivity(ctx, ActivityEventSignInFailure, "", map[string]any{"email": email})
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve identity during sign-in")
	}

	if err := ComparePasswordAndHash(password, record.PasswordHash); err != nil {
		p.emitActivity(ctx, ActivityEventSignInFailure, record.ID.String(), nil)
		return nil, err
	}

	if err := p.identities.TrackSignIn(ctx, record.ID); err != nil {
		p.logger.Error("failed to track sign-in", "identity", record.ID, "error", err)
	}
	now := p.now()
	record.LastSignInAt = &now

	identity := NewIdentityFromRecord(record)
	p.setCurrent(identity)
	p.emitActivity(ctx, ActivityEventSignInSuccess, record.ID.String(), nil)
	return identity, nil
}

// SignUp creates the identity record and signs it in. The caller is expected
// to follow with the paired profile write; the two are not atomic and the
// resolver's fallback covers the window in between.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (Identity, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid password provided")
	}

	record, err := p.identities.Create(ctx, &IdentityRecord{
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	now := p.now()
	record.LastSignInAt = &now
	if err := p.identities.TrackSignIn(ctx, record.ID); err != nil {
		p.logger.Error("failed to track initial sign-in", "identity", record.ID, "error", err)
	}

	identity := NewIdentityFromRecord(record)
	p.setCurrent(identity)
	p.emitActivity(ctx, ActivityEventSignUp, record.ID.String(), nil)
	return identity, nil
}

// SignOut clears the current identity and notifies the stream.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	was := p.current
	p.mu.Unlock()

	p.setCurrent(nil)
	if was != nil {
		p.emitActivity(ctx, ActivityEventSignOut, was.ID(), nil)
	}
	return nil
}

// SubscribeAuthState registers fn and immediately delivers the current state,
// then every transition until the returned func is called.
func (p *LocalProvider) SubscribeAuthState(fn func(Identity)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	current := p.current
	p.mu.Unlock()

	fn(current)

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// UpdateDisplayName writes through to the identity record.
func (p *LocalProvider) UpdateDisplayName(ctx context.Context, id string, name string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid identity id")
	}
	return p.identities.UpdateDisplayName(ctx, uid, name)
}

// UpdatePassword rehashes and stores the password, provided the identity
// signed in recently enough. Otherwise ErrRequiresRecentLogin: the caller
// must sign the user out and send them back through login, because retrying
// with the same stale session will loop.
func (p *LocalProvider) UpdatePassword(ctx context.Context, id string, newPassword string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid identity id")
	}

	record, err := p.identities.GetByID(ctx, uid)
	if err != nil {
		return err
	}

	if record.LastSignInAt == nil || p.now().Sub(*record.LastSignInAt) > p.window {
		return ErrRequiresRecentLogin
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid password provided")
	}

	return p.identities.UpdatePasswordHash(ctx, uid, hash)
}

// DeleteIdentity removes the identity record. Privileged: only the purge
// capability's server side should reach this after its own checks. Deleting
// the currently signed-in identity also drops the live session.
func (p *LocalProvider) DeleteIdentity(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid identity id")
	}

	if err := p.identities.Delete(ctx, uid); err != nil {
		return err
	}

	p.mu.Lock()
	wasCurrent := p.current != nil && p.current.ID() == id
	p.mu.Unlock()
	if wasCurrent {
		p.setCurrent(nil)
	}

	p.emitActivity(ctx, ActivityEventIdentityPurged, id, nil)
	return nil
}

// IssueToken mints an ID token for the identity, for cookie/bearer transport.
func (p *LocalProvider) IssueToken(identity Identity) (string, error) {
	if p.tokens == nil {
		return "", errors.New("provider has no token service", errors.CategoryInternal)
	}
	return p.tokens.Generate(identity)
}

// CurrentIdentity returns the signed-in identity, nil when signed out.
func (p *LocalProvider) CurrentIdentity() Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *LocalProvider) setCurrent(identity Identity) {
	p.mu.Lock()
	p.current = identity
	fns := make([]func(Identity), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(identity)
	}
}

func (p *LocalProvider) emitActivity(ctx context.Context, event ActivityEventType, target string, meta map[string]any) {
	err := p.activity.Record(ctx, ActivityEvent{
		EventType:  event,
		TargetID:   target,
		Metadata:   meta,
		OccurredAt: p.now(),
	})
	if err != nil {
		p.logger.Error("activity sink failed", "event", event, "error", err)
	}
}
