package sessiongate

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
)

// DefaultResolveTimeout bounds each profile resolution. A hung lookup must
// not hang the authorization decision; timeout counts as resolution failure.
var DefaultResolveTimeout = 12 * time.Second

// AuthStateErrorNotifier is optionally implemented by providers whose
// auth-state stream itself can fail. The watcher treats a stream failure as
// signed out so the client still reaches a terminal, non-loading state.
type AuthStateErrorNotifier interface {
	SubscribeAuthErrors(fn func(error)) (unsubscribe func())
}

// ErrWatcherStarted is returned when Start is called on a running watcher.
var ErrWatcherStarted = errors.New("watcher already started", errors.CategoryConflict).
	WithCode(errors.CodeConflict)

// Watcher maintains the single subscription to the identity provider's
// auth-state stream and is the only writer of the session Store.
//
// Events are processed strictly in arrival order. Each event gets a sequence
// number; a newer event cancels the in-flight resolution of the previous one,
// and a resolution whose sequence is no longer current never reaches the
// store. That closes the fast double sign-in/sign-out race where a stale
// lookup would otherwise land last.
type Watcher struct {
	provider IdentityProvider
	resolver *Resolver
	store    *Store
	logger   Logger
	timeout  time.Duration

	mu       sync.Mutex // guards seq, cancel, stopped, unsubs
	procMu   sync.Mutex // serializes event handling end to end
	seq      uint64
	cancel   context.CancelFunc
	stopped  bool
	unsubs   []func()
}

// WatcherOption customizes watcher behavior.
type WatcherOption func(*Watcher)

// WithWatcherLogger overrides the default logger.
func WithWatcherLogger(l Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithResolveTimeout bounds each profile resolution (useful for tests).
func WithResolveTimeout(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// NewWatcher wires the provider stream to the store through the resolver.
func NewWatcher(provider IdentityProvider, resolver *Resolver, store *Store, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		provider: provider,
		resolver: resolver,
		store:    store,
		logger:   defLogger{},
		timeout:  DefaultResolveTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start subscribes to the provider's auth-state stream. The loading flag is
// raised before the subscription lands so no consumer observes a settled
// session ahead of the first resolution.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if len(w.unsubs) > 0 {
		w.mu.Unlock()
		return ErrWatcherStarted
	}
	w.stopped = false
	w.mu.Unlock()

	w.store.publish(Session{IsActive: true, Loading: true})

	unsub := w.provider.SubscribeAuthState(w.handleAuthState)

	w.mu.Lock()
	w.unsubs = append(w.unsubs, unsub)
	w.mu.Unlock()

	if notifier, ok := w.provider.(AuthStateErrorNotifier); ok {
		errUnsub := notifier.SubscribeAuthErrors(w.handleStreamError)
		w.mu.Lock()
		w.unsubs = append(w.unsubs, errUnsub)
		w.mu.Unlock()
	}

	return nil
}

// Stop tears the subscription down. No store mutation happens afterwards,
// including from resolutions already in flight.
func (w *Watcher) Stop() {
	w.mu.Lock()
	w.stopped = true
	w.seq++
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	unsubs := w.unsubs
	w.unsubs = nil
	w.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

func (w *Watcher) handleAuthState(identity Identity) {
	seq, ctx, cancel, ok := w.nextEvent()
	if !ok {
		return
	}
	defer cancel()

	// The forced sign-out runs after procMu is released: providers may
	// deliver the resulting signed-out event synchronously back into this
	// handler on the same goroutine, which must not find the lock held.
	// A newer event or a Stop in the meantime makes the sign-out stale.
	if w.processAuthState(seq, ctx, identity) && w.isCurrent(seq) {
		if err := w.provider.SignOut(context.Background()); err != nil {
			w.logger.Error("sign-out after missing profile failed", "error", err)
		}
	}
}

// processAuthState publishes the session transitions for one event and
// reports whether the strict policy demands a provider sign-out.
func (w *Watcher) processAuthState(seq uint64, ctx context.Context, identity Identity) bool {
	w.procMu.Lock()
	defer w.procMu.Unlock()

	if !w.isCurrent(seq) {
		return false
	}

	if identity == nil {
		// signed out: neutral defaults, resolution settled
		w.publish(seq, Session{IsActive: true, Loading: false})
		return false
	}

	// Identity lands first so identity-dependent UI can react, but Loading
	// stays raised until the role resolution settles, so the guard still
	// reports PENDING for this intermediate state.
	w.publish(seq, Session{Identity: identity, IsActive: true, Loading: true})

	resolution, err := w.resolver.Resolve(ctx, identity)
	switch {
	case err == nil:
		w.publish(seq, Session{
			Identity: identity,
			Role:     resolution.Role,
			IsActive: resolution.IsActive,
			Loading:  false,
		})
	case IsProfileNotFound(err):
		// strict policy: an identity with no profile is a stale or purged
		// account and must not keep a session
		w.logger.Info("no profile for identity, forcing sign-out", "identity", identity.ID())
		w.publish(seq, Session{IsActive: true, Loading: false})
		return true
	default:
		// resolution failure or timeout: treat as unauthenticated locally,
		// the provider-side state is untouched and the next cycle retries
		w.logger.Error("profile resolution failed, treating as signed out", "error", err)
		w.publish(seq, Session{IsActive: true, Loading: false})
	}
	return false
}

func (w *Watcher) handleStreamError(err error) {
	seq, _, cancel, ok := w.nextEvent()
	if !ok {
		return
	}
	defer cancel()

	w.procMu.Lock()
	defer w.procMu.Unlock()

	w.logger.Error("auth-state stream failed, treating as signed out", "error", err)
	w.publish(seq, Session{IsActive: true, Loading: false})
}

// nextEvent claims a sequence number for a fresh event and cancels whatever
// resolution is still in flight for the previous one.
func (w *Watcher) nextEvent() (uint64, context.Context, context.CancelFunc, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return 0, nil, nil, false
	}

	w.seq++
	seq := w.seq

	if w.cancel != nil {
		w.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	w.cancel = cancel

	return seq, ctx, cancel, true
}

func (w *Watcher) isCurrent(seq uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.stopped && seq == w.seq
}

// publish forwards to the store only while seq is still the newest event.
func (w *Watcher) publish(seq uint64, session Session) {
	if !w.isCurrent(seq) {
		return
	}
	w.store.publish(session)
}
