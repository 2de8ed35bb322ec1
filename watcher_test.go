package sessiongate_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/oakline/go-sessiongate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// gateLookup blocks every profile read until release is closed, honoring
// cancellation like a real store client would.
type gateLookup struct {
	release chan struct{}
	profile *sessiongate.Profile
	err     error
}

func (g *gateLookup) GetByIdentity(ctx context.Context, id string) (*sessiongate.Profile, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.profile, nil
}

// sessionRecorder captures every store publication in order.
type sessionRecorder struct {
	mu       sync.Mutex
	sessions []sessiongate.Session
}

func (r *sessionRecorder) record(s sessiongate.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
}

func (r *sessionRecorder) all() []sessiongate.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sessiongate.Session{}, r.sessions...)
}

func TestWatcherStartSettlesSignedOut(t *testing.T) {
	provider := &stubProvider{}
	lookup := new(MockProfileLookup)
	store := sessiongate.NewStore()
	recorder := &sessionRecorder{}
	store.Subscribe(recorder.record)

	watcher := sessiongate.NewWatcher(provider, sessiongate.NewResolver(lookup), store)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	// initial delivery carries no identity, the session settles signed out
	session := store.Current()
	assert.False(t, session.Loading)
	assert.False(t, session.Authenticated())
	assert.True(t, session.IsActive)

	// the loading publish preceded the settled one
	seen := recorder.all()
	require.GreaterOrEqual(t, len(seen), 2)
	assert.True(t, seen[0].Loading)
	assert.False(t, seen[len(seen)-1].Loading)
}

func TestWatcherSignInResolvesRole(t *testing.T) {
	provider := &stubProvider{}
	lookup := new(MockProfileLookup)
	lookup.On("GetByIdentity", mock.Anything, "a1").Return(&sessiongate.Profile{
		IdentityID: "a1",
		Role:       sessiongate.RoleAdmin,
	}, nil)

	store := sessiongate.NewStore()
	watcher := sessiongate.NewWatcher(provider, sessiongate.NewResolver(lookup), store)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	provider.Emit(sessiongate.StaticIdentity{UID: "a1", Mail: "admin@example.com"})

	session := store.Current()
	assert.False(t, session.Loading)
	assert.True(t, session.Authenticated())
	assert.Equal(t, sessiongate.RoleAdmin, session.Role)
	assert.True(t, session.IsActive)
	assert.Equal(t, "a1", session.Identity.ID())
}

func TestWatcherRevealsIdentityBeforeResolution(t *testing.T) {
	provider := &stubProvider{}
	lookup := &gateLookup{
		release: make(chan struct{}),
		profile: &sessiongate.Profile{IdentityID: "u1", Role: sessiongate.RoleUser},
	}

	store := sessiongate.NewStore()
	watcher := sessiongate.NewWatcher(provider, sessiongate.NewResolver(lookup), store)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	go provider.Emit(sessiongate.StaticIdentity{UID: "u1"})

	// identity is visible while the role still resolves, loading stays up
	require.Eventually(t, func() bool {
		s := store.Current()
		return s.Authenticated() && s.Loading
	}, time.Second, time.Millisecond)

	close(lookup.release)

	require.Eventually(t, func() bool {
		s := store.Current()
		return !s.Loading && s.Role == sessiongate.RoleUser
	}, time.Second, time.Millisecond)
}

func TestWatcherMissingProfileForcesSignOut(t *testing.T) {
	provider := &stubProvider{}
	// real providers deliver the signed-out event synchronously from within
	// SignOut, on the same goroutine; the handler must survive re-entry
	provider.signOutHook = func() { provider.Emit(nil) }

	lookup := new(MockProfileLookup)
	lookup.On("GetByIdentity", mock.Anything, "ghost").Return(nil, sessiongate.ErrProfileNotFound)

	store := sessiongate.NewStore()
	watcher := sessiongate.NewWatcher(provider, sessiongate.NewResolver(lookup), store)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	done := make(chan struct{})
	go func() {
		provider.Emit(sessiongate.StaticIdentity{UID: "ghost"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("auth-state delivery never returned, forced sign-out re-entered a held lock")
	}

	session := store.Current()
	assert.False(t, session.Loading)
	assert.False(t, session.Authenticated())
	assert.Equal(t, 1, provider.SignOutCount(), "strict policy signs the orphan identity out")
}

func TestWatcherLookupFailureTreatsAsSignedOut(t *testing.T) {
	provider := &stubProvider{}
	lookup := new(MockProfileLookup)
	lookup.On("GetByIdentity", mock.Anything, "u1").
		Return(nil, errors.New("store unavailable", errors.CategoryOperation))

	store := sessiongate.NewStore()
	watcher := sessiongate.NewWatcher(provider, sessiongate.NewResolver(lookup), store)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	provider.Emit(sessiongate.StaticIdentity{UID: "u1"})

	session := store.Current()
	assert.False(t, session.Loading)
	assert.False(t, session.Authenticated())
	// transient failure is not the missing-profile case, no forced sign-out
	assert.Equal(t, 0, provider.SignOutCount())
}

func TestWatcherStaleResolutionNeverLands(t *testing.T) {
	provider := &stubProvider{}
	lookup := &gateLookup{
		release: make(chan struct{}),
		profile: &sessiongate.Profile{IdentityID: "u1", Role: sessiongate.RoleAdmin},
	}

	store := sessiongate.NewStore()
	recorder := &sessionRecorder{}
	store.Subscribe(recorder.record)

	watcher := sessiongate.NewWatcher(provider, sessiongate.NewResolver(lookup), store)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	go provider.Emit(sessiongate.StaticIdentity{UID: "u1"})

	require.Eventually(t, func() bool {
		return store.Current().Authenticated()
	}, time.Second, time.Millisecond)

	// sign-out arrives while the first resolution is still in flight
	provider.Emit(nil)

	require.Eventually(t, func() bool {
		s := store.Current()
		return !s.Loading && !s.Authenticated()
	}, time.Second, time.Millisecond)

	close(lookup.release)
	time.Sleep(20 * time.Millisecond)

	// the superseded resolution must not have reached the store
	assert.False(t, store.Current().Authenticated())
	for _, s := range recorder.all() {
		assert.NotEqual(t, sessiongate.RoleAdmin, s.Role, "stale resolution leaked into the store")
	}
}

func TestWatcherResolveTimeout(t *testing.T) {
	provider := &stubProvider{}
	lookup := &gateLookup{release: make(chan struct{})} // never released

	store := sessiongate.NewStore()
	watcher := sessiongate.NewWatcher(
		provider,
		sessiongate.NewResolver(lookup),
		store,
		sessiongate.WithResolveTimeout(20*time.Millisecond),
	)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	provider.Emit(sessiongate.StaticIdentity{UID: "u1"})

	session := store.Current()
	assert.False(t, session.Loading, "a hung lookup must not hang the session")
	assert.False(t, session.Authenticated())
}

func TestWatcherStreamErrorSettlesSignedOut(t *testing.T) {
	provider := &stubProvider{}
	lookup := new(MockProfileLookup)
	lookup.On("GetByIdentity", mock.Anything, "u1").Return(&sessiongate.Profile{
		IdentityID: "u1",
		Role:       sessiongate.RoleUser,
	}, nil)

	store := sessiongate.NewStore()
	watcher := sessiongate.NewWatcher(provider, sessiongate.NewResolver(lookup), store)
	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	provider.Emit(sessiongate.StaticIdentity{UID: "u1"})
	require.True(t, store.Current().Authenticated())

	provider.EmitError(errors.New("stream torn down", errors.CategoryOperation))

	session := store.Current()
	assert.False(t, session.Loading)
	assert.False(t, session.Authenticated())
}

func TestWatcherStopFreezesStore(t *testing.T) {
	provider := &stubProvider{}
	lookup := new(MockProfileLookup)
	lookup.On("GetByIdentity", mock.Anything, mock.Anything).Return(&sessiongate.Profile{
		IdentityID: "u1",
		Role:       sessiongate.RoleUser,
	}, nil)

	store := sessiongate.NewStore()
	watcher := sessiongate.NewWatcher(provider, sessiongate.NewResolver(lookup), store)
	require.NoError(t, watcher.Start())

	watcher.Stop()
	before := store.Current()

	provider.Emit(sessiongate.StaticIdentity{UID: "u1"})

	assert.Equal(t, before, store.Current(), "no store mutation after Stop")
}

func TestWatcherDoubleStart(t *testing.T) {
	provider := &stubProvider{}
	store := sessiongate.NewStore()
	watcher := sessiongate.NewWatcher(provider, sessiongate.NewResolver(new(MockProfileLookup)), store)

	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	assert.ErrorIs(t, watcher.Start(), sessiongate.ErrWatcherStarted)
}
