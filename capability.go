package sessiongate

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
)

// PurgeService is the server side of the privileged delete capability. It
// re-derives the caller's role from the profile store on every call; nothing
// the client claims about itself is trusted.
//
// Preconditions run in a fixed order: authentication, then role, then
// argument shape. No provider call happens before all three pass.
type PurgeService struct {
	profiles ProfileLookup
	provider IdentityProvider
	logger   Logger
	activity ActivitySink
}

// NewPurgeService wires the capability over the profile store and provider.
func NewPurgeService(profiles ProfileLookup, provider IdentityProvider) *PurgeService {
	return &PurgeService{
		profiles: profiles,
		provider: provider,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (s *PurgeService) WithLogger(l Logger) *PurgeService {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *PurgeService) WithActivitySink(sink ActivitySink) *PurgeService {
	s.activity = normalizeActivitySink(sink)
	return s
}

// Purge deletes the target identity from the provider only. The profile
// document is untouched; callers wanting full cleanup delete it separately.
func (s *PurgeService) Purge(ctx context.Context, caller Identity, uid string) (*PurgeReceipt, error) {
	if caller == nil || caller.ID() == "" {
		return nil, ErrUnauthenticated
	}

	callerProfile, err := s.profiles.GetByIdentity(ctx, caller.ID())
	if err != nil {
		if IsProfileNotFound(err) {
			return nil, ErrPermissionDenied
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not verify caller role")
	}
	if callerProfile.Role != RoleAdmin {
		return nil, ErrPermissionDenied
	}

	if uid == "" {
		return nil, ErrInvalidArgument
	}

	if err := s.provider.DeleteIdentity(ctx, uid); err != nil {
		s.logger.Error("identity purge failed", "uid", uid, "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "identity purge failed").
			WithTextCode(textCodePurgeFailed)
	}

	s.emitActivity(ctx, caller.ID(), uid)

	return &PurgeReceipt{
		Success: true,
		Message: fmt.Sprintf("identity %s purged from the provider", uid),
	}, nil
}

func (s *PurgeService) emitActivity(ctx context.Context, actor, target string) {
	err := s.activity.Record(ctx, ActivityEvent{
		EventType: ActivityEventIdentityPurged,
		ActorID:   actor,
		TargetID:  target,
	})
	if err != nil {
		s.logger.Error("activity sink failed", "event", ActivityEventIdentityPurged, "error", err)
	}
}

// BoundPurger binds a PurgeService to a caller supplier, yielding the
// client-side IdentityPurger shape: the caller credential travels implicitly.
type BoundPurger struct {
	service *PurgeService
	caller  func() Identity
}

// NewBoundPurger builds an IdentityPurger whose caller is read at call time,
// typically from the admin's own session store.
func NewBoundPurger(service *PurgeService, caller func() Identity) *BoundPurger {
	return &BoundPurger{service: service, caller: caller}
}

var _ IdentityPurger = (*BoundPurger)(nil)

// DeleteIdentityAuth satisfies IdentityPurger.
func (b *BoundPurger) DeleteIdentityAuth(ctx context.Context, uid string) (*PurgeReceipt, error) {
	var caller Identity
	if b.caller != nil {
		caller = b.caller()
	}
	return b.service.Purge(ctx, caller, uid)
}
