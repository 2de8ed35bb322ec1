package sessiongate

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Admin exposes the account mutations behind the admin area. Every method
// checks the acting session client-side before writing; the privileged purge
// path is re-checked server-side by the capability regardless.
//
// None of these writes touch any session Store. A target with a live session
// keeps its current role and status until its own watcher cycle re-reads the
// profile (next sign-in, token refresh, or reload).
type Admin struct {
	profiles Profiles
	purger   IdentityPurger
	logger   Logger
	activity ActivitySink
}

// NewAdmin builds the admin action service.
func NewAdmin(profiles Profiles, purger IdentityPurger) *Admin {
	return &Admin{
		profiles: profiles,
		purger:   purger,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (a *Admin) WithLogger(l Logger) *Admin {
	if l != nil {
		a.logger = l
	}
	return a
}

func (a *Admin) WithActivitySink(sink ActivitySink) *Admin {
	a.activity = normalizeActivitySink(sink)
	return a
}

// ListProfiles returns every profile for the management view.
func (a *Admin) ListProfiles(ctx context.Context, actor Session) ([]*Profile, error) {
	if err := a.requireAdmin(actor); err != nil {
		return nil, err
	}
	return a.profiles.List(ctx)
}

// SetRole writes the role field. Unlike the resolver's read side, the write
// side does validate: junk roles must not enter the store.
func (a *Admin) SetRole(ctx context.Context, actor Session, id string, role Role) error {
	if err := a.requireAdmin(actor); err != nil {
		return err
	}
	if !IsValidRole(role) {
		return errors.New("unknown role", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"role": role})
	}
	if err := a.profiles.SetRole(ctx, id, role); err != nil {
		return err
	}
	a.emitActivity(ctx, ActivityEventRoleChanged, actor, id, map[string]any{"role": role})
	return nil
}

// ToggleRole flips user/admin, matching the one-click list control.
func (a *Admin) ToggleRole(ctx context.Context, actor Session, id string) (Role, error) {
	if err := a.requireAdmin(actor); err != nil {
		return "", err
	}
	profile, err := a.profiles.GetByIdentity(ctx, id)
	if err != nil {
		return "", err
	}
	next := ToggledRole(profile.Role)
	if err := a.profiles.SetRole(ctx, id, next); err != nil {
		return "", err
	}
	a.emitActivity(ctx, ActivityEventRoleChanged, actor, id, map[string]any{"role": next})
	return next, nil
}

// SetActive locks or reinstates the account.
func (a *Admin) SetActive(ctx context.Context, actor Session, id string, active bool) error {
	if err := a.requireAdmin(actor); err != nil {
		return err
	}
	if err := a.profiles.SetActive(ctx, id, active); err != nil {
		return err
	}
	a.emitActivity(ctx, ActivityEventStatusChanged, actor, id, map[string]any{"active": active})
	return nil
}

// UpdateProfile writes the editable fields in one statement.
func (a *Admin) UpdateProfile(ctx context.Context, actor Session, profile *Profile) (*Profile, error) {
	if err := a.requireAdmin(actor); err != nil {
		return nil, err
	}
	if profile == nil || profile.IdentityID == "" {
		return nil, errors.New("profile requires an identity id", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}
	if profile.Role != "" && !IsValidRole(profile.Role) {
		return nil, errors.New("unknown role", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"role": profile.Role})
	}
	return a.profiles.Update(ctx, profile)
}

// PurgeProfile removes the profile document only. The identity keeps
// authenticating until it is purged through the capability; its next
// resolution hits the not-found branch instead.
func (a *Admin) PurgeProfile(ctx context.Context, actor Session, id string) error {
	if err := a.requireAdmin(actor); err != nil {
		return err
	}
	if err := a.profiles.Purge(ctx, id); err != nil {
		return err
	}
	a.emitActivity(ctx, ActivityEventProfilePurged, actor, id, nil)
	return nil
}

// PurgeIdentity invokes the privileged remote capability for the target
// identity. Self-targeting is refused here as a UX guard; the authoritative
// checks run server-side either way.
func (a *Admin) PurgeIdentity(ctx context.Context, actor Session, uid string) (*PurgeReceipt, error) {
	if err := a.requireAdmin(actor); err != nil {
		return nil, err
	}
	if uid == "" {
		return nil, ErrInvalidArgument
	}
	if actor.Identity != nil && actor.Identity.ID() == uid {
		return nil, errors.New("cannot purge the acting identity", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}
	return a.purger.DeleteIdentityAuth(ctx, uid)
}

// PurgeAccount removes the profile document and then the identity. When the
// identity-side delete fails the profile is not restored: the caller sees
// the error and the account is left profile-less, which the strict resolver
// policy treats as signed out.
func (a *Admin) PurgeAccount(ctx context.Context, actor Session, uid string) (*PurgeReceipt, error) {
	if err := a.requireAdmin(actor); err != nil {
		return nil, err
	}
	if uid == "" {
		return nil, ErrInvalidArgument
	}
	if actor.Identity != nil && actor.Identity.ID() == uid {
		return nil, errors.New("cannot purge the acting identity", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}
	if err := a.profiles.Purge(ctx, uid); err != nil {
		return nil, err
	}
	a.emitActivity(ctx, ActivityEventProfilePurged, actor, uid, nil)
	return a.purger.DeleteIdentityAuth(ctx, uid)
}

func (a *Admin) requireAdmin(actor Session) error {
	if actor.Loading {
		return ErrUnauthenticated
	}
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if !actor.IsActive || actor.Role != RoleAdmin {
		return ErrPermissionDenied
	}
	return nil
}

func (a *Admin) emitActivity(ctx context.Context, event ActivityEventType, actor Session, target string, meta map[string]any) {
	actorID := ""
	if actor.Identity != nil {
		actorID = actor.Identity.ID()
	}
	err := a.activity.Record(ctx, ActivityEvent{
		EventType: event,
		ActorID:   actorID,
		TargetID:  target,
		Metadata:  meta,
	})
	if err != nil {
		a.logger.Error("activity sink failed", "event", event, "error", err)
	}
}
