package sessiongate

import (
	"context"

	"github.com/goliatone/go-errors"
)

// FallbackPolicy decides what an identity with no profile record resolves to.
type FallbackPolicy int

const (
	// PolicyStrict treats a profile-less identity as an anomaly: no role,
	// inactive, and the missing-profile error is surfaced so the watcher can
	// force a sign-out. Recommended for production.
	PolicyStrict FallbackPolicy = iota
	// PolicyLenient defaults a profile-less identity to an active regular user.
	PolicyLenient
)

// Resolution is the authorization tuple derived from one profile read.
type Resolution struct {
	Role     Role
	IsActive bool
}

// Resolver translates an Identity into a Resolution via a single profile
// lookup with a deterministic fallback.
type Resolver struct {
	lookup ProfileLookup
	policy FallbackPolicy
	logger Logger
}

// NewResolver creates a Resolver with the strict fallback policy.
func NewResolver(lookup ProfileLookup) *Resolver {
	return &Resolver{
		lookup: lookup,
		policy: PolicyStrict,
		logger: defLogger{},
	}
}

func (r *Resolver) WithLogger(l Logger) *Resolver {
	if l != nil {
		r.logger = l
	}
	return r
}

// WithFallbackPolicy overrides the missing-profile policy.
func (r *Resolver) WithFallbackPolicy(p FallbackPolicy) *Resolver {
	r.policy = p
	return r
}

// Policy returns the configured fallback policy.
func (r *Resolver) Policy() FallbackPolicy {
	return r.policy
}

// Resolve performs the profile read. The stored role is passed through
// unvalidated; an absent active flag means active. A missing profile resolves
// per policy; strict additionally returns ErrProfileNotFound so the caller
// can sign the identity out. Transient lookup failures come back wrapped as
// ErrResolutionFailed with the zero Resolution.
func (r *Resolver) Resolve(ctx context.Context, identity Identity) (Resolution, error) {
	if identity == nil {
		return Resolution{}, errors.Wrap(ErrIdentityNotFound, errors.CategoryBadInput, "resolve requires an identity")
	}

	profile, err := r.lookup.GetByIdentity(ctx, identity.ID())
	if err != nil {
		if IsProfileNotFound(err) {
			return r.absent()
		}
		r.logger.Error("profile lookup failed", "identity", identity.ID(), "error", err)
		return Resolution{}, errors.Wrap(err, ErrResolutionFailed.Category, ErrResolutionFailed.Message).
			WithTextCode(ErrResolutionFailed.TextCode)
	}

	return Resolution{
		Role:     profile.Role,
		IsActive: profile.IsActive(),
	}, nil
}

func (r *Resolver) absent() (Resolution, error) {
	if r.policy == PolicyLenient {
		return Resolution{Role: RoleUser, IsActive: true}, nil
	}
	return Resolution{Role: "", IsActive: false}, ErrProfileNotFound
}
