// Package sessiongate implements the authorization and session core of a
// booking platform client: identity watching, profile resolution, route
// guarding, and the admin-side account mutations that feed them.
//
// Session lifecycle:
//   - A Watcher holds the single subscription to the identity provider's
//     auth-state stream. Every emitted identity (or sign-out) triggers one
//     profile resolution, and the result is published to the Store. The
//     Loading flag stays raised until that resolution lands, so no guard
//     decision can fire against a half-built session.
//   - The Resolver maps an identity to {role, isActive} with a deterministic
//     fallback for missing profiles. The strict policy treats a profile-less
//     identity as an anomaly and forces a sign-out; the lenient policy grants
//     a plain user session.
//
// Guarding:
//   - Guard is a pure decision table over (Session, required role). Evaluation
//     order is fixed: loading gates everything, a locked account overrides any
//     role, and a regular user reaching an admin path gets a soft redirect to
//     the landing page rather than an error.
//
// Admin mutations:
//   - Admin writes role/status/profile changes straight to the profile store.
//     There is no push channel to other clients: a target's live session only
//     observes the change on its next watcher cycle. Full account purges go
//     through the privileged PurgeService, which re-checks the caller's role
//     server side before touching the identity provider.
package sessiongate
