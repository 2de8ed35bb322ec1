package sessiongate

import (
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenVerifier validates provider-issued ID tokens and extracts the
// identity without tying callers to a specific signing setup. This is the
// trust-boundary-crossing read when the identity provider is remote.
type TokenVerifier interface {
	Verify(tokenString string) (Identity, error)
}

// TokenVerifierFunc adapts a function into a TokenVerifier.
type TokenVerifierFunc func(tokenString string) (Identity, error)

// Verify satisfies the TokenVerifier interface.
func (f TokenVerifierFunc) Verify(tokenString string) (Identity, error) {
	if f == nil {
		return nil, ErrTokenMalformed
	}
	return f(tokenString)
}

// JWKSVerifier validates ID tokens against the provider's published JWK set,
// refreshing keys in the background.
type JWKSVerifier struct {
	jwks   *keyfunc.MultipleJWKS
	issuer string
	logger Logger
}

// NewJWKSVerifier fetches the JWK set from the given URLs.
func NewJWKSVerifier(issuer string, jwkSetURLs []string, logger Logger) (*JWKSVerifier, error) {
	if logger == nil {
		logger = defLogger{}
	}

	opts := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWK set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}

	m := make(map[string]keyfunc.Options, len(jwkSetURLs))
	for _, url := range jwkSetURLs {
		m[url] = opts
	}

	jwks, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to fetch provider JWK set")
	}

	return &JWKSVerifier{jwks: jwks, issuer: issuer, logger: logger}, nil
}

// Verify parses and validates a provider ID token, returning its identity.
func (v *JWKSVerifier) Verify(tokenString string) (Identity, error) {
	parserOptions := []jwt.ParserOption{}
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, v.jwks.Keyfunc, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		v.logger.Error("JWKS verifier could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims.Identity(), nil
}

// StaticKeyVerifier validates tokens signed with a shared HMAC key. The local
// identity provider and tests use this; production deployments against a
// remote provider use the JWKS verifier.
type StaticKeyVerifier struct {
	service *TokenService
}

// NewStaticKeyVerifier wraps a TokenService as a TokenVerifier.
func NewStaticKeyVerifier(service *TokenService) *StaticKeyVerifier {
	return &StaticKeyVerifier{service: service}
}

// Verify satisfies the TokenVerifier interface.
func (v *StaticKeyVerifier) Verify(tokenString string) (Identity, error) {
	claims, err := v.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Identity(), nil
}

// MultiTokenVerifier tries verifiers in order until one succeeds. It treats
// a malformed token as "try next" and returns the last malformed error when
// all verifiers fail.
type MultiTokenVerifier struct {
	verifiers []TokenVerifier
}

// NewMultiTokenVerifier filters nil verifiers and returns a composite verifier.
func NewMultiTokenVerifier(verifiers ...TokenVerifier) *MultiTokenVerifier {
	filtered := make([]TokenVerifier, 0, len(verifiers))
	for _, v := range verifiers {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &MultiTokenVerifier{verifiers: filtered}
}

// Verify satisfies the TokenVerifier interface.
func (m *MultiTokenVerifier) Verify(tokenString string) (Identity, error) {
	var lastErr error
	for _, v := range m.verifiers {
		identity, err := v.Verify(tokenString)
		if err == nil {
			return identity, nil
		}
		if isMalformedTokenError(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrTokenMalformed
}

func isMalformedTokenError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == ErrTokenMalformed.TextCode
	}
	return false
}
