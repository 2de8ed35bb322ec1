package sessiongate_test

import (
	"testing"

	"github.com/oakline/go-sessiongate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenConfig struct {
	key      string
	expHours int
	issuer   string
	audience []string
}

func (c tokenConfig) GetSigningKey() string   { return c.key }
func (c tokenConfig) GetTokenExpiration() int { return c.expHours }
func (c tokenConfig) GetIssuer() string       { return c.issuer }
func (c tokenConfig) GetAudience() []string   { return c.audience }

func TestTokenServiceRoundTrip(t *testing.T) {
	service := sessiongate.NewTokenService(tokenConfig{
		key:      "test-signing-key",
		expHours: 1,
		issuer:   "sessiongate-test",
		audience: []string{"booking-app"},
	}, nil)

	signed, err := service.Generate(sessiongate.StaticIdentity{
		UID:  "u1",
		Mail: "user@example.com",
		Name: "Test User",
	})
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := service.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "sessiongate-test", claims.Issuer)

	identity := claims.Identity()
	assert.Equal(t, "u1", identity.ID())
	assert.Equal(t, "Test User", identity.DisplayName())
}

func TestTokenServiceRejectsNilIdentity(t *testing.T) {
	service := sessiongate.NewTokenService(tokenConfig{key: "k", expHours: 1}, nil)

	_, err := service.Generate(nil)
	assert.Error(t, err)
}

func TestTokenServiceRejectsForeignSignature(t *testing.T) {
	minting := sessiongate.NewTokenService(tokenConfig{key: "key-a", expHours: 1}, nil)
	checking := sessiongate.NewTokenService(tokenConfig{key: "key-b", expHours: 1}, nil)

	signed, err := minting.Generate(sessiongate.StaticIdentity{UID: "u1"})
	require.NoError(t, err)

	_, err = checking.Validate(signed)
	require.Error(t, err)
	assert.NotErrorIs(t, err, sessiongate.ErrTokenExpired)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	service := sessiongate.NewTokenService(tokenConfig{key: "k", expHours: 1}, nil)

	_, err := service.Validate("not-a-token")
	assert.Error(t, err)
}

func TestTokenServiceRejectsWrongIssuer(t *testing.T) {
	minting := sessiongate.NewTokenService(tokenConfig{key: "k", expHours: 1, issuer: "other"}, nil)
	checking := sessiongate.NewTokenService(tokenConfig{key: "k", expHours: 1, issuer: "sessiongate"}, nil)

	signed, err := minting.Generate(sessiongate.StaticIdentity{UID: "u1"})
	require.NoError(t, err)

	_, err = checking.Validate(signed)
	assert.Error(t, err)
}

func TestTokenServiceClaimsSubjectFallback(t *testing.T) {
	service := sessiongate.NewTokenService(tokenConfig{key: "k", expHours: 1}, nil)

	signed, err := service.Generate(sessiongate.StaticIdentity{UID: "u1"})
	require.NoError(t, err)

	claims, err := service.Validate(signed)
	require.NoError(t, err)

	// the uid claim shadows the subject; both carry the identity id
	claims.UID = ""
	assert.Equal(t, "u1", claims.Identity().ID())
}
