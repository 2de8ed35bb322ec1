package sessiongate_test

import (
	"testing"

	"github.com/oakline/go-sessiongate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticKeyVerifierRoundTrip(t *testing.T) {
	service := sessiongate.NewTokenService(tokenConfig{key: "shared-key", expHours: 1}, nil)
	verifier := sessiongate.NewStaticKeyVerifier(service)

	signed, err := service.Generate(sessiongate.StaticIdentity{UID: "u1", Mail: "user@example.com"})
	require.NoError(t, err)

	identity, err := verifier.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID())
	assert.Equal(t, "user@example.com", identity.Email())

	_, err = verifier.Verify("garbage")
	assert.Error(t, err)
}

func TestMultiTokenVerifierTriesInOrder(t *testing.T) {
	serviceA := sessiongate.NewTokenService(tokenConfig{key: "key-a", expHours: 1}, nil)
	serviceB := sessiongate.NewTokenService(tokenConfig{key: "key-b", expHours: 1}, nil)

	multi := sessiongate.NewMultiTokenVerifier(
		sessiongate.NewStaticKeyVerifier(serviceA),
		sessiongate.NewStaticKeyVerifier(serviceB),
		nil, // nils are filtered, not called
	)

	signed, err := serviceB.Generate(sessiongate.StaticIdentity{UID: "u2"})
	require.NoError(t, err)

	// the first verifier reports malformed, the second succeeds
	identity, err := multi.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u2", identity.ID())

	_, err = multi.Verify("garbage")
	assert.Error(t, err)
}

func TestMultiTokenVerifierStopsOnExpired(t *testing.T) {
	service := sessiongate.NewTokenService(tokenConfig{key: "shared-key", expHours: -1}, nil)
	multi := sessiongate.NewMultiTokenVerifier(sessiongate.NewStaticKeyVerifier(service))

	signed, err := service.Generate(sessiongate.StaticIdentity{UID: "u1"})
	require.NoError(t, err)

	// expiry is terminal, not a try-next condition
	_, err = multi.Verify(signed)
	assert.ErrorIs(t, err, sessiongate.ErrTokenExpired)
}
