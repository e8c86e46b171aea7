package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignRoundTrip(t *testing.T) {
	for _, alg := range []string{AlgEd25519, AlgDilithium3} {
		t.Run(alg, func(t *testing.T) {
			kp, err := GenerateKeyPair(alg)
			require.NoError(t, err)

			sig, err := Sign(alg, kp.PrivateKey, degreeData)
			require.NoError(t, err)

			v := NewVerifier()
			assert.True(t, v.Verify(sig, degreeData, kp.PublicKey))
			assert.False(t, v.Verify(sig, tamper(degreeData), kp.PublicKey))
		})
	}
}

func TestSignRejectsBadInput(t *testing.T) {
	_, err := GenerateKeyPair("rsa")
	require.Error(t, err)

	_, err = Sign(AlgEd25519, "not base64!", degreeData)
	require.Error(t, err)

	_, err = Sign(AlgEd25519, "c2hvcnQ=", degreeData)
	require.Error(t, err)
}
