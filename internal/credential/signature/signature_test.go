package signature

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"testing"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

const degreeData = `{"degree":"BSc Computer Science","student":"alice","year":2024}`

func pemPublicKey(t *testing.T, pub any) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func tamper(s string) string {
	b := []byte(s)
	b[len(b)/2] ^= 0x01
	return string(b)
}

func TestVerify_PEMKeys(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte(degreeData))
	rsaSig, err := rsa.SignPKCS1v15(rand.Reader, rsaKey, crypto.SHA256, digest[:])
	require.NoError(t, err)
	ecSig, err := ecdsa.SignASN1(rand.Reader, ecKey, digest[:])
	require.NoError(t, err)
	edSig := ed25519.Sign(edPriv, []byte(degreeData))

	tests := []struct {
		name      string
		publicKey string
		signature string
	}{
		{"rsa base64", pemPublicKey(t, &rsaKey.PublicKey), base64.StdEncoding.EncodeToString(rsaSig)},
		{"rsa hex", pemPublicKey(t, &rsaKey.PublicKey), "hex:" + hex.EncodeToString(rsaSig)},
		{"ecdsa", pemPublicKey(t, &ecKey.PublicKey), base64.StdEncoding.EncodeToString(ecSig)},
		{"ed25519", pemPublicKey(t, edPub), base64.RawURLEncoding.EncodeToString(edSig)},
	}

	v := NewVerifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, v.Verify(tt.signature, degreeData, tt.publicKey))
			assert.False(t, v.Verify(tt.signature, tamper(degreeData), tt.publicKey), "tampered payload")
		})
	}
}

func TestVerify_JWK(t *testing.T) {
	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := jwk.FromRaw(edPub)
	require.NoError(t, err)
	doc, err := json.Marshal(key)
	require.NoError(t, err)

	sig := base64.StdEncoding.EncodeToString(ed25519.Sign(edPriv, []byte(degreeData)))
	assert.True(t, NewVerifier().Verify(sig, degreeData, string(doc)))
}

func TestVerify_TaggedEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	publicKey := "ed25519:" + base64.StdEncoding.EncodeToString(pub)

	digest := sha256.Sum256([]byte(degreeData))
	sig := base64.StdEncoding.EncodeToString(ed25519.Sign(priv, digest[:]))

	v := NewVerifier()
	assert.True(t, v.Verify(sig, degreeData, publicKey))
	assert.False(t, v.Verify(sig, tamper(degreeData), publicKey))

	t.Run("sha3 digest", func(t *testing.T) {
		d := sha3.Sum256([]byte(degreeData))
		sig := base64.StdEncoding.EncodeToString(ed25519.Sign(priv, d[:]))
		tagged := "ed25519/sha3-256:" + base64.StdEncoding.EncodeToString(pub)
		assert.True(t, v.Verify(sig, degreeData, tagged))
		assert.False(t, v.Verify(sig, degreeData, publicKey), "digest must match the tag")
	})
}

func TestVerify_Dilithium3(t *testing.T) {
	pub, priv, err := mode3.GenerateKey(rand.Reader)
	require.NoError(t, err)
	rawPub, err := pub.MarshalBinary()
	require.NoError(t, err)

	digest := sha256.Sum256([]byte(degreeData))
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(priv, digest[:], sig)

	publicKey := "dilithium3:" + base64.StdEncoding.EncodeToString(rawPub)
	encoded := base64.StdEncoding.EncodeToString(sig)

	v := NewVerifier()
	assert.True(t, v.Verify(encoded, degreeData, publicKey))
	assert.False(t, v.Verify(encoded, tamper(degreeData), publicKey))
}

func TestVerify_UnparseableInputsAreFalse(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	digest := sha256.Sum256([]byte(degreeData))
	sig := base64.StdEncoding.EncodeToString(ed25519.Sign(priv, digest[:]))
	tagged := "ed25519:" + base64.StdEncoding.EncodeToString(pub)

	v := NewVerifier()
	assert.False(t, v.Verify("", degreeData, tagged))
	assert.False(t, v.Verify("!!not-a-signature!!", degreeData, tagged))
	assert.False(t, v.Verify(sig, degreeData, "not a key"))
	assert.False(t, v.Verify(sig, degreeData, "ed25519:@@@"))
	assert.False(t, v.Verify(sig, degreeData, "ed25519/md5:"+base64.StdEncoding.EncodeToString(pub)))
	assert.False(t, v.Verify(sig, degreeData, "rot13:abcd"))
	assert.False(t, v.Verify(sig, degreeData, "-----BEGIN PUBLIC KEY-----\ngarbage\n-----END PUBLIC KEY-----"))
}

func TestDecodeSignature(t *testing.T) {
	t.Run("hex digits without a tag are base64", func(t *testing.T) {
		want, err := base64.StdEncoding.DecodeString("deadbeef")
		require.NoError(t, err)
		got, err := decodeSignature("deadbeef")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("tagged hex", func(t *testing.T) {
		got, err := decodeSignature("hex:deadbeef")
		require.NoError(t, err)
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, got)
	})

	t.Run("bad tagged hex", func(t *testing.T) {
		_, err := decodeSignature("hex:xyz")
		assert.Error(t, err)
	})

	t.Run("url alphabet", func(t *testing.T) {
		sig := []byte{0xfb, 0xff, 0xfe}
		got, err := decodeSignature(base64.RawURLEncoding.EncodeToString(sig))
		require.NoError(t, err)
		assert.Equal(t, sig, got)
	})
}
