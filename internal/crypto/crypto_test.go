package crypto

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminAuth_SignAndVerify(t *testing.T) {
	a := &AdminAuth{KeyID: "ops", Secret: "topsecret"}

	const now = int64(1_700_000_000)
	h := a.HeadersAt("POST", "/admin/platform", `{"team_wallet":"w"}`, now)
	require.Equal(t, "ops", h[HeaderKeyID])
	require.Equal(t, "1700000000", h[HeaderTimestamp])

	err := a.VerifyAt("POST", "/admin/platform", `{"team_wallet":"w"}`,
		h[HeaderKeyID], h[HeaderTimestamp], h[HeaderSignature], time.Minute, now+5)
	assert.NoError(t, err)
}

func TestAdminAuth_Deterministic(t *testing.T) {
	a := &AdminAuth{KeyID: "ops", Secret: "topsecret"}
	h1 := a.HeadersAt("GET", "/admin/audit", "", 42)
	h2 := a.HeadersAt("GET", "/admin/audit", "", 42)
	assert.Equal(t, h1[HeaderSignature], h2[HeaderSignature])
}

func TestAdminAuth_RejectsTampering(t *testing.T) {
	a := &AdminAuth{KeyID: "ops", Secret: "topsecret"}
	const now = int64(1_700_000_000)
	h := a.HeadersAt("POST", "/admin/platform", "body", now)

	// Changed body.
	err := a.VerifyAt("POST", "/admin/platform", "other",
		h[HeaderKeyID], h[HeaderTimestamp], h[HeaderSignature], time.Minute, now)
	assert.Error(t, err)

	// Wrong key id.
	err = a.VerifyAt("POST", "/admin/platform", "body",
		"intruder", h[HeaderTimestamp], h[HeaderSignature], time.Minute, now)
	assert.Error(t, err)

	// Stale timestamp.
	err = a.VerifyAt("POST", "/admin/platform", "body",
		h[HeaderKeyID], h[HeaderTimestamp], h[HeaderSignature], time.Minute, now+120)
	assert.Error(t, err)

	// Unparseable timestamp.
	err = a.VerifyAt("POST", "/admin/platform", "body",
		h[HeaderKeyID], "not-a-number", h[HeaderSignature], time.Minute, now)
	assert.Error(t, err)
}

func TestAdminAuth_StringRedacts(t *testing.T) {
	a := &AdminAuth{KeyID: "ops", Secret: "topsecret"}
	s := a.String()
	assert.NotContains(t, s, "topsecret")
	assert.Contains(t, s, "tops****")
}

func TestEncryptDecryptSecret_RoundTrip(t *testing.T) {
	blob, err := EncryptSecret("the-admin-secret", "password123")
	require.NoError(t, err)

	secret, err := DecryptSecret(blob, "password123")
	require.NoError(t, err)
	assert.Equal(t, "the-admin-secret", secret)
}

func TestDecryptSecret_WrongPassword(t *testing.T) {
	blob, err := EncryptSecret("the-admin-secret", "password123")
	require.NoError(t, err)

	_, err = DecryptSecret(blob, "wrong")
	assert.Error(t, err)
}

func TestEncryptSecret_Validation(t *testing.T) {
	_, err := EncryptSecret("", "password123")
	assert.Error(t, err)
	_, err = EncryptSecret("secret", "")
	assert.Error(t, err)
}

func TestLoadSecret(t *testing.T) {
	// Raw secret takes precedence.
	secret, err := LoadSecret(SecretConfig{RawSecret: "raw"})
	require.NoError(t, err)
	assert.Equal(t, "raw", secret)

	// Encrypted file path.
	blob, err := EncryptSecret("from-file", "pw")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "secret.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	secret, err = LoadSecret(SecretConfig{EncryptedSecretPath: path, SecretPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "from-file", secret)

	// Nothing configured.
	_, err = LoadSecret(SecretConfig{})
	assert.Error(t, err)
}
