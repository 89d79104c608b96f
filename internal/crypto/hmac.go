package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// Header names carried by signed admin requests.
const (
	HeaderKeyID     = "X-Marketd-Key-Id"
	HeaderTimestamp = "X-Marketd-Timestamp"
	HeaderSignature = "X-Marketd-Signature"
)

// AdminAuth holds the shared credential used to sign and verify admin API
// requests. The signature is HMAC-SHA256(secret, timestamp+method+path+body)
// encoded as base64.
type AdminAuth struct {
	KeyID  string
	Secret string
}

// Headers returns the HTTP headers for a signed admin request.
//
// Returned header keys:
//   - X-Marketd-Key-Id
//   - X-Marketd-Timestamp
//   - X-Marketd-Signature
func (a *AdminAuth) Headers(method, path, body string) map[string]string {
	return a.HeadersAt(method, path, body, time.Now().Unix())
}

// HeadersAt is like Headers but lets the caller supply the Unix timestamp
// (useful for deterministic testing).
func (a *AdminAuth) HeadersAt(method, path, body string, unixTS int64) map[string]string {
	ts := strconv.FormatInt(unixTS, 10)
	sig := hmacSHA256Base64([]byte(a.Secret), ts+method+path+body)
	return map[string]string{
		HeaderKeyID:     a.KeyID,
		HeaderTimestamp: ts,
		HeaderSignature: sig,
	}
}

// Verify checks a request signature against the credential. The timestamp
// must parse and lie within maxSkew of now; the key id and signature are
// compared in constant time.
func (a *AdminAuth) Verify(method, path, body, keyID, timestamp, signature string, maxSkew time.Duration) error {
	return a.VerifyAt(method, path, body, keyID, timestamp, signature, maxSkew, time.Now().Unix())
}

// VerifyAt is like Verify with an explicit notion of the current time.
func (a *AdminAuth) VerifyAt(method, path, body, keyID, timestamp, signature string, maxSkew time.Duration, nowUnix int64) error {
	if !hmac.Equal([]byte(keyID), []byte(a.KeyID)) {
		return fmt.Errorf("crypto: unknown key id")
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("crypto: invalid timestamp: %w", err)
	}
	skew := nowUnix - ts
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > maxSkew {
		return fmt.Errorf("crypto: timestamp outside allowed skew")
	}
	want := hmacSHA256Base64([]byte(a.Secret), timestamp+method+path+body)
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return fmt.Errorf("crypto: signature mismatch")
	}
	return nil
}

// hmacSHA256Base64 computes HMAC-SHA256 of message using key and returns the
// result as a base64 standard-encoded string.
func hmacSHA256Base64(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// String returns a redacted representation suitable for logging.
func (a *AdminAuth) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("AdminAuth{key_id=%s, secret=%s}", a.KeyID, redact(a.Secret))
}
