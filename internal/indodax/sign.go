// internal/indodax/sign.go
package indodax

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"sort"
	"strings"
)

// CanonicalQuery builds the exact byte sequence the signature covers:
// parameters sorted lexicographically by key, joined as k=v pairs with
// "&". Values are used as-is, no additional URL-encoding.
func CanonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	return sb.String()
}

// Sign returns the hex HMAC-SHA512 of payload keyed by the secret.
// Deterministic: identical payload and secret always yield the same
// digest. Fails only when the secret is absent.
func (c *Client) Sign(payload string) (string, error) {
	if c.creds.SecretKey == "" {
		return "", ErrMissingCredentials
	}
	mac := hmac.New(sha512.New, []byte(c.creds.SecretKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
