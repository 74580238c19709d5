package internal

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// NormalizeEmail lowercases and trims an address for comparison and binding.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HMACBinding derives the binding of email under key.
func HMACBinding(key []byte, email string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(NormalizeEmail(email)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// BindingEqual compares two bindings in constant time.
func BindingEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
