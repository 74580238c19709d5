package credential

import (
	"errors"

	"github.com/MrEthical07/codeAuth/internal"
)

// Binder derives the lookup binding of an email address.
type Binder interface {
	Bind(email string) string
}

// HMACBinder binds emails with HMAC-SHA256 under a server-side key. Emails are
// trimmed and lowercased first, so bindings are stable across case.
type HMACBinder struct {
	key []byte
}

// NewHMACBinder returns a binder keyed by key. The key must be at least 16 bytes.
func NewHMACBinder(key []byte) (*HMACBinder, error) {
	if len(key) < 16 {
		return nil, errors.New("binding key must be at least 16 bytes")
	}
	return &HMACBinder{key: append([]byte(nil), key...)}, nil
}

func (b *HMACBinder) Bind(email string) string {
	return internal.HMACBinding(b.key, email)
}

// Verify reports whether binding was derived from email.
func (b *HMACBinder) Verify(email, binding string) bool {
	return internal.BindingEqual(b.Bind(email), binding)
}
