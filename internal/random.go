package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// CodeAlphabet omits characters that are easy to confuse when read aloud or
// retyped from an email (0/O, 1/I).
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func NewCode(alphabet string, length int) (string, error) {
	if length <= 0 {
		return "", errors.New("invalid code length")
	}
	if len(alphabet) < 2 {
		return "", errors.New("invalid code alphabet")
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}

	return b.String(), nil
}

// NewSecret returns n random bytes.
func NewSecret(n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.New("invalid secret size")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
