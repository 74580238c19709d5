package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// maxPassBytes bounds the input fed to argon2 on both Hash and Verify.
const maxPassBytes = 1024

var (
	ErrEmptyPassword    = errors.New("password must not be empty")
	ErrPasswordTooLong  = fmt.Errorf("password exceeds %d bytes", maxPassBytes)
	ErrMalformedDigest  = errors.New("malformed argon2id digest")
	ErrUnsupportedHash  = errors.New("unsupported password digest")
	errWeakHasherConfig = errors.New("argon2 config below minimum cost")
)

var phcEncoding = base64.RawStdEncoding

// Config holds argon2id cost parameters. Memory is in KiB.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// floor is the weakest configuration NewArgon2 accepts and the weakest
// digest Verify will parse.
var floor = Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16}

// DefaultConfig returns argon2id parameters suitable for interactive logins.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        1,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (c Config) check() error {
	switch {
	case c.Memory < floor.Memory:
		return fmt.Errorf("%w: memory %d KiB < %d", errWeakHasherConfig, c.Memory, floor.Memory)
	case c.Time < floor.Time:
		return fmt.Errorf("%w: time %d < %d", errWeakHasherConfig, c.Time, floor.Time)
	case c.Parallelism < floor.Parallelism:
		return fmt.Errorf("%w: parallelism %d < %d", errWeakHasherConfig, c.Parallelism, floor.Parallelism)
	case c.SaltLength < floor.SaltLength:
		return fmt.Errorf("%w: salt length %d < %d", errWeakHasherConfig, c.SaltLength, floor.SaltLength)
	case c.KeyLength < floor.KeyLength:
		return fmt.Errorf("%w: key length %d < %d", errWeakHasherConfig, c.KeyLength, floor.KeyLength)
	}
	return nil
}

// Argon2 produces and checks the password digests stored on identities.
type Argon2 struct {
	config Config
}

// NewArgon2 rejects configurations below the minimum cost.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &Argon2{config: cfg}, nil
}

// Hash returns a PHC-formatted digest of password under a fresh salt. The raw
// bytes are hashed as given; complexity is the Policy's concern.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPassBytes {
		return "", ErrPasswordTooLong
	}

	d := digest{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        make([]byte, a.config.SaltLength),
	}
	if _, err := rand.Read(d.salt); err != nil {
		return "", err
	}
	d.key = d.derive(password, a.config.KeyLength)
	return d.String(), nil
}

// Verify reports whether password matches encoded. A digest that cannot be
// parsed is an error; a mismatch is (false, nil).
func (a *Argon2) Verify(password, encoded string) (bool, error) {
	d, err := parseDigest(encoded)
	if err != nil {
		return false, err
	}
	if len(password) > maxPassBytes {
		return false, nil
	}
	candidate := d.derive(password, uint32(len(d.key)))
	return subtle.ConstantTimeCompare(candidate, d.key) == 1, nil
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters
// than the hasher's current Config.
func (a *Argon2) NeedsUpgrade(encoded string) (bool, error) {
	d, err := parseDigest(encoded)
	if err != nil {
		return false, err
	}
	weaker := d.memory < a.config.Memory ||
		d.time < a.config.Time ||
		d.parallelism < a.config.Parallelism ||
		uint32(len(d.key)) != a.config.KeyLength
	return weaker, nil
}

// digest is one decoded $argon2id$v=19$m=..,t=..,p=..$salt$key string.
type digest struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func (d digest) derive(password string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), d.salt, d.time, d.memory, d.parallelism, keyLen)
}

func (d digest) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "$argon2id$v=%d$m=%d,t=%d,p=%d$", argon2.Version, d.memory, d.time, d.parallelism)
	b.WriteString(phcEncoding.EncodeToString(d.salt))
	b.WriteByte('$')
	b.WriteString(phcEncoding.EncodeToString(d.key))
	return b.String()
}

func parseDigest(encoded string) (digest, error) {
	var d digest

	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return d, ErrMalformedDigest
	}
	if fields[1] != "argon2id" {
		return d, fmt.Errorf("%w: %q", ErrUnsupportedHash, fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return d, ErrMalformedDigest
	}
	if version != argon2.Version {
		return d, fmt.Errorf("%w: argon2 version %d", ErrUnsupportedHash, version)
	}

	var parallelism uint32
	n, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &d.memory, &d.time, &parallelism)
	if err != nil || n != 3 || parallelism > 255 {
		return d, ErrMalformedDigest
	}
	d.parallelism = uint8(parallelism)
	if d.memory < floor.Memory || d.time < floor.Time || d.parallelism < floor.Parallelism {
		return d, ErrMalformedDigest
	}

	if d.salt, err = decodeSegment(fields[4]); err != nil || uint32(len(d.salt)) < floor.SaltLength {
		return d, ErrMalformedDigest
	}
	if d.key, err = decodeSegment(fields[5]); err != nil || len(d.key) == 0 {
		return d, ErrMalformedDigest
	}
	return d, nil
}

// decodeSegment accepts both the unpadded PHC form and padded base64.
func decodeSegment(s string) ([]byte, error) {
	return phcEncoding.DecodeString(strings.TrimRight(s, "="))
}
