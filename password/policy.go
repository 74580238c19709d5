package password

import (
	"errors"
	"fmt"
	"unicode"
)

var (
	ErrTooShort      = errors.New("password too short")
	ErrTooLong       = errors.New("password too long")
	ErrMissingUpper  = errors.New("password requires an uppercase letter")
	ErrMissingLower  = errors.New("password requires a lowercase letter")
	ErrMissingDigit  = errors.New("password requires a digit")
	ErrMissingSymbol = errors.New("password requires a symbol")
)

// Policy is the complexity rule set for new passwords.
type Policy struct {
	MinLength     int
	MaxLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPolicy requires 8 to 128 characters with mixed case and a digit.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:    8,
		MaxLength:    128,
		RequireUpper: true,
		RequireLower: true,
		RequireDigit: true,
	}
}

// Validate returns the first rule password breaks, or nil.
func (p Policy) Validate(password string) error {
	n := len([]rune(password))
	if n < p.MinLength {
		return fmt.Errorf("%w: need %d characters", ErrTooShort, p.MinLength)
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return fmt.Errorf("%w: limit %d characters", ErrTooLong, p.MaxLength)
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	switch {
	case p.RequireUpper && !upper:
		return ErrMissingUpper
	case p.RequireLower && !lower:
		return ErrMissingLower
	case p.RequireDigit && !digit:
		return ErrMissingDigit
	case p.RequireSymbol && !symbol:
		return ErrMissingSymbol
	}
	return nil
}
