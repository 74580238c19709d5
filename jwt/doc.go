// Package jwt issues and verifies signed session tokens. A token carries a
// snapshot of identity claims taken at issuance; verification is stateless.
package jwt
