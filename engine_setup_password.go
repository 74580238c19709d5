package codeAuth

import (
	"context"

	internalflows "github.com/MrEthical07/codeAuth/internal/flows"
)

// RequestSetupPassword sends an activation code to an identity that has no
// password yet.
func (e *Engine) RequestSetupPassword(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return internalflows.RunRequestSetupPassword(ctx, email, e.flowDeps())
}

// SetupPassword redeems an activation code, sets the password, activates the
// identity and returns a session token.
func (e *Engine) SetupPassword(ctx context.Context, binding, code, newPassword, confirmPassword string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	res, err := internalflows.RunSetupPassword(ctx, binding, code, newPassword, confirmPassword, e.flowDeps())
	return toAuthResult(res), err
}
