package codeAuth

import (
	"context"

	internalflows "github.com/MrEthical07/codeAuth/internal/flows"
)

// RequestResetPassword issues a reset code. Lowest-role identities cannot
// reset a password and get ErrAuthFailed like any other refusal.
func (e *Engine) RequestResetPassword(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return internalflows.RunRequestResetPassword(ctx, email, e.flowDeps())
}

// ResetPassword redeems a reset code and stores the new password. No token
// is issued; the caller logs in separately.
func (e *Engine) ResetPassword(ctx context.Context, binding, code, newPassword, confirmPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return internalflows.RunResetPassword(ctx, binding, code, newPassword, confirmPassword, e.flowDeps())
}
