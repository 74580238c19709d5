package codeAuth

import (
	"context"

	internalflows "github.com/MrEthical07/codeAuth/internal/flows"
)

// RequestLogin issues a login code to an active identity and notifies it.
// Any previous login code for the email stops working.
func (e *Engine) RequestLogin(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return internalflows.RunRequestLogin(ctx, email, e.flowDeps())
}

// ResendCode drops every outstanding code for the email, whatever its
// purpose, and issues a fresh login code.
func (e *Engine) ResendCode(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return internalflows.RunResendCode(ctx, email, e.flowDeps())
}

// LoginByCode redeems a code typed by the user.
func (e *Engine) LoginByCode(ctx context.Context, email, code string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	res, err := internalflows.RunLoginByCode(ctx, email, code, e.flowDeps())
	return toAuthResult(res), err
}

// MagicLinkLogin redeems the (binding, code) pair carried by an emailed link.
func (e *Engine) MagicLinkLogin(ctx context.Context, binding, code string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	res, err := internalflows.RunMagicLinkLogin(ctx, binding, code, e.flowDeps())
	return toAuthResult(res), err
}
