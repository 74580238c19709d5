// Package middleware adapts codeAuth session tokens to net/http.
//
// [Guard] reads the Authorization header, resolves it through
// Engine.Authenticate and stores the identity in the request context.
// [RequireElevated] then gates routes that the lowest-privilege role may not
// reach. Token parsing and identity reloads stay in the engine.
package middleware
