// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunRequestLogin, RunLoginByCode, RunResetPassword, etc.)
// accepts a Deps struct of function fields and returns results without
// side-effects beyond those dependencies. The Engine builds Deps once per call
// and stays thin.
//
// Every guard failure past input validation collapses into Errors.AuthFailed
// so a caller cannot tell a missing account from a wrong code.
//
// # Architecture boundaries
//
// Flow functions coordinate the credential manager, identity store, token
// issuer, notifier, limiter, audit dispatcher, and metrics. They do NOT own
// any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import codeAuth (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through Deps.
//   - Log or audit codes and passwords.
package flows
