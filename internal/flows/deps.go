package flows

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/codeAuth/credential"
	"github.com/MrEthical07/codeAuth/notify"
)

// Identity is the flow-local account model.
type Identity struct {
	ID             string
	Email          string
	PasswordDigest string
	Active         bool
	Role           int
	FirstName      string
	LastName       string
}

// Result is returned by token-issuing flows.
type Result struct {
	Token    string
	Identity Identity
}

// Metrics carries metric IDs used by the flows.
type Metrics struct {
	CodeIssued        int
	CodeIssueFailure  int
	CodeRedeemed      int
	CodeRedeemFailure int
	LoginSuccess      int
	LoginFailure      int
	LoginRateLimited  int
	PasswordReset     int
	PasswordSetup     int
	NotifyFailure     int
	IssueRateLimited  int
	ValidationFailure int
	RedeemLatency     int
}

// Events carries audit event names.
type Events struct {
	Login                string
	RequestLogin         string
	ResendCode           string
	LoginByCode          string
	MagicLinkLogin       string
	RequestResetPassword string
	ResetPassword        string
	RequestSetupPassword string
	SetupPassword        string
	Authenticate         string
}

// Errors carries the root error values returned by flows.
type Errors struct {
	EngineNotReady   error
	InvalidEmail     error
	InvalidCode      error
	PasswordPolicy   error
	PasswordMismatch error
	AuthFailed       error
	RateLimited      error
	TokenInvalid     error
	Internal         error
	IdentityNotFound error
}

// Deps captures every collaborator a flow may touch. Nil function fields
// that a flow needs make it return Errors.EngineNotReady.
type Deps struct {
	CredentialTTL  time.Duration
	TokenTTL       time.Duration
	CodeTokenTTL   time.Duration
	CreatedAtShift time.Duration
	LowestRole     int
	DefaultName    string
	Subjects       map[credential.Purpose]string
	PolicyOnSetup  bool

	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string
	Logger              *slog.Logger

	Bind     func(string) string
	Issue    func(context.Context, string, credential.Purpose, time.Duration) (credential.Credential, error)
	Redeem   func(context.Context, credential.Matcher, time.Time) (credential.Credential, error)
	PurgeAll func(context.Context, string) error

	FindActiveByEmail         func(context.Context, string) (Identity, error)
	FindByEmail               func(context.Context, string) (Identity, error)
	FindByID                  func(context.Context, string) (Identity, error)
	UpdatePassword            func(context.Context, string, string) error
	UpdatePasswordAndActivate func(context.Context, string, string) error

	ValidatePassword func(string) error
	HashPassword     func(string) (string, error)
	VerifyPassword   func(string, string) (bool, error)

	IssueToken func(Identity, time.Time, time.Duration) (string, error)
	ParseToken func(string) (string, error)

	CheckIssueLimiter  func(context.Context, string, string) error
	CheckLoginLimiter  func(context.Context, string) error
	RecordLoginFailure func(context.Context, string)
	ResetLoginLimiter  func(context.Context, string)
	Notify             func(context.Context, notify.Notification) error

	MetricInc     func(int)
	MetricObserve func(int, time.Duration)
	EmitAudit     func(ctx context.Context, eventType string, success bool, userID, binding, purpose string, err error, metadata func() map[string]string)

	Metrics Metrics
	Events  Events
	Errors  Errors
}

func normalizeDeps(deps *Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.MetricObserve == nil {
		deps.MetricObserve = func(int, time.Duration) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, string, error, func() map[string]string) {}
	}
	if deps.CredentialTTL <= 0 {
		deps.CredentialTTL = 24 * time.Hour
	}
	if deps.CodeTokenTTL <= 0 {
		deps.CodeTokenTTL = 24 * time.Hour
	}
	if deps.DefaultName == "" {
		deps.DefaultName = "User"
	}
}
