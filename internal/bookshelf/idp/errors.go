package idp

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrBadCredentials is returned when a bearer token cannot be verified.
var ErrBadCredentials = errors.New("bad credentials")

// Kind classifies why a login or registration did not fully succeed.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidCredentials
	KindAccountSetupIncomplete
	KindProviderUnavailable
	KindAdminAuthFailed
	KindUserCreationFailed
	KindMalformedProviderResponse
	// KindOrphanedExternalUser means the user exists in Keycloak but could
	// not be stored locally. Needs an operator.
	KindOrphanedExternalUser
	// KindPartialRegistration means both records exist but the Keycloak
	// account was left unverified. Needs an operator.
	KindPartialRegistration
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "InvalidCredentials"
	case KindAccountSetupIncomplete:
		return "AccountSetupIncomplete"
	case KindProviderUnavailable:
		return "ProviderUnavailable"
	case KindAdminAuthFailed:
		return "AdminAuthFailed"
	case KindUserCreationFailed:
		return "UserCreationFailed"
	case KindMalformedProviderResponse:
		return "MalformedProviderResponse"
	case KindOrphanedExternalUser:
		return "OrphanedExternalUser"
	case KindPartialRegistration:
		return "PartialRegistration"
	}
	return "Unknown"
}

// NeedsReconciliation reports whether an external identity was left without
// a complete local counterpart.
func (k Kind) NeedsReconciliation() bool {
	return k == KindOrphanedExternalUser || k == KindPartialRegistration
}

// Error is the outcome of a failed or degraded login or registration.
//
// Message is safe to show to clients. Detail carries the provider's
// response for diagnostics and must only reach logs.
type Error struct {
	Kind           Kind
	Message        string
	ProviderUserID string
	ProviderStatus int
	Detail         string
	Err            error
}

func (e *Error) Error() string {
	message := e.Kind.String() + ": " + e.Message
	if e.ProviderUserID != "" {
		message += fmt.Sprintf(" (provider user %s)", e.ProviderUserID)
	}
	if e.Err != nil {
		message += ": " + e.Err.Error()
	}
	return message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Conflict reports whether Keycloak refused a user because it already exists.
func (e *Error) Conflict() bool {
	return e.Kind == KindUserCreationFailed && e.ProviderStatus == http.StatusConflict
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var idpError *Error
	if errors.As(err, &idpError) {
		return idpError.Kind
	}
	return KindUnknown
}

var messages = map[Kind]string{
	KindInvalidCredentials:        "Invalid credentials",
	KindAccountSetupIncomplete:    "Account is not fully set up. Please verify your email or complete any required actions.",
	KindProviderUnavailable:       "Identity provider is unavailable, please try again later.",
	KindAdminAuthFailed:           "Registration failed, please check server logs.",
	KindUserCreationFailed:        "Registration failed, please check server logs.",
	KindMalformedProviderResponse: "Registration failed, please check server logs.",
	KindOrphanedExternalUser:      "Registration could not be completed, the account needs manual reconciliation.",
	KindPartialRegistration:       "User registered, but the account setup is incomplete.",
}

func newError(kind Kind, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: messages[kind],
		Err:     err,
	}
}
