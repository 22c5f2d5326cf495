package engine

import (
	"errors"
	"fmt"
)

// Error kinds, matchable with errors.Is. Every rejected operation wraps
// exactly one of these with a specific reason; none leave partial state.
var (
	// ErrAuthentication: wrong caller, bad backer/layer pairing, replayed
	// hash, or an invalid backer signature.
	ErrAuthentication = errors.New("authentication")
	// ErrAuthorization: a party has not approved the engine or cannot
	// cover its stake.
	ErrAuthorization = errors.New("authorization")
	// ErrValidation: unregistered collaborators, bad fixture state, or
	// malformed terms.
	ErrValidation = errors.New("validation")
	// ErrSettlement: claim on a non-Unclaimed hash, or before
	// resolution/grace-window.
	ErrSettlement = errors.New("settlement")
)

func authenticationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuthentication, fmt.Sprintf(format, args...))
}

func authorizationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, fmt.Sprintf(format, args...))
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func settlementErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSettlement, fmt.Sprintf(format, args...))
}

// Kind names the taxonomy bucket of err for logs and metrics.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrAuthorization):
		return "authorization"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrSettlement):
		return "settlement"
	default:
		return "internal"
	}
}
