package match

import (
	"errors"
	"fmt"
)

// Error kinds. Callers branch on these with errors.Is.
var (
	// A mutation was attempted on a finished match
	ErrMatchLocked = errors.New("match is locked")
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("requested resource not found")
	// The persistence collaborator failed; the cause is kept in the chain
	ErrTransport = errors.New("transport failure")
)

// Validation failures. Each wraps ErrValidation.
var (
	ErrInvalidMinute       = fmt.Errorf("%w: minute must be a positive integer", ErrValidation)
	ErrTeamNotInMatch      = fmt.Errorf("%w: team does not play in this match", ErrValidation)
	ErrMissingPlayer       = fmt.Errorf("%w: player is required", ErrValidation)
	ErrSamePlayer          = fmt.Errorf("%w: players must be different", ErrValidation)
	ErrInvalidCardColor    = fmt.Errorf("%w: card color must be yellow or red", ErrValidation)
	ErrUnknownFormation    = fmt.Errorf("%w: unknown formation", ErrValidation)
	ErrInvalidSlot         = fmt.Errorf("%w: slot index out of range", ErrValidation)
	ErrPlayerAssigned      = fmt.Errorf("%w: player already has a role in this lineup", ErrValidation)
	ErrPlayerNotInRoster   = fmt.Errorf("%w: player is not in the team roster", ErrValidation)
	ErrIncompleteLineup    = fmt.Errorf("%w: both teams need 11 starting players", ErrValidation)
	ErrNegativeValue       = fmt.Errorf("%w: value must not be negative", ErrValidation)
	ErrPenaltiesNotAllowed = fmt.Errorf("%w: penalties need a live knockout match that is level", ErrValidation)
	ErrInvalidHalf         = fmt.Errorf("%w: half must be 1 or 2", ErrValidation)
)

// Transport classifies a repository failure. Not found and already classified
// errors pass through unchanged.
func Transport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrValidation) || errors.Is(err, ErrMatchLocked) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
