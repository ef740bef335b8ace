package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAmount      = errors.New("invalid amount: must be a positive integer")
	ErrBalanceOverflow    = errors.New("amount would overflow the MP balance")
	ErrInsufficientFunds  = errors.New("insufficient mastery points")
	ErrTierLocked         = errors.New("tier locked")
	ErrValidationFailed   = errors.New("template validation failed")
	ErrMalformedState     = errors.New("malformed persisted state")
	ErrUnknownAchievement = errors.New("unknown achievement")
	ErrUnknownContent     = errors.New("unknown content item")
	ErrUnknownDomain      = errors.New("unknown content domain")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// ValidationError carries every violation found in a draft.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	codes := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		codes[i] = string(v.Code)
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(codes, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

// TierLockedError names the tier a gated action needs.
type TierLockedError struct {
	RequiredTier string
	CurrentTier  string
}

func (e *TierLockedError) Error() string {
	return fmt.Sprintf("%s: requires %s, current tier is %s", ErrTierLocked, e.RequiredTier, e.CurrentTier)
}

func (e *TierLockedError) Is(target error) bool { return target == ErrTierLocked }

// InsufficientFundsError reports how far short a spend fell.
type InsufficientFundsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: need %d, have %d", ErrInsufficientFunds, e.Required, e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }
