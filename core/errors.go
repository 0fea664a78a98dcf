package core

import (
	"errors"
	"regexp"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrInconsistency signals an internal invariant break between the cache and
// the store. Operations that hit it must abort rather than continue on
// corrupted state.
var ErrInconsistency = errors.New("cache inconsistency")

// Domain validation errors. These are rejected operations the caller handles
// as normal control flow, not crashes.
var (
	ErrUserBanned         = errors.New("user is banned from the guild")
	ErrAlreadyBanned      = errors.New("user is already banned")
	ErrNotBanned          = errors.New("user is not banned")
	ErrMemberNotFound     = errors.New("member not found in guild")
	ErrInvalidChannelType = errors.New("invalid channel type")
	ErrInviteExhausted    = errors.New("invite has no uses left")
)

// IsNotFoundError checks if an error is a "not found" error
// This function handles both the ErrNotFound sentinel error and legacy string-based errors
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	// Check for legacy string-based errors for backward compatibility
	return containsNotFound(err.Error())
}

// containsNotFound checks if an error message contains "not found"
func containsNotFound(errMsg string) bool {
	return len(errMsg) > 0 && (regexp.MustCompile(`(?i)not found`).MatchString(errMsg))
}

// IsDomainError reports whether an error is a domain validation rejection
// rather than an I/O or consistency failure.
func IsDomainError(err error) bool {
	for _, sentinel := range []error{
		ErrUserBanned,
		ErrAlreadyBanned,
		ErrNotBanned,
		ErrMemberNotFound,
		ErrInvalidChannelType,
		ErrInviteExhausted,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
