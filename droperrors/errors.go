package droperrors

import (
	"errors"
	"strings"
)

// Claim (C) Errors
var (
	ErrCStaleRoot      = errors.New("C1|StaleRoot: Claim cites a merkle root that is not the currently active one.")
	ErrCInvalidProof   = errors.New("C2|InvalidProof: Merkle proof does not connect the claim leaf to the cited root.")
	ErrCNothingToClaim = errors.New("C3|NothingToClaim: Cited cumulative amount does not exceed the effective claimed amount.")
)

// Administration (A) Errors
var (
	ErrAUnauthorized       = errors.New("A1|Unauthorized: Caller is not the distributor owner.")
	ErrAInvalidAddress     = errors.New("A2|InvalidAddress: Required address argument is the zero address.")
	ErrAIncompatibleLegacy = errors.New("A3|ConstructionIncompatible: Legacy distributor reports a different token than this instance.")
	ErrATokenNotLive       = errors.New("A4|TokenNotLive: Token reports a zero total supply; distributor refuses to bind to an uninitialized token.")
)

// Store (S) Errors
var (
	ErrSStoreCorrupt = errors.New("S1|StoreCorrupt: Persisted distributor record cannot be decoded.")
)

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	if len(parts) < 2 {
		return errStr
	}
	nameDesc := parts[1]
	// Split on ':' to separate the error name from its description.
	nameParts := strings.SplitN(nameDesc, ":", 2)
	if len(nameParts) < 1 {
		return errStr
	}
	return strings.TrimSpace(nameParts[0])
}
