package models

import (
	"errors"
	"fmt"
)

var (
	ErrThresholdExceedsSignatories = errors.New("threshold exceeds number of signatories")
	ErrStaleOrPastUnlockDate       = errors.New("unlock date is in the past or maps to a past block")
	ErrUnsupportedChain            = errors.New("no chain reference configured for this chain")
	ErrSigningRejected             = errors.New("signing rejected")
)

// InvalidAddressError reports a single address that failed validation
type InvalidAddressError struct {
	Which  string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("address %q is invalid: %s", e.Which, e.Reason)
}

// BroadcastFailedError is returned when the node refuses or drops the extrinsic
type BroadcastFailedError struct {
	Reason string
}

func (e *BroadcastFailedError) Error() string {
	return "broadcast failed: " + e.Reason
}

// RuntimeCallError is a dispatch failure reported by the chain
type RuntimeCallError struct {
	Reason string
}

func (e *RuntimeCallError) Error() string {
	return "runtime call error: " + e.Reason
}
