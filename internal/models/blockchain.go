package models

import (
	"errors"
	"time"
)

// NetworkName identifies a configured chain
type NetworkName string

const (
	Frequency NetworkName = "Frequency"
	Rococo    NetworkName = "Rococo"
)

func (n NetworkName) String() string {
	return string(n)
}

// ChainReference anchors the linear time-to-block extrapolation at a known block.
type ChainReference struct {
	BlockHeight   uint64        `json:"block_height"`
	Timestamp     time.Time     `json:"timestamp"`
	BlockInterval time.Duration `json:"block_interval"`
}

// Validate checks the invariants of a reference
func (r ChainReference) Validate() error {
	if r.BlockInterval <= 0 {
		return errors.New("block interval must be positive")
	}
	if r.Timestamp.IsZero() {
		return errors.New("reference timestamp is not set")
	}
	return nil
}

// UnlockTarget is a calendar date and the block it resolved to, if any.
// ResolvedBlock is nil when the date could not be resolved.
type UnlockTarget struct {
	Year          int
	Month         time.Month
	Day           int
	ResolvedBlock *uint64
}

// Resolved reports whether the target carries a block
func (u UnlockTarget) Resolved() bool {
	return u.ResolvedBlock != nil
}

// DateString renders the calendar date as YYYY-MM-DD
func (u UnlockTarget) DateString() string {
	return time.Date(u.Year, u.Month, u.Day, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
}

// Weight is the execution budget handed to a wrapped multisig call
type Weight struct {
	RefTime   uint64 `json:"ref_time" yaml:"ref_time"`
	ProofSize uint64 `json:"proof_size" yaml:"proof_size"`
}

// ChainProperties is the subset of system_properties the helper reads
type ChainProperties struct {
	SS58Format    uint16 `json:"ss58Format"`
	TokenSymbol   string `json:"tokenSymbol"`
	TokenDecimals uint8  `json:"tokenDecimals"`
}
