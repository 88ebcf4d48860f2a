package models

import (
	"fmt"
	"math/big"
	"time"
)

// Signatory is an SS58 encoded account address
type Signatory string

func (s Signatory) String() string {
	return string(s)
}

// MultisigConfig is a resolved multisig account. Signatories are unique and
// sorted by their decoded account bytes, sender included.
type MultisigConfig struct {
	Threshold      uint16      `json:"threshold"`
	Signatories    []Signatory `json:"signatories"`
	DerivedAddress Signatory   `json:"derived_address"`
	Prefix         uint16      `json:"prefix"`
}

// TransferCall is a one-shot time-locked release: the whole amount becomes
// available at UnlockBlock.
type TransferCall struct {
	Recipient     Signatory
	AmountPlanck  *big.Int
	UnlockBlock   uint32
	ScheduleStart uint32
	Period        uint32
	PeriodCount   uint32
}

// NewTransferCall pins the schedule to a single period starting at unlockBlock
func NewTransferCall(recipient Signatory, amount *big.Int, unlockBlock uint32) TransferCall {
	return TransferCall{
		Recipient:     recipient,
		AmountPlanck:  new(big.Int).Set(amount),
		UnlockBlock:   unlockBlock,
		ScheduleStart: unlockBlock,
		Period:        1,
		PeriodCount:   1,
	}
}

// SubmissionMode selects how the transfer is sent
type SubmissionMode int

const (
	Direct SubmissionMode = iota
	Multisig
)

func (m SubmissionMode) String() string {
	if m == Multisig {
		return "multisig"
	}
	return "direct"
}

// Status is the lifecycle tag of a submission
type Status string

const (
	StatusSending   Status = "Sending"
	StatusSent      Status = "Sent"
	StatusBroadcast Status = "Broadcast"
	StatusInBlock   Status = "InBlock"
	StatusFinalized Status = "Finalized"
	StatusError     Status = "Error"
)

// Terminal reports whether no further transition is allowed
func (s Status) Terminal() bool {
	return s == StatusFinalized || s == StatusError
}

const UnknownBlockRef = "unknown"

// SubmissionRecord is one ledger entry
type SubmissionRecord struct {
	Key               string    `json:"key"`
	Label             string    `json:"label"`
	Recipient         Signatory `json:"recipient"`
	Amount            string    `json:"amount"`
	Sender            Signatory `json:"sender"`
	Signer            Signatory `json:"signer"`
	Multisig          Signatory `json:"multisig,omitempty"`
	UnlockBlock       uint32    `json:"unlock_block"`
	CallFingerprint   string    `json:"call_fingerprint"`
	RawCallBytes      string    `json:"raw_call_bytes"`
	Status            Status    `json:"status"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	FinalizedBlockRef string    `json:"finalized_block_ref"`
	TxHash            string    `json:"tx_hash,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

var recordFieldNames = []string{
	"Key", "Label", "Recipient", "Amount", "Sender", "Multisig",
	"UnlockBlock", "CallFingerprint", "RawCallBytes", "Status", "FinalizedBlockRef",
}

// FieldNames returns the exported column names in row order
func (r SubmissionRecord) FieldNames() []string {
	names := make([]string, len(recordFieldNames))
	copy(names, recordFieldNames)
	return names
}

// StatusText renders the status, with the error message for Error
func (r SubmissionRecord) StatusText() string {
	if r.Status == StatusError && r.ErrorMessage != "" {
		return fmt.Sprintf("Error(%s)", r.ErrorMessage)
	}
	return string(r.Status)
}

// Values returns the record's column values in FieldNames order
func (r SubmissionRecord) Values() []string {
	return []string{
		r.Key,
		r.Label,
		r.Recipient.String(),
		r.Amount,
		r.Sender.String(),
		r.Multisig.String(),
		fmt.Sprintf("%d", r.UnlockBlock),
		r.CallFingerprint,
		r.RawCallBytes,
		r.StatusText(),
		r.FinalizedBlockRef,
	}
}

// EventKind is the kind of a status event reported by the broadcaster
type EventKind string

const (
	EventReady     EventKind = "ready"
	EventBroadcast EventKind = "broadcast"
	EventInBlock   EventKind = "inBlock"
	EventFinalized EventKind = "finalized"
	EventError     EventKind = "error"
)

// StatusEvent is one update from the signing/broadcast collaborator
type StatusEvent struct {
	Kind     EventKind
	TxHash   string
	BlockRef string
	Reason   string
	Err      error
}

// SubmissionEvent is an emitted transition of a ledger record
type SubmissionEvent struct {
	SessionID string           `json:"session_id"`
	Network   NetworkName      `json:"network"`
	Message   string           `json:"message"`
	Details   []string         `json:"details,omitempty"`
	Record    SubmissionRecord `json:"record"`
	Timestamp time.Time        `json:"timestamp"`
}
