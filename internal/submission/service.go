// Package submission drives a transfer from call building through the
// broadcaster's status updates into the session ledger.
package submission

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"

	"time-release-helper/internal/extrinsic"
	"time-release-helper/internal/interfaces"
	"time-release-helper/internal/ledger"
	"time-release-helper/internal/metrics"
	"time-release-helper/internal/models"
	"time-release-helper/internal/multisig"
	"time-release-helper/internal/units"
	"time-release-helper/internal/validation"
)

var (
	ErrUnlockNotResolved = errors.New("unlock date has no resolved block")
	ErrWatchStopped      = errors.New("stopped watching before a terminal status")
	ErrTimedOut          = errors.New("submission timed out")
	ErrAlreadyInFlight   = errors.New("an identical transfer is still in flight")
)

// Request is everything needed to submit one transfer
type Request struct {
	Label     string
	Sender    models.Signatory
	Recipient models.Signatory
	Amount    *big.Int
	Unlock    models.UnlockTarget
	Mode      models.SubmissionMode
	Multisig  *models.MultisigConfig
}

// Service submits transfers and tracks them in a ledger
type Service struct {
	Network     models.NetworkName
	Builder     *extrinsic.Builder
	Broadcaster interfaces.Broadcaster
	Ledger      *ledger.Ledger
	Emitter     interfaces.EventEmitter
	// Timeout bounds the wait for a terminal status. Zero waits indefinitely.
	Timeout time.Duration
	Logger  *zerolog.Logger
}

// NewService wires a submission service
func NewService(network models.NetworkName, builder *extrinsic.Builder, broadcaster interfaces.Broadcaster,
	l *ledger.Ledger, emitter interfaces.EventEmitter, timeout time.Duration, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		Network:     network,
		Builder:     builder,
		Broadcaster: broadcaster,
		Ledger:      l,
		Emitter:     emitter,
		Timeout:     timeout,
		Logger:      logger,
	}
}

// Prepared is the output of the building phase
type Prepared struct {
	Transfer []byte
	Call     []byte
	Record   models.SubmissionRecord
	Details  []string
}

// Build validates the request and encodes the call without any network action
func (s *Service) Build(req Request) (*Prepared, error) {
	prefix := s.Builder.Prefix

	if err := validation.ValidateAddresses([]string{req.Sender.String(), req.Recipient.String()}, prefix); err != nil {
		return nil, err
	}
	if err := validation.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if !req.Unlock.Resolved() {
		return nil, ErrUnlockNotResolved
	}
	if *req.Unlock.ResolvedBlock > math.MaxUint32 {
		return nil, fmt.Errorf("unlock block %d does not fit a block number", *req.Unlock.ResolvedBlock)
	}
	unlock := uint32(*req.Unlock.ResolvedBlock)

	transfer, err := s.Builder.BuildTransfer(models.NewTransferCall(req.Recipient, req.Amount, unlock))
	if err != nil {
		return nil, fmt.Errorf("failed to build transfer: %w", err)
	}
	fingerprint := extrinsic.Fingerprint(transfer)
	callData := hexutil.Encode(transfer)

	rec := models.SubmissionRecord{
		Key:               fingerprint,
		Label:             req.Label,
		Recipient:         req.Recipient,
		Amount:            units.Group(req.Amount),
		Sender:            req.Sender,
		Signer:            req.Sender,
		UnlockBlock:       unlock,
		CallFingerprint:   fingerprint,
		RawCallBytes:      callData,
		Status:            models.StatusSending,
		FinalizedBlockRef: models.UnknownBlockRef,
	}

	details := []string{
		fmt.Sprintf("Recipient: %s", req.Recipient),
		fmt.Sprintf("Amount: %s", units.Group(req.Amount)),
		fmt.Sprintf("Unlocks: %s at block %d", req.Unlock.DateString(), unlock),
	}

	call := transfer
	if req.Mode == models.Multisig {
		cfg := req.Multisig
		if cfg == nil {
			return nil, errors.New("multisig mode requires a multisig configuration")
		}
		if cfg.Prefix != prefix {
			return nil, fmt.Errorf("multisig configured for prefix %d, chain uses %d", cfg.Prefix, prefix)
		}
		others, err := multisig.OtherSignatories(cfg, req.Sender)
		if err != nil {
			return nil, err
		}
		call = s.Builder.BuildAsMulti(cfg.Threshold, others, transfer)

		rec.Sender = cfg.DerivedAddress
		rec.Multisig = cfg.DerivedAddress
		details = append(details, fmt.Sprintf("From Multisig: %s", cfg.DerivedAddress))
	}

	details = append(details,
		fmt.Sprintf("Sender: %s", req.Sender),
		fmt.Sprintf("Parameters: Start: %d, Period: 1, Period Count: 1, Per Period: %s", unlock, req.Amount),
		fmt.Sprintf("Call Hash: %s", fingerprint),
		fmt.Sprintf("Call Data: %s", callData),
	)

	return &Prepared{Transfer: transfer, Call: call, Record: rec, Details: details}, nil
}

// Submit builds the call, records it under its fingerprint and hands it to
// the broadcaster in the background. Building errors are returned without
// creating a record. Failures after the record exists, including signing and
// the submit itself, are reported through the handle.
func (s *Service) Submit(ctx context.Context, req Request) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := s.Build(req)
	if err != nil {
		return nil, err
	}

	if key, ok := s.inFlight(b.Record.CallFingerprint); ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInFlight, key)
	}
	if _, ok := s.Ledger.Get(b.Record.Key); ok {
		s.Ledger.Put(b.Record)
	} else if err := s.Ledger.InsertProvisional(b.Record); err != nil {
		return nil, err
	}

	rec, _ := s.Ledger.Get(b.Record.Key)
	h := newHandle(rec)
	lease := acquireIndicator()

	metrics.RecordSubmission(s.Network.String(), req.Mode.String())
	metrics.RecordStatus(s.Network.String(), string(rec.Status))
	s.emit(rec, "Sending time release", b.Details)

	t := &tracker{service: s, handle: h, lease: lease, rec: rec}
	go t.run(ctx, b.Call, req.Sender)
	return h, nil
}

// inFlight finds a non-terminal record for the same call, under either its
// fingerprint or its promoted transaction hash
func (s *Service) inFlight(fingerprint string) (string, bool) {
	for _, rec := range s.Ledger.Records() {
		if rec.CallFingerprint == fingerprint && !rec.Status.Terminal() {
			return rec.Key, true
		}
	}
	return "", false
}

func (s *Service) emit(rec models.SubmissionRecord, message string, details []string) {
	if s.Emitter == nil {
		return
	}
	event := models.SubmissionEvent{
		SessionID: s.Ledger.SessionID(),
		Network:   s.Network,
		Message:   message,
		Details:   details,
		Record:    rec,
		Timestamp: time.Now().UTC(),
	}
	if err := s.Emitter.EmitEvent(event); err != nil {
		s.Logger.Error().Err(err).Str("key", rec.Key).Msg("Failed to emit submission event")
	}
}

// classify maps broadcaster failures to the error taxonomy
func classify(err error) error {
	var broadcast *models.BroadcastFailedError
	var runtime *models.RuntimeCallError
	switch {
	case errors.Is(err, models.ErrSigningRejected),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &broadcast),
		errors.As(err, &runtime):
		return err
	default:
		return &models.BroadcastFailedError{Reason: err.Error()}
	}
}
