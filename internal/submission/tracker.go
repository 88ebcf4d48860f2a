package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"time-release-helper/internal/metrics"
	"time-release-helper/internal/models"
	"time-release-helper/internal/validation"
)

// tracker applies status events to one record
type tracker struct {
	service  *Service
	handle   *Handle
	lease    *indicatorLease
	rec      models.SubmissionRecord
	promoted bool
}

type broadcastResult struct {
	events <-chan models.StatusEvent
	err    error
}

// run signs and submits the call, then follows its status. Timeout covers
// both phases.
func (t *tracker) run(ctx context.Context, call []byte, signer models.Signatory) {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var timeout <-chan time.Time
	if t.service.Timeout > 0 {
		timer := time.NewTimer(t.service.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	started := make(chan broadcastResult, 1)
	go func() {
		events, err := t.service.Broadcaster.SignAndBroadcast(watchCtx, call, signer)
		started <- broadcastResult{events: events, err: err}
	}()

	var events <-chan models.StatusEvent
	select {
	case res := <-started:
		if res.err != nil {
			t.fail(res.err.Error(), classify(res.err))
			return
		}
		events = res.events
	case <-timeout:
		t.fail(fmt.Sprintf("no reply to submission after %s", t.service.Timeout), ErrTimedOut)
		return
	case <-ctx.Done():
		t.fail(ctx.Err().Error(), ctx.Err())
		return
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.stop(ErrWatchStopped)
				return
			}
			if t.apply(ev) {
				return
			}
		case <-timeout:
			t.fail(fmt.Sprintf("no terminal status after %s", t.service.Timeout), ErrTimedOut)
			return
		case <-ctx.Done():
			t.stop(fmt.Errorf("%w: %w", ErrWatchStopped, ctx.Err()))
			return
		}
	}
}

// apply handles one event and reports whether the record reached a terminal status
func (t *tracker) apply(ev models.StatusEvent) bool {
	logger := t.service.Logger
	if t.rec.Status.Terminal() {
		logger.Debug().Str("key", t.rec.Key).Str("kind", string(ev.Kind)).Msg("Ignoring event after terminal status")
		return true
	}

	if ev.TxHash != "" && !t.promoted {
		if err := validation.ValidateTxHash(ev.TxHash); err != nil {
			logger.Warn().Err(err).Str("key", t.rec.Key).Msg("Ignoring malformed transaction id")
		} else {
			t.promote(ev.TxHash)
		}
	}

	var message string
	switch ev.Kind {
	case models.EventReady:
		t.rec.Status = models.StatusSent
		message = "Transaction status: Ready"
	case models.EventBroadcast:
		t.rec.Status = models.StatusBroadcast
		message = "Transaction status: Broadcast"
	case models.EventInBlock:
		t.rec.Status = models.StatusInBlock
		message = fmt.Sprintf("Transaction %s included at block hash %s", t.rec.TxHash, ev.BlockRef)
	case models.EventFinalized:
		t.rec.Status = models.StatusFinalized
		if ev.BlockRef != "" {
			t.rec.FinalizedBlockRef = ev.BlockRef
		}
		message = fmt.Sprintf("Transaction %s finalized at block hash %s", t.rec.TxHash, ev.BlockRef)
	case models.EventError:
		reason := ev.Reason
		if reason == "" && ev.Err != nil {
			reason = ev.Err.Error()
		}
		err := ev.Err
		if err == nil {
			err = &models.BroadcastFailedError{Reason: reason}
		}
		t.fail(reason, classify(err))
		return true
	default:
		logger.Warn().Str("key", t.rec.Key).Str("kind", string(ev.Kind)).Msg("Unknown status event")
		return false
	}

	t.commit(message)
	if t.rec.Status.Terminal() {
		t.lease.release()
		t.handle.finish(nil)
		return true
	}
	return false
}

// promote rekeys the record from its fingerprint to the transaction hash
func (t *tracker) promote(txHash string) {
	old := t.rec.Key
	if !t.service.Ledger.PromoteKey(old, txHash) {
		t.service.Logger.Info().Str("key", old).Str("tx_hash", txHash).Msg("Record no longer in ledger, re-adding")
	}
	t.rec.Key = txHash
	t.rec.TxHash = txHash
	t.promoted = true
}

// commit writes the record to the ledger, the handle and the emitter
func (t *tracker) commit(message string) {
	s := t.service
	s.Ledger.Put(t.rec)
	rec, ok := s.Ledger.Get(t.rec.Key)
	if ok {
		t.rec = rec
	}
	t.handle.update(t.rec)

	metrics.RecordStatus(s.Network.String(), string(t.rec.Status))
	s.Logger.Info().
		Str("key", t.rec.Key).
		Str("label", t.rec.Label).
		Str("status", t.rec.StatusText()).
		Msg("Submission status changed")
	s.emit(t.rec, message, nil)
}

// fail moves the record to Error and ends the handle
func (t *tracker) fail(reason string, err error) {
	t.rec.Status = models.StatusError
	t.rec.ErrorMessage = reason
	t.commit(fmt.Sprintf("Transaction error: %s", reason))
	t.lease.release()
	t.handle.finish(err)
}

// stop ends the handle without changing the record's status
func (t *tracker) stop(err error) {
	if !errors.Is(err, context.Canceled) {
		t.service.Logger.Warn().Err(err).Str("key", t.rec.Key).Msg("Status stream ended")
	}
	t.lease.release()
	t.handle.finish(err)
}
