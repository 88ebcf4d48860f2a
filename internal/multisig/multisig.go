// Package multisig resolves a signatory set and threshold into the
// deterministic multisig account and the canonical co-signer order.
package multisig

import (
	"errors"
	"fmt"

	"time-release-helper/internal/models"
	"time-release-helper/internal/ss58"
	"time-release-helper/internal/validation"
)

// Resolve validates the signatories and derives the multisig account.
// Every invalid entry is reported, together with a bad threshold, in one joined error.
// When includeSender is set the sender joins the set if it is not already listed.
func Resolve(prefix uint16, threshold uint16, signatories []models.Signatory, sender models.Signatory, includeSender bool) (*models.MultisigConfig, error) {
	var errs []error
	ids := make([]ss58.AccountID, 0, len(signatories)+1)

	entries := signatories
	if includeSender && sender != "" {
		entries = append(append([]models.Signatory{}, signatories...), sender)
	}

	for _, s := range entries {
		if err := validation.ValidateAddress(s.String(), prefix); err != nil {
			errs = append(errs, err)
			continue
		}
		id, err := ss58.DecodeWithPrefix(s.String(), prefix)
		if err != nil {
			errs = append(errs, &models.InvalidAddressError{Which: s.String(), Reason: err.Error()})
			continue
		}
		ids = append(ids, id)
	}

	sorted := ss58.SortAccounts(ids)

	if threshold < 1 {
		errs = append(errs, fmt.Errorf("%w: threshold must be at least 1", models.ErrThresholdExceedsSignatories))
	} else if int(threshold) > len(sorted) {
		errs = append(errs, fmt.Errorf("%w: threshold %d, %d distinct signatories",
			models.ErrThresholdExceedsSignatories, threshold, len(sorted)))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	derived := ss58.MultisigAccount(sorted, threshold)
	addr, err := ss58.Encode(derived, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to encode multisig account: %w", err)
	}

	canonical := make([]models.Signatory, 0, len(sorted))
	for _, id := range sorted {
		enc, err := ss58.Encode(id, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to encode signatory: %w", err)
		}
		canonical = append(canonical, models.Signatory(enc))
	}

	return &models.MultisigConfig{
		Threshold:      threshold,
		Signatories:    canonical,
		DerivedAddress: models.Signatory(addr),
		Prefix:         prefix,
	}, nil
}

// OtherSignatories returns the canonical co-signer list without the sender,
// as expected by asMulti.
func OtherSignatories(cfg *models.MultisigConfig, sender models.Signatory) ([]ss58.AccountID, error) {
	senderID, err := ss58.DecodeWithPrefix(sender.String(), cfg.Prefix)
	if err != nil {
		return nil, &models.InvalidAddressError{Which: sender.String(), Reason: err.Error()}
	}

	if !Contains(cfg, sender) {
		return nil, fmt.Errorf("sender %s is not a signatory of %s", sender, cfg.DerivedAddress)
	}

	ids := make([]ss58.AccountID, 0, len(cfg.Signatories))
	for _, s := range cfg.Signatories {
		id, err := ss58.DecodeWithPrefix(s.String(), cfg.Prefix)
		if err != nil {
			return nil, &models.InvalidAddressError{Which: s.String(), Reason: err.Error()}
		}
		if id != senderID {
			ids = append(ids, id)
		}
	}

	return ss58.SortAccounts(ids), nil
}

// Contains reports whether addr is one of the configured signatories
func Contains(cfg *models.MultisigConfig, addr models.Signatory) bool {
	id, err := ss58.DecodeWithPrefix(addr.String(), cfg.Prefix)
	if err != nil {
		return false
	}
	for _, s := range cfg.Signatories {
		other, err := ss58.DecodeWithPrefix(s.String(), cfg.Prefix)
		if err == nil && other == id {
			return true
		}
	}
	return false
}
