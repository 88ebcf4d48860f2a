package validation

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"regexp"

	"time-release-helper/internal/models"
	"time-release-helper/internal/ss58"
)

var txHashRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)

// ValidateAddress checks an SS58 address against the chain prefix
func ValidateAddress(address string, prefix uint16) error {
	if address == "" {
		return &models.InvalidAddressError{Which: address, Reason: "address cannot be empty"}
	}

	// SS58 account addresses are 47 or 48 characters; leave room for other prefixes
	if len(address) < 32 || len(address) > 64 {
		return &models.InvalidAddressError{Which: address, Reason: "address length is invalid"}
	}

	if err := ss58.Check(address, prefix); err != nil {
		return &models.InvalidAddressError{Which: address, Reason: err.Error()}
	}

	return nil
}

// ValidateAddresses validates every address and joins all failures
func ValidateAddresses(addresses []string, prefix uint16) error {
	var errs []error
	for _, addr := range addresses {
		if err := ValidateAddress(addr, prefix); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ValidateAmount validates a planck amount
func ValidateAmount(amount *big.Int) error {
	if amount == nil {
		return errors.New("amount cannot be nil")
	}

	if amount.Sign() < 0 {
		return errors.New("amount cannot be negative")
	}

	// u128 on chain
	if amount.BitLen() > 128 {
		return errors.New("amount exceeds maximum allowed value")
	}

	return nil
}

// ValidateTxHash validates a 32-byte hex hash with 0x prefix
func ValidateTxHash(txHash string) error {
	if txHash == "" {
		return errors.New("transaction hash cannot be empty")
	}

	if !txHashRegex.MatchString(txHash) {
		return fmt.Errorf("invalid transaction hash: %s", txHash)
	}

	return nil
}

// ValidateURL validates a node or signer endpoint
func ValidateURL(raw string) error {
	if raw == "" {
		return errors.New("URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("URL has no host")
	}

	return nil
}
