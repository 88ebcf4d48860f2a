// Package units converts planck amounts to display strings.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is used when the node does not report tokenDecimals
const DefaultDecimals = 8

// FormatBalance renders planck as whole units with a fixed fraction.
// Zero renders as "0.0".
func FormatBalance(planck *big.Int, decimals uint8) string {
	if planck == nil || planck.Sign() == 0 {
		return "0.0"
	}
	return scaled(planck, int32(decimals)).StringFixed(int32(decimals))
}

// FormatUnit renders planck in UNIT with `decimals` places, e.g. "1.00000000 FRQCY"
func FormatUnit(planck *big.Int, decimals uint8, symbol string) string {
	return fmt.Sprintf("%s %s", scaled(planck, int32(decimals)).StringFixed(int32(decimals)), symbol)
}

// FormatMilliUnit renders planck in mUNIT with `decimals - 3` places
func FormatMilliUnit(planck *big.Int, decimals uint8, symbol string) string {
	exp := int32(decimals) - 3
	if exp < 0 {
		exp = 0
	}
	return fmt.Sprintf("%s m%s", scaled(planck, exp).StringFixed(exp), symbol)
}

// ParsePlanck parses an integer planck amount, allowing digit grouping with
// commas or underscores.
func ParsePlanck(s string) (*big.Int, error) {
	clean := strings.NewReplacer(",", "", "_", "", " ", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return nil, fmt.Errorf("amount is empty")
	}

	v, err := decimal.NewFromString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !v.IsInteger() {
		return nil, fmt.Errorf("amount %q must be a whole number of planck", s)
	}
	return v.BigInt(), nil
}

// ParseUnits converts a UNIT amount such as "1.5" into planck
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	planck := v.Shift(int32(decimals))
	if !planck.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
	}
	return planck.BigInt(), nil
}

// Group renders planck with thousands separators
func Group(planck *big.Int) string {
	if planck == nil {
		return "0"
	}
	digits := new(big.Int).Abs(planck).String()

	var b strings.Builder
	if planck.Sign() < 0 {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func scaled(planck *big.Int, exp int32) decimal.Decimal {
	if planck == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(planck, -exp)
}
