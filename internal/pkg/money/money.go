package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimals is the fixed-point precision of the stable-value unit used by the
// lending contracts. All on-ledger amounts are integers at this scale.
const Decimals = 6

var microFactor = decimal.New(1, Decimals)

// ToMicro converts a human-readable decimal amount into micro-units.
// Conversions must be exact: inputs with more than six fractional digits or
// outside the int64 range are rejected rather than rounded.
func ToMicro(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("parse amount: %w", err)
	}
	scaled := d.Mul(microFactor)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s exceeds %d decimal places", amount, Decimals)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s out of range", amount)
	}
	return scaled.BigInt().Int64(), nil
}

// FromMicro renders micro-units as an exact decimal string.
func FromMicro(micro int64) string {
	return decimal.New(micro, -Decimals).String()
}

// UnitsToMicro converts whole units (e.g. configured loan limits) to micro-units.
func UnitsToMicro(units int64) int64 {
	return units * 1_000_000
}
