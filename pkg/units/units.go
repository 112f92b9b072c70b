// Package units converts token amounts between human readable decimal strings
// and integer base units without going through floating point.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const MaxDecimals = 77

var (
	ErrInvalidAmount   = errors.New("invalid decimal amount")
	ErrInvalidDecimals = errors.New("decimals out of range")
)

var decimalPattern = regexp.MustCompile(`^[0-9]*(\.[0-9]*)?$`)

// ToBaseUnits converts a decimal string such as "12.5" into base units for a
// token with the given decimals. Fraction digits beyond decimals are truncated.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDecimals, decimals)
	}

	clean := strings.TrimSpace(amount)
	if clean == "" || clean == "." || !decimalPattern.MatchString(clean) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	intPart, fracPart, _ := strings.Cut(clean, ".")
	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	} else {
		fracPart += strings.Repeat("0", decimals-len(fracPart))
	}

	combined := strings.TrimLeft(intPart+fracPart, "0")
	if combined == "" {
		return new(big.Int), nil
	}

	n, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return n, nil
}

// ToHumanUnits renders base units as a decimal string with trailing zeros
// removed. ToBaseUnits(ToHumanUnits(x, d), d) == x for every x >= 0.
func ToHumanUnits(baseUnits *big.Int, decimals int) string {
	if baseUnits == nil {
		return "0"
	}
	if decimals <= 0 {
		return baseUnits.String()
	}

	neg := baseUnits.Sign() < 0
	s := new(big.Int).Abs(baseUnits).String()
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	intPart := s[:len(s)-decimals]
	fracPart := strings.TrimRight(s[len(s)-decimals:], "0")

	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// FromFloat renders a float amount as its shortest exact decimal string, so
// 0.1 becomes "0.1" rather than the binary expansion.
func FromFloat(amount float64) string {
	return decimal.NewFromFloat(amount).String()
}

// FloatToBaseUnits is FromFloat followed by ToBaseUnits.
func FloatToBaseUnits(amount float64, decimals int) (*big.Int, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: negative amount", ErrInvalidAmount)
	}
	return ToBaseUnits(FromFloat(amount), decimals)
}
