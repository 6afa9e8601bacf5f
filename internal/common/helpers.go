package common

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// TokenDecimals is the reward token precision (6 decimals, like USDC)
const TokenDecimals = 6

// ErrEmptyAmount is returned when an amount string is blank
var ErrEmptyAmount = errors.New("empty amount")

// FormatUnits converts base units to a decimal string without float precision loss
// Example: FormatUnits(big.NewInt(30000000), 6) = "30.000000"
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		value = new(big.Int)
	}

	neg := value.Sign() < 0
	s := new(big.Int).Abs(value).String()

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	pos := len(s) - decimals
	out := s[:pos]
	if decimals > 0 {
		out += "." + s[pos:]
	}
	if neg {
		out = "-" + out
	}
	return out
}

// ParseUnits converts a decimal string to base units by removing the decimal point.
// More fractional digits than decimals and negative values are rejected.
// Example: ParseUnits("0.5", 6) = 500000
func ParseUnits(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyAmount
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	s = strings.TrimPrefix(s, "+")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid decimal format %q", s)
	}

	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid decimal format %q", s)
	}
	if whole == "" {
		whole = "0"
	}

	// Pad fractional part to exact decimals
	if len(frac) > decimals {
		return nil, fmt.Errorf("too many decimal places in %q (max %d)", s, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	combined := whole + frac
	for _, r := range combined {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("invalid decimal format %q", s)
		}
	}

	n, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal format %q", s)
	}
	return n, nil
}

// FormatToken formats base units at the token scale
func FormatToken(value *big.Int) string {
	return FormatUnits(value, TokenDecimals)
}

// ParseToken parses a decimal token amount into base units
func ParseToken(s string) (*big.Int, error) {
	return ParseUnits(s, TokenDecimals)
}
