// Package money holds the currency and unit helpers shared by the form
// parser, the POS normalizer and the report renderer. All amounts are integer
// minor units (satang); 100 minor units make one baht.
package money

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmpty      = errors.New("value is empty")
	ErrNotNumeric = errors.New("value is not numeric")
	ErrFractional = errors.New("value must be a whole number")
	ErrNegative   = errors.New("value must not be negative")
	ErrOutOfRange = errors.New("value is out of range")
)

var (
	hundred  = decimal.NewFromInt(100)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// ToMinor converts a major-unit amount to minor units, rounding half away from zero.
func ToMinor(amount decimal.Decimal) (int64, error) {
	return toInt64(amount.Mul(hundred).Round(0))
}

// RoundWhole rounds a quantity half away from zero to a whole number.
func RoundWhole(d decimal.Decimal) (int64, error) {
	return toInt64(d.Round(0))
}

// toInt64 converts a whole decimal, refusing values int64 cannot hold.
func toInt64(d decimal.Decimal) (int64, error) {
	if d.GreaterThan(maxInt64) || d.LessThan(minInt64) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	return d.IntPart(), nil
}

// FromMinor is the inverse of ToMinor.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred)
}

// ParseMinor parses a major-unit amount such as "1,250.50" or "฿80" into minor units.
func ParseMinor(raw string) (int64, error) {
	d, err := parseDecimal(raw)
	if err != nil {
		return 0, err
	}
	return ToMinor(d)
}

// ParseCount parses a whole-number quantity.
func ParseCount(raw string) (int64, error) {
	d, err := parseDecimal(raw)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, ErrFractional
	}
	return toInt64(d)
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "฿")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, ErrEmpty
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	return d, nil
}

// FormatTHB renders minor units as "฿1,234.50".
func FormatTHB(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	whole := minor / 100
	frac := minor % 100
	return fmt.Sprintf("%s฿%s.%02d", sign, groupThousands(whole), frac)
}

// FormatGrams renders a weight, switching to kilograms at 1000 g.
func FormatGrams(grams int64) string {
	if grams >= 1000 || grams <= -1000 {
		return decimal.NewFromInt(grams).Div(decimal.NewFromInt(1000)).StringFixed(2) + " kg"
	}
	return fmt.Sprintf("%d g", grams)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Input is raw numeric form input. It accepts a JSON number or a JSON string
// and keeps the text so the caller decides how to parse it and what a bad
// value means, instead of silently reading it as zero.
type Input string

func (in *Input) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*in = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*in = Input(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrNotNumeric, string(trimmed))
	}
	*in = Input(n.String())
	return nil
}

func (in Input) MarshalJSON() ([]byte, error) {
	if in == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(in))
}

func (in Input) Present() bool {
	return strings.TrimSpace(string(in)) != ""
}

func (in Input) Minor() (int64, error) {
	return ParseMinor(string(in))
}

func (in Input) Count() (int64, error) {
	return ParseCount(string(in))
}
