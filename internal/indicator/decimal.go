package indicator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// decimalContext is shared by every arithmetic operation on Decimal.
var decimalContext = apd.BaseContext.WithPrecision(34)

// maxAdjustedExponent bounds the magnitude of accepted values. Text('f')
// writes every digit, so 1e99999 would otherwise render 100k characters.
const maxAdjustedExponent = 100

// Decimal is an exact decimal number used for indicator values and their
// running totals. The zero value is 0.
type Decimal struct {
	value apd.Decimal
}

func NewDecimal(s string) (Decimal, error) {
	var d apd.Decimal
	if _, _, err := d.SetString(strings.TrimSpace(s)); err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return Decimal{}, fmt.Errorf("invalid decimal %q: not a finite number", s)
	}
	if !d.IsZero() {
		adjusted := int64(d.Exponent) + d.NumDigits() - 1
		if adjusted > maxAdjustedExponent || adjusted < -maxAdjustedExponent {
			return Decimal{}, fmt.Errorf("invalid decimal %q: exponent out of range", s)
		}
	}
	return Decimal{value: d}, nil
}

// MustDecimal is NewDecimal for constants; it panics on malformed input.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func NewDecimalFromInt64(i int64) Decimal {
	var d apd.Decimal
	d.SetInt64(i)
	return Decimal{value: d}
}

func (d Decimal) String() string {
	return d.value.Text('f')
}

func (d Decimal) IsZero() bool {
	return d.value.IsZero()
}

func (d Decimal) Cmp(other Decimal) int {
	return d.value.Cmp(&other.value)
}

// Float64 converts d for consumers that only speak float, such as gauges.
func (d Decimal) Float64() float64 {
	f, err := d.value.Float64()
	if err != nil {
		return 0
	}
	return f
}

// Add returns the sum of d and other.
func (d Decimal) Add(other Decimal) Decimal {
	var result apd.Decimal
	cond, err := decimalContext.Add(&result, &d.value, &other.value)
	mustCompute("add", cond, err)
	return Decimal{value: result}
}

// DivInt returns d divided by n. Dividing by zero yields zero.
func (d Decimal) DivInt(n int64) Decimal {
	if n == 0 {
		return Decimal{}
	}
	var divisor, result apd.Decimal
	divisor.SetInt64(n)
	cond, err := decimalContext.Quo(&result, &d.value, &divisor)
	mustCompute("divide", cond, err)
	// Strip trailing zeros so 60/3 renders as "20", not "20.000...".
	result.Reduce(&result)
	return Decimal{value: result}
}

// mustCompute panics when an operation raised a trapped condition. Callers
// run on the summary worker, whose recover logs the failure and keeps going.
func mustCompute(op string, cond apd.Condition, err error) {
	if err != nil {
		panic(fmt.Errorf("%w: %s (%s): %w", ErrDecimalArithmetic, op, cond, err))
	}
}

// UnmarshalJSON accepts both JSON numbers and numeric strings.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return fmt.Errorf("invalid decimal: null")
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	parsed, err := NewDecimal(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}
