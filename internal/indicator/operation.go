package indicator

import (
	"fmt"
	"strings"
)

// Operation selects how samples of an indicator are folded together.
type Operation int

const (
	OperationUnknown Operation = iota
	Sum
	Average
	Count
)

// String returns the canonical upper-case name of the operation.
func (o Operation) String() string {
	switch o {
	case Sum:
		return "SUM"
	case Average:
		return "AVERAGE"
	case Count:
		return "COUNT"
	default:
		return "UNKNOWN"
	}
}

func (o Operation) Valid() bool {
	return o == Sum || o == Average || o == Count
}

// ParseOperation is case-insensitive. "SUMMARY" is accepted as an alias of SUM.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUM", "SUMMARY":
		return Sum, nil
	case "AVERAGE", "AVG":
		return Average, nil
	case "COUNT":
		return Count, nil
	default:
		return OperationUnknown, fmt.Errorf("%w: unknown operation %q", ErrMalformedRecord, s)
	}
}

func (o Operation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Operation) UnmarshalText(text []byte) error {
	op, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}
