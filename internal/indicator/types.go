package indicator

import (
	"fmt"
	"time"
)

// ReportTimeLayout is the layout of the window timestamps embedded in Report.Result.
const ReportTimeLayout = "2006-01-02 15:04:05"

// UndefinedValue is displayed for a summary whose operation has no display rule.
const UndefinedValue = "undefined"

// Record is one observed sample of an indicator for an API.
type Record struct {
	API       string    `json:"api"`
	Name      string    `json:"indicator"`
	Value     Decimal   `json:"value"`
	Unit      string    `json:"unit"`
	Operation Operation `json:"operation"`
}

// Validate rejects records that cannot be keyed or folded.
func (r Record) Validate() error {
	switch {
	case r.API == "":
		return fmt.Errorf("%w: empty api", ErrMalformedRecord)
	case r.Name == "":
		return fmt.Errorf("%w: empty indicator name for api %q", ErrMalformedRecord, r.API)
	case !r.Operation.Valid():
		return fmt.Errorf("%w: unknown operation %d for %s/%s", ErrMalformedRecord, int(r.Operation), r.API, r.Name)
	}
	return nil
}

// Summary is the running accumulation for one (api, indicator) key.
// Operation and Unit come from the first record seen for the key.
type Summary struct {
	API         string
	Name        string
	Unit        string
	Operation   Operation
	Accumulated Decimal
	Samples     int64
	LastReset   time.Time
}

// NewSummary creates an empty summary keyed and typed by its first record.
func NewSummary(first Record, now time.Time) *Summary {
	return &Summary{
		API:       first.API,
		Name:      first.Name,
		Unit:      first.Unit,
		Operation: first.Operation,
		LastReset: now,
	}
}

// Apply folds one record into the summary.
func (s *Summary) Apply(r Record) {
	switch s.Operation {
	case Sum, Average:
		s.Accumulated = s.Accumulated.Add(r.Value)
	}
	s.Samples++
}

// DisplayValue renders the value a report shows for the summary.
// ok is false when the operation has no display rule.
func (s *Summary) DisplayValue() (value Decimal, ok bool) {
	switch s.Operation {
	case Average:
		return s.Accumulated.DivInt(s.Samples), true
	case Sum:
		return s.Accumulated, true
	case Count:
		return NewDecimalFromInt64(s.Samples), true
	default:
		return Decimal{}, false
	}
}

// Reset zeroes the summary and starts a new window at now.
func (s *Summary) Reset(now time.Time) {
	s.Accumulated = Decimal{}
	s.Samples = 0
	s.LastReset = now
}

// Report is the immutable outcome of one summary at snapshot time.
type Report struct {
	API         string    `json:"api"`
	Name        string    `json:"indicator"`
	Result      string    `json:"result"`
	Operation   Operation `json:"operation"`
	Value       Decimal   `json:"value"`
	Defined     bool      `json:"defined"`
	Unit        string    `json:"unit"`
	Samples     int64     `json:"samples"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// Assemble builds the report for s over the window ending at now.
func Assemble(s *Summary, now time.Time) Report {
	value, ok := s.DisplayValue()
	display := UndefinedValue
	if ok {
		display = value.String()
	}
	result := fmt.Sprintf("API: %s, %s: %s %s, during %s , %s",
		s.API, s.Name, display, s.Unit,
		s.LastReset.Format(ReportTimeLayout), now.Format(ReportTimeLayout))

	return Report{
		API:         s.API,
		Name:        s.Name,
		Result:      result,
		Operation:   s.Operation,
		Value:       value,
		Defined:     ok,
		Unit:        s.Unit,
		Samples:     s.Samples,
		WindowStart: s.LastReset,
		WindowEnd:   now,
	}
}
