package indicator

import (
	"errors"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperation(t *testing.T) {
	tests := []struct {
		in      string
		want    Operation
		wantErr bool
	}{
		{in: "SUM", want: Sum},
		{in: "summary", want: Sum},
		{in: "Average", want: Average},
		{in: " count ", want: Count},
		{in: "MEDIAN", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOperation(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedRecord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "UNKNOWN", Operation(42).String())
}

func TestRecordValidate(t *testing.T) {
	valid := Record{API: "/orders", Name: "latency", Value: NewDecimalFromInt64(1), Unit: "ms", Operation: Sum}
	require.NoError(t, valid.Validate())

	noAPI := valid
	noAPI.API = ""
	assert.ErrorIs(t, noAPI.Validate(), ErrMalformedRecord)

	noName := valid
	noName.Name = ""
	assert.ErrorIs(t, noName.Validate(), ErrMalformedRecord)

	badOp := valid
	badOp.Operation = Operation(9)
	assert.ErrorIs(t, badOp.Validate(), ErrMalformedRecord)
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord([]byte(`{"api":"/orders","indicator":"latency","value":12.5,"unit":"ms","operation":"average"}`))
	require.NoError(t, err)
	assert.Equal(t, "/orders", rec.API)
	assert.Equal(t, "latency", rec.Name)
	assert.Equal(t, "12.5", rec.Value.String())
	assert.Equal(t, Average, rec.Operation)

	rec, err = ParseRecord([]byte(`{"api":"/orders","indicator":"bytes","value":"1024","unit":"B","operation":"SUM"}`))
	require.NoError(t, err)
	assert.Equal(t, "1024", rec.Value.String())

	_, err = ParseRecord([]byte(`{"api":`))
	assert.ErrorIs(t, err, ErrJSONUnmarshalFailed)

	_, err = ParseRecord([]byte(`{"api":"/orders","indicator":"latency","value":1,"operation":"p99"}`))
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = ParseRecord([]byte(`{"api":"/orders","indicator":"latency","value":1}`))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestParseRecords(t *testing.T) {
	recs, err := ParseRecords([]byte(` [
		{"api":"/a","indicator":"hits","value":0,"operation":"COUNT"},
		{"api":"/b","indicator":"hits","value":0,"operation":"COUNT"}
	]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "/b", recs[1].API)

	recs, err = ParseRecords([]byte(`{"api":"/a","indicator":"hits","value":0,"operation":"COUNT"}`))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	_, err = ParseRecords([]byte(`[{"api":"","indicator":"hits","value":0,"operation":"COUNT"}]`))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestSummaryApplyAndDisplay(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	end := start.Add(time.Minute)

	t.Run("average", func(t *testing.T) {
		first := Record{API: "/orders", Name: "latency", Unit: "ms", Operation: Average}
		s := NewSummary(first, start)
		for _, v := range []int64{10, 20, 30} {
			r := first
			r.Value = NewDecimalFromInt64(v)
			s.Apply(r)
		}
		report := Assemble(s, end)
		assert.Equal(t, "20", report.Value.String())
		assert.Equal(t, int64(3), report.Samples)
		assert.Equal(t, "API: /orders, latency: 20 ms, during 2024-03-01 10:00:00 , 2024-03-01 10:01:00", report.Result)
	})

	t.Run("average keeps the fraction", func(t *testing.T) {
		s := NewSummary(Record{API: "/a", Name: "n", Operation: Average}, start)
		s.Apply(Record{Value: NewDecimalFromInt64(1)})
		s.Apply(Record{Value: NewDecimalFromInt64(2)})
		v, ok := s.DisplayValue()
		require.True(t, ok)
		assert.Equal(t, "1.5", v.String())
	})

	t.Run("sum", func(t *testing.T) {
		s := NewSummary(Record{API: "/a", Name: "bytes", Operation: Sum}, start)
		s.Apply(Record{Value: MustDecimal("0.1")})
		s.Apply(Record{Value: MustDecimal("0.2")})
		v, ok := s.DisplayValue()
		require.True(t, ok)
		assert.Equal(t, 0, v.Cmp(MustDecimal("0.3")))
	})

	t.Run("count ignores values", func(t *testing.T) {
		s := NewSummary(Record{API: "/a", Name: "hits", Operation: Count}, start)
		s.Apply(Record{Value: NewDecimalFromInt64(100)})
		s.Apply(Record{Value: NewDecimalFromInt64(200)})
		assert.True(t, s.Accumulated.IsZero())
		v, _ := s.DisplayValue()
		assert.Equal(t, "2", v.String())
	})

	t.Run("unknown operation is undefined", func(t *testing.T) {
		s := &Summary{API: "/a", Name: "x", Operation: OperationUnknown, Samples: 1, LastReset: start}
		report := Assemble(s, end)
		assert.False(t, report.Defined)
		assert.Contains(t, report.Result, UndefinedValue)
	})

	t.Run("reset", func(t *testing.T) {
		s := NewSummary(Record{API: "/a", Name: "n", Operation: Sum}, start)
		s.Apply(Record{Value: NewDecimalFromInt64(5)})
		s.Reset(end)
		assert.Zero(t, s.Samples)
		assert.True(t, s.Accumulated.IsZero())
		assert.Equal(t, end, s.LastReset)
	})
}

func TestDecimal(t *testing.T) {
	_, err := NewDecimal("abc")
	assert.Error(t, err)
	_, err = NewDecimal("NaN")
	assert.Error(t, err)

	var d Decimal
	require.NoError(t, d.UnmarshalJSON([]byte(`"3.25"`)))
	assert.Equal(t, "3.25", d.String())
	assert.InDelta(t, 3.25, d.Float64(), 1e-9)
	assert.Error(t, d.UnmarshalJSON([]byte(`null`)))

	assert.True(t, NewDecimalFromInt64(7).DivInt(0).IsZero())
	assert.Equal(t, "2.5", NewDecimalFromInt64(10).DivInt(4).String())
}

func TestDecimalExponentRange(t *testing.T) {
	for _, in := range []string{"1e99999", "-1e99999", "1e-99999", "1e101", "0.5e-100"} {
		_, err := NewDecimal(in)
		assert.Error(t, err, in)
	}
	for _, in := range []string{"1e100", "9.99e100", "1e-100", "0e99999", "12345.678"} {
		_, err := NewDecimal(in)
		assert.NoError(t, err, in)
	}

	_, err := ParseRecord([]byte(`{"api":"/a","indicator":"x","value":"1e99999","operation":"SUM"}`))
	assert.ErrorIs(t, err, ErrJSONUnmarshalFailed)
	_, err = ParseRecord([]byte(`{"api":"/a","indicator":"x","value":1e99999,"operation":"SUM"}`))
	assert.ErrorIs(t, err, ErrJSONUnmarshalFailed)
}

func TestDecimalArithmeticFailuresPanic(t *testing.T) {
	assert.NotPanics(t, func() { mustCompute("add", 0, nil) })

	overflow := errors.New("overflow")
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrDecimalArithmetic)
		assert.ErrorIs(t, err, overflow)
	}()
	mustCompute("add", apd.Overflow, overflow)
}
