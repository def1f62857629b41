package mysql

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies which field of a Value is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt64
	KindUint64
	KindFloat64
	KindDecimal
	KindBytes
	KindString
	KindDate
	KindTime
	KindDateTime
	KindJSON
)

// Value is the tagged union this client decodes every column value into,
// whether coming off the text protocol (spec §4.5) or the binary protocol
// (spec §4.6). Exactly one field is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Int64    int64
	Uint64   uint64
	Float64  float64
	Decimal  decimal.Decimal
	Bytes    []byte
	Str      string
	Time     time.Time     // Date, DateTime, Timestamp
	Duration time.Duration // Time (duration-of-day, may be negative)
	JSON     interface{}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders the value for display/debugging; it is not a parse-safe
// SQL literal.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInt64:
		return fmt.Sprintf("%d", v.Int64)
	case KindUint64:
		return fmt.Sprintf("%d", v.Uint64)
	case KindFloat64:
		return fmt.Sprintf("%v", v.Float64)
	case KindDecimal:
		return v.Decimal.String()
	case KindBytes:
		return string(v.Bytes)
	case KindString:
		return v.Str
	case KindDate:
		return v.Time.Format("2006-01-02")
	case KindDateTime:
		return v.Time.Format("2006-01-02 15:04:05.999999")
	case KindTime:
		return v.Duration.String()
	case KindJSON:
		return fmt.Sprintf("%v", v.JSON)
	}
	return ""
}

// NullValue, Int64Value, and friends construct Values for binding as
// Stmt.Execute parameters.
func NullValue() Value                { return Value{Kind: KindNull} }
func Int64Value(v int64) Value        { return Value{Kind: KindInt64, Int64: v} }
func Uint64Value(v uint64) Value      { return Value{Kind: KindUint64, Uint64: v} }
func Float64Value(v float64) Value    { return Value{Kind: KindFloat64, Float64: v} }
func StringValue(v string) Value      { return Value{Kind: KindString, Str: v} }
func BytesValue(v []byte) Value       { return Value{Kind: KindBytes, Bytes: v} }
func DateTimeValue(t time.Time) Value { return Value{Kind: KindDateTime, Time: t} }

func nullValue() Value               { return Value{Kind: KindNull} }
func int64Value(v int64) Value       { return Value{Kind: KindInt64, Int64: v} }
func uint64Value(v uint64) Value     { return Value{Kind: KindUint64, Uint64: v} }
func float64Value(v float64) Value   { return Value{Kind: KindFloat64, Float64: v} }
func stringValue(v string) Value     { return Value{Kind: KindString, Str: v} }
func bytesValue(v []byte) Value      { return Value{Kind: KindBytes, Bytes: v} }
func dateValue(t time.Time) Value    { return Value{Kind: KindDate, Time: t} }
func dateTimeValue(t time.Time) Value {
	return Value{Kind: KindDateTime, Time: t}
}
func timeValue(d time.Duration) Value { return Value{Kind: KindTime, Duration: d} }
func jsonValue(v interface{}) Value   { return Value{Kind: KindJSON, JSON: v} }

func decimalValue(s string) Value {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return stringValue(s)
	}
	return Value{Kind: KindDecimal, Decimal: d}
}
