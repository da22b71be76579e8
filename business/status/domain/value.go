// Package domain contains the core domain types for the status context.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kind discriminates the shape of a Value.
type Kind int

const (
	KindUnknown Kind = iota
	KindNumber
	KindText
)

// Value is the latest scalar an indicator shows. The zero Value is unknown.
type Value struct {
	kind Kind
	num  decimal.Decimal
	unit string
	text string
}

// Unknown returns the not-yet-emitted value.
func Unknown() Value {
	return Value{}
}

// Number creates a numeric value.
func Number(d decimal.Decimal) Value {
	return Value{kind: KindNumber, num: d}
}

// NumberWithUnit creates a numeric value rendered with a unit suffix.
func NumberWithUnit(d decimal.Decimal, unit string) Value {
	return Value{kind: KindNumber, num: d, unit: unit}
}

// Uint64 creates a numeric value from n.
func Uint64(n uint64) Value {
	return Number(decimal.NewFromUint64(n))
}

// Int64 creates a numeric value from n.
func Int64(n int64) Value {
	return Number(decimal.NewFromInt(n))
}

// Text creates a free-form value (hashes, labels).
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsUnknown reports whether no value has been accepted yet.
func (v Value) IsUnknown() bool {
	return v.kind == KindUnknown
}

// Decimal returns the numeric value. Text that parses as a number counts as
// numeric.
func (v Value) Decimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		d, err := decimal.NewFromString(strings.TrimSpace(v.text))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// Unit returns the unit suffix of a numeric value.
func (v Value) Unit() string {
	return v.unit
}

// Raw renders the value without its unit, as substituted into links.
func (v Value) Raw() string {
	switch v.kind {
	case KindNumber:
		return v.num.String()
	case KindText:
		return v.text
	}
	return ""
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		if v.unit == "" {
			return v.num.String()
		}
		return v.num.String() + " " + v.unit
	case KindText:
		return v.text
	}
	return "…"
}

// Equal reports whether two values render identically and share a kind.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.unit != o.unit {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num.Equal(o.num)
	case KindText:
		return v.text == o.text
	}
	return true
}
