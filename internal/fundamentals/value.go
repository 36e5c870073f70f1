// Package fundamentals normalizes raw XBRL facts into canonical annual
// and quarterly financial records. Every metric is nullable: company
// filings routinely omit tags, and an absent number must stay absent
// rather than collapse to zero.
package fundamentals

import "strconv"

// Value is a nullable float64. The zero value is unknown.
type Value struct {
	Float64 float64
	Valid   bool
}

// Known returns a valid Value.
func Known(f float64) Value {
	return Value{Float64: f, Valid: true}
}

// Unknown is the absent Value.
var Unknown = Value{}

// Add returns v+o, unknown if either side is unknown.
func (v Value) Add(o Value) Value {
	if !v.Valid || !o.Valid {
		return Unknown
	}
	return Known(v.Float64 + o.Float64)
}

// Sub returns v-o, unknown if either side is unknown.
func (v Value) Sub(o Value) Value {
	if !v.Valid || !o.Valid {
		return Unknown
	}
	return Known(v.Float64 - o.Float64)
}

// Mul returns v*o, unknown if either side is unknown.
func (v Value) Mul(o Value) Value {
	if !v.Valid || !o.Valid {
		return Unknown
	}
	return Known(v.Float64 * o.Float64)
}

// Div returns v/o. Unknown inputs and a zero denominator both yield
// unknown, never a panic or an infinity.
func (v Value) Div(o Value) Value {
	if !v.Valid || !o.Valid || o.Float64 == 0 {
		return Unknown
	}
	return Known(v.Float64 / o.Float64)
}

// Abs returns |v|.
func (v Value) Abs() Value {
	if !v.Valid {
		return Unknown
	}
	if v.Float64 < 0 {
		return Known(-v.Float64)
	}
	return v
}

// Or substitutes a default when v is unknown. Used for additive terms
// where a missing component means zero, such as short term investments
// alongside known cash.
func (v Value) Or(def float64) Value {
	if v.Valid {
		return v
	}
	return Known(def)
}

// Ptr converts to the *float64 shape used by the store layer.
func (v Value) Ptr() *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// FromPtr converts a *float64 back into a Value.
func FromPtr(p *float64) Value {
	if p == nil {
		return Unknown
	}
	return Known(*p)
}

// String renders the value for reports. Unknown renders empty, which
// the CSV writer passes through as a blank cell.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}
