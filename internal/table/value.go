package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the runtime type of a cell value.
type Kind int

const (
	KindMissing Kind = iota
	KindText
	KindInteger
	KindReal
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single loosely typed cell. The zero value is the missing
// marker produced by non-fatal numeric coercion.
type Value struct {
	kind Kind
	text string
	ival int64
	fval float64
	tval time.Time
}

func Text(s string) Value       { return Value{kind: KindText, text: s} }
func Integer(i int64) Value     { return Value{kind: KindInteger, ival: i} }
func Real(f float64) Value      { return Value{kind: KindReal, fval: f} }
func Timestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, tval: t}
}
func Missing() Value { return Value{} }

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

func (v Value) Int64() int64     { return v.ival }
func (v Value) Float64() float64 { return v.fval }
func (v Value) Time() time.Time  { return v.tval }

// TextValue returns the underlying string for text cells.
func (v Value) TextValue() string { return v.text }

// Arg converts the value into a database/sql argument. Missing maps to NULL.
func (v Value) Arg() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindInteger:
		return v.ival
	case KindReal:
		return v.fval
	case KindTimestamp:
		return v.tval
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindInteger:
		return strconv.FormatInt(v.ival, 10)
	case KindReal:
		return strconv.FormatFloat(v.fval, 'g', -1, 64)
	case KindTimestamp:
		return v.tval.Format(time.RFC3339)
	default:
		return "NULL"
	}
}

// CoerceReal forces a value toward a real number. Unparseable text becomes
// the missing marker instead of failing, mirroring a coerce-to-NaN read.
func CoerceReal(v Value) Value {
	switch v.kind {
	case KindReal:
		return v
	case KindInteger:
		return Real(float64(v.ival))
	case KindText:
		s := strings.TrimSpace(v.text)
		if s == "" {
			return Missing()
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Missing()
		}
		return Real(f)
	default:
		return Missing()
	}
}

// CoerceInteger forces a value toward an integer, truncating reals.
// Unparseable text becomes the missing marker.
func CoerceInteger(v Value) Value {
	switch v.kind {
	case KindInteger:
		return v
	case KindReal:
		return Integer(int64(v.fval))
	case KindText:
		s := strings.TrimSpace(v.text)
		if s == "" {
			return Missing()
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Integer(i)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Integer(int64(f))
		}
		return Missing()
	default:
		return Missing()
	}
}

// CoerceText renders any non-missing value as text.
func CoerceText(v Value) Value {
	if v.kind == KindMissing {
		return v
	}
	if v.kind == KindText {
		return v
	}
	return Text(v.String())
}
