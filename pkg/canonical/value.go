package canonical

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindArray
	KindObject
	KindTimestamp
	KindPattern
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindTimestamp:
		return "timestamp"
	case KindPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// Value is implemented by the eight variants declared in this file only.
// A nil Value is treated as Null everywhere in this package.
type Value interface {
	Kind() Kind
}

type Null struct{}

type Bool bool

type Text string

type Array []Value

type Object []Member

type Member struct {
	Key   string
	Value Value
}

// Number keeps the numeric representation it was read with: int32, int64,
// float64 or primitive.Decimal128.
type Number struct {
	n any
}

type Timestamp struct {
	Time time.Time
}

type Pattern struct {
	Pattern string
	Options string
}

func (Null) Kind() Kind      { return KindNull }
func (Bool) Kind() Kind      { return KindBool }
func (Number) Kind() Kind    { return KindNumber }
func (Text) Kind() Kind      { return KindText }
func (Array) Kind() Kind     { return KindArray }
func (Object) Kind() Kind    { return KindObject }
func (Timestamp) Kind() Kind { return KindTimestamp }
func (Pattern) Kind() Kind   { return KindPattern }

func Int(i int64) Number {
	if i >= -1<<31 && i < 1<<31 {
		return Number{n: int32(i)}
	}
	return Number{n: i}
}

func Float(f float64) Number { return Number{n: f} }

func Decimal(d primitive.Decimal128) Number { return Number{n: d} }

// Float64 reports the number as a float64. Decimal128 values that do not
// parse as a float report ok == false.
func (n Number) Float64() (f float64, ok bool) {
	switch v := n.n.(type) {
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(v.String(), 64)
		return f, err == nil
	default:
		return 0, true
	}
}

func (n Number) raw() any {
	if n.n == nil {
		return int32(0)
	}
	return n.n
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// Get returns the value of the last member named key.
func (o Object) Get(key string) (Value, bool) {
	for i := len(o) - 1; i >= 0; i-- {
		if o[i].Key == key {
			return o[i].Value, true
		}
	}
	return nil, false
}

func (o Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

func KindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}
	return v.Kind()
}

// Equal reports deep equality, including member order. Numbers compare by
// stored representation, so Int(1) and Float(1) differ.
func Equal(a, b Value) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}
	switch x := a.(type) {
	case nil, Null:
		return true
	case Bool:
		return x == b.(Bool)
	case Number:
		return x.raw() == b.(Number).raw()
	case Text:
		return x == b.(Text)
	case Timestamp:
		return x.Time.Equal(b.(Timestamp).Time)
	case Pattern:
		return x == b.(Pattern)
	case Array:
		y := b.(Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Object:
		y := b.(Object)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i].Key != y[i].Key || !Equal(x[i].Value, y[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
