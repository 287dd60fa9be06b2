package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const envelopeKey = "v"

var (
	envelopePrefix = []byte(`{"` + envelopeKey + `":`)
	envelopeSuffix = []byte(`}`)

	ErrInvalidJSON = errors.New("invalid JSON")
)

// ParseJSON parses a JSON value of any kind, keeping object member order.
//
// Objects are taken literally, including $-prefixed keys, except for the
// single-member wrappers Marshal writes for values plain JSON cannot carry:
// $date, $regularExpression, non-finite $numberDouble and $numberDecimal.
// A wrapper whose payload does not have the expected shape stays an Object.
func ParseJSON(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidJSON)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: malformed document", ErrInvalidJSON)
	}

	d := &decoder{iter: jsoniter.ParseBytes(jsonConfig, data)}
	v := d.value()
	if d.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, d.err)
	}
	if err := d.iter.Error; err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return v, nil
}

var jsonConfig = jsoniter.Config{UseNumber: true}.Froze()

type decoder struct {
	iter *jsoniter.Iterator
	err  error
}

func (d *decoder) value() Value {
	switch d.iter.WhatIsNext() {
	case jsoniter.NilValue:
		d.iter.ReadNil()
		return Null{}
	case jsoniter.BoolValue:
		return Bool(d.iter.ReadBool())
	case jsoniter.StringValue:
		return Text(d.iter.ReadString())
	case jsoniter.NumberValue:
		n, err := parseNumber(d.iter.ReadNumber())
		if err != nil {
			d.err = err
			return nil
		}
		return n
	case jsoniter.ArrayValue:
		arr := Array{}
		d.iter.ReadArrayCB(func(*jsoniter.Iterator) bool {
			arr = append(arr, d.value())
			return d.err == nil
		})
		return arr
	case jsoniter.ObjectValue:
		obj := Object{}
		d.iter.ReadObjectCB(func(_ *jsoniter.Iterator, key string) bool {
			obj = append(obj, Member{Key: key, Value: d.value()})
			return d.err == nil
		})
		return unwrap(obj)
	default:
		d.err = errors.New("unexpected token")
		return nil
	}
}

// parseNumber keeps integer literals that fit in 64 bits as integers.
func parseNumber(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("number %s out of range", s)
	}
	return Float(f), nil
}

func unwrap(obj Object) Value {
	if len(obj) != 1 {
		return obj
	}

	switch m := obj[0]; m.Key {
	case "$date":
		switch x := m.Value.(type) {
		case Text:
			if t, err := time.Parse(time.RFC3339Nano, string(x)); err == nil {
				return NewTimestamp(t)
			}
		case Object:
			if len(x) == 1 && x[0].Key == "$numberLong" {
				if s, ok := x[0].Value.(Text); ok {
					if ms, err := strconv.ParseInt(string(s), 10, 64); err == nil {
						return NewTimestamp(time.UnixMilli(ms))
					}
				}
			}
		}
	case "$regularExpression":
		if x, ok := m.Value.(Object); ok && len(x) == 2 {
			pattern, okP := x.Get("pattern")
			options, okO := x.Get("options")
			p, isP := pattern.(Text)
			o, isO := options.(Text)
			if okP && okO && isP && isO {
				return Pattern{Pattern: string(p), Options: string(o)}
			}
		}
	case "$numberDouble":
		if s, ok := m.Value.(Text); ok {
			switch s {
			case "NaN":
				return Float(math.NaN())
			case "Infinity":
				return Float(math.Inf(1))
			case "-Infinity":
				return Float(math.Inf(-1))
			}
		}
	case "$numberDecimal":
		if s, ok := m.Value.(Text); ok {
			if d, err := primitive.ParseDecimal128(string(s)); err == nil {
				return Decimal(d)
			}
		}
	}
	return obj
}

// Marshal serializes v as compact relaxed Extended JSON in member order.
func Marshal(v Value) ([]byte, error) {
	out, err := bson.MarshalExtJSON(bson.D{{Key: envelopeKey, Value: ToBSON(v)}}, false, false)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", KindOf(v), err)
	}
	if !bytes.HasPrefix(out, envelopePrefix) || !bytes.HasSuffix(out, envelopeSuffix) {
		return nil, fmt.Errorf("marshal %s: unexpected encoder output", KindOf(v))
	}
	return out[len(envelopePrefix) : len(out)-len(envelopeSuffix)], nil
}
