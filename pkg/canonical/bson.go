package canonical

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUnsupportedType = errors.New("unsupported value type")

// FromBSON converts a value decoded by the MongoDB driver into a Value.
//
// Undefined members are dropped from documents and become Null inside arrays.
// bson.M and map[string]any carry no member order, so their keys are emitted
// sorted. Driver types with no Value counterpart (ObjectID, Binary, JavaScript,
// MinKey, ...) yield ErrUnsupportedType.
func FromBSON(v any) (Value, error) {
	switch x := v.(type) {
	case nil, primitive.Null, primitive.Undefined:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int32:
		return Number{n: x}, nil
	case int64:
		return Number{n: x}, nil
	case int:
		return Int(int64(x)), nil
	case float64:
		return Number{n: x}, nil
	case primitive.Decimal128:
		return Number{n: x}, nil
	case string:
		return Text(x), nil
	case primitive.DateTime:
		return NewTimestamp(x.Time()), nil
	case time.Time:
		return NewTimestamp(x), nil
	case primitive.Regex:
		return Pattern{Pattern: x.Pattern, Options: x.Options}, nil
	case bson.A:
		return fromSlice([]any(x))
	case []any:
		return fromSlice(x)
	case bson.D:
		return fromDocument(x)
	case bson.M:
		return fromMap(map[string]any(x))
	case map[string]any:
		return fromMap(x)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

func fromSlice(items []any) (Value, error) {
	arr := make(Array, 0, len(items))
	for i, item := range items {
		elem, err := FromBSON(item)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		arr = append(arr, elem)
	}
	return arr, nil
}

func fromDocument(doc bson.D) (Value, error) {
	obj := make(Object, 0, len(doc))
	for _, e := range doc {
		if _, undefined := e.Value.(primitive.Undefined); undefined {
			continue
		}
		val, err := FromBSON(e.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", e.Key, err)
		}
		obj = append(obj, Member{Key: e.Key, Value: val})
	}
	return obj, nil
}

func fromMap(m map[string]any) (Value, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: m[k]})
	}
	return fromDocument(doc)
}

// ToBSON converts v into driver types: bson.D for objects, bson.A for arrays,
// primitive.DateTime for timestamps and primitive.Regex for patterns.
func ToBSON(v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(x)
	case Number:
		return x.raw()
	case Text:
		return string(x)
	case Timestamp:
		return primitive.NewDateTimeFromTime(x.Time)
	case Pattern:
		return primitive.Regex{Pattern: x.Pattern, Options: x.Options}
	case Array:
		arr := make(bson.A, len(x))
		for i, elem := range x {
			arr[i] = ToBSON(elem)
		}
		return arr
	case Object:
		return ToDocument(x)
	default:
		return nil
	}
}

func ToDocument(obj Object) bson.D {
	doc := make(bson.D, len(obj))
	for i, m := range obj {
		doc[i] = bson.E{Key: m.Key, Value: ToBSON(m.Value)}
	}
	return doc
}
