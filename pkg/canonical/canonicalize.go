package canonical

import (
	"encoding/hex"
	"slices"
	"strings"

	"github.com/zeebo/blake3"
)

// Canonicalize returns a copy of v in which every object lists its members in
// ascending byte-wise key order. Array order is preserved. When an object holds
// the same key more than once, the last occurrence wins. v is not modified.
func Canonicalize(v Value) Value {
	switch x := v.(type) {
	case Array:
		return canonicalArray(x)
	case Object:
		return canonicalObject(x)
	default:
		return v
	}
}

func canonicalArray(arr Array) Array {
	out := make(Array, len(arr))
	for i, elem := range arr {
		out[i] = Canonicalize(elem)
	}
	return out
}

func canonicalObject(obj Object) Object {
	sorted := slices.Clone(obj)
	slices.SortStableFunc(sorted, func(a, b Member) int {
		return strings.Compare(a.Key, b.Key)
	})

	out := make(Object, 0, len(sorted))
	for i, m := range sorted {
		if i+1 < len(sorted) && sorted[i+1].Key == m.Key {
			continue
		}
		out = append(out, Member{Key: m.Key, Value: Canonicalize(m.Value)})
	}
	return out
}

// Stringify serializes the canonical form of v.
func Stringify(v Value) ([]byte, error) {
	return Marshal(Canonicalize(v))
}

// Digest returns the hex BLAKE3-256 hash of Stringify(v).
func Digest(v Value) (string, error) {
	b, err := Stringify(v)
	if err != nil {
		return "", err
	}
	return DigestBytes(b), nil
}

// DigestBytes hashes an already canonical serialization.
func DigestBytes(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
