// Package canonical provides a deterministic key ordering for JSON-like documents.
//
// Documents read back from the store carry whatever member order the store kept.
// Canonicalize rewrites a Value so that every object, at every depth, lists its
// members in ascending key order, while arrays keep their element order. Two
// documents that differ only in member insertion order therefore serialize to the
// same bytes, which makes the output usable for string equality, hashing and ETags.
//
// Value is a closed set of variants:
//   - Null, Bool, Number, Text: scalar leaves
//   - Array: ordered sequence of Value
//   - Object: ordered list of key/value members
//   - Timestamp, Pattern: opaque leaves, never decomposed or reordered
//
// Canonicalize is pure and safe for concurrent use. It does not detect reference
// cycles; values built by ParseJSON or FromBSON are always acyclic.
//
// The serialization format is relaxed MongoDB Extended JSON, of which plain JSON is
// a subset. Timestamps serialize as {"$date": ...} and patterns as
// {"$regularExpression": ...}, so a document read from the service can be written
// back unchanged.
package canonical
