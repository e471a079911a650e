// Package value is the document value model shared by the adapter layer and
// the harness.
//
// Every parsed document becomes a tree of Values. The tree only contains the
// primitive categories a configuration document can express:
//
//	String   Integer   Float   Boolean   Datetime   Array   Table
//
// Parsers produce plain Go values ([]any, map[string]any, int64, ...) which
// FromNative converts. MarshalCanonical gives a stable byte form used for
// golden snapshots, and Hash derives a content hash from it.
package value
