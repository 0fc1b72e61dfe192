// Package logstore provides the per-node snapshot store with point-in-time lookup.
//
// The store has two phases:
//   - Build: a single producer appends entries through a Builder, in
//     non-decreasing line order per node
//   - Query: Build freezes the data into a Store that is read-only for its
//     whole lifetime
//
// # Lookup
//
// At(node, L) runs an upper-bound binary search over the node's entries for the
// first entry with line > L; the entry before it is the effective snapshot.
// When L precedes the node's first entry, or the node is unknown, the result is
// absent: callers treat that as "no known edges", never as an error.
//
// # Ordering Precondition
//
// The store does not re-sort. Input that repeats or decreases a line for the
// same node makes lookups for that node unreliable. Verify reports such input
// and is intended for loaders and tooling; the query path never checks it.
//
// # Concurrency
//
// A Store is immutable. At, GraphAt and the other accessors are safe for
// concurrent use without additional locking.
package logstore
