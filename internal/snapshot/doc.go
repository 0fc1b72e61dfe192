// Package snapshot provides the immutable log entry value for linklog.
//
// An Entry records one node's complete strong/weak edge-mask state as of a
// specific log line. This package contains value types only. All other
// internal packages import snapshot; snapshot imports nothing internal.
//
// Key design constraints:
//   - Entries are frozen after construction; no method mutates an Entry or Mask
//   - Masks own their storage; constructors copy caller slices
//   - Bit access is total: any index at or past Len (or negative) reads false
//   - Strong and weak masks are sized independently
package snapshot
