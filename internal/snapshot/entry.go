package snapshot

import "fmt"

// Entry is one node's edge-mask snapshot, effective from Line onward.
//
// Entry has no exported fields and no mutating methods. Copying an Entry by
// value shares its read-only mask storage; use Clone when an independent
// deep copy is required across an ownership boundary.
type Entry struct {
	nodeID uint32
	line   uint32
	strong Mask
	weak   Mask
}

// New creates an Entry, copying strong and weak into storage owned by the entry.
func New(nodeID, line uint32, strong, weak []bool) Entry {
	return Entry{
		nodeID: nodeID,
		line:   line,
		strong: MaskFromBools(strong),
		weak:   MaskFromBools(weak),
	}
}

// NewFromMasks creates an Entry from already-built masks.
// Masks are immutable, so no copy is taken.
func NewFromMasks(nodeID, line uint32, strong, weak Mask) Entry {
	return Entry{nodeID: nodeID, line: line, strong: strong, weak: weak}
}

// Clone returns a deep copy whose masks share no storage with e.
func (e Entry) Clone() Entry {
	return Entry{
		nodeID: e.nodeID,
		line:   e.line,
		strong: e.strong.Clone(),
		weak:   e.weak.Clone(),
	}
}

// NodeID returns the id of the node the masks refer to.
func (e Entry) NodeID() uint32 {
	return e.nodeID
}

// Line returns the log line at which this snapshot becomes effective.
func (e Entry) Line() uint32 {
	return e.line
}

// Strong reports whether a strong link to edge index i exists.
// Out-of-range indices report false.
func (e Entry) Strong(i int) bool {
	return e.strong.Bit(i)
}

// Weak reports whether a weak link to edge index i exists.
// Out-of-range indices report false.
func (e Entry) Weak(i int) bool {
	return e.weak.Bit(i)
}

// StrongSize returns the strong mask bit count.
func (e Entry) StrongSize() int {
	return e.strong.Len()
}

// WeakSize returns the weak mask bit count.
func (e Entry) WeakSize() int {
	return e.weak.Len()
}

// StrongMask returns the strong mask.
func (e Entry) StrongMask() Mask {
	return e.strong
}

// WeakMask returns the weak mask.
func (e Entry) WeakMask() Mask {
	return e.weak
}

// MaxSize returns the larger of the two mask sizes.
func (e Entry) MaxSize() int {
	return max(e.strong.Len(), e.weak.Len())
}

// SameLinks reports whether e and o describe identical strong and weak links,
// ignoring node, line and trailing zero padding.
func (e Entry) SameLinks(o Entry) bool {
	return e.strong.SameLinks(o.strong) && e.weak.SameLinks(o.weak)
}

// String returns a compact human-readable form.
func (e Entry) String() string {
	return fmt.Sprintf("node=%d line=%d strong=%s weak=%s", e.nodeID, e.line, e.strong, e.weak)
}

// LineBefore reports whether line < e.Line().
//
// It is the ordering predicate for an upper-bound search over entries sorted
// by line: the first entry for which it holds is the first one strictly after
// line, and the entry preceding it is the one effective at line.
func LineBefore(line uint32, e Entry) bool {
	return line < e.line
}
