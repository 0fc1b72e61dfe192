package logstore

import (
	"github.com/tidwall/btree"

	"github.com/roach88/linklog/internal/snapshot"
)

// nodeSeq is the ordered entry sequence of a single node.
type nodeSeq struct {
	id      uint32
	entries []snapshot.Entry
}

func nodeSeqLess(a, b *nodeSeq) bool {
	return a.id < b.id
}

// Builder collects entries before they are frozen into a Store.
//
// A Builder is not safe for concurrent use. After Build it must not be used again.
type Builder struct {
	nodes *btree.BTreeG[*nodeSeq]
	count int
	built bool
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{nodes: btree.NewBTreeG(nodeSeqLess)}
}

// Add appends e to the sequence of e.NodeID().
//
// Entries for the same node must arrive in non-decreasing line order; this is
// not checked here (see Store.Verify). Add panics if called after Build.
func (b *Builder) Add(e snapshot.Entry) {
	if b.built {
		panic("logstore: Add called after Build")
	}
	seq, ok := b.nodes.Get(&nodeSeq{id: e.NodeID()})
	if !ok {
		seq = &nodeSeq{id: e.NodeID()}
		b.nodes.Set(seq)
	}
	seq.entries = append(seq.entries, e)
	b.count++
}

// AddAll appends every entry in order.
func (b *Builder) AddAll(entries []snapshot.Entry) {
	for _, e := range entries {
		b.Add(e)
	}
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int {
	return b.count
}

// Build freezes the collected entries into a read-only Store.
func (b *Builder) Build() *Store {
	if b.built {
		panic("logstore: Build called twice")
	}
	b.built = true
	s := &Store{nodes: b.nodes, count: b.count}
	b.nodes = nil
	return s
}

// FromEntries builds a Store from entries in loader order.
func FromEntries(entries []snapshot.Entry) *Store {
	b := NewBuilder()
	b.AddAll(entries)
	return b.Build()
}
