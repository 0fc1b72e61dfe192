package logstore

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linklog/internal/snapshot"
	"github.com/roach88/linklog/internal/testutil"
)

// entryAt creates an entry whose strong mask encodes its line, for identification.
func entryAt(nodeID, line uint32) snapshot.Entry {
	return snapshot.NewFromMasks(nodeID, line, snapshot.MustParseMask("1"), snapshot.Mask{})
}

func TestAt_PointInTimeLookup(t *testing.T) {
	s := FromEntries([]snapshot.Entry{
		entryAt(0, 2),
		entryAt(0, 5),
		entryAt(0, 9),
	})

	tests := []struct {
		line     uint32
		wantOK   bool
		wantLine uint32
	}{
		{0, false, 0},
		{1, false, 0},
		{2, true, 2},
		{3, true, 2},
		{4, true, 2},
		{5, true, 5},
		{6, true, 5},
		{8, true, 5},
		{9, true, 9},
		{10, true, 9},
		{^uint32(0), true, 9},
	}

	for _, tt := range tests {
		e, ok := s.At(0, tt.line)
		require.Equal(t, tt.wantOK, ok, "line %d", tt.line)
		if tt.wantOK {
			assert.Equal(t, tt.wantLine, e.Line(), "line %d", tt.line)
			assert.Equal(t, uint32(0), e.NodeID())
		}
	}
}

func TestAt_UnknownNodeIsAbsent(t *testing.T) {
	s := FromEntries([]snapshot.Entry{entryAt(1, 0)})

	for _, line := range []uint32{0, 1, 100, ^uint32(0)} {
		_, ok := s.At(2, line)
		assert.False(t, ok, "line %d", line)
	}
}

func TestAt_EmptyStore(t *testing.T) {
	s := NewBuilder().Build()

	_, ok := s.At(0, 10)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Nodes())
	assert.NotNil(t, s.Nodes())
	assert.Empty(t, s.GraphAt(5).Nodes)
	assert.NotNil(t, s.GraphAt(5).Nodes)
	assert.NoError(t, s.Verify())
}

func TestAt_AbsentDiffersFromEmptySnapshot(t *testing.T) {
	s := FromEntries([]snapshot.Entry{snapshot.New(0, 3, nil, nil)})

	_, ok := s.At(0, 2)
	assert.False(t, ok, "before first snapshot is unknown")

	e, ok := s.At(0, 3)
	require.True(t, ok, "empty masks are a known state")
	assert.Equal(t, 0, e.StrongSize())
	assert.Equal(t, 0, e.WeakSize())
}

func TestAt_NodesAreIndependent(t *testing.T) {
	s := FromEntries([]snapshot.Entry{
		entryAt(0, 1),
		entryAt(1, 4),
		entryAt(0, 6),
		entryAt(1, 7),
	})

	e, ok := s.At(0, 5)
	require.True(t, ok)
	assert.Equal(t, uint32(1), e.Line())

	e, ok = s.At(1, 5)
	require.True(t, ok)
	assert.Equal(t, uint32(4), e.Line())

	_, ok = s.At(1, 3)
	assert.False(t, ok)
}

func TestAt_MatchesLinearScan(t *testing.T) {
	for seed := uint64(1); seed <= 50; seed++ {
		gen := testutil.NewSequenceGenerator(seed)
		n := int(gen.Line(40))
		entries := gen.Entries(5, n)
		s := FromEntries(entries)

		var limit uint32 = 10
		if n > 0 {
			limit = entries[n-1].Line() + 10
		}
		for i := 0; i < 200; i++ {
			line := gen.Line(limit)
			want, wantOK := testutil.LinearScan(entries, line)
			got, gotOK := s.At(5, line)

			require.Equal(t, wantOK, gotOK, "seed %d line %d", seed, line)
			if wantOK {
				require.Equal(t, want.Line(), got.Line(), "seed %d line %d", seed, line)
				require.True(t, want.StrongMask().Equal(got.StrongMask()))
				require.True(t, want.WeakMask().Equal(got.WeakMask()))
			}
		}
	}
}

func TestGraphAt_IsUnionOfPerNodeQueries(t *testing.T) {
	gen := testutil.NewSequenceGenerator(11)
	entries := gen.Interleaved(6, 25)
	s := FromEntries(entries)
	last := entries[len(entries)-1].Line()

	for i := 0; i < 300; i++ {
		line := gen.Line(last + 5)
		state := s.GraphAt(line)
		assert.Equal(t, line, state.Line)

		present := 0
		for _, id := range s.Nodes() {
			want, ok := s.At(id, line)
			got, inState := state.Get(id)
			require.Equal(t, ok, inState, "node %d line %d", id, line)
			if ok {
				present++
				assert.Equal(t, want.Line(), got.Line())
			}
		}
		assert.Len(t, state.Nodes, present)
	}
}

func TestGraphAt_OrderedByNode(t *testing.T) {
	s := FromEntries([]snapshot.Entry{
		entryAt(9, 1),
		entryAt(3, 1),
		entryAt(5, 2),
	})

	state := s.GraphAt(10)
	require.Len(t, state.Nodes, 3)
	assert.Equal(t, uint32(3), state.Nodes[0].NodeID)
	assert.Equal(t, uint32(5), state.Nodes[1].NodeID)
	assert.Equal(t, uint32(9), state.Nodes[2].NodeID)

	assert.Equal(t, []uint32{3, 5, 9}, s.Nodes())
}

func TestGraphAt_SkipsNodesWithoutSnapshot(t *testing.T) {
	s := FromEntries([]snapshot.Entry{
		entryAt(0, 1),
		entryAt(1, 10),
	})

	state := s.GraphAt(5)
	require.Len(t, state.Nodes, 1)
	assert.Equal(t, uint32(0), state.Nodes[0].NodeID)

	_, ok := state.Get(1)
	assert.False(t, ok)
}

func TestGraphAt_ConcurrentReads(t *testing.T) {
	gen := testutil.NewSequenceGenerator(3)
	entries := gen.Interleaved(8, 40)
	s := FromEntries(entries)
	last := entries[len(entries)-1].Line()

	expected := make(map[uint32]int)
	for line := uint32(0); line <= last; line++ {
		expected[line] = len(s.GraphAt(line).Nodes)
	}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for line := uint32(0); line <= last; line++ {
				assert.Len(t, s.GraphAt(line).Nodes, expected[line])
			}
		}()
	}
	wg.Wait()
}

func TestGraphState_Width(t *testing.T) {
	s := FromEntries([]snapshot.Entry{
		snapshot.New(0, 1, make([]bool, 3), make([]bool, 10)),
		snapshot.New(1, 1, make([]bool, 12), nil),
		snapshot.New(2, 50, make([]bool, 99), nil),
	})

	assert.Equal(t, 12, s.GraphAt(1).Width())
	assert.Equal(t, 99, s.GraphAt(50).Width())
	assert.Equal(t, 0, s.GraphAt(0).Width())
}

func TestEntries_ReturnsClones(t *testing.T) {
	s := FromEntries([]snapshot.Entry{entryAt(0, 1), entryAt(0, 2)})

	got := s.Entries(0)
	require.Len(t, got, 2)
	assert.Equal(t, uint32(1), got[0].Line())
	assert.Equal(t, 2, s.NodeLen(0))
	assert.Equal(t, 0, s.NodeLen(7))
	assert.Empty(t, s.Entries(7))
}

func TestLines(t *testing.T) {
	s := FromEntries([]snapshot.Entry{
		entryAt(0, 2),
		entryAt(1, 2),
		entryAt(1, 4),
		entryAt(0, 9),
	})

	assert.Equal(t, []uint32{2, 4, 9}, s.Lines())
	assert.Equal(t, 4, s.Len())
}

func TestVerify(t *testing.T) {
	ok := FromEntries([]snapshot.Entry{entryAt(0, 1), entryAt(1, 1), entryAt(0, 2)})
	assert.NoError(t, ok.Verify())

	dup := FromEntries([]snapshot.Entry{entryAt(0, 1), entryAt(2, 3), entryAt(2, 3)})
	err := dup.Verify()
	require.Error(t, err)

	var orderErr *OrderError
	require.True(t, errors.As(err, &orderErr))
	assert.Equal(t, uint32(2), orderErr.NodeID)
	assert.Equal(t, 1, orderErr.Index)
	assert.Equal(t, uint32(3), orderErr.Prev)
	assert.Equal(t, uint32(3), orderErr.Line)

	dec := FromEntries([]snapshot.Entry{entryAt(4, 8), entryAt(4, 2)})
	assert.ErrorContains(t, dec.Verify(), "node 4")
}

func TestBuilder_AddAfterBuildPanics(t *testing.T) {
	b := NewBuilder()
	b.Add(entryAt(0, 1))
	assert.Equal(t, 1, b.Len())
	b.Build()

	assert.Panics(t, func() { b.Add(entryAt(0, 2)) })
	assert.Panics(t, func() { b.Build() })
}
