package graph

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linklog/internal/logstore"
	"github.com/roach88/linklog/internal/snapshot"
)

func entry(node, line uint32, strong, weak string) snapshot.Entry {
	return snapshot.NewFromMasks(node, line, snapshot.MustParseMask(strong), snapshot.MustParseMask(weak))
}

func sampleStore() *logstore.Store {
	return logstore.FromEntries([]snapshot.Entry{
		entry(0, 1, "011", "000"),
		entry(1, 2, "0", "1001"),
		entry(0, 5, "0001", "0100"),
		entry(2, 6, "1", ""),
	})
}

func TestKindOf(t *testing.T) {
	e := entry(0, 0, "10", "11")
	assert.Equal(t, KindStrong, KindOf(e, 0), "strong wins over weak")
	assert.Equal(t, KindWeak, KindOf(e, 1))
	assert.Equal(t, KindNone, KindOf(e, 2))
	assert.Equal(t, "strong", KindStrong.String())
	assert.Equal(t, "weak", KindWeak.String())
	assert.Equal(t, "none", KindNone.String())
}

func TestBuild_EdgesAtLine(t *testing.T) {
	g := Build(sampleStore().GraphAt(2))
	assert.Equal(t, uint32(2), g.Line())

	edges := g.Edges()
	require.Len(t, edges, 4)

	assert.Equal(t, uint32(0), edges[0].F.NodeID())
	assert.Equal(t, uint32(1), edges[0].T.NodeID())
	assert.Equal(t, KindStrong, edges[0].Kind)

	assert.Equal(t, uint32(0), edges[1].F.NodeID())
	assert.Equal(t, uint32(2), edges[1].T.NodeID())
	assert.Equal(t, KindStrong, edges[1].Kind)

	assert.Equal(t, uint32(1), edges[2].F.NodeID())
	assert.Equal(t, uint32(0), edges[2].T.NodeID())
	assert.Equal(t, KindWeak, edges[2].Kind)

	assert.Equal(t, uint32(1), edges[3].F.NodeID())
	assert.Equal(t, uint32(3), edges[3].T.NodeID())
	assert.Equal(t, KindWeak, edges[3].Kind)

	_, ok := g.Edge(2, 0)
	assert.False(t, ok)
}

func TestBuild_NonReportingTargetsAndSelfLinks(t *testing.T) {
	g := Build(sampleStore().GraphAt(2))

	nodes := g.Nodes()
	require.Len(t, nodes, 4)
	assert.Equal(t, uint32(0), nodes[0].NodeID())
	assert.True(t, nodes[0].Reporting)
	assert.True(t, nodes[1].Reporting)
	assert.False(t, nodes[2].Reporting, "node 2 has no snapshot until line 6")
	assert.Equal(t, uint32(3), nodes[3].NodeID())
	assert.False(t, nodes[3].Reporting)

	e, ok := g.Edge(1, 3)
	require.True(t, ok)
	assert.Equal(t, KindWeak, e.Kind)

	self := Build(logstore.FromEntries([]snapshot.Entry{entry(1, 0, "01", "")}).GraphAt(0))
	require.Len(t, self.Nodes(), 1)
	assert.Equal(t, KindStrong, self.Nodes()[0].Self)
	assert.Empty(t, self.Edges())
}

func TestLink(t *testing.T) {
	g := Build(logstore.FromEntries([]snapshot.Entry{
		entry(0, 1, "1", "01"),
		entry(1, 2, "", "01"),
	}).GraphAt(2))

	assert.Equal(t, KindStrong, g.Link(0, 0), "self link comes from Node.Self")
	assert.Equal(t, KindWeak, g.Link(1, 1))
	assert.Equal(t, KindWeak, g.Link(0, 1))
	assert.Equal(t, KindNone, g.Link(1, 0))
	assert.Equal(t, KindNone, g.Link(7, 7), "unknown node")
}

func TestBuild_Empty(t *testing.T) {
	g := Build(logstore.NewBuilder().Build().GraphAt(10))
	assert.Empty(t, g.Nodes())
	assert.Empty(t, g.Edges())
	assert.Empty(t, g.Reachable(0, false))
}

func TestReachable(t *testing.T) {
	g := Build(sampleStore().GraphAt(6))

	// line 6: 0 -> 3 strong, 0 -> 1 weak; 1 -> 0 weak, 1 -> 3 weak; 2 -> 0 strong
	assert.Equal(t, []uint32{0, 1, 3}, g.Reachable(2, false))
	assert.Equal(t, []uint32{0, 3}, g.Reachable(2, true))
	assert.Equal(t, []uint32{1, 3}, g.Reachable(0, false))
	assert.Empty(t, g.Reachable(3, false))
	assert.Empty(t, g.Reachable(99, false))
}

func TestDOT(t *testing.T) {
	g := Build(sampleStore().GraphAt(6))

	b, err := g.DOT("")
	require.NoError(t, err)
	out := string(b)

	assert.Contains(t, out, "digraph line_6 {")
	assert.Contains(t, out, "2 -> 0 [style=solid]")
	assert.Contains(t, out, "0 -> 1 [style=dashed]")
	assert.Contains(t, out, "3 [color=gray]")
}

func TestRenderText_Golden(t *testing.T) {
	s := sampleStore()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, line := range []uint32{0, 2, 6} {
		var buf bytes.Buffer
		require.NoError(t, RenderText(&buf, s.GraphAt(line)))
		g.Assert(t, fmt.Sprintf("matrix_line_%d", line), buf.Bytes())
	}
}
