package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/linklog/internal/graph"
	"github.com/roach88/linklog/internal/logstore"
)

// AssertionError is returned when an assertion fails.
// It includes the query line and the edge list to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Line     uint32       // Query line
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Edges    []graph.Edge // Graph edges at Line
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed at line %d: %s\n", e.Line, e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Edges) > 0 {
		fmt.Fprintf(&buf, "\nEdges:\n")
		for _, edge := range e.Edges {
			fmt.Fprintf(&buf, "  %d -> %d %s\n", edge.F.NodeID(), edge.T.NodeID(), edge.Kind)
		}
	}

	return buf.String()
}

// AssertionContext is what assertions are evaluated against.
type AssertionContext struct {
	State logstore.GraphState
	Graph *graph.Graph
}

func (actx *AssertionContext) fail(typ, expected, actual string) error {
	return &AssertionError{
		Type:     typ,
		Line:     actx.State.Line,
		Expected: expected,
		Actual:   actual,
		Edges:    actx.Graph.Edges(),
	}
}

// assertEdge checks the kind of the edge from→to. Kind "none" asserts the
// edge is missing.
func assertEdge(actx *AssertionContext, a Assertion) error {
	actual := actx.Graph.Link(a.From, a.To)
	if actual.String() == a.Kind {
		return nil
	}
	return actx.fail(AssertEdge,
		fmt.Sprintf("edge %d -> %d %s", a.From, a.To, a.Kind),
		fmt.Sprintf("edge %d -> %d %s", a.From, a.To, actual))
}

func assertEdgeCount(actx *AssertionContext, a Assertion) error {
	n := len(actx.Graph.Edges())
	if n == a.Count {
		return nil
	}
	return actx.fail(AssertEdgeCount,
		fmt.Sprintf("%d edges", a.Count),
		fmt.Sprintf("%d edges", n))
}

func assertNodePresence(actx *AssertionContext, a Assertion, want bool) error {
	_, present := actx.State.Get(a.Node)
	if present == want {
		return nil
	}
	describe := func(p bool) string {
		if p {
			return fmt.Sprintf("node %d has a snapshot", a.Node)
		}
		return fmt.Sprintf("node %d has no snapshot", a.Node)
	}
	return actx.fail(a.Type, describe(want), describe(present))
}

// assertReachable compares the reachable set as a set; order in the scenario
// does not matter.
func assertReachable(actx *AssertionContext, a Assertion) error {
	want := slices.Clone(a.Reach)
	slices.Sort(want)
	want = slices.Compact(want)

	got := actx.Graph.Reachable(a.From, a.StrongOnly)
	if slices.Equal(want, got) {
		return nil
	}
	return actx.fail(AssertReachable,
		fmt.Sprintf("reachable from %d: %v", a.From, want),
		fmt.Sprintf("reachable from %d: %v", a.From, got))
}

// EvaluateAssertions checks all assertions against actx.
// Returns a list of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEdge:
			err = assertEdge(actx, assertion)
		case AssertEdgeCount:
			err = assertEdgeCount(actx, assertion)
		case AssertNodePresent:
			err = assertNodePresence(actx, assertion, true)
		case AssertNodeAbsent:
			err = assertNodePresence(actx, assertion, false)
		case AssertReachable:
			err = assertReachable(actx, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
