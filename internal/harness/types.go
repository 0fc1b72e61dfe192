package harness

import "github.com/roach88/linklog/internal/logstore"

// NodeTrace records the effective snapshot observed for one node.
type NodeTrace struct {
	Node         uint32 `json:"node"`
	Present      bool   `json:"present"`
	SnapshotLine uint32 `json:"snapshot_line,omitempty"`
	Strong       string `json:"strong,omitempty"`
	Weak         string `json:"weak,omitempty"`
}

// QueryTrace records what a single query observed.
type QueryTrace struct {
	Line  uint32      `json:"line"`
	Nodes []NodeTrace `json:"nodes"`
	Edges int         `json:"edges"`

	state logstore.GraphState
}

// State returns the graph state the query was evaluated against.
func (q QueryTrace) State() logstore.GraphState {
	return q.state
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every node expectation and assertion matched.
	Pass bool `json:"pass"`

	// Queries holds one trace per scenario query, in order.
	Queries []QueryTrace `json:"queries"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Queries: []QueryTrace{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
