package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/cadencehq/cadence/pkg/models"
)

var (
	// ErrBranchUnresolved is returned when Next is called while a branch
	// dispatch is still waiting for ResolveBranch.
	ErrBranchUnresolved = errors.New("branch outcome not resolved")

	// ErrNoBranchPending is returned when ResolveBranch is called without a
	// pending branch dispatch.
	ErrNoBranchPending = errors.New("no branch dispatch pending")
)

// Dispatch is the walker's request to the caller: execute this action and, for
// branch actions, report the outcome through ResolveBranch before continuing.
// Attempt starts at 1 and increases when the caller requeues via Retry.
type Dispatch struct {
	Action  *models.Action
	Attempt int
}

// Walker performs a lazy depth-first traversal over a graph snapshot. It does
// not execute anything itself: each Next yields a dispatch request, branch
// routing is decided by the caller, and cancellation is honored between node
// dispatches, never mid-node. A walker is single-use; a new walk takes a
// fresh snapshot of the playbook.
type Walker struct {
	graph   *Graph
	stack   []string
	visited map[string]bool
	pending *Dispatch // branch waiting for an outcome
	retry   *Dispatch
	done    bool
}

// NewWalker starts a traversal at startID. The id must exist in the graph.
func NewWalker(g *Graph, startID string) (*Walker, error) {
	if _, ok := g.Node(startID); !ok {
		return nil, fmt.Errorf("start action %s not in graph", startID)
	}

	return &Walker{
		graph:   g,
		stack:   []string{startID},
		visited: make(map[string]bool, g.NodeCount()),
	}, nil
}

// Next yields the next dispatch request, or ok=false when the walk is
// exhausted. Calling Next with an unresolved branch dispatch is a caller bug
// and returns ErrBranchUnresolved.
func (w *Walker) Next(ctx context.Context) (*Dispatch, bool, error) {
	if err := ctx.Err(); err != nil {
		w.done = true

		return nil, false, err
	}

	if w.pending != nil {
		return nil, false, ErrBranchUnresolved
	}

	if w.retry != nil {
		dispatch := w.retry
		w.retry = nil

		if dispatch.Action.Type == models.ActionBranch {
			w.pending = dispatch
		}

		return dispatch, true, nil
	}

	for len(w.stack) > 0 {
		id := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]

		// Re-convergent paths may push a node twice; it runs once per walk.
		if w.visited[id] {
			continue
		}

		action, ok := w.graph.Node(id)
		if !ok {
			continue
		}

		w.visited[id] = true

		dispatch := &Dispatch{Action: action, Attempt: 1}

		if action.Type == models.ActionBranch {
			w.pending = dispatch

			return dispatch, true, nil
		}

		w.pushSuccessors(action.Next)

		return dispatch, true, nil
	}

	w.done = true

	return nil, false, nil
}

// ResolveBranch reports the runtime outcome of the pending branch dispatch and
// resumes traversal from the chosen successor set.
func (w *Walker) ResolveBranch(outcome bool) error {
	if w.pending == nil {
		return ErrNoBranchPending
	}

	branch := w.pending.Action.Branch
	w.pending = nil

	if branch == nil {
		return nil
	}

	if outcome {
		w.pushSuccessors(branch.Yes)
	} else {
		w.pushSuccessors(branch.No)
	}

	return nil
}

// Retry requeues the given dispatch with an incremented attempt count. The
// retry policy itself belongs to the action executor; the walker only carries
// the bookkeeping.
func (w *Walker) Retry(dispatch *Dispatch) {
	w.retry = &Dispatch{Action: dispatch.Action, Attempt: dispatch.Attempt + 1}

	if dispatch.Action.Type == models.ActionBranch {
		// The rerun decides the branch again; forget the stale pending state.
		w.pending = nil
	}
}

// Done reports whether the walk is exhausted or was cancelled.
func (w *Walker) Done() bool {
	return w.done
}

// pushSuccessors pushes ids in reverse so declaration order pops first.
func (w *Walker) pushSuccessors(ids []string) {
	for i := len(ids) - 1; i >= 0; i-- {
		w.stack = append(w.stack, ids[i])
	}
}
