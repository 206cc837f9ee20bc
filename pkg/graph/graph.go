// Package graph holds the explicit adjacency representation of a playbook's
// action graph, its structural validation and the cooperative walker used for
// execution.
package graph

import "github.com/cadencehq/cadence/pkg/models"

// EdgeKind discriminates the three successor link types.
type EdgeKind string

const (
	EdgeSequential EdgeKind = "sequential"
	EdgeYes        EdgeKind = "yes"
	EdgeNo         EdgeKind = "no"
)

// Edge is one typed successor link between two actions.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// Graph is an arena of actions keyed by id plus their outgoing typed edges.
// It is built from a playbook snapshot and never mutated afterwards; edits go
// through the store and produce a fresh graph.
type Graph struct {
	nodes map[string]*models.Action
	order []string // action ids in declaration order
	out   map[string][]Edge
	in    map[string]int // incoming edge counts, for entry detection
}

// Build constructs the adjacency representation from a playbook. Duplicate
// ids keep the first occurrence; Validate reports them rather than Build
// failing, so the editor always gets a complete report.
func Build(playbook *models.Playbook) *Graph {
	g := &Graph{
		nodes: make(map[string]*models.Action, len(playbook.Actions)),
		out:   make(map[string][]Edge),
		in:    make(map[string]int),
	}

	for _, action := range playbook.Actions {
		if _, seen := g.nodes[action.ID]; seen {
			continue
		}

		g.nodes[action.ID] = action
		g.order = append(g.order, action.ID)
	}

	for _, id := range g.order {
		action := g.nodes[id]

		if action.Type == models.ActionBranch && action.Branch != nil {
			for _, to := range action.Branch.Yes {
				g.addEdge(Edge{From: id, To: to, Kind: EdgeYes})
			}

			for _, to := range action.Branch.No {
				g.addEdge(Edge{From: id, To: to, Kind: EdgeNo})
			}

			continue
		}

		for _, to := range action.Next {
			g.addEdge(Edge{From: id, To: to, Kind: EdgeSequential})
		}
	}

	return g
}

func (g *Graph) addEdge(edge Edge) {
	g.out[edge.From] = append(g.out[edge.From], edge)
	g.in[edge.To]++
}

// Node returns the action with the given id.
func (g *Graph) Node(id string) (*models.Action, bool) {
	action, ok := g.nodes[id]

	return action, ok
}

// Edges returns the outgoing edges of a node in declaration order.
func (g *Graph) Edges(id string) []Edge {
	return g.out[id]
}

// NodeCount returns the number of distinct actions in the arena.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Entry returns the implicit entry action: the first declared action with no
// incoming edges, falling back to the first declared action. Deterministic
// for a given snapshot.
func (g *Graph) Entry() (string, bool) {
	for _, id := range g.order {
		if g.in[id] == 0 {
			return id, true
		}
	}

	if len(g.order) > 0 {
		return g.order[0], true
	}

	return "", false
}
