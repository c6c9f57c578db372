package circuit

import (
	"fmt"

	"github.com/maximerenault/LUPA/pkg/element"
	"github.com/maximerenault/LUPA/pkg/netlist"
)

// TopologyError reports a malformed or ill-posed circuit description.
// Fatal: the circuit cannot be simulated until the description changes.
type TopologyError struct {
	Circuit string
	Node    string
	Branch  string
	Msg     string
}

func (e *TopologyError) Error() string {
	where := ""
	if e.Node != "" {
		where = fmt.Sprintf(" node %s:", e.Node)
	}
	if e.Branch != "" {
		where = fmt.Sprintf(" branch %s:", e.Branch)
	}
	return fmt.Sprintf("circuit %s:%s %s", e.Circuit, where, e.Msg)
}

// groundedNodes collects every node name pinned to the reference: the
// reserved names plus terminals of Ground elements.
func groundedNodes(desc *netlist.Description) map[string]bool {
	grounded := make(map[string]bool)
	for _, b := range desc.Branches {
		for _, n := range b.Nodes {
			if netlist.GroundName(n) {
				grounded[n] = true
			}
		}
		if element.Kind(b.Kind) == element.KindGround {
			grounded[b.Nodes[0]] = true
		}
	}
	return grounded
}

// validate checks well-posedness before any element is built:
// branches must not loop on one node, every declared node must be used,
// and each connected component must carry exactly one ground designation
// so no node floats and no component is overconstrained.
func validate(desc *netlist.Description) error {
	if len(desc.Branches) == 0 {
		return &TopologyError{Circuit: desc.Name, Msg: "no branches"}
	}

	seen := make(map[string]bool)
	uf := newUnionFind()

	for _, b := range desc.Branches {
		if len(b.Nodes) == 2 && b.Nodes[0] == b.Nodes[1] {
			return &TopologyError{Circuit: desc.Name, Branch: b.Name,
				Msg: fmt.Sprintf("source and destination are the same node %s", b.Nodes[0])}
		}
		for _, n := range b.Nodes {
			seen[n] = true
			uf.add(n)
		}
		if len(b.Nodes) == 2 {
			uf.union(b.Nodes[0], b.Nodes[1])
		}
	}

	for _, n := range desc.Nodes {
		if !seen[n] {
			return &TopologyError{Circuit: desc.Name, Node: n, Msg: "dangling node, no incident branch"}
		}
	}

	// one ground designation per connected component
	grounded := groundedNodes(desc)
	grounds := make(map[string][]string)
	for n := range seen {
		if grounded[n] {
			root := uf.find(n)
			grounds[root] = append(grounds[root], n)
		}
	}
	for n := range seen {
		root := uf.find(n)
		switch len(grounds[root]) {
		case 0:
			return &TopologyError{Circuit: desc.Name, Node: n, Msg: "no path to a ground node"}
		case 1:
		default:
			return &TopologyError{Circuit: desc.Name, Node: n,
				Msg: fmt.Sprintf("connected component has %d ground designations, want exactly 1", len(grounds[root]))}
		}
	}

	return nil
}

type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) add(n string) {
	if _, ok := u.parent[n]; !ok {
		u.parent[n] = n
	}
}

func (u *unionFind) find(n string) string {
	for u.parent[n] != n {
		u.parent[n] = u.parent[u.parent[n]]
		n = u.parent[n]
	}
	return n
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
