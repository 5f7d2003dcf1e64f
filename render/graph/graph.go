// Package graph schedules render nodes. Every node runs once per frame, after
// every node it has an edge from.
package graph

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/render/renderer"
)

var (
	ErrDuplicateNode = errors.New("node already exists")
	ErrUnknownNode   = errors.New("node does not exist")
	ErrCycle         = errors.New("render graph contains a cycle")
)

// Label names a node.
type Label string

// NodeID is assigned when a node is added and is unique across graphs.
type NodeID uuid.UUID

func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

// Node is a unit of render work. Run is called once per frame with the
// command encoder of the frame lent through rc.
type Node interface {
	Run(ctx *Context, rc *renderer.RenderContext, world *app.World) error
}

// NodeFunc adapts a function to Node.
type NodeFunc func(ctx *Context, rc *renderer.RenderContext, world *app.World) error

func (f NodeFunc) Run(ctx *Context, rc *renderer.RenderContext, world *app.World) error {
	return f(ctx, rc, world)
}

type nodeState struct {
	id    NodeID
	label Label
	node  Node
	// inserted orders nodes that have no edge between them.
	inserted int
}

type edge struct {
	from, to Label
}

type RenderGraph struct {
	nodes    map[Label]*nodeState
	edges    []edge
	inserted int
}

func New() *RenderGraph {
	return &RenderGraph{nodes: make(map[Label]*nodeState)}
}

func (g *RenderGraph) AddNode(label Label, node Node) (NodeID, error) {
	if g.nodes == nil {
		g.nodes = make(map[Label]*nodeState)
	}
	if _, exists := g.nodes[label]; exists {
		return NodeID{}, errors.Wrapf(ErrDuplicateNode, "%s", label)
	}
	id := NodeID(uuid.New())
	g.nodes[label] = &nodeState{id: id, label: label, node: node, inserted: g.inserted}
	g.inserted++
	return id, nil
}

// AddNodeEdge makes after run once before has run.
func (g *RenderGraph) AddNodeEdge(before, after Label) error {
	for _, label := range []Label{before, after} {
		if _, ok := g.nodes[label]; !ok {
			return errors.Wrapf(ErrUnknownNode, "%s", label)
		}
	}
	for _, e := range g.edges {
		if e.from == before && e.to == after {
			return nil
		}
	}
	g.edges = append(g.edges, edge{from: before, to: after})
	return nil
}

// RemoveNode drops a node and every edge touching it.
func (g *RenderGraph) RemoveNode(label Label) error {
	if _, ok := g.nodes[label]; !ok {
		return errors.Wrapf(ErrUnknownNode, "%s", label)
	}
	delete(g.nodes, label)
	edges := g.edges[:0]
	for _, e := range g.edges {
		if e.from != label && e.to != label {
			edges = append(edges, e)
		}
	}
	g.edges = edges
	return nil
}

func (g *RenderGraph) Node(label Label) (Node, NodeID, bool) {
	state, ok := g.nodes[label]
	if !ok {
		return nil, NodeID{}, false
	}
	return state.node, state.id, true
}

func (g *RenderGraph) Len() int {
	return len(g.nodes)
}

// RunOrder returns the labels in the order Run visits them. Among nodes whose
// dependencies are all satisfied, the one added first goes first.
func (g *RenderGraph) RunOrder() ([]Label, error) {
	indegree := make(map[Label]int, len(g.nodes))
	successors := make(map[Label][]Label, len(g.nodes))
	for label := range g.nodes {
		indegree[label] = 0
	}
	for _, e := range g.edges {
		indegree[e.to]++
		successors[e.from] = append(successors[e.from], e.to)
	}

	var ready []*nodeState
	for label, degree := range indegree {
		if degree == 0 {
			ready = append(ready, g.nodes[label])
		}
	}

	order := make([]Label, 0, len(g.nodes))
	for len(ready) > 0 {
		next := 0
		for i, state := range ready {
			if state.inserted < ready[next].inserted {
				next = i
			}
		}
		state := ready[next]
		ready = append(ready[:next], ready[next+1:]...)
		order = append(order, state.label)

		for _, successor := range successors[state.label] {
			indegree[successor]--
			if indegree[successor] == 0 {
				ready = append(ready, g.nodes[successor])
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCycle
	}
	return order, nil
}
