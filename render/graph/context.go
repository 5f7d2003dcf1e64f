package graph

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/minimal_render/app"
	"github.com/vkngwrapper/minimal_render/render/renderer"
)

// Context describes the node currently running.
type Context struct {
	Label Label
	ID    NodeID
}

// NodeRunError reports which node failed.
type NodeRunError struct {
	Label Label
	ID    NodeID
	Err   error
}

func (e *NodeRunError) Error() string {
	return fmt.Sprintf("render node %s: %v", e.Label, e.Err)
}

func (e *NodeRunError) Unwrap() error {
	return e.Err
}

// Run runs every node of g once in RunOrder. The first failure stops the run.
func Run(g *RenderGraph, rc *renderer.RenderContext, world *app.World) error {
	order, err := g.RunOrder()
	if err != nil {
		return err
	}

	for _, label := range order {
		state := g.nodes[label]
		ctx := &Context{Label: label, ID: state.id}
		if err := state.node.Run(ctx, rc, world); err != nil {
			return &NodeRunError{Label: label, ID: state.id, Err: err}
		}
	}
	return nil
}

// AsNodeRunError extracts the failing node from an error returned by Run.
func AsNodeRunError(err error) (*NodeRunError, bool) {
	var nodeErr *NodeRunError
	if errors.As(err, &nodeErr) {
		return nodeErr, true
	}
	return nil, false
}
