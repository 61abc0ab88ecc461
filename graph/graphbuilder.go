package graph

import (
	"github.com/spaghettifunk/crg/resource"
)

// Node is a compiled node of the pass-execution DAG: a FramePass plus the
// transitions that must happen on entry, and the nodes that follow it,
// per §4.4's graph-construction step.
type Node struct {
	Pass        *FramePass
	Transitions []Transition
	Next        []*Node
}

// RootNode is the synthetic entry point of a compiled graph: one or more
// roots (passes with no producer dependency) feeding into the rest of the
// DAG.
type RootNode struct {
	Roots []*Node
}

// buildGraph starts from every pass with no incoming dependency and
// walks the Dependencies edges depth-first, creating one Node per
// FramePass (shared across multiple incoming edges) and wiring Next
// links as it goes. A pass reachable via more than one path still gets
// exactly one Node. Each edge's transitions are merged per input and
// reduced as that edge is walked, then merged into the child's existing
// Transitions with mergeIdenticalTransitions.
func buildGraph(passes []*FramePass, deps []*Dependencies) (*RootNode, error) {
	nodes := map[*FramePass]*Node{}
	nodeFor := func(p *FramePass) *Node {
		if n, ok := nodes[p]; ok {
			return n
		}
		n := &Node{Pass: p}
		nodes[p] = n
		return n
	}

	outgoing := map[*FramePass][]*Dependencies{}
	hasIncoming := map[*FramePass]bool{}
	for _, d := range deps {
		if d.SrcPass != nil {
			outgoing[d.SrcPass] = append(outgoing[d.SrcPass], d)
		}
		if d.DstPass != nil {
			hasIncoming[d.DstPass] = true
		}
	}

	visited := map[*FramePass]bool{}
	var walk func(p *FramePass) *Node
	walk = func(p *FramePass) *Node {
		n := nodeFor(p)
		if visited[p] {
			return n
		}
		visited[p] = true
		for _, d := range outgoing[p] {
			if d.DstPass == nil || d.DstPass == p {
				continue
			}
			transitions := reduceDirectPaths(mergeTransitionsPerInput(buildTransitions(d.SrcOutputs, d.DstInputs)))
			child := walk(d.DstPass)
			n.Next = append(n.Next, child)
			child.Transitions = mergeIdenticalTransitions(append(child.Transitions, transitions...))
		}
		return n
	}

	var root RootNode
	for _, p := range sortedPasses(passes) {
		if !hasIncoming[p] {
			root.Roots = append(root.Roots, walk(p))
		}
	}

	// Passes that never appear as a dependency source or destination (an
	// isolated pass with only implicit attachments) still need a node and
	// still run, as a root with no transitions.
	for _, p := range sortedPasses(passes) {
		if _, ok := nodes[p]; !ok {
			root.Roots = append(root.Roots, walk(p))
		}
	}

	return &root, nil
}

// Flatten returns every node reachable from the roots, in a stable
// breadth-first order (root passes first, sorted by pass name; each node
// listed once, at its first visit), the order RunnableGraph uses to drive
// recording and submission (§4.9).
func (r *RootNode) Flatten() []*Node {
	var order []*Node
	seen := map[*Node]bool{}
	queue := append([]*Node{}, r.Roots...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		order = append(order, n)
		queue = append(queue, n.Next...)
	}
	return order
}

// implicitTransitionsFor computes the transitions a disabled pass in the
// graph must still apply so that its neighbours observe the layout they
// expect, per §4.4's "implicit transitions for disabled passes": one
// Transition per attachment flagged Implicit, from that attachment to
// itself on its view. Attachments not flagged Implicit are skipped.
func implicitTransitionsFor(pass *FramePass) []Transition {
	var result []Transition
	for _, a := range pass.Attachments {
		if !a.IsImplicit() {
			continue
		}
		result = append(result, Transition{Output: a, Input: a, View: resolveImplicitView(a)})
	}
	return result
}

func resolveImplicitView(a *Attachment) resource.ImageViewId {
	return a.View
}
