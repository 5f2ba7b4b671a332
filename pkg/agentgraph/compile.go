package agentgraph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Compile validates the graph and creates an immutable CompiledGraph.
// Returns an error if validation fails. Multiple errors are joined together.
//
// Validation checks (in order):
//  1. Errors recorded by AddNode, AddEdge, AddConditionalEdge and SetEntry
//  2. Entry point must be set
//  3. Every node must be reachable from the entry point
//
// Conditional edges reach the targets declared for them. A router with no
// declared targets is assumed to reach every node.
func (g *Graph[S]) Compile() (*CompiledGraph[S], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	errs := append([]error(nil), g.buildErrs...)

	if g.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if unreachable := g.findUnreachableNodes(); len(unreachable) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnreachableNode, strings.Join(unreachable, ", ")))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return g.buildCompiledGraph(), nil
}

// findUnreachableNodes returns the sorted IDs of nodes not reachable from entry.
func (g *Graph[S]) findUnreachableNodes() []string {
	reachable := g.findReachableNodes()

	var unreachable []string
	for id := range g.nodes {
		if !reachable[id] {
			unreachable = append(unreachable, id)
		}
	}
	sort.Strings(unreachable)
	return unreachable
}

// findReachableNodes returns the set of nodes reachable from the entry point.
func (g *Graph[S]) findReachableNodes() map[string]bool {
	reachable := make(map[string]bool)
	if g.entryPoint == "" {
		return reachable
	}

	// BFS from entry
	queue := []string{g.entryPoint}
	reachable[g.entryPoint] = true

	visit := func(target string) {
		if target != END && !reachable[target] {
			reachable[target] = true
			queue = append(queue, target)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if target, ok := g.edges[current]; ok {
			visit(target)
		}

		cond, ok := g.routers[current]
		if !ok {
			continue
		}
		if len(cond.targets) > 0 {
			for _, target := range cond.targets {
				visit(target)
			}
			continue
		}
		// Undeclared router targets: anything is possible.
		for id := range g.nodes {
			visit(id)
		}
	}

	return reachable
}

// buildCompiledGraph creates the immutable CompiledGraph from the builder state.
func (g *Graph[S]) buildCompiledGraph() *CompiledGraph[S] {
	nodes := make(map[string]NodeFunc[S], len(g.nodes))
	for id, fn := range g.nodes {
		nodes[id] = fn
	}

	edges := make(map[string]string, len(g.edges))
	for from, to := range g.edges {
		edges[from] = to
	}

	routers := make(map[string]*conditional[S], len(g.routers))
	for from, cond := range g.routers {
		routers[from] = &conditional[S]{
			router:  cond.router,
			targets: append([]string(nil), cond.targets...),
		}
	}

	predecessors := make(map[string][]string)
	for _, from := range g.order {
		if to, ok := edges[from]; ok && to != END {
			predecessors[to] = append(predecessors[to], from)
		}
		if cond, ok := routers[from]; ok {
			for _, to := range cond.targets {
				if to != END {
					predecessors[to] = append(predecessors[to], from)
				}
			}
		}
	}

	return &CompiledGraph[S]{
		nodes:        nodes,
		order:        append([]string(nil), g.order...),
		edges:        edges,
		routers:      routers,
		entryPoint:   g.entryPoint,
		predecessors: predecessors,
	}
}
