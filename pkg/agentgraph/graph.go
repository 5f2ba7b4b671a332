package agentgraph

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is a mutable builder for agent graphs.
// Use NewGraph to create a new graph, then chain AddNode, AddEdge,
// AddConditionalEdge and SetEntry calls to define the workflow.
//
// Builder methods never panic. Invalid registrations are recorded and
// reported together by Compile.
//
// Graph is NOT thread-safe during building. Use a single goroutine
// to construct the graph, then call Compile() to create an immutable
// CompiledGraph that can be safely shared.
//
// Example:
//
//	graph := agentgraph.NewGraph[agentgraph.MessagesState]().
//	    AddNode("agent", agentNode).
//	    AddNode("tools", toolNode).
//	    AddConditionalEdge("agent", agentgraph.ToolsCondition("tools"), "tools", agentgraph.END).
//	    AddEdge("tools", "agent").
//	    SetEntry("agent")
//
//	compiled, err := graph.Compile()
type Graph[S Mergeable[S]] struct {
	mu         sync.RWMutex
	nodes      map[string]NodeFunc[S]
	order      []string
	edges      map[string]string
	routers    map[string]*conditional[S]
	entryPoint string
	buildErrs  []error
}

// conditional is a router plus the targets it declares it can return.
type conditional[S any] struct {
	router  RouterFunc[S]
	targets []string
}

// NewGraph creates a new graph builder for state type S.
func NewGraph[S Mergeable[S]]() *Graph[S] {
	return &Graph[S]{
		nodes:   make(map[string]NodeFunc[S]),
		edges:   make(map[string]string),
		routers: make(map[string]*conditional[S]),
	}
}

// AddNode registers a named node.
// Returns the graph for method chaining.
//
// Recorded as an error:
//   - id is empty, contains whitespace, or is the reserved END marker
//   - fn is nil
//   - id already exists in the graph (ErrDuplicateNode)
func (g *Graph[S]) AddNode(id string, fn NodeFunc[S]) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case id == "":
		return g.fail(fmt.Errorf("%w: node ID cannot be empty", ErrInvalidNode))
	case strings.EqualFold(id, END) || strings.EqualFold(id, "end"):
		return g.fail(fmt.Errorf("%w: node ID cannot be reserved word %q", ErrInvalidNode, id))
	case strings.ContainsAny(id, " \t\n\r"):
		return g.fail(fmt.Errorf("%w: node ID %q cannot contain whitespace", ErrInvalidNode, id))
	case fn == nil:
		return g.fail(fmt.Errorf("%w: node %s has nil function", ErrInvalidNode, id))
	}

	if _, exists := g.nodes[id]; exists {
		return g.fail(fmt.Errorf("%w: %s", ErrDuplicateNode, id))
	}

	g.nodes[id] = fn
	g.order = append(g.order, id)
	return g
}

// AddEdge adds an unconditional edge from one registered node to another.
// The target can be a node ID or END.
// Returns the graph for method chaining.
//
// Both endpoints must already be registered. A node can have a single
// unconditional edge or a single conditional edge, never both.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[from]; !ok {
		return g.fail(fmt.Errorf("%w: edge source %q", ErrUnknownNode, from))
	}
	if to != END {
		if _, ok := g.nodes[to]; !ok {
			return g.fail(fmt.Errorf("%w: edge target %q", ErrUnknownNode, to))
		}
	}
	if _, ok := g.routers[from]; ok {
		return g.fail(fmt.Errorf("%w: node %s already has a conditional edge", ErrConflictingRouting, from))
	}
	if existing, ok := g.edges[from]; ok && existing != to {
		return g.fail(fmt.Errorf("%w: node %s already routes to %s", ErrConflictingRouting, from, existing))
	}

	g.edges[from] = to
	return g
}

// AddConditionalEdge adds a conditional edge where router picks the next
// node at runtime based on state.
// Returns the graph for method chaining.
//
// targets declares the values router can return and is used for the
// reachability check in Compile. When targets is empty the router is
// assumed to reach every node.
func (g *Graph[S]) AddConditionalEdge(from string, router RouterFunc[S], targets ...string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if router == nil {
		return g.fail(fmt.Errorf("%w: router for %s cannot be nil", ErrInvalidNode, from))
	}
	if _, ok := g.nodes[from]; !ok {
		return g.fail(fmt.Errorf("%w: conditional edge source %q", ErrUnknownNode, from))
	}
	for _, to := range targets {
		if to == END {
			continue
		}
		if _, ok := g.nodes[to]; !ok {
			return g.fail(fmt.Errorf("%w: conditional edge target %q from %s", ErrUnknownNode, to, from))
		}
	}
	if existing, ok := g.edges[from]; ok {
		return g.fail(fmt.Errorf("%w: node %s already has an edge to %s", ErrConflictingRouting, from, existing))
	}
	if _, ok := g.routers[from]; ok {
		return g.fail(fmt.Errorf("%w: node %s already has a conditional edge", ErrConflictingRouting, from))
	}

	g.routers[from] = &conditional[S]{
		router:  router,
		targets: append([]string(nil), targets...),
	}
	return g
}

// SetEntry designates the entry point node.
// Returns the graph for method chaining.
func (g *Graph[S]) SetEntry(id string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return g.fail(fmt.Errorf("%w: entry point %q", ErrUnknownNode, id))
	}
	g.entryPoint = id
	return g
}

// fail records a builder error. Caller must hold g.mu.
func (g *Graph[S]) fail(err error) *Graph[S] {
	g.buildErrs = append(g.buildErrs, err)
	return g
}
