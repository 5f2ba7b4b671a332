package agentgraph

// CompiledGraph is an immutable, executable graph.
// It is created by calling Compile() on a Graph builder and driven by an Engine.
//
// CompiledGraph is safe for concurrent use. The graph structure cannot be
// modified after compilation.
type CompiledGraph[S Mergeable[S]] struct {
	nodes      map[string]NodeFunc[S]
	order      []string
	edges      map[string]string
	routers    map[string]*conditional[S]
	entryPoint string

	predecessors map[string][]string
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph[S]) EntryPoint() string {
	return cg.entryPoint
}

// NodeIDs returns all node identifiers in registration order.
func (cg *CompiledGraph[S]) NodeIDs() []string {
	return append([]string(nil), cg.order...)
}

// HasNode checks if a node exists in the graph.
func (cg *CompiledGraph[S]) HasNode(id string) bool {
	_, exists := cg.nodes[id]
	return exists
}

// Successors returns the targets that can follow the given node: the
// unconditional target, or the declared targets of its conditional edge.
// Returns nil for END, unknown nodes, and routers without declared targets.
func (cg *CompiledGraph[S]) Successors(id string) []string {
	if to, ok := cg.edges[id]; ok {
		return []string{to}
	}
	if cond, ok := cg.routers[id]; ok && len(cond.targets) > 0 {
		return append([]string(nil), cond.targets...)
	}
	return nil
}

// Predecessors returns the node IDs that have a static or declared edge to id.
func (cg *CompiledGraph[S]) Predecessors(id string) []string {
	return append([]string(nil), cg.predecessors[id]...)
}

// IsConditional returns true if the node has a conditional edge.
func (cg *CompiledGraph[S]) IsConditional(id string) bool {
	_, ok := cg.routers[id]
	return ok
}

// getNode returns the node function for the given ID.
func (cg *CompiledGraph[S]) getNode(id string) (NodeFunc[S], bool) {
	fn, exists := cg.nodes[id]
	return fn, exists
}

// getRouter returns the router function for the given node.
func (cg *CompiledGraph[S]) getRouter(id string) (RouterFunc[S], bool) {
	cond, exists := cg.routers[id]
	if !exists {
		return nil, false
	}
	return cond.router, true
}

// getEdge returns the unconditional edge target for the given node.
func (cg *CompiledGraph[S]) getEdge(id string) (string, bool) {
	to, ok := cg.edges[id]
	return to, ok
}
