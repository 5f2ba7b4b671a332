package agentgraph

// END is the terminal marker.
// Use it as an edge target or router result to stop the run.
const END = "__end__"

// NodeFunc is the signature for all node functions.
// Nodes receive the execution context and the cumulative state, and return
// only the partial update they produce. The engine folds the update into
// the state with S's Merge method.
//
// Example:
//
//	func greet(ctx agentgraph.Context, s agentgraph.MessagesState) (agentgraph.MessagesState, error) {
//	    return agentgraph.Messages(agentgraph.AIMessage("hello")), nil
//	}
type NodeFunc[S any] func(ctx Context, state S) (S, error)

// RouterFunc picks the next node for a conditional edge.
// It must return a registered node ID or END.
//
// Example:
//
//	func router(ctx agentgraph.Context, s State) string {
//	    if s.Done {
//	        return agentgraph.END
//	    }
//	    return "process"
//	}
type RouterFunc[S any] func(ctx Context, state S) string
