/*
Package agentgraph provides a small graph runtime for tool-using agents.

# Overview

An agent graph is a set of named nodes connected by edges. A node receives
the current state and returns a partial update, which the state type merges
into the cumulative state. Edges are either unconditional or routed by a
function that inspects the state. Execution stops at the reserved END node.

Every step is checkpointed under a thread ID, so a later Run on the same
thread continues the same conversation.

# Basic Usage

Build a reasoning node and a tool node, connect them, and run a thread:

	reg, err := tool.NewRegistry(search)
	if err != nil {
	    log.Fatal(err)
	}

	graph := agentgraph.NewGraph[agentgraph.MessagesState]().
	    AddNode("agent", llm.AgentNode(reasoner, reg)).
	    AddNode("tools", agentgraph.NewToolNode(reg)).
	    AddConditionalEdge("agent", agentgraph.ToolsCondition("tools"), "tools", agentgraph.END).
	    AddEdge("tools", "agent").
	    SetEntry("agent")

	compiled, err := graph.Compile()
	if err != nil {
	    log.Fatal(err)
	}

	engine := agentgraph.NewEngine(compiled, agentgraph.WithCheckpointer(store))
	final, err := engine.Run(ctx, "42",
	    agentgraph.Messages(agentgraph.HumanMessage("what is the weather in sf")))
	if err != nil {
	    log.Fatal(err)
	}
	last, _ := final.Last()
	fmt.Println(last.Content)

# State

Any type implementing Mergeable can be used as state. Merge defines the
per-field policy. MessagesState appends: messages are never replaced,
reordered or removed.

# Compile-Time Validation

Builder methods record problems instead of panicking. Compile reports all
of them at once, joined with errors.Join:

  - ErrDuplicateNode, ErrInvalidNode: bad node registrations
  - ErrUnknownNode: edge or entry referencing an unregistered node
  - ErrConflictingRouting: a node with more than one way out
  - ErrNoEntryPoint: SetEntry was never called
  - ErrUnreachableNode: nodes no path from the entry reaches

# Execution Errors

Run returns typed errors that work with errors.Is and errors.As:

  - *NodeError: a node returned an error
  - *PanicError: a node panicked (includes stack trace)
  - *RouterError: a router returned an unknown node (ErrInvalidRoute)
  - *RunawayError: the step bound was hit (ErrRunawayExecution)
  - *CancellationError: the context was cancelled between steps
  - *CheckpointError: the store failed to load or save
  - ErrConcurrentRun: the thread is already running

Tool failures are not execution errors. The tool node reports them to the
model as tool messages.
*/
package agentgraph
