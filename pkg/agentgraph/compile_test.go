package agentgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysEnd(ctx Context, s Trail) string { return END }

// TestCompile_Valid verifies a well-formed graph compiles.
func TestCompile_Valid(t *testing.T) {
	compiled, err := NewGraph[Trail]().
		AddNode("a", visit("a")).
		AddNode("b", visit("b")).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a").
		Compile()

	require.NoError(t, err)
	assert.Equal(t, "a", compiled.EntryPoint())
	assert.Equal(t, []string{"a", "b"}, compiled.NodeIDs())
	assert.Equal(t, []string{"b"}, compiled.Successors("a"))
	assert.Equal(t, []string{"a"}, compiled.Predecessors("b"))
	assert.True(t, compiled.HasNode("b"))
	assert.False(t, compiled.HasNode(END))
}

// TestCompile_NodeValidation verifies invalid node registrations are reported.
func TestCompile_NodeValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *Graph[Trail])
		want  error
	}{
		{"empty id", func(g *Graph[Trail]) { g.AddNode("", visit("x")) }, ErrInvalidNode},
		{"reserved end marker", func(g *Graph[Trail]) { g.AddNode(END, visit("x")) }, ErrInvalidNode},
		{"reserved end word", func(g *Graph[Trail]) { g.AddNode("END", visit("x")) }, ErrInvalidNode},
		{"whitespace", func(g *Graph[Trail]) { g.AddNode("my node", visit("x")) }, ErrInvalidNode},
		{"nil function", func(g *Graph[Trail]) { g.AddNode("x", nil) }, ErrInvalidNode},
		{"duplicate", func(g *Graph[Trail]) { g.AddNode("start", visit("again")) }, ErrDuplicateNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph[Trail]().
				AddNode("start", visit("start")).
				AddEdge("start", END).
				SetEntry("start")
			tt.build(g)

			_, err := g.Compile()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// TestCompile_EdgeValidation verifies edge registrations are checked.
func TestCompile_EdgeValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *Graph[Trail])
		want  error
	}{
		{"unknown source", func(g *Graph[Trail]) { g.AddEdge("ghost", "b") }, ErrUnknownNode},
		{"unknown target", func(g *Graph[Trail]) { g.AddEdge("b", "ghost") }, ErrUnknownNode},
		{"second unconditional target", func(g *Graph[Trail]) { g.AddEdge("a", END) }, ErrConflictingRouting},
		{"edge after router", func(g *Graph[Trail]) { g.AddEdge("b", END) }, ErrConflictingRouting},
		{"router after edge", func(g *Graph[Trail]) { g.AddConditionalEdge("a", alwaysEnd, END) }, ErrConflictingRouting},
		{"second router", func(g *Graph[Trail]) { g.AddConditionalEdge("b", alwaysEnd, END) }, ErrConflictingRouting},
		{"router unknown target", func(g *Graph[Trail]) { g.AddConditionalEdge("c", alwaysEnd, "ghost") }, ErrUnknownNode},
		{"router unknown source", func(g *Graph[Trail]) { g.AddConditionalEdge("ghost", alwaysEnd) }, ErrUnknownNode},
		{"nil router", func(g *Graph[Trail]) { g.AddConditionalEdge("c", nil) }, ErrInvalidNode},
		{"unknown entry", func(g *Graph[Trail]) { g.SetEntry("ghost") }, ErrUnknownNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph[Trail]().
				AddNode("a", visit("a")).
				AddNode("b", visit("b")).
				AddNode("c", visit("c")).
				AddEdge("a", "b").
				AddConditionalEdge("b", alwaysEnd, "c", END).
				AddEdge("c", END).
				SetEntry("a")
			tt.build(g)

			_, err := g.Compile()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// TestCompile_RepeatedIdenticalEdge verifies re-adding the same edge is harmless.
func TestCompile_RepeatedIdenticalEdge(t *testing.T) {
	_, err := NewGraph[Trail]().
		AddNode("a", visit("a")).
		AddEdge("a", END).
		AddEdge("a", END).
		SetEntry("a").
		Compile()

	assert.NoError(t, err)
}

// TestCompile_NoEntryPoint verifies the entry point is required.
func TestCompile_NoEntryPoint(t *testing.T) {
	_, err := NewGraph[Trail]().
		AddNode("a", visit("a")).
		AddEdge("a", END).
		Compile()

	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

// TestCompile_UnreachableNodes verifies every unreachable node is named.
func TestCompile_UnreachableNodes(t *testing.T) {
	_, err := NewGraph[Trail]().
		AddNode("a", visit("a")).
		AddNode("orphan2", visit("orphan2")).
		AddNode("orphan1", visit("orphan1")).
		AddEdge("a", END).
		AddEdge("orphan1", "orphan2").
		SetEntry("a").
		Compile()

	require.ErrorIs(t, err, ErrUnreachableNode)
	assert.Contains(t, err.Error(), "orphan1, orphan2")
}

// TestCompile_DeclaredTargetsReach verifies conditional targets count as reachable.
func TestCompile_DeclaredTargetsReach(t *testing.T) {
	g := NewGraph[Trail]().
		AddNode("agent", visit("agent")).
		AddNode("tools", visit("tools")).
		AddNode("unused", visit("unused")).
		AddConditionalEdge("agent", alwaysEnd, "tools", END).
		AddEdge("tools", "agent").
		AddEdge("unused", END).
		SetEntry("agent")

	_, err := g.Compile()
	require.ErrorIs(t, err, ErrUnreachableNode)
	assert.Contains(t, err.Error(), "unused")
	assert.NotContains(t, err.Error(), "tools")
}

// TestCompile_UndeclaredTargetsReachAll verifies a router without targets
// is treated as reaching every node.
func TestCompile_UndeclaredTargetsReachAll(t *testing.T) {
	compiled, err := NewGraph[Trail]().
		AddNode("a", visit("a")).
		AddNode("b", visit("b")).
		AddConditionalEdge("a", alwaysEnd).
		AddEdge("b", END).
		SetEntry("a").
		Compile()

	require.NoError(t, err)
	assert.True(t, compiled.IsConditional("a"))
	assert.Nil(t, compiled.Successors("a"))
}

// TestCompile_JoinsAllErrors verifies builder errors are reported together.
func TestCompile_JoinsAllErrors(t *testing.T) {
	_, err := NewGraph[Trail]().
		AddNode("a", visit("a")).
		AddNode("a", visit("a")).
		AddEdge("a", "ghost").
		Compile()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateNode)
	assert.ErrorIs(t, err, ErrUnknownNode)
	assert.ErrorIs(t, err, ErrNoEntryPoint)

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 3)
}

// TestCompile_Immutable verifies later builder changes do not leak into a compiled graph.
func TestCompile_Immutable(t *testing.T) {
	g := NewGraph[Trail]().
		AddNode("a", visit("a")).
		AddEdge("a", END).
		SetEntry("a")

	compiled, err := g.Compile()
	require.NoError(t, err)

	g.AddNode("b", visit("b"))
	assert.False(t, compiled.HasNode("b"))
	assert.Equal(t, []string{"a"}, compiled.NodeIDs())
}
