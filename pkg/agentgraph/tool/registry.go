// Package tool defines callable tools and the static registry an agent
// graph resolves tool calls against.
//
// Tools are registered once, before the graph runs. Names are validated at
// registration so a bad table fails at startup rather than mid-conversation.
//
//	search := tool.Tool{
//	    Name:        "search",
//	    Description: "Call to surf the web.",
//	    Parameters:  tool.StringParam("query", "what to search for"),
//	    Func: func(ctx context.Context, args map[string]any) (string, error) {
//	        return lookup(tool.StringArg(args, "query")), nil
//	    },
//	}
//	reg, err := tool.NewRegistry(search)
package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Func is the implementation of a tool. It receives the decoded arguments
// of a tool call and returns the textual result shown to the model.
type Func func(ctx context.Context, args map[string]any) (string, error)

// Tool is a named, described capability the model can call.
type Tool struct {
	// Name is the identifier the model uses in tool calls.
	Name string
	// Description tells the model what the tool does.
	Description string
	// Parameters is a JSON schema object describing the arguments.
	// Nil means the tool takes no arguments.
	Parameters map[string]any
	// Func performs the call.
	Func Func
}

// Definition is the model-facing description of a tool.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Sentinel errors for registration.
var (
	// ErrDuplicateTool indicates a tool name was registered twice.
	ErrDuplicateTool = errors.New("duplicate tool")

	// ErrInvalidTool indicates an empty name or a nil Func.
	ErrInvalidTool = errors.New("invalid tool")
)

// Registry is a thread-safe, name-indexed tool table.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a registry holding the given tools.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Names must be unique and non-blank.
func (r *Registry) Register(t Tool) error {
	if strings.TrimSpace(t.Name) == "" || strings.ContainsAny(t.Name, " \t\n") {
		return fmt.Errorf("%w: name %q", ErrInvalidTool, t.Name)
	}
	if t.Func == nil {
		return fmt.Errorf("%w: %s has no function", ErrInvalidTool, t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Names returns all tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the model-facing definitions sorted by name.
func (r *Registry) Definitions() []Definition {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		defs = append(defs, Definition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return defs
}

// StringParam builds a JSON schema for a single required string argument.
func StringParam(name, description string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			name: map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{name},
	}
}

// StringArg returns args[name] as a string, or "" if absent.
// Non-string values are formatted with %v.
func StringArg(args map[string]any, name string) string {
	v, ok := args[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
