package tools

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// Tool is a tool definition as advertised to MCP and HTTP clients
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// ToolUse is one call of a tool with its decoded JSON arguments
type ToolUse struct {
	Type  string                 `json:"type"`
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// ToolResult is the text a tool produced, or its error message
type ToolResult struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// Executor runs a tool against decoded arguments
type Executor interface {
	Execute(ctx context.Context, input map[string]interface{}) (string, error)
}

// Definer is implemented by tools that describe themselves
type Definer interface {
	GetDefinition() Tool
}

// Registry maps tool names to definitions and executors
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]Tool
	executors map[string]Executor
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools:     make(map[string]Tool),
		executors: make(map[string]Executor),
	}
}

// Register adds a tool to the registry
func (r *Registry) Register(tool Tool, executor Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = tool
	r.executors[tool.Name] = executor
}

// GetTools returns all registered tools sorted by name
func (r *Registry) GetTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// GetTool looks a tool definition up by name
func (r *Registry) GetTool(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Execute runs a tool and returns the result
func (r *Registry) Execute(ctx context.Context, toolUse ToolUse) (*ToolResult, error) {
	r.mu.RLock()
	executor, exists := r.executors[toolUse.Name]
	r.mu.RUnlock()
	if !exists {
		return nil, &ToolError{Message: "Unknown tool: " + toolUse.Name}
	}

	input := toolUse.Input
	if input == nil {
		input = map[string]interface{}{}
	}

	result, err := executor.Execute(ctx, input)
	if err != nil {
		return &ToolResult{
			Type:      "tool_result",
			ToolUseID: toolUse.ID,
			Content:   "Error: " + err.Error(),
			IsError:   true,
		}, err
	}

	return &ToolResult{
		Type:      "tool_result",
		ToolUseID: toolUse.ID,
		Content:   result,
	}, nil
}

// ToolError is returned for calls the registry cannot dispatch
type ToolError struct {
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

// GetString reads a string argument
func GetString(input map[string]interface{}, key string) (string, bool) {
	val, exists := input[key]
	if !exists {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetInt reads an integer argument. JSON numbers arrive as float64.
func GetInt(input map[string]interface{}, key string) (int, bool) {
	val, exists := input[key]
	if !exists {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

// GetBool reads a boolean argument
func GetBool(input map[string]interface{}, key string) (bool, bool) {
	val, exists := input[key]
	if !exists {
		return false, false
	}
	boolVal, ok := val.(bool)
	return boolVal, ok
}

