package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// EnhancedRegistry wraps the standard registry with validation, metrics and hooks
type EnhancedRegistry struct {
	*Registry
	validator *ToolValidator
	metrics   *ToolMetrics

	hookMu        sync.RWMutex
	beforeExecute []BeforeExecuteHook
	afterExecute  []AfterExecuteHook
}

// BeforeExecuteHook is called before tool execution; an error aborts the call
type BeforeExecuteHook func(toolName string, params map[string]interface{}) error

// AfterExecuteHook is called after tool execution
type AfterExecuteHook func(toolName string, params map[string]interface{}, result *ToolResult, err error)

// ToolMetrics tracks tool usage metrics
type ToolMetrics struct {
	mu            sync.Mutex
	executions    map[string]int
	totalDuration map[string]int64 // milliseconds
	failures      map[string]int
}

// ToolStats is the metrics summary of one tool
type ToolStats struct {
	Executions    int    `json:"executions"`
	Failures      int    `json:"failures"`
	SuccessRate   string `json:"success_rate"`
	AvgDurationMs int64  `json:"avg_duration_ms"`
	TotalTimeMs   int64  `json:"total_time_ms"`
}

// NewEnhancedRegistry creates a new enhanced registry
func NewEnhancedRegistry() *EnhancedRegistry {
	return &EnhancedRegistry{
		Registry:  NewRegistry(),
		validator: NewToolValidator(),
		metrics:   NewToolMetrics(),
	}
}

// NewToolMetrics creates a new metrics tracker
func NewToolMetrics() *ToolMetrics {
	return &ToolMetrics{
		executions:    make(map[string]int),
		totalDuration: make(map[string]int64),
		failures:      make(map[string]int),
	}
}

// Execute runs a tool with validation and hooks.
// Validation and hook failures come back as an error result as well as an error.
func (r *EnhancedRegistry) Execute(ctx context.Context, toolUse ToolUse) (*ToolResult, error) {
	if toolUse.ID == "" {
		toolUse.ID = "toolu_" + uuid.NewString()
	}
	if toolUse.Input == nil {
		toolUse.Input = map[string]interface{}{}
	}

	if _, ok := r.GetTool(toolUse.Name); !ok {
		return nil, &ToolError{Message: "Unknown tool: " + toolUse.Name}
	}

	// Validate parameters
	if err := r.validator.Validate(toolUse.Name, toolUse.Input); err != nil {
		return &ToolResult{
			Type:      "tool_result",
			ToolUseID: toolUse.ID,
			Content:   fmt.Sprintf("Validation error: %v", err),
			IsError:   true,
		}, err
	}

	r.hookMu.RLock()
	before := append([]BeforeExecuteHook(nil), r.beforeExecute...)
	after := append([]AfterExecuteHook(nil), r.afterExecute...)
	r.hookMu.RUnlock()

	for _, hook := range before {
		if err := hook(toolUse.Name, toolUse.Input); err != nil {
			return &ToolResult{
				Type:      "tool_result",
				ToolUseID: toolUse.ID,
				Content:   fmt.Sprintf("Pre-execution hook error: %v", err),
				IsError:   true,
			}, serr.Wrap(err, "before-execute hook failed", "tool", toolUse.Name)
		}
	}

	startTime := time.Now()
	result, err := r.Registry.Execute(ctx, toolUse)
	duration := time.Since(startTime).Milliseconds()

	r.metrics.RecordExecution(toolUse.Name, duration, err != nil)

	for _, hook := range after {
		hook(toolUse.Name, toolUse.Input, result, err)
	}

	if err != nil {
		logger.LogErr(err, fmt.Sprintf("Tool execution failed: %s (duration: %dms)", toolUse.Name, duration))
	} else {
		logger.Debug(fmt.Sprintf("Tool executed successfully: %s (duration: %dms)", toolUse.Name, duration))
	}

	return result, err
}

// RegisterTool registers a self-describing tool
func (r *EnhancedRegistry) RegisterTool(tool interface {
	Definer
	Executor
}) {
	def := tool.GetDefinition()
	r.Register(def, tool)
	logger.Debug("Registered tool: " + def.Name)
}

// SetValidationRules replaces the validation rules of a tool
func (r *EnhancedRegistry) SetValidationRules(toolName string, rules ValidationRules) {
	r.validator.SetRules(toolName, rules)
}

// AddBeforeExecuteHook adds a hook to run before tool execution
func (r *EnhancedRegistry) AddBeforeExecuteHook(hook BeforeExecuteHook) {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	r.beforeExecute = append(r.beforeExecute, hook)
}

// AddAfterExecuteHook adds a hook to run after tool execution
func (r *EnhancedRegistry) AddAfterExecuteHook(hook AfterExecuteHook) {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	r.afterExecute = append(r.afterExecute, hook)
}

// GetMetrics returns tool usage metrics
func (r *EnhancedRegistry) GetMetrics() map[string]ToolStats {
	return r.metrics.GetSummary()
}

// ValidateParams validates parameters for a tool without executing it
func (r *EnhancedRegistry) ValidateParams(toolName string, params map[string]interface{}) error {
	return r.validator.Validate(toolName, params)
}

// RecordExecution records a tool execution
func (m *ToolMetrics) RecordExecution(toolName string, durationMs int64, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executions[toolName]++
	m.totalDuration[toolName] += durationMs
	if failed {
		m.failures[toolName]++
	}
}

// GetSummary returns a summary of metrics
func (m *ToolMetrics) GetSummary() map[string]ToolStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := make(map[string]ToolStats, len(m.executions))
	for tool, count := range m.executions {
		avgDuration := int64(0)
		successRate := 100.0
		if count > 0 {
			avgDuration = m.totalDuration[tool] / int64(count)
			successRate = float64(count-m.failures[tool]) / float64(count) * 100
		}

		summary[tool] = ToolStats{
			Executions:    count,
			Failures:      m.failures[tool],
			SuccessRate:   fmt.Sprintf("%.1f%%", successRate),
			AvgDurationMs: avgDuration,
			TotalTimeMs:   m.totalDuration[tool],
		}
	}
	return summary
}
