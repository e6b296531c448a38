package tools

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/rohanthewiz/serr"
)

const (
	slugPattern    = `^[a-z0-9][a-z0-9-]*$`
	versionPattern = `^(latest|[0-9A-Za-z][0-9A-Za-z._-]*)$`
)

// ToolValidator provides validation for tool inputs
type ToolValidator struct {
	mu    sync.RWMutex
	rules map[string]ValidationRules
}

// ValidationRules defines validation rules for a tool
type ValidationRules struct {
	RequiredParams []string
	ParamRules     map[string]ParamRule
	CustomRules    []CustomValidation
}

// ParamRule defines validation rules for a parameter
type ParamRule struct {
	Type          string   // "string", "integer", "boolean", "path"
	MinLength     int      // For strings
	MaxLength     int      // For strings
	MinValue      int      // For integers
	MaxValue      int      // For integers
	Pattern       string   // Regex pattern for validation
	AllowedValues []string // Enum values
	PathType      string   // "file", "directory", "any"
	MustExist     bool     // For paths
}

// CustomValidation is a function that performs custom validation
type CustomValidation func(params map[string]interface{}) error

// NewToolValidator creates a new tool validator with default rules
func NewToolValidator() *ToolValidator {
	v := &ToolValidator{
		rules: make(map[string]ValidationRules),
	}
	v.initializeDefaultRules()
	return v
}

// SetRules installs or replaces the rules for a tool
func (v *ToolValidator) SetRules(toolName string, rules ValidationRules) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules[toolName] = rules
}

// initializeDefaultRules sets up validation rules for the plugin tools
func (v *ToolValidator) initializeDefaultRules() {
	slug := ParamRule{Type: "string", Pattern: slugPattern, MaxLength: 200}
	version := ParamRule{Type: "string", Pattern: versionPattern, MaxLength: 64}
	pluginDir := ParamRule{Type: "path", PathType: "directory", MustExist: true}

	v.rules["wp_plugin_search"] = ValidationRules{
		RequiredParams: []string{"query"},
		ParamRules: map[string]ParamRule{
			"query": {
				Type:      "string",
				MinLength: 1,
				MaxLength: 200,
			},
			"page": {
				Type:     "integer",
				MinValue: 1,
				MaxValue: 1000,
			},
			"per_page": {
				Type:     "integer",
				MinValue: 1,
				MaxValue: 100,
			},
		},
	}

	v.rules["wp_plugin_info"] = ValidationRules{
		RequiredParams: []string{"slug"},
		ParamRules: map[string]ParamRule{
			"slug": slug,
			"full": {Type: "boolean"},
		},
	}

	v.rules["wp_plugin_download"] = ValidationRules{
		RequiredParams: []string{"slug"},
		ParamRules: map[string]ParamRule{
			"slug":    slug,
			"version": version,
			"extract": {Type: "boolean"},
		},
	}

	v.rules["wp_plugin_compare"] = ValidationRules{
		RequiredParams: []string{"local_path"},
		ParamRules: map[string]ParamRule{
			"local_path":  pluginDir,
			"remote_path": pluginDir,
			"slug":        slug,
			"version":     version,
			"format": {
				Type:          "string",
				AllowedValues: []string{"text", "json", "both"},
			},
			"include_diffs": {Type: "boolean"},
		},
		CustomRules: []CustomValidation{remoteExclusive},
	}

	v.rules["wp_plugin_file_diff"] = ValidationRules{
		RequiredParams: []string{"local_path", "file"},
		ParamRules: map[string]ParamRule{
			"local_path":  pluginDir,
			"remote_path": pluginDir,
			"slug":        slug,
			"version":     version,
			"file": {
				Type:      "string",
				MinLength: 1,
				MaxLength: 1024,
			},
		},
		CustomRules: []CustomValidation{remoteExclusive},
	}

	v.rules["wp_plugin_check_update"] = ValidationRules{
		RequiredParams: []string{"local_path"},
		ParamRules: map[string]ParamRule{
			"local_path": pluginDir,
			"slug":       slug,
		},
	}
}

// remoteExclusive rejects a remote_path combined with slug or version
func remoteExclusive(params map[string]interface{}) error {
	if _, ok := params["remote_path"]; !ok {
		return nil
	}
	if _, ok := params["version"]; ok {
		return serr.New("remote_path and version are mutually exclusive")
	}
	if _, ok := params["slug"]; ok {
		return serr.New("remote_path and slug are mutually exclusive")
	}
	return nil
}

// ValidationError reports tool arguments that failed their rules
type ValidationError struct {
	Tool string
	Err  error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate validates tool parameters. Failures are *ValidationError.
func (v *ToolValidator) Validate(toolName string, params map[string]interface{}) error {
	if err := v.validate(toolName, params); err != nil {
		return &ValidationError{Tool: toolName, Err: err}
	}
	return nil
}

func (v *ToolValidator) validate(toolName string, params map[string]interface{}) error {
	v.mu.RLock()
	rules, exists := v.rules[toolName]
	v.mu.RUnlock()
	if !exists {
		// No validation rules defined for this tool
		return nil
	}

	// Check required parameters
	for _, required := range rules.RequiredParams {
		if _, exists := params[required]; !exists {
			return serr.New(fmt.Sprintf("required parameter '%s' is missing", required))
		}
	}

	// Validate each parameter
	for paramName, value := range params {
		if rule, exists := rules.ParamRules[paramName]; exists {
			if err := v.validateParam(paramName, value, rule); err != nil {
				return err
			}
		}
	}

	// Run custom validation rules
	for _, customRule := range rules.CustomRules {
		if err := customRule(params); err != nil {
			return err
		}
	}

	return nil
}

// validateParam validates a single parameter against its rule
func (v *ToolValidator) validateParam(name string, value interface{}, rule ParamRule) error {
	switch rule.Type {
	case "string":
		str, ok := value.(string)
		if !ok {
			return serr.New(fmt.Sprintf("parameter '%s' must be a string", name))
		}

		if rule.MinLength > 0 && len(strings.TrimSpace(str)) < rule.MinLength {
			return serr.New(fmt.Sprintf("parameter '%s' must be at least %d characters", name, rule.MinLength))
		}
		if rule.MaxLength > 0 && len(str) > rule.MaxLength {
			return serr.New(fmt.Sprintf("parameter '%s' must be at most %d characters", name, rule.MaxLength))
		}
		if rule.Pattern != "" {
			if matched, _ := regexp.MatchString(rule.Pattern, str); !matched {
				return serr.New(fmt.Sprintf("parameter '%s' does not match required pattern", name), "value", str)
			}
		}
		if len(rule.AllowedValues) > 0 {
			found := false
			for _, allowed := range rule.AllowedValues {
				if str == allowed {
					found = true
					break
				}
			}
			if !found {
				return serr.New(fmt.Sprintf("parameter '%s' must be one of: %s", name, strings.Join(rule.AllowedValues, ", ")))
			}
		}

	case "integer":
		intVal, ok := GetInt(map[string]interface{}{name: value}, name)
		if !ok {
			return serr.New(fmt.Sprintf("parameter '%s' must be an integer", name))
		}

		if rule.MinValue > 0 && intVal < rule.MinValue {
			return serr.New(fmt.Sprintf("parameter '%s' must be at least %d", name, rule.MinValue))
		}
		if rule.MaxValue > 0 && intVal > rule.MaxValue {
			return serr.New(fmt.Sprintf("parameter '%s' must be at most %d", name, rule.MaxValue))
		}

	case "boolean":
		if _, ok := value.(bool); !ok {
			return serr.New(fmt.Sprintf("parameter '%s' must be a boolean", name))
		}

	case "path":
		raw, ok := value.(string)
		if !ok {
			return serr.New(fmt.Sprintf("parameter '%s' must be a string path", name))
		}
		path, err := ExpandPath(raw)
		if err != nil {
			return err
		}
		if path == "" {
			return serr.New(fmt.Sprintf("parameter '%s' must not be empty", name))
		}

		info, err := os.Stat(path)
		if rule.MustExist && err != nil {
			return serr.New(fmt.Sprintf("path '%s' does not exist", raw))
		}

		if err == nil && rule.PathType != "" && rule.PathType != "any" {
			if rule.PathType == "file" && info.IsDir() {
				return serr.New(fmt.Sprintf("path '%s' must be a file, not a directory", raw))
			}
			if rule.PathType == "directory" && !info.IsDir() {
				return serr.New(fmt.Sprintf("path '%s' must be a directory, not a file", raw))
			}
		}
	}

	return nil
}
