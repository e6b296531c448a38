package tools

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rohanthewiz/serr"
)

// maxOutputSize caps what a tool may hand back to a client
const maxOutputSize = 10 * 1024 * 1024

// pathParams are the tool inputs that name local directories
var pathParams = []string{"local_path", "remote_path"}

// SandboxedExecutor wraps a tool executor with path and output checks
type SandboxedExecutor struct {
	executor     Executor
	allowedRoots []string
}

// NewSandboxedExecutor creates a sandboxed executor.
// An empty allowedRoots leaves paths unrestricted.
func NewSandboxedExecutor(executor Executor, allowedRoots []string) *SandboxedExecutor {
	roots := make([]string, 0, len(allowedRoots))
	for _, r := range allowedRoots {
		expanded, err := ExpandPath(r)
		if err != nil || expanded == "" {
			continue
		}
		if abs, err := filepath.Abs(expanded); err == nil {
			roots = append(roots, filepath.Clean(abs))
		}
	}
	return &SandboxedExecutor{executor: executor, allowedRoots: roots}
}

// Execute runs the tool with sandbox restrictions
func (s *SandboxedExecutor) Execute(ctx context.Context, input map[string]interface{}) (string, error) {
	if err := s.validateInput(input); err != nil {
		return "", err
	}

	result, err := s.executor.Execute(ctx, input)
	if err != nil {
		return result, err
	}

	if err := s.validateOutput(result); err != nil {
		return "", err
	}
	return result, nil
}

// validateInput checks every path parameter against the allowed roots
func (s *SandboxedExecutor) validateInput(input map[string]interface{}) error {
	if len(s.allowedRoots) == 0 {
		return nil
	}
	for _, name := range pathParams {
		if path, ok := GetString(input, name); ok && path != "" {
			if err := s.validatePath(path); err != nil {
				return serr.Wrap(err, "parameter "+name+" rejected")
			}
		}
	}
	return nil
}

// validatePath ensures the path is within one of the allowed roots
func (s *SandboxedExecutor) validatePath(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return serr.Wrap(err, "invalid path")
	}
	// Resolve symlinks so a link inside a root cannot point outside it
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}

	for _, root := range s.allowedRoots {
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			root = resolved
		}
		if absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator)) {
			return nil
		}
	}
	return serr.New("path is outside allowed directories", "path", path)
}

// validateOutput performs post-execution validation
func (s *SandboxedExecutor) validateOutput(output string) error {
	if len(output) > maxOutputSize {
		return serr.New("tool output exceeds maximum allowed size")
	}
	return nil
}

// WrapWithSandbox wraps executor when roots restrict the file system
func WrapWithSandbox(executor Executor, allowedRoots []string) Executor {
	if len(allowedRoots) == 0 {
		return executor
	}
	return NewSandboxedExecutor(executor, allowedRoots)
}
