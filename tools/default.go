package tools

import (
	"strconv"

	"github.com/rohanthewiz/logger"
)

type pluginTool interface {
	Definer
	Executor
}

// DefaultRegistry creates a registry with all plugin tools
func DefaultRegistry(deps Deps) *Registry {
	return DefaultEnhancedRegistry(deps).Registry
}

// DefaultEnhancedRegistry creates an enhanced registry with all plugin tools.
// Path arguments are confined to deps.AllowedRoots when it is set.
func DefaultEnhancedRegistry(deps Deps) *EnhancedRegistry {
	registry := NewEnhancedRegistry()

	all := []pluginTool{
		// Directory lookups
		&PluginSearchTool{Directory: deps.Directory},
		&PluginInfoTool{Directory: deps.Directory},
		&PluginCheckUpdateTool{Directory: deps.Directory},

		// Cache backed
		&PluginDownloadTool{Cache: deps.Cache},
		&PluginCompareTool{Cache: deps.Cache, Comparator: deps.Comparator},
		&PluginFileDiffTool{Cache: deps.Cache, Comparator: deps.Comparator},
	}
	for _, tool := range all {
		registry.Register(tool.GetDefinition(), WrapWithSandbox(tool, deps.AllowedRoots))
	}

	logger.Debug("Registered plugin tools", "count", strconv.Itoa(len(all)),
		"sandboxed", strconv.FormatBool(len(deps.AllowedRoots) > 0))
	return registry
}
