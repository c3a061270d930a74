// Dynamic plugin loading support for Go's plugin system.
// This is only available on Linux and requires the plugindyn build tag.
//go:build plugindyn && linux

package plugin

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"strings"
)

// DynamicLoadingSupported reports whether LoadDynamicPlugins can load .so files.
const DynamicLoadingSupported = true

// LoadDynamicPlugins loads .so plugins from pluginDir, falling back to the
// WORDGUESS_PLUGIN_PATH environment variable. Each plugin must export
// RegisterPlugins() error, which registers its backends with this package.
func LoadDynamicPlugins(pluginDir string) (int, error) {
	if pluginDir == "" {
		pluginDir = os.Getenv("WORDGUESS_PLUGIN_PATH")
	}
	if pluginDir == "" {
		return 0, nil
	}

	if _, err := os.Stat(pluginDir); errors.Is(err, os.ErrNotExist) {
		// Not an error - just no plugins to load
		return 0, nil
	}

	soFiles, err := filepath.Glob(filepath.Join(pluginDir, "*.so"))
	if err != nil {
		return 0, fmt.Errorf("failed to search for plugin files in %s: %w", pluginDir, err)
	}

	loaded := 0
	for _, soFile := range soFiles {
		if err := loadPlugin(soFile); err != nil {
			return loaded, fmt.Errorf("failed to load plugin %s: %w", soFile, err)
		}
		loaded++
	}

	if loaded > 0 {
		slog.Info("Loaded dynamic plugins",
			slog.Int("count", loaded),
			slog.String("directory", pluginDir))
	}
	return loaded, nil
}

func loadPlugin(soFile string) error {
	p, err := plugin.Open(soFile)
	if err != nil {
		return fmt.Errorf("failed to open plugin file: %w", err)
	}

	sym, err := p.Lookup("RegisterPlugins")
	if err != nil {
		return fmt.Errorf("plugin does not export RegisterPlugins function: %w", err)
	}

	register, ok := sym.(func() error)
	if !ok {
		return fmt.Errorf("RegisterPlugins function has invalid signature")
	}
	if err := register(); err != nil {
		return fmt.Errorf("plugin registration failed: %w", err)
	}

	slog.Debug("Loaded plugin",
		slog.String("name", strings.TrimSuffix(filepath.Base(soFile), ".so")),
		slog.String("file", soFile))
	return nil
}
