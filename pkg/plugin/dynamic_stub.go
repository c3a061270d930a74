// Stub implementation for dynamic plugin loading when not supported.
//go:build !plugindyn || !linux

package plugin

import (
	"errors"
	"os"
)

// DynamicLoadingSupported reports whether LoadDynamicPlugins can load .so files.
const DynamicLoadingSupported = false

// ErrDynamicUnsupported is returned when a plugin directory is configured but
// the binary cannot load shared objects.
var ErrDynamicUnsupported = errors.New("dynamic plugin loading not supported on this platform or build configuration (use -tags=plugindyn on Linux)")

// LoadDynamicPlugins fails only when a plugin directory was actually requested.
func LoadDynamicPlugins(pluginDir string) (int, error) {
	if pluginDir == "" {
		pluginDir = os.Getenv("WORDGUESS_PLUGIN_PATH")
	}
	if pluginDir == "" {
		return 0, nil
	}
	return 0, ErrDynamicUnsupported
}
