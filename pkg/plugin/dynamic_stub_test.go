//go:build !plugindyn || !linux

package plugin

import (
	"errors"
	"testing"
)

func TestLoadDynamicPluginsUnsupported(t *testing.T) {
	t.Setenv("WORDGUESS_PLUGIN_PATH", "")

	n, err := LoadDynamicPlugins("")
	if err != nil || n != 0 {
		t.Errorf("no directory configured: got %d, %v", n, err)
	}

	if _, err := LoadDynamicPlugins(t.TempDir()); !errors.Is(err, ErrDynamicUnsupported) {
		t.Errorf("expected ErrDynamicUnsupported, got %v", err)
	}

	t.Setenv("WORDGUESS_PLUGIN_PATH", t.TempDir())
	if _, err := LoadDynamicPlugins(""); !errors.Is(err, ErrDynamicUnsupported) {
		t.Errorf("expected env directory to be honoured, got %v", err)
	}
}
