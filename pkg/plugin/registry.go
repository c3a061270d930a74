// Package plugin provides a registry of speech recognizer and microphone
// backends so new providers can be added without changes to the game.
// Backends register themselves from init() and are looked up by kind and name.
package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/chriscow/wordguess/pkg/mic"
	"github.com/chriscow/wordguess/pkg/speech"
)

// Plugin kinds.
const (
	KindRecognizer = "recognizer"
	KindMicrophone = "microphone"
)

// Factory creates a new backend instance from configuration.
// The returned value must implement speech.Recognizer or mic.Microphone
// depending on the plugin kind.
type Factory func(cfg map[string]any) (any, error)

// Plugin represents a registered plugin with its metadata.
type Plugin struct {
	Kind        string         // "recognizer" or "microphone"
	Name        string         // Plugin name (e.g., "google", "portaudio")
	Factory     Factory        // Factory function to create instances
	Description string         // Human-readable description
	Version     string         // Plugin version
	Config      map[string]any // Option defaults
}

// Registry manages plugin registration and lookup.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]map[string]*Plugin // [kind][name] -> Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]map[string]*Plugin)}
}

// Global registry instance
var globalRegistry = NewRegistry()

// Register adds a plugin to the global registry.
// This function is typically called from init() functions in plugin packages.
// Panics if a plugin with the same kind and name is already registered.
func Register(kind, name string, factory Factory) {
	globalRegistry.Register(kind, name, factory)
}

// RegisterWithMetadata adds a plugin with additional metadata to the global registry.
// Panics if a plugin with the same kind and name is already registered.
func RegisterWithMetadata(plugin *Plugin) {
	globalRegistry.RegisterWithMetadata(plugin)
}

// Get retrieves a plugin factory from the global registry.
func Get(kind, name string) (Factory, bool) {
	return globalRegistry.Get(kind, name)
}

// List returns all registered plugins of a specific kind.
// If kind is empty, returns all plugins.
func List(kind string) []*Plugin {
	return globalRegistry.List(kind)
}

// ListKinds returns all registered plugin kinds.
func ListKinds() []string {
	return globalRegistry.ListKinds()
}

// NewRecognizer builds the named recognizer from the global registry.
func NewRecognizer(name string, cfg map[string]any) (speech.Recognizer, error) {
	return globalRegistry.NewRecognizer(name, cfg)
}

// NewMicrophone builds the named microphone from the global registry.
func NewMicrophone(name string, cfg map[string]any) (mic.Microphone, error) {
	return globalRegistry.NewMicrophone(name, cfg)
}

// Register adds a plugin to this registry instance.
// Panics if a plugin with the same kind and name is already registered.
func (r *Registry) Register(kind, name string, factory Factory) {
	r.RegisterWithMetadata(&Plugin{
		Kind:    kind,
		Name:    name,
		Factory: factory,
	})
}

// RegisterWithMetadata adds a plugin with metadata to this registry instance.
// Panics if a plugin with the same kind and name is already registered.
func (r *Registry) RegisterWithMetadata(plugin *Plugin) {
	if plugin.Kind == "" {
		panic("plugin kind cannot be empty")
	}
	if plugin.Name == "" {
		panic("plugin name cannot be empty")
	}
	if plugin.Factory == nil {
		panic("plugin factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.plugins[plugin.Kind] == nil {
		r.plugins[plugin.Kind] = make(map[string]*Plugin)
	}

	if existing, exists := r.plugins[plugin.Kind][plugin.Name]; exists {
		panic(fmt.Sprintf("plugin %s/%s already registered (existing version: %s, new version: %s)",
			plugin.Kind, plugin.Name, existing.Version, plugin.Version))
	}

	r.plugins[plugin.Kind][plugin.Name] = plugin
}

// Get retrieves a plugin factory from this registry instance.
// Returns the factory and true if found, nil and false otherwise.
func (r *Registry) Get(kind, name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, exists := r.plugins[kind][name]
	if !exists {
		return nil, false
	}
	return plugin.Factory, true
}

// List returns all registered plugins of a specific kind.
// If kind is empty, returns all plugins sorted by kind then name.
func (r *Registry) List(kind string) []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var plugins []*Plugin
	for k, kindMap := range r.plugins {
		if kind != "" && k != kind {
			continue
		}
		for _, plugin := range kindMap {
			plugins = append(plugins, plugin)
		}
	}

	sort.Slice(plugins, func(i, j int) bool {
		if plugins[i].Kind != plugins[j].Kind {
			return plugins[i].Kind < plugins[j].Kind
		}
		return plugins[i].Name < plugins[j].Name
	})

	return plugins
}

// ListKinds returns all registered plugin kinds in sorted order.
func (r *Registry) ListKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.plugins))
	for kind := range r.plugins {
		kinds = append(kinds, kind)
	}

	sort.Strings(kinds)
	return kinds
}

// NewRecognizer instantiates the recognizer registered under name.
func (r *Registry) NewRecognizer(name string, cfg map[string]any) (speech.Recognizer, error) {
	instance, err := r.create(KindRecognizer, name, cfg)
	if err != nil {
		return nil, err
	}
	rec, ok := instance.(speech.Recognizer)
	if !ok {
		return nil, fmt.Errorf("plugin %s/%s returned %T, not a speech.Recognizer", KindRecognizer, name, instance)
	}
	return rec, nil
}

// NewMicrophone instantiates the microphone registered under name.
func (r *Registry) NewMicrophone(name string, cfg map[string]any) (mic.Microphone, error) {
	instance, err := r.create(KindMicrophone, name, cfg)
	if err != nil {
		return nil, err
	}
	m, ok := instance.(mic.Microphone)
	if !ok {
		return nil, fmt.Errorf("plugin %s/%s returned %T, not a mic.Microphone", KindMicrophone, name, instance)
	}
	return m, nil
}

func (r *Registry) create(kind, name string, cfg map[string]any) (any, error) {
	factory, ok := r.Get(kind, name)
	if !ok {
		return nil, fmt.Errorf("unknown %s plugin %q", kind, name)
	}
	if cfg == nil {
		cfg = map[string]any{}
	}
	instance, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s plugin %q: %w", kind, name, err)
	}
	return instance, nil
}

// Clear removes all plugins from this registry instance.
// This is primarily useful for testing.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = make(map[string]map[string]*Plugin)
}
