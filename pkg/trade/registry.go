package trade

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// The plugin registry maps plugin names and file extensions to importer
// and converter factories. Codec packages register themselves from init,
// the CLI and the ForPath helpers dispatch on it.

var registry = struct {
	sync.RWMutex
	importers  map[string]importerPlugin
	converters map[string]converterPlugin
}{
	importers:  map[string]importerPlugin{},
	converters: map[string]converterPlugin{},
}

type importerPlugin struct {
	extensions []string
	factory    func() Importer
}

type converterPlugin struct {
	extensions []string
	factory    func() Backend
}

// RegisterImporter makes an importer plugin available under the given
// name, claiming the given lowercase file extensions (with leading dot).
// Registering the same name twice panics.
func RegisterImporter(name string, extensions []string, factory func() Importer) {
	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.importers[name]; dup {
		panic("trade.RegisterImporter(): " + name + " already registered")
	}
	registry.importers[name] = importerPlugin{extensions: extensions, factory: factory}
}

// RegisterConverter makes a converter plugin available under the given
// name, claiming the given lowercase file extensions (with leading dot).
// Registering the same name twice panics.
func RegisterConverter(name string, extensions []string, factory func() Backend) {
	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.converters[name]; dup {
		panic("trade.RegisterConverter(): " + name + " already registered")
	}
	registry.converters[name] = converterPlugin{extensions: extensions, factory: factory}
}

// NewImporter instantiates an importer plugin by name.
func NewImporter(name string) (Importer, error) {
	registry.RLock()
	p, ok := registry.importers[name]
	registry.RUnlock()
	if !ok {
		return nil, fmt.Errorf("importer plugin %s not found", name)
	}
	return p.factory(), nil
}

// NewConverterPlugin instantiates a converter plugin by name, wrapped in
// the front-end.
func NewConverterPlugin(name string) (*Converter, error) {
	registry.RLock()
	p, ok := registry.converters[name]
	registry.RUnlock()
	if !ok {
		return nil, fmt.Errorf("converter plugin %s not found", name)
	}
	return NewConverter(p.factory()), nil
}

// ImporterNames lists registered importer plugins, sorted.
func ImporterNames() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.importers))
	for name := range registry.importers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConverterNames lists registered converter plugins, sorted.
func ConverterNames() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.converters))
	for name := range registry.converters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ImporterForPath picks an importer for the given file by extension. The
// prefer map (lowercase extension with dot to plugin name) overrides the
// registry order; without a preference the alphabetically first plugin
// claiming the extension wins.
func ImporterForPath(path string, prefer map[string]string) (Importer, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if name, ok := prefer[ext]; ok {
		imp, err := NewImporter(name)
		return imp, name, err
	}
	registry.RLock()
	defer registry.RUnlock()
	name := ""
	for n, p := range registry.importers {
		if !claims(p.extensions, ext) {
			continue
		}
		if name == "" || n < name {
			name = n
		}
	}
	if name == "" {
		return nil, "", fmt.Errorf("no importer plugin found for %s", path)
	}
	return registry.importers[name].factory(), name, nil
}

// ConverterForPath picks a converter for the given output file by
// extension, same rules as ImporterForPath.
func ConverterForPath(path string, prefer map[string]string) (*Converter, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if name, ok := prefer[ext]; ok {
		conv, err := NewConverterPlugin(name)
		return conv, name, err
	}
	registry.RLock()
	defer registry.RUnlock()
	name := ""
	for n, p := range registry.converters {
		if !claims(p.extensions, ext) {
			continue
		}
		if name == "" || n < name {
			name = n
		}
	}
	if name == "" {
		return nil, "", fmt.Errorf("no converter plugin found for %s", path)
	}
	return NewConverter(registry.converters[name].factory()), name, nil
}

func claims(extensions []string, ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}
