// Package registry holds the transformations that can be loaded by name
package registry

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/livebud/sfcmod/internal/transform"
	"github.com/rs/zerolog"
)

// Entry is a registered transformation
type Entry struct {
	Name           string
	Description    string
	Transformation *transform.Transformation
}

// Blocks lists the block types the transformation handles
func (e *Entry) Blocks() (blocks []string) {
	if e.Transformation.Script != nil {
		blocks = append(blocks, "script")
	}
	if e.Transformation.Template != nil {
		blocks = append(blocks, "template")
	}
	if e.Transformation.Style != nil {
		blocks = append(blocks, "style")
	}
	return blocks
}

// New registry
func New(log zerolog.Logger) *Registry {
	return &Registry{
		log:     log,
		entries: map[string]*Entry{},
	}
}

// Registry of named transformations
type Registry struct {
	log     zerolog.Logger
	mu      sync.RWMutex
	entries map[string]*Entry
}

// Register a transformation or a bare script function under a name
func (r *Registry) Register(name, description string, module interface{}) error {
	if name == "" {
		return fmt.Errorf("registry: transformation name is empty")
	}
	transformation, err := transform.Normalize(module)
	if err != nil {
		return fmt.Errorf("registry: unable to register %q: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("registry: %q is already registered", name)
	}
	r.entries[name] = &Entry{name, description, transformation}
	return nil
}

// MustRegister panics when the transformation can't be registered
func (r *Registry) MustRegister(name, description string, module interface{}) {
	if err := r.Register(name, description, module); err != nil {
		panic(err)
	}
}

// Load a transformation by name. Paths like ./transforms/add-use-strict.go
// load the transformation registered under the file's base name.
func (r *Registry) Load(nameOrPath string) (*Entry, error) {
	r.log.Debug().Msgf("Loading transformation module %s", nameOrPath)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.entries[nameOrPath]; ok {
		return entry, nil
	}
	base := filepath.Base(nameOrPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if entry, ok := r.entries[name]; ok {
		r.log.Debug().Msgf("Resolved to %s", name)
		return entry, nil
	}
	return nil, fmt.Errorf("Cannot find transformation module %s", nameOrPath)
}

// List the registered transformations sorted by name
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Names of the registered transformations, sorted
func (r *Registry) Names() []string {
	entries := r.List()
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}
