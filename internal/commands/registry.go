package commands

import (
	"fmt"
	"slices"
	"sync"
)

// Registry holds registered commands, keyed by name and alias.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Command
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register adds a command under its name and aliases.
// Nothing is registered if any of those names is taken.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{c.Name()}, c.Aliases()...)
	for _, n := range names {
		if _, taken := r.byName[n]; taken {
			return fmt.Errorf("command already registered: %s", n)
		}
	}
	for _, n := range names {
		r.byName[n] = c
	}
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byName[name]
	return cmd, ok
}

// All returns each command once, sorted by primary name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	primary := make(map[string]Command, len(r.byName))
	for _, cmd := range r.byName {
		primary[cmd.Name()] = cmd
	}

	names := make([]string, 0, len(primary))
	for name := range primary {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]Command, 0, len(primary))
	for _, name := range names {
		out = append(out, primary[name])
	}
	return out
}

// DefaultRegistry is the global command registry.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
