package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
)

// Memory is a map-backed Registry safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	entries  map[string]Descriptor
	autoload Autoloader
	logger   *slog.Logger
}

var (
	_ Registry     = (*Memory)(nil)
	_ BatchDefiner = (*Memory)(nil)
)

// MemoryOption configures a Memory registry.
type MemoryOption func(*Memory)

// WithAutoloader installs the hook invoked by TryAutoload.
func WithAutoloader(a Autoloader) MemoryOption {
	return func(m *Memory) { m.autoload = a }
}

// WithLogger sets the logger used to report swallowed autoload failures.
func WithLogger(logger *slog.Logger) MemoryOption {
	return func(m *Memory) { m.logger = logger }
}

// NewMemory creates an empty registry.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]Descriptor),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "registry")
	return m
}

// Define adds d to the registry. Redefining a name with an identical shape
// is a no-op.
func (m *Memory) Define(d Descriptor) error {
	if err := validate(d); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkLocked(d); err != nil {
		return err
	}
	m.storeLocked(d)
	return nil
}

// DefineAll defines every descriptor in ds or, if any of them is invalid
// or conflicts, none of them.
func (m *Memory) DefineAll(ds ...Descriptor) error {
	for _, d := range ds {
		if err := validate(d); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	batch := make(map[string]Descriptor, len(ds))
	for _, d := range ds {
		if prev, ok := batch[d.Name]; ok && !prev.sameShape(d) {
			return fmt.Errorf("%s %q: %w (defined twice in one batch)", d.Kind, d.Name, ErrConflict)
		}
		batch[d.Name] = d
		if err := m.checkLocked(d); err != nil {
			return err
		}
	}
	for _, d := range ds {
		m.storeLocked(d)
	}
	return nil
}

func (m *Memory) checkLocked(d Descriptor) error {
	existing, ok := m.entries[d.Name]
	if !ok || existing.sameShape(d) {
		return nil
	}
	return fmt.Errorf("%s %q: %w (already defined as %s)", d.Kind, d.Name, ErrConflict, existing.Kind)
}

func (m *Memory) storeLocked(d Descriptor) {
	if _, ok := m.entries[d.Name]; ok {
		return
	}
	d.Interfaces = slices.Clone(d.Interfaces)
	m.entries[d.Name] = d
}

// DefineClass is shorthand for Define(Class(...)).
func (m *Memory) DefineClass(name, parent string, interfaces ...string) error {
	return m.Define(Class(name, parent, interfaces...))
}

// DefineInterface is shorthand for Define(Interface(...)).
func (m *Memory) DefineInterface(name string, extends ...string) error {
	return m.Define(Interface(name, extends...))
}

// Lookup returns a copy of the descriptor for name.
func (m *Memory) Lookup(name string) (Descriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.entries[name]
	d.Interfaces = slices.Clone(d.Interfaces)
	return d, ok
}

// TryAutoload runs the configured autoloader once. It never holds the lock
// while the autoloader runs, since autoloaders call back into Define.
func (m *Memory) TryAutoload(ctx context.Context, name string) {
	if m.autoload == nil {
		return
	}
	if err := m.autoload.Autoload(ctx, name, m); err != nil {
		m.logger.Warn("autoload failed", "name", name, "error", err)
		return
	}
	if _, ok := m.Lookup(name); !ok {
		m.logger.Debug("autoload did not define name", "name", name)
	}
}

// Names returns all defined names, sorted.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of defined names.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func validate(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalid)
	}
	switch d.Kind {
	case KindClass:
		if d.Parent == d.Name {
			return fmt.Errorf("%w: class %q extends itself", ErrInvalid, d.Name)
		}
	case KindInterface:
		if d.Parent != "" {
			return fmt.Errorf("%w: interface %q has a parent class", ErrInvalid, d.Name)
		}
	default:
		return fmt.Errorf("%w: %q has unknown kind", ErrInvalid, d.Name)
	}
	for _, iface := range d.Interfaces {
		if iface == "" {
			return fmt.Errorf("%w: %q lists an empty interface name", ErrInvalid, d.Name)
		}
		if iface == d.Name {
			return fmt.Errorf("%w: %q lists itself as an interface", ErrInvalid, d.Name)
		}
	}
	return nil
}

// Chain tries each autoloader in order until name is defined in reg.
// Errors from earlier loaders are kept and returned only if no loader
// succeeds in defining the name.
func Chain(loaders ...Autoloader) Autoloader {
	return AutoloaderFunc(func(ctx context.Context, name string, reg Definer) error {
		var errs []error
		for _, l := range loaders {
			if err := l.Autoload(ctx, name, reg); err != nil {
				errs = append(errs, err)
			}
			if lk, ok := reg.(interface {
				Lookup(string) (Descriptor, bool)
			}); ok {
				if _, found := lk.Lookup(name); found {
					return nil
				}
			}
		}
		return errors.Join(errs...)
	})
}
