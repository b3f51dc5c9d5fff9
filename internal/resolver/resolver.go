// Package resolver computes the set of interfaces a class or interface
// implements, following parent classes and extended interfaces.
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/olehluchkiv/goimplements/internal/registry"
)

// Interfaces maps each implemented interface name to itself, in discovery
// order.
type Interfaces = orderedmap.OrderedMap[string, string]

// NewInterfaces returns an empty mapping.
func NewInterfaces() *Interfaces {
	return orderedmap.New[string, string]()
}

type options struct {
	autoload bool
}

// Option adjusts a single Resolve call.
type Option func(*options)

// WithAutoload controls whether a lookup miss triggers the registry's
// autoload hook. Enabled by default.
func WithAutoload(enabled bool) Option {
	return func(o *options) { o.autoload = enabled }
}

// Resolver answers "which interfaces does this implement" against a
// registry. It holds no mutable state.
type Resolver struct {
	reg    registry.Registry
	logger *slog.Logger
}

// New creates a resolver over reg.
func New(reg registry.Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{reg: reg, logger: logger.With("component", "resolver")}
}

// Resolve returns every interface the subject implements, directly, through
// its parent chain, or through interface inheritance. An interface subject
// yields the interfaces it extends, not itself.
//
// Names are ordered by discovery: a descriptor's own interfaces first, then
// what they extend, then whatever the parent class contributes.
func (r *Resolver) Resolve(ctx context.Context, s Subject, opts ...Option) (*Interfaces, error) {
	o := options{autoload: true}
	for _, opt := range opts {
		opt(&o)
	}

	name, err := s.ClassName()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolving %s: %w", name, err)
	}

	d, ok := r.lookup(ctx, name, o.autoload)
	if !ok {
		return nil, &NotFoundError{Name: name, Autoload: o.autoload}
	}

	w := &walk{
		r:        r,
		ctx:      ctx,
		autoload: o.autoload,
		out:      NewInterfaces(),
		visiting: make(map[string]bool),
		done:     make(map[string]bool),
	}
	if err := w.descend(d); err != nil {
		return nil, err
	}

	r.logger.Debug("resolved", "subject", s.String(), "kind", d.Kind, "interfaces", w.out.Len())
	return w.out, nil
}

// Outcome is the per-name result of ResolveAll.
type Outcome struct {
	Name       string
	Interfaces *Interfaces
	Err        error
}

// ResolveAll resolves each name independently, in input order.
func (r *Resolver) ResolveAll(ctx context.Context, names []string, opts ...Option) []Outcome {
	out := make([]Outcome, 0, len(names))
	for _, name := range names {
		ifaces, err := r.Resolve(ctx, ByName(name), opts...)
		out = append(out, Outcome{Name: name, Interfaces: ifaces, Err: err})
	}
	return out
}

func (r *Resolver) lookup(ctx context.Context, name string, autoload bool) (registry.Descriptor, bool) {
	if d, ok := r.reg.Lookup(name); ok {
		return d, true
	}
	if !autoload {
		return registry.Descriptor{}, false
	}
	r.logger.Debug("lookup miss, trying autoload", "name", name)
	r.reg.TryAutoload(ctx, name)
	return r.reg.Lookup(name)
}

// walk is the state of a single closure computation.
type walk struct {
	r        *Resolver
	ctx      context.Context
	autoload bool
	out      *Interfaces
	visiting map[string]bool
	done     map[string]bool
	stack    []string
}

func (w *walk) descend(d registry.Descriptor) error {
	if w.visiting[d.Name] {
		return &CycleError{Path: w.cycleFrom(d.Name)}
	}
	if w.done[d.Name] {
		return nil
	}
	w.visiting[d.Name] = true
	w.stack = append(w.stack, d.Name)
	defer func() {
		w.stack = w.stack[:len(w.stack)-1]
		w.visiting[d.Name] = false
		w.done[d.Name] = true
	}()

	for _, name := range d.Interfaces {
		if _, seen := w.out.Get(name); !seen {
			w.out.Set(name, name)
		}
	}
	for _, name := range d.Interfaces {
		ref, err := w.reference(name, d.Name, registry.KindInterface)
		if err != nil {
			return err
		}
		if err := w.descend(ref); err != nil {
			return err
		}
	}

	if d.Kind == registry.KindClass && d.Parent != "" {
		parent, err := w.reference(d.Parent, d.Name, registry.KindClass)
		if err != nil {
			return err
		}
		return w.descend(parent)
	}
	return nil
}

func (w *walk) reference(name, referrer string, want registry.Kind) (registry.Descriptor, error) {
	d, ok := w.r.lookup(w.ctx, name, w.autoload)
	if !ok {
		return d, &NotFoundError{Name: name, Referrer: referrer, Autoload: w.autoload}
	}
	if d.Kind != want {
		return d, &KindError{Name: name, Referrer: referrer, Want: want, Got: d.Kind}
	}
	return d, nil
}

func (w *walk) cycleFrom(name string) []string {
	for i, n := range w.stack {
		if n == name {
			path := append([]string(nil), w.stack[i:]...)
			return append(path, name)
		}
	}
	return []string{name, name}
}

// Names flattens an Interfaces mapping into its keys, in order.
func Names(m *Interfaces) []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}
