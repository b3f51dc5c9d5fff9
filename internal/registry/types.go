package registry

import (
	"context"
	"errors"
	"slices"
)

// Kind distinguishes classes from interfaces.
type Kind int

const (
	KindClass Kind = iota + 1
	KindInterface
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	default:
		return "unknown"
	}
}

// Descriptor is the static metadata record for a class or an interface.
//
// For a class, Interfaces lists the directly declared interfaces and Parent
// names the superclass (empty if none). For an interface, Interfaces lists
// the interfaces it extends and Parent is always empty.
type Descriptor struct {
	Kind       Kind
	Name       string
	Parent     string
	Interfaces []string
	Source     string // file or manifest the descriptor was loaded from
}

// Class builds a class descriptor.
func Class(name, parent string, interfaces ...string) Descriptor {
	return Descriptor{Kind: KindClass, Name: name, Parent: parent, Interfaces: interfaces}
}

// Interface builds an interface descriptor.
func Interface(name string, extends ...string) Descriptor {
	return Descriptor{Kind: KindInterface, Name: name, Interfaces: extends}
}

// IsInterface reports whether d describes an interface.
func (d Descriptor) IsInterface() bool { return d.Kind == KindInterface }

// sameShape ignores Source so that the same type loaded twice from
// different places is not a conflict.
func (d Descriptor) sameShape(o Descriptor) bool {
	return d.Kind == o.Kind && d.Name == o.Name && d.Parent == o.Parent &&
		slices.Equal(d.Interfaces, o.Interfaces)
}

var (
	// ErrConflict is returned when a name is redefined with a different shape.
	ErrConflict = errors.New("conflicting definition")
	// ErrInvalid is returned for malformed descriptors.
	ErrInvalid = errors.New("invalid descriptor")
)

// Registry maps class and interface names to descriptors.
type Registry interface {
	// Lookup returns the descriptor for name. It has no side effects.
	Lookup(name string) (Descriptor, bool)
	// TryAutoload makes a best-effort attempt to define name. Failures are
	// swallowed; a following Lookup simply still misses.
	TryAutoload(ctx context.Context, name string)
}

// Definer is implemented by registries that can be populated by loaders.
type Definer interface {
	Define(d Descriptor) error
}

// BatchDefiner is implemented by registries that can define a group of
// descriptors atomically.
type BatchDefiner interface {
	DefineAll(ds ...Descriptor) error
}

// Autoloader populates a registry on demand.
type Autoloader interface {
	Autoload(ctx context.Context, name string, reg Definer) error
}

// AutoloaderFunc adapts a function to the Autoloader interface.
type AutoloaderFunc func(ctx context.Context, name string, reg Definer) error

func (f AutoloaderFunc) Autoload(ctx context.Context, name string, reg Definer) error {
	return f(ctx, name, reg)
}
