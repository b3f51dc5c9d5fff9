package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/olehluchkiv/goimplements/internal/registry"
)

var (
	// ErrNotFound matches any *NotFoundError via errors.Is.
	ErrNotFound = errors.New("class or interface does not exist")
	// ErrInvalidSubject is returned when an instance has no usable class name.
	ErrInvalidSubject = errors.New("invalid subject")
)

// NotFoundError reports a name that did not resolve, even after an
// autoload attempt when one was allowed.
type NotFoundError struct {
	Name     string
	Referrer string // set when Name was referenced by another descriptor
	Autoload bool   // whether an autoload attempt was made
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "class or interface %q does not exist", e.Name)
	if e.Autoload {
		b.WriteString(" and could not be loaded")
	}
	if e.Referrer != "" {
		fmt.Fprintf(&b, " (referenced by %q)", e.Referrer)
	}
	return b.String()
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// CycleError reports a cycle in the implements graph.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "inheritance cycle: " + strings.Join(e.Path, " -> ")
}

// KindError reports a reference to a descriptor of the wrong kind, such as
// a class listed among the interfaces of another class.
type KindError struct {
	Name     string
	Referrer string
	Want     registry.Kind
	Got      registry.Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%q referenced by %q is a %s, expected %s", e.Name, e.Referrer, e.Got, e.Want)
}
