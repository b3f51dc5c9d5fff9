package resolver

import (
	"fmt"
	"reflect"
)

// Classed is implemented by values that know their own class name.
type Classed interface {
	ClassName() string
}

// Subject identifies what to resolve: a class or interface name, or a live
// instance whose runtime class is used.
type Subject struct {
	name       string
	instance   any
	byInstance bool
}

// ByName builds a subject from a class or interface name.
func ByName(name string) Subject {
	return Subject{name: name}
}

// ByInstance builds a subject from an object instance.
func ByInstance(v any) Subject {
	return Subject{instance: v, byInstance: true}
}

// ClassName returns the name the subject resolves to.
func (s Subject) ClassName() (string, error) {
	if !s.byInstance {
		if s.name == "" {
			return "", fmt.Errorf("%w: empty name", ErrInvalidSubject)
		}
		return s.name, nil
	}
	return ClassNameOf(s.instance)
}

func (s Subject) String() string {
	if s.byInstance {
		name, err := ClassNameOf(s.instance)
		if err != nil {
			return fmt.Sprintf("instance(%T)", s.instance)
		}
		return "instance(" + name + ")"
	}
	return s.name
}

// ClassNameOf returns the class name of v. Values implementing Classed name
// themselves; anything else is named after its Go type as
// "<import path>.<TypeName>", pointers dereferenced.
func ClassNameOf(v any) (string, error) {
	if c, ok := v.(Classed); ok {
		if name := c.ClassName(); name != "" {
			return name, nil
		}
		return "", fmt.Errorf("%w: %T reports an empty class name", ErrInvalidSubject, v)
	}

	t := reflect.TypeOf(v)
	if t == nil {
		return "", fmt.Errorf("%w: nil instance", ErrInvalidSubject)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "", fmt.Errorf("%w: unnamed type %s", ErrInvalidSubject, t)
	}
	if t.PkgPath() == "" {
		return t.Name(), nil
	}
	return t.PkgPath() + "." + t.Name(), nil
}
