// Package manifest loads class and interface descriptors from YAML files.
//
// A manifest looks like:
//
//	interfaces:
//	  - name: Traversable
//	  - name: Iterator
//	    extends: [Traversable]
//	classes:
//	  - name: ArrayIterator
//	    implements: [Iterator, Countable]
//	  - name: RecursiveArrayIterator
//	    extends: ArrayIterator
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/olehluchkiv/goimplements/internal/registry"
)

// ClassEntry is a class as written in a manifest.
type ClassEntry struct {
	Name       string   `yaml:"name"`
	Extends    string   `yaml:"extends,omitempty"`
	Implements []string `yaml:"implements,omitempty"`
}

// InterfaceEntry is an interface as written in a manifest.
type InterfaceEntry struct {
	Name    string   `yaml:"name"`
	Extends []string `yaml:"extends,omitempty"`
}

// File is the top-level manifest document.
type File struct {
	Interfaces []InterfaceEntry `yaml:"interfaces"`
	Classes    []ClassEntry     `yaml:"classes"`
}

// Parse decodes a manifest. Unknown fields are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &f, nil
}

// Descriptors converts the manifest entries, interfaces first.
func (f *File) Descriptors(source string) []registry.Descriptor {
	out := make([]registry.Descriptor, 0, len(f.Interfaces)+len(f.Classes))
	for _, i := range f.Interfaces {
		d := registry.Interface(i.Name, i.Extends...)
		d.Source = source
		out = append(out, d)
	}
	for _, c := range f.Classes {
		d := registry.Class(c.Name, c.Extends, c.Implements...)
		d.Source = source
		out = append(out, d)
	}
	return out
}

// LoadFile parses path and defines every descriptor in reg. It returns the
// number of descriptors defined. A registry.BatchDefiner receives the whole
// file at once, so a conflict leaves nothing from the file behind; other
// registries keep the descriptors defined before the failing one.
func LoadFile(path string, reg registry.Definer) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	ds := m.Descriptors(path)
	if b, ok := reg.(registry.BatchDefiner); ok {
		if err := b.DefineAll(ds...); err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		return len(ds), nil
	}
	for _, d := range ds {
		if err := reg.Define(d); err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
	}
	return len(ds), nil
}

// LoadDir loads every *.yaml and *.yml file under dir, in lexical order.
func LoadDir(dir string, reg registry.Definer) (int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if isManifest(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(paths)

	total := 0
	for _, p := range paths {
		n, err := LoadFile(p, reg)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DirAutoloader resolves a missing name to a manifest file under Dir.
// Namespace separators ("\" and ".") in the name become directories, so
// "App\Model\User" is looked up as Dir/App/Model/User.yaml.
type DirAutoloader struct {
	Dir string
}

func (a DirAutoloader) Autoload(_ context.Context, name string, reg registry.Definer) error {
	base, ok := a.pathFor(name)
	if !ok {
		return nil
	}
	for _, ext := range []string{".yaml", ".yml"} {
		path := base + ext
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_, err := LoadFile(path, reg)
		return err
	}
	return nil
}

func (a DirAutoloader) pathFor(name string) (string, bool) {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '\\' || r == '.' })
	if len(parts) == 0 {
		return "", false
	}
	for _, p := range parts {
		if strings.ContainsRune(p, '/') {
			return "", false
		}
	}
	return filepath.Join(append([]string{a.Dir}, parts...)...), true
}

func isManifest(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}
