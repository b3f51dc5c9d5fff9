package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/goimplements/internal/registry"
	"github.com/olehluchkiv/goimplements/internal/resolver"
)

const spl = `
interfaces:
  - name: Traversable
  - name: Iterator
    extends: [Traversable]
  - name: Countable
classes:
  - name: ArrayIterator
    implements: [Iterator, Countable]
  - name: RecursiveArrayIterator
    extends: ArrayIterator
  - name: fs
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(spl))
	require.NoError(t, err)
	require.Len(t, f.Interfaces, 3)
	require.Len(t, f.Classes, 3)
	assert.Equal(t, []string{"Traversable"}, f.Interfaces[1].Extends)
	assert.Equal(t, "ArrayIterator", f.Classes[1].Extends)

	ds := f.Descriptors("spl.yaml")
	require.Len(t, ds, 6)
	assert.Equal(t, registry.KindInterface, ds[0].Kind)
	assert.Equal(t, registry.KindClass, ds[5].Kind)
	assert.Equal(t, "spl.yaml", ds[5].Source)
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Descriptors(""))
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader("classes:\n  - name: A\n    implemnts: [B]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding manifest")
}

func TestLoadFile_ResolvesEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spl.yaml")
	writeFile(t, path, spl)

	reg := registry.NewMemory()
	n, err := LoadFile(path, reg)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	r := resolver.New(reg, nil)
	got, err := r.Resolve(context.Background(), resolver.ByName("RecursiveArrayIterator"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Iterator", "Countable", "Traversable"}, resolver.Names(got))

	got, err = r.Resolve(context.Background(), resolver.ByName("fs"))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestLoadFile_Conflict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "classes:\n  - name: X\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "interfaces:\n  - name: X\n")

	_, err := LoadDir(dir, registry.NewMemory())
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrConflict))
	assert.Contains(t, err.Error(), "b.yaml")
}

func TestLoadFile_ConflictLeavesNothingBehind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.yaml")
	writeFile(t, path, "interfaces:\n  - name: Fresh\n  - name: X\n")

	reg := registry.NewMemory()
	require.NoError(t, reg.DefineClass("X", ""))

	_, err := LoadFile(path, reg)
	require.ErrorIs(t, err, registry.ErrConflict)
	_, ok := reg.Lookup("Fresh")
	assert.False(t, ok)
}

func TestDirAutoloader_ConflictLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()
	reg := registry.NewMemory(registry.WithAutoloader(DirAutoloader{Dir: dir}))
	require.NoError(t, reg.DefineClass("Taken", ""))
	writeFile(t, filepath.Join(dir, "App", "Thing.yaml"), "interfaces:\n  - name: App\\Helper\n  - name: Taken\nclasses:\n  - name: App\\Thing\n")

	reg.TryAutoload(context.Background(), `App\Thing`)
	_, ok := reg.Lookup(`App\Helper`)
	assert.False(t, ok)
	_, ok = reg.Lookup(`App\Thing`)
	assert.False(t, ok)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "core.yaml"), "interfaces:\n  - name: Countable\n")
	writeFile(t, filepath.Join(dir, "nested", "impl.yml"), "classes:\n  - name: Bag\n    implements: [Countable]\n")
	writeFile(t, filepath.Join(dir, ".hidden", "skip.yaml"), "classes:\n  - name: Hidden\n")
	writeFile(t, filepath.Join(dir, "README.md"), "not a manifest")

	reg := registry.NewMemory()
	n, err := LoadDir(dir, reg)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"Bag", "Countable"}, reg.Names())
}

func TestDirAutoloader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "App", "Model", "User.yaml"), `
interfaces:
  - name: App\Contract\Identifiable
classes:
  - name: App\Model\User
    implements: [App\Contract\Identifiable]
`)
	writeFile(t, filepath.Join(dir, "Plain.yml"), "classes:\n  - name: Plain\n")

	reg := registry.NewMemory(registry.WithAutoloader(DirAutoloader{Dir: dir}))
	r := resolver.New(reg, nil)
	ctx := context.Background()

	got, err := r.Resolve(ctx, resolver.ByName(`App\Model\User`))
	require.NoError(t, err)
	assert.Equal(t, []string{`App\Contract\Identifiable`}, resolver.Names(got))

	got, err = r.Resolve(ctx, resolver.ByName("Plain"))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())

	_, err = r.Resolve(ctx, resolver.ByName("non_existent"))
	assert.True(t, errors.Is(err, resolver.ErrNotFound))

	_, err = r.Resolve(ctx, resolver.ByName("Plain2"), resolver.WithAutoload(false))
	assert.True(t, errors.Is(err, resolver.ErrNotFound))
}

func TestDirAutoloader_RejectsPaths(t *testing.T) {
	a := DirAutoloader{Dir: "/base"}
	_, ok := a.pathFor("../etc/passwd")
	assert.False(t, ok)
	_, ok = a.pathFor("...")
	assert.False(t, ok)

	p, ok := a.pathFor("a.b")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("/base", "a", "b"), p)
}
