package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/goimplements/internal/analyzer"
	"github.com/olehluchkiv/goimplements/internal/config"
)

// ---------------------------------------------------------------------------
// reorderArgs tests
// ---------------------------------------------------------------------------

func TestReorderArgs_NoArgs(t *testing.T) {
	flags, positional := reorderArgs(nil)
	assert.Nil(t, flags)
	assert.Nil(t, positional)
}

func TestReorderArgs_PositionalOnly(t *testing.T) {
	flags, positional := reorderArgs([]string{"io.Reader", "fs"})
	assert.Nil(t, flags)
	assert.Equal(t, []string{"io.Reader", "fs"}, positional)
}

func TestReorderArgs_PositionalBeforeFlags(t *testing.T) {
	// The whole point of reorderArgs: allow names before flags.
	flags, positional := reorderArgs([]string{"fs", "-format", "json"})
	assert.Equal(t, []string{"-format", "json"}, flags)
	assert.Equal(t, []string{"fs"}, positional)
}

func TestReorderArgs_PositionalBetweenFlags(t *testing.T) {
	flags, positional := reorderArgs([]string{"-no-autoload", "fs", "-manifest", "dir"})
	assert.Equal(t, []string{"-no-autoload", "-manifest", "dir"}, flags)
	assert.Equal(t, []string{"fs"}, positional)
}

func TestReorderArgs_ValueFlagWithEquals(t *testing.T) {
	flags, positional := reorderArgs([]string{"-format=table", "fs"})
	assert.Equal(t, []string{"-format=table"}, flags)
	assert.Equal(t, []string{"fs"}, positional)
}

func TestReorderArgs_DoubleHyphenValueFlag(t *testing.T) {
	flags, positional := reorderArgs([]string{"--format", "json", "fs"})
	assert.Equal(t, []string{"--format", "json"}, flags)
	assert.Equal(t, []string{"fs"}, positional)
}

func TestReorderArgs_BooleanFlagsDoNotConsumeNextArg(t *testing.T) {
	for _, flagName := range []string{"-no-autoload", "-serve", "-include-stdlib", "-include-unexported"} {
		flags, positional := reorderArgs([]string{flagName, "fs"})
		assert.Equal(t, []string{flagName}, flags, flagName)
		assert.Equal(t, []string{"fs"}, positional, flagName)
	}
}

func TestReorderArgs_AllValueFlags(t *testing.T) {
	args := []string{
		"-config", "goimplements.yaml",
		"-format", "json",
		"-manifest", "descriptors",
		"-autoload-dir", "lazy",
		"-source", "https://github.com/a/b",
		"-port", "3000",
		"-filter", "github.com/foo",
		"-log-file", "app.log",
		"-log-level", "debug",
	}
	flags, positional := reorderArgs(args)
	assert.Equal(t, args, flags)
	assert.Nil(t, positional)
}

func TestReorderArgs_ValueFlagAtEnd(t *testing.T) {
	// flag.Parse reports the missing value.
	flags, positional := reorderArgs([]string{"-port"})
	assert.Equal(t, []string{"-port"}, flags)
	assert.Nil(t, positional)
}

// ---------------------------------------------------------------------------
// flagOverrides tests
// ---------------------------------------------------------------------------

func TestFlagOverrides_OnlyExplicitFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("format", "dump", "")
	fs.String("log-level", "info", "")
	fs.Bool("no-autoload", false, "")
	fs.Int("port", 8080, "")
	require.NoError(t, fs.Parse([]string{"-config", "x.yaml", "-log-level", "debug", "-no-autoload", "-port", "9000"}))

	got := flagOverrides(fs)
	assert.Equal(t, map[string]any{
		"log_level": "debug",
		"autoload":  false,
		"port":      9000,
	}, got)
}

// ---------------------------------------------------------------------------
// run tests
// ---------------------------------------------------------------------------

var (
	manifestDir = filepath.Join("testdata", "manifests")
	autoloadDir = filepath.Join("testdata", "autoload")
)

func TestAutoloaders(t *testing.T) {
	kinds := func(cfg *config.Config) []string {
		var out []string
		for _, l := range autoloaders(cfg, ".", analyzer.AnalyzeOptions{}, slog.New(slog.DiscardHandler)) {
			out = append(out, fmt.Sprintf("%T", l))
		}
		return out
	}
	dir := "manifest.DirAutoloader"
	pkg := "analyzer.PackageAutoloader"

	assert.Equal(t, []string{pkg}, kinds(&config.Config{}))
	assert.Empty(t, kinds(&config.Config{Manifest: manifestDir}))
	assert.Equal(t, []string{dir}, kinds(&config.Config{Manifest: manifestDir, AutoloadDir: autoloadDir}))
	assert.Equal(t, []string{dir, pkg}, kinds(&config.Config{AutoloadDir: autoloadDir, Source: "."}))
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_NoInterfaces(t *testing.T) {
	code, out, _ := runCLI(t, "fs", "-manifest", manifestDir)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "array(0) {\n}\n", out)
}

func TestRun_TransitiveDump(t *testing.T) {
	code, out, _ := runCLI(t, "-manifest", manifestDir, "RecursiveArrayIterator")
	require.Equal(t, exitOK, code)

	want := []string{"RecursiveIterator", "Iterator", "Traversable", "SeekableIterator", "ArrayAccess", "Serializable", "Countable"}
	assert.True(t, strings.HasPrefix(out, "array(7) {\n"), out)
	last := -1
	for _, name := range want {
		i := strings.Index(out, `["`+name+`"]`)
		require.Greater(t, i, last, "order of %s in\n%s", name, out)
		last = i
	}
}

func TestRun_NotFound(t *testing.T) {
	code, out, _ := runCLI(t, "-manifest", manifestDir, "non_existent")
	assert.Equal(t, exitNotFound, code)
	assert.Equal(t, "error: class or interface \"non_existent\" does not exist and could not be loaded\nbool(false)\n", out)

	code, out, _ = runCLI(t, "-manifest", manifestDir, "-no-autoload", "non_existent2")
	assert.Equal(t, exitNotFound, code)
	assert.Equal(t, "error: class or interface \"non_existent2\" does not exist\nbool(false)\n", out)
}

func TestRun_AutoloadDir(t *testing.T) {
	code, out, _ := runCLI(t, "-manifest", manifestDir, "-autoload-dir", autoloadDir, "-format", "json", `App\Model\User`)
	require.Equal(t, exitOK, code, out)

	var doc struct {
		Subject    string            `json:"subject"`
		Interfaces map[string]string `json:"interfaces"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, `App\Model\User`, doc.Subject)
	assert.Equal(t, map[string]string{
		`App\Contracts\Arrayable`: `App\Contracts\Arrayable`,
		"Countable":               "Countable",
	}, doc.Interfaces)
}

func TestRun_AutoloadDisabled(t *testing.T) {
	code, _, _ := runCLI(t, "-autoload-dir", autoloadDir, "-no-autoload", `App\Model\User`)
	assert.Equal(t, exitNotFound, code)
}

func TestRun_MixedOutcomes(t *testing.T) {
	code, out, _ := runCLI(t, "-manifest", manifestDir, "-format", "table", "fs", "missing", "Iterator")
	assert.Equal(t, exitNotFound, code)
	assert.Contains(t, out, "fs: (0 interfaces)")
	assert.Contains(t, out, "error: class or interface \"missing\"")
	assert.Contains(t, out, "Traversable")
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "Usage: goimplements")
}

func TestRun_Help(t *testing.T) {
	code, _, _ := runCLI(t, "-help")
	assert.Equal(t, exitOK, code)
}

func TestRun_InvalidFormat(t *testing.T) {
	code, _, stderr := runCLI(t, "-format", "xml", "fs")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "unknown format")
}

func TestRun_MissingManifestDir(t *testing.T) {
	code, _, stderr := runCLI(t, "-manifest", filepath.Join(t.TempDir(), "nope"), "fs")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "manifest")
}
