// Package source turns a user-supplied location (a local path or a GitHub
// URL) into a local Go module root the analyzer can load.
package source

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// GitRunner runs a git command in dir.
type GitRunner func(ctx context.Context, dir string, args ...string) error

// Fetcher resolves inputs to module roots. Remote repositories are cloned
// once into CacheRoot and refreshed on later fetches.
type Fetcher struct {
	CacheRoot string
	Git       GitRunner
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher caching clones under
// ~/.cache/goimplements/repos.
func NewFetcher(logger *slog.Logger) (*Fetcher, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home dir: %w", err)
	}
	return &Fetcher{
		CacheRoot: filepath.Join(home, ".cache", "goimplements", "repos"),
		Git:       runGit,
		logger:    logger.With("component", "source"),
	}, nil
}

// Fetch returns the module root for input.
func (f *Fetcher) Fetch(ctx context.Context, input string) (string, error) {
	if IsGitHubURL(input) {
		return f.fetchRepo(ctx, input)
	}

	absPath, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", absPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", absPath)
	}

	modRoot, err := findModuleRoot(absPath)
	if err != nil {
		return "", err
	}
	f.log().Info("resolved local directory", "input", input, "module_root", modRoot)
	return modRoot, nil
}

// IsGitHubURL reports whether input should be cloned rather than read from disk.
func IsGitHubURL(input string) bool {
	return strings.Contains(input, "github.com") &&
		(strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://"))
}

// cacheDir returns the stable clone directory for url.
func (f *Fetcher) cacheDir(url string) string {
	h := sha256.Sum256([]byte(url))
	return filepath.Join(f.CacheRoot, fmt.Sprintf("%x", h[:8]))
}

func (f *Fetcher) fetchRepo(ctx context.Context, url string) (string, error) {
	dir := f.cacheDir(url)
	logger := f.log()

	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return f.cloneRepo(ctx, url, dir)
	}

	logger.Info("updating cached repository", "url", url, "dir", dir)
	if err := f.Git(ctx, dir, "fetch", "--depth=1", "origin"); err != nil {
		logger.Warn("git fetch failed, will re-clone", "error", err)
		_ = os.RemoveAll(dir)
		return f.cloneRepo(ctx, url, dir)
	}
	if err := f.Git(ctx, dir, "reset", "--hard", "origin/HEAD"); err != nil {
		logger.Warn("git reset failed, will re-clone", "error", err)
		_ = os.RemoveAll(dir)
		return f.cloneRepo(ctx, url, dir)
	}

	modRoot, err := findModuleRootInTree(dir)
	if err != nil {
		return "", fmt.Errorf("cached repo: %w", err)
	}
	logger.Info("repository updated", "module_root", modRoot)
	return modRoot, nil
}

func (f *Fetcher) cloneRepo(ctx context.Context, url, dir string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}

	f.log().Info("cloning repository", "url", url, "dest", dir)
	if err := f.Git(ctx, "", "clone", "--depth=1", url, dir); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("git clone: %w", err)
	}

	modRoot, err := findModuleRootInTree(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("cloned repo: %w", err)
	}
	f.log().Info("clone complete", "module_root", modRoot)
	return modRoot, nil
}

func (f *Fetcher) log() *slog.Logger {
	if f.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return f.logger
}

func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// findModuleRoot walks up from dir to the nearest go.mod.
func findModuleRoot(dir string) (string, error) {
	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no go.mod found in %s or any parent directory", dir)
		}
		current = parent
	}
}

// skipDirs are never searched for go.mod files.
var skipDirs = map[string]bool{"vendor": true, "node_modules": true, "testdata": true}

// findModuleRootInTree searches root breadth-first for the shallowest
// go.mod. Ties at the same depth go to the lexically first directory.
func findModuleRootInTree(root string) (string, error) {
	level := []string{root}
	for len(level) > 0 {
		sort.Strings(level)
		var next []string
		for _, dir := range level {
			if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
				return dir, nil
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			for _, e := range entries {
				if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || skipDirs[e.Name()] {
					continue
				}
				next = append(next, filepath.Join(dir, e.Name()))
			}
		}
		level = next
	}
	return "", fmt.Errorf("no go.mod found in %s or its subdirectories", root)
}
