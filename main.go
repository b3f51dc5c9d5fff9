package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/olehluchkiv/goimplements/internal/analyzer"
	"github.com/olehluchkiv/goimplements/internal/config"
	"github.com/olehluchkiv/goimplements/internal/logging"
	"github.com/olehluchkiv/goimplements/internal/manifest"
	"github.com/olehluchkiv/goimplements/internal/registry"
	"github.com/olehluchkiv/goimplements/internal/render"
	"github.com/olehluchkiv/goimplements/internal/resolver"
	"github.com/olehluchkiv/goimplements/internal/server"
	"github.com/olehluchkiv/goimplements/internal/source"
)

const (
	exitOK       = 0
	exitNotFound = 1
	exitUsage    = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// Go's flag parsing stops at the first positional argument, which would
	// break "goimplements io.Reader -format json". Flags go first.
	flags, positional := reorderArgs(args)

	fs := flag.NewFlagSet("goimplements", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (default goimplements.yaml if present)")
	fs.String("format", "dump", "output format (dump, json, table, mermaid)")
	fs.String("manifest", "", "directory of YAML class and interface descriptors")
	fs.String("autoload-dir", "", "directory of per-name YAML descriptors loaded on demand")
	fs.String("source", "", "Go module path or GitHub URL to load types from")
	fs.Bool("no-autoload", false, "do not try to load unknown names on demand")
	fs.Bool("serve", false, "serve the HTTP API instead of resolving names")
	fs.Int("port", 8080, "HTTP server port")
	fs.String("filter", "", "package path prefix filter for -source types")
	fs.Bool("include-stdlib", false, "include standard library interfaces")
	fs.Bool("include-unexported", false, "include unexported types and interfaces")
	fs.String("log-file", "", "also append logs to this file")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")

	if err := fs.Parse(flags); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	positional = append(positional, fs.Args()...)

	cfg, err := config.Load(*configPath, flagOverrides(fs))
	if err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return exitUsage
	}
	if !cfg.Serve && len(positional) == 0 {
		fmt.Fprintln(stderr, "Usage: goimplements [flags] <class-or-interface>...")
		fs.PrintDefaults()
		return exitUsage
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid log level %q: %v\n", cfg.LogLevel, err)
		return exitUsage
	}
	logger, logCleanup, err := logging.Setup(stderr, cfg.LogFile, level)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to setup logging: %v\n", err)
		return exitUsage
	}
	defer logCleanup()
	if cfg.File != "" {
		logger.Debug("config loaded", "file", cfg.File)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	reg, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build registry", "error", err)
		fmt.Fprintf(stderr, "Error loading classes: %v\n", err)
		return exitUsage
	}
	res := resolver.New(reg, logger)

	if cfg.Serve {
		srv := server.New(server.Config{Resolver: res, Catalog: reg, Port: cfg.Port, Logger: logger})
		if err := srv.Serve(ctx); err != nil {
			logger.Error("server error", "error", err)
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return exitUsage
		}
		return exitOK
	}

	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid format: %v\n", err)
		return exitUsage
	}
	outcomes := res.ResolveAll(ctx, positional, resolver.WithAutoload(cfg.Autoload))
	if err := render.New(format, reg).Outcomes(stdout, outcomes); err != nil {
		logger.Error("failed to write output", "error", err)
		return exitUsage
	}

	code := exitOK
	for _, o := range outcomes {
		if o.Err != nil {
			logger.Debug("resolve failed", "name", o.Name, "error", o.Err)
			code = exitNotFound
		}
	}
	return code
}

// buildRegistry creates the registry and its autoloaders. Manifests and Go
// source named in cfg are loaded up front; anything else is left to
// autoload. Go import-path names (io.Reader) can always be autoloaded.
func buildRegistry(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*registry.Memory, error) {
	opts := analyzer.AnalyzeOptions{
		Filter:            cfg.Filter,
		IncludeStdlib:     cfg.IncludeStdlib,
		IncludeUnexported: cfg.IncludeUnexported,
	}

	moduleDir := "."
	if cfg.Source != "" {
		fetcher, err := source.NewFetcher(logger)
		if err != nil {
			return nil, err
		}
		dir, err := fetcher.Fetch(ctx, cfg.Source)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		moduleDir = dir
	}

	reg := registry.NewMemory(
		registry.WithAutoloader(registry.Chain(autoloaders(cfg, moduleDir, opts, logger)...)),
		registry.WithLogger(logger),
	)

	if cfg.Manifest != "" {
		n, err := manifest.LoadDir(cfg.Manifest, reg)
		if err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
		logger.Info("manifests loaded", "dir", cfg.Manifest, "descriptors", n)
	}

	if cfg.Source != "" {
		result, err := analyzer.Analyze(ctx, moduleDir, opts, logger)
		if err != nil {
			return nil, fmt.Errorf("analyze: %w", err)
		}
		result = analyzer.Filter(result, opts)
		n, err := analyzer.Populate(result, reg, logger)
		if err != nil {
			return nil, fmt.Errorf("populate: %w", err)
		}
		logger.Info("source loaded",
			"dir", moduleDir,
			"interfaces", len(result.Interfaces),
			"types", len(result.Types),
			"descriptors", n)
	}

	return reg, nil
}

// flagOverrides returns the explicitly set flags keyed like the config
// file, so they override every other configuration layer.
func flagOverrides(fs *flag.FlagSet) map[string]any {
	out := make(map[string]any)
	fs.Visit(func(f *flag.Flag) {
		var v any = f.Value.String()
		if g, ok := f.Value.(flag.Getter); ok {
			v = g.Get()
		}
		switch f.Name {
		case "config":
		case "no-autoload":
			if b, ok := v.(bool); ok {
				out["autoload"] = !b
			}
		default:
			out[strings.ReplaceAll(f.Name, "-", "_")] = v
		}
	})
	return out
}

// reorderArgs separates flags and positional arguments so flags can appear
// before or after the names being resolved. Flags that take a value
// consume the next arg unless written with "=".
// autoloaders picks the loaders tried on a registry miss. Go packages are
// loaded only when resolving Go code: with -source, or when no manifest
// input was given at all.
func autoloaders(cfg *config.Config, moduleDir string, opts analyzer.AnalyzeOptions, logger *slog.Logger) []registry.Autoloader {
	var loaders []registry.Autoloader
	if cfg.AutoloadDir != "" {
		loaders = append(loaders, manifest.DirAutoloader{Dir: cfg.AutoloadDir})
	}
	if cfg.Source != "" || (cfg.Manifest == "" && cfg.AutoloadDir == "") {
		loaders = append(loaders, analyzer.PackageAutoloader{Dir: moduleDir, Options: opts, Logger: logger})
	}
	return loaders
}

func reorderArgs(args []string) (flags, positional []string) {
	valueFlagSet := map[string]bool{
		"-config": true, "-format": true, "-manifest": true, "-autoload-dir": true, "-source": true,
		"-port": true, "-filter": true, "-log-file": true, "-log-level": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			name := "-" + strings.TrimLeft(arg, "-")
			if !strings.Contains(arg, "=") && valueFlagSet[name] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return flags, positional
}
