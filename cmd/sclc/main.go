// Command sclc compiles one or more surface-language source files to
// target assembly, following the same os.Args subcommand style the
// reference compiler's own CLI uses rather than reaching for the flag
// package.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/tealc-lang/sclc/internal/cache"
	"github.com/tealc-lang/sclc/internal/compiler"
	"github.com/tealc-lang/sclc/internal/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <file.scl> [file2.scl ...]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "       %s -c <config.yaml> <file.scl> [file2.scl ...]\n", os.Args[0])
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg := config.DefaultBuildConfig()
	if args[0] == "-c" || args[0] == "--config" {
		if len(args) < 2 {
			usage()
			os.Exit(1)
		}
		loaded, err := config.LoadBuildConfig(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
			os.Exit(1)
		}
		cfg = loaded
		args = args[2:]
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	store, err := cache.Open(cacheDBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: disabling build cache: %s\n", err)
		store = nil
	} else {
		defer store.Close()
	}

	c := compiler.New()
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	failed := false
	for _, path := range args {
		if err := compileFile(c, store, cfg, path, useColor); err != nil {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func cacheDBPath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		sclcDir := filepath.Join(dir, "sclc")
		if err := os.MkdirAll(sclcDir, 0o755); err == nil {
			return filepath.Join(sclcDir, "compile-cache.db")
		}
	}
	return ".sclc-cache.db"
}

func compileFile(c *compiler.Compiler, store *cache.Store, cfg config.BuildConfig, path string, useColor bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %s\n", path, err)
		return err
	}

	var result compiler.Result
	if store != nil {
		result, err = store.CompileCached(c, string(source), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error compiling %s: %s\n", path, err)
			return err
		}
	} else {
		result = c.Compile(string(source), cfg)
	}

	if !result.OK() {
		printDiagnostics(path, result.Errors, useColor)
		return fmt.Errorf("%d diagnostic(s) in %s", len(result.Errors), path)
	}

	outPath := outputPathFor(path, cfg.OutputDir)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory for %s: %s\n", outPath, err)
		return err
	}
	if err := os.WriteFile(outPath, []byte(result.Output), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %s\n", outPath, err)
		return err
	}
	fmt.Fprintf(os.Stdout, "%s -> %s\n", path, outPath)
	return nil
}

func outputPathFor(sourcePath, outputDir string) string {
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext) + ".teal"
	return filepath.Join(outputDir, base)
}

func printDiagnostics(path string, errs []error, useColor bool) {
	prefix := "error:"
	if useColor {
		prefix = "\x1b[31merror:\x1b[0m"
	}
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", prefix, path, err)
	}
}
