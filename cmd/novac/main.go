// Command novac is the Nova compiler driver: it lexes, parses,
// type-checks, lowers, and emits a single source file.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/nova-lang/novac/build"
)

func main() {
	emit := flag.String("emit", build.EmitLLVM, "output format: mir or llvm")
	out := flag.String("o", "", "write output to this file instead of stdout")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() != 1 {
		printUsage()
		os.Exit(1)
	}
	sourcePath := flag.Arg(0)

	if *emit != build.EmitMIR && *emit != build.EmitLLVM {
		fmt.Fprintf(os.Stderr, "novac: unknown -emit value %q (want mir or llvm)\n", *emit)
		os.Exit(1)
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "novac: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if _, err := build.LoadConfig(filepath.Join(filepath.Dir(sourcePath), "nova.toml")); err != nil {
		log.Error("failed to load nova.toml", zap.Error(err))
		os.Exit(1)
	}

	b := build.NewBuilder(log, filepath.Dir(sourcePath))
	output, err := b.Run(sourcePath, *emit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "novac: %v\n", err)
		os.Exit(1)
	}

	if *out == "" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(*out, []byte(output), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "novac: writing %s: %v\n", *out, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Nova compiler")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  novac [-emit=mir|llvm] [-o <path>] <source-path>")
}
