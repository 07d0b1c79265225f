// Package build drives the compiler pipeline end to end: read source,
// lex, parse, check, lower to MIR, and emit either the MIR dump or
// LLVM IR, with a build cache keyed on source content.
package build

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/nova-lang/novac/backend"
	llvmbackend "github.com/nova-lang/novac/backend/llvm"
	"github.com/nova-lang/novac/checker"
	"github.com/nova-lang/novac/lexer"
	"github.com/nova-lang/novac/mir"
	"github.com/nova-lang/novac/parser"
	"github.com/nova-lang/novac/types"
)

// Emit selects the textual output format Builder.Run produces.
const (
	EmitMIR  = "mir"
	EmitLLVM = "llvm"
)

// Builder runs the pipeline for a single source file. It takes a
// *zap.Logger as a constructor argument rather than a package global
// so tests can inject zap.NewNop().
type Builder struct {
	log   *zap.Logger
	cache *CacheManager
}

// NewBuilder creates a Builder whose cache lives under
// filepath.Join(projectRoot, "build", "cache").
func NewBuilder(log *zap.Logger, projectRoot string) *Builder {
	return &Builder{
		log:   log,
		cache: NewCacheManager(filepath.Join(projectRoot, "build", "cache")),
	}
}

// Run compiles sourcePath and returns the textual output for emit
// (EmitMIR or EmitLLVM), using the build cache when sourcePath's
// content hash hasn't changed since the last Run with the same emit.
func (b *Builder) Run(sourcePath, emit string) (string, error) {
	if cached, ok := b.cache.Lookup(sourcePath, emit); ok {
		b.log.Debug("using cached build", zap.String("source", sourcePath), zap.String("emit", emit))
		return cached, nil
	}

	b.log.Debug("building", zap.String("source", sourcePath), zap.String("emit", emit))

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", sourcePath, err)
	}

	file, err := parser.ParseFile(lexer.New(string(source)))
	if err != nil {
		return "", err
	}

	ctx := types.NewTypeContext()
	if err := checker.Check(file, ctx); err != nil {
		return "", err
	}

	mod, err := mir.TranslateFile(file, ctx)
	if err != nil {
		return "", err
	}

	var output string
	switch emit {
	case EmitMIR:
		output = mod.String()
	case EmitLLVM:
		var be backend.Backend = llvmbackend.New()
		output, err = be.Emit(mod)
		if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown emit format %q", emit)
	}

	if err := b.cache.Save(sourcePath, emit, output); err != nil {
		b.log.Warn("failed to save build cache", zap.Error(err))
	}

	return output, nil
}
