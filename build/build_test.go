package build

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func writeSource(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "main.nova")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestRunEmitsMIR(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, `fn main() -> s32 { return 42; }`)

	b := NewBuilder(zap.NewNop(), dir)
	out, err := b.Run(src, EmitMIR)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !strings.Contains(out, "fn main") {
		t.Errorf("expected MIR dump to mention fn main, got:\n%s", out)
	}
}

func TestRunEmitsLLVM(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, `fn main() -> s32 { return 42; }`)

	b := NewBuilder(zap.NewNop(), dir)
	out, err := b.Run(src, EmitLLVM)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !strings.Contains(out, "define") {
		t.Errorf("expected LLVM IR to contain a function definition, got:\n%s", out)
	}
}

func TestRunUsesCacheOnUnchangedSource(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, `fn main() -> s32 { return 1; }`)

	b := NewBuilder(zap.NewNop(), dir)
	first, err := b.Run(src, EmitMIR)
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}

	second, err := b.Run(src, EmitMIR)
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if first != second {
		t.Error("expected cached build to match the first build's output")
	}
}

func TestRunRebuildsAfterSourceChange(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, `fn main() -> s32 { return 1; }`)

	b := NewBuilder(zap.NewNop(), dir)
	if _, err := b.Run(src, EmitMIR); err != nil {
		t.Fatalf("first build failed: %v", err)
	}

	writeSource(t, dir, `fn main() -> s32 { return 2; }`)
	out, err := b.Run(src, EmitMIR)
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if !strings.Contains(out, "const 2") {
		t.Errorf("expected rebuilt MIR to reflect the source change, got:\n%s", out)
	}
}

func TestLoadConfigMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "nova.toml"))
	if err != nil {
		t.Fatalf("missing nova.toml should not be an error: %v", err)
	}
	if cfg.Package.Name != "" {
		t.Errorf("expected zero-value config, got %+v", cfg)
	}
}

func TestLoadConfigParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nova.toml")
	os.WriteFile(path, []byte(`[package]
name = "demo"
entry = "main.nova"
opt_level = 2
`), 0644)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Package.Name != "demo" || cfg.Package.Entry != "main.nova" || cfg.Package.OptLevel != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}
