// Package backend defines the interface a code generator implements to
// turn a finished mir.Module into an emittable artifact.
package backend

import "github.com/nova-lang/novac/mir"

// Backend lowers a type-checked, lowered mir.Module to textual output
// in whatever format the concrete backend produces (LLVM IR, a bytecode
// dump, ...). It never mutates mod.
type Backend interface {
	// Emit returns mod's lowering as text, ready to write to a file or
	// stdout.
	Emit(mod *mir.Module) (string, error)
}
