package checker_test

import (
	"testing"

	"github.com/nova-lang/novac/checker"
	"github.com/nova-lang/novac/lexer"
	"github.com/nova-lang/novac/parser"
	"github.com/nova-lang/novac/types"
)

func check(t *testing.T, src string) error {
	t.Helper()
	file, err := parser.ParseFile(lexer.New(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return checker.Check(file, types.NewTypeContext())
}

func TestCheckLet(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "explicit type annotation",
			input:   `fn main() -> s32 { let x: s32 = 5; x }`,
			wantErr: false,
		},
		{
			name:    "type inference",
			input:   `fn main() -> s32 { let x = 5; x }`,
			wantErr: false,
		},
		{
			name:    "mixed explicit and inferred",
			input:   `fn main() -> s32 { let x: s32 = 5; let y = 10; x + y }`,
			wantErr: false,
		},
		{
			name:    "type mismatch on annotation",
			input:   `fn main() -> s32 { let x: bool = 5; 0 }`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := check(t, tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFunctionCallTypeChecking(t *testing.T) {
	add := `fn add(a: s32, b: s32) -> s32 { return a + b; }`

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "correct call",
			input:   add + ` fn main() -> s32 { add(1, 2) }`,
			wantErr: false,
		},
		{
			name:    "too few arguments",
			input:   add + ` fn main() -> s32 { add(1) }`,
			wantErr: true,
		},
		{
			name:    "too many arguments",
			input:   add + ` fn main() -> s32 { add(1, 2, 3) }`,
			wantErr: true,
		},
		{
			name:    "argument type mismatch",
			input:   add + ` fn main() -> s32 { add(true, 2) }`,
			wantErr: true,
		},
		{
			name:    "undefined function",
			input:   `fn main() -> s32 { undefined_func(1, 2) }`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := check(t, tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMissingMain(t *testing.T) {
	err := check(t, `fn f() -> s32 { 1 }`)
	if _, ok := err.(*checker.FunctionDoesntExistError); !ok {
		t.Fatalf("got %T (%v), want *FunctionDoesntExistError", err, err)
	}
}

func TestUndefinedVariable(t *testing.T) {
	err := check(t, `fn main() -> s32 { x }`)
	if _, ok := err.(*checker.UndefinedVariableError); !ok {
		t.Fatalf("got %T (%v), want *UndefinedVariableError", err, err)
	}
}

func TestReturnTypeMismatch(t *testing.T) {
	// Spec §8 scenario 6.
	err := check(t, `fn main() -> s32 { return true; }`)
	ite, ok := err.(*checker.IncorrectTypeError)
	if !ok {
		t.Fatalf("got %T (%v), want *IncorrectTypeError", err, err)
	}
	if ite.Expected != "s32" || ite.Found != "bool" {
		t.Errorf("got Expected=%q Found=%q", ite.Expected, ite.Found)
	}
}

func TestIfBranchMismatch(t *testing.T) {
	err := check(t, `fn main() -> s32 { if true { 1 } else { false } }`)
	if _, ok := err.(*checker.CouldNotUnifyError); !ok {
		t.Fatalf("got %T (%v), want *CouldNotUnifyError", err, err)
	}
}

func TestIfWithoutElseMustBeUnit(t *testing.T) {
	err := check(t, `fn main() -> s32 { if true { 1 } 0 }`)
	if _, ok := err.(*checker.CouldNotUnifyError); !ok {
		t.Fatalf("got %T (%v), want *CouldNotUnifyError", err, err)
	}
}

func TestStatementsAfterReturn(t *testing.T) {
	err := check(t, `fn main() -> s32 { return 1; let x = 2; x }`)
	if _, ok := err.(*checker.StatementsAfterReturnError); !ok {
		t.Fatalf("got %T (%v), want *StatementsAfterReturnError", err, err)
	}
}

func TestIntegerSuffixDefaultsToS32(t *testing.T) {
	// Unsuffixed integer literals with nothing constraining them further
	// default to s32 (spec §4.3/§8).
	if err := check(t, `fn main() -> s32 { let x = 5; 0 }`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReferenceAndDeref(t *testing.T) {
	if err := check(t, `
fn deref_it(r: &s32) -> s32 { *r }
fn main() -> s32 { let x = 5; deref_it(&x) }
`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNegUnsignedRejected(t *testing.T) {
	err := check(t, `fn main() -> u32 { -1u32 }`)
	if _, ok := err.(*checker.UnopUnsupportedError); !ok {
		t.Fatalf("got %T (%v), want *UnopUnsupportedError", err, err)
	}
}

func TestAssignUnifiesWithDeclaredType(t *testing.T) {
	err := check(t, `fn main() -> s32 { let x: s32 = 1; x = true; 0 }`)
	if _, ok := err.(*checker.CouldNotUnifyError); !ok {
		t.Fatalf("got %T (%v), want *CouldNotUnifyError", err, err)
	}
}

func TestShortCircuitOperandsMustBeBool(t *testing.T) {
	err := check(t, `fn main() -> bool { 1 && true }`)
	if _, ok := err.(*checker.CouldNotUnifyError); !ok {
		t.Fatalf("got %T (%v), want *CouldNotUnifyError", err, err)
	}
}

func TestEmptySourceFile(t *testing.T) {
	err := check(t, ``)
	if _, ok := err.(*checker.FunctionDoesntExistError); !ok {
		t.Fatalf("got %T (%v), want *FunctionDoesntExistError", err, err)
	}
}
