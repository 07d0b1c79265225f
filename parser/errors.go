package parser

import "fmt"

// UnexpectedTokenError is the syntactic UnexpectedToken error (spec §7):
// Found/Expected are the token-type names, per spec's textual taxonomy.
type UnexpectedTokenError struct {
	Found    string
	Expected string
	Line     int
}

func (e *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("%d: unexpected token %s, expected %s", e.Line, e.Found, e.Expected)
}

// ExpectedEOFError fires when trailing tokens remain after the last Item.
type ExpectedEOFError struct {
	Found string
	Line  int
}

func (e *ExpectedEOFError) Error() string {
	return fmt.Sprintf("%d: expected end of file, found %s", e.Line, e.Found)
}

// ExpectedSemicolonError fires when a non-block expression statement is
// not followed by `;` (spec §4.2 block-as-statement rule).
type ExpectedSemicolonError struct {
	Line int
}

func (e *ExpectedSemicolonError) Error() string {
	return fmt.Sprintf("%d: expected ';'", e.Line)
}

// DuplicatedFunctionArgumentError fires when a function's parameter
// list repeats a name.
type DuplicatedFunctionArgumentError struct {
	Name string
	Line int
}

func (e *DuplicatedFunctionArgumentError) Error() string {
	return fmt.Sprintf("%d: duplicated function argument %q", e.Line, e.Name)
}

// DuplicatedFunctionError fires when two Items share a function name.
type DuplicatedFunctionError struct {
	Name string
	Line int
}

func (e *DuplicatedFunctionError) Error() string {
	return fmt.Sprintf("%d: function %q already declared", e.Line, e.Name)
}

// UnknownTypeError fires when a Type production starts with a token
// that cannot begin a type. Identifiers are accepted without checking
// that they name a known type; the checker reports unknown names.
type UnknownTypeError struct {
	Found string
	Line  int
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%d: unknown type %q", e.Line, e.Found)
}

// InvalidSuffixError fires when an integer literal's suffix is not one
// of s8/s16/s32/s64/u8/u16/u32/u64 (or empty). Spec §7 files this under
// the lexical taxonomy, but "validation happens when constructing the
// literal" (§4.2), i.e. in the parser, which is where this type lives.
type InvalidSuffixError struct {
	Suffix string
	Line   int
}

func (e *InvalidSuffixError) Error() string {
	return fmt.Sprintf("%d: invalid integer suffix %q", e.Line, e.Suffix)
}
