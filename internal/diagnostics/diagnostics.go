// Package diagnostics defines the two fatal error kinds the compiler
// can raise -- ParseError and CompileError -- each carrying a machine
// readable code, the offending line number, and (where available) the
// offending source line.
package diagnostics

import "fmt"

// ErrorCode tags an error for tooling consumption (e.g. the gRPC
// compile service). It never changes which inputs are accepted.
type ErrorCode string

const (
	// Parse errors: the input does not conform to the grammar or to
	// the structural rules in spec.md 4.1.
	ErrUnmatchedLine     ErrorCode = "P001" // no statement pattern matched the line
	ErrUnexpectedChild   ErrorCode = "P002" // child node not allowed at this position
	ErrMisplacedStruct   ErrorCode = "P003" // struct definition not at top of file
	ErrMisplacedExit     ErrorCode = "P004" // block/func before first exit statement
	ErrMisplacedBody     ErrorCode = "P005" // statement after an exit statement
	ErrMissingExit       ErrorCode = "P006" // block did not end with an exit statement
	ErrMissingReturn     ErrorCode = "P007" // func did not end with a return statement
	ErrMisplacedBreak    ErrorCode = "P008" // break outside while
	ErrMisplacedReturn   ErrorCode = "P009" // return outside func
	ErrBadPragmaPosition ErrorCode = "P010" // #pragma version not on line 1
	ErrBadFieldIndex     ErrorCode = "P011" // inner_txn array field index out of order
	ErrExpression        ErrorCode = "P012" // failed to parse an expression

	// Compile errors: the input parses but fails a semantic check.
	ErrUnknownType       ErrorCode = "C001"
	ErrUnknownName       ErrorCode = "C002"
	ErrTypeMismatch      ErrorCode = "C003"
	ErrArityMismatch     ErrorCode = "C004"
	ErrWrongContext      ErrorCode = "C005"
	ErrNotRoutable       ErrorCode = "C006"
	ErrUnconsumedReturns ErrorCode = "C007"
	ErrUnknownField      ErrorCode = "C008"
	ErrNotAStructOrBox   ErrorCode = "C009"
	ErrDuplicateSymbol   ErrorCode = "C010"
)

// ParseError indicates the input does not conform to the grammar or
// structural rules.
type ParseError struct {
	Code   ErrorCode
	LineNo int
	Line   string
	Msg    string
}

func (e *ParseError) Error() string {
	if e.LineNo > 0 {
		return fmt.Sprintf("parse error at line %d [%s]: %s", e.LineNo, e.Code, e.Msg)
	}
	return fmt.Sprintf("parse error [%s]: %s", e.Code, e.Msg)
}

// NewParseError builds a ParseError carrying a source line.
func NewParseError(code ErrorCode, lineNo int, line, format string, args ...interface{}) *ParseError {
	return &ParseError{Code: code, LineNo: lineNo, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// CompileError indicates the input parses but fails a semantic check.
type CompileError struct {
	Code   ErrorCode
	LineNo int
	Line   string
	Msg    string
}

func (e *CompileError) Error() string {
	if e.LineNo > 0 {
		return fmt.Sprintf("compile error at line %d [%s]: %s", e.LineNo, e.Code, e.Msg)
	}
	return fmt.Sprintf("compile error [%s]: %s", e.Code, e.Msg)
}

// NewCompileError builds a CompileError carrying a source line.
func NewCompileError(code ErrorCode, lineNo int, line, format string, args ...interface{}) *CompileError {
	return &CompileError{Code: code, LineNo: lineNo, Line: line, Msg: fmt.Sprintf(format, args...)}
}
