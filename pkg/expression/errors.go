package expression

import "fmt"

// ParseError is returned when an expression is not syntactically valid.
type ParseError struct {
	Expr    string // The expression being parsed
	Pos     int    // Byte offset into Expr at which the error was detected
	Message string
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("invalid expression %q at offset %d: %s", err.Expr, err.Pos, err.Message)
}

// UndefinedError is returned by a strict Evaluator when an expression references
// an identifier not present in the values mapping.
type UndefinedError struct {
	Expr string
	Name string
}

func (err *UndefinedError) Error() string {
	return fmt.Sprintf("identifier %q in expression %q is not defined", err.Name, err.Expr)
}
