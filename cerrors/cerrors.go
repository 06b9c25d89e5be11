// Package cerrors provides the shared diagnostic types used by every
// compiler stage: a source Position, a single Error carrying a Kind and
// message, and an ErrorList that collects every error a stage found
// before the pipeline aborts.
package cerrors

import (
	"fmt"
	"strings"

	"github.com/go-minic/minic/token"
)

// Kind categorizes which stage raised an Error.
type Kind int

const (
	KindLex Kind = iota
	KindParse
	KindSemantic
)

func (k Kind) String() string {
	switch k {
	case KindLex:
		return "Lexer Error"
	case KindParse:
		return "Parse Error"
	case KindSemantic:
		return "Semantic Error"
	default:
		return "Error"
	}
}

// Error is a single diagnostic with a source position.
type Error struct {
	Pos     token.Position
	Kind    Kind
	Message string
}

func NewError(pos token.Position, kind Kind, message string) *Error {
	return &Error{Pos: pos, Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Pos, e.Message)
}

// ErrorList collects every diagnostic raised during a stage. A stage is
// considered failed as soon as the list is non-empty; the pipeline
// reports all of them and exits non-zero rather than stopping at the
// first one.
type ErrorList struct {
	Errors []*Error
}

func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

func (el *ErrorList) Error() string {
	var sb strings.Builder
	for _, err := range el.Errors {
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}
