// Package domain defines core types, interfaces, and errors for the record diff engine.
package domain

import (
	"fmt"
	"strings"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NoComparableTablesError indicates that the two inputs share no table or
// sheet name, so no comparison is possible at all.
type NoComparableTablesError struct {
	Kind   string // "table" or "sheet"
	Source string
	Target string
}

func (e *NoComparableTablesError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "table"
	}
	return fmt.Sprintf("no %s name is shared by %q and %q: nothing to compare", kind, e.Source, e.Target)
}

// DuplicateKeyError reports key values that occur more than once on one side
// of a diff. It is only produced when strict key checking is enabled.
type DuplicateKeyError struct {
	Table string
	Side  string // "source" or "target"
	Keys  []string
}

func (e *DuplicateKeyError) Error() string {
	shown := e.Keys
	if len(shown) > 5 {
		shown = shown[:5]
	}
	printable := make([]string, len(shown))
	for i, k := range shown {
		printable[i] = strings.ReplaceAll(k, KeySeparator, "|")
	}
	return fmt.Sprintf("table %q: %d duplicate key(s) in %s records: %s",
		e.Table, len(e.Keys), e.Side, strings.Join(printable, ", "))
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrNoComparableTables creates a NoComparableTablesError for two inputs.
func ErrNoComparableTables(kind, source, target string) *NoComparableTablesError {
	return &NoComparableTablesError{Kind: kind, Source: source, Target: target}
}
