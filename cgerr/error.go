// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cgerr holds the one error kind that crosses the model-solver
// boundary, classified internally by phase so diagnostics can still name
// the failing statement and line.
package cgerr

import "fmt"

// Phase classifies where a ModelError originated.
type Phase int

const (
	Parse Phase = iota
	Consistency
	Differentiation
	Shape
	SolverWarning
	Assertion
	IO
)

func (p Phase) String() string {
	switch p {
	case Parse:
		return "parse error"
	case Consistency:
		return "consistency error"
	case Differentiation:
		return "differentiation error"
	case Shape:
		return "shape error"
	case SolverWarning:
		return "solver warning escalated"
	case Assertion:
		return "assertion failure"
	case IO:
		return "i/o error"
	}
	return "model error"
}

// ModelError is the single error kind surfaced to callers outside the
// solver core. Statement and Line are empty/zero when not applicable.
type ModelError struct {
	PhaseKind Phase
	Statement string
	Line      int
	Err       error
}

func (e *ModelError) Error() string {
	if e.Statement == "" {
		return fmt.Sprintf("%s: %v", e.PhaseKind, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s: statement %q (line %d): %v", e.PhaseKind, e.Statement, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: statement %q: %v", e.PhaseKind, e.Statement, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// New builds a ModelError with no statement/line context.
func New(phase Phase, format string, args ...interface{}) *ModelError {
	return &ModelError{PhaseKind: phase, Err: fmt.Errorf(format, args...)}
}

// At builds a ModelError naming the offending statement and source line.
func At(phase Phase, statement string, line int, format string, args ...interface{}) *ModelError {
	return &ModelError{PhaseKind: phase, Statement: statement, Line: line, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches phase/statement/line context to an existing error.
func Wrap(phase Phase, statement string, line int, err error) *ModelError {
	if err == nil {
		return nil
	}
	return &ModelError{PhaseKind: phase, Statement: statement, Line: line, Err: err}
}
