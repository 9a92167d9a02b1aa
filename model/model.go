// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package model bundles the four process-wide catalogs (sets, data
// variables, solution variables, statement managers) into one root
// context value, passed explicitly to every operation; no package-level
// ambient mutability, mirroring how *fem.FEM roots a whole simulation in
// the teacher repo this module was built from.
package model

import (
	"github.com/PaddySchmidt/cgesolve/cgerr"
	"github.com/PaddySchmidt/cgesolve/expr"
	"github.com/PaddySchmidt/cgesolve/sets"
	"github.com/PaddySchmidt/cgesolve/statements"
	"github.com/PaddySchmidt/cgesolve/variables"
)

// Model is the root context: every operation in this module takes one
// explicitly, rather than reaching into package-level state.
type Model struct {
	Sets      *sets.Catalog
	Data      *variables.DataCatalog
	Sol       *variables.SolCatalog
	Formulas  *statements.FormulaManager
	Updates   *statements.UpdateManager
	Asserts   *statements.AssertManager
	Equations *statements.EquationManager
}

// New returns an empty root context with all four catalogs initialised.
func New() *Model {
	c := sets.NewCatalog()
	return &Model{
		Sets:      c,
		Data:      variables.NewDataCatalog(c),
		Sol:       variables.NewSolCatalog(c),
		Formulas:  statements.NewFormulaManager(),
		Updates:   statements.NewUpdateManager(),
		Asserts:   statements.NewAssertManager(),
		Equations: statements.NewEquationManager(),
	}
}

// CatalogOf implements expr.Resolver: a variable reference's target
// catalog is selected by membership test, never recorded on the node.
func (m *Model) CatalogOf(name string) string {
	if m.Data.Has(name) {
		return "data"
	}
	if m.Sol.Has(name) {
		return "solution"
	}
	return ""
}

// DeclaredSets implements expr.Resolver.
func (m *Model) DeclaredSets(name string) []string {
	if m.Data.Has(name) {
		return m.Data.Sets(name)
	}
	return m.Sol.Sets(name)
}

// Indices implements expr.Resolver.
func (m *Model) Indices(name string, querySets []string, tuples [][]int) ([]int, error) {
	if m.Data.Has(name) {
		return m.Data.Indices(name, querySets, tuples)
	}
	if m.Sol.Has(name) {
		return m.Sol.Indices(name, querySets, tuples)
	}
	return nil, cgerr.New(cgerr.Consistency, "variable %q not declared", name)
}

// ElementIndex implements expr.Resolver.
func (m *Model) ElementIndex(set, element string) (int, error) { return m.Sets.ElementIndex(set, element) }

// SetSize implements expr.Resolver.
func (m *Model) SetSize(set string) (int, error) {
	s, err := m.Sets.Get(set)
	if err != nil {
		return 0, err
	}
	return s.Len(), nil
}

// ElementOf returns the element label at position idx within the named
// set, used to render assertion-failure and diagnostic bindings.
func (m *Model) ElementOf(set string, idx int) string {
	s, err := m.Sets.Get(set)
	if err != nil || idx < 0 || idx >= len(s.Elements) {
		return "?"
	}
	return s.Elements[idx]
}

// VariableDeclared reports whether name is declared in the data or
// solution catalog (used by the Reporter's whitelist filter).
func (m *Model) VariableDeclared(name string) bool {
	return m.Data.Has(name) || m.Sol.Has(name)
}

// LHSIndices resolves a formula/update left-hand-side reference to flat
// offsets, honouring possibly-repeated indices (diagonal writes) and
// bound literal elements: the LHS's argument list need only be a
// permutation of the statement's defined indices, duplicates allowed.
func (m *Model) LHSIndices(name string, args []expr.IndexArg, bindings expr.Bindings, sites [][]int) ([]int, error) {
	querySets, siteVals, err := expr.ResolveArgs(m, name, args, bindings, sites)
	if err != nil {
		return nil, err
	}
	return m.Indices(name, querySets, siteVals)
}
