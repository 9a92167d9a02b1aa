// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package statements owns the four ordered statement collections —
// formulas, updates, assertions, equations — and drives their evaluation
// across their declared index sets.
package statements

import (
	"github.com/PaddySchmidt/cgesolve/cgerr"
	"github.com/PaddySchmidt/cgesolve/expr"
)

// Statement is the shape shared by all four flavours: a unique name, the
// ordered (index -> set) bindings it ranges over, and its expression
// tree.
type Statement struct {
	Name     string
	Bindings expr.Bindings
	Tree     *expr.Node
	Line     int
}

// Sites enumerates the row-major cartesian product of a statement's
// bindings (rightmost fastest), returning one tuple per evaluation site.
func (s *Statement) Sites(res expr.Resolver) ([][]int, error) {
	return cartesianTuples(res, s.Bindings)
}

func cartesianTuples(res expr.Resolver, bindings expr.Bindings) ([][]int, error) {
	sizes := make([]int, len(bindings))
	for i, b := range bindings {
		sz, err := res.SetSize(b.Set)
		if err != nil {
			return nil, err
		}
		sizes[i] = sz
	}
	result := [][]int{{}}
	for _, sz := range sizes {
		var next [][]int
		for _, prefix := range result {
			for e := 0; e < sz; e++ {
				row := make([]int, len(prefix), len(prefix)+1)
				copy(row, prefix)
				next = append(next, append(row, e))
			}
		}
		result = next
	}
	return result, nil
}

// AssertStatement is a comparison-rooted statement checked (not solved)
// at every site in its domain.
type AssertStatement struct {
	Statement
}

// AssertManager owns the assertion collection.
type AssertManager struct {
	byName map[string]*AssertStatement
	order  []string
}

// NewAssertManager returns an empty assertion manager.
func NewAssertManager() *AssertManager {
	return &AssertManager{byName: map[string]*AssertStatement{}}
}

// Add declares a new assertion. Its tree root must be a comparison node.
func (m *AssertManager) Add(name string, bindings expr.Bindings, tree *expr.Node, line int) error {
	if _, ok := m.byName[name]; ok {
		return cgerr.At(cgerr.Consistency, name, line, "assertion %q already declared", name)
	}
	if tree.Kind != expr.KCmp {
		return cgerr.At(cgerr.Consistency, name, line, "assertion %q: root must be a comparison", name)
	}
	m.byName[name] = &AssertStatement{Statement{Name: name, Bindings: bindings, Tree: tree, Line: line}}
	m.order = append(m.order, name)
	return nil
}

// Failure reports one failing assertion site.
type Failure struct {
	Name    string
	Binding map[string]string // index name -> element label
}

// CheckAll evaluates every assertion at every site in its domain.
// Failures are collected and returned alongside a nil error (assertion
// failure is the only non-abort error category); a genuine evaluation
// error still aborts.
func (m *AssertManager) CheckAll(res expr.Resolver, vals expr.Values, elementOf func(set string, idx int) string) ([]Failure, error) {
	var fails []Failure
	for _, name := range m.order {
		st := m.byName[name]
		sites, err := st.Sites(res)
		if err != nil {
			return nil, err
		}
		out, err := st.Tree.Eval(res, vals, st.Bindings, sites)
		if err != nil {
			return nil, err
		}
		for i, v := range out {
			if v != 0 {
				continue
			}
			binding := map[string]string{}
			for k, b := range st.Bindings {
				binding[b.Name] = elementOf(b.Set, sites[i][k])
			}
			fails = append(fails, Failure{Name: name, Binding: binding})
		}
	}
	return fails, nil
}

// Modifier flags recognised on formula/update statements.
type Modifier struct {
	Initial bool
}

// WriteStatement is a formula or update: it carries a left-hand-side
// variable reference (name plus ordered argument indices, permutation of
// the defined indices, duplicates and literal elements allowed) in
// addition to the shared Statement shape.
type WriteStatement struct {
	Statement
	LHSName string
	LHSArgs []expr.IndexArg
	Mods    Modifier
}

// FormulaManager owns the ordered formula collection, including
// loop-formula expansion.
type FormulaManager struct {
	byName map[string]*WriteStatement
	order  []string // ordered list of names to evaluate each pass; loop-formulas append repeats
}

// NewFormulaManager returns an empty formula manager.
func NewFormulaManager() *FormulaManager {
	return &FormulaManager{byName: map[string]*WriteStatement{}}
}

// Add declares a new formula.
func (m *FormulaManager) Add(ws *WriteStatement) error {
	if _, ok := m.byName[ws.Name]; ok {
		return cgerr.At(cgerr.Consistency, ws.Name, ws.Line, "formula %q already declared", ws.Name)
	}
	m.byName[ws.Name] = ws
	m.order = append(m.order, ws.Name)
	return nil
}

// LoopFormulas expands a loopformulas declaration: names must already be
// declared formulas; each is appended n-1 additional times, preserving
// relative order, so the manager re-evaluates them on repeat.
func (m *FormulaManager) LoopFormulas(names []string, n int, line int) error {
	for _, nm := range names {
		if _, ok := m.byName[nm]; !ok {
			return cgerr.At(cgerr.Consistency, nm, line, "loopformulas: formula %q not declared", nm)
		}
	}
	if n < 1 {
		return cgerr.At(cgerr.Consistency, "loopformulas", line, "repeat count must be >= 1, got %d", n)
	}
	for i := 1; i < n; i++ {
		m.order = append(m.order, names...)
	}
	return nil
}

// Run evaluates formulas in order, scattering each RHS vector into the
// data vector at the LHS offsets. includeInitial selects whether
// `initial`-modified formulas run (true only at substep 0 of a step).
func (m *FormulaManager) Run(res expr.Resolver, data []float64, includeInitial bool, lhsIndices func(name string, args []expr.IndexArg, bindings expr.Bindings, sites [][]int) ([]int, error)) error {
	for _, name := range m.order {
		ws := m.byName[name]
		if ws.Mods.Initial && !includeInitial {
			continue
		}
		sites, err := ws.Sites(res)
		if err != nil {
			return err
		}
		vals := expr.Values{Data: data}
		rhs, err := ws.Tree.Eval(res, vals, ws.Bindings, sites)
		if err != nil {
			return err
		}
		offs, err := lhsIndices(ws.LHSName, ws.LHSArgs, ws.Bindings, sites)
		if err != nil {
			return err
		}
		for i, off := range offs {
			data[off] = rhs[i]
		}
	}
	return nil
}

// UpdateManager owns the update collection; shape identical to formulas,
// but evaluation happens post-solve and may read the freshly computed
// solution vector.
type UpdateManager struct {
	FormulaManager
}

// NewUpdateManager returns an empty update manager.
func NewUpdateManager() *UpdateManager { return &UpdateManager{FormulaManager{byName: map[string]*WriteStatement{}}} }

// Run evaluates updates against data and the current solution vector.
func (m *UpdateManager) Run(res expr.Resolver, data, sol []float64, lhsIndices func(name string, args []expr.IndexArg, bindings expr.Bindings, sites [][]int) ([]int, error)) error {
	for _, name := range m.order {
		ws := m.byName[name]
		sites, err := ws.Sites(res)
		if err != nil {
			return err
		}
		vals := expr.Values{Data: data, Sol: sol}
		rhs, err := ws.Tree.Eval(res, vals, ws.Bindings, sites)
		if err != nil {
			return err
		}
		offs, err := lhsIndices(ws.LHSName, ws.LHSArgs, ws.Bindings, sites)
		if err != nil {
			return err
		}
		for i, off := range offs {
			data[off] = rhs[i]
		}
	}
	return nil
}

// Equation is an equation statement: it is assigned a contiguous block of
// row offsets matching the product of its set cardinalities.
type Equation struct {
	Statement
	RowOffset int
	RowCount  int
}

// EquationManager owns the ordered equation collection and assigns row
// ranges.
type EquationManager struct {
	byName    map[string]*Equation
	order     []string
	totalRows int
}

// NewEquationManager returns an empty equation manager.
func NewEquationManager() *EquationManager {
	return &EquationManager{byName: map[string]*Equation{}}
}

// Add declares a new equation (tree already rewritten as lhs - rhs) and
// assigns it the next contiguous row block.
func (m *EquationManager) Add(name string, bindings expr.Bindings, tree *expr.Node, line int, res expr.Resolver) error {
	if _, ok := m.byName[name]; ok {
		return cgerr.At(cgerr.Consistency, name, line, "equation %q already declared", name)
	}
	count := 1
	for _, b := range bindings {
		sz, err := res.SetSize(b.Set)
		if err != nil {
			return err
		}
		count *= sz
	}
	eq := &Equation{Statement: Statement{Name: name, Bindings: bindings, Tree: tree, Line: line}, RowOffset: m.totalRows, RowCount: count}
	m.byName[name] = eq
	m.order = append(m.order, name)
	m.totalRows += count
	return nil
}

// TotalRows returns the total number of equation rows across all
// declared equations.
func (m *EquationManager) TotalRows() int { return m.totalRows }

// Names returns the declaration-ordered equation names.
func (m *EquationManager) Names() []string { return m.order }

// Get returns the named equation.
func (m *EquationManager) Get(name string) (*Equation, error) {
	eq, ok := m.byName[name]
	if !ok {
		return nil, cgerr.New(cgerr.Consistency, "equation %q not declared", name)
	}
	return eq, nil
}

// RowContribution is one row's (column offset, coefficient fragment)
// pair. Coeff may still reference ambient bound indices (e.g. a
// data-variable coefficient "a_i" carried through differentiation
// unevaluated), so Bindings/Site are kept alongside it for evaluation.
type RowContribution struct {
	Row      int
	Offset   int
	Coeff    *expr.Node
	Bindings expr.Bindings
	Site     []int
}

// DiffAll walks every row's site and differentiates the equation's tree
// (already lhs - rhs), returning each row's list of (offset, coefficient
// fragment) pairs.
func (m *EquationManager) DiffAll(res expr.Resolver, vals expr.Values) ([]RowContribution, error) {
	var out []RowContribution
	for _, name := range m.order {
		eq := m.byName[name]
		sites, err := eq.Sites(res)
		if err != nil {
			return nil, err
		}
		for i, site := range sites {
			contribs, err := eq.Tree.Differentiate(res, vals, eq.Bindings, site)
			if err != nil {
				return nil, err
			}
			row := eq.RowOffset + i
			for _, c := range contribs {
				if c.Offset == expr.NoOffset {
					continue // constant term; the driver moves it to the row's RHS by evaluating the lhs-rhs tree with solution variables at zero, never into A
				}
				out = append(out, RowContribution{Row: row, Offset: c.Offset, Coeff: c.Coeff, Bindings: eq.Bindings, Site: site})
			}
		}
	}
	return out, nil
}
