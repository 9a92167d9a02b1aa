// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package driver runs the base and policy simulation passes: for each
// step and substep it evaluates formulas, differentiates the equation
// system at the current data vector, assembles and solves the sparse
// Jacobian plus closure rows, then runs updates and assertions. It
// mirrors the outer Newton loop in the teacher repo's s_implicit.go,
// generalised from one finite-element residual to the equation system
// built by package statements.
package driver

import (
	"math"
	"sort"

	"github.com/PaddySchmidt/cgesolve/cgerr"
	"github.com/PaddySchmidt/cgesolve/closure"
	"github.com/PaddySchmidt/cgesolve/expr"
	"github.com/PaddySchmidt/cgesolve/model"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
)

// Config is the subset of driver-wide settings the solve loop reads
// directly; cmd/cgesolve copies these fields over from config.Config.
type Config struct {
	Steps       int
	Substeps    int
	Solve       bool // if false, run formulas/assertions only, skip differentiation and linear solve
	DoIterative bool
	Condense    bool   // apply trivial-row condensation before the main solve
	LinSolName  string // passed to la.GetSolver; "" selects "umfpack", or "mumps" when DoIterative is set
}

// StepRecord is one step's archived data and solution snapshots, one
// entry per substep, kept so the policy pass can read the base pass's
// archived solution as its base_value.
type StepRecord struct {
	Data [][]float64 // per-substep data-vector snapshot taken before the solve
	Sol  [][]float64 // per-substep solution vector, nil for substeps where Solve was false
}

// PassResult is one pass's (base or policy) full step/substep history.
type PassResult struct {
	Steps []StepRecord
}

// Driver runs passes against one parsed model and its loaded initial
// data vector.
type Driver struct {
	M    *model.Model
	Cfg  Config
	data []float64
}

// New returns a driver bound to m, with the given initial data vector
// (typically the result of variables.DataCatalog.LoadFromTables).
func New(m *model.Model, cfg Config, initialData []float64) *Driver {
	if cfg.LinSolName == "" {
		// gosl/la registers exactly two sparse direct solvers; there is no
		// third, genuinely iterative, option behind this interface, so
		// doiterative selects between them rather than switching algorithm
		// family.
		if cfg.DoIterative {
			cfg.LinSolName = "mumps"
		} else {
			cfg.LinSolName = "umfpack"
		}
	}
	d := &Driver{M: m, Cfg: cfg, data: make([]float64, len(initialData))}
	copy(d.data, initialData)
	return d
}

// Data returns the live data vector.
func (d *Driver) Data() []float64 { return d.data }

// ResetData restores the live data vector to initialData, used between
// the base and policy passes.
func (d *Driver) ResetData(initialData []float64) { copy(d.data, initialData) }

// RunPass executes every step and substep for one pass. closures must
// have exactly Cfg.Steps entries, one per step, in order. basePass is
// the already-computed base pass's result (nil for the base pass
// itself); its archived solution supplies base_value for the
// change/percent-change closure RHS during the policy pass.
func (d *Driver) RunPass(closures []*closure.Closure, basePass *PassResult) (*PassResult, error) {
	if len(closures) != d.Cfg.Steps {
		return nil, cgerr.New(cgerr.Consistency, "driver: %d closure files given for %d configured steps", len(closures), d.Cfg.Steps)
	}
	result := &PassResult{Steps: make([]StepRecord, d.Cfg.Steps)}
	for s := 0; s < d.Cfg.Steps; s++ {
		stepData := make([][]float64, d.Cfg.Substeps)
		stepSol := make([][]float64, d.Cfg.Substeps)
		for ss := 0; ss < d.Cfg.Substeps; ss++ {
			includeInitial := ss == 0
			if err := d.M.Formulas.Run(d.M, d.data, includeInitial, d.M.LHSIndices); err != nil {
				return nil, err
			}
			if err := d.checkAssertions(); err != nil {
				return nil, err
			}

			snapshot := make([]float64, len(d.data))
			copy(snapshot, d.data)
			stepData[ss] = snapshot

			if !d.Cfg.Solve {
				continue
			}

			var baseSol []float64
			if basePass != nil {
				baseSol = basePass.Steps[s].Sol[ss]
			}
			x, err := d.solveOne(closures[s], ss, baseSol)
			if err != nil {
				return nil, err
			}
			stepSol[ss] = x

			if err := d.M.Updates.Run(d.M, d.data, x, d.M.LHSIndices); err != nil {
				return nil, err
			}
			if err := d.checkAssertions(); err != nil {
				return nil, err
			}
		}
		result.Steps[s] = StepRecord{Data: stepData, Sol: stepSol}
	}
	return result, nil
}

// checkAssertions runs every assertion and logs (never aborts on) each
// failure, the only non-abort error category.
func (d *Driver) checkAssertions() error {
	fails, err := d.M.Asserts.CheckAll(d.M, expr.Values{Data: d.data}, d.M.ElementOf)
	if err != nil {
		return err
	}
	for _, f := range fails {
		io.Pfyel("warning: assertion %q failed at %v\n", f.Name, f.Binding)
	}
	return nil
}

// cell is one (row, column, value) entry during Jacobian assembly,
// before it is either condensed away or handed to the Triplet.
type cell struct {
	row, col int
	val      float64
}

// solveOne differentiates the equation system at the current data
// vector, assembles the sparse Jacobian plus closure identity rows,
// optionally condenses trivial rows to a fixed point, solves, and logs
// the residual.
func (d *Driver) solveOne(c *closure.Closure, ss int, baseSol []float64) ([]float64, error) {
	n := d.M.Sol.Length()
	nEq := d.M.Equations.TotalRows()
	nClosure := c.Len()
	if nEq+nClosure != n {
		diff := n - (nEq + nClosure)
		if diff > 0 {
			return nil, cgerr.New(cgerr.Shape, "driver: %d too few exogenous variables (have %d equations + %d closure rows, need %d)", diff, nEq, nClosure, n)
		}
		return nil, cgerr.New(cgerr.Shape, "driver: %d too many exogenous variables (have %d equations + %d closure rows, need %d)", -diff, nEq, nClosure, n)
	}

	contribs, err := d.M.Equations.DiffAll(d.M, expr.Values{Data: d.data})
	if err != nil {
		return nil, err
	}

	cells := make([]cell, 0, len(contribs)+nClosure)
	b := make([]float64, n)
	for _, c1 := range contribs {
		v, err := c1.Coeff.Eval(d.M, expr.Values{Data: d.data}, c1.Bindings, [][]int{c1.Site})
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell{row: c1.Row, col: c1.Offset, val: v[0]})
	}
	zeroSol := make([]float64, n) // each equation row's solution-free terms move to the RHS
	for _, name := range d.M.Equations.Names() {
		eq, _ := d.M.Equations.Get(name)
		sites, err := eq.Sites(d.M)
		if err != nil {
			return nil, err
		}
		v, err := eq.Tree.Eval(d.M, expr.Values{Data: d.data, Sol: zeroSol}, eq.Bindings, sites)
		if err != nil {
			return nil, err
		}
		for i := range v {
			b[eq.RowOffset+i] = -v[i]
		}
	}
	entries := c.Entries()
	for k, e := range entries {
		row := nEq + k
		cells = append(cells, cell{row: row, col: e.Offset, val: 1})
		var base float64
		if baseSol != nil {
			base = baseSol[e.Offset]
		}
		if e.IsChange {
			b[row] = base + e.Shock/float64(d.Cfg.Substeps)
		} else {
			b[row] = ((1+base/100)*math.Pow(1+e.Shock/100, 1/float64(d.Cfg.Substeps)))*100 - 100
		}
	}

	knownX := make([]float64, n)
	resolved := make([]bool, n)
	activeRow := make([]bool, n)
	for i := range activeRow {
		activeRow[i] = true
	}

	if d.Cfg.Condense {
		cells, b = condense(cells, b, n, knownX, resolved, activeRow)
	}

	nActive := 0
	rowIndex := make([]int, n)
	for i := range rowIndex {
		rowIndex[i] = -1
	}
	colIndex := make([]int, n)
	for i := range colIndex {
		colIndex[i] = -1
	}
	for i := 0; i < n; i++ {
		if activeRow[i] {
			rowIndex[i] = nActive
			nActive++
		}
	}
	nActiveCol := 0
	for i := 0; i < n; i++ {
		if !resolved[i] {
			colIndex[i] = nActiveCol
			nActiveCol++
		}
	}
	if nActive != nActiveCol {
		return nil, cgerr.New(cgerr.Shape, "driver: condensation left %d active rows but %d active columns", nActive, nActiveCol)
	}

	Kb := new(la.Triplet)
	Kb.Init(nActive, nActive, len(cells))
	Kb.Start()
	for _, c1 := range cells {
		Kb.Put(rowIndex[c1.row], colIndex[c1.col], c1.val)
	}
	bActive := make([]float64, nActive)
	for i := 0; i < n; i++ {
		if activeRow[i] {
			bActive[rowIndex[i]] = b[i]
		}
	}

	solver := la.GetSolver(d.Cfg.LinSolName)
	if err := solver.InitR(Kb, false, false, false); err != nil {
		dup := duplicateRows(cells)
		io.Pfred("warning escalated: linear solver init: %v\n", err)
		return nil, cgerr.New(cgerr.SolverWarning, "driver: linear solver init failed: %v; duplicate rows: %v", err, dup)
	}
	if err := solver.Fact(); err != nil {
		dup := duplicateRows(cells)
		io.Pfred("warning escalated: factorisation: %v\n", err)
		return nil, cgerr.New(cgerr.SolverWarning, "driver: factorisation failed: %v; duplicate rows: %v", err, dup)
	}

	xActive := make([]float64, nActive)
	if err := solver.SolveR(xActive, bActive, false); err != nil {
		dup := duplicateRows(cells)
		io.Pfred("warning escalated: solve: %v\n", err)
		return nil, cgerr.New(cgerr.SolverWarning, "driver: solve failed: %v; duplicate rows: %v", err, dup)
	}

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		if resolved[i] {
			x[i] = knownX[i]
		} else {
			x[i] = xActive[colIndex[i]]
		}
	}

	Am := Kb.ToMatrix(nil)
	res := make([]float64, nActive)
	la.SpMatVecMulAdd(res, 1, Am, xActive)
	for i := range res {
		res[i] -= bActive[i]
	}
	resNorm := la.VecNorm(res)
	io.Pf("substep %d residual = %23.15e\n", ss, resNorm)

	return x, nil
}

// condense repeatedly removes rows with exactly one nonzero entry,
// fixing the corresponding solution offset directly and eliminating
// that column from every other row, until no trivial row remains —
// eliminating one row can turn another trivial once its last remaining
// column is resolved, so a single pass is not enough.
func condense(cells []cell, b []float64, n int, knownX []float64, resolved, activeRow []bool) ([]cell, []float64) {
	rows := make(map[int]map[int]float64, n)
	for _, c1 := range cells {
		if rows[c1.row] == nil {
			rows[c1.row] = map[int]float64{}
		}
		rows[c1.row][c1.col] += c1.val
	}
	for {
		trivialRow, trivialCol := -1, -1
		for r, cols := range rows {
			if len(cols) == 1 {
				for col := range cols {
					trivialRow, trivialCol = r, col
				}
				break
			}
		}
		if trivialRow < 0 {
			break
		}
		val := rows[trivialRow][trivialCol]
		x := b[trivialRow] / val
		knownX[trivialCol] = x
		resolved[trivialCol] = true
		activeRow[trivialRow] = false
		delete(rows, trivialRow)
		for r, cols := range rows {
			if coeff, ok := cols[trivialCol]; ok {
				b[r] -= coeff * x
				delete(cols, trivialCol)
				if len(cols) == 0 {
					delete(rows, r)
					activeRow[r] = false
				}
			}
		}
	}
	out := make([]cell, 0, len(cells))
	for r, cols := range rows {
		for col, val := range cols {
			out = append(out, cell{row: r, col: col, val: val})
		}
	}
	return out, b
}

// duplicateRows hashes each row's sorted (col, value) pairs and reports
// the rows sharing an identical hash, the diagnostic attached to an
// escalated solver warning.
func duplicateRows(cells []cell) []int {
	rows := make(map[int]map[int]float64)
	for _, c1 := range cells {
		if rows[c1.row] == nil {
			rows[c1.row] = map[int]float64{}
		}
		rows[c1.row][c1.col] = c1.val
	}
	byHash := map[string][]int{}
	for row, cols := range rows {
		byHash[hashRow(cols)] = append(byHash[hashRow(cols)], row)
	}
	var dups []int
	for _, rs := range byHash {
		if len(rs) > 1 {
			dups = append(dups, rs...)
		}
	}
	sort.Ints(dups)
	return dups
}

func hashRow(cols map[int]float64) string {
	keys := make([]int, 0, len(cols))
	for c := range cols {
		keys = append(keys, c)
	}
	sort.Ints(keys)
	s := ""
	for _, k := range keys {
		s += io.Sf("%d:%.15e|", k, cols[k])
	}
	return s
}
