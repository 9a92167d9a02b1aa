// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report aggregates a driver pass's per-substep solution history
// into per-step deltas and renders them long- or wide-format, mirroring
// the column-oriented reporting form variables.FullNamesByColumn already
// expands variable names into.
package report

import (
	"github.com/PaddySchmidt/cgesolve/driver"
	"github.com/PaddySchmidt/cgesolve/model"
	"github.com/cpmech/gosl/io"
)

// Row is one long-format report row: the variable's expanded name
// ([name, elt1, elt2, ...]), an optional pass label, and one value per
// step (S0, S1, ...).
type Row struct {
	Name   []string
	Pass   string // "" when only one pass is reported
	Values []float64
}

// WideTable is one wide-format table: one variable's index-set columns
// plus a Value column, one row per flattened index tuple.
type WideTable struct {
	Variable string
	Columns  []string // index set names, in declaration order
	Rows     [][]string
	Values   []float64
}

// Reporter aggregates and renders solution/data history against one
// model's catalogs.
type Reporter struct {
	m             *model.Model
	reportingVars map[string]bool // nil means no filter
}

// New returns a reporter bound to m. If vars is non-empty, only the
// named variables are reported; any name not found in either catalog
// raises a non-fatal warning (via gosl/io) and is otherwise ignored.
func New(m *model.Model, vars []string) *Reporter {
	r := &Reporter{m: m}
	if len(vars) == 0 {
		return r
	}
	r.reportingVars = map[string]bool{}
	for _, v := range vars {
		if !m.VariableDeclared(v) {
			io.Pfyel("warning: reportingvars: %q not declared in either catalog\n", v)
			continue
		}
		r.reportingVars[v] = true
	}
	return r
}

func (r *Reporter) allowed(name string) bool {
	if r.reportingVars == nil {
		return true
	}
	return r.reportingVars[name]
}

// aggregateSolution composes one solution variable's per-substep
// contributions into one per-step delta: additive for change variables,
// multiplicative for percent-change variables.
func aggregateSolution(isChange bool, perSubstep []float64) float64 {
	if isChange {
		var total float64
		for _, v := range perSubstep {
			total += v
		}
		return total
	}
	total := 1.0
	for _, v := range perSubstep {
		total *= 1 + v/100
	}
	return total*100 - 100
}

// LongFormat renders every data and solution variable's per-step series
// as [SVAR/DVAR, S0, S1, ...] rows, with a Pass column populated when
// polPass is non-nil (the model had a policy pass in addition to base).
func (r *Reporter) LongFormat(basePass *driver.PassResult, polPass *driver.PassResult) []Row {
	var rows []Row

	type labelledPass struct {
		result *driver.PassResult
		label  string
	}
	passes := []labelledPass{{basePass, "base"}}
	if polPass != nil {
		passes = append(passes, labelledPass{polPass, "policy"})
	}
	passLabel := func(label string) string {
		if polPass == nil {
			return ""
		}
		return label
	}

	for _, name := range r.m.Sol.Names() {
		if !r.allowed(name) {
			continue
		}
		off, _ := r.m.Sol.Offset(name)
		size, _ := r.m.Sol.Size(name)
		isChange := r.m.Sol.IsChange(name)
		for _, lp := range passes {
			for col := 0; col < size; col++ {
				fullname := r.m.Sol.FullNamesByColumn()[off+col]
				values := make([]float64, len(lp.result.Steps))
				for s, step := range lp.result.Steps {
					perSubstep := make([]float64, len(step.Sol))
					for ss, sol := range step.Sol {
						if sol != nil {
							perSubstep[ss] = sol[off+col]
						}
					}
					values[s] = aggregateSolution(isChange, perSubstep)
				}
				rows = append(rows, Row{Name: fullname, Pass: passLabel(lp.label), Values: values})
			}
		}
	}

	for _, name := range r.m.Data.Names() {
		if !r.allowed(name) {
			continue
		}
		off, _ := r.m.Data.Offset(name)
		size, _ := r.m.Data.Size(name)
		for _, lp := range passes {
			for col := 0; col < size; col++ {
				fullname := r.m.Data.FullNamesByColumn()[off+col]
				values := make([]float64, len(lp.result.Steps))
				for s, step := range lp.result.Steps {
					if len(step.Data) > 0 {
						values[s] = step.Data[len(step.Data)-1][off+col]
					}
				}
				rows = append(rows, Row{Name: fullname, Pass: passLabel(lp.label), Values: values})
			}
		}
	}
	return rows
}

// WideFormat renders one table per reported solution variable: columns
// are its declared index sets plus a Value column (the composed
// per-step delta for the final step).
func (r *Reporter) WideFormat(pass *driver.PassResult) []WideTable {
	var tables []WideTable
	for _, name := range r.m.Sol.Names() {
		if !r.allowed(name) {
			continue
		}
		off, _ := r.m.Sol.Offset(name)
		size, _ := r.m.Sol.Size(name)
		isChange := r.m.Sol.IsChange(name)
		sets := r.m.Sol.Sets(name)
		t := WideTable{Variable: name, Columns: sets}
		last := len(pass.Steps) - 1
		for col := 0; col < size; col++ {
			row := r.m.Sol.FullNamesByColumn()[off+col][1:]
			t.Rows = append(t.Rows, row)
			if last < 0 {
				t.Values = append(t.Values, 0)
				continue
			}
			step := pass.Steps[last]
			perSubstep := make([]float64, len(step.Sol))
			for ss, sol := range step.Sol {
				if sol != nil {
					perSubstep[ss] = sol[off+col]
				}
			}
			t.Values = append(t.Values, aggregateSolution(isChange, perSubstep))
		}
		tables = append(tables, t)
	}
	return tables
}
