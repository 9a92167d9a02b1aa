// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"testing"

	"github.com/PaddySchmidt/cgesolve/expr"
	"github.com/cpmech/gosl/chk"
)

// Test_parser01 is scenario S1's model file: a fixed scalar data
// variable, a solution variable, and an equation binding them.
func Test_parser01(tst *testing.T) {

	chk.PrintTitle("parser01 — scalar identity model")

	m := New()
	p := NewParser(m, nil)
	err := p.ParseText(`
		# scalar identity
		datavar fixed a ;
		solvar x ;
		equation e1 : : x = a ;
	`)
	if err != nil {
		tst.Fatalf("parse: %v", err)
	}
	if !m.Data.Has("a") || !m.Data.IsFixed("a") {
		tst.Fatalf("a should be declared fixed")
	}
	if !m.Sol.Has("x") {
		tst.Fatalf("x should be declared")
	}
	eq, err := m.Equations.Get("e1")
	if err != nil {
		tst.Fatalf("equation: %v", err)
	}
	chk.IntAssert(eq.RowCount, 1)
}

// Test_parser02 is scenario S2's model file: a declared set, an indexed
// data variable, and a sum-over-set equation.
func Test_parser02(tst *testing.T) {

	chk.PrintTitle("parser02 — indexed sum model")

	m := New()
	p := NewParser(m, nil)
	err := p.ParseText(`
		set I = (i1, i2, i3) ;
		datavar w_I ;
		solvar y ;
		equation e1 : : y = [sum:i=I:w_i] ;
	`)
	if err != nil {
		tst.Fatalf("parse: %v", err)
	}
	sz, err := m.Data.Size("w")
	if err != nil {
		tst.Fatalf("size: %v", err)
	}
	chk.IntAssert(sz, 3)
}

// Test_parser03 is scenario S4's model file: a subset mapping plus a
// formula copying values across it.
func Test_parser03(tst *testing.T) {

	chk.PrintTitle("parser03 — subset mapping formula")

	m := New()
	p := NewParser(m, nil)
	err := p.ParseText(`
		set A = (a, b, c, d) ;
		set B = (b, d) ;
		subset B of A ;
		datavar x_A ;
		datavar y_B ;
		formula f1 : idx=B : y_idx = x_idx ;
	`)
	if err != nil {
		tst.Fatalf("parse: %v", err)
	}

	data := make([]float64, m.Data.Length())
	xOff, _ := m.Data.Offset("x")
	data[xOff+0] = 10
	data[xOff+1] = 20
	data[xOff+2] = 30
	data[xOff+3] = 40

	if err := m.Formulas.Run(m, data, true, m.LHSIndices); err != nil {
		tst.Fatalf("run formula: %v", err)
	}

	yOff, _ := m.Data.Offset("y")
	chk.Scalar(tst, "y_b", 1e-15, data[yOff+0], 20)
	chk.Scalar(tst, "y_d", 1e-15, data[yOff+1], 40)
}

// Test_parser04 checks assertion-statement parsing and a comparison
// expression evaluates correctly.
func Test_parser04(tst *testing.T) {

	chk.PrintTitle("parser04 — assertion parsing")

	m := New()
	p := NewParser(m, nil)
	err := p.ParseText(`
		set I = (i1, i2, i3) ;
		datavar p_I ;
		assert nonneg : i=I : p_i >= 0 ;
	`)
	if err != nil {
		tst.Fatalf("parse: %v", err)
	}

	data := make([]float64, m.Data.Length())
	pOff, _ := m.Data.Offset("p")
	data[pOff+0] = 1
	data[pOff+1] = -1
	data[pOff+2] = 2

	fails, err := m.Asserts.CheckAll(m, expr.Values{Data: data}, m.ElementOf)
	if err != nil {
		tst.Fatalf("check: %v", err)
	}
	chk.IntAssert(len(fails), 1)
	if fails[0].Binding["i"] != "i2" {
		tst.Fatalf("expected failure at i2, got %v", fails[0].Binding)
	}
}
