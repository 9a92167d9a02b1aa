// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"testing"

	"github.com/PaddySchmidt/cgesolve/closure"
	"github.com/PaddySchmidt/cgesolve/model"
	"github.com/cpmech/gosl/chk"
)

func mustParse(tst *testing.T, text string) *model.Model {
	m := model.New()
	p := model.NewParser(m, nil)
	if err := p.ParseText(text); err != nil {
		tst.Fatalf("parse: %v", err)
	}
	return m
}

// Test_driver01 is scenario S1 — scalar identity. A closure-only
// variable (x, no governing equation — its value comes solely from
// the closure's identity row) sits alongside an equation-governed one
// (z, tied to the fixed datavar a) so the assembled system is square:
// a variable with its own equation is never also placed in closure,
// since that would claim two independent rows for one column.
func Test_driver01(tst *testing.T) {

	chk.PrintTitle("driver01")

	m := mustParse(tst, `
		datavar fixed a ;
		solvar x ;
		solvar z ;
		equation e1 : : z = a ;
	`)

	data := make([]float64, m.Data.Length())
	off, err := m.Data.Offset("a")
	if err != nil {
		tst.Fatalf("offset: %v", err)
	}
	data[off] = 2.0

	c, err := closure.ParseLines(m.Sets, m.Sol, []string{"add x", "shock x 5.0"})
	if err != nil {
		tst.Fatalf("closure: %v", err)
	}

	d := New(m, Config{Steps: 1, Substeps: 1, Solve: true}, data)
	result, err := d.RunPass([]*closure.Closure{c}, nil)
	if err != nil {
		tst.Fatalf("run: %v", err)
	}

	xOff, _ := m.Sol.Offset("x")
	zOff, _ := m.Sol.Offset("z")
	x := result.Steps[0].Sol[0][xOff]
	z := result.Steps[0].Sol[0][zOff]
	chk.Scalar(tst, "x", 1e-12, x, 5.0)
	chk.Scalar(tst, "z", 1e-12, z, 2.0)
}

// Test_driver02 is scenario S2 — indexed sum. y is governed by its
// own sum-over-set equation; a second solvar z2 is the one actually
// placed in closure, again keeping equations and closure disjoint so
// the system stays square.
func Test_driver02(tst *testing.T) {

	chk.PrintTitle("driver02")

	m := mustParse(tst, `
		set I = (i1, i2, i3) ;
		datavar w_I ;
		solvar y ;
		solvar z2 ;
		equation e1 : : y = [sum:i=I:w_i] ;
	`)

	data := make([]float64, m.Data.Length())
	wOff, _ := m.Data.Offset("w")
	data[wOff+0] = 1.0
	data[wOff+1] = 2.0
	data[wOff+2] = 3.0

	c, err := closure.ParseLines(m.Sets, m.Sol, []string{"add z2", "shock z2 0"})
	if err != nil {
		tst.Fatalf("closure: %v", err)
	}

	d := New(m, Config{Steps: 1, Substeps: 1, Solve: true}, data)
	result, err := d.RunPass([]*closure.Closure{c}, nil)
	if err != nil {
		tst.Fatalf("run: %v", err)
	}

	yOff, _ := m.Sol.Offset("y")
	y := result.Steps[0].Sol[0][yOff]
	chk.Scalar(tst, "y", 1e-10, y, 6.0)
}

// Test_driver03 is scenario S3 — percent-change composition over
// multiple substeps. Both solvars are closure-only (no equations), so
// the whole step's assembled system is just the two identity rows —
// what is under test here is substep aggregation, not differentiation.
func Test_driver03(tst *testing.T) {

	chk.PrintTitle("driver03")

	m := mustParse(tst, `
		solvar [change] c ;
		solvar p ;
	`)

	data := make([]float64, m.Data.Length())

	const substeps = 4
	lines := []string{"add c", "add p", "shock c 10", "shock p 10"}
	c, err := closure.ParseLines(m.Sets, m.Sol, lines)
	if err != nil {
		tst.Fatalf("closure: %v", err)
	}

	d := New(m, Config{Steps: 1, Substeps: substeps, Solve: true}, data)
	result, err := d.RunPass([]*closure.Closure{c}, nil)
	if err != nil {
		tst.Fatalf("run: %v", err)
	}

	cOff, _ := m.Sol.Offset("c")
	pOff, _ := m.Sol.Offset("p")

	var cTotal float64
	pTotal := 1.0
	for ss := 0; ss < substeps; ss++ {
		cTotal += result.Steps[0].Sol[ss][cOff]
		pTotal *= 1 + result.Steps[0].Sol[ss][pOff]/100
	}
	pTotal = pTotal*100 - 100

	chk.Scalar(tst, "c composed", 1e-10, cTotal, 10.0)
	chk.Scalar(tst, "p composed", 1e-8, pTotal, 10.0)
}

// Test_driver04 is scenario S6 — shape mismatch: closure entries exceed
// equation rows, so no solve is attempted and the shape error names the
// exact excess.
func Test_driver04(tst *testing.T) {

	chk.PrintTitle("driver04")

	m := mustParse(tst, `
		solvar x ;
		solvar y ;
		solvar z ;
		equation e1 : : x = 0 ;
	`)

	data := make([]float64, m.Data.Length())
	c, err := closure.ParseLines(m.Sets, m.Sol, []string{"add x", "shock x 1", "add y", "shock y 1", "add z", "shock z 1"})
	if err != nil {
		tst.Fatalf("closure: %v", err)
	}

	d := New(m, Config{Steps: 1, Substeps: 1, Solve: true}, data)
	_, err = d.RunPass([]*closure.Closure{c}, nil)
	if err == nil {
		tst.Fatalf("expected shape error, got nil")
	}
}
