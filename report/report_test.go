// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"testing"

	"github.com/PaddySchmidt/cgesolve/closure"
	"github.com/PaddySchmidt/cgesolve/driver"
	"github.com/PaddySchmidt/cgesolve/model"
	"github.com/cpmech/gosl/chk"
)

func Test_report01(tst *testing.T) {

	chk.PrintTitle("report01")

	m := model.New()
	p := model.NewParser(m, nil)
	err := p.ParseText(`
		solvar [change] c ;
	`)
	if err != nil {
		tst.Fatalf("parse: %v", err)
	}

	data := make([]float64, m.Data.Length())
	c, err := closure.ParseLines(m.Sets, m.Sol, []string{"add c", "shock c 12"})
	if err != nil {
		tst.Fatalf("closure: %v", err)
	}

	d := driver.New(m, driver.Config{Steps: 1, Substeps: 3, Solve: true}, data)
	result, err := d.RunPass([]*closure.Closure{c}, nil)
	if err != nil {
		tst.Fatalf("run: %v", err)
	}

	r := New(m, nil)
	rows := r.LongFormat(result, nil)
	if len(rows) != 1 {
		tst.Fatalf("expected 1 row, got %d", len(rows))
	}
	chk.Scalar(tst, "c step0", 1e-10, rows[0].Values[0], 12.0)
	if rows[0].Pass != "" {
		tst.Fatalf("expected empty Pass label for single-pass report, got %q", rows[0].Pass)
	}
}

func Test_report02(tst *testing.T) {

	chk.PrintTitle("report02 — unknown reportingvars name warns, not fatal")

	m := model.New()
	p := model.NewParser(m, nil)
	if err := p.ParseText(`solvar x ; equation e1 : : x = 0 ;`); err != nil {
		tst.Fatalf("parse: %v", err)
	}
	r := New(m, []string{"x", "bogus"})
	if !r.allowed("x") {
		tst.Fatalf("x should be allowed")
	}
	if r.allowed("bogus") {
		tst.Fatalf("bogus should not be allowed")
	}
}
