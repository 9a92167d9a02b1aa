// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package closure

import (
	"testing"

	"github.com/PaddySchmidt/cgesolve/sets"
	"github.com/PaddySchmidt/cgesolve/variables"
	"github.com/cpmech/gosl/chk"
)

func Test_closure01(tst *testing.T) {

	chk.PrintTitle("closure01")

	c := sets.NewCatalog()
	if err := c.New("I", []string{"i1", "i2", "i3"}); err != nil {
		tst.Fatalf("set: %v", err)
	}
	sol := variables.NewSolCatalog(c)
	if err := sol.Add("x", nil, true, false); err != nil {
		tst.Fatalf("solvar: %v", err)
	}
	if err := sol.Add("y", []string{"I"}, false, false); err != nil {
		tst.Fatalf("solvar: %v", err)
	}

	cl, err := ParseLines(c, sol, []string{
		"add x",
		`add y_"i2"`,
		"shock x 5.0",
		`shock y_"i2" 10.0`,
	})
	if err != nil {
		tst.Fatalf("parse: %v", err)
	}
	chk.IntAssert(cl.Len(), 2)

	xOff, _ := sol.Offset("x")
	entries := cl.Entries()
	chk.IntAssert(entries[0].Offset, xOff)
	if !entries[0].IsChange {
		tst.Fatalf("x should be tagged change")
	}
	chk.Scalar(tst, "x shock", 1e-15, entries[0].Shock, 5.0)

	yOff, _ := sol.Offset("y")
	i2, err := c.ElementIndex("I", "i2")
	if err != nil {
		tst.Fatalf("element index: %v", err)
	}
	chk.IntAssert(entries[1].Offset, yOff+i2)
	chk.Scalar(tst, "y_i2 shock", 1e-15, entries[1].Shock, 10.0)
}

func Test_closure02(tst *testing.T) {

	chk.PrintTitle("closure02 — repeated add warns, remove/shock of absent offset fails")

	c := sets.NewCatalog()
	sol := variables.NewSolCatalog(c)
	if err := sol.Add("x", nil, true, false); err != nil {
		tst.Fatalf("solvar: %v", err)
	}

	cl, err := ParseLines(c, sol, []string{"add x", "add x"})
	if err != nil {
		tst.Fatalf("repeated add should only warn: %v", err)
	}
	chk.IntAssert(cl.Len(), 1)

	if _, err := ParseLines(c, sol, []string{"remove x"}); err == nil {
		tst.Fatalf("expected error removing an absent offset")
	}
	if _, err := ParseLines(c, sol, []string{"shock x 1.0"}); err == nil {
		tst.Fatalf("expected error shocking an absent offset")
	}
}
