// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sets

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_set01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("set01. basic declaration and lookup")

	c := NewCatalog()
	if err := c.New("I", []string{"i1", "i2", "i3"}); err != nil {
		tst.Errorf("New failed: %v", err)
		return
	}
	s, err := c.Get("I")
	if err != nil {
		tst.Errorf("Get failed: %v", err)
		return
	}
	if s.Len() != 3 {
		tst.Errorf("expected length 3, got %d", s.Len())
	}
	if err := c.New("I", []string{"x"}); err == nil {
		tst.Errorf("expected duplicate-name error")
	}
	if err := c.New("J", []string{"a", "a"}); err == nil {
		tst.Errorf("expected duplicate-element error")
	}
}

func Test_set02(tst *testing.T) {

	chk.PrintTitle("set02. subset mapping and transitive closure")

	c := NewCatalog()
	c.New("A", []string{"a", "b", "c", "d"})
	c.New("B", []string{"b", "d"})
	c.New("C", []string{"d"})

	if err := c.SubsetOf("B", "A"); err != nil {
		tst.Errorf("SubsetOf(B,A) failed: %v", err)
		return
	}
	if err := c.SubsetOf("C", "B"); err != nil {
		tst.Errorf("SubsetOf(C,B) failed: %v", err)
		return
	}

	mpAB, ok := c.Mapping("A", "B")
	if !ok || len(mpAB) != 2 || mpAB[0] != 1 || mpAB[1] != 3 {
		tst.Errorf("unexpected mapping(A,B): %v", mpAB)
	}

	mpBC, ok := c.Mapping("B", "C")
	if !ok || len(mpBC) != 1 || mpBC[0] != 1 {
		tst.Errorf("unexpected mapping(B,C): %v", mpBC)
	}

	mpAC, ok := c.Mapping("A", "C")
	if !ok || len(mpAC) != 1 || mpAC[0] != 3 {
		tst.Errorf("transitive closure mapping(A,C) wrong: %v", mpAC)
	}

	// a second set with the same elements as B is also accepted as a subset of A
	c.New("E", []string{"z"})
	c.New("Bp", []string{"b", "d"})
	if err := c.SubsetOf("Bp", "A"); err != nil {
		tst.Errorf("unexpected error: %v", err)
	}
}

func Test_set03(tst *testing.T) {

	chk.PrintTitle("set03. union, difference, cross")

	c := NewCatalog()
	c.New("A", []string{"a1", "a2"})
	c.New("B", []string{"b1", "b2"})
	if err := c.Union([]string{"A", "B"}, "U"); err != nil {
		tst.Errorf("union failed: %v", err)
		return
	}
	u, _ := c.Get("U")
	if u.Len() != 4 {
		tst.Errorf("expected union length 4, got %d", u.Len())
	}
	if _, ok := c.Mapping("U", "A"); !ok {
		tst.Errorf("union should record A as subset of U")
	}

	if err := c.Difference("U", "A", "D"); err != nil {
		tst.Errorf("difference failed: %v", err)
		return
	}
	d, _ := c.Get("D")
	if d.Len() != 2 || d.Elements[0] != "b1" {
		tst.Errorf("unexpected difference result: %v", d.Elements)
	}

	if err := c.Cross("A", "B", "X"); err != nil {
		tst.Errorf("cross failed: %v", err)
		return
	}
	x, _ := c.Get("X")
	if x.Len() != 4 || x.Elements[0] != "a1_b1" {
		tst.Errorf("unexpected cross result: %v", x.Elements)
	}

	// overlapping union must fail
	c.New("C", []string{"a1", "c1"})
	if err := c.Union([]string{"A", "C"}, "Bad"); err == nil {
		tst.Errorf("expected disjoint-union error")
	}
}
