// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

// fakeResolver is a minimal Resolver for exercising Eval/Differentiate
// without the variables/sets packages.
type fakeResolver struct {
	data, sol map[string][]string // name -> declared sets
	setSizes  map[string]int
	setElems  map[string][]string
	dataOff   map[string]int
	solOff    map[string]int
}

func (r *fakeResolver) CatalogOf(name string) string {
	if _, ok := r.data[name]; ok {
		return "data"
	}
	if _, ok := r.sol[name]; ok {
		return "solution"
	}
	return ""
}
func (r *fakeResolver) DeclaredSets(name string) []string {
	if s, ok := r.data[name]; ok {
		return s
	}
	return r.sol[name]
}
func (r *fakeResolver) SetSize(set string) (int, error) { return r.setSizes[set], nil }
func (r *fakeResolver) ElementIndex(set, elt string) (int, error) {
	for i, e := range r.setElems[set] {
		if e == elt {
			return i, nil
		}
	}
	return 0, chk.Err("no such element %q in %q", elt, set)
}
func (r *fakeResolver) Indices(name string, querySets []string, tuples [][]int) ([]int, error) {
	base := r.dataOff[name]
	if base == 0 {
		if o, ok := r.solOff[name]; ok {
			base = o
		}
	}
	declared := r.DeclaredSets(name)
	sizes := make([]int, len(declared))
	for i, s := range declared {
		sizes[i] = r.setSizes[s]
	}
	strides := make([]int, len(declared))
	acc := 1
	for i := len(declared) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= sizes[i]
	}
	out := make([]int, len(tuples))
	for t, tup := range tuples {
		off := base
		for i, v := range tup {
			off += v * strides[i]
		}
		out[t] = off
	}
	return out, nil
}

func Test_expr01(tst *testing.T) {

	chk.PrintTitle("expr01. constant folding: 1*x+0 == x")

	n1, err := Parse("1 * x + 0", nil, "t1", 1)
	if err != nil {
		tst.Errorf("parse failed: %v", err)
		return
	}
	n2, err := Parse("x", nil, "t2", 1)
	if err != nil {
		tst.Errorf("parse failed: %v", err)
		return
	}
	if n1.Kind != KVarRef || n2.Kind != KVarRef || n1.VarName != "x" || n2.VarName != "x" {
		tst.Errorf("expected both to fold to a bare variable reference to x, got %#v and %#v", n1, n2)
	}
}

func Test_expr02(tst *testing.T) {

	chk.PrintTitle("expr02. scalar equation evaluation: x = a")

	res := &fakeResolver{
		data: map[string][]string{"a": nil},
		sol:  map[string][]string{"x": nil},
	}
	n, err := Parse("a", nil, "e1", 1)
	if err != nil {
		tst.Errorf("parse failed: %v", err)
		return
	}
	vals := Values{Data: []float64{2.0}}
	out, err := n.Eval(res, vals, nil, [][]int{{}})
	if err != nil {
		tst.Errorf("eval failed: %v", err)
		return
	}
	if out[0] != 2.0 {
		tst.Errorf("expected 2.0, got %v", out[0])
	}
}

func Test_expr03(tst *testing.T) {

	chk.PrintTitle("expr03. sum-over-set evaluation: sum:i=I: w_i")

	res := &fakeResolver{
		data:     map[string][]string{"w": {"I"}},
		sol:      map[string][]string{},
		setSizes: map[string]int{"I": 3},
		dataOff:  map[string]int{"w": 0},
	}
	n, err := Parse("[sum : i=I : w_i]", nil, "e1", 1)
	if err != nil {
		tst.Errorf("parse failed: %v", err)
		return
	}
	vals := Values{Data: []float64{1.0, 2.0, 3.0}}
	out, err := n.Eval(res, vals, nil, [][]int{{}})
	if err != nil {
		tst.Errorf("eval failed: %v", err)
		return
	}
	if out[0] != 6.0 {
		tst.Errorf("expected 6.0, got %v", out[0])
	}
}

func Test_expr04(tst *testing.T) {

	chk.PrintTitle("expr04. differentiation of sum: d/dx[sum:i=I: a_i * x_i] gives (offset of x_k, a_k) for each k")

	res := &fakeResolver{
		data:     map[string][]string{"a": {"I"}},
		sol:      map[string][]string{"x": {"I"}},
		setSizes: map[string]int{"I": 3},
		dataOff:  map[string]int{"a": 0},
		solOff:   map[string]int{"x": 0},
	}
	n, err := Parse("[sum : i=I : a_i * x_i]", nil, "e1", 1)
	if err != nil {
		tst.Errorf("parse failed: %v", err)
		return
	}
	vals := Values{Data: []float64{10, 20, 30}}
	contribs, err := n.Differentiate(res, vals, nil, []int{})
	if err != nil {
		tst.Errorf("differentiate failed: %v", err)
		return
	}
	if len(contribs) != 3 {
		tst.Errorf("expected 3 contributions (one per element of I), got %d", len(contribs))
		return
	}
	for i, c := range contribs {
		if c.Offset != i {
			tst.Errorf("contribution %d: expected offset %d, got %d", i, i, c.Offset)
		}
		v, err := c.Coeff.Eval(res, vals, nil, [][]int{{}})
		if err != nil {
			tst.Errorf("coeff eval failed: %v", err)
			continue
		}
		if v[0] != vals.Data[i] {
			tst.Errorf("contribution %d: expected coefficient %v, got %v", i, vals.Data[i], v[0])
		}
	}
}

func Test_expr05(tst *testing.T) {

	chk.PrintTitle("expr05. product rule is rejected")

	res := &fakeResolver{
		sol: map[string][]string{"x": nil, "y": nil},
	}
	n, err := Parse("x * y", nil, "bad", 7)
	if err != nil {
		tst.Errorf("parse failed: %v", err)
		return
	}
	_, err = n.Differentiate(res, Values{}, nil, []int{})
	if err == nil {
		tst.Errorf("expected product-rule error")
	}
}
