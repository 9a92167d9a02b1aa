// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import "github.com/PaddySchmidt/cgesolve/cgerr"

// NoOffset marks a differentiation contribution that carries no solution
// variable (a pure coefficient, folded into a parent multiplicative term).
const NoOffset = -1

// Contribution is one (solution-variable offset, coefficient fragment)
// pair produced by differentiating a node at one concrete site.
type Contribution struct {
	Offset int
	Coeff  *Node
}

// Differentiate produces the list of (solution_variable_offset,
// tree_fragment) contributions of n at one concrete site (tuple indexed
// against bindings). Per §4.3: n-ary multiplicative nodes strictly
// enforce that at most one branch carries solution variables and that
// divisor branches carry none; violations are reported as "product rule"
// / "quotient rule" errors naming the statement and line. A power whose
// base or exponent carries a solution variable is rejected the same way.
func (n *Node) Differentiate(res Resolver, vals Values, bindings Bindings, site []int) ([]Contribution, error) {
	switch n.Kind {

	case KNumber, KLog, KCmp:
		// constants for differentiation purposes (log/comparison are
		// treated as opaque constants w.r.t. solution variables by
		// construction, since no solution variable may legally appear
		// inside them).
		return []Contribution{{Offset: NoOffset, Coeff: n}}, nil

	case KPow:
		// power evaluates but does not differentiate: it is a constant
		// unless a solution variable appears in its base or exponent.
		for _, side := range []*Node{n.Left, n.Right} {
			cs, err := side.Differentiate(res, vals, bindings, site)
			if err != nil {
				return nil, err
			}
			for _, c := range cs {
				if c.Offset != NoOffset {
					return nil, cgerr.At(cgerr.Differentiation, n.Statement, n.Line, "power encountered: a solution variable appears inside '^'")
				}
			}
		}
		return []Contribution{{Offset: NoOffset, Coeff: n}}, nil

	case KVarRef:
		kind := res.CatalogOf(n.VarName)
		if kind == "" {
			return nil, cgerr.At(cgerr.Consistency, n.Statement, n.Line, "undeclared variable %q", n.VarName)
		}
		if kind == "data" {
			return []Contribution{{Offset: NoOffset, Coeff: n}}, nil
		}
		querySets, siteVals, err := siteQuery(res, n.VarName, n.Args, bindings, [][]int{site})
		if err != nil {
			return nil, err
		}
		offs, err := res.Indices(n.VarName, querySets, siteVals)
		if err != nil {
			return nil, err
		}
		return []Contribution{{Offset: offs[0], Coeff: NewNumber(1)}}, nil

	case KAdd:
		var out []Contribution
		for _, b := range n.AddBranches {
			cs, err := b.Node.Differentiate(res, vals, bindings, site)
			if err != nil {
				return nil, err
			}
			for _, c := range cs {
				coeff := c.Coeff
				if b.Sign < 0 {
					coeff = Negate(coeff)
				}
				out = append(out, Contribution{Offset: c.Offset, Coeff: coeff})
			}
		}
		return mergeContributions(out), nil

	case KMul:
		lists := make([][]Contribution, len(n.MulBranches))
		for i, b := range n.MulBranches {
			cs, err := b.Node.Differentiate(res, vals, bindings, site)
			if err != nil {
				return nil, err
			}
			if b.Div {
				for _, c := range cs {
					if c.Offset != NoOffset {
						return nil, cgerr.At(cgerr.Differentiation, n.Statement, n.Line, "quotient rule encountered: a divisor carries a solution variable")
					}
				}
			}
			lists[i] = cs
		}
		products := cartesianContrib(lists)
		var out []Contribution
		for _, tuple := range products {
			offset := NoOffset
			var coeffBranches []MulBranch
			for i, c := range tuple {
				if c.Offset != NoOffset {
					if offset != NoOffset {
						return nil, cgerr.At(cgerr.Differentiation, n.Statement, n.Line, "product rule encountered: more than one branch carries a solution variable")
					}
					offset = c.Offset
				}
				coeffBranches = append(coeffBranches, MulBranch{Node: c.Coeff, Div: n.MulBranches[i].Div})
			}
			out = append(out, Contribution{Offset: offset, Coeff: NewMul(coeffBranches)})
		}
		return mergeContributions(out), nil

	case KSum:
		card, err := res.SetSize(n.BindSet)
		if err != nil {
			return nil, err
		}
		extBindings := append(append(Bindings{}, bindings...), Bind{Name: n.BindName, Set: n.BindSet})
		var out []Contribution
		for e := 0; e < card; e++ {
			extSite := append(append([]int{}, site...), e)
			cs, err := n.Child.Differentiate(res, vals, extBindings, extSite)
			if err != nil {
				return nil, err
			}
			// the bound index is not visible outside the sum, so each
			// coefficient is evaluated here, at the concrete element
			for _, c := range cs {
				v, err := c.Coeff.Eval(res, vals, extBindings, [][]int{extSite})
				if err != nil {
					return nil, err
				}
				out = append(out, Contribution{Offset: c.Offset, Coeff: NewNumber(v[0])})
			}
		}
		return mergeContributions(out), nil

	case KCond:
		lv, err := n.CondLHS.Eval(res, vals, bindings, [][]int{site})
		if err != nil {
			return nil, err
		}
		rv, err := n.CondRHS.Eval(res, vals, bindings, [][]int{site})
		if err != nil {
			return nil, err
		}
		if !compare(lv[0], rv[0], n.CondOp) {
			return []Contribution{{Offset: NoOffset, Coeff: NewNumber(0)}}, nil
		}
		return n.Child.Differentiate(res, vals, bindings, site)

	default:
		return nil, cgerr.At(cgerr.Consistency, n.Statement, n.Line, "unknown node kind %d", n.Kind)
	}
}

// cartesianContrib returns the cartesian product of several contribution
// lists, one tuple per combination, built in the same order the Python
// original iterates (outer list first).
func cartesianContrib(lists [][]Contribution) [][]Contribution {
	result := [][]Contribution{{}}
	for _, list := range lists {
		var next [][]Contribution
		for _, prefix := range result {
			for _, c := range list {
				row := make([]Contribution, len(prefix), len(prefix)+1)
				copy(row, prefix)
				next = append(next, append(row, c))
			}
		}
		result = next
	}
	return result
}

// mergeContributions sums coefficient fragments that target the same
// solution-variable offset, via the tree's own + operator.
func mergeContributions(in []Contribution) []Contribution {
	order := make([]int, 0, len(in))
	byOffset := make(map[int][]*Node)
	for _, c := range in {
		if _, ok := byOffset[c.Offset]; !ok {
			order = append(order, c.Offset)
		}
		byOffset[c.Offset] = append(byOffset[c.Offset], c.Coeff)
	}
	out := make([]Contribution, 0, len(order))
	for _, off := range order {
		nodes := byOffset[off]
		if len(nodes) == 1 {
			out = append(out, Contribution{Offset: off, Coeff: nodes[0]})
			continue
		}
		branches := make([]AddBranch, len(nodes))
		for i, nd := range nodes {
			branches[i] = AddBranch{Node: nd, Sign: 1}
		}
		out = append(out, Contribution{Offset: off, Coeff: NewAdd(branches)})
	}
	return out
}
