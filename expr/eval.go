// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"math"

	"github.com/PaddySchmidt/cgesolve/cgerr"
)

// Resolver is the late-binding contract a variable reference is checked
// against at evaluation and differentiation time: the target catalog
// (data or solution) is selected by membership test, never recorded on
// the node itself.
type Resolver interface {
	// CatalogOf reports "data", "solution", or "" if name is undeclared
	// in either catalog.
	CatalogOf(name string) string
	// DeclaredSets returns the ordered set names name is declared over.
	DeclaredSets(name string) []string
	// Indices resolves name at the given per-position query sets and
	// tuples into flat offsets in that catalog's value vector.
	Indices(name string, querySets []string, tuples [][]int) ([]int, error)
	// ElementIndex returns the position of element within the named set.
	ElementIndex(set, element string) (int, error)
	// SetSize returns the cardinality of the named set.
	SetSize(set string) (int, error)
}

// Values holds the live value vectors a node evaluates against. Sol may
// be nil when only data-side evaluation is required (e.g. formula
// evaluation before any solve has happened).
type Values struct {
	Data []float64
	Sol  []float64
}

// ResolveArgs exposes siteQuery for callers outside this package (the
// formula/update LHS resolution in package statements/model needs the
// same argument-to-offset resolution a variable reference uses).
func ResolveArgs(res Resolver, name string, args []IndexArg, bindings Bindings, tuples [][]int) (querySets []string, siteVals [][]int, err error) {
	return siteQuery(res, name, args, bindings, tuples)
}

// siteQuery resolves one variable reference's per-position query sets and
// per-site index values against the ambient bindings and tuples.
func siteQuery(res Resolver, name string, args []IndexArg, bindings Bindings, tuples [][]int) (querySets []string, siteVals [][]int, err error) {
	declared := res.DeclaredSets(name)
	if len(args) != len(declared) {
		return nil, nil, cgerr.New(cgerr.Consistency, "variable %q: %d arguments given, declared over %d sets", name, len(args), len(declared))
	}
	querySets = make([]string, len(args))
	litIdx := make([]int, len(args))
	bindPos := make([]int, len(args))
	for k, a := range args {
		if a.IsLiteral {
			querySets[k] = declared[k]
			idx, e := res.ElementIndex(declared[k], a.Literal)
			if e != nil {
				return nil, nil, e
			}
			litIdx[k] = idx
			bindPos[k] = -1
		} else {
			pos := bindings.Position(a.Name)
			if pos < 0 {
				return nil, nil, cgerr.New(cgerr.Consistency, "variable %q: index %q is not an ambient binding", name, a.Name)
			}
			querySets[k] = bindings[pos].Set
			bindPos[k] = pos
		}
	}
	siteVals = make([][]int, len(tuples))
	for s, tup := range tuples {
		row := make([]int, len(args))
		for k := range args {
			if bindPos[k] < 0 {
				row[k] = litIdx[k]
			} else {
				row[k] = tup[bindPos[k]]
			}
		}
		siteVals[s] = row
	}
	return querySets, siteVals, nil
}

// Eval evaluates n at every site in tuples (one tuple per evaluation
// site, positioned against bindings) and returns one value per site.
func (n *Node) Eval(res Resolver, vals Values, bindings Bindings, tuples [][]int) ([]float64, error) {
	out := make([]float64, len(tuples))
	switch n.Kind {

	case KNumber:
		for i := range out {
			out[i] = n.Num
		}

	case KVarRef:
		kind := res.CatalogOf(n.VarName)
		if kind == "" {
			return nil, cgerr.At(cgerr.Consistency, n.Statement, n.Line, "undeclared variable %q", n.VarName)
		}
		querySets, siteVals, err := siteQuery(res, n.VarName, n.Args, bindings, tuples)
		if err != nil {
			return nil, err
		}
		offs, err := res.Indices(n.VarName, querySets, siteVals)
		if err != nil {
			return nil, err
		}
		var vec []float64
		if kind == "data" {
			vec = vals.Data
		} else {
			vec = vals.Sol
		}
		for i, o := range offs {
			out[i] = vec[o]
		}

	case KAdd:
		for _, b := range n.AddBranches {
			v, err := b.Node.Eval(res, vals, bindings, tuples)
			if err != nil {
				return nil, err
			}
			for i := range out {
				if b.Sign > 0 {
					out[i] += v[i]
				} else {
					out[i] -= v[i]
				}
			}
		}

	case KMul:
		for i := range out {
			out[i] = 1
		}
		for _, b := range n.MulBranches {
			v, err := b.Node.Eval(res, vals, bindings, tuples)
			if err != nil {
				return nil, err
			}
			for i := range out {
				if b.Div {
					out[i] /= v[i]
				} else {
					out[i] *= v[i]
				}
			}
		}

	case KPow:
		lv, err := n.Left.Eval(res, vals, bindings, tuples)
		if err != nil {
			return nil, err
		}
		rv, err := n.Right.Eval(res, vals, bindings, tuples)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] = math.Pow(lv[i], rv[i])
		}

	case KLog:
		cv, err := n.Child.Eval(res, vals, bindings, tuples)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] = math.Log(cv[i])
		}

	case KCmp:
		lv, err := n.Left.Eval(res, vals, bindings, tuples)
		if err != nil {
			return nil, err
		}
		rv, err := n.Right.Eval(res, vals, bindings, tuples)
		if err != nil {
			return nil, err
		}
		for i := range out {
			if compare(lv[i], rv[i], n.CmpOp) {
				out[i] = 1
			}
		}

	case KSum:
		extBindings := append(append(Bindings{}, bindings...), Bind{Name: n.BindName, Set: n.BindSet})
		extTuples := make([][]int, 0, len(tuples))
		siteOf := make([]int, 0, len(tuples))
		card, err := setCardinality(res, n.BindSet)
		if err != nil {
			return nil, err
		}
		for s, tup := range tuples {
			for e := 0; e < card; e++ {
				extTuples = append(extTuples, append(append([]int{}, tup...), e))
				siteOf = append(siteOf, s)
			}
		}
		cv, err := n.Child.Eval(res, vals, extBindings, extTuples)
		if err != nil {
			return nil, err
		}
		for i, v := range cv {
			out[siteOf[i]] += v
		}

	case KCond:
		lv, err := n.CondLHS.Eval(res, vals, bindings, tuples)
		if err != nil {
			return nil, err
		}
		rv, err := n.CondRHS.Eval(res, vals, bindings, tuples)
		if err != nil {
			return nil, err
		}
		cv, err := n.Child.Eval(res, vals, bindings, tuples)
		if err != nil {
			return nil, err
		}
		for i := range out {
			if compare(lv[i], rv[i], n.CondOp) {
				out[i] = cv[i]
			}
		}

	default:
		return nil, cgerr.At(cgerr.Consistency, n.Statement, n.Line, "unknown node kind %d", n.Kind)
	}
	return out, nil
}

func compare(l, r float64, op string) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	return false
}

func setCardinality(res Resolver, set string) (int, error) {
	return res.SetSize(set)
}
