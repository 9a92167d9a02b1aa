// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package expr implements the Expression Tree: a tagged node variant
// parsed from indexed algebraic text, supporting broadcasted evaluation
// and symbolic (not numerical) differentiation with respect to solution
// variables.
package expr

// Kind tags the variant a Node holds.
type Kind int

const (
	KNumber Kind = iota
	KVarRef
	KAdd // n-ary additive: branches carry +/- signs
	KMul // n-ary multiplicative: branches carry */÷ signs
	KPow
	KSum  // sum-over-set
	KCond // conditional
	KLog  // natural log, unary
	KCmp  // comparison, binary
)

// IndexArg is one ordered argument index of a variable reference: either
// the name of a free or bound ambient index, or (IsLiteral) a literal
// quoted set element.
type IndexArg struct {
	Name      string
	Literal   string
	IsLiteral bool
}

// AddBranch is one branch of an n-ary additive node.
type AddBranch struct {
	Node *Node
	Sign int // +1 or -1
}

// MulBranch is one branch of an n-ary multiplicative node.
type MulBranch struct {
	Node *Node
	Div  bool // true for a divisor branch
}

// Bind is one (index name -> set name) ambient binding.
type Bind struct {
	Name string
	Set  string
}

// Bindings is the ordered list of ambient bindings visible at a
// statement's header, e.g. "idx=SET, jdx=SET2".
type Bindings []Bind

// Position returns the ordinal position of name within bs, or -1.
func (bs Bindings) Position(name string) int {
	for i, b := range bs {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the ordered binding names.
func (bs Bindings) Names() []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Name
	}
	return out
}

// Node is a tree-shaped (never shared) expression node. Ownership is
// downward: simplifications build new nodes and never mutate across an
// already-returned subtree.
type Node struct {
	Kind Kind

	// KNumber
	Num float64

	// KVarRef
	VarName string
	Args    []IndexArg

	// KAdd
	AddBranches []AddBranch

	// KMul
	MulBranches []MulBranch

	// KPow, KCmp
	Left, Right *Node
	CmpOp       string // "==", "!=", "<", "<=", ">", ">="

	// KSum
	BindName string
	BindSet  string
	Child    *Node

	// KCond: predicate is (CondLHS CondOp CondRHS), Child evaluated where true
	CondLHS, CondRHS *Node
	CondOp           string

	// KLog: Child holds the operand

	// diagnostics
	FreeIndices Bindings
	Statement   string
	Line        int
}

// NewNumber returns a constant leaf.
func NewNumber(v float64) *Node { return &Node{Kind: KNumber, Num: v} }

// isZero reports whether n is the constant 0 (used by constructive simplification).
func isZero(n *Node) bool { return n.Kind == KNumber && n.Num == 0 }

// isOne reports whether n is the constant 1.
func isOne(n *Node) bool { return n.Kind == KNumber && n.Num == 1 }

// NewAdd builds an n-ary additive node from branches, applying the
// constructive simplifications: adjacent additive branches merge and 0
// branches drop.
func NewAdd(branches []AddBranch) *Node {
	var flat []AddBranch
	for _, b := range branches {
		if isZero(b.Node) {
			continue
		}
		if b.Node.Kind == KAdd {
			for _, inner := range b.Node.AddBranches {
				sign := inner.Sign
				if b.Sign < 0 {
					sign = -sign
				}
				flat = append(flat, AddBranch{Node: inner.Node, Sign: sign})
			}
			continue
		}
		flat = append(flat, b)
	}
	if len(flat) == 0 {
		return NewNumber(0)
	}
	if len(flat) == 1 && flat[0].Sign > 0 {
		return flat[0].Node
	}
	return &Node{Kind: KAdd, AddBranches: flat}
}

// NewMul builds an n-ary multiplicative node, applying x*0->0, x*1->x, and
// adjacent-product merging.
func NewMul(branches []MulBranch) *Node {
	var flat []MulBranch
	for _, b := range branches {
		if isZero(b.Node) {
			return NewNumber(0)
		}
		if isOne(b.Node) {
			continue
		}
		if b.Node.Kind == KMul && !b.Div {
			flat = append(flat, b.Node.MulBranches...)
			continue
		}
		flat = append(flat, b)
	}
	if len(flat) == 0 {
		return NewNumber(1)
	}
	if len(flat) == 1 && !flat[0].Div {
		return flat[0].Node
	}
	return &Node{Kind: KMul, MulBranches: flat}
}

// Negate wraps n as 0 - n, used for unary minus and for flipping the sign
// of a subtracted additive node's branches.
func Negate(n *Node) *Node {
	if n.Kind == KAdd {
		flipped := make([]AddBranch, len(n.AddBranches))
		for i, b := range n.AddBranches {
			flipped[i] = AddBranch{Node: b.Node, Sign: -b.Sign}
		}
		return NewAdd(flipped)
	}
	return NewAdd([]AddBranch{{Node: n, Sign: -1}})
}
