// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package expr

import (
	"strconv"
	"strings"

	"github.com/PaddySchmidt/cgesolve/cgerr"
)

const (
	levelNone = 0
	levelPow  = 8
	levelMul  = 9
	levelAdd  = 10
	levelCmp  = 11
)

// Parse parses the body of an expression statement into a Node tree. sets
// and indexes are the ambient Bindings visible at this point (the
// statement's declared "idx=SET, ..." header); statement/line are carried
// into every constructed node for diagnostics.
func Parse(body string, bindings Bindings, statement string, line int) (*Node, error) {
	return parseNode(body, bindings, statement, line)
}

func parseNode(raw string, bindings Bindings, statement string, line int) (*Node, error) {
	s := pad(raw)
	s = stripOuterParens(s)

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return NewNumber(v), nil
	}

	if !strings.Contains(s, " ") {
		return parseLeaf(s, bindings, statement, line)
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") && squareBlockWhole(s) {
		return parseSquareBlock(s, bindings, statement, line)
	}

	return parseByPrecedence(s, bindings, statement, line)
}

// parseLeaf handles tokens with no internal spaces: a quoted literal
// element, or a NAME[_idx]* variable reference.
func parseLeaf(tok string, bindings Bindings, statement string, line int) (*Node, error) {
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		return nil, cgerr.At(cgerr.Parse, statement, line, "literal element %q cannot appear outside a variable reference's index list", tok)
	}
	parts := strings.Split(tok, "_")
	name := parts[0]
	var args []IndexArg
	for _, p := range parts[1:] {
		if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
			args = append(args, IndexArg{Literal: p[1 : len(p)-1], IsLiteral: true})
		} else {
			args = append(args, IndexArg{Name: p})
		}
	}
	return &Node{Kind: KVarRef, VarName: name, Args: args, FreeIndices: bindings, Statement: statement, Line: line}, nil
}

func parseSquareBlock(s string, bindings Bindings, statement string, line int) (*Node, error) {
	inner := strings.TrimSpace(s[1 : len(s)-1])
	parts := splitTopLevel(inner, ':', 2)
	if len(parts) < 2 {
		return nil, cgerr.At(cgerr.Parse, statement, line, "malformed bracket form %q", s)
	}
	head := strings.ToLower(strings.TrimSpace(parts[0]))
	switch head {
	case "sum":
		if len(parts) != 3 {
			return nil, cgerr.At(cgerr.Parse, statement, line, "malformed sum-over-set form %q", s)
		}
		idxset := strings.Split(strings.ReplaceAll(parts[1], " ", ""), "=")
		if len(idxset) != 2 {
			return nil, cgerr.At(cgerr.Parse, statement, line, "malformed sum binding %q", parts[1])
		}
		inner := append(append(Bindings{}, bindings...), Bind{Name: idxset[0], Set: idxset[1]})
		child, err := parseNode(parts[2], inner, statement, line)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KSum, BindName: idxset[0], BindSet: idxset[1], Child: child, FreeIndices: bindings, Statement: statement, Line: line}, nil

	case "if":
		if len(parts) != 3 {
			return nil, cgerr.At(cgerr.Parse, statement, line, "malformed if form %q", s)
		}
		cond := strings.Fields(strings.TrimSpace(parts[1]))
		if len(cond) != 3 {
			return nil, cgerr.At(cgerr.Parse, statement, line, "malformed if condition %q", parts[1])
		}
		lhs, err := parseNode(cond[0], bindings, statement, line)
		if err != nil {
			return nil, err
		}
		rhs, err := parseNode(cond[2], bindings, statement, line)
		if err != nil {
			return nil, err
		}
		child, err := parseNode(parts[2], bindings, statement, line)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KCond, CondLHS: lhs, CondOp: cond[1], CondRHS: rhs, Child: child, FreeIndices: bindings, Statement: statement, Line: line}, nil

	case "loge":
		rest := parts[1]
		if len(parts) == 3 {
			rest = parts[1] + ":" + parts[2]
		}
		child, err := parseNode(rest, bindings, statement, line)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KLog, Child: child, FreeIndices: bindings, Statement: statement, Line: line}, nil
	}
	return nil, cgerr.At(cgerr.Parse, statement, line, "unrecognised bracket form %q", head)
}

// parseByPrecedence finds the weakest-binding (highest-level) operator
// present at depth zero and splits on every occurrence of it, mirroring
// the original source's character-scan algorithm.
func parseByPrecedence(s string, bindings Bindings, statement string, line int) (*Node, error) {
	levels, highest, cmp := scanLevels(s)
	if highest == levelNone {
		return nil, cgerr.At(cgerr.Parse, statement, line, "could not parse expression %q", s)
	}

	var splitPositions []int
	for i, lv := range levels {
		if lv == highest {
			splitPositions = append(splitPositions, i)
		}
	}
	splitPositions = append(splitPositions, len(s))

	switch highest {
	case levelPow:
		if len(splitPositions) != 2 {
			return nil, cgerr.At(cgerr.Parse, statement, line, "unexpected number of '^' in %q", s)
		}
		left, err := parseNode(s[:splitPositions[0]], bindings, statement, line)
		if err != nil {
			return nil, err
		}
		right, err := parseNode(s[splitPositions[0]+1:], bindings, statement, line)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KPow, Left: left, Right: right, FreeIndices: bindings, Statement: statement, Line: line}, nil

	case levelCmp:
		if len(splitPositions) != 2 {
			return nil, cgerr.At(cgerr.Parse, statement, line, "unexpected number of comparisons in %q", s)
		}
		left, err := parseNode(s[:splitPositions[0]], bindings, statement, line)
		if err != nil {
			return nil, err
		}
		right, err := parseNode(s[splitPositions[0]+len(cmp):], bindings, statement, line)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KCmp, Left: left, Right: right, CmpOp: cmp, FreeIndices: bindings, Statement: statement, Line: line}, nil

	case levelAdd:
		firstNeg := false
		if splitPositions[0] == 0 {
			if s[0] != '-' {
				return nil, cgerr.At(cgerr.Parse, statement, line, "unexpected operator %q at start of %q", string(s[0]), s)
			}
			firstNeg = true
			splitPositions = splitPositions[1:]
		}
		var branches []AddBranch
		start := 0
		sign := 1
		if firstNeg {
			start = 1
			sign = -1
		}
		for _, end := range splitPositions {
			sub := s[start:end]
			child, err := parseNode(sub, bindings, statement, line)
			if err != nil {
				return nil, err
			}
			branches = append(branches, AddBranch{Node: child, Sign: sign})
			if end < len(s) {
				sign = signOf(s[end])
			}
			start = end + 1
		}
		return NewAdd(branches), nil

	case levelMul:
		var branches []MulBranch
		start := 0
		div := false
		for _, end := range splitPositions {
			sub := s[start:end]
			child, err := parseNode(sub, bindings, statement, line)
			if err != nil {
				return nil, err
			}
			branches = append(branches, MulBranch{Node: child, Div: div})
			if end < len(s) {
				div = s[end] == '/'
			}
			start = end + 1
		}
		return NewMul(branches), nil
	}
	return nil, cgerr.At(cgerr.Parse, statement, line, "unhandled operator level %d in %q", highest, s)
}

func signOf(b byte) int {
	if b == '-' {
		return -1
	}
	return 1
}

// scanLevels walks s left to right classifying each rune's operator
// level at bracket depth zero, exactly as the original source does:
// +/- = 10, */ = 9, ^ = 8, comparisons = 11 (loosest binding, split
// first).
func scanLevels(s string) (levels []int, highest int, cmpOp string) {
	depth := 0
	levels = make([]int, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
		lvl := 0
		if depth == 0 {
			switch {
			case c == '+' || c == '-':
				lvl = levelAdd
			case c == '*' || c == '/':
				lvl = levelMul
			case c == '^':
				lvl = levelPow
			case c == '=' || c == '<' || c == '>' || c == '!':
				if highest != levelCmp {
					op := string(c)
					if i+1 < len(s) && s[i+1] == '=' {
						op += "="
					}
					switch op {
					case "==", "!=", "<", ">", "<=", ">=":
						lvl = levelCmp
						cmpOp = op
					}
				}
			}
		}
		if lvl > highest {
			highest = lvl
		}
		levels[i] = lvl
	}
	return
}

// pad inserts a single space around every operator character so that a
// subsequent character scan sees one space-delimited token per operand,
// and collapses any resulting run of spaces.
func pad(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer(
		"+", " + ", "-", " - ", "/", " / ", "*", " * ", "^", " ^ ",
		"(", " ( ", ")", " ) ", "[", " [ ", "]", " ] ", ":", " : ",
		"==", " == ", "!=", " != ", ">=", " >= ", "<=", " <= ",
		">", " > ", "<", " < ",
	)
	s = replacer.Replace(s)
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}

// stripOuterParens removes a matching pair of outer parentheses that
// wholly enclose s, repeatedly.
func stripOuterParens(s string) string {
	for {
		t := strings.TrimSpace(s)
		if len(t) < 2 || t[0] != '(' || t[len(t)-1] != ')' {
			return t
		}
		depth := 0
		wholeEnclosing := true
		for i := 0; i < len(t)-1; i++ {
			switch t[i] {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth == 0 && i < len(t)-1 {
				wholeEnclosing = false
				break
			}
		}
		if !wholeEnclosing {
			return t
		}
		s = t[1 : len(t)-1]
	}
}

func squareBlockWhole(s string) bool {
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return false
	}
	depth := 0
	for i := 0; i < len(s)-1; i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		}
		if depth == 0 && i < len(s)-1 {
			return false
		}
	}
	return true
}

// splitTopLevel splits s on sep at bracket/paren depth zero, at most n
// times (n<=0 means unlimited).
func splitTopLevel(s string, sep byte, n int) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
		if depth == 0 && s[i] == sep {
			if n > 0 && len(parts) == n {
				continue
			}
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
