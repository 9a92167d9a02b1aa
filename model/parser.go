// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"strconv"
	"strings"

	"github.com/PaddySchmidt/cgesolve/cgerr"
	"github.com/PaddySchmidt/cgesolve/expr"
	"github.com/PaddySchmidt/cgesolve/statements"
)

// Parser streams a model file into a sequence of fully-terminated
// statements and dispatches each to the matching manager.
type Parser struct {
	m          *Model
	setSource  SetSource
	fileSymbol map[string]bool // declared `file [new] SYMBOL` symbols
}

// SetSource resolves `set NAME from SYMBOL.SHEET` declarations against an
// external table of set-element rows; callers that never use this form
// may pass nil.
type SetSource interface {
	SetElements(file, sheet string) ([]string, error)
}

// NewParser returns a parser writing into m, resolving any `from`-sourced
// set declarations through src (which may be nil if unused).
func NewParser(m *Model, src SetSource) *Parser {
	return &Parser{m: m, setSource: src, fileSymbol: map[string]bool{}}
}

// ParseText parses the complete model file text, dispatching each
// terminated statement as it is found. It reports the first error
// encountered, naming the starting line.
func (p *Parser) ParseText(text string) error {
	lines := strings.Split(text, "\n")
	var buf strings.Builder
	startLine := 1
	cur := 1
	for _, raw := range lines {
		line := raw
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			cur++
			continue
		}
		if strings.TrimSpace(buf.String()) == "" {
			startLine = cur
		}
		buf.WriteString(line)
		buf.WriteString(" ")
		for strings.Contains(buf.String(), ";") {
			s := buf.String()
			idx := strings.Index(s, ";")
			stmt := strings.TrimSpace(s[:idx])
			rest := s[idx+1:]
			buf.Reset()
			buf.WriteString(rest)
			if stmt == "" {
				continue
			}
			if err := p.dispatch(stmt, startLine); err != nil {
				return err
			}
			startLine = cur
		}
		cur++
	}
	if strings.TrimSpace(buf.String()) != "" {
		return cgerr.At(cgerr.Parse, "<eof>", startLine, "unterminated statement: %q", strings.TrimSpace(buf.String()))
	}
	return nil
}

func (p *Parser) dispatch(stmt string, line int) error {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return nil
	}
	kw := fields[0]
	switch kw {
	case "file":
		return p.handleFile(stmt, line)
	case "datavar":
		return p.handleDatavar(stmt, line)
	case "solvar":
		return p.handleSolvar(stmt, line)
	case "set":
		return p.handleSet(stmt, line)
	case "subset":
		return p.handleSubset(stmt, line)
	case "assert":
		return p.handleAssert(stmt, line)
	case "formula":
		return p.handleFormula(stmt, line)
	case "update":
		return p.handleUpdate(stmt, line)
	case "equation":
		return p.handleEquation(stmt, line)
	case "loopformulas":
		return p.handleLoopFormulas(stmt, line)
	case "write":
		return p.handleWrite(stmt, line)
	default:
		return cgerr.At(cgerr.Parse, stmt, line, "unknown statement keyword %q", kw)
	}
}

func (p *Parser) handleFile(stmt string, line int) error {
	fields := strings.Fields(stmt)
	sym := fields[len(fields)-1]
	p.fileSymbol[sym] = true
	return nil
}

func (p *Parser) handleDatavar(stmt string, line int) error {
	body := strings.TrimSpace(strings.TrimPrefix(stmt, "datavar"))
	fixed := false
	if strings.HasPrefix(body, "fixed") {
		fixed = true
		body = strings.TrimSpace(strings.TrimPrefix(body, "fixed"))
	}
	var fromSym string
	if idx := strings.Index(body, "from"); idx >= 0 {
		fromSym = strings.TrimSpace(body[idx+len("from"):])
		body = strings.TrimSpace(body[:idx])
	}
	name, setNames := splitNameAndSets(body)
	var file, sheet string
	if fromSym != "" {
		parts := strings.SplitN(fromSym, ".", 2)
		if len(parts) != 2 {
			return cgerr.At(cgerr.Parse, name, line, "datavar %q: malformed 'from SYMBOL.SHEET'", name)
		}
		file, sheet = parts[0], parts[1]
	}
	return p.m.Data.Add(name, setNames, file, sheet, fixed)
}

func (p *Parser) handleSolvar(stmt string, line int) error {
	body := strings.TrimSpace(strings.TrimPrefix(stmt, "solvar"))
	change, linear := false, false
	if strings.HasPrefix(body, "[") {
		idx := strings.Index(body, "]")
		if idx < 0 {
			return cgerr.At(cgerr.Parse, "solvar", line, "unterminated modifier list in %q", stmt)
		}
		for _, m := range strings.Split(body[1:idx], ",") {
			switch strings.TrimSpace(m) {
			case "change":
				change = true
			case "linear":
				linear = true
			}
		}
		body = strings.TrimSpace(body[idx+1:])
	}
	name, setNames := splitNameAndSets(body)
	return p.m.Sol.Add(name, setNames, change, linear)
}

func splitNameAndSets(tok string) (name string, setNames []string) {
	parts := strings.Split(strings.TrimSpace(tok), "_")
	return parts[0], parts[1:]
}

func (p *Parser) handleSet(stmt string, line int) error {
	body := strings.TrimSpace(strings.TrimPrefix(stmt, "set"))
	eq := strings.SplitN(body, "=", 2)
	if len(eq) != 2 {
		return cgerr.At(cgerr.Parse, "set", line, "malformed set declaration %q", stmt)
	}
	name := strings.TrimSpace(eq[0])
	rhs := strings.TrimSpace(eq[1])

	if strings.HasPrefix(rhs, "(") && strings.HasSuffix(rhs, ")") {
		inner := rhs[1 : len(rhs)-1]
		var elems []string
		for _, e := range strings.Split(inner, ",") {
			elems = append(elems, strings.TrimSpace(e))
		}
		return p.m.Sets.New(name, elems)
	}
	if strings.HasPrefix(rhs, "from") {
		sym := strings.TrimSpace(strings.TrimPrefix(rhs, "from"))
		parts := strings.SplitN(sym, ".", 2)
		if len(parts) != 2 {
			return cgerr.At(cgerr.Parse, name, line, "set %q: malformed 'from SYMBOL.SHEET'", name)
		}
		if p.setSource == nil {
			return cgerr.At(cgerr.IO, name, line, "set %q: no table source configured for 'from %s.%s'", name, parts[0], parts[1])
		}
		elems, err := p.setSource.SetElements(parts[0], parts[1])
		if err != nil {
			return cgerr.Wrap(cgerr.IO, name, line, err)
		}
		return p.m.Sets.New(name, elems)
	}
	if idx := strings.Index(rhs, "+"); idx >= 0 {
		return p.m.Sets.Union(splitOperands(rhs, "+"), name)
	}
	if idx := strings.Index(rhs, "x"); idx >= 0 && strings.Contains(rhs, " x ") {
		ops := splitOperands(rhs, "x")
		if len(ops) == 2 {
			return p.m.Sets.Cross(ops[0], ops[1], name)
		}
	}
	if idx := strings.Index(rhs, "-"); idx >= 0 {
		ops := splitOperands(rhs, "-")
		if len(ops) == 2 {
			return p.m.Sets.Difference(ops[0], ops[1], name)
		}
	}
	return cgerr.At(cgerr.Parse, name, line, "malformed set expression %q", rhs)
}

func splitOperands(s, op string) []string {
	parts := strings.Split(s, op)
	var out []string
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func (p *Parser) handleSubset(stmt string, line int) error {
	fields := strings.Fields(stmt)
	if len(fields) != 4 || fields[2] != "of" {
		return cgerr.At(cgerr.Parse, "subset", line, "malformed subset declaration %q", stmt)
	}
	return p.m.Sets.SubsetOf(fields[1], fields[3])
}

// header splits "name : bindings : body" into its three parts.
func header(body string) (name string, bindingsStr string, rest string, err error) {
	parts := strings.SplitN(body, ":", 3)
	if len(parts) != 3 {
		return "", "", "", cgerr.New(cgerr.Parse, "malformed statement header %q", body)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), nil
}

func parseBindings(s string) expr.Bindings {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out expr.Bindings
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) == 2 {
			out = append(out, expr.Bind{Name: strings.TrimSpace(kv[0]), Set: strings.TrimSpace(kv[1])})
		}
	}
	return out
}

func (p *Parser) handleAssert(stmt string, line int) error {
	body := strings.TrimSpace(strings.TrimPrefix(stmt, "assert"))
	name, bindStr, rest, err := header(body)
	if err != nil {
		return cgerr.Wrap(cgerr.Parse, "assert", line, err)
	}
	bindings := parseBindings(bindStr)
	tree, err := expr.Parse(rest, bindings, name, line)
	if err != nil {
		return err
	}
	return p.m.Asserts.Add(name, bindings, tree, line)
}

func parseLHS(lhs string) (string, []expr.IndexArg) {
	name, idxNames := splitNameAndSets(lhs)
	var args []expr.IndexArg
	for _, idx := range idxNames {
		if len(idx) >= 2 && idx[0] == '"' && idx[len(idx)-1] == '"' {
			args = append(args, expr.IndexArg{Literal: idx[1 : len(idx)-1], IsLiteral: true})
		} else {
			args = append(args, expr.IndexArg{Name: idx})
		}
	}
	return name, args
}

func (p *Parser) handleFormula(stmt string, line int) error {
	body := strings.TrimSpace(strings.TrimPrefix(stmt, "formula"))
	initial := false
	if strings.HasPrefix(body, "initial") {
		initial = true
		body = strings.TrimSpace(strings.TrimPrefix(body, "initial"))
	}
	name, bindStr, rest, err := header(body)
	if err != nil {
		return cgerr.Wrap(cgerr.Parse, "formula", line, err)
	}
	bindings := parseBindings(bindStr)
	eqIdx := strings.Index(rest, "=")
	if eqIdx < 0 {
		return cgerr.At(cgerr.Parse, name, line, "formula %q: missing '='", name)
	}
	lhsName, lhsArgs := parseLHS(strings.TrimSpace(rest[:eqIdx]))
	tree, err := expr.Parse(rest[eqIdx+1:], bindings, name, line)
	if err != nil {
		return err
	}
	ws := &statements.WriteStatement{
		Statement: statements.Statement{Name: name, Bindings: bindings, Tree: tree, Line: line},
		LHSName:   lhsName, LHSArgs: lhsArgs, Mods: statements.Modifier{Initial: initial},
	}
	return p.m.Formulas.Add(ws)
}

func (p *Parser) handleUpdate(stmt string, line int) error {
	body := strings.TrimSpace(strings.TrimPrefix(stmt, "update"))
	parts := strings.SplitN(body, ":", 3)
	if len(parts) != 3 {
		return cgerr.At(cgerr.Parse, "update", line, "malformed update statement %q", stmt)
	}
	name := strings.TrimSpace(parts[0])
	bindings := parseBindings(parts[1])
	lhsRhs := strings.SplitN(parts[2], ":", 2)
	if len(lhsRhs) != 2 {
		return cgerr.At(cgerr.Parse, name, line, "update %q: missing LHS : RHS separator", name)
	}
	lhsName, lhsArgs := parseLHS(strings.TrimSpace(lhsRhs[0]))
	tree, err := expr.Parse(lhsRhs[1], bindings, name, line)
	if err != nil {
		return err
	}
	ws := &statements.WriteStatement{
		Statement: statements.Statement{Name: name, Bindings: bindings, Tree: tree, Line: line},
		LHSName:   lhsName, LHSArgs: lhsArgs,
	}
	return p.m.Updates.Add(ws)
}

func (p *Parser) handleEquation(stmt string, line int) error {
	body := strings.TrimSpace(strings.TrimPrefix(stmt, "equation"))
	name, bindStr, rest, err := header(body)
	if err != nil {
		return cgerr.Wrap(cgerr.Parse, "equation", line, err)
	}
	bindings := parseBindings(bindStr)
	eqIdx := strings.Index(rest, "=")
	if eqIdx < 0 {
		return cgerr.At(cgerr.Parse, name, line, "equation %q: missing '='", name)
	}
	lhs, err := expr.Parse(rest[:eqIdx], bindings, name, line)
	if err != nil {
		return err
	}
	rhs, err := expr.Parse(rest[eqIdx+1:], bindings, name, line)
	if err != nil {
		return err
	}
	tree := expr.NewAdd([]expr.AddBranch{{Node: lhs, Sign: 1}, {Node: rhs, Sign: -1}})
	return p.m.Equations.Add(name, bindings, tree, line, p.m)
}

func (p *Parser) handleLoopFormulas(stmt string, line int) error {
	body := strings.TrimSpace(strings.TrimPrefix(stmt, "loopformulas"))
	parts := strings.SplitN(body, ":", 3)
	if len(parts) != 3 {
		return cgerr.At(cgerr.Parse, "loopformulas", line, "malformed loopformulas statement %q", stmt)
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return cgerr.At(cgerr.Parse, "loopformulas", line, "malformed repeat count %q", parts[1])
	}
	var names []string
	for _, nm := range strings.Split(parts[2], ",") {
		names = append(names, strings.TrimSpace(nm))
	}
	return p.m.Formulas.LoopFormulas(names, n, line)
}

func (p *Parser) handleWrite(stmt string, line int) error {
	fields := strings.Fields(stmt)
	if len(fields) != 4 || fields[2] != "to" {
		return cgerr.At(cgerr.Parse, "write", line, "malformed write statement %q", stmt)
	}
	// write VAR to SYMBOL.SHEET ; — recorded for the out-of-scope
	// workbook-writer collaborator; this core only validates the
	// variable is declared.
	if !p.m.VariableDeclared(fields[1]) {
		return cgerr.At(cgerr.Consistency, "write", line, "write: variable %q not declared", fields[1])
	}
	return nil
}
