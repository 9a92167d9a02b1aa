// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package closure interprets per-step closure text (add / remove / shock
// lines) into an ordered map of exogenous solution-variable offset to
// (shock value, is-change flag).
package closure

import (
	"strconv"
	"strings"

	"github.com/PaddySchmidt/cgesolve/cgerr"
	"github.com/PaddySchmidt/cgesolve/sets"
	"github.com/PaddySchmidt/cgesolve/variables"
	"github.com/cpmech/gosl/io"
)

// Entry is one exogenous offset and its shock.
type Entry struct {
	Offset   int
	Shock    float64
	IsChange bool
}

// Closure is the ordered set of exogenous offsets for one simulation
// step; order follows the order entries were added in the closure file.
type Closure struct {
	order   []int
	entries map[int]*Entry
}

// New returns an empty closure.
func New() *Closure { return &Closure{entries: map[int]*Entry{}} }

// Offsets returns the exogenous offsets in the order they were added.
func (c *Closure) Offsets() []int { return c.order }

// Entries returns the closure's entries in add-order.
func (c *Closure) Entries() []*Entry {
	out := make([]*Entry, len(c.order))
	for i, o := range c.order {
		out[i] = c.entries[o]
	}
	return out
}

// Len reports the number of exogenous offsets.
func (c *Closure) Len() int { return len(c.order) }

// ResolveToken resolves a qualified variable token NAME[_Q]* (where each
// Q is a subset name, tried first, falling back to a literal quoted
// element of the variable's own set at that position) into the flat
// offsets of the cartesian product of its qualified index lists.
func ResolveToken(catalog *sets.Catalog, sol *variables.SolCatalog, token string) ([]int, error) {
	parts := strings.Split(token, "_")
	name := parts[0]
	quals := parts[1:]
	declared := sol.Sets(name)
	if len(quals) != len(declared) {
		return nil, cgerr.New(cgerr.Consistency, "closure: %q has %d qualifiers, variable declared over %d sets", token, len(quals), len(declared))
	}
	if len(declared) == 0 {
		off, err := sol.Offset(name)
		if err != nil {
			return nil, err
		}
		return []int{off}, nil
	}
	querySets := make([]string, len(quals))
	lists := make([][]int, len(quals))
	for i, q := range quals {
		if _, err := catalog.Get(q); err == nil {
			// q names a declared set (itself or a recorded subset of declared[i])
			qs, err := catalog.Get(q)
			if err != nil {
				return nil, err
			}
			querySets[i] = q
			lists[i] = identityRange(qs.Len())
			continue
		}
		elt := q
		if len(q) >= 2 && q[0] == '"' && q[len(q)-1] == '"' {
			elt = q[1 : len(q)-1]
		}
		idx, err := catalog.ElementIndex(declared[i], elt)
		if err != nil {
			return nil, cgerr.New(cgerr.Consistency, "closure: %q: qualifier %q is neither a declared set nor an element of %q", token, q, declared[i])
		}
		querySets[i] = declared[i]
		lists[i] = []int{idx}
	}
	tuples := cartesianInt(lists)
	return sol.Indices(name, querySets, tuples)
}

func identityRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func cartesianInt(lists [][]int) [][]int {
	result := [][]int{{}}
	for _, list := range lists {
		var next [][]int
		for _, prefix := range result {
			for _, v := range list {
				row := make([]int, len(prefix), len(prefix)+1)
				copy(row, prefix)
				next = append(next, append(row, v))
			}
		}
		result = next
	}
	return result
}

// ParseLines interprets one step's closure-file lines. add inserts
// zero-value entries and records the is-change flag from the
// solution-variable tag; repeated add warns (via gosl/io) but does not
// fail. remove deletes, and fails if the offset is absent. shock sets
// the value on an already-added entry, and fails if the offset is
// absent.
func ParseLines(catalog *sets.Catalog, sol *variables.SolCatalog, lines []string) (*Closure, error) {
	c := New()
	for ln, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "add":
			offs, err := ResolveToken(catalog, sol, fields[1])
			if err != nil {
				return nil, cgerr.Wrap(cgerr.Parse, fields[1], ln+1, err)
			}
			change := sol.IsChange(strings.Split(fields[1], "_")[0])
			for _, off := range offs {
				if _, ok := c.entries[off]; ok {
					io.Pfyel("warning: closure: repeated add of offset %d (%s)\n", off, fields[1])
					continue
				}
				c.entries[off] = &Entry{Offset: off, IsChange: change}
				c.order = append(c.order, off)
			}
		case "remove":
			offs, err := ResolveToken(catalog, sol, fields[1])
			if err != nil {
				return nil, cgerr.Wrap(cgerr.Parse, fields[1], ln+1, err)
			}
			for _, off := range offs {
				if _, ok := c.entries[off]; !ok {
					return nil, cgerr.At(cgerr.Consistency, fields[1], ln+1, "closure: remove: offset %d not present", off)
				}
				delete(c.entries, off)
				for i, o := range c.order {
					if o == off {
						c.order = append(c.order[:i], c.order[i+1:]...)
						break
					}
				}
			}
		case "shock":
			offs, err := ResolveToken(catalog, sol, fields[1])
			if err != nil {
				return nil, cgerr.Wrap(cgerr.Parse, fields[1], ln+1, err)
			}
			v, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, cgerr.At(cgerr.Parse, fields[1], ln+1, "closure: shock: malformed value %q", fields[2])
			}
			for _, off := range offs {
				e, ok := c.entries[off]
				if !ok {
					return nil, cgerr.At(cgerr.Consistency, fields[1], ln+1, "closure: shock: offset %d not present (did you forget 'add'?)", off)
				}
				e.Shock = v
			}
		default:
			return nil, cgerr.At(cgerr.Parse, fields[0], ln+1, "closure: unknown directive %q", fields[0])
		}
	}
	return c, nil
}
