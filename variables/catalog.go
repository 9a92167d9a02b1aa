// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package variables implements the Data and Solution Variable Catalogs:
// flattening indexed declarations to a dense 1-D offset space and computing
// element-tuple → offset mappings against the Set Catalog.
package variables

import (
	"github.com/PaddySchmidt/cgesolve/cgerr"
	"github.com/PaddySchmidt/cgesolve/sets"
)

// base holds what Data and Solution catalogs share: ordered names, each
// name's declared sets, offset, flat size, and the expanded reporting
// forms.
type base struct {
	catalog           *sets.Catalog
	names             []string
	index             map[string]int // name -> position in names
	declaredSets      map[string][]string
	offsets           map[string]int
	sizes             map[string]int
	fullnames         []string
	fullnamesByColumn [][]string
	length            int
}

func newBase(c *sets.Catalog) base {
	return base{
		catalog:      c,
		index:        make(map[string]int),
		declaredSets: make(map[string][]string),
		offsets:      make(map[string]int),
		sizes:        make(map[string]int),
	}
}

// Has reports whether name is declared in this catalog.
func (b *base) Has(name string) bool {
	_, ok := b.index[name]
	return ok
}

// Offset returns name's starting offset in the global value vector.
func (b *base) Offset(name string) (int, error) {
	o, ok := b.offsets[name]
	if !ok {
		return 0, cgerr.New(cgerr.Consistency, "variable %q not declared", name)
	}
	return o, nil
}

// Size returns name's flat size (product of its set cardinalities, 1 if scalar).
func (b *base) Size(name string) (int, error) {
	s, ok := b.sizes[name]
	if !ok {
		return 0, cgerr.New(cgerr.Consistency, "variable %q not declared", name)
	}
	return s, nil
}

// Sets returns the ordered list of set names name is declared over (nil for
// a scalar).
func (b *base) Sets(name string) []string { return b.declaredSets[name] }

// Length returns the global flat length spanned by this catalog.
func (b *base) Length() int { return b.length }

// Names returns the declaration-ordered list of variable names.
func (b *base) Names() []string { return b.names }

// FullNames returns the parallel expanded names, e.g. "X_AG_EMIRATI".
func (b *base) FullNames() []string { return b.fullnames }

// FullNamesByColumn returns the parallel by-column reporting form:
// [name, elt1, elt2, ...] for every flattened position.
func (b *base) FullNamesByColumn() [][]string { return b.fullnamesByColumn }

func (b *base) declare(name string, setNames []string) error {
	if b.Has(name) {
		return cgerr.New(cgerr.Consistency, "variable %q already declared", name)
	}
	width := 1
	var elementSets [][]string
	for _, sn := range setNames {
		s, err := b.catalog.Get(sn)
		if err != nil {
			return err
		}
		width *= s.Len()
		elementSets = append(elementSets, s.Elements)
	}
	b.index[name] = len(b.names)
	b.names = append(b.names, name)
	b.offsets[name] = b.length
	b.sizes[name] = width
	b.declaredSets[name] = setNames
	b.length += width

	if len(setNames) == 0 {
		b.fullnames = append(b.fullnames, name)
		b.fullnamesByColumn = append(b.fullnamesByColumn, []string{name})
	} else {
		for _, tup := range cartesian(elementSets) {
			full := name
			row := []string{name}
			for _, e := range tup {
				full += "_" + e
				row = append(row, e)
			}
			b.fullnames = append(b.fullnames, full)
			b.fullnamesByColumn = append(b.fullnamesByColumn, row)
		}
	}
	return nil
}

// cartesian returns the row-major cartesian product of the given element
// lists: the last list advances fastest, matching variable flattening order.
func cartesian(lists [][]string) [][]string {
	result := [][]string{{}}
	for _, list := range lists {
		var next [][]string
		for _, prefix := range result {
			for _, e := range list {
				row := make([]string, len(prefix), len(prefix)+1)
				copy(row, prefix)
				next = append(next, append(row, e))
			}
		}
		result = next
	}
	return result
}

// Indices resolves a variable reference at a batch of query tuples into
// flat offsets into the global value vector. querySets is the set (or
// subset) each position is being queried over; it may differ from the
// variable's own declared sets at that position as long as a recorded
// subset mapping exists. Index arithmetic is row-major in declaration
// order: the rightmost position's stride is 1, and stride[k] is the
// product of the declared set cardinalities at positions k+1..n-1.
func (b *base) Indices(name string, querySets []string, tuples [][]int) ([]int, error) {
	if !b.Has(name) {
		return nil, cgerr.New(cgerr.Consistency, "variable %q not declared", name)
	}
	declared := b.declaredSets[name]
	if len(querySets) != len(declared) {
		return nil, cgerr.New(cgerr.Consistency, "variable %q: query ranges over %d sets but is declared over %d", name, len(querySets), len(declared))
	}
	baseOff := b.offsets[name]
	if len(declared) == 0 {
		offs := make([]int, len(tuples))
		for i := range offs {
			offs[i] = baseOff
		}
		return offs, nil
	}

	declSizes := make([]int, len(declared))
	mappings := make([][]int, len(declared))
	for i, dset := range declared {
		s, err := b.catalog.Get(dset)
		if err != nil {
			return nil, err
		}
		declSizes[i] = s.Len()
		if querySets[i] == dset {
			mappings[i] = identity(s.Len())
		} else {
			mp, ok := b.catalog.Mapping(dset, querySets[i])
			if !ok {
				return nil, cgerr.New(cgerr.Consistency, "variable %q: no recorded mapping from %q to %q at position %d", name, querySets[i], dset, i)
			}
			mappings[i] = mp
		}
	}

	strides := make([]int, len(declared))
	acc := 1
	for i := len(declared) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= declSizes[i]
	}

	offs := make([]int, len(tuples))
	for t, tup := range tuples {
		if len(tup) != len(declared) {
			return nil, cgerr.New(cgerr.Consistency, "variable %q: index tuple has %d entries, expected %d", name, len(tup), len(declared))
		}
		off := baseOff
		for i, v := range tup {
			if v < 0 || v >= len(mappings[i]) {
				return nil, cgerr.New(cgerr.Consistency, "variable %q: index %d out of range at position %d", name, v, i)
			}
			off += mappings[i][v] * strides[i]
		}
		offs[t] = off
	}
	return offs, nil
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// DataCatalog is the catalog of data variables: concrete numeric values,
// optionally table-backed, optionally marked fixed.
type DataCatalog struct {
	base
	file    map[string]string
	sheet   map[string]string
	fixed   map[string]bool
}

// NewDataCatalog returns an empty data-variable catalog bound to c.
func NewDataCatalog(c *sets.Catalog) *DataCatalog {
	return &DataCatalog{base: newBase(c), file: map[string]string{}, sheet: map[string]string{}, fixed: map[string]bool{}}
}

// Add declares a data variable. file/sheet may be empty if the variable is
// not table-backed.
func (d *DataCatalog) Add(name string, setNames []string, file, sheet string, fixed bool) error {
	if err := d.declare(name, setNames); err != nil {
		return err
	}
	d.file[name] = file
	d.sheet[name] = sheet
	d.fixed[name] = fixed
	return nil
}

// IsFixed reports whether name is marked fixed. The flag is only
// recorded: update statements are not checked against it, so an update
// whose left-hand side is a fixed variable still writes it.
func (d *DataCatalog) IsFixed(name string) bool { return d.fixed[name] }

// TableRef returns the (file, sheet) symbols name was declared "from", or
// ("", "") if it has none.
func (d *DataCatalog) TableRef(name string) (file, sheet string) { return d.file[name], d.sheet[name] }

// Row is one record of an external table: one string per set-dimension
// column followed by a float Value.
type Row struct {
	Key   []string
	Value float64
}

// TableStore is the external-tables interface named by the model file
// grammar's "from SYMBOL.SHEET" clause: a named table of (index-tuple →
// float) pairs. Workbook I/O itself is out of scope; this interface is
// the contract an external collaborator must satisfy.
type TableStore interface {
	Table(file, sheet string) ([]Row, error)
}

// LoadFromTables fills the global data vector, in declaration order, one
// data variable at a time: variables with a table reference have their
// rows re-ordered against the cartesian product of their own set elements
// (declaration order, rightmost fastest); variables without one are
// zero-filled. A row missing after reordering is a fatal I/O error naming
// the variable.
func (d *DataCatalog) LoadFromTables(store TableStore) ([]float64, error) {
	vec := make([]float64, d.Length())
	for _, name := range d.Names() {
		off := d.offsets[name]
		size := d.sizes[name]
		file, sheet := d.file[name], d.sheet[name]
		if file == "" {
			continue // zero-filled
		}
		rows, err := store.Table(file, sheet)
		if err != nil {
			return nil, cgerr.Wrap(cgerr.IO, name, 0, err)
		}
		byKey := make(map[string]float64, len(rows))
		for _, r := range rows {
			byKey[keyOf(r.Key)] = r.Value
		}
		declared := d.declaredSets[name]
		if len(declared) == 0 {
			if len(rows) == 0 {
				return nil, cgerr.New(cgerr.IO, "variable %q: table %s.%s has no rows", name, file, sheet)
			}
			vec[off] = rows[0].Value
			continue
		}
		var elementSets [][]string
		for _, sn := range declared {
			s, err := d.catalog.Get(sn)
			if err != nil {
				return nil, err
			}
			elementSets = append(elementSets, s.Elements)
		}
		tuples := cartesian(elementSets)
		if len(tuples) != size {
			return nil, cgerr.New(cgerr.Consistency, "variable %q: internal size mismatch", name)
		}
		for i, tup := range tuples {
			v, ok := byKey[keyOf(tup)]
			if !ok {
				return nil, cgerr.New(cgerr.IO, "variable %q: missing row for index %v in table %s.%s", name, tup, file, sheet)
			}
			vec[off+i] = v
		}
	}
	return vec, nil
}

func keyOf(tuple []string) string {
	s := ""
	for i, t := range tuple {
		if i > 0 {
			s += "\x1f"
		}
		s += t
	}
	return s
}

// SolCatalog is the catalog of solution variables: per-substep
// perturbations, tagged change vs percent-change and linear vs not.
type SolCatalog struct {
	base
	change map[string]bool
	linear map[string]bool
}

// NewSolCatalog returns an empty solution-variable catalog bound to c.
func NewSolCatalog(c *sets.Catalog) *SolCatalog {
	return &SolCatalog{base: newBase(c), change: map[string]bool{}, linear: map[string]bool{}}
}

// Add declares a solution variable. change selects additive (true) vs
// multiplicative percent-change (false) composition across substeps.
func (s *SolCatalog) Add(name string, setNames []string, change, linear bool) error {
	if err := s.declare(name, setNames); err != nil {
		return err
	}
	s.change[name] = change
	s.linear[name] = linear
	return nil
}

// IsChange reports whether name composes additively (true) or via
// percent-change (false).
func (s *SolCatalog) IsChange(name string) bool { return s.change[name] }

// IsLinear reports whether name is tagged linear.
func (s *SolCatalog) IsLinear(name string) bool { return s.linear[name] }
