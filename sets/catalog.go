// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sets implements the Set Catalog: ordered named index sets,
// subset/superset mappings with transitive closure, and the disjoint
// union / subset-difference / cross-product operations used to build new
// sets from existing ones.
package sets

import (
	"github.com/PaddySchmidt/cgesolve/cgerr"
	"github.com/cpmech/gosl/utl"
)

// Set is a named, ordered sequence of distinct string elements. Element
// position is semantically meaningful: it is the offset used by the
// variable catalogs for dense flattening.
type Set struct {
	Name     string
	Elements []string
}

// Len returns the set's cardinality.
func (s *Set) Len() int { return len(s.Elements) }

// IndexOf returns the position of elt within the set, or -1.
func (s *Set) IndexOf(elt string) int {
	for i, e := range s.Elements {
		if e == elt {
			return i
		}
	}
	return -1
}

// mapping records one subset embedding: super.Elements[Map[i]] == sub.Elements[i]
// for all i.
type mapping struct {
	super string
	sub   string
	mp    []int
}

// Catalog owns every named set and every recorded subset relation.
type Catalog struct {
	sets     map[string]*Set
	order    []string
	mappings []mapping
}

// NewCatalog returns an empty Set Catalog.
func NewCatalog() *Catalog {
	return &Catalog{sets: make(map[string]*Set)}
}

// New declares a fresh named set with the given ordered elements. Duplicate
// elements within the set or a name collision are consistency errors.
func (c *Catalog) New(name string, elements []string) error {
	if _, ok := c.sets[name]; ok {
		return cgerr.New(cgerr.Consistency, "set %q already declared", name)
	}
	seen := make(map[string]bool, len(elements))
	for _, e := range elements {
		if seen[e] {
			return cgerr.New(cgerr.Consistency, "set %q: duplicate element %q", name, e)
		}
		seen[e] = true
	}
	cp := make([]string, len(elements))
	copy(cp, elements)
	c.sets[name] = &Set{Name: name, Elements: cp}
	c.order = append(c.order, name)
	return nil
}

// Get returns the named set, or an error if it was never declared.
func (c *Catalog) Get(name string) (*Set, error) {
	s, ok := c.sets[name]
	if !ok {
		return nil, cgerr.New(cgerr.Consistency, "set %q not declared", name)
	}
	return s, nil
}

// Delete removes a named set. It does not retract any mapping referring to
// it; callers are expected to delete sets only once no longer reachable.
func (c *Catalog) Delete(name string) {
	delete(c.sets, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// SubsetOf asserts that child is a subset of parent, recording the
// element-preserving position mapping. Every existing mapping whose
// super equals child, or whose sub equals parent, is composed with the
// new mapping to add its transitive consequence (X ⊆ child ⟹ X ⊆ parent;
// parent ⊆ Y ⟹ child ⊆ Y). A
// re-assertion of an already-recorded pair with a different mapping is a
// fatal mapping collision.
func (c *Catalog) SubsetOf(child, parent string) error {
	sub, err := c.Get(child)
	if err != nil {
		return err
	}
	sup, err := c.Get(parent)
	if err != nil {
		return err
	}
	mp := make([]int, len(sub.Elements))
	for i, e := range sub.Elements {
		pos := sup.IndexOf(e)
		if pos < 0 {
			return cgerr.New(cgerr.Consistency, "subset %q of %q: element %q not found in %q", child, parent, e, parent)
		}
		mp[i] = pos
	}
	if err := c.addMapping(parent, child, mp); err != nil {
		return err
	}
	// transitive closure: for every existing (super=child, sub=X) triple,
	// synthesise (parent, X, compose(mp, X's mapping into child)).
	existing := make([]mapping, len(c.mappings))
	copy(existing, c.mappings)
	for _, m := range existing {
		if m.super == child {
			composed := make([]int, len(m.mp))
			for i, idx := range m.mp {
				composed[i] = mp[idx]
			}
			if err := c.addMapping(parent, m.sub, composed); err != nil {
				return err
			}
		}
		if m.sub == parent {
			composed := make([]int, len(mp))
			for i, idx := range mp {
				composed[i] = m.mp[idx]
			}
			if err := c.addMapping(m.super, child, composed); err != nil {
				return err
			}
		}
	}
	return nil
}

// addMapping records (super, sub, mp), erroring if a conflicting mapping for
// the same pair already exists.
func (c *Catalog) addMapping(super, sub string, mp []int) error {
	for _, m := range c.mappings {
		if m.super == super && m.sub == sub {
			if !intSliceEqual(m.mp, mp) {
				return cgerr.New(cgerr.Consistency, "mapping collision: %q⊆%q already recorded with a different mapping", sub, super)
			}
			return nil
		}
	}
	c.mappings = append(c.mappings, mapping{super: super, sub: sub, mp: mp})
	return nil
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Mapping returns the position-to-position embedding of sub into super.
// Mapping(S, S) is the identity. If sub is not a recorded subset of super,
// ok is false and the caller decides whether that is fatal.
func (c *Catalog) Mapping(super, sub string) (mp []int, ok bool) {
	if super == sub {
		s, err := c.Get(super)
		if err != nil {
			return nil, false
		}
		return utl.IntRange(s.Len()), true
	}
	for _, m := range c.mappings {
		if m.super == super && m.sub == sub {
			return m.mp, true
		}
	}
	return nil, false
}

// ElementIndex returns the position of element within the named set.
func (c *Catalog) ElementIndex(name, element string) (int, error) {
	s, err := c.Get(name)
	if err != nil {
		return 0, err
	}
	pos := s.IndexOf(element)
	if pos < 0 {
		return 0, cgerr.New(cgerr.Consistency, "element %q not found in set %q", element, name)
	}
	return pos, nil
}

// Union builds newName as the disjoint union of the named sets, in the
// order given, and records each operand as a subset of the result.
// Overlapping elements across operands are a hard error.
func (c *Catalog) Union(names []string, newName string) error {
	seen := make(map[string]bool)
	var elements []string
	for _, n := range names {
		s, err := c.Get(n)
		if err != nil {
			return err
		}
		for _, e := range s.Elements {
			if seen[e] {
				return cgerr.New(cgerr.Consistency, "union %q: element %q appears in more than one operand (sets must be disjoint)", newName, e)
			}
			seen[e] = true
			elements = append(elements, e)
		}
	}
	if err := c.New(newName, elements); err != nil {
		return err
	}
	for _, n := range names {
		if err := c.SubsetOf(n, newName); err != nil {
			return err
		}
	}
	return nil
}

// Difference builds newName as super minus sub, requiring sub to be a
// proved subset of super.
func (c *Catalog) Difference(super, sub, newName string) error {
	supS, err := c.Get(super)
	if err != nil {
		return err
	}
	mp, ok := c.Mapping(super, sub)
	if !ok {
		return cgerr.New(cgerr.Consistency, "difference %q - %q: %q is not a recorded subset of %q", super, sub, sub, super)
	}
	remove := make(map[int]bool, len(mp))
	for _, idx := range mp {
		remove[idx] = true
	}
	var elements []string
	for i, e := range supS.Elements {
		if !remove[i] {
			elements = append(elements, e)
		}
	}
	return c.New(newName, elements)
}

// Cross builds newName as the ordered cross product a × b, one element
// string per pair joined with "_". Duplicate pairs (impossible unless a or
// b themselves carry duplicates) are forbidden.
func (c *Catalog) Cross(a, b, newName string) error {
	as, err := c.Get(a)
	if err != nil {
		return err
	}
	bs, err := c.Get(b)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	var elements []string
	for _, ea := range as.Elements {
		for _, eb := range bs.Elements {
			pair := ea + "_" + eb
			if seen[pair] {
				return cgerr.New(cgerr.Consistency, "cross %q x %q: duplicate pair %q", a, b, pair)
			}
			seen[pair] = true
			elements = append(elements, pair)
		}
	}
	return c.New(newName, elements)
}
