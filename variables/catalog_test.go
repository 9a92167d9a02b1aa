// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package variables

import (
	"testing"

	"github.com/PaddySchmidt/cgesolve/sets"
	"github.com/cpmech/gosl/chk"
)

func Test_var01(tst *testing.T) {

	chk.PrintTitle("var01. flatten and recover indices")

	c := sets.NewCatalog()
	c.New("I", []string{"i1", "i2", "i3"})
	c.New("J", []string{"j1", "j2"})

	d := NewDataCatalog(c)
	if err := d.Add("w", []string{"I"}, "", "", false); err != nil {
		tst.Errorf("add failed: %v", err)
		return
	}
	if err := d.Add("x", []string{"I", "J"}, "", "", false); err != nil {
		tst.Errorf("add failed: %v", err)
		return
	}

	if d.Length() != 3+6 {
		tst.Errorf("expected length 9, got %d", d.Length())
	}

	offs, err := d.Indices("x", []string{"I", "J"}, [][]int{{0, 0}, {0, 1}, {1, 0}, {2, 1}})
	if err != nil {
		tst.Errorf("Indices failed: %v", err)
		return
	}
	// base offset for x is 3 (after w's 3 slots); rightmost (J) fastest
	want := []int{3, 4, 5, 8}
	for i := range want {
		if offs[i] != want[i] {
			tst.Errorf("offs[%d] = %d, want %d", i, offs[i], want[i])
		}
	}
}

func Test_var02(tst *testing.T) {

	chk.PrintTitle("var02. subset-mapped query")

	c := sets.NewCatalog()
	c.New("A", []string{"a", "b", "c", "d"})
	c.New("B", []string{"b", "d"})
	c.SubsetOf("B", "A")

	d := NewDataCatalog(c)
	d.Add("x", []string{"A"}, "", "", false)

	offs, err := d.Indices("x", []string{"B"}, [][]int{{0}, {1}})
	if err != nil {
		tst.Errorf("Indices failed: %v", err)
		return
	}
	if offs[0] != 1 || offs[1] != 3 {
		tst.Errorf("unexpected mapped offsets: %v", offs)
	}

	if _, err := d.Indices("x", []string{"NoSuchSet"}, [][]int{{0}}); err == nil {
		tst.Errorf("expected error for unmapped set")
	}
}

type memStore map[string]map[string][]Row

func (m memStore) Table(file, sheet string) ([]Row, error) {
	f, ok := m[file]
	if !ok {
		return nil, chk.Err("no such file %q", file)
	}
	rows, ok := f[sheet]
	if !ok {
		return nil, chk.Err("no such sheet %q in file %q", sheet, file)
	}
	return rows, nil
}

func Test_var03(tst *testing.T) {

	chk.PrintTitle("var03. load from tables, reordered and zero-filled")

	c := sets.NewCatalog()
	c.New("I", []string{"i1", "i2", "i3"})

	d := NewDataCatalog(c)
	d.Add("w", []string{"I"}, "F", "S", true)
	d.Add("z", nil, "", "", false)

	store := memStore{
		"F": {"S": []Row{
			{Key: []string{"i3"}, Value: 30},
			{Key: []string{"i1"}, Value: 10},
			{Key: []string{"i2"}, Value: 20},
		}},
	}

	vec, err := d.LoadFromTables(store)
	if err != nil {
		tst.Errorf("LoadFromTables failed: %v", err)
		return
	}
	if vec[0] != 10 || vec[1] != 20 || vec[2] != 30 {
		tst.Errorf("unexpected reordered values: %v", vec[:3])
	}
	if vec[3] != 0 {
		tst.Errorf("expected zero-filled scalar, got %v", vec[3])
	}
}
