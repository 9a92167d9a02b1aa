// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tables supplies the two concrete TableStore implementations
// named by the model file grammar's "from SYMBOL.SHEET" and "write VAR
// to SYMBOL.SHEET" clauses: an in-memory store for tests and for a host
// process that already has the data in hand, and a whitespace-delimited
// on-disk store, one directory per symbol and one file per sheet.
package tables

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/PaddySchmidt/cgesolve/cgerr"
	"github.com/PaddySchmidt/cgesolve/variables"
)

// MapTableStore is an in-memory TableStore: file -> sheet -> rows.
// Tests and a caller that has already loaded a workbook into memory use
// this directly rather than round-tripping through disk.
type MapTableStore map[string]map[string][]variables.Row

// NewMapTableStore returns an empty in-memory store.
func NewMapTableStore() MapTableStore { return MapTableStore{} }

// Put records sheet rows under file.
func (s MapTableStore) Put(file, sheet string, rows []variables.Row) {
	if s[file] == nil {
		s[file] = map[string][]variables.Row{}
	}
	s[file][sheet] = rows
}

// Table implements variables.TableStore.
func (s MapTableStore) Table(file, sheet string) ([]variables.Row, error) {
	sheets, ok := s[file]
	if !ok {
		return nil, cgerr.New(cgerr.IO, "table store: file symbol %q not found", file)
	}
	rows, ok := sheets[sheet]
	if !ok {
		return nil, cgerr.New(cgerr.IO, "table store: sheet %q not found in file %q", sheet, file)
	}
	return rows, nil
}

// FileTableStore resolves each file symbol to a directory; a sheet is a
// file within it named "SHEET.tsv", holding one header-less row of
// whitespace-separated fields per data row: the index-dimension columns
// (as many as the variable declares sets) followed by the value column.
// This is a Go-native restatement of the whitespace-table convention
// gofem's own example programs read with io.ReadTable; io.ReadTable
// itself is not reused because it parses every column as float64, which
// cannot carry the string set-element columns these tables need — see
// DESIGN.md.
type FileTableStore struct {
	Dirs map[string]string // file symbol -> directory path
}

// NewFileTableStore returns a store resolving file symbols through dirs.
func NewFileTableStore(dirs map[string]string) *FileTableStore {
	return &FileTableStore{Dirs: dirs}
}

// Table implements variables.TableStore.
func (s *FileTableStore) Table(file, sheet string) ([]variables.Row, error) {
	dir, ok := s.Dirs[file]
	if !ok {
		return nil, cgerr.New(cgerr.IO, "file table store: file symbol %q not mapped to a directory", file)
	}
	path := dir + "/" + sheet + ".tsv"
	f, err := os.Open(path)
	if err != nil {
		return nil, cgerr.Wrap(cgerr.IO, file+"."+sheet, 0, err)
	}
	defer f.Close()

	var rows []variables.Row
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, cgerr.New(cgerr.IO, "file table store: %s line %d: expected at least one index column plus a value", path, lineNo)
		}
		v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return nil, cgerr.New(cgerr.IO, "file table store: %s line %d: malformed value %q", path, lineNo, fields[len(fields)-1])
		}
		rows = append(rows, variables.Row{Key: fields[:len(fields)-1], Value: v})
	}
	if err := sc.Err(); err != nil {
		return nil, cgerr.Wrap(cgerr.IO, file+"."+sheet, 0, err)
	}
	return rows, nil
}
