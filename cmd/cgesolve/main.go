// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cgesolve reads a model file, a YAML run configuration, and
// one closure file per configured step, runs the base pass and (when
// polfiles are given) the policy pass, then prints a long- or
// wide-format report.
package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/PaddySchmidt/cgesolve/cgerr"
	"github.com/PaddySchmidt/cgesolve/closure"
	"github.com/PaddySchmidt/cgesolve/config"
	"github.com/PaddySchmidt/cgesolve/driver"
	"github.com/PaddySchmidt/cgesolve/model"
	"github.com/PaddySchmidt/cgesolve/report"
	"github.com/PaddySchmidt/cgesolve/tables"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func main() {

	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			for i := 8; i > 3; i-- {
				chk.CallerInfo(i)
			}
			io.PfRed("ERROR: %v\n", err)
			os.Exit(1)
		}
	}()

	modelPath, _ := io.ArgToFilename(0, "", ".model", true)
	configPath := io.ArgToString(1, "")
	tableDir := io.ArgToString(2, "")

	io.PfWhite("\ncgesolve -- computable general equilibrium solver\n\n")
	io.Pf("%v\n", io.ArgsTable(
		"model file", "modelPath", modelPath,
		"config file", "configPath", configPath,
		"table directory", "tableDir", tableDir,
	))

	if err := run(modelPath, configPath, tableDir); err != nil {
		chk.Panic("run failed:\n%v", err)
	}
}

func run(modelPath, configPath, tableDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	text, err := os.ReadFile(modelPath)
	if err != nil {
		return cgerr.Wrap(cgerr.IO, modelPath, 0, err)
	}

	var store *tables.FileTableStore
	if tableDir != "" {
		store = tables.NewFileTableStore(map[string]string{"": tableDir})
	}

	m := model.New()
	p := model.NewParser(m, nil)
	if err := p.ParseText(string(text)); err != nil {
		return err
	}

	var initialData []float64
	if store != nil {
		initialData, err = m.Data.LoadFromTables(store)
		if err != nil {
			return err
		}
	} else {
		initialData = make([]float64, m.Data.Length())
	}

	baseClosures, err := readClosures(m, cfg.BaseFiles)
	if err != nil {
		return err
	}

	dcfg := driver.Config{
		Steps: cfg.Steps, Substeps: cfg.Substeps, Solve: cfg.Solve,
		DoIterative: cfg.DoIterative, Condense: cfg.Condense, LinSolName: cfg.LinSolName,
	}
	d := driver.New(m, dcfg, initialData)
	basePass, err := d.RunPass(baseClosures, nil)
	if err != nil {
		return err
	}

	var polPass *driver.PassResult
	if len(cfg.PolFiles) > 0 {
		d.ResetData(initialData)
		polClosures, err := readClosures(m, cfg.PolFiles)
		if err != nil {
			return err
		}
		polPass, err = d.RunPass(polClosures, basePass)
		if err != nil {
			return err
		}
	}

	r := report.New(m, cfg.ReportingVars)
	if cfg.LongFormat {
		rows := r.LongFormat(basePass, polPass)
		for _, row := range rows {
			io.Pf("%-30s %v %v\n", strings.Join(row.Name, "_"), row.Pass, row.Values)
		}
	} else {
		tbls := r.WideFormat(basePass)
		for _, t := range tbls {
			io.Pf("--- %s (%v) ---\n", t.Variable, t.Columns)
			for i, row := range t.Rows {
				io.Pf("%v  %g\n", row, t.Values[i])
			}
		}
	}
	return nil
}

func readClosures(m *model.Model, files []string) ([]*closure.Closure, error) {
	out := make([]*closure.Closure, len(files))
	for i, path := range files {
		lines, err := readLines(path)
		if err != nil {
			return nil, cgerr.Wrap(cgerr.IO, path, 0, err)
		}
		c, err := closure.ParseLines(m.Sets, m.Sol, lines)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
