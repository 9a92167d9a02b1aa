// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the driver-wide run configuration, loaded from a
// YAML file, in the same SetDefault/PostProcess shape gofem's inp.Data
// and inp.LinSolData use for their own JSON-sourced settings.
package config

import (
	"os"

	"github.com/PaddySchmidt/cgesolve/cgerr"
	"gopkg.in/yaml.v3"
)

// Config is the complete driver configuration named by the model file
// grammar's "driver configuration" contract.
type Config struct {
	Steps         int      `yaml:"steps"`
	Substeps      int      `yaml:"substeps"`
	BaseFiles     []string `yaml:"basefiles"`
	PolFiles      []string `yaml:"polfiles"`
	Solve         bool     `yaml:"solve"`
	LongFormat    bool     `yaml:"longformat"`
	ReportingVars []string `yaml:"reportingvars"`
	DoIterative   bool     `yaml:"doiterative"`
	Condense      bool     `yaml:"condense"`
	LinSolName    string   `yaml:"linsolname"`
}

// SetDefault sets the defaults a zero-value Config should carry before
// unmarshalling overwrites whatever the YAML document supplies.
func (o *Config) SetDefault() {
	o.Substeps = 1
	o.Solve = true
	o.LongFormat = true
}

// PostProcess fills in anything SetDefault could not (it runs after the
// YAML is loaded, so it can see what the document actually set) and
// validates the enumerated option values named in the model file
// grammar's configuration contract.
func (o *Config) PostProcess() error {
	if o.Substeps <= 0 {
		o.Substeps = 1
	}
	if o.Steps <= 0 {
		return cgerr.New(cgerr.Consistency, "config: steps must be positive, got %d", o.Steps)
	}
	if len(o.BaseFiles) != o.Steps {
		return cgerr.New(cgerr.Consistency, "config: %d basefiles given for %d configured steps", len(o.BaseFiles), o.Steps)
	}
	if len(o.PolFiles) != 0 && len(o.PolFiles) != o.Steps {
		return cgerr.New(cgerr.Consistency, "config: %d polfiles given for %d configured steps", len(o.PolFiles), o.Steps)
	}
	return nil
}

// Load reads, defaults, unmarshals, and post-processes a YAML config
// file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, cgerr.Wrap(cgerr.IO, path, 0, err)
	}
	c := &Config{}
	c.SetDefault()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, cgerr.Wrap(cgerr.Parse, path, 0, err)
	}
	if err := c.PostProcess(); err != nil {
		return nil, err
	}
	return c, nil
}
