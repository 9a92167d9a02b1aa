// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_config01(tst *testing.T) {

	chk.PrintTitle("config01")

	c := &Config{}
	c.SetDefault()
	chk.IntAssert(c.Substeps, 1)
	if !c.Solve {
		tst.Fatalf("Solve should default true")
	}
	if !c.LongFormat {
		tst.Fatalf("LongFormat should default true")
	}
}

func Test_config02(tst *testing.T) {

	chk.PrintTitle("config02")

	c := &Config{Steps: 2, BaseFiles: []string{"a", "b"}}
	c.SetDefault()
	if err := c.PostProcess(); err != nil {
		tst.Fatalf("PostProcess: %v", err)
	}

	bad := &Config{Steps: 2, BaseFiles: []string{"a"}}
	bad.SetDefault()
	if err := bad.PostProcess(); err == nil {
		tst.Fatalf("expected error for basefiles/steps mismatch")
	}
}
