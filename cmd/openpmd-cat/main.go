// Copyright (C) 2026 The openpmd-go Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command openpmd-cat dumps one record component's chunks to stdout,
// in AvailableChunks order, raw and uncompressed — the thin-CLI
// counterpart to openpmd-ls, mirroring cmd/sdb's fetch.go ("fetch one
// blob and write it out") rather than attempting a general-purpose
// dump of the whole series.
//
// It dumps only what the in-process Series holds: series.Open starts
// from a fresh arena and does not read back iterations, records or
// chunks already stored at the path. The component named on the
// command line is therefore created empty, with an undefined
// datatype, and the command fails before writing any chunk.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/openPMD/openpmd-go/attr"
	"github.com/openPMD/openpmd-go/backend"
	"github.com/openPMD/openpmd-go/config"
	"github.com/openPMD/openpmd-go/dataset"
	"github.com/openPMD/openpmd-go/series"
)

var (
	dashIteration uint64
	dashMesh      string
	dashSpecies   string
	dashRecord    string
	dashComponent string
)

func init() {
	flag.Uint64Var(&dashIteration, "i", 0, "iteration index")
	flag.StringVar(&dashMesh, "mesh", "", "mesh record name")
	flag.StringVar(&dashSpecies, "species", "", "particle species name")
	flag.StringVar(&dashRecord, "record", "", "particle record name (requires -species)")
	flag.StringVar(&dashComponent, "component", "SCALAR", "record component name")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: openpmd-cat -i <iteration> (-mesh <name> | -species <name> -record <name>) [-component <name>] <path> [config.json|config.toml]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := args[0]
	var cfg *config.Config
	if len(args) > 1 {
		raw, err := os.ReadFile(args[1])
		if err != nil {
			log.Fatalf("openpmd-cat: %s", err)
		}
		cfg, err = config.Parse(raw)
		if err != nil {
			log.Fatalf("openpmd-cat: %s", err)
		}
	}
	if err := cat(path, cfg); err != nil {
		log.Fatalf("openpmd-cat: %s", err)
	}
}

func resolveComponent(s *series.Series) (*dataset.Component, error) {
	it, err := s.Iteration(dashIteration)
	if err != nil {
		return nil, err
	}
	switch {
	case dashMesh != "":
		m, err := it.Meshes.Get(dashMesh)
		if err != nil {
			return nil, err
		}
		return m.Component(dashComponent)
	case dashSpecies != "" && dashRecord != "":
		sp, err := it.Particles.Get(dashSpecies)
		if err != nil {
			return nil, err
		}
		rec, err := sp.Record(dashRecord)
		if err != nil {
			return nil, err
		}
		return rec.Component(dashComponent)
	}
	return nil, fmt.Errorf("must specify -mesh or both -species and -record")
}

func cat(path string, cfg *config.Config) error {
	be, err := openBackend(path, cfg)
	if err != nil {
		return err
	}
	s, err := series.Open(path, be, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := resolveComponent(s)
	if err != nil {
		return err
	}
	elemSize, err := attr.ToBytes(c.Datatype())
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	for _, chunk := range c.AvailableChunks() {
		n := elemSize
		for _, e := range chunk.Extent {
			n *= int(e)
		}
		buf := make([]byte, n)
		if err := c.LoadChunk(buf, chunk.Offset, chunk.Extent); err != nil {
			return err
		}
		if err := s.Flush(backend.UserFlush); err != nil {
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
