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

// Command openpmd-ls lists the iterations, meshes, and particle
// species of a Series, the same "thin CLI over the library" role
// cmd/sdb's describe.go plays for a sneller database.
//
// It lists only what the in-process Series holds: series.Open starts
// from a fresh arena and does not read back iterations, meshes or
// species already stored at the path, so for an existing file the
// listing is empty.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/openPMD/openpmd-go/config"
	"github.com/openPMD/openpmd-go/series"
)

var (
	dashc bool
	dashv bool
)

func init() {
	flag.BoolVar(&dashc, "c", false, "also list record component names")
	flag.BoolVar(&dashv, "v", false, "verbose: also print series-level metadata")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: openpmd-ls [-c] [-v] <path> [config.json|config.toml]\n")
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
		var err error
		cfg, err = loadConfig(args[1])
		if err != nil {
			log.Fatalf("openpmd-ls: %s", err)
		}
	}
	if err := list(path, cfg); err != nil {
		log.Fatalf("openpmd-ls: %s", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return config.Parse(raw)
}

func list(path string, cfg *config.Config) error {
	be, err := openBackend(path, cfg)
	if err != nil {
		return err
	}
	s, err := series.Open(path, be, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if dashv {
		fmt.Printf("backend: %s  encoding: %s\n", s.BackendName(), s.Encoding())
	}
	for _, idx := range s.Iterations() {
		it, err := s.Iteration(idx)
		if err != nil {
			return err
		}
		fmt.Printf("iteration %d\n", idx)
		for _, meshName := range it.Meshes.Keys() {
			m, err := it.Meshes.Get(meshName)
			if err != nil {
				return err
			}
			names := m.ComponentNames()
			fmt.Printf("  mesh %s\n", meshName)
			if dashc {
				fmt.Printf("    components: %s\n", strings.Join(names, ", "))
			}
		}
		for _, speciesName := range it.Particles.Keys() {
			sp, err := it.Particles.Get(speciesName)
			if err != nil {
				return err
			}
			fmt.Printf("  particles %s\n", speciesName)
			if dashc {
				for _, recName := range sp.RecordNames() {
					rec, err := sp.Record(recName)
					if err != nil {
						return err
					}
					fmt.Printf("    record %s: %s\n", recName, strings.Join(rec.ComponentNames(), ", "))
				}
			}
		}
	}
	return nil
}
