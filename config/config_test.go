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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/openPMD/openpmd-go/openpmderr"
)

func TestParseJSONDetectsBackendNamespace(t *testing.T) {
	raw := []byte(`{
		"backend": "hdf5",
		"iteration_encoding": "file_based",
		"hdf5": {
			"dataset": {"chunks": "auto"},
			"dataset_override": [
				{"select": ["E_x"], "cfg": {"chunks": "[4,4]"}}
			]
		}
	}`)
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "hdf5" || cfg.IterationEncoding != "file_based" {
		t.Fatalf("unexpected top-level fields: %+v", cfg)
	}
	b := cfg.ForBackend("hdf5")
	if b.Dataset.Chunks != "auto" {
		t.Fatalf("expected default chunks 'auto', got %q", b.Dataset.Chunks)
	}
}

func TestParseJSONUnknownTopLevelKeyIsSchemaError(t *testing.T) {
	// An unknown top-level key is decoded as a backend namespace, so
	// one whose value is not an object is a schema error; malformed
	// JSON is rejected as well.
	_, err := Parse([]byte(`{"backend": 123`))
	if err == nil {
		t.Fatal("expected parse error for malformed JSON")
	}
	_, err = Parse([]byte(`{"bogus_top_level_key": 1}`))
	if !errors.Is(err, openpmderr.KindError(openpmderr.BackendConfigSchema)) {
		t.Fatalf("expected schema error for unknown top-level key, got %v", err)
	}
}

func TestResolveDatasetFirstMatchWins(t *testing.T) {
	raw := []byte(`{
		"hdf5": {
			"dataset": {"chunks": "auto"},
			"dataset_override": [
				{"select": ["^/data/0/meshes/E"], "cfg": {"chunks": "[1,1]"}},
				{"select": ["meshes"], "cfg": {"chunks": "[2,2]"}}
			]
		}
	}`)
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	b := cfg.ForBackend("hdf5")
	d := b.ResolveDataset("/data/0/meshes/E/x", "meshes/E/x")
	if d.Chunks != "[1,1]" {
		t.Fatalf("expected first override to win, got %q", d.Chunks)
	}
	d2 := b.ResolveDataset("/data/0/meshes/B/x", "meshes/B/x")
	if d2.Chunks != "[2,2]" {
		t.Fatalf("expected second override to win for B, got %q", d2.Chunks)
	}
	d3 := b.ResolveDataset("/data/0/particles/e/position", "particles/e/position")
	if d3.Chunks != "auto" {
		t.Fatalf("expected default chunks for unmatched path, got %q", d3.Chunks)
	}
}

func TestParseTOMLRoundTrip(t *testing.T) {
	raw := []byte(`
backend = "adios2"
iteration_encoding = "variable_based"

[adios2]
[adios2.dataset]
chunks = "auto"

[adios2.engine]
type = "BP5"
`)
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "adios2" {
		t.Fatalf("expected backend adios2, got %q", cfg.Backend)
	}
	b := cfg.ForBackend("adios2")
	if b.Engine.Type != "BP5" {
		t.Fatalf("expected engine type BP5, got %q", b.Engine.Type)
	}
}

func TestParseTOMLUnknownKeyIsSchemaError(t *testing.T) {
	_, err := Parse([]byte("bogus_top_level_key = 1\n"))
	if err == nil {
		t.Fatal("expected schema error for unknown top-level TOML key")
	}
}

func TestLoadExternalFileConvention(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.json")
	if err := os.WriteFile(p, []byte(`{"backend":"json"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("@" + p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "json" {
		t.Fatalf("expected backend json, got %q", cfg.Backend)
	}
}
