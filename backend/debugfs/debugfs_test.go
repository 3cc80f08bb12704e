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

package debugfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openPMD/openpmd-go/attr"
	"github.com/openPMD/openpmd-go/backend"
)

func TestJSONRoundTripsAttributesAndChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.json")
	b := New(path, JSON)

	if _, err := b.Dispatch(&backend.Task{Kind: backend.CreatePath, Path: "/meshes/E"}); err != nil {
		t.Fatal(err)
	}
	v, err := attr.NewValue(float64(2.5))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Dispatch(&backend.Task{Kind: backend.WriteAttribute, Path: "/meshes/E", AttributeName: "dt", Attribute: v}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Dispatch(&backend.Task{
		Kind: backend.CreateDataset, Path: "/meshes/E/x", Datatype: attr.DOUBLE, Extent: []uint64{4},
	}); err != nil {
		t.Fatal(err)
	}
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if _, err := b.Dispatch(&backend.Task{
		Kind: backend.WriteChunk, Path: "/meshes/E/x",
		Chunk:  backend.ChunkGeometry{Offset: []uint64{0}, Extent: []uint64{4}},
		Buffer: backend.ChunkBuffer{Data: payload},
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected document to exist: %v", err)
	}

	fresh := New(path, JSON)
	if !fresh.IsDataset("/meshes/E/x") {
		t.Fatal("expected /meshes/E/x to round trip as a dataset")
	}
	children, err := fresh.ListChildren("/meshes")
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 1 || children[0] != "E" {
		t.Fatalf("unexpected children: %v", children)
	}
	attrs, err := fresh.ReadAttributes("/meshes/E")
	if err != nil {
		t.Fatal(err)
	}
	dt, err := attr.Get[float64](attrs["dt"])
	if err != nil || dt != 2.5 {
		t.Fatalf("attribute round trip failed: %v %v", dt, err)
	}

	out := make([]byte, len(payload))
	if _, err := fresh.Dispatch(&backend.Task{
		Kind: backend.ReadChunk, Path: "/meshes/E/x",
		Chunk:    backend.ChunkGeometry{Offset: []uint64{0}, Extent: []uint64{4}},
		LoadInto: out,
	}); err != nil {
		t.Fatal(err)
	}
	for i := range payload {
		if out[i] != payload[i] {
			t.Fatalf("chunk round trip mismatch at %d: got %v want %v", i, out, payload)
		}
	}
}

func TestTOMLWritesHumanReadableDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.toml")
	b := New(path, TOML)
	if _, err := b.Dispatch(&backend.Task{Kind: backend.CreatePath, Path: "/meshes/E"}); err != nil {
		t.Fatal(err)
	}
	v, err := attr.NewValue(int32(7))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Dispatch(&backend.Task{Kind: backend.WriteAttribute, Path: "/meshes/E", AttributeName: "axis", Attribute: v}); err != nil {
		t.Fatal(err)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) == 0 {
		t.Fatal("expected a non-empty TOML document")
	}

	fresh := New(path, TOML)
	attrs, err := fresh.ReadAttributes("/meshes/E")
	if err != nil {
		t.Fatal(err)
	}
	axis, err := attr.Get[int32](attrs["axis"])
	if err != nil || axis != 7 {
		t.Fatalf("attribute round trip failed: %v %v", axis, err)
	}
}

func TestPositionChangesWhenSubtreeChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.json")
	b := New(path, JSON)
	if _, err := b.Dispatch(&backend.Task{Kind: backend.CreatePath, Path: "/meshes/E"}); err != nil {
		t.Fatal(err)
	}
	before, err := b.Position("/meshes/E")
	if err != nil {
		t.Fatal(err)
	}
	v, err := attr.NewValue(float64(1))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Dispatch(&backend.Task{Kind: backend.WriteAttribute, Path: "/meshes/E", AttributeName: "dt", Attribute: v}); err != nil {
		t.Fatal(err)
	}
	after, err := b.Position("/meshes/E")
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Fatal("expected Position to change once an attribute is written")
	}
}

func TestDeletePathRemovesNode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.json")
	b := New(path, JSON)
	if _, err := b.Dispatch(&backend.Task{Kind: backend.CreatePath, Path: "/meshes/E"}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Dispatch(&backend.Task{Kind: backend.DeletePath, Path: "/meshes/E"}); err != nil {
		t.Fatal(err)
	}
	children, err := b.ListChildren("/meshes")
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 0 {
		t.Fatalf("expected no children after delete, got %v", children)
	}
}
