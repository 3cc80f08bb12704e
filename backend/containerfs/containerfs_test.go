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

package containerfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openPMD/openpmd-go/attr"
	"github.com/openPMD/openpmd-go/backend"
)

func TestCreatePathMakesDirectory(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	if _, err := b.Dispatch(&backend.Task{Kind: backend.CreatePath, Path: "/data/0/meshes"}); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(filepath.Join(root, "data/0/meshes")); err != nil || !fi.IsDir() {
		t.Fatalf("expected directory to exist: %v", err)
	}
}

func TestCreateDatasetWritesMetadata(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	_, err := b.Dispatch(&backend.Task{
		Kind:     backend.CreateDataset,
		Path:     "/data/0/meshes/E/x",
		Datatype: attr.DOUBLE,
		Extent:   []uint64{4, 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	meta, err := b.readMeta("/data/0/meshes/E/x")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Datatype != "DOUBLE" || len(meta.Extent) != 2 || meta.Extent[0] != 4 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestWriteAndReadChunkRoundTrips(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	path := "/data/0/meshes/E/x"
	if _, err := b.Dispatch(&backend.Task{Kind: backend.CreateDataset, Path: path, Datatype: attr.DOUBLE, Extent: []uint64{2, 2}}); err != nil {
		t.Fatal(err)
	}
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	wt := &backend.Task{
		Kind:   backend.WriteChunk,
		Path:   path,
		Chunk:  backend.ChunkGeometry{Offset: []uint64{0, 0}, Extent: []uint64{2, 2}},
		Buffer: backend.ChunkBuffer{Data: payload},
	}
	if _, err := b.Dispatch(wt); err != nil {
		t.Fatal(err)
	}
	out := make([]byte, len(payload))
	rt := &backend.Task{
		Kind:     backend.ReadChunk,
		Path:     path,
		Chunk:    backend.ChunkGeometry{Offset: []uint64{0, 0}, Extent: []uint64{2, 2}},
		LoadInto: out,
	}
	if _, err := b.Dispatch(rt); err != nil {
		t.Fatal(err)
	}
	for i := range payload {
		if out[i] != payload[i] {
			t.Fatalf("round trip mismatch at %d: got %v want %v", i, out, payload)
		}
	}
}

func TestWriteChunkCompressesWithConfiguredOperator(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	path := "/data/0/meshes/rho"
	cfg := `{"operators":[{"type":"s2"}]}`
	if _, err := b.Dispatch(&backend.Task{
		Kind: backend.CreateDataset, Path: path, Datatype: attr.FLOAT,
		Extent: []uint64{8}, DatasetConfig: cfg,
	}); err != nil {
		t.Fatal(err)
	}
	payload := make([]byte, 32)
	for i := range payload {
		payload[i] = byte(i)
	}
	wt := &backend.Task{
		Kind: backend.WriteChunk, Path: path,
		Chunk:  backend.ChunkGeometry{Offset: []uint64{0}, Extent: []uint64{8}},
		Buffer: backend.ChunkBuffer{Data: payload},
	}
	if _, err := b.Dispatch(wt); err != nil {
		t.Fatal(err)
	}
	stored, err := os.ReadFile(filepath.Join(root, "data/0/meshes/rho/chunks", chunkFilename([]uint64{0}, []uint64{8})))
	if err != nil {
		t.Fatal(err)
	}
	if string(stored) == string(payload) {
		t.Fatal("expected compressed chunk to differ from raw payload")
	}
	out := make([]byte, len(payload))
	rt := &backend.Task{
		Kind: backend.ReadChunk, Path: path,
		Chunk:    backend.ChunkGeometry{Offset: []uint64{0}, Extent: []uint64{8}},
		LoadInto: out,
	}
	if _, err := b.Dispatch(rt); err != nil {
		t.Fatal(err)
	}
	for i := range payload {
		if out[i] != payload[i] {
			t.Fatalf("decompressed mismatch at %d", i)
		}
	}
}

func TestWriteAttributeThenReadAttributesRoundTrips(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	path := "/data/0"
	v, err := attr.NewValue(float64(3.5))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Dispatch(&backend.Task{Kind: backend.WriteAttribute, Path: path, AttributeName: "dt", Attribute: v}); err != nil {
		t.Fatal(err)
	}
	vecV, err := attr.NewValue([]int32{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Dispatch(&backend.Task{Kind: backend.WriteAttribute, Path: path, AttributeName: "shape", Attribute: vecV}); err != nil {
		t.Fatal(err)
	}
	got, err := b.ReadAttributes(path)
	if err != nil {
		t.Fatal(err)
	}
	dt, err := attr.Get[float64](got["dt"])
	if err != nil || dt != 3.5 {
		t.Fatalf("dt round trip failed: %v %v", dt, err)
	}
	shape, err := attr.Get[[]int32](got["shape"])
	if err != nil || len(shape) != 3 || shape[1] != 2 {
		t.Fatalf("shape round trip failed: %v %v", shape, err)
	}
}

func TestWriteAttributeRoundTripsComplex(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	path := "/data/0/meshes/E"
	v, err := attr.NewValue(complex128(complex(1.5, -2.5)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Dispatch(&backend.Task{Kind: backend.WriteAttribute, Path: path, AttributeName: "scale", Attribute: v}); err != nil {
		t.Fatal(err)
	}
	got, err := b.ReadAttributes(path)
	if err != nil {
		t.Fatal(err)
	}
	c, err := attr.Get[complex128](got["scale"])
	if err != nil || c != complex(1.5, -2.5) {
		t.Fatalf("complex round trip failed: %v %v", c, err)
	}
}

func TestDeletePathRemovesTree(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	if _, err := b.Dispatch(&backend.Task{Kind: backend.CreatePath, Path: "/data/0/meshes/E"}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Dispatch(&backend.Task{Kind: backend.DeletePath, Path: "/data/0/meshes/E"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "data/0/meshes/E")); !os.IsNotExist(err) {
		t.Fatalf("expected path to be removed, stat err = %v", err)
	}
}
