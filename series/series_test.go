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

package series

import (
	"testing"

	"github.com/openPMD/openpmd-go/attr"
	"github.com/openPMD/openpmd-go/backend"
)

type recordingBackend struct {
	order []backend.TaskKind
}

func (b *recordingBackend) Dispatch(t *backend.Task) (backend.AdvanceStatus, error) {
	b.order = append(b.order, t.Kind)
	return backend.AdvanceOK, nil
}

func TestSelectBackendByExtension(t *testing.T) {
	cases := map[string]string{
		"out.h5": "hdf5", "out.bp": "adios2", "out.bp5": "adios2",
		"out.json": "json", "out.toml": "toml",
	}
	for path, want := range cases {
		got, err := SelectBackend(path, nil)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if got != want {
			t.Fatalf("%s: expected backend %q, got %q", path, want, got)
		}
	}
}

func TestOpenRejectsBadFilenamePattern(t *testing.T) {
	be := &recordingBackend{}
	if _, err := Open("out.h5", be, nil); err == nil {
		t.Fatal("expected error: missing %T token")
	}
	if _, err := Open("out_%T_%T.h5", be, nil); err == nil {
		t.Fatal("expected error: duplicate %T token")
	}
}

func TestWriteTwoIterationsReread(t *testing.T) {
	be := &recordingBackend{}
	s, err := Open("out_%T.h5", be, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := uint64(0); i < 2; i++ {
		it, err := s.Iteration(i)
		if err != nil {
			t.Fatal(err)
		}
		if err := it.Open(); err != nil {
			t.Fatal(err)
		}
		if err := it.SetTime(float64(i) * 0.5); err != nil {
			t.Fatal(err)
		}
		mesh, err := it.Meshes.Get("E")
		if err != nil {
			t.Fatal(err)
		}
		comp, err := mesh.Component("x")
		if err != nil {
			t.Fatal(err)
		}
		if err := comp.ResetDataset(attr.FLOAT, []uint64{10}, ""); err != nil {
			t.Fatal(err)
		}
		vals := make([]byte, 40)
		if err := comp.StoreChunk(vals, []uint64{0}, []uint64{10}); err != nil {
			t.Fatal(err)
		}
		if err := it.Close(true, func() error { return s.Flush(backend.UserFlush) }); err != nil {
			t.Fatal(err)
		}
	}
	idxs := s.Iterations()
	if len(idxs) != 2 || idxs[0] != 0 || idxs[1] != 1 {
		t.Fatalf("expected iterations [0 1], got %v", idxs)
	}
	found := map[backend.TaskKind]int{}
	for _, k := range be.order {
		found[k]++
	}
	if found[backend.WriteChunk] != 2 {
		t.Fatalf("expected 2 WriteChunk dispatches, got %d", found[backend.WriteChunk])
	}
	if found[backend.CreateDataset] != 2 {
		t.Fatalf("expected 2 CreateDataset dispatches (one per mesh component), got %d", found[backend.CreateDataset])
	}
}

func TestExpandFilenamePadsZeroWidth(t *testing.T) {
	got := expandFilename("data_%05T.json", 7)
	if got != "data_00007.json" {
		t.Fatalf("unexpected expansion: %q", got)
	}
	got2 := expandFilename("data_%T.json", 7)
	if got2 != "data_7.json" {
		t.Fatalf("unexpected expansion: %q", got2)
	}
}
