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

package dataset

import (
	"testing"

	"github.com/openPMD/openpmd-go/attr"
	"github.com/openPMD/openpmd-go/backend"
)

type recordingBackend struct {
	writes int
	order  []backend.TaskKind
}

func (b *recordingBackend) Dispatch(t *backend.Task) (backend.AdvanceStatus, error) {
	b.order = append(b.order, t.Kind)
	if t.Kind == backend.WriteChunk {
		b.writes++
	}
	return backend.AdvanceOK, nil
}

func newComponent(t *testing.T) (*Component, *backend.Arena, *recordingBackend) {
	t.Helper()
	be := &recordingBackend{}
	arena := backend.NewArena(be)
	c := &Component{}
	id := arena.New(arena.Root(), []string{"E", "x"})
	c.Init(arena, id)
	return c, arena, be
}

func TestResetDatasetThenStoreChunk(t *testing.T) {
	c, arena, be := newComponent(t)
	if err := c.ResetDataset(attr.DOUBLE, []uint64{10}, `{"chunks":"auto"}`); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 80)
	if err := c.StoreChunk(buf, []uint64{0}, []uint64{10}); err != nil {
		t.Fatal(err)
	}
	if err := arena.Queue.Flush(backend.FlushParams{Level: backend.UserFlush}); err != nil {
		t.Fatal(err)
	}
	if be.writes != 1 {
		t.Fatalf("expected 1 write, got %d", be.writes)
	}
}

func TestJoinedDimensionUniqueness(t *testing.T) {
	c, _, _ := newComponent(t)
	err := c.ResetDataset(attr.DOUBLE, []uint64{JoinedDimension, JoinedDimension}, "")
	if err == nil {
		t.Fatal("expected WrongAPIUsage for duplicate JOINED_DIMENSION")
	}
}

func TestChunkBoundsExceeded(t *testing.T) {
	c, _, _ := newComponent(t)
	if err := c.ResetDataset(attr.DOUBLE, []uint64{10}, ""); err != nil {
		t.Fatal(err)
	}
	err := c.StoreChunk(make([]byte, 8), []uint64{5}, []uint64{10})
	if err == nil {
		t.Fatal("expected out-of-bounds chunk to fail")
	}
}

func TestJoinedDimensionAllowsAppendBeyondDeclaredExtent(t *testing.T) {
	c, _, _ := newComponent(t)
	if err := c.ResetDataset(attr.DOUBLE, []uint64{JoinedDimension}, ""); err != nil {
		t.Fatal(err)
	}
	if err := c.StoreChunk(make([]byte, 8), []uint64{1000}, []uint64{1}); err != nil {
		t.Fatalf("append along joined dimension should not bounds-check: %v", err)
	}
}

func TestConstantEmptyDisjoint(t *testing.T) {
	c, _, _ := newComponent(t)
	if err := c.MakeConstant(float64(0.3183098861837907)); err != nil {
		t.Fatal(err)
	}
	if !c.IsConstant() {
		t.Fatal("expected IsConstant true")
	}
	if err := c.MakeEmpty(attr.DOUBLE, 1); err == nil {
		t.Fatal("MakeEmpty after MakeConstant should fail")
	}
	if c.IsEmpty() {
		t.Fatal("failed MakeEmpty must not flip isEmpty")
	}
}

func TestConstantEmptyDisjointOtherOrder(t *testing.T) {
	c, _, _ := newComponent(t)
	if err := c.MakeEmpty(attr.DOUBLE, 2); err != nil {
		t.Fatal(err)
	}
	if err := c.MakeConstant(float64(1.0)); err == nil {
		t.Fatal("MakeConstant after MakeEmpty should fail")
	}
	if c.IsConstant() {
		t.Fatal("failed MakeConstant must not flip isConstant")
	}
}

func TestConstantRepresentationIsTwoAttributes(t *testing.T) {
	c, _, _ := newComponent(t)
	if err := c.ResetDataset(attr.DOUBLE, []uint64{10}, ""); err != nil {
		t.Fatal(err)
	}
	if err := c.MakeConstant(float64(2.0)); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.GetAttribute(constantValueAttr); !ok {
		t.Fatal("expected 'value' attribute")
	}
	if _, ok := c.GetAttribute(constantShapeAttr); !ok {
		t.Fatal("expected 'shape' attribute")
	}
}

func TestChunkFIFOOrder(t *testing.T) {
	c, arena, be := newComponent(t)
	if err := c.ResetDataset(attr.DOUBLE, []uint64{20}, ""); err != nil {
		t.Fatal(err)
	}
	if err := c.StoreChunk(make([]byte, 80), []uint64{0}, []uint64{10}); err != nil {
		t.Fatal(err)
	}
	if err := c.StoreChunk(make([]byte, 80), []uint64{10}, []uint64{10}); err != nil {
		t.Fatal(err)
	}
	if err := arena.Queue.Flush(backend.FlushParams{Level: backend.UserFlush}); err != nil {
		t.Fatal(err)
	}
	if be.writes != 2 {
		t.Fatalf("expected exactly 2 WriteChunk dispatches, got %d", be.writes)
	}
}

func TestStoreChunkSpanInvalidAfterFlush(t *testing.T) {
	c, arena, _ := newComponent(t)
	if err := c.ResetDataset(attr.DOUBLE, []uint64{4}, ""); err != nil {
		t.Fatal(err)
	}
	span, err := c.StoreChunkSpan([]uint64{0}, []uint64{4})
	if err != nil {
		t.Fatal(err)
	}
	vals := SpanAs[float64](span)
	for i := range vals {
		vals[i] = float64(i)
	}
	if !span.Valid() {
		t.Fatal("span should be valid before flush")
	}
	if err := arena.Queue.Flush(backend.FlushParams{Level: backend.UserFlush}); err != nil {
		t.Fatal(err)
	}
	if span.Valid() {
		t.Fatal("span should be invalid after flush")
	}
}
