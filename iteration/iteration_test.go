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

package iteration

import (
	"testing"

	"github.com/openPMD/openpmd-go/backend"
)

type noopBackend struct{}

func (noopBackend) Dispatch(t *backend.Task) (backend.AdvanceStatus, error) {
	return backend.AdvanceOK, nil
}

func newIteration(t *testing.T, streaming bool) (*Iteration, *backend.Arena) {
	t.Helper()
	arena := backend.NewArena(noopBackend{})
	it := &Iteration{Streaming: streaming}
	id := arena.New(arena.Root(), []string{"1"})
	it.Init(arena, id)
	return it, arena
}

func TestIterationOpenCloseFlushesAndTransitions(t *testing.T) {
	it, arena := newIteration(t, false)
	if err := it.Open(); err != nil {
		t.Fatal(err)
	}
	if it.State() != ActiveInStep {
		t.Fatalf("expected ActiveInStep, got %v", it.State())
	}
	if _, err := it.Meshes.Get("E"); err != nil {
		t.Fatal(err)
	}
	if err := it.Close(true, func() error {
		return arena.Queue.Flush(backend.FlushParams{Level: backend.UserFlush})
	}); err != nil {
		t.Fatal(err)
	}
	if it.State() != ClosedInBackend {
		t.Fatalf("expected ClosedInBackend, got %v", it.State())
	}
}

func TestIterationDoubleCloseFails(t *testing.T) {
	it, arena := newIteration(t, false)
	flush := func() error { return arena.Queue.Flush(backend.FlushParams{Level: backend.UserFlush}) }
	if err := it.Close(true, flush); err != nil {
		t.Fatal(err)
	}
	if err := it.Close(true, flush); err == nil {
		t.Fatal("expected WrongAPIUsage on double close")
	}
}

func TestIterationMonotonicityInStreamingMode(t *testing.T) {
	it, arena := newIteration(t, true)
	flush := func() error { return arena.Queue.Flush(backend.FlushParams{Level: backend.UserFlush}) }
	if err := it.Close(true, flush); err != nil {
		t.Fatal(err)
	}
	if err := it.Open(); err == nil {
		t.Fatal("expected streaming reopen to fail (monotonic close)")
	}
}

func TestIterationRandomAccessMayReopen(t *testing.T) {
	it, arena := newIteration(t, false)
	flush := func() error { return arena.Queue.Flush(backend.FlushParams{Level: backend.UserFlush}) }
	if err := it.Close(true, flush); err != nil {
		t.Fatal(err)
	}
	if err := it.Open(); err != nil {
		t.Fatalf("random-access reopen should succeed: %v", err)
	}
	if it.State() != ActiveInStep {
		t.Fatalf("expected ActiveInStep after reopen, got %v", it.State())
	}
}

func TestIterationCustomHierarchy(t *testing.T) {
	it, _ := newIteration(t, false)
	g, err := it.Custom.Group("user")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Dataset("foo"); err != nil {
		t.Fatal(err)
	}
	if len(g.DatasetNames()) != 1 {
		t.Fatalf("expected 1 dataset, got %d", len(g.DatasetNames()))
	}
	nested, err := g.Group("nested")
	if err != nil {
		t.Fatal(err)
	}
	if len(it.Custom.GroupNames()) != 1 || it.Custom.GroupNames()[0] != "user" {
		t.Fatalf("unexpected custom group names: %v", it.Custom.GroupNames())
	}
	_ = nested
}
