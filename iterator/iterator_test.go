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

package iterator

import (
	"testing"

	"github.com/openPMD/openpmd-go/backend"
	"github.com/openPMD/openpmd-go/config"
	"github.com/openPMD/openpmd-go/series"
)

type noopBackend struct{}

func (noopBackend) Dispatch(t *backend.Task) (backend.AdvanceStatus, error) {
	return backend.AdvanceOK, nil
}

// scriptedSource replays a fixed sequence of begin_step outcomes.
type scriptedSource struct {
	steps []stepResult
	i     int
}

type stepResult struct {
	status  backend.AdvanceStatus
	indices []uint64
}

func (s *scriptedSource) BeginStep() (backend.AdvanceStatus, []uint64, error) {
	if s.i >= len(s.steps) {
		return backend.AdvanceOver, nil, nil
	}
	r := s.steps[s.i]
	s.i++
	return r.status, r.indices, nil
}

func newStreamingSeries(t *testing.T) *series.Series {
	t.Helper()
	cfg, err := config.Parse([]byte(`{"backend":"adios2","iteration_encoding":"variable_based"}`))
	if err != nil {
		t.Fatal(err)
	}
	s, err := series.Open("stream.bp", noopBackend{}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStatefulIteratesReportedIndicesAndEnds(t *testing.T) {
	s := newStreamingSeries(t)
	src := &scriptedSource{steps: []stepResult{
		{status: backend.AdvanceOK, indices: []uint64{0, 1}},
		{status: backend.AdvanceOK, indices: []uint64{2}},
	}}
	it := New(s, src, false, nil)

	var seen []uint64
	for it.Next() {
		_, idx, err := it.Current()
		if err != nil {
			t.Fatal(err)
		}
		seen = append(seen, idx)
	}
	if !it.Done() {
		t.Fatal("expected iterator to be done")
	}
	if len(seen) != 3 || seen[0] != 0 || seen[1] != 1 || seen[2] != 2 {
		t.Fatalf("unexpected sequence: %v", seen)
	}
}

func TestStatefulDiscardsDuplicateIndices(t *testing.T) {
	s := newStreamingSeries(t)
	src := &scriptedSource{steps: []stepResult{
		{status: backend.AdvanceOK, indices: []uint64{0, 0, 1}},
	}}
	it := New(s, src, false, nil)

	var seen []uint64
	for it.Next() {
		_, idx, _ := it.Current()
		seen = append(seen, idx)
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Fatalf("expected duplicate 0 discarded, got %v", seen)
	}
}

func TestStatefulFallsBackToAscendingOrderWhenNoListReported(t *testing.T) {
	s := newStreamingSeries(t)
	// Pre-populate the series with iterations 0 and 1 (as a random-
	// access reader might have already discovered).
	if _, err := s.Iteration(0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Iteration(1); err != nil {
		t.Fatal(err)
	}
	src := &scriptedSource{steps: []stepResult{
		{status: backend.AdvanceOK},
		{status: backend.AdvanceOK},
	}}
	it := New(s, src, false, nil)

	var seen []uint64
	for it.Next() {
		_, idx, _ := it.Current()
		seen = append(seen, idx)
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Fatalf("expected fallback ascending order [0 1], got %v", seen)
	}
}

func TestStatefulEqualComparesSeriesAndCurrent(t *testing.T) {
	s := newStreamingSeries(t)
	src := &scriptedSource{steps: []stepResult{{status: backend.AdvanceOK, indices: []uint64{5}}}}
	a := New(s, src, false, nil)
	b := New(s, src, false, nil)
	a.Next()
	if a.Equal(b) {
		t.Fatal("expected not-yet-advanced iterator to differ")
	}
	endA := New(s, &scriptedSource{}, false, nil)
	endB := New(s, &scriptedSource{}, false, nil)
	endA.Next()
	endB.Next()
	if !endA.Equal(endB) {
		t.Fatal("expected two end-iterators to compare equal")
	}
}

func TestSnapshotsForwardAndReverse(t *testing.T) {
	s := newStreamingSeries(t)
	for _, idx := range []uint64{0, 1, 2} {
		if _, err := s.Iteration(idx); err != nil {
			t.Fatal(err)
		}
	}
	sn := NewSnapshots(s)
	fwd := sn.Forward()
	if len(fwd) != 3 || fwd[0] != 0 || fwd[2] != 2 {
		t.Fatalf("unexpected forward order: %v", fwd)
	}
	rev := sn.Reverse()
	if len(rev) != 3 || rev[0] != 2 || rev[2] != 0 {
		t.Fatalf("unexpected reverse order: %v", rev)
	}
}
