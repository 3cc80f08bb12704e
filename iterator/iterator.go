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

// Package iterator implements the two access styles of §4.8 of
// SPEC_FULL.md over a series.Series: plain random-access Snapshots,
// and a Stateful cursor for streaming backends that advances through
// IO steps.
package iterator

import (
	"sort"

	"github.com/openPMD/openpmd-go/backend"
	"github.com/openPMD/openpmd-go/iteration"
	"github.com/openPMD/openpmd-go/logctx"
	"github.com/openPMD/openpmd-go/series"
)

// Snapshots is the random-access view: the iteration container is a
// normal ordered map, with plain forward/reverse traversal.
type Snapshots struct {
	s *series.Series
}

// NewSnapshots wraps s for random-access iteration.
func NewSnapshots(s *series.Series) *Snapshots { return &Snapshots{s: s} }

// Forward returns iteration indices in ascending order.
func (sn *Snapshots) Forward() []uint64 { return sn.s.Iterations() }

// Reverse returns iteration indices in descending order.
func (sn *Snapshots) Reverse() []uint64 {
	fwd := sn.s.Iterations()
	out := make([]uint64, len(fwd))
	for i, v := range fwd {
		out[len(fwd)-1-i] = v
	}
	return out
}

// StepSource is a streaming backend's step-advance primitive: begin a
// new step and report which iteration indices it contains. An empty
// (or nil) slice with AdvanceOK means the backend did not report a
// list and the caller should fall back to one-iteration-per-step in
// ascending index order (§4.8 step 2).
type StepSource interface {
	BeginStep() (backend.AdvanceStatus, []uint64, error)
}

// Stateful is the streaming cursor of §4.8: a single current-iteration
// position that advances through IO steps, never revisiting a closed
// iteration. The zero value is not usable; construct with New.
type Stateful struct {
	s      *series.Series
	src    StepSource
	log    *logctx.Logger
	linear bool // drop frontend state of closed iterations to bound memory

	seen    map[uint64]bool
	pending []uint64

	current    uint64
	hasCurrent bool
	isEnd      bool

	// fallbackNext is the next ascending index probed when the
	// backend doesn't report an explicit per-step iteration list.
	fallbackNext uint64
}

// New constructs a Stateful iterator over s, pulling new steps from
// src. linear enables dropping closed iterations' frontend state
// (§4.8 "the iterator may drop earlier iterations' frontend state...
// to bound memory"); log receives skip/duplicate diagnostics (may be
// nil, meaning logctx.Discard).
func New(s *series.Series, src StepSource, linear bool, log *logctx.Logger) *Stateful {
	if log == nil {
		log = logctx.Discard
	}
	return &Stateful{s: s, src: src, log: log, linear: linear, seen: make(map[uint64]bool)}
}

// Done reports whether the iterator has reached the end of the
// stream (AdvanceStatus OVER).
func (it *Stateful) Done() bool { return it.isEnd }

// Current returns the iteration the cursor currently points at. Valid
// only when Done() is false and Next() has returned true at least
// once.
func (it *Stateful) Current() (*iteration.Iteration, uint64, error) {
	i, err := it.s.Iteration(it.current)
	return i, it.current, err
}

// Next advances the cursor per the loop in §4.8:
//  1. if the current step still has unconsumed iterations, open the
//     next one; on open failure, log, skip, and retry;
//  2. otherwise close the current iteration and request begin_step;
//  3. on OVER, become the end-iterator;
//  4. duplicate/already-seen indices are discarded with a warning.
func (it *Stateful) Next() bool {
	if it.isEnd {
		return false
	}
	for {
		for len(it.pending) > 0 {
			idx := it.pending[0]
			it.pending = it.pending[1:]
			if it.seen[idx] {
				it.log.Printf("iteration %d already seen in an earlier step, discarding duplicate", idx)
				continue
			}
			it.seen[idx] = true
			i, err := it.s.Iteration(idx)
			if err != nil {
				it.log.Printf("iteration %d: %v, skipping", idx, err)
				continue
			}
			if err := i.Open(); err != nil {
				it.log.Printf("iteration %d: open failed: %v, skipping", idx, err)
				continue
			}
			it.advanceCurrent(idx)
			return true
		}

		if it.hasCurrent {
			cur, _, err := it.Current()
			if err == nil {
				_ = cur.Close(true, func() error { return it.s.Flush(backend.UserFlush) })
			}
			if it.linear {
				it.s.DropIteration(it.current)
			}
			it.hasCurrent = false
		}

		status, indices, err := it.src.BeginStep()
		if err != nil {
			it.log.Printf("begin_step failed: %v", err)
			it.isEnd = true
			return false
		}
		switch status {
		case backend.AdvanceOver:
			it.isEnd = true
			return false
		case backend.AdvanceRandomAccess, backend.AdvanceOK:
			if len(indices) > 0 {
				it.pending = append(it.pending, indices...)
				continue
			}
			it.pending = it.nextFallbackBatch()
			if len(it.pending) == 0 {
				it.isEnd = true
				return false
			}
			continue
		}
	}
}

func (it *Stateful) advanceCurrent(idx uint64) {
	it.current = idx
	it.hasCurrent = true
}

// nextFallbackBatch implements the "fall back to one-iteration-per-
// step in ascending index order" rule when the backend's begin_step
// does not report an iteration list: it scans the series' currently
// known iterations (ascending) for the first not-yet-seen index.
func (it *Stateful) nextFallbackBatch() []uint64 {
	all := it.s.Iterations()
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	for _, idx := range all {
		if idx >= it.fallbackNext && !it.seen[idx] {
			it.fallbackNext = idx + 1
			return []uint64{idx}
		}
	}
	return nil
}

// Equal implements the comparison semantics of §4.8: two stateful
// iterators compare equal iff both are end, or both reference the
// same series and the same current iteration index. Post-increment
// and decrement are intentionally not modeled (this type has no
// analogue of them).
func (it *Stateful) Equal(other *Stateful) bool {
	if it.isEnd && other.isEnd {
		return true
	}
	if it.isEnd != other.isEnd {
		return false
	}
	return it.s == other.s && it.hasCurrent && other.hasCurrent && it.current == other.current
}
