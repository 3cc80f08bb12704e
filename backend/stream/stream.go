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

// Package stream implements an ADIOS2-like streaming Backend (§4.6,
// §4.8 of SPEC_FULL.md): iterations are written step by step and only
// become visible to a reader once their end_step Advance barrier
// fires.
//
// This is grounded on two teacher patterns: tenant/dcache.Cache.mmap,
// which stages a cache fill under "ID.tmp" and only makes it visible
// under its final name via an atomic rename once the fill completes
// (Cache.finalize), and ion/blockfmt's Trailer, an append-only record
// of the parts committed to a stream so far. Here one iteration is one
// part: it is staged under parts/<N>.tmp while BeginStepOngoing/
// ActiveInStep, and only renamed to parts/<N> — and appended to the
// trailer — when its end_step Advance task arrives, so a concurrent
// reader can never observe a partially-written step.
package stream

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/openPMD/openpmd-go/backend"
	"github.com/openPMD/openpmd-go/backend/containerfs"
)

const dirMode = 0750

// Backend is a streaming, step-committed container rooted at Root. It
// delegates the actual group/dataset/attribute/chunk storage for each
// iteration to a containerfs.Backend rooted at that iteration's
// (possibly still-inflight) part directory.
type Backend struct {
	Root string

	mu sync.Mutex
}

// New returns a Backend rooted at root.
func New(root string) *Backend {
	return &Backend{Root: root}
}

// splitIterationPath separates the leading iteration-index path
// segment (the only structure this module's callers ever produce at
// the Series root — see series.Open's iteration container, whose
// basePath is empty) from the remainder of an openPMD path. Paths with
// no parseable leading index (the Series root's own attributes) are
// not iteration-scoped.
func splitIterationPath(p string) (idx uint64, rel string, isIteration bool) {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return 0, "", false
	}
	parts := strings.SplitN(p, "/", 2)
	n, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, "", false
	}
	if len(parts) == 2 {
		return n, "/" + parts[1], true
	}
	return n, "/", true
}

// partDir returns the directory currently backing iteration idx: its
// finalized parts/<idx> if end_step has already committed it, or its
// inflight parts/<idx>.tmp otherwise.
func (b *Backend) partDir(idx uint64) (dir string, finalized bool) {
	final := filepath.Join(b.Root, "parts", strconv.FormatUint(idx, 10))
	if fi, err := os.Stat(final); err == nil && fi.IsDir() {
		return final, true
	}
	return filepath.Join(b.Root, "parts", strconv.FormatUint(idx, 10)+".tmp"), false
}

func (b *Backend) globalDir() string {
	return filepath.Join(b.Root, "global")
}

// Dispatch executes one Task (§4.2): Advance tasks drive the
// stage/finalize lifecycle described in the package doc comment;
// every other task is routed to the containerfs.Backend rooted at the
// target iteration's current part directory (or the global directory,
// for the Series root's own attributes).
func (b *Backend) Dispatch(t *backend.Task) (backend.AdvanceStatus, error) {
	if t.Kind == backend.Advance {
		return b.advance(t)
	}
	idx, rel, isIter := splitIterationPath(t.Path)
	var root string
	if isIter {
		dir, _ := b.partDir(idx)
		root = dir
	} else {
		root = b.globalDir()
		rel = t.Path
	}
	inner := *t
	inner.Path = rel
	return containerfs.New(root).Dispatch(&inner)
}

func (b *Backend) advance(t *backend.Task) (backend.AdvanceStatus, error) {
	idx, _, ok := splitIterationPath(t.Path)
	if !ok {
		return backend.AdvanceOK, fmt.Errorf("stream: Advance task for %q has no resolvable iteration index", t.Path)
	}
	dir, finalized := b.partDir(idx)
	if t.BeginStep {
		if finalized {
			// a random-access reread of an already-committed step
			return backend.AdvanceOK, nil
		}
		return backend.AdvanceOK, os.MkdirAll(dir, dirMode)
	}
	// end_step: commit the step atomically.
	if finalized {
		return backend.AdvanceOK, nil
	}
	finalDir := filepath.Join(b.Root, "parts", strconv.FormatUint(idx, 10))
	if err := os.MkdirAll(filepath.Dir(finalDir), dirMode); err != nil {
		return backend.AdvanceOK, err
	}
	if err := os.Rename(dir, finalDir); err != nil {
		return backend.AdvanceOK, err
	}
	if err := b.appendTrailer(idx); err != nil {
		return backend.AdvanceOK, err
	}
	return backend.AdvanceOK, nil
}

func (b *Backend) trailerPath() string {
	return filepath.Join(b.Root, "trailer.json")
}

// appendTrailer records idx as committed, in commit order — the
// per-stream analogue of appending one more Blockdesc to a
// blockfmt.Trailer.
func (b *Backend) appendTrailer(idx uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	steps, err := b.readTrailerLocked()
	if err != nil {
		return err
	}
	steps = append(steps, idx)
	buf, err := json.Marshal(steps)
	if err != nil {
		return err
	}
	return containerfs.WriteFileAtomic(b.trailerPath(), buf)
}

func (b *Backend) readTrailerLocked() ([]uint64, error) {
	buf, err := os.ReadFile(b.trailerPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var steps []uint64
	if err := json.Unmarshal(buf, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// Trailer returns the committed step indices in commit order.
func (b *Backend) Trailer() ([]uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readTrailerLocked()
}

// Reader returns a StepReader replaying the trailer from its
// beginning, the read-side counterpart of the write-side staging
// above and a concrete iterator.StepSource.
func (b *Backend) Reader() *StepReader {
	return &StepReader{backend: b}
}

// StepReader implements iterator.StepSource by reporting, on each
// call to BeginStep, whichever step indices have committed to the
// trailer since the previous call.
type StepReader struct {
	backend *Backend
	seen    int
}

// BeginStep reports newly committed step indices since the last call,
// AdvanceOver once the trailer has stopped growing (§4.8).
func (r *StepReader) BeginStep() (backend.AdvanceStatus, []uint64, error) {
	steps, err := r.backend.Trailer()
	if err != nil {
		return backend.AdvanceOK, nil, err
	}
	if r.seen >= len(steps) {
		return backend.AdvanceOver, nil, nil
	}
	fresh := append([]uint64(nil), steps[r.seen:]...)
	r.seen = len(steps)
	return backend.AdvanceOK, fresh, nil
}
