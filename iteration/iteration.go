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

// Package iteration implements Iteration and its step state machine
// (§4.6 of SPEC_FULL.md): the aggregate of meshes, particles, and a
// free-form custom hierarchy for one simulation snapshot, plus the
// Default/Parsing/.../ClosedInBackend lifecycle.
package iteration

import (
	"fmt"

	"github.com/openPMD/openpmd-go/backend"
	"github.com/openPMD/openpmd-go/hierarchy"
	"github.com/openPMD/openpmd-go/mesh"
	"github.com/openPMD/openpmd-go/openpmderr"
	"github.com/openPMD/openpmd-go/particles"
)

// State is the iteration's position in the step state machine (§4.6).
type State int

const (
	Default State = iota
	Parsing
	BeginStepOngoing
	ActiveInStep
	ClosedInFrontend
	ClosedInBackend
)

func (s State) String() string {
	switch s {
	case Default:
		return "Default"
	case Parsing:
		return "Parsing"
	case BeginStepOngoing:
		return "BeginStepOngoing"
	case ActiveInStep:
		return "ActiveInStep"
	case ClosedInFrontend:
		return "ClosedInFrontend"
	case ClosedInBackend:
		return "ClosedInBackend"
	}
	return "State(?)"
}

// Iteration is one simulation snapshot (§3, §4.6).
type Iteration struct {
	hierarchy.Attributable

	Meshes    *hierarchy.Container[*mesh.Mesh]
	Particles *hierarchy.Container[*particles.Species]
	Custom    *Group

	state State
	// Streaming is set by the owning Series at construction time: it
	// is true for the variable-based encoding and false for file- and
	// group-based series. It governs whether a
	// close is monotonic (§8 "Iteration monotonicity").
	Streaming bool
}

// Init wires this Iteration's Writable and its meshes/particles/custom
// containers. Called by the Series' iteration Container on creation.
func (it *Iteration) Init(arena *backend.Arena, id backend.ID) {
	it.Attributable.Init(arena, id)
	it.Meshes = hierarchy.NewContainer[*mesh.Mesh](arena, id, []string{"meshes"}, hierarchy.ReadWrite,
		func() *mesh.Mesh { return &mesh.Mesh{} })
	it.Meshes.Generate = mesh.ApplyDefaults
	it.Particles = hierarchy.NewContainer[*particles.Species](arena, id, []string{"particles"}, hierarchy.ReadWrite,
		func() *particles.Species { return &particles.Species{} })
	it.Custom = newGroup(arena, id, nil)
	it.state = Default
}

func (it *Iteration) path() string { return it.Arena.Path(it.ID) }

// State reports the current lifecycle state.
func (it *Iteration) State() State { return it.state }

// SetTime stores the iteration's "time" attribute.
func (it *Iteration) SetTime(t float64) error { return it.SetAttribute("time", t) }

// SetDt stores the iteration's "dt" attribute.
func (it *Iteration) SetDt(dt float64) error { return it.SetAttribute("dt", dt) }

// SetTimeUnitSI stores the iteration's "timeUnitSI" attribute.
func (it *Iteration) SetTimeUnitSI(u float64) error { return it.SetAttribute("timeUnitSI", u) }

// Open transitions a not-yet-opened iteration to ActiveInStep,
// enqueuing the backend's OpenPath task (§4.6). Random-access modes
// may re-open a previously ClosedInBackend iteration; streaming modes
// may not (§8 "Iteration monotonicity").
func (it *Iteration) Open() error {
	if it.state == ClosedInBackend || it.state == ClosedInFrontend {
		if it.Streaming {
			return openpmderr.New(openpmderr.WrongAPIUsage, "Open", it.path(),
				fmt.Errorf("iteration already closed in a streaming series"))
		}
		// random access: fall through to reopen
	}
	it.Arena.Queue.Enqueue(&backend.Task{Kind: backend.OpenPath, Target: it.ID})
	it.state = ActiveInStep
	return nil
}

// Close flushes pending tasks for this iteration's subtree (via
// flush, supplied by the caller — typically series.Series.Flush
// scoped to this iteration) and transitions to ClosedInFrontend, then
// ClosedInBackend if flush succeeds (§4.6).
func (it *Iteration) Close(doFlush bool, flush func() error) error {
	if it.state == ClosedInFrontend || it.state == ClosedInBackend {
		return openpmderr.New(openpmderr.WrongAPIUsage, "Close", it.path(),
			fmt.Errorf("iteration is already closed"))
	}
	it.Arena.Queue.Enqueue(&backend.Task{Kind: backend.CloseFile, Target: it.ID})
	it.state = ClosedInFrontend
	if !doFlush {
		return nil
	}
	if err := flush(); err != nil {
		return err
	}
	it.state = ClosedInBackend
	return nil
}

// BeginStep issues a begin-step Advance barrier (§4.6, §5: "The core
// issues those barriers automatically at begin_step, end_step, and
// close"). It does not check Streaming: the call succeeds for any
// encoding.
func (it *Iteration) BeginStep() (backend.AdvanceStatus, error) {
	it.state = BeginStepOngoing
	t := &backend.Task{Kind: backend.Advance, Target: it.ID, BeginStep: true}
	it.Arena.Queue.Enqueue(t)
	it.state = ActiveInStep
	return backend.AdvanceOK, nil
}

// EndStep issues an end-step Advance barrier.
func (it *Iteration) EndStep() (backend.AdvanceStatus, error) {
	t := &backend.Task{Kind: backend.Advance, Target: it.ID, BeginStep: false}
	it.Arena.Queue.Enqueue(t)
	return backend.AdvanceOK, nil
}
