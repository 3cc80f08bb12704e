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

// Package dataset implements RecordComponent (§4.4 of SPEC_FULL.md):
// a typed N-D dataset leaf with extent/offset geometry, constant and
// empty modes, and deferred store/load chunk operations.
//
// This is grounded on ion/blockfmt.Blockdesc/Trailer in the teacher
// package: a RecordComponent's chunk history plays the role that
// Trailer.Blocks plays for one compressed stream, and store_chunk's
// deferred-until-flush behavior mirrors how MultiWriter only commits
// bytes to the Uploader when told to Close.
package dataset

import (
	"fmt"

	"github.com/openPMD/openpmd-go/attr"
	"github.com/openPMD/openpmd-go/backend"
	"github.com/openPMD/openpmd-go/hierarchy"
	"github.com/openPMD/openpmd-go/openpmderr"
)

// JoinedDimension is the sentinel extent value meaning "append along
// this axis" (§4.4, GLOSSARY). At most one coordinate of an extent
// may carry it.
const JoinedDimension uint64 = ^uint64(0)

// ChunkDescriptor describes one previously-written chunk, as returned
// by AvailableChunks.
type ChunkDescriptor struct {
	Offset       []uint64
	Extent       []uint64
	SourceID     int // producing-rank identifier, default 0
}

// Component is a typed N-D dataset leaf (§3, §4.4).
type Component struct {
	hierarchy.Attributable

	datatype attr.Datatype
	extent   []uint64
	unitSI   float64

	resetDone   bool // reset_dataset has been called at least once
	joinedDim   int  // index of the JOINED_DIMENSION axis, or -1

	isConstant    bool
	constantValue attr.Value

	isEmpty      bool
	emptyNDims   int

	config string // raw JSON/TOML dataset options fragment

	chunks []ChunkDescriptor // bookkeeping of chunks enqueued for write
}

// Init wires this Component's Writable, flagging it as a dataset leaf
// (rather than a plain group) for the flush traversal's
// CreatePath/CreateDataset choice (§4.9). This overrides the embedded
// Attributable.Init promoted method so every Component — whether
// allocated by a Container[*Component] or co-located at a SCALAR
// record's own Writable ID — gets the flag.
func (c *Component) Init(arena *backend.Arena, id backend.ID) {
	c.Attributable.Init(arena, id)
	arena.MarkDataset(id)
}

// Datatype returns the element type of this component.
func (c *Component) Datatype() attr.Datatype { return c.datatype }

// Extent returns a copy of the declared extent.
func (c *Component) Extent() []uint64 {
	out := make([]uint64, len(c.extent))
	copy(out, c.extent)
	return out
}

// UnitSI returns the scaling factor to SI.
func (c *Component) UnitSI() float64 { return c.unitSI }

// SetUnitSI sets the scaling factor to SI, stored as the reserved
// "unitSI" attribute (§6).
func (c *Component) SetUnitSI(v float64) error {
	c.unitSI = v
	return c.SetAttribute("unitSI", v)
}

func (c *Component) path() string {
	return c.Arena.Path(c.ID)
}

func countJoined(extent []uint64) int {
	idx := -1
	for i, e := range extent {
		if e == JoinedDimension {
			if idx != -1 {
				return -2 // more than one: caller treats any negative <-1 as "duplicate"
			}
			idx = i
		}
	}
	return idx
}

// ResetDataset declares this component's datatype and extent (§4.4).
// Before the first write it may be called any number of times, each
// call replacing the previous declaration. After the component has
// been written, a call with the same datatype and rank that shrinks no
// dimension is accepted; it updates the extent held here only, and no
// task is sent to resize the backend dataset. Any other change after
// the component has been written fails with WrongAPIUsage. Declaring
// JoinedDimension twice fails immediately.
func (c *Component) ResetDataset(dt attr.Datatype, extent []uint64, config string) error {
	joined := countJoined(extent)
	if joined == -2 {
		return openpmderr.New(openpmderr.WrongAPIUsage, "ResetDataset", c.path(),
			fmt.Errorf("extent declares JOINED_DIMENSION more than once"))
	}
	if c.isConstant || c.isEmpty {
		return openpmderr.New(openpmderr.WrongAPIUsage, "ResetDataset", c.path(),
			fmt.Errorf("component is constant or empty"))
	}

	w := c.Writable()
	if !c.resetDone || !w.Written {
		c.datatype = dt
		c.extent = append([]uint64(nil), extent...)
		c.joinedDim = joined
		c.config = config
		c.resetDone = true
		c.Arena.MarkDirty(c.ID)
		return nil
	}

	// subsequent call once the backend has realized the dataset:
	// datatype and rank must stay the same and no dimension may
	// shrink.
	if dt != c.datatype {
		return openpmderr.New(openpmderr.WrongAPIUsage, "ResetDataset", c.path(),
			fmt.Errorf("cannot change datatype after first reset_dataset"))
	}
	if len(extent) != len(c.extent) {
		return openpmderr.New(openpmderr.WrongAPIUsage, "ResetDataset", c.path(),
			fmt.Errorf("cannot change rank after first reset_dataset"))
	}
	if w.Written {
		for i := range extent {
			if extent[i] < c.extent[i] && extent[i] != JoinedDimension {
				return openpmderr.New(openpmderr.WrongAPIUsage, "ResetDataset", c.path(),
					fmt.Errorf("dimension %d would shrink from %d to %d", i, c.extent[i], extent[i]))
			}
		}
	}
	c.extent = append([]uint64(nil), extent...)
	c.joinedDim = joined
	c.Arena.MarkDirty(c.ID)
	return nil
}

// checkBounds validates that a chunk [offset, offset+extent) fits
// within the declared extent, except along the joined dimension
// where offset is treated as an append position with no upper bound
// (§4.4).
func (c *Component) checkBounds(op string, offset, extent []uint64) error {
	if len(offset) != len(c.extent) || len(extent) != len(c.extent) {
		return openpmderr.New(openpmderr.WrongAPIUsage, op, c.path(),
			fmt.Errorf("offset/extent rank %d/%d does not match declared rank %d", len(offset), len(extent), len(c.extent)))
	}
	for i := range extent {
		if i == c.joinedDim {
			continue
		}
		if offset[i]+extent[i] > c.extent[i] {
			return openpmderr.New(openpmderr.WrongAPIUsage, op, c.path(),
				fmt.Errorf("chunk [%d, %d) exceeds declared extent %d on axis %d", offset[i], offset[i]+extent[i], c.extent[i], i))
		}
	}
	return nil
}

// StoreChunk enqueues a deferred write of buf into [offset, offset+extent).
// buf must not be mutated by the caller until after a successful
// Flush; per §4.4 this is the caller's responsibility, not enforced
// by the type system (mirroring MultiWriter's documented buffer
// ownership contract in the teacher package).
func (c *Component) StoreChunk(buf []byte, offset, extent []uint64) error {
	if c.isConstant || c.isEmpty {
		return openpmderr.New(openpmderr.WrongAPIUsage, "StoreChunk", c.path(),
			fmt.Errorf("cannot store_chunk on a constant or empty component"))
	}
	if !c.resetDone {
		return openpmderr.New(openpmderr.WrongAPIUsage, "StoreChunk", c.path(),
			fmt.Errorf("reset_dataset must be called before store_chunk"))
	}
	if err := c.checkBounds("StoreChunk", offset, extent); err != nil {
		return err
	}
	c.Arena.Queue.Enqueue(&backend.Task{
		Kind:   backend.WriteChunk,
		Target: c.ID,
		Chunk:  backend.ChunkGeometry{Offset: append([]uint64(nil), offset...), Extent: append([]uint64(nil), extent...)},
		Buffer: backend.ChunkBuffer{Data: buf},
	})
	c.chunks = append(c.chunks, ChunkDescriptor{
		Offset: append([]uint64(nil), offset...),
		Extent: append([]uint64(nil), extent...),
	})
	c.Arena.MarkDirty(c.ID)
	return nil
}

// LoadChunk enqueues a deferred read of [offset, offset+extent) into
// target. target becomes defined only after a successful Flush.
func (c *Component) LoadChunk(target []byte, offset, extent []uint64) error {
	if err := c.checkBounds("LoadChunk", offset, extent); err != nil {
		return err
	}
	c.Arena.Queue.Enqueue(&backend.Task{
		Kind:     backend.ReadChunk,
		Target:   c.ID,
		Chunk:    backend.ChunkGeometry{Offset: append([]uint64(nil), offset...), Extent: append([]uint64(nil), extent...)},
		LoadInto: target,
	})
	return nil
}

// CreateTask builds this component's CreateDataset task for the
// flush traversal (§4.9), or nil if it must never be realized as a
// backend dataset object: a constant or empty component carries only
// its value/shape attributes, co-located with its owning record's
// group (§4.4 "is_empty... is not materialized").
func (c *Component) CreateTask() *backend.Task {
	if c.isConstant || c.isEmpty {
		return nil
	}
	return &backend.Task{
		Kind:          backend.CreateDataset,
		Target:        c.ID,
		Datatype:      c.datatype,
		Extent:        append([]uint64(nil), c.extent...),
		DatasetConfig: c.config,
	}
}

// AvailableChunks returns the chunks enqueued for write on this
// component so far (in a real backend this would instead reflect
// what has actually been persisted; for the in-tree backends flush
// realizes every enqueued chunk so the two views coincide once
// Flush has been called).
func (c *Component) AvailableChunks() []ChunkDescriptor {
	out := make([]ChunkDescriptor, len(c.chunks))
	copy(out, c.chunks)
	return out
}
