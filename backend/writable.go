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

// Package backend implements the Writable/IOTask/Handler layer: the
// backend-facing handle attached to every hierarchy node, the
// deferred task queue, and the flush ordering guarantees of §4.2 and
// §4.9 of SPEC_FULL.md.
//
// This is modeled on ion/blockfmt.MultiWriter in the teacher package:
// a single shared, buffered writer that many logical streams feed
// into, whose contents only become visible to backing storage once
// Close (here: Flush) is called. Where the teacher uses a concrete
// *MultiWriter, the core here uses an arena of Writables addressed by
// stable integer index (see REDESIGN FLAGS in spec.md §9), owned by
// the Series, so that the shared handler and parent back-pointers
// never form reference cycles.
package backend

// Position is an opaque, backend-assigned handle to a node's location
// within the backend's own address space (an HDF5 object id, an
// ADIOS2 variable handle, ...). The core never interprets it.
type Position any

// ID is a stable arena index identifying one Writable within a
// Series. Writable.Parent and task Target fields reference other
// Writables by ID rather than by pointer, per the REDESIGN FLAGS
// note in spec.md §9: this removes the shared-pointer graph in favor
// of an arena owned by the Series.
type ID int

// InvalidID is the zero value, used for the root Writable which has
// no parent.
const InvalidID ID = 0

// Writable is the backend anchor for one hierarchy node (§3).
type Writable struct {
	// ID is this writable's own arena index.
	ID ID
	// Parent is the arena index of the parent writable, or
	// InvalidID for the Series root.
	Parent ID
	// OwnKeyWithinParent is the path fragment sequence identifying
	// this node within its parent, used for diagnostics and path
	// reconstruction (e.g. ["meshes", "E", "x"]).
	OwnKeyWithinParent []string

	// Position is the abstract file position of this node. None of
	// the backends in this module assigns it; it stays zero.
	Position Position

	// DirtySelf is true if this node's own attributes or data have
	// changed since the last successful flush.
	DirtySelf bool
	// DirtyRecursive is true if this node or any descendant is
	// dirty. Invariant: a dirty child implies DirtyRecursive on
	// every ancestor.
	DirtyRecursive bool
	// Written is true once the backend has realized this node. It
	// never regresses to false except via an explicit delete.
	Written bool

	// IsDataset distinguishes a record-component leaf (CreateDataset)
	// from a plain group (CreatePath) during the flush traversal
	// (§4.9). False at construction; set by Arena.MarkDataset.
	IsDataset bool
}

// NewWritable returns a freshly allocated, not-yet-written Writable
// with the given parent and path fragment.
func NewWritable(parent ID, ownKey []string) *Writable {
	return &Writable{Parent: parent, OwnKeyWithinParent: ownKey}
}

// Path joins OwnKeyWithinParent for diagnostics. Arena callers
// typically prepend ancestor fragments; Path here returns only this
// node's own fragment sequence, joined with "/".
func (w *Writable) Path() string {
	s := ""
	for i, p := range w.OwnKeyWithinParent {
		if i > 0 || s != "" {
			s += "/"
		}
		s += p
	}
	return s
}
