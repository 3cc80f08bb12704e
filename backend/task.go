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

package backend

import "github.com/openPMD/openpmd-go/attr"

// TaskKind is the closed set of deferred operations a Task can carry
// (§4.2 of SPEC_FULL.md).
type TaskKind int

const (
	CreatePath TaskKind = iota
	CreateDataset
	OpenPath
	OpenDataset
	OpenFile
	CloseFile
	DeletePath
	DeleteDataset
	WriteAttribute
	ReadAttribute
	ListPaths
	ListDatasets
	ListAttributes
	WriteChunk
	ReadChunk
	GetBufferView
	Advance
)

func (k TaskKind) String() string {
	names := [...]string{
		"CreatePath", "CreateDataset", "OpenPath", "OpenDataset", "OpenFile",
		"CloseFile", "DeletePath", "DeleteDataset", "WriteAttribute", "ReadAttribute",
		"ListPaths", "ListDatasets", "ListAttributes", "WriteChunk", "ReadChunk",
		"GetBufferView", "Advance",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "TaskKind(?)"
}

// ChunkBuffer carries the data payload of a WriteChunk task. Data
// always holds the payload; FromSpan tells which of the ownership
// options of store_chunk in §4.4 it came from: shared (ref-counted,
// here just a Go slice, which is already reference-counted by the
// runtime), unique (same representation — Go has no analogue of a
// custom deleter, the garbage collector plays that role), or a view
// previously handed out by GetBufferView.
type ChunkBuffer struct {
	Data []byte
	// FromSpan is true if Data is memory that was previously handed
	// to the frontend via a GetBufferView task and is being reused
	// in place rather than copied.
	FromSpan bool
}

// ChunkGeometry describes the hyperrectangular region targeted by a
// WriteChunk/ReadChunk/GetBufferView task.
type ChunkGeometry struct {
	Offset []uint64
	Extent []uint64
}

// Task is one deferred operation targeting a Writable. Concrete
// fields are only valid for the Kinds that use them; this mirrors the
// teacher's Blockdesc-as-plain-struct style rather than introducing a
// full sealed-interface hierarchy, since the set of fields per kind is
// small and fixed.
type Task struct {
	Kind   TaskKind
	Target ID
	// Path is Target's full slash-joined openPMD path, resolved by
	// Queue.Enqueue at enqueue time (§4.9): concrete backends that
	// address nodes by filesystem/group path (containerfs, debugfs)
	// read this instead of re-deriving it from the arena, which they
	// have no reference to.
	Path string

	// CreateDataset / reset_dataset parameters.
	Datatype attr.Datatype
	Extent   []uint64
	DatasetConfig string // raw JSON/TOML fragment, backend-specific

	// WriteAttribute / ReadAttribute parameters.
	AttributeName string
	Attribute     attr.Value

	// WriteChunk / ReadChunk / GetBufferView parameters.
	Chunk  ChunkGeometry
	Buffer ChunkBuffer
	// LoadInto receives ReadChunk results; set by the frontend
	// before the task is flushed, filled in by the backend.
	LoadInto []byte

	// Advance parameters: true for begin-step, false for end-step.
	BeginStep bool

	// noop is set by Queue.Delete when a prior pending task on a
	// deleted Writable must no longer be executed, per ordering
	// guarantee #4 in spec.md §4.2.
	noop bool
}

// IsNoop reports whether this task was cancelled by a later Delete on
// the same Writable and should be skipped by the backend dispatcher.
func (t *Task) IsNoop() bool { return t.noop }
