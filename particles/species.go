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

// Package particles implements ParticleSpecies, its constituent
// Records (id, position, charge, ...), and ParticlePatches (§4.5 of
// SPEC_FULL.md).
package particles

import (
	"fmt"

	"github.com/openPMD/openpmd-go/backend"
	"github.com/openPMD/openpmd-go/dataset"
	"github.com/openPMD/openpmd-go/hierarchy"
	"github.com/openPMD/openpmd-go/openpmderr"
)

const scalarComponentName = "SCALAR"

// Record is a named physical quantity belonging to a species (e.g.
// "position", "momentum"), composed of one or more typed components.
// Unlike mesh.Mesh it carries no grid-geometry attributes of its
// own — ParticleSpecies records are plain Attributable + component
// container, the per-record attribute schema in §6 ("particle
// species: arbitrary records with the same per-record attributes")
// being satisfied simply by calling SetAttribute directly.
type Record struct {
	hierarchy.Attributable

	comps  *hierarchy.Container[*dataset.Component]
	scalar *dataset.Component
}

func (r *Record) Init(arena *backend.Arena, id backend.ID) {
	r.Attributable.Init(arena, id)
	r.comps = hierarchy.NewContainer[*dataset.Component](arena, id, nil, hierarchy.ReadWrite,
		func() *dataset.Component { return &dataset.Component{} })
}

func (r *Record) path() string { return r.Arena.Path(r.ID) }

// ComponentNames lists this record's component names (or ["SCALAR"]).
func (r *Record) ComponentNames() []string {
	if r.scalar != nil {
		return []string{scalarComponentName}
	}
	return r.comps.Keys()
}

// Component returns (creating if necessary) the named component,
// applying the same SCALAR-exclusivity rule as mesh.Mesh.Component.
func (r *Record) Component(name string) (*dataset.Component, error) {
	if name == scalarComponentName {
		return r.ScalarComponent()
	}
	if r.scalar != nil {
		return nil, openpmderr.New(openpmderr.WrongAPIUsage, "Component", r.path(),
			fmt.Errorf("record already has a SCALAR component; cannot add component %q", name))
	}
	return r.comps.Get(name)
}

// ScalarComponent returns (creating if necessary) this record's sole
// SCALAR component, co-located at the record's own Writable.
func (r *Record) ScalarComponent() (*dataset.Component, error) {
	if r.comps.Len() > 0 {
		return nil, openpmderr.New(openpmderr.WrongAPIUsage, "ScalarComponent", r.path(),
			fmt.Errorf("record already has non-SCALAR components"))
	}
	if r.scalar == nil {
		c := &dataset.Component{}
		c.Init(r.Arena, r.ID)
		r.Arena.SetCreator(r.ID, c.CreateTask)
		r.scalar = c
	}
	return r.scalar, nil
}

// FlushAttributes flushes record-level attributes and, for the
// SCALAR form, the co-located component's attributes.
func (r *Record) FlushAttributes() {
	r.Attributable.FlushAttributes()
	if r.scalar != nil {
		r.scalar.FlushAttributes()
	}
}

// Species is a set of records keyed by particle identity (§4.5,
// GLOSSARY).
type Species struct {
	hierarchy.Attributable

	records *hierarchy.Container[*Record]
	Patches *Patches
}

func (s *Species) Init(arena *backend.Arena, id backend.ID) {
	s.Attributable.Init(arena, id)
	s.records = hierarchy.NewContainer[*Record](arena, id, nil, hierarchy.ReadWrite,
		func() *Record { return &Record{} })
	s.Patches = newPatches(arena, id)
}

// Record returns (creating if necessary) the named record (e.g.
// "position", "id", "charge").
func (s *Species) Record(name string) (*Record, error) {
	return s.records.Get(name)
}

// RecordNames lists the species' record names.
func (s *Species) RecordNames() []string {
	return s.records.Keys()
}

// Erase removes the named record, emitting a delete task if it was
// already written (§4.3).
func (s *Species) Erase(name string) int {
	return s.records.Erase(name, backend.DeletePath)
}
