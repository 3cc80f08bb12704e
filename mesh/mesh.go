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

// Package mesh implements the Mesh record specialization (§4.5 of
// SPEC_FULL.md): a record sampled on a regular grid, with validated
// geometry/axis/spacing attributes on top of the plain Component
// chunked-dataset leaves from package dataset.
package mesh

import (
	"fmt"
	"strings"

	"github.com/openPMD/openpmd-go/attr"
	"github.com/openPMD/openpmd-go/backend"
	"github.com/openPMD/openpmd-go/dataset"
	"github.com/openPMD/openpmd-go/hierarchy"
	"github.com/openPMD/openpmd-go/openpmderr"
)

// scalarComponentName is the reserved child name meaning "this record
// has exactly one, unnamed component" (§4.4, §4.5).
const scalarComponentName = "SCALAR"

// DataOrder is the mesh axis/storage order (§4.5).
type DataOrder string

const (
	RowMajor    DataOrder = "C"
	ColumnMajor DataOrder = "F"
)

var knownGeometries = map[string]bool{
	"cartesian": true, "thetaMode": true, "cylindrical": true, "spherical": true,
}

// Mesh is a record specialization with grid geometry metadata (§4.5).
type Mesh struct {
	hierarchy.Attributable

	comps  *hierarchy.Container[*dataset.Component]
	scalar *dataset.Component
}

// Init wires this Mesh's Writable and its (initially empty) component
// container. Called by the enclosing Container[*Mesh] on creation, or
// directly by callers building a root-level Mesh (tests, readers).
func (m *Mesh) Init(arena *backend.Arena, id backend.ID) {
	m.Attributable.Init(arena, id)
	m.comps = hierarchy.NewContainer[*dataset.Component](arena, id, nil, hierarchy.ReadWrite,
		func() *dataset.Component { return &dataset.Component{} })
}

// ApplyDefaults is the Mesh generation policy run by Container[*Mesh]
// on creation-on-access (§4.3 "a type-specific generation policy,
// e.g. Mesh receives default unit dimension").
func ApplyDefaults(m *Mesh) {
	m.SetUnitDimension(map[int]float64{})
}

func (m *Mesh) path() string { return m.Arena.Path(m.ID) }

// ComponentNames lists the names of all non-SCALAR components, or a
// single "SCALAR" entry if that form is in use.
func (m *Mesh) ComponentNames() []string {
	if m.scalar != nil {
		return []string{scalarComponentName}
	}
	return m.comps.Keys()
}

// Component returns (creating if necessary) the named component. Use
// "SCALAR" to access the single-component form; mixing SCALAR with
// any other name on the same Mesh is a WrongAPIUsage error, matching
// §3's "a record either has exactly one child named SCALAR or any
// number of non-SCALAR children, never both."
func (m *Mesh) Component(name string) (*dataset.Component, error) {
	if name == scalarComponentName {
		return m.ScalarComponent()
	}
	if m.scalar != nil {
		return nil, openpmderr.New(openpmderr.WrongAPIUsage, "Component", m.path(),
			fmt.Errorf("record already has a SCALAR component; cannot add component %q", name))
	}
	return m.comps.Get(name)
}

// ScalarComponent returns (creating if necessary) this record's sole
// SCALAR component. Per §4.5, a record with a single scalar component
// serializes under the record's own path rather than nesting one
// level deeper, so the returned Component shares this Mesh's own
// Writable ID instead of allocating a new arena entry.
func (m *Mesh) ScalarComponent() (*dataset.Component, error) {
	if m.comps.Len() > 0 {
		return nil, openpmderr.New(openpmderr.WrongAPIUsage, "ScalarComponent", m.path(),
			fmt.Errorf("record already has non-SCALAR components"))
	}
	if m.scalar == nil {
		c := &dataset.Component{}
		c.Init(m.Arena, m.ID)
		m.Arena.SetCreator(m.ID, c.CreateTask)
		m.scalar = c
	}
	return m.scalar, nil
}

// FlushAttributes flushes both the record-level attributes and, for
// the SCALAR form, the co-located component's attributes (both target
// the same Writable).
func (m *Mesh) FlushAttributes() {
	m.Attributable.FlushAttributes()
	if m.scalar != nil {
		m.scalar.FlushAttributes()
	}
}

// SetGeometry validates and stores the mesh geometry (§4.5): unknown
// geometries are automatically prefixed with "other:" if not already.
func (m *Mesh) SetGeometry(g string) error {
	if !knownGeometries[g] && !strings.HasPrefix(g, "other:") {
		g = "other:" + g
	}
	return m.SetAttribute("geometry", g)
}

// Geometry returns the stored geometry string.
func (m *Mesh) Geometry() string {
	v, ok := m.GetAttribute("geometry")
	if !ok {
		return ""
	}
	s, _ := attr.Get[string](v)
	return s
}

// SetDataOrder sets the storage order ("C" or "F").
func (m *Mesh) SetDataOrder(o DataOrder) error {
	return m.SetAttribute("dataOrder", string(o))
}

// SetAxisLabels stores the per-dimension axis label vector.
func (m *Mesh) SetAxisLabels(labels []string) error {
	return m.SetAttribute("axisLabels", labels)
}

// SetGridSpacing stores the per-dimension grid spacing vector.
func (m *Mesh) SetGridSpacing(spacing []float32) error {
	return m.SetAttribute("gridSpacing", spacing)
}

// SetGridGlobalOffset stores the grid's global offset vector.
func (m *Mesh) SetGridGlobalOffset(offset []float64) error {
	return m.SetAttribute("gridGlobalOffset", offset)
}

// SetGridUnitSI stores a single, record-wide grid unit SI scale
// factor (the legacy openPMD 1.x form).
func (m *Mesh) SetGridUnitSI(unitSI float64) error {
	return m.SetAttribute("gridUnitSI", unitSI)
}

// SetGridUnitSIPerDimension stores a per-dimension grid unit SI
// vector (the openPMD 2.x form). Both forms are accepted on read;
// writers pick one.
func (m *Mesh) SetGridUnitSIPerDimension(unitSI []float64) error {
	return m.SetAttribute("gridUnitSI", unitSI)
}

// GridUnitSI reads back gridUnitSI, accepting either the scalar
// (1.x) or per-dimension vector (2.x) representation.
func (m *Mesh) GridUnitSI() ([]float64, error) {
	v, ok := m.GetAttribute("gridUnitSI")
	if !ok {
		return nil, openpmderr.New(openpmderr.NoSuchAttribute, "GridUnitSI", m.path(), nil)
	}
	return attr.Get[[]float64](v)
}

// SetTimeOffset stores the record's time offset.
func (m *Mesh) SetTimeOffset(t float64) error {
	return m.SetAttribute("timeOffset", t)
}

// The Dim* constants name the 7 SI base quantities in unitDimension
// order: [L, M, T, I, Θ, N, J] (§4.5).
const (
	DimLength = iota
	DimMass
	DimTime
	DimCurrent
	DimTemperature
	DimAmount
	DimLuminousIntensity
)

// SetUnitDimension merges per-index updates into the 7-element
// unitDimension array, creating it (all zeros) first if absent.
func (m *Mesh) SetUnitDimension(updates map[int]float64) error {
	var dim [7]float64
	if v, ok := m.GetAttribute("unitDimension"); ok {
		if cur, err := attr.Get[[7]float64](v); err == nil {
			dim = cur
		}
	}
	for idx, val := range updates {
		if idx < 0 || idx >= 7 {
			return openpmderr.New(openpmderr.WrongAPIUsage, "SetUnitDimension", m.path(),
				fmt.Errorf("unitDimension index %d out of range [0,7)", idx))
		}
		dim[idx] = val
	}
	return m.SetAttribute("unitDimension", dim)
}

// UnitDimension returns the stored 7-element unitDimension array.
func (m *Mesh) UnitDimension() [7]float64 {
	v, ok := m.GetAttribute("unitDimension")
	if !ok {
		return [7]float64{}
	}
	d, _ := attr.Get[[7]float64](v)
	return d
}
