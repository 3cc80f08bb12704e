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
	"github.com/openPMD/openpmd-go/backend"
	"github.com/openPMD/openpmd-go/dataset"
	"github.com/openPMD/openpmd-go/hierarchy"
)

// Group is a user-named subgroup of the custom hierarchy rooted at an
// Iteration: arbitrary nesting of further Groups and dataset leaves
// discovered by name alone, outside the meshesPath/particlesPath
// convention. Subgroups and datasets are kept in two separate
// containers, so a Group may hold both kinds; nothing stops a
// subgroup and a dataset from being created under the same key.
type Group struct {
	hierarchy.Attributable

	groups *hierarchy.Container[*Group]
	leaves *hierarchy.Container[*dataset.Component]
}

func (g *Group) Init(arena *backend.Arena, id backend.ID) {
	g.Attributable.Init(arena, id)
	g.groups = hierarchy.NewContainer[*Group](arena, id, nil, hierarchy.ReadWrite,
		func() *Group { return &Group{} })
	g.leaves = hierarchy.NewContainer[*dataset.Component](arena, id, nil, hierarchy.ReadWrite,
		func() *dataset.Component { return &dataset.Component{} })
}

func newGroup(arena *backend.Arena, parentID backend.ID, basePath []string) *Group {
	id := parentID
	g := &Group{}
	if len(basePath) > 0 {
		id = arena.New(parentID, basePath)
	}
	g.Init(arena, id)
	return g
}

// Group returns (creating if necessary) a nested subgroup.
func (g *Group) Group(name string) (*Group, error) {
	return g.groups.Get(name)
}

// GroupNames lists the nested subgroup names.
func (g *Group) GroupNames() []string { return g.groups.Keys() }

// Dataset returns (creating if necessary) a leaf dataset component.
func (g *Group) Dataset(name string) (*dataset.Component, error) {
	return g.leaves.Get(name)
}

// DatasetNames lists the leaf dataset names.
func (g *Group) DatasetNames() []string { return g.leaves.Keys() }

// Erase removes a named subgroup, emitting a delete task if it had
// already been written.
func (g *Group) Erase(name string) int {
	return g.groups.Erase(name, backend.DeletePath)
}

// EraseDataset removes a named leaf dataset.
func (g *Group) EraseDataset(name string) int {
	return g.leaves.Erase(name, backend.DeleteDataset)
}
