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

// Package hierarchy implements the shared capabilities every
// hierarchy node is built from (§4.3 of SPEC_FULL.md): the attribute
// map with dirty propagation (Attributable) and the ordered,
// creation-on-access child map (Container[T]).
//
// Per the REDESIGN FLAGS in spec.md §9, the polymorphic
// Attributable -> Container -> Record -> Mesh inheritance chain of
// the source is replaced with small capability types held by value:
// every concrete node (Mesh, ParticleSpecies, Iteration, Series, ...)
// embeds an Attributable and, where relevant, a Container[T].
package hierarchy

import (
	"fmt"

	"github.com/openPMD/openpmd-go/attr"
	"github.com/openPMD/openpmd-go/backend"
)

// commentAttribute is the reserved attribute name backing the
// Comment/SetComment sugar.
const commentAttribute = "comment"

// Attributable owns a node's attribute map and its Writable. Every
// concrete hierarchy node embeds one by value.
type Attributable struct {
	Arena    *backend.Arena
	ID       backend.ID
	attrs    map[string]attr.Value
	flushed  map[string]attr.Value
	names    []string // insertion order, for stable ListAttributes output
}

// Init must be called once when a node is created (by Container[T]
// on insert, or by the Series constructor for the root) to bind this
// Attributable to its Writable.
func (a *Attributable) Init(arena *backend.Arena, id backend.ID) {
	a.Arena = arena
	a.ID = id
	a.attrs = make(map[string]attr.Value)
	a.flushed = make(map[string]attr.Value)
}

// Writable returns the backend Writable bound to this node.
func (a *Attributable) Writable() *backend.Writable {
	return a.Arena.Get(a.ID)
}

// WritableID returns the arena ID of this node's Writable, used by
// Container.Erase to decide whether a delete task is needed.
func (a *Attributable) WritableID() backend.ID {
	return a.ID
}

// SetAttribute stores or overwrites the attribute named name,
// marking this node dirty and every ancestor dirty_recursive (§4.3).
func (a *Attributable) SetAttribute(name string, v any) error {
	val, err := attr.NewValue(v)
	if err != nil {
		return fmt.Errorf("hierarchy: SetAttribute %q: %w", name, err)
	}
	if _, exists := a.attrs[name]; !exists {
		a.names = append(a.names, name)
	}
	a.attrs[name] = val
	a.Arena.MarkDirty(a.ID)
	return nil
}

// DeleteAttribute removes name from this node's attribute map,
// marking this node dirty. It reports whether the attribute existed.
func (a *Attributable) DeleteAttribute(name string) bool {
	if _, ok := a.attrs[name]; !ok {
		return false
	}
	delete(a.attrs, name)
	for i, n := range a.names {
		if n == name {
			a.names = append(a.names[:i], a.names[i+1:]...)
			break
		}
	}
	a.Arena.MarkDirty(a.ID)
	return true
}

// GetAttribute returns the raw Value for name.
func (a *Attributable) GetAttribute(name string) (attr.Value, bool) {
	v, ok := a.attrs[name]
	return v, ok
}

// Attributes lists all attribute names present on this node, in the
// order they were first set.
func (a *Attributable) Attributes() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// SetComment is sugar for SetAttribute(commentAttribute, c).
func (a *Attributable) SetComment(c string) error {
	return a.SetAttribute(commentAttribute, c)
}

// Comment reads back the comment attribute, or "" if unset.
func (a *Attributable) Comment() string {
	v, ok := a.GetAttribute(commentAttribute)
	if !ok {
		return ""
	}
	s, _ := attr.Get[string](v)
	return s
}

// FlushAttributes writes every attribute whose value differs from
// the last-flushed snapshot as a WriteAttribute task, then updates
// the snapshot and clears DirtySelf, matching the teacher's pattern
// in db of comparing a TableDefinition.Hash() against a stored
// snapshot before re-writing it.
func (a *Attributable) FlushAttributes() {
	w := a.Writable()
	for name, val := range a.attrs {
		prev, ok := a.flushed[name]
		if ok && attr.Equal(prev, val) {
			continue
		}
		a.Arena.Queue.Enqueue(&backend.Task{
			Kind:          backend.WriteAttribute,
			Target:        a.ID,
			AttributeName: name,
			Attribute:     val,
		})
		a.flushed[name] = val
	}
	// attributes deleted since the last flush: nothing to enqueue
	// for them here (a real backend delete-attribute task kind is
	// out of scope for the CORE per spec.md §4.2's task list, which
	// has no DeleteAttribute kind; the backend keeps an attribute
	// that was already written, so a reread still finds it).
	for name := range a.flushed {
		if _, ok := a.attrs[name]; !ok {
			delete(a.flushed, name)
		}
	}
	w.DirtySelf = false
}
