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

package hierarchy

import (
	"fmt"

	"github.com/openPMD/openpmd-go/backend"
)

// Mode selects whether a Container allows creation-on-access.
type Mode int

const (
	ReadWrite Mode = iota
	ReadOnly
)

// Attributed is satisfied by a pointer to any concrete hierarchy node
// type (e.g. *Mesh, *ParticleSpecies): it must embed an Attributable
// and therefore promotes Init. Container[T] requires this to wire a
// freshly-created child's Writable on insert.
type Attributed interface {
	Init(arena *backend.Arena, id backend.ID)
}

// ErrOutOfRange is returned by At/index access on a missing key in a
// ReadOnly Container (§4.3).
type ErrOutOfRange struct {
	Key string
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("hierarchy: key %q not present (read-only container)", e.Key)
}

// Container is an ordered, keyed mapping from string key to child
// node T (§3, §4.3). basePath is the path fragment this container
// itself contributes (e.g. ["meshes"]) between the owning node and
// each child's own key.
type Container[T Attributed] struct {
	arena    *backend.Arena
	parentID backend.ID
	basePath []string
	mode     Mode

	keys     []string // insertion order
	children map[string]T

	// New constructs a zero-value child (e.g. func() *Mesh { return
	// new(Mesh) }); Generate runs the type-specific generation
	// policy (e.g. Mesh receiving a default unit dimension) after
	// the child's Writable has been wired up. Generate may be nil.
	New      func() T
	Generate func(T)
}

// NewContainer constructs a Container bound to arena, anchored at
// parentID, contributing basePath to each child's own-key sequence.
func NewContainer[T Attributed](arena *backend.Arena, parentID backend.ID, basePath []string, mode Mode, newFn func() T) *Container[T] {
	return &Container[T]{
		arena:    arena,
		parentID: parentID,
		basePath: basePath,
		mode:     mode,
		children: make(map[string]T),
		New:      newFn,
	}
}

// Keys returns the child keys. For insertion-order containers this is
// insertion order; callers that need integer-key-ascending order
// (Iterations) sort separately — see iteration container in package
// series.
func (c *Container[T]) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len reports the number of children.
func (c *Container[T]) Len() int { return len(c.keys) }

// Contains reports whether key is present.
func (c *Container[T]) Contains(key string) bool {
	_, ok := c.children[key]
	return ok
}

// At returns the child at key without creating it. In ReadOnly mode a
// missing key is an error; in ReadWrite mode it is also an error (use
// Get for creation-on-access semantics matching operator[]).
func (c *Container[T]) At(key string) (T, error) {
	v, ok := c.children[key]
	if !ok {
		var zero T
		return zero, &ErrOutOfRange{Key: key}
	}
	return v, nil
}

// Get implements operator[] semantics: in ReadOnly mode, a missing
// key fails with ErrOutOfRange; in write modes, a missing key is
// created via New, wired to a fresh Writable under parentID, and run
// through the Generate policy.
func (c *Container[T]) Get(key string) (T, error) {
	if v, ok := c.children[key]; ok {
		return v, nil
	}
	if c.mode == ReadOnly {
		var zero T
		return zero, &ErrOutOfRange{Key: key}
	}
	return c.create(key), nil
}

func (c *Container[T]) create(key string) T {
	child := c.New()
	ownKey := append(append([]string{}, c.basePath...), key)
	id := c.arena.New(c.parentID, ownKey)
	child.Init(c.arena, id)
	if c.Generate != nil {
		c.Generate(child)
	}
	registerFlusher(c.arena, id, child)
	registerCreator(c.arena, id, child)
	c.children[key] = child
	c.keys = append(c.keys, key)
	c.arena.MarkDirty(id)
	return child
}

// Insert places an already-constructed child at key, for use by
// readers parsing an existing hierarchy (the child's Writable is
// assumed to already be wired by the caller).
func (c *Container[T]) Insert(key string, child T) {
	if _, exists := c.children[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.children[key] = child
	if a, ok := any(child).(interface{ WritableID() backend.ID }); ok {
		registerFlusher(c.arena, a.WritableID(), child)
		registerCreator(c.arena, a.WritableID(), child)
	}
}

// registerFlusher wires child's FlushAttributes method (if it has
// one, directly or via the embedded Attributable) into the arena's
// generic flush traversal (§4.9): the arena drives the walk without
// static knowledge of concrete node types.
func registerFlusher[T Attributed](arena *backend.Arena, id backend.ID, child T) {
	if f, ok := any(child).(interface{ FlushAttributes() }); ok {
		arena.SetFlusher(id, f.FlushAttributes)
	}
}

// registerCreator wires child's CreateTask method (if it has one —
// only dataset leaves do) into the arena's CreateDataset-task builder
// registry (§4.9), the same way registerFlusher wires FlushAttributes.
func registerCreator[T Attributed](arena *backend.Arena, id backend.ID, child T) {
	if f, ok := any(child).(interface{ CreateTask() *backend.Task }); ok {
		arena.SetCreator(id, f.CreateTask)
	}
}

// Erase removes key. If the child was already written, it enqueues a
// delete task of kind deleteKind (§4.3); a child never written is
// detached from the flush tree instead. It returns the number of entries removed
// (0 or 1, matching std::map::erase's return convention).
func (c *Container[T]) Erase(key string, deleteKind backend.TaskKind) int {
	child, ok := c.children[key]
	if !ok {
		return 0
	}
	var id backend.ID
	if a, ok := any(child).(interface{ WritableID() backend.ID }); ok {
		id = a.WritableID()
	}
	w := c.arena.Get(id)
	if w != nil && w.Written {
		c.arena.Queue.Delete(id, deleteKind)
	} else if w != nil {
		// Never realized: just remove it from the tree FlushTree
		// walks, or a later Flush would rediscover this still-dirty
		// subtree through its raw Parent link and enqueue a create
		// task for a node the frontend no longer considers present.
		c.arena.Detach(id)
	}
	delete(c.children, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
	return 1
}

// Drop removes key from the frontend map without touching the
// backend: no delete task is emitted, unlike Erase. Used by a linear
// (streaming) read to bound memory by discarding closed iterations'
// frontend state once they can no longer be revisited (§4.8).
func (c *Container[T]) Drop(key string) {
	if _, ok := c.children[key]; !ok {
		return
	}
	delete(c.children, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// AccessTracker wraps a Container and records which keys were
// touched via Get during a re-parse pass; on Finish, unaccessed
// keys are erased from the wrapped Container. This is the "helper
// wrapper" of §4.3.
type AccessTracker[T Attributed] struct {
	c        *Container[T]
	accessed map[string]bool
}

// NewAccessTracker begins tracking accesses on c.
func NewAccessTracker[T Attributed](c *Container[T]) *AccessTracker[T] {
	return &AccessTracker[T]{c: c, accessed: make(map[string]bool)}
}

// Get proxies to the wrapped Container and records the access.
func (t *AccessTracker[T]) Get(key string) (T, error) {
	t.accessed[key] = true
	return t.c.Get(key)
}

// Finish removes every key in the wrapped Container that was never
// accessed through this tracker, and emits the matching delete tasks
// for previously-written children.
func (t *AccessTracker[T]) Finish(deleteKind backend.TaskKind) {
	for _, key := range t.c.Keys() {
		if !t.accessed[key] {
			t.c.Erase(key, deleteKind)
		}
	}
}
