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

// Arena owns every Writable in one Series plus the single shared
// Queue they all enqueue into. Nodes reference each other by ID
// rather than by pointer (see the package doc comment), so the arena
// — not individual nodes — is what the Series actually keeps alive.
type Arena struct {
	nodes []*Writable
	Queue *Queue

	// flushers holds each node's FlushAttributes callback, registered
	// by Container[T] at creation/insertion time (§4.3, §4.9): the
	// arena drives the generic depth-first traversal but has no
	// static knowledge of concrete node types, so it calls back
	// through this registry instead.
	flushers map[ID]func()

	// creators holds the CreateDataset-task builder for dataset leaves
	// (§4.9): a plain group only ever needs a bare CreatePath task, but
	// a record component's CreateDataset task must carry its
	// datatype/extent/config, and a constant or empty component must
	// not emit one at all (§4.4 "is_empty... is not materialized").
	// Registered the same way as flushers.
	creators map[ID]func() *Task
}

// NewArena allocates an Arena whose Queue dispatches to backend. The
// root Writable (the Series itself) is pre-allocated at ID 1; ID 0
// (InvalidID) is reserved as "no parent".
func NewArena(be Backend) *Arena {
	a := &Arena{Queue: NewQueue(be), flushers: make(map[ID]func()), creators: make(map[ID]func() *Task)}
	a.Queue.arena = a
	a.nodes = append(a.nodes, nil) // index 0 unused (InvalidID)
	root := NewWritable(InvalidID, nil)
	root.ID = 1
	a.nodes = append(a.nodes, root)
	return a
}

// SetFlusher registers f as the FlushAttributes callback for id,
// invoked once per visit during FlushTree.
func (a *Arena) SetFlusher(id ID, f func()) {
	a.flushers[id] = f
}

// SetCreator registers f as id's CreateDataset-task builder (§4.9): f
// returns nil if id must never be realized as a backend dataset object
// (a constant or empty component). Only nodes flagged IsDataset consult
// the registry: a dataset node with no registered creator falls back
// to a bare CreateDataset with no type/extent, and a group node always
// gets a plain CreatePath — see visit.
func (a *Arena) SetCreator(id ID, f func() *Task) {
	a.creators[id] = f
}

// MarkDataset flags id as a record-component leaf, so FlushTree emits
// CreateDataset rather than CreatePath for it.
func (a *Arena) MarkDataset(id ID) {
	if w := a.Get(id); w != nil {
		w.IsDataset = true
	}
}

// childrenOf returns the IDs of every Writable directly parented at
// id. The arena is Series-scoped and modest in size, so a linear scan
// is simpler than maintaining a parallel children index.
func (a *Arena) childrenOf(id ID) []ID {
	var out []ID
	for _, w := range a.nodes {
		if w != nil && w.Parent == id {
			out = append(out, w.ID)
		}
	}
	return out
}

// FlushTree performs the depth-first traversal of §4.9 rooted at root,
// visiting only dirty_recursive nodes: for each not-yet-written node it
// enqueues CreatePath or CreateDataset, then runs that node's
// registered FlushAttributes callback, then recurses into children,
// clearing dirty flags bottom-up as the traversal returns; finally it
// drains the shared Queue (which also carries every pending
// WriteChunk/ReadChunk task in FIFO enqueue order, independent of tree
// position). The flags are cleared before the drain, so they stay
// cleared when the drain fails; the failed task and every task after
// it remain queued for the next Flush.
func (a *Arena) FlushTree(root ID, params FlushParams) error {
	a.visit(root)
	if err := a.Queue.Flush(params); err != nil {
		return err
	}
	return nil
}

func (a *Arena) visit(id ID) {
	w := a.Get(id)
	if w == nil || !w.DirtyRecursive {
		return
	}
	if !w.Written {
		if w.IsDataset {
			var t *Task
			if f, ok := a.creators[id]; ok {
				t = f()
			} else {
				t = &Task{Kind: CreateDataset, Target: id}
			}
			if t != nil {
				a.Queue.Enqueue(t)
			}
		} else {
			a.Queue.Enqueue(&Task{Kind: CreatePath, Target: id})
		}
		w.Written = true
	}
	if f, ok := a.flushers[id]; ok {
		f()
	}
	children := a.childrenOf(id)
	anyChildDirty := false
	for _, child := range children {
		a.visit(child)
		if cw := a.Get(child); cw != nil && cw.DirtyRecursive {
			anyChildDirty = true
		}
	}
	a.ClearDirtyRecursiveBottomUp(id, anyChildDirty)
}

// Detach severs id's subtree from the tree FlushTree walks: it clears
// DirtySelf/DirtyRecursive on id and every descendant (found via
// childrenOf, independent of any Container's own bookkeeping) and
// unparents id itself. Used when a Container erases a node that was
// never written (§8 scenario 5): without this, visit's childrenOf walk
// still finds the node through its raw Parent link and, seeing
// DirtyRecursive still set from its creation, would enqueue a
// CreatePath/CreateDataset for a node the frontend considers deleted.
func (a *Arena) Detach(id ID) {
	w := a.Get(id)
	if w == nil {
		return
	}
	for _, child := range a.childrenOf(id) {
		a.Detach(child)
	}
	w.DirtySelf = false
	w.DirtyRecursive = false
	w.Parent = InvalidID
}

// Root returns the ID of the Series root Writable.
func (a *Arena) Root() ID { return 1 }

// New allocates a fresh Writable under parent and returns its ID.
func (a *Arena) New(parent ID, ownKey []string) ID {
	id := ID(len(a.nodes))
	w := NewWritable(parent, ownKey)
	w.ID = id
	a.nodes = append(a.nodes, w)
	return id
}

// Get returns the Writable for id.
func (a *Arena) Get(id ID) *Writable {
	if int(id) <= 0 || int(id) >= len(a.nodes) {
		return nil
	}
	return a.nodes[id]
}

// MarkDirty sets DirtySelf on id and DirtyRecursive on id and every
// ancestor, stopping early once an ancestor is already
// DirtyRecursive (it and everything above it must already be marked).
func (a *Arena) MarkDirty(id ID) {
	w := a.Get(id)
	if w == nil {
		return
	}
	w.DirtySelf = true
	cur := id
	for {
		n := a.Get(cur)
		if n == nil {
			return
		}
		alreadyMarked := n.DirtyRecursive
		n.DirtyRecursive = true
		if alreadyMarked && cur != id {
			return
		}
		if n.Parent == InvalidID {
			return
		}
		cur = n.Parent
	}
}

// ClearDirtyRecursiveBottomUp clears DirtyRecursive on id if neither
// id itself nor any of its children (as reported by the caller through
// anyChildStillDirty) remain dirty. Callers (the flush engine) invoke this bottom-up over the
// set of nodes visited in one flush pass.
func (a *Arena) ClearDirtyRecursiveBottomUp(id ID, anyChildStillDirty bool) {
	w := a.Get(id)
	if w == nil {
		return
	}
	if !w.DirtySelf && !anyChildStillDirty {
		w.DirtyRecursive = false
	}
}

// Path reconstructs the full slash-joined path of id by walking
// ancestors via Parent, in the style ion/blockfmt diagnostics build a
// dotted path from nested field names.
func (a *Arena) Path(id ID) string {
	var segs [][]string
	for cur := id; cur != InvalidID; {
		w := a.Get(cur)
		if w == nil {
			break
		}
		segs = append(segs, w.OwnKeyWithinParent)
		cur = w.Parent
	}
	out := ""
	for i := len(segs) - 1; i >= 0; i-- {
		for _, s := range segs[i] {
			out += "/" + s
		}
	}
	if out == "" {
		return "/"
	}
	return out
}
