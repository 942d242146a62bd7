/*
Package crdt is the in-memory document engine behind a boundary handle: a
tree of map, list and text containers addressed by OpIDs, with multi-value
slots carrying whatever conflict signal the merge side reports.

A Doc is not internally synchronized. One writer at a time; reads may run
concurrently with each other (the object table is a concurrent map for that
reason), never with a writer.
*/
package crdt

import (
	"errors"

	"github.com/puzpuzpuz/xsync/v3"
)

var (
	ErrUnknownObject = errors.New("crdt: unknown object")
	ErrNotMap        = errors.New("crdt: target is not a map")
	ErrNotList       = errors.New("crdt: target is not a list")
	ErrNotText       = errors.New("crdt: target is not a text")
	ErrBadIndex      = errors.New("crdt: list index out of range")
	ErrNotCounter    = errors.New("crdt: target value is not a counter")
	ErrBadSpan       = errors.New("crdt: bad mark span")
)

// entry is one concurrent value in a slot.
type entry struct {
	id  OpID
	val Value
}

// slot holds the value(s) of one map key or list position. More than one
// entry means the merge side delivered concurrent writes nobody has
// superseded yet; entries stay ordered ascending by id, winner last.
type slot struct {
	vals []entry
}

func (s *slot) winner() (entry, bool) {
	if len(s.vals) == 0 {
		return entry{}, false
	}
	return s.vals[len(s.vals)-1], true
}

func (s *slot) conflicted() bool {
	return len(s.vals) > 1
}

// supersede replaces everything in the slot with a single local write.
func (s *slot) supersede(e entry) {
	s.vals = append(s.vals[:0], e)
}

// land inserts a concurrent entry at its ordered position, superseding
// nothing. Duplicate ids are dropped.
func (s *slot) land(e entry) {
	at := len(s.vals)
	for i, old := range s.vals {
		if old.id == e.id {
			return
		}
		if e.id.Less(old.id) {
			at = i
			break
		}
	}
	s.vals = append(s.vals, entry{})
	copy(s.vals[at+1:], s.vals[at:])
	s.vals[at] = e
}

type container struct {
	id     OpID
	kind   ObjKind
	parent OpID
	key    string // the map key this container sits under, if any

	entries map[string]*slot // Map
	elems   []*slot          // List, Text
	marks   []MarkSpan       // Text
}

func newContainer(id OpID, kind ObjKind, parent OpID, key string) *container {
	c := &container{id: id, kind: kind, parent: parent, key: key}
	if kind == Map {
		c.entries = make(map[string]*slot)
	}
	return c
}

// Doc is one engine instance: the root map plus a table of every nested
// container, addressed by the OpID of the op that created it.
type Doc struct {
	actor   Actor
	counter uint64
	root    *container
	objects *xsync.MapOf[OpID, *container]
}

func New() *Doc {
	return NewWithActor(RandomActor())
}

func NewWithActor(a Actor) *Doc {
	return &Doc{
		actor:   a,
		root:    newContainer(RootID, Map, RootID, ""),
		objects: xsync.NewMapOf[OpID, *container](),
	}
}

func (d *Doc) Actor() Actor     { return d.actor }
func (d *Doc) SetActor(a Actor) { d.actor = a }
func (d *Doc) Counter() uint64  { return d.counter }

func (d *Doc) nextID() OpID {
	d.counter++
	return OpID{Counter: d.counter, Actor: d.actor}
}

func (d *Doc) container(id OpID) (*container, error) {
	if id.IsRoot() {
		return d.root, nil
	}
	c, ok := d.objects.Load(id)
	if !ok {
		return nil, ErrUnknownObject
	}
	return c, nil
}

func (d *Doc) Kind(obj OpID) (ObjKind, error) {
	c, err := d.container(obj)
	if err != nil {
		return 0, err
	}
	return c.kind, nil
}

// retire drops the subtree behind every object link in the slot. Called
// when a slot is overwritten or deleted; the containers become unreachable
// and must leave the object table with their descendants.
func (d *Doc) retire(s *slot) {
	for _, e := range s.vals {
		if id, ok := e.val.ObjID(); ok && !id.IsRoot() {
			d.retireObject(id)
		}
	}
}

func (d *Doc) retireObject(id OpID) {
	c, ok := d.objects.LoadAndDelete(id)
	if !ok {
		return
	}
	for _, s := range c.entries {
		d.retire(s)
	}
	for _, s := range c.elems {
		d.retire(s)
	}
}

// Clone deep-copies the document. The copy shares nothing with the
// original; it backs both handle duplication and transaction forks.
func (d *Doc) Clone() *Doc {
	cp := &Doc{
		actor:   d.actor,
		counter: d.counter,
		objects: xsync.NewMapOf[OpID, *container](),
	}
	cp.root = cloneContainer(d.root)
	d.objects.Range(func(id OpID, c *container) bool {
		cp.objects.Store(id, cloneContainer(c))
		return true
	})
	return cp
}

func cloneContainer(c *container) *container {
	cp := &container{id: c.id, kind: c.kind, parent: c.parent, key: c.key}
	if c.entries != nil {
		cp.entries = make(map[string]*slot, len(c.entries))
		for k, s := range c.entries {
			cp.entries[k] = cloneSlot(s)
		}
	}
	if c.elems != nil {
		cp.elems = make([]*slot, len(c.elems))
		for i, s := range c.elems {
			cp.elems[i] = cloneSlot(s)
		}
	}
	if c.marks != nil {
		cp.marks = append([]MarkSpan(nil), c.marks...)
	}
	return cp
}

func cloneSlot(s *slot) *slot {
	return &slot{vals: append([]entry(nil), s.vals...)}
}
