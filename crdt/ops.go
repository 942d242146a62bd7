package crdt

import "sort"

// Conflict reporting: a write returns conflict=true when the slot it hit
// held more than one concurrent value at that moment. The engine never
// computes conflicts itself; concurrent values only enter a slot through
// the merge collaborator (PutConcurrent), this layer just preserves and
// reports the signal.

func (d *Doc) mapSlot(obj OpID, key string) (*container, *slot, error) {
	c, err := d.container(obj)
	if err != nil {
		return nil, nil, err
	}
	if c.kind != Map {
		return nil, nil, ErrNotMap
	}
	s := c.entries[key]
	if s == nil {
		s = &slot{}
		c.entries[key] = s
	}
	return c, s, nil
}

func (d *Doc) MapPut(obj OpID, key string, v Value) (conflict bool, err error) {
	_, s, err := d.mapSlot(obj, key)
	if err != nil {
		return false, err
	}
	conflict = s.conflicted()
	d.retire(s)
	s.supersede(entry{id: d.nextID(), val: v})
	return conflict, nil
}

func (d *Doc) MapPutObject(obj OpID, key string, kind ObjKind) (id OpID, conflict bool, err error) {
	c, s, err := d.mapSlot(obj, key)
	if err != nil {
		return RootID, false, err
	}
	conflict = s.conflicted()
	d.retire(s)
	id = d.nextID()
	d.objects.Store(id, newContainer(id, kind, c.id, key))
	s.supersede(entry{id: id, val: ObjectRef(id, kind)})
	return id, conflict, nil
}

func (d *Doc) MapDelete(obj OpID, key string) (existed bool, err error) {
	c, err := d.container(obj)
	if err != nil {
		return false, err
	}
	if c.kind != Map {
		return false, ErrNotMap
	}
	s := c.entries[key]
	if s == nil || len(s.vals) == 0 {
		return false, nil
	}
	d.retire(s)
	delete(c.entries, key)
	return true, nil
}

func (d *Doc) MapIncrement(obj OpID, key string, delta int64) error {
	c, err := d.container(obj)
	if err != nil {
		return err
	}
	if c.kind != Map {
		return ErrNotMap
	}
	s := c.entries[key]
	if s == nil {
		return ErrNotCounter
	}
	return incrementSlot(s, delta)
}

// incrementSlot bumps every concurrent counter in the slot; counters merge
// by summing increments, so concurrent values all observe the delta.
func incrementSlot(s *slot, delta int64) error {
	w, ok := s.winner()
	if !ok {
		return ErrNotCounter
	}
	if _, isCounter := w.val.Counter(); !isCounter {
		return ErrNotCounter
	}
	for i, e := range s.vals {
		if n, isCounter := e.val.Counter(); isCounter {
			s.vals[i].val = Counter(n + delta)
		}
	}
	return nil
}

func (d *Doc) seqContainer(obj OpID) (*container, error) {
	c, err := d.container(obj)
	if err != nil {
		return nil, err
	}
	if c.kind != List && c.kind != Text {
		return nil, ErrNotList
	}
	return c, nil
}

func (d *Doc) ListPut(obj OpID, index int, v Value) (conflict bool, err error) {
	c, err := d.seqContainer(obj)
	if err != nil {
		return false, err
	}
	if index < 0 || index >= len(c.elems) {
		return false, ErrBadIndex
	}
	s := c.elems[index]
	conflict = s.conflicted()
	d.retire(s)
	s.supersede(entry{id: d.nextID(), val: v})
	return conflict, nil
}

// ListInsert places a contiguous run of values before index. One call, one
// shift, however many values.
func (d *Doc) ListInsert(obj OpID, index int, vals ...Value) error {
	c, err := d.seqContainer(obj)
	if err != nil {
		return err
	}
	if index < 0 || index > len(c.elems) {
		return ErrBadIndex
	}
	fresh := make([]*slot, len(vals))
	for i, v := range vals {
		fresh[i] = &slot{vals: []entry{{id: d.nextID(), val: v}}}
	}
	c.elems = append(c.elems[:index], append(fresh, c.elems[index:]...)...)
	return nil
}

func (d *Doc) ListInsertObject(obj OpID, index int, kind ObjKind) (OpID, error) {
	c, err := d.seqContainer(obj)
	if err != nil {
		return RootID, err
	}
	if index < 0 || index > len(c.elems) {
		return RootID, ErrBadIndex
	}
	id := d.nextID()
	d.objects.Store(id, newContainer(id, kind, c.id, ""))
	s := &slot{vals: []entry{{id: id, val: ObjectRef(id, kind)}}}
	c.elems = append(c.elems[:index], append([]*slot{s}, c.elems[index:]...)...)
	return id, nil
}

func (d *Doc) ListPutObject(obj OpID, index int, kind ObjKind) (id OpID, conflict bool, err error) {
	c, err := d.seqContainer(obj)
	if err != nil {
		return RootID, false, err
	}
	if index < 0 || index >= len(c.elems) {
		return RootID, false, ErrBadIndex
	}
	s := c.elems[index]
	conflict = s.conflicted()
	d.retire(s)
	id = d.nextID()
	d.objects.Store(id, newContainer(id, kind, c.id, ""))
	s.supersede(entry{id: id, val: ObjectRef(id, kind)})
	return id, conflict, nil
}

func (d *Doc) ListDelete(obj OpID, index, count int) error {
	c, err := d.seqContainer(obj)
	if err != nil {
		return err
	}
	if index < 0 || count < 0 || index+count > len(c.elems) {
		return ErrBadIndex
	}
	for _, s := range c.elems[index : index+count] {
		d.retire(s)
	}
	c.elems = append(c.elems[:index], c.elems[index+count:]...)
	return nil
}

func (d *Doc) ListIncrement(obj OpID, index int, delta int64) error {
	c, err := d.seqContainer(obj)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.elems) {
		return ErrBadIndex
	}
	return incrementSlot(c.elems[index], delta)
}

// PutConcurrent is the merge collaborator's seam: it lands a value written
// by a concurrent replica into a map slot without superseding anything
// already there. The local counter catches up so later local ops still win.
func (d *Doc) PutConcurrent(obj OpID, key string, v Value, id OpID) error {
	_, s, err := d.mapSlot(obj, key)
	if err != nil {
		return err
	}
	s.land(entry{id: id, val: v})
	if id.Counter > d.counter {
		d.counter = id.Counter
	}
	return nil
}

// ListPutConcurrent is PutConcurrent for an existing list position.
func (d *Doc) ListPutConcurrent(obj OpID, index int, v Value, id OpID) error {
	c, err := d.seqContainer(obj)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.elems) {
		return ErrBadIndex
	}
	c.elems[index].land(entry{id: id, val: v})
	if id.Counter > d.counter {
		d.counter = id.Counter
	}
	return nil
}

func (d *Doc) MapGet(obj OpID, key string) ([]Value, error) {
	c, err := d.container(obj)
	if err != nil {
		return nil, err
	}
	if c.kind != Map {
		return nil, ErrNotMap
	}
	s := c.entries[key]
	if s == nil {
		return nil, nil
	}
	return slotValues(s), nil
}

func (d *Doc) ListGet(obj OpID, index int) ([]Value, error) {
	c, err := d.seqContainer(obj)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(c.elems) {
		return nil, ErrBadIndex
	}
	return slotValues(c.elems[index]), nil
}

// slotValues copies out a slot, winner last.
func slotValues(s *slot) []Value {
	vals := make([]Value, len(s.vals))
	for i, e := range s.vals {
		vals[i] = e.val
	}
	return vals
}

func (d *Doc) Length(obj OpID) (int, error) {
	c, err := d.container(obj)
	if err != nil {
		return 0, err
	}
	if c.kind == Map {
		return len(c.entries), nil
	}
	return len(c.elems), nil
}

func (d *Doc) Keys(obj OpID) ([]string, error) {
	c, err := d.container(obj)
	if err != nil {
		return nil, err
	}
	if c.kind != Map {
		return nil, ErrNotMap
	}
	keys := make([]string, 0, len(c.entries))
	for k, s := range c.entries {
		if len(s.vals) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
