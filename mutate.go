package automerge

import (
	"github.com/marionauta/automerge/crdt"
)

// prop addresses one cell of a container: a map key, or a list index with
// the insert-vs-overwrite choice.
type prop struct {
	key    string
	index  int
	inMap  bool
	insert bool
}

// writeEngine picks where a mutation lands: the private fork of the open
// transaction, or the live document for an implicit one-op commit.
func (d *Doc) writeEngine() (*crdt.Doc, *Observer) {
	if d.tx != nil && d.tx.state == txInProgress {
		return d.tx.fork, d.tx.obs
	}
	return d.eng, nil
}

// finishOp records the applied op: buffered when a transaction is open,
// sealed into its own change record otherwise.
func (d *Doc) finishOp(op crdt.OpRecord) {
	if d.tx != nil && d.tx.state == txInProgress {
		d.tx.ops = append(d.tx.ops, op)
		return
	}
	d.commitOps([]crdt.OpRecord{op})
}

// putScalar is the one dispatch point behind every map and list setter.
// Writing an object-kind value creates and links a fresh empty container
// and returns its reference; any other kind returns an empty success.
func (d *Doc) putScalar(obj ObjRef, p prop, v Value) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, obs := d.writeEngine()
	kind, isObj := v.ObjKind()

	var (
		conflict bool
		made     crdt.OpID
		err      error
	)
	switch {
	case p.inMap && isObj:
		made, conflict, err = eng.MapPutObject(obj.id, p.key, kind)
	case p.inMap:
		conflict, err = eng.MapPut(obj.id, p.key, v)
	case isObj && p.insert:
		made, err = eng.ListInsertObject(obj.id, p.index, kind)
	case isObj:
		made, conflict, err = eng.ListPutObject(obj.id, p.index, kind)
	case p.insert:
		err = eng.ListInsert(obj.id, p.index, v)
	default:
		conflict, err = eng.ListPut(obj.id, p.index, v)
	}
	if err != nil {
		return resErr(err)
	}

	stored := v
	if isObj {
		stored = crdt.ObjectRef(made, kind)
	}
	op := crdt.OpRecord{Obj: obj.id, Key: p.key, Index: p.index, Values: []Value{stored}}
	switch {
	case p.inMap:
		obs.record(eng, obj, PutInMap{Key: p.key, Value: stored, Conflict: conflict})
		op.Action = crdt.OpPutMap
		OpsApplied.WithLabelValues("map_put").Inc()
	case p.insert:
		obs.record(eng, obj, Insert{Index: p.index, Values: []Value{stored}})
		op.Action = crdt.OpInsert
		OpsApplied.WithLabelValues("list_insert").Inc()
	default:
		obs.record(eng, obj, PutInSeq{Index: p.index, Value: stored, Conflict: conflict})
		op.Action = crdt.OpPutSeq
		OpsApplied.WithLabelValues("list_put").Inc()
	}
	if isObj {
		op.Action = crdt.OpMakeObj
	}
	d.finishOp(op)

	if isObj {
		return resObj(refOf(made, kind))
	}
	return resOk()
}

// MapSet writes any value under key; the typed setters below are sugar
// over it.
func (d *Doc) MapSet(obj ObjRef, key string, v Value) *Result {
	return d.putScalar(obj, prop{key: key, inMap: true}, v)
}

// ListSet writes any value at index, inserting before it when insert is
// set.
func (d *Doc) ListSet(obj ObjRef, index int, insert bool, v Value) *Result {
	return d.putScalar(obj, prop{index: index, insert: insert}, v)
}

func (d *Doc) MapSetInt(obj ObjRef, key string, v int64) *Result {
	return d.putScalar(obj, prop{key: key, inMap: true}, Int(v))
}

func (d *Doc) MapSetUint(obj ObjRef, key string, v uint64) *Result {
	return d.putScalar(obj, prop{key: key, inMap: true}, Uint(v))
}

func (d *Doc) MapSetStr(obj ObjRef, key string, v string) *Result {
	return d.putScalar(obj, prop{key: key, inMap: true}, Str(v))
}

func (d *Doc) MapSetBytes(obj ObjRef, key string, v []byte) *Result {
	return d.putScalar(obj, prop{key: key, inMap: true}, Bytes(v))
}

func (d *Doc) MapSetF64(obj ObjRef, key string, v float64) *Result {
	return d.putScalar(obj, prop{key: key, inMap: true}, Float(v))
}

func (d *Doc) MapSetBool(obj ObjRef, key string, v bool) *Result {
	return d.putScalar(obj, prop{key: key, inMap: true}, Bool(v))
}

func (d *Doc) MapSetCounter(obj ObjRef, key string, v int64) *Result {
	return d.putScalar(obj, prop{key: key, inMap: true}, Counter(v))
}

func (d *Doc) MapSetTimestamp(obj ObjRef, key string, v int64) *Result {
	return d.putScalar(obj, prop{key: key, inMap: true}, Timestamp(v))
}

func (d *Doc) MapSetNull(obj ObjRef, key string) *Result {
	return d.putScalar(obj, prop{key: key, inMap: true}, Null())
}

// MapSetObject links a fresh empty container of the given kind under key
// and returns its reference.
func (d *Doc) MapSetObject(obj ObjRef, key string, kind ObjKind) *Result {
	return d.putScalar(obj, prop{key: key, inMap: true}, Object(kind))
}

func (d *Doc) ListSetInt(obj ObjRef, index int, insert bool, v int64) *Result {
	return d.putScalar(obj, prop{index: index, insert: insert}, Int(v))
}

func (d *Doc) ListSetUint(obj ObjRef, index int, insert bool, v uint64) *Result {
	return d.putScalar(obj, prop{index: index, insert: insert}, Uint(v))
}

func (d *Doc) ListSetStr(obj ObjRef, index int, insert bool, v string) *Result {
	return d.putScalar(obj, prop{index: index, insert: insert}, Str(v))
}

func (d *Doc) ListSetBytes(obj ObjRef, index int, insert bool, v []byte) *Result {
	return d.putScalar(obj, prop{index: index, insert: insert}, Bytes(v))
}

func (d *Doc) ListSetF64(obj ObjRef, index int, insert bool, v float64) *Result {
	return d.putScalar(obj, prop{index: index, insert: insert}, Float(v))
}

func (d *Doc) ListSetBool(obj ObjRef, index int, insert bool, v bool) *Result {
	return d.putScalar(obj, prop{index: index, insert: insert}, Bool(v))
}

func (d *Doc) ListSetCounter(obj ObjRef, index int, insert bool, v int64) *Result {
	return d.putScalar(obj, prop{index: index, insert: insert}, Counter(v))
}

func (d *Doc) ListSetTimestamp(obj ObjRef, index int, insert bool, v int64) *Result {
	return d.putScalar(obj, prop{index: index, insert: insert}, Timestamp(v))
}

func (d *Doc) ListSetNull(obj ObjRef, index int, insert bool) *Result {
	return d.putScalar(obj, prop{index: index, insert: insert}, Null())
}

func (d *Doc) ListSetObject(obj ObjRef, index int, insert bool, kind ObjKind) *Result {
	return d.putScalar(obj, prop{index: index, insert: insert}, Object(kind))
}

func (d *Doc) MapDelete(obj ObjRef, key string) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, obs := d.writeEngine()
	existed, err := eng.MapDelete(obj.id, key)
	if err != nil {
		return resErr(err)
	}
	if existed {
		obs.record(eng, obj, DeleteFromMap{Key: key})
		d.finishOp(crdt.OpRecord{Action: crdt.OpDelMap, Obj: obj.id, Key: key})
		OpsApplied.WithLabelValues("map_delete").Inc()
	}
	return resOk()
}

// ListDelete removes count contiguous elements starting at index. One
// call, one change, one patch.
func (d *Doc) ListDelete(obj ObjRef, index, count int) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, obs := d.writeEngine()
	if err := eng.ListDelete(obj.id, index, count); err != nil {
		return resErr(err)
	}
	if count > 0 {
		obs.record(eng, obj, DeleteFromSeq{Index: index, Count: count})
		d.finishOp(crdt.OpRecord{Action: crdt.OpDelSeq, Obj: obj.id, Index: index, Count: count})
		OpsApplied.WithLabelValues("list_delete").Inc()
	}
	return resOk()
}

func (d *Doc) MapIncrement(obj ObjRef, key string, delta int64) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, obs := d.writeEngine()
	if err := eng.MapIncrement(obj.id, key, delta); err != nil {
		return resErr(err)
	}
	obs.record(eng, obj, Increment{Key: key, InMap: true, Delta: delta})
	d.finishOp(crdt.OpRecord{Action: crdt.OpIncrement, Obj: obj.id, Key: key, Delta: delta})
	OpsApplied.WithLabelValues("increment").Inc()
	return resOk()
}

func (d *Doc) ListIncrement(obj ObjRef, index int, delta int64) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, obs := d.writeEngine()
	if err := eng.ListIncrement(obj.id, index, delta); err != nil {
		return resErr(err)
	}
	obs.record(eng, obj, Increment{Index: index, Delta: delta})
	d.finishOp(crdt.OpRecord{Action: crdt.OpIncrement, Obj: obj.id, Index: index, Delta: delta})
	OpsApplied.WithLabelValues("increment").Inc()
	return resOk()
}

// Splice inserts a contiguous run of scalar values before index. However
// many values, it is one op and one Insert patch.
func (d *Doc) Splice(obj ObjRef, index int, vals ...Value) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, obs := d.writeEngine()
	if err := eng.ListInsert(obj.id, index, vals...); err != nil {
		return resErr(err)
	}
	if len(vals) > 0 {
		obs.record(eng, obj, Insert{Index: index, Values: vals})
		d.finishOp(crdt.OpRecord{Action: crdt.OpInsert, Obj: obj.id, Index: index, Values: vals})
		OpsApplied.WithLabelValues("splice").Inc()
	}
	return resOk()
}

// SpliceText deletes del characters at index and inserts text there. The
// whole span is one op; under observation it reports at most one
// DeleteFromSeq and one SpliceText patch, never per-character inserts.
func (d *Doc) SpliceText(obj ObjRef, index, del int, text string) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, obs := d.writeEngine()
	if err := eng.SpliceText(obj.id, index, del, text); err != nil {
		return resErr(err)
	}
	if del > 0 {
		obs.record(eng, obj, DeleteFromSeq{Index: index, Count: del})
	}
	if text != "" {
		obs.record(eng, obj, SpliceText{Index: index, Text: text})
	}
	d.finishOp(crdt.OpRecord{Action: crdt.OpSplice, Obj: obj.id, Index: index, Count: del, Text: text})
	OpsApplied.WithLabelValues("splice_text").Inc()
	return resOk()
}

// Mark applies a named formatting span [start, end) to a text container.
func (d *Doc) Mark(obj ObjRef, start, end int, name string, v Value) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, obs := d.writeEngine()
	span := MarkSpan{Name: name, Start: start, End: end, Value: v}
	if err := eng.Mark(obj.id, span); err != nil {
		return resErr(err)
	}
	obs.record(eng, obj, Mark{Marks: []MarkSpan{span}})
	d.finishOp(crdt.OpRecord{Action: crdt.OpMark, Obj: obj.id, Name: name, Index: start, Count: end - start, Values: []Value{v}})
	OpsApplied.WithLabelValues("mark").Inc()
	return resOk()
}

func (d *Doc) Unmark(obj ObjRef, name string, start, end int) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, obs := d.writeEngine()
	if err := eng.Unmark(obj.id, name, start, end); err != nil {
		return resErr(err)
	}
	obs.record(eng, obj, Unmark{Name: name, Start: start, End: end})
	d.finishOp(crdt.OpRecord{Action: crdt.OpUnmark, Obj: obj.id, Name: name, Index: start, Count: end - start})
	OpsApplied.WithLabelValues("unmark").Inc()
	return resOk()
}

// MapGet reads a key back: the winning value, or every concurrent value
// (winner last) when the key is conflicted. A missing key yields no values.
func (d *Doc) MapGet(obj ObjRef, key string) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, _ := d.writeEngine()
	vals, err := eng.MapGet(obj.id, key)
	if err != nil {
		return resErr(err)
	}
	return resValues(vals...)
}

func (d *Doc) ListGet(obj ObjRef, index int) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, _ := d.writeEngine()
	vals, err := eng.ListGet(obj.id, index)
	if err != nil {
		return resErr(err)
	}
	return resValues(vals...)
}

// Length reports the element or key count of a container as a Uint value.
func (d *Doc) Length(obj ObjRef) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, _ := d.writeEngine()
	n, err := eng.Length(obj.id)
	if err != nil {
		return resErr(err)
	}
	return resValues(Uint(uint64(n)))
}

// Keys lists the live keys of a map container as string values.
func (d *Doc) Keys(obj ObjRef) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, _ := d.writeEngine()
	keys, err := eng.Keys(obj.id)
	if err != nil {
		return resErr(err)
	}
	vals := make([]Value, len(keys))
	for i, k := range keys {
		vals[i] = Str(k)
	}
	return resValues(vals...)
}

// Text renders a text container as one string value.
func (d *Doc) Text(obj ObjRef) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	eng, _ := d.writeEngine()
	s, err := eng.Text(obj.id)
	if err != nil {
		return resErr(err)
	}
	return resValues(Str(s))
}
