package automerge

import (
	"testing"

	"github.com/marionauta/automerge/crdt"
	"github.com/stretchr/testify/assert"
)

func begin(t *testing.T, d *Doc) (*Tx, *Observer) {
	obs := NewObserver()
	tx, err := d.Begin(obs)
	assert.NoError(t, err)
	return tx, obs
}

func TestPatchesInCallOrder(t *testing.T) {
	d := Create()
	defer d.Close()
	tx, obs := begin(t, d)

	d.MapSetStr(Root, "a", "1").Release()
	d.MapSetStr(Root, "b", "2").Release()
	d.MapDelete(Root, "a").Release()
	tx.Commit().Release()

	patches := obs.Take()
	assert.Len(t, patches, 3)
	assert.Equal(t, PutInMap{Key: "a", Value: Str("1")}, patches[0].Action)
	assert.Equal(t, PutInMap{Key: "b", Value: Str("2")}, patches[1].Action)
	assert.Equal(t, DeleteFromMap{Key: "a"}, patches[2].Action)
}

func TestOverwriteWithoutConflict(t *testing.T) {
	d := Create()
	defer d.Close()
	d.MapSetInt(Root, "k", 1).Release()

	tx, obs := begin(t, d)
	d.MapSetInt(Root, "k", 2).Release()
	tx.Commit().Release()

	patches := obs.Take()
	assert.Len(t, patches, 1)
	put, ok := patches[0].Action.(PutInMap)
	assert.True(t, ok)
	assert.False(t, put.Conflict)
}

func TestOverwriteConflictedKey(t *testing.T) {
	d := Create()
	defer d.Close()
	d.MapSetStr(Root, "k", "mine").Release()
	// the merge side delivers a concurrent value for the same key
	other := crdt.OpID{Counter: 1}
	other.Actor[15] = 0x77
	assert.NoError(t, d.eng.PutConcurrent(crdt.RootID, "k", Str("theirs"), other))

	tx, obs := begin(t, d)
	d.MapSetStr(Root, "k", "resolved").Release()
	tx.Commit().Release()

	patches := obs.Take()
	assert.Len(t, patches, 1)
	put := patches[0].Action.(PutInMap)
	assert.True(t, put.Conflict)
}

func TestListOverwriteConflictedSlot(t *testing.T) {
	d := Create()
	defer d.Close()
	list := makeList(t, d)
	d.ListSetStr(list, 0, true, "mine").Release()
	// the merge side delivers a concurrent value for the same position
	other := crdt.OpID{Counter: 2}
	other.Actor[15] = 0x77
	assert.NoError(t, d.eng.ListPutConcurrent(list.id, 0, Str("theirs"), other))

	vals, err := d.ListGet(list, 0).Values()
	assert.NoError(t, err)
	assert.Len(t, vals, 2)

	tx, obs := begin(t, d)
	d.ListSetStr(list, 0, false, "resolved").Release()
	tx.Commit().Release()

	patches := obs.Take()
	assert.Len(t, patches, 1)
	put := patches[0].Action.(PutInSeq)
	assert.True(t, put.Conflict)
	assert.Equal(t, 0, put.Index)

	s, _ := getOne(t, d.ListGet(list, 0)).Str()
	assert.Equal(t, "resolved", s)
}

func TestContiguousInsertIsOnePatch(t *testing.T) {
	d := Create()
	defer d.Close()
	list := makeList(t, d)

	tx, obs := begin(t, d)
	res := d.Splice(list, 0, Int(1), Int(2), Int(3), Int(4), Int(5))
	assert.Equal(t, CommandOk, res.Status())
	tx.Commit().Release()

	patches := obs.Take()
	assert.Len(t, patches, 1)
	ins := patches[0].Action.(Insert)
	assert.Equal(t, 0, ins.Index)
	assert.Len(t, ins.Values, 5)
}

func TestTextPatches(t *testing.T) {
	d := Create()
	defer d.Close()
	text, err := d.MapSetObject(Root, "t", Text).Obj()
	assert.NoError(t, err)
	d.SpliceText(text, 0, 0, "hello cruel world").Release()

	tx, obs := begin(t, d)
	d.SpliceText(text, 6, 6, "kind ").Release()
	tx.Commit().Release()

	patches := obs.Take()
	assert.Len(t, patches, 2)
	assert.Equal(t, DeleteFromSeq{Index: 6, Count: 6}, patches[0].Action)
	assert.Equal(t, SpliceText{Index: 6, Text: "kind "}, patches[1].Action)

	s, _ := getOne(t, d.Text(text)).Str()
	assert.Equal(t, "hello kind world", s)
}

func TestMarkUnmarkPatches(t *testing.T) {
	d := Create()
	defer d.Close()
	text, _ := d.MapSetObject(Root, "t", Text).Obj()
	d.SpliceText(text, 0, 0, "hello").Release()

	tx, obs := begin(t, d)
	d.Mark(text, 0, 5, "bold", Bool(true)).Release()
	d.Unmark(text, "bold", 0, 5).Release()
	tx.Commit().Release()

	patches := obs.Take()
	assert.Len(t, patches, 2)
	mark := patches[0].Action.(Mark)
	assert.Len(t, mark.Marks, 1)
	assert.Equal(t, "bold", mark.Marks[0].Name)
	assert.Equal(t, Unmark{Name: "bold", Start: 0, End: 5}, patches[1].Action)
}

func TestIncrementPatch(t *testing.T) {
	d := Create()
	defer d.Close()
	d.MapSetCounter(Root, "c", 1).Release()

	tx, obs := begin(t, d)
	d.MapIncrement(Root, "c", 9).Release()
	tx.Commit().Release()

	patches := obs.Take()
	assert.Len(t, patches, 1)
	assert.Equal(t, Increment{Key: "c", InMap: true, Delta: 9}, patches[0].Action)
}

func TestRangeDeleteIsOnePatch(t *testing.T) {
	d := Create()
	defer d.Close()
	list := makeList(t, d)
	d.Splice(list, 0, Int(0), Int(1), Int(2), Int(3)).Release()

	tx, obs := begin(t, d)
	d.ListDelete(list, 1, 2).Release()
	tx.Commit().Release()

	patches := obs.Take()
	assert.Len(t, patches, 1)
	assert.Equal(t, DeleteFromSeq{Index: 1, Count: 2}, patches[0].Action)
}

func TestPatchPathResolvesFromRoot(t *testing.T) {
	d := Create()
	defer d.Close()
	outer, _ := d.MapSetObject(Root, "outer", Map).Obj()
	items, _ := d.MapSetObject(outer, "items", List).Obj()

	tx, obs := begin(t, d)
	d.ListSetStr(items, 0, true, "first").Release()
	tx.Commit().Release()

	patches := obs.Take()
	assert.Len(t, patches, 1)
	assert.Equal(t, items, patches[0].Obj)
	assert.Equal(t, []PathStep{crdt.MapStep("outer"), crdt.MapStep("items")}, patches[0].Path)
}

func TestDrainTwice(t *testing.T) {
	d := Create()
	defer d.Close()
	tx, obs := begin(t, d)
	d.MapSetInt(Root, "k", 1).Release()
	tx.Commit().Release()

	assert.Len(t, obs.Take(), 1)
	assert.Len(t, obs.Take(), 0)
	assert.Equal(t, 0, obs.Len())
}

func TestUnobservedTransaction(t *testing.T) {
	d := Create()
	defer d.Close()
	tx, err := d.Begin(nil)
	assert.NoError(t, err)
	assert.Nil(t, tx.Observer())
	d.MapSetInt(Root, "k", 1).Release()
	res := tx.Commit()
	assert.Equal(t, ChangesOk, res.Status())
}
