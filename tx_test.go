package automerge

import (
	"testing"

	"github.com/marionauta/automerge/crdt"
	"github.com/stretchr/testify/assert"
)

func TestTxIsolation(t *testing.T) {
	d := Create()
	defer d.Close()
	d.MapSetStr(Root, "k", "before").Release()

	tx, err := d.Begin(nil)
	assert.NoError(t, err)
	d.MapSetStr(Root, "k", "during").Release()

	// the live document is untouched until Commit
	s, _ := getOne(t, d.Dup().MapGet(Root, "k")).Str()
	assert.Equal(t, "before", s)

	tx.Commit().Release()
	s, _ = getOne(t, d.MapGet(Root, "k")).Str()
	assert.Equal(t, "during", s)
}

func TestTxCommitSealsOneChange(t *testing.T) {
	d := Create()
	defer d.Close()
	before := len(d.history)

	tx, _ := d.Begin(nil)
	d.MapSetInt(Root, "a", 1).Release()
	d.MapSetInt(Root, "b", 2).Release()
	d.MapSetInt(Root, "c", 3).Release()
	res := tx.Commit()
	defer res.Release()

	assert.Equal(t, ChangesOk, res.Status())
	blobs, err := res.Changes()
	assert.NoError(t, err)
	assert.Len(t, blobs, 1)
	assert.True(t, crdt.VerifyChange(blobs[0]))
	assert.Equal(t, before+1, len(d.history))
}

func TestTxEmptyCommit(t *testing.T) {
	d := Create()
	defer d.Close()
	d.MapSetInt(Root, "k", 1).Release()
	before := len(d.history)

	tx, _ := d.Begin(nil)
	res := tx.Commit()
	assert.Equal(t, ChangesOk, res.Status())
	blobs, err := res.Changes()
	assert.NoError(t, err)
	assert.Empty(t, blobs)

	// nothing was sealed into history
	assert.Equal(t, before, len(d.history))
	assert.Equal(t, uint64(1), d.seq)
}

func TestTxRollback(t *testing.T) {
	d := Create()
	defer d.Close()
	d.MapSetStr(Root, "k", "keep").Release()

	tx, _ := d.Begin(nil)
	d.MapSetStr(Root, "k", "drop").Release()
	d.MapSetStr(Root, "gone", "drop").Release()
	assert.NoError(t, tx.Rollback())

	s, _ := getOne(t, d.MapGet(Root, "k")).Str()
	assert.Equal(t, "keep", s)
	vals, err := d.MapGet(Root, "gone").Values()
	assert.NoError(t, err)
	assert.Empty(t, vals)
}

func TestTxRollbackKillsFreshObjects(t *testing.T) {
	d := Create()
	defer d.Close()

	tx, _ := d.Begin(nil)
	ref, err := d.MapSetObject(Root, "tmp", Map).Obj()
	assert.NoError(t, err)
	assert.NoError(t, tx.Rollback())

	res := d.MapGet(ref, "x")
	assert.Equal(t, Error, res.Status())
	assert.ErrorIs(t, res.Err(), crdt.ErrUnknownObject)
}

func TestTxDoubleCommit(t *testing.T) {
	d := Create()
	defer d.Close()
	tx, _ := d.Begin(nil)
	tx.Commit().Release()

	res := tx.Commit()
	assert.Equal(t, Error, res.Status())
	assert.ErrorIs(t, res.Err(), ErrTxDone)
	assert.ErrorIs(t, tx.Rollback(), ErrTxDone)
}

func TestTxOnlyOneOpen(t *testing.T) {
	d := Create()
	defer d.Close()
	tx, err := d.Begin(nil)
	assert.NoError(t, err)

	_, err = d.Begin(nil)
	assert.ErrorIs(t, err, ErrTxOpen)

	assert.NoError(t, tx.Rollback())
	tx2, err := d.Begin(nil)
	assert.NoError(t, err)
	tx2.Commit().Release()
}

func TestTxAfterClose(t *testing.T) {
	d := Create()
	d.Close()
	_, err := d.Begin(nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestImplicitCommitsOutsideTx(t *testing.T) {
	d := Create()
	defer d.Close()

	d.MapSetInt(Root, "a", 1).Release()
	d.MapSetInt(Root, "b", 2).Release()
	blobs, err := d.Changes().Changes()
	assert.NoError(t, err)
	assert.Len(t, blobs, 2)
	for _, blob := range blobs {
		assert.True(t, crdt.VerifyChange(blob))
	}
}
