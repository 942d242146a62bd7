package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newText(t *testing.T) (*Doc, OpID) {
	d := NewWithActor(actorN(1))
	tid, _, err := d.MapPutObject(RootID, "t", Text)
	assert.NoError(t, err)
	return d, tid
}

func TestSpliceText(t *testing.T) {
	d, tid := newText(t)
	assert.NoError(t, d.SpliceText(tid, 0, 0, "hello world"))
	s, _ := d.Text(tid)
	assert.Equal(t, "hello world", s)

	assert.NoError(t, d.SpliceText(tid, 6, 5, "там"))
	s, _ = d.Text(tid)
	assert.Equal(t, "hello там", s)

	n, _ := d.Length(tid)
	assert.Equal(t, 9, n)

	assert.ErrorIs(t, d.SpliceText(tid, 8, 5, "x"), ErrBadIndex)
	assert.ErrorIs(t, d.SpliceText(RootID, 0, 0, "x"), ErrNotText)
}

func TestMarksFollowSplices(t *testing.T) {
	d, tid := newText(t)
	_ = d.SpliceText(tid, 0, 0, "hello world")
	assert.NoError(t, d.Mark(tid, MarkSpan{Name: "bold", Start: 6, End: 11, Value: Bool(true)}))

	// inserting before the span shifts it right
	_ = d.SpliceText(tid, 0, 0, ">> ")
	marks, _ := d.Marks(tid)
	assert.Len(t, marks, 1)
	assert.Equal(t, 9, marks[0].Start)
	assert.Equal(t, 14, marks[0].End)

	assert.NoError(t, d.Unmark(tid, "bold", 0, 20))
	marks, _ = d.Marks(tid)
	assert.Len(t, marks, 0)
}

func TestUnmarkKeepsOthers(t *testing.T) {
	d, tid := newText(t)
	_ = d.SpliceText(tid, 0, 0, "abcdef")
	_ = d.Mark(tid, MarkSpan{Name: "bold", Start: 0, End: 3, Value: Bool(true)})
	_ = d.Mark(tid, MarkSpan{Name: "italic", Start: 0, End: 3, Value: Bool(true)})
	_ = d.Mark(tid, MarkSpan{Name: "bold", Start: 4, End: 6, Value: Bool(true)})

	assert.NoError(t, d.Unmark(tid, "bold", 0, 3))
	marks, _ := d.Marks(tid)
	assert.Len(t, marks, 2)

	assert.ErrorIs(t, d.Mark(tid, MarkSpan{Name: "x", Start: 4, End: 99}), ErrBadSpan)
}
