package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathNested(t *testing.T) {
	d := NewWithActor(actorN(1))
	mid, _, _ := d.MapPutObject(RootID, "outer", Map)
	lid, _, _ := d.MapPutObject(mid, "items", List)
	_ = d.ListInsert(lid, 0, Int(0))
	iid, err := d.ListInsertObject(lid, 1, Map)
	assert.NoError(t, err)

	path, err := d.Path(iid)
	assert.NoError(t, err)
	assert.Equal(t, []PathStep{MapStep("outer"), MapStep("items"), ListStep(1)}, path)

	// list steps track current positions
	_ = d.ListInsert(lid, 0, Int(9))
	path, _ = d.Path(iid)
	assert.Equal(t, ListStep(2), path[2])
}

func TestPathRoot(t *testing.T) {
	d := NewWithActor(actorN(1))
	path, err := d.Path(RootID)
	assert.NoError(t, err)
	assert.Len(t, path, 0)
}
