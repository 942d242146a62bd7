package changelog

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *Log {
	l, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAppendGet(t *testing.T) {
	l := open(t)
	actor := [16]byte{1, 2, 3}

	assert.NoError(t, l.Append(actor, 1, []byte("first")))
	assert.NoError(t, l.Append(actor, 2, []byte("second")))

	blob, err := l.Get(actor, 1)
	assert.NoError(t, err)
	assert.Equal(t, []byte("first"), blob)
	blob, err = l.Get(actor, 2)
	assert.NoError(t, err)
	assert.Equal(t, []byte("second"), blob)
}

func TestGetMissing(t *testing.T) {
	l := open(t)
	_, err := l.Get([16]byte{9}, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSurvivesCacheEviction(t *testing.T) {
	l := open(t)
	actor := [16]byte{4}
	require.NoError(t, l.Append(actor, 7, []byte("payload")))
	// drop the cached copy so the read goes through pebble and the checksum
	l.cache.Purge()

	blob, err := l.Get(actor, 7)
	assert.NoError(t, err)
	assert.Equal(t, []byte("payload"), blob)
}

func TestAllInCommitOrder(t *testing.T) {
	l := open(t)
	a := [16]byte{1}
	b := [16]byte{2}
	require.NoError(t, l.Append(a, 1, []byte("a1")))
	require.NoError(t, l.Append(a, 2, []byte("a2")))
	require.NoError(t, l.Append(b, 1, []byte("b1")))

	recs, err := l.All()
	assert.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []byte("a1"), []byte(recs[0]))
	assert.Equal(t, []byte("a2"), []byte(recs[1]))
	assert.Equal(t, []byte("b1"), []byte(recs[2]))
}

func TestCorruptedValue(t *testing.T) {
	l := open(t)
	actor := [16]byte{5}
	// bypass Append so the stored value has no valid checksum
	require.NoError(t, l.db.Set(key(actor, 1), []byte("too short"), l.wo))

	_, err := l.Get(actor, 1)
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestCollector(t *testing.T) {
	l := open(t)
	require.NoError(t, l.Append([16]byte{6}, 1, []byte("x")))

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewCollector(l)))
	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
