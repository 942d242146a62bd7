// Package changelog keeps committed change records durable: an append-only
// pebble store keyed by (actor, seq), with checksummed blobs and an LRU
// read cache. The records themselves stay opaque engine bytes.
package changelog

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
	"github.com/cockroachdb/pebble"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/learn-decentralized-systems/toyqueue"
	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("changelog: no such change")
	ErrCorrupted = errors.New("changelog: checksum mismatch")
)

const cacheSize = 1024

type Log struct {
	db    *pebble.DB
	cache *lru.Cache[string, []byte]
	wo    *pebble.WriteOptions
}

func Open(dir string) (*Log, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "changelog: open")
	}
	cache, _ := lru.New[string, []byte](cacheSize)
	return &Log{db: db, cache: cache, wo: pebble.Sync}, nil
}

func (l *Log) Close() error {
	return l.db.Close()
}

// key: 'C' | actor | big-endian seq, so iteration yields per-actor commit
// order.
func key(actor [16]byte, seq uint64) []byte {
	k := make([]byte, 0, 1+16+8)
	k = append(k, 'C')
	k = append(k, actor[:]...)
	return binary.BigEndian.AppendUint64(k, seq)
}

// Append stores one change record with an xxhash64 checksum in front.
func (l *Log) Append(actor [16]byte, seq uint64, blob []byte) error {
	k := key(actor, seq)
	val := make([]byte, 8, 8+len(blob))
	binary.BigEndian.PutUint64(val, xxhash.Sum64(blob))
	val = append(val, blob...)
	if err := l.db.Set(k, val, l.wo); err != nil {
		return errors.Wrap(err, "changelog: append")
	}
	l.cache.Add(string(k), append([]byte(nil), blob...))
	return nil
}

// Get loads one change record, verifying the checksum on a cache miss.
func (l *Log) Get(actor [16]byte, seq uint64) ([]byte, error) {
	k := key(actor, seq)
	if blob, ok := l.cache.Get(string(k)); ok {
		return blob, nil
	}
	val, closer, err := l.db.Get(k)
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "changelog: get")
	}
	defer closer.Close()
	blob, err := checkAndStrip(val)
	if err != nil {
		return nil, errors.Wrapf(err, "actor %x seq %d", actor[:4], seq)
	}
	l.cache.Add(string(k), blob)
	return blob, nil
}

func checkAndStrip(val []byte) ([]byte, error) {
	if len(val) < 8 {
		return nil, ErrCorrupted
	}
	blob := append([]byte(nil), val[8:]...)
	if binary.BigEndian.Uint64(val[:8]) != xxhash.Sum64(blob) {
		return nil, ErrCorrupted
	}
	return blob, nil
}

// All returns every stored change record in key order.
func (l *Log) All() (recs toyqueue.Records, err error) {
	it, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{'C'},
		UpperBound: []byte{'D'},
	})
	if err != nil {
		return nil, errors.Wrap(err, "changelog: iterate")
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		blob, cerr := checkAndStrip(it.Value())
		if cerr != nil {
			return nil, cerr
		}
		recs = append(recs, blob)
	}
	return recs, it.Error()
}
