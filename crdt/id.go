package crdt

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Actor is the fixed-size replica identity. The surrounding engine uses it
// to order concurrent edits; this layer only generates, parses and prints it.
type Actor [16]byte

var ErrBadActor = errors.New("crdt: actor id must be 16 hex-encoded bytes")

func RandomActor() Actor {
	return Actor(uuid.New())
}

func ActorFromHex(s string) (a Actor, err error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(a) {
		return Actor{}, ErrBadActor
	}
	copy(a[:], raw)
	return
}

func (a Actor) String() string {
	return hex.EncodeToString(a[:])
}

/*
	OpID identifies one operation, hence also the object that operation
	created. The counter is per-document Lamport-ish: every local op gets
	counter = max seen + 1, so an OpID totally orders against any other by
	(counter, actor).

	The zero OpID names the document root. The root is never allocated and
	never released.
*/
type OpID struct {
	Counter uint64
	Actor   Actor
}

var RootID OpID

func (id OpID) IsRoot() bool {
	return id == RootID
}

func (id OpID) Less(other OpID) bool {
	if id.Counter != other.Counter {
		return id.Counter < other.Counter
	}
	return bytes.Compare(id.Actor[:], other.Actor[:]) < 0
}

const opIDLen = 8 + 16

func (id OpID) Bytes() []byte {
	var ret [opIDLen]byte
	binary.BigEndian.PutUint64(ret[:8], id.Counter)
	copy(ret[8:], id.Actor[:])
	return ret[:]
}

func OpIDFromBytes(by []byte) OpID {
	if len(by) != opIDLen {
		return RootID
	}
	var id OpID
	id.Counter = binary.BigEndian.Uint64(by[:8])
	copy(id.Actor[:], by[8:])
	return id
}

func (id OpID) String() string {
	if id.IsRoot() {
		return "_root"
	}
	return fmt.Sprintf("%d@%x", id.Counter, id.Actor[:4])
}
