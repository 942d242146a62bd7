package crdt

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
	"github.com/learn-decentralized-systems/toytlv"
)

// A Change is one committed transaction's edits, sealed into an opaque
// TLV blob. Callers hold the bytes, never the structure; only the engine
// side of the boundary reads them back.
//
// Envelope: C( H(xxhash64) A(actor) S(seq) O(op)* ), each op
// O( T(action) I(obj id) K(key)? N(index)? C(count)? D(delta)? V(value)* ).

const (
	OpPutMap    byte = 'M'
	OpPutSeq    byte = 'L'
	OpInsert    byte = 'I'
	OpSplice    byte = 'S'
	OpIncrement byte = '+'
	OpDelMap    byte = 'd'
	OpDelSeq    byte = 'D'
	OpMark      byte = 'F'
	OpUnmark    byte = 'f'
	OpMakeObj   byte = 'O'
)

type OpRecord struct {
	Action byte
	Obj    OpID
	Key    string
	Index  int
	Count  int
	Delta  int64
	Name   string
	Text   string
	Values []Value
}

type Change struct {
	Actor Actor
	Seq   uint64
	Ops   []OpRecord
}

func (ch Change) Encode() []byte {
	body := toytlv.Record('A', ch.Actor[:])
	body = toytlv.Append(body, 'S', u64bytes(ch.Seq))
	for _, op := range ch.Ops {
		body = toytlv.Append(body, 'O', op.encode())
	}
	sum := xxhash.Sum64(body)
	return toytlv.Record('C', toytlv.Record('H', u64bytes(sum)), body)
}

func (op OpRecord) encode() []byte {
	rec := toytlv.Record('T', []byte{op.Action})
	rec = toytlv.Append(rec, 'I', op.Obj.Bytes())
	if op.Key != "" {
		rec = toytlv.Append(rec, 'K', []byte(op.Key))
	}
	if op.Name != "" {
		rec = toytlv.Append(rec, 'G', []byte(op.Name))
	}
	if op.Text != "" {
		rec = toytlv.Append(rec, 'X', []byte(op.Text))
	}
	rec = toytlv.Append(rec, 'N', u64bytes(uint64(op.Index)))
	rec = toytlv.Append(rec, 'C', u64bytes(uint64(op.Count)))
	rec = toytlv.Append(rec, 'D', u64bytes(uint64(op.Delta)))
	for _, v := range op.Values {
		rec = toytlv.Append(rec, 'V', encodeValue(v))
	}
	return rec
}

func u64bytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// encodeValue flattens a Value to kind byte + payload.
func encodeValue(v Value) []byte {
	out := []byte{byte(v.kind)}
	switch v.kind {
	case KindStr:
		out = append(out, v.str...)
	case KindBytes:
		out = append(out, v.buf...)
	case KindObj:
		out = append(out, byte(v.ok))
		out = append(out, v.oid.Bytes()...)
	case KindNull:
	default:
		out = binary.BigEndian.AppendUint64(out, v.num)
	}
	return out
}

// VerifyChange checks the envelope framing and checksum of an encoded
// change. It does not interpret the ops.
func VerifyChange(blob []byte) bool {
	body, rest := toytlv.Take('C', blob)
	if body == nil || len(rest) != 0 {
		return false
	}
	hash, payload := toytlv.Take('H', body)
	if len(hash) != 8 {
		return false
	}
	return binary.BigEndian.Uint64(hash) == xxhash.Sum64(payload)
}
