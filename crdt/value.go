package crdt

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// ObjKind tags the three container types. The numeric values are part of
// the external contract and must not change.
type ObjKind uint8

const (
	List ObjKind = 1
	Map  ObjKind = 2
	Text ObjKind = 3
)

func (k ObjKind) String() string {
	switch k {
	case List:
		return "list"
	case Map:
		return "map"
	case Text:
		return "text"
	}
	return "objkind(" + strconv.Itoa(int(k)) + ")"
}

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindStr
	KindBytes
	KindCounter
	KindTimestamp
	KindObj
)

// Value is every primitive a document cell can hold. An object-kind Value
// is always a reference to a container, never the container itself.
type Value struct {
	kind Kind
	num  uint64
	str  string
	buf  []byte
	ok   ObjKind
	oid  OpID
}

func Null() Value             { return Value{kind: KindNull} }
func Int(v int64) Value       { return Value{kind: KindInt, num: uint64(v)} }
func Uint(v uint64) Value     { return Value{kind: KindUint, num: v} }
func Str(v string) Value      { return Value{kind: KindStr, str: v} }
func Bytes(v []byte) Value    { return Value{kind: KindBytes, buf: v} }
func Float(v float64) Value   { return Value{kind: KindFloat, num: math.Float64bits(v)} }
func Counter(v int64) Value   { return Value{kind: KindCounter, num: uint64(v)} }
func Timestamp(v int64) Value { return Value{kind: KindTimestamp, num: uint64(v)} }

func Bool(v bool) Value {
	val := Value{kind: KindBool}
	if v {
		val.num = 1
	}
	return val
}

// Object requests creation of a fresh, empty container of the given kind.
func Object(k ObjKind) Value {
	return Value{kind: KindObj, ok: k}
}

// ObjectRef is a link to an existing container. The engine stores these;
// Object (no id) only ever appears as a write request.
func ObjectRef(id OpID, k ObjKind) Value {
	return Value{kind: KindObj, ok: k, oid: id}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, bool) {
	return v.num != 0, v.kind == KindBool
}

func (v Value) Int() (int64, bool) {
	return int64(v.num), v.kind == KindInt
}

func (v Value) Uint() (uint64, bool) {
	return v.num, v.kind == KindUint
}

func (v Value) Float() (float64, bool) {
	return math.Float64frombits(v.num), v.kind == KindFloat
}

func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindStr
}

func (v Value) Bytes() ([]byte, bool) {
	return v.buf, v.kind == KindBytes
}

func (v Value) Counter() (int64, bool) {
	return int64(v.num), v.kind == KindCounter
}

func (v Value) Timestamp() (int64, bool) {
	return int64(v.num), v.kind == KindTimestamp
}

func (v Value) ObjKind() (ObjKind, bool) {
	return v.ok, v.kind == KindObj
}

func (v Value) ObjID() (OpID, bool) {
	return v.oid, v.kind == KindObj
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindStr:
		return v.str == o.str
	case KindBytes:
		return bytes.Equal(v.buf, o.buf)
	case KindObj:
		return v.oid == o.oid && v.ok == o.ok
	default:
		return v.num == o.num
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		b, _ := v.Bool()
		return strconv.FormatBool(b)
	case KindInt:
		return strconv.FormatInt(int64(v.num), 10)
	case KindUint:
		return strconv.FormatUint(v.num, 10)
	case KindFloat:
		f, _ := v.Float()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case KindStr:
		return strconv.Quote(v.str)
	case KindBytes:
		return fmt.Sprintf("0x%x", v.buf)
	case KindCounter:
		return "counter(" + strconv.FormatInt(int64(v.num), 10) + ")"
	case KindTimestamp:
		return "timestamp(" + strconv.FormatInt(int64(v.num), 10) + ")"
	case KindObj:
		return v.ok.String() + "@" + v.oid.String()
	}
	return "value(?)"
}
