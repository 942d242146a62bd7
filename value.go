package automerge

import "github.com/marionauta/automerge/crdt"

// The scalar model lives in the crdt package; the boundary re-exports it so
// callers never import two packages for one write.

type (
	Value    = crdt.Value
	Kind     = crdt.Kind
	ObjKind  = crdt.ObjKind
	MarkSpan = crdt.MarkSpan
	PathStep = crdt.PathStep
)

const (
	List = crdt.List
	Map  = crdt.Map
	Text = crdt.Text
)

const (
	KindNull      = crdt.KindNull
	KindBool      = crdt.KindBool
	KindInt       = crdt.KindInt
	KindUint      = crdt.KindUint
	KindFloat     = crdt.KindFloat
	KindStr       = crdt.KindStr
	KindBytes     = crdt.KindBytes
	KindCounter   = crdt.KindCounter
	KindTimestamp = crdt.KindTimestamp
	KindObj       = crdt.KindObj
)

func Null() Value             { return crdt.Null() }
func Bool(v bool) Value       { return crdt.Bool(v) }
func Int(v int64) Value       { return crdt.Int(v) }
func Uint(v uint64) Value     { return crdt.Uint(v) }
func Float(v float64) Value   { return crdt.Float(v) }
func Str(v string) Value      { return crdt.Str(v) }
func Bytes(v []byte) Value    { return crdt.Bytes(v) }
func Counter(v int64) Value   { return crdt.Counter(v) }
func Timestamp(v int64) Value { return crdt.Timestamp(v) }
func Object(k ObjKind) Value  { return crdt.Object(k) }

// ObjRef names a container inside a document. The zero value is the
// document root: always valid, never allocated, never released. Two refs
// are equal iff they name the same container.
type ObjRef struct {
	id   crdt.OpID
	kind ObjKind
}

// Root addresses the top-level map of any document.
var Root ObjRef

func (o ObjRef) IsRoot() bool {
	return o.id.IsRoot()
}

func (o ObjRef) Kind() ObjKind {
	if o.IsRoot() {
		return Map
	}
	return o.kind
}

func (o ObjRef) String() string {
	if o.IsRoot() {
		return "_root"
	}
	return o.kind.String() + "@" + o.id.String()
}

func refOf(id crdt.OpID, kind ObjKind) ObjRef {
	return ObjRef{id: id, kind: kind}
}

// RefFromValue converts a stored object link back into a boundary ref.
func RefFromValue(v Value) (ObjRef, bool) {
	id, ok := v.ObjID()
	if !ok {
		return ObjRef{}, false
	}
	kind, _ := v.ObjKind()
	return ObjRef{id: id, kind: kind}, true
}
