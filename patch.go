package automerge

import "github.com/marionauta/automerge/crdt"

// Patch is one structured change record: the container it hit, the path of
// keys and indices from the root to that container at the moment the patch
// was recorded, and what happened there. Patches are immutable once made.
type Patch struct {
	Obj    ObjRef
	Path   []PathStep
	Action PatchAction
}

// PatchAction is a closed set; the concrete types below are the only
// implementations.
type PatchAction interface {
	isPatchAction()
}

type PutInMap struct {
	Key      string
	Value    Value
	Conflict bool
}

type PutInSeq struct {
	Index    int
	Value    Value
	Conflict bool
}

// Insert carries every value of one contiguous insertion, not one patch
// per value.
type Insert struct {
	Index  int
	Values []Value
}

type SpliceText struct {
	Index int
	Text  string
}

// Increment addresses the counter by key (InMap) or index.
type Increment struct {
	Key   string
	Index int
	InMap bool
	Delta int64
}

type DeleteFromMap struct {
	Key string
}

// DeleteFromSeq covers a contiguous range in one patch.
type DeleteFromSeq struct {
	Index int
	Count int
}

type Mark struct {
	Marks []MarkSpan
}

type Unmark struct {
	Name  string
	Start int
	End   int
}

func (PutInMap) isPatchAction()      {}
func (PutInSeq) isPatchAction()      {}
func (Insert) isPatchAction()        {}
func (SpliceText) isPatchAction()    {}
func (Increment) isPatchAction()     {}
func (DeleteFromMap) isPatchAction() {}
func (DeleteFromSeq) isPatchAction() {}
func (Mark) isPatchAction()          {}
func (Unmark) isPatchAction()        {}

// Observer accumulates the patches of one observed transaction, in the
// order the mutations were applied.
type Observer struct {
	patches []Patch
}

func NewObserver() *Observer {
	return &Observer{}
}

// record appends one patch, resolving the target's path against the engine
// the mutation just ran on. A nil observer records nothing.
func (o *Observer) record(eng *crdt.Doc, obj ObjRef, action PatchAction) {
	if o == nil {
		return
	}
	path, err := eng.Path(obj.id)
	if err != nil {
		// the mutation itself succeeded, so the target exists; a path
		// failure here means the ref was stale and the write would have
		// failed first
		return
	}
	o.patches = append(o.patches, Patch{Obj: obj, Path: path, Action: action})
	PatchesEmitted.Inc()
}

// Take drains the accumulated patches. A second drain yields an empty
// sequence, not an error.
func (o *Observer) Take() []Patch {
	p := o.patches
	o.patches = nil
	return p
}

func (o *Observer) Len() int {
	return len(o.patches)
}
