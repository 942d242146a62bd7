package automerge

import (
	"fmt"

	"github.com/learn-decentralized-systems/toyqueue"
)

// Status reports which variant a Result holds. The numeric tags are stable
// and externally visible.
type Status uint8

const (
	ChangesOk Status = iota + 1
	CommandOk
	Error
	InvalidResult
	ObjOk
	ValuesOk
)

func (s Status) String() string {
	switch s {
	case ChangesOk:
		return "changes-ok"
	case CommandOk:
		return "command-ok"
	case Error:
		return "error"
	case InvalidResult:
		return "invalid-result"
	case ObjOk:
		return "object-ok"
	case ValuesOk:
		return "values-ok"
	}
	return "status(?)"
}

// Result is the single tagged return of every boundary operation: exactly
// one of nothing, an error message, an object ref, values, or change
// records. Inspect Status before extracting; extracting the wrong variant
// reports ErrWrongKind, it never aliases another variant's payload.
//
// A Result is owned by the caller and released once with Release. A nil or
// released Result answers InvalidResult to everything.
type Result struct {
	status  Status
	err     error
	obj     ObjRef
	vals    []Value
	changes toyqueue.Records
}

func resOk() *Result {
	return &Result{status: CommandOk}
}

func resErr(err error) *Result {
	return &Result{status: Error, err: err}
}

func resErrf(format string, args ...any) *Result {
	return &Result{status: Error, err: fmt.Errorf(format, args...)}
}

func resObj(o ObjRef) *Result {
	return &Result{status: ObjOk, obj: o}
}

func resValues(vals ...Value) *Result {
	return &Result{status: ValuesOk, vals: vals}
}

func resChanges(recs toyqueue.Records) *Result {
	return &Result{status: ChangesOk, changes: recs}
}

func (r *Result) Status() Status {
	if r == nil || r.status == 0 {
		return InvalidResult
	}
	return r.status
}

// ErrorMessage returns the message of an error Result, "" otherwise.
func (r *Result) ErrorMessage() string {
	if r.Status() != Error {
		return ""
	}
	return r.err.Error()
}

// Err returns the error of an error Result, nil for every success variant.
func (r *Result) Err() error {
	switch r.Status() {
	case Error:
		return r.err
	case InvalidResult:
		return ErrWrongKind
	}
	return nil
}

func (r *Result) Obj() (ObjRef, error) {
	if r.Status() != ObjOk {
		return ObjRef{}, ErrWrongKind
	}
	return r.obj, nil
}

func (r *Result) Values() ([]Value, error) {
	if r.Status() != ValuesOk {
		return nil, ErrWrongKind
	}
	return r.vals, nil
}

func (r *Result) Changes() (toyqueue.Records, error) {
	if r.Status() != ChangesOk {
		return nil, ErrWrongKind
	}
	return r.changes, nil
}

// Release drops the payload and invalidates the Result. Releasing twice,
// or releasing nil, is a no-op.
func (r *Result) Release() {
	if r == nil {
		return
	}
	r.status = 0
	r.err = nil
	r.obj = ObjRef{}
	r.vals = nil
	r.changes = nil
}
