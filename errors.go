package automerge

import "errors"

var (
	ErrClosed    = errors.New("automerge: no open document behind this handle")
	ErrWrongKind = errors.New("automerge: result does not hold that kind")
	ErrTxOpen    = errors.New("automerge: a transaction is already open")
	ErrTxDone    = errors.New("automerge: transaction already finished")
)
