package automerge

import (
	"github.com/learn-decentralized-systems/toyqueue"
	"github.com/marionauta/automerge/crdt"
)

type txState uint8

const (
	txIdle txState = iota
	txInProgress
	txCommitted
	txRolledBack
)

// Tx buffers a sequence of mutations against a private fork of the
// document. Nothing shows through the handle until Commit swaps the fork
// in; Rollback just drops it. While a Tx is open, every mutation on the
// handle lands in the fork, and, when an observer was attached at Begin,
// appends its patches before the call returns.
type Tx struct {
	doc   *Doc
	fork  *crdt.Doc
	obs   *Observer
	ops   []crdt.OpRecord
	state txState
}

// Begin opens a transaction on the handle. obs may be nil for an
// unobserved transaction. Only one transaction can be open per handle.
func (d *Doc) Begin(obs *Observer) (*Tx, error) {
	if r := d.guard(); r != nil {
		return nil, ErrClosed
	}
	if d.tx != nil && d.tx.state == txInProgress {
		return nil, ErrTxOpen
	}
	t := &Tx{doc: d, fork: d.eng.Clone(), obs: obs, state: txInProgress}
	d.tx = t
	return t, nil
}

// Commit publishes the buffered edits, seals them into one change record
// and returns it. A transaction with no edits commits nothing and returns
// no record. The transaction is finished afterwards; committing again is
// an error Result.
func (t *Tx) Commit() *Result {
	if t == nil || t.state != txInProgress {
		return resErr(ErrTxDone)
	}
	d := t.doc
	if r := d.guard(); r != nil {
		return r
	}
	d.eng = t.fork
	t.state = txCommitted
	d.tx = nil
	if len(t.ops) == 0 {
		return resChanges(nil)
	}
	blob := d.commitOps(t.ops)
	return resChanges(toyqueue.Records{blob})
}

// Rollback discards every buffered edit. Object references handed out
// inside the transaction die with it.
func (t *Tx) Rollback() error {
	if t == nil || t.state != txInProgress {
		return ErrTxDone
	}
	t.state = txRolledBack
	t.doc.tx = nil
	return nil
}

// Observer returns the observer attached at Begin, nil for unobserved
// transactions.
func (t *Tx) Observer() *Observer {
	return t.obs
}
