/*
Package automerge is the boundary surface of a CRDT document engine: a
tree-shaped document of maps, lists and text behind an owning handle, a
uniform tagged Result for every operation, and an observer protocol that
reports each mutation of a transaction as a path-addressed Patch.

A Doc is single-writer: callers serialize mutations on one handle
themselves. Reads may run concurrently with each other, never with a
writer. Concurrent *documents* are separate handles; reconciling them is
the merge collaborator's business, not this package's.
*/
package automerge

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/learn-decentralized-systems/toyqueue"
	"github.com/marionauta/automerge/changelog"
	"github.com/marionauta/automerge/crdt"
	"github.com/marionauta/automerge/utils"
)

// Doc owns one engine instance plus the actor identity used to stamp its
// edits. Create or Dup builds one; Close releases it. A closed handle
// answers every call with an error Result instead of touching anything.
type Doc struct {
	eng     *crdt.Doc
	log     utils.Logger
	clog    *changelog.Log
	history toyqueue.Records
	seq     uint64
	tx      *Tx
	closed  atomic.Bool
}

type Option func(*Doc)

func WithLogger(l utils.Logger) Option {
	return func(d *Doc) { d.log = l }
}

// WithChangeLog makes every committed change record durable in the given
// log. The log stays owned by the caller; Close does not close it.
func WithChangeLog(l *changelog.Log) Option {
	return func(d *Doc) { d.clog = l }
}

// Create builds a handle over a fresh empty document with a randomly
// generated actor identifier. Always succeeds.
func Create(opts ...Option) *Doc {
	d := &Doc{
		eng: crdt.New(),
		log: utils.NewDefaultLogger(slog.LevelWarn),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Dup deep-copies the document state and actor identity into a new,
// independently owned handle. Mutating the copy never shows through the
// original. The copy does not inherit the change log: both handles write
// under the same actor, and one durable log cannot hold both histories.
func (d *Doc) Dup() *Doc {
	if d.guard() != nil {
		return nil
	}
	return &Doc{
		eng:     d.eng.Clone(),
		log:     d.log,
		history: append(toyqueue.Records(nil), d.history...),
		seq:     d.seq,
	}
}

// Close releases the document. The handle stays allocated but inert; any
// later call reports an error Result. Closing twice is a no-op.
func (d *Doc) Close() error {
	if d == nil || d.closed.Swap(true) {
		return nil
	}
	d.eng = nil
	d.tx = nil
	return nil
}

// guard screens out nil and closed handles before anything touches the
// document.
func (d *Doc) guard() *Result {
	if d == nil || d.closed.Load() || d.eng == nil {
		return resErr(ErrClosed)
	}
	return nil
}

// Config sets a handle-level property. The key set is closed: only "actor"
// exists, and its value must be exactly 16 hex-encoded bytes. Unknown keys
// fail closed.
func (d *Doc) Config(key, value string) *Result {
	if r := d.guard(); r != nil {
		return r
	}
	switch key {
	case "actor":
		actor, err := crdt.ActorFromHex(value)
		if err != nil {
			return resErrf("invalid actor '%s'", value)
		}
		d.eng.SetActor(actor)
		return resOk()
	default:
		return resErrf("invalid config key '%s'", key)
	}
}

// Actor reports the handle's actor identifier as a hex string value.
func (d *Doc) Actor() *Result {
	if r := d.guard(); r != nil {
		return r
	}
	return resValues(Str(d.eng.Actor().String()))
}

// Changes returns every change record committed through this handle, in
// commit order. The records are opaque engine blobs.
func (d *Doc) Changes() *Result {
	if r := d.guard(); r != nil {
		return r
	}
	return resChanges(append(toyqueue.Records(nil), d.history...))
}

// commitOps seals a batch of applied ops into one change record and
// appends it to the handle's history and, when attached, the durable log.
func (d *Doc) commitOps(ops []crdt.OpRecord) []byte {
	start := time.Now()
	d.seq++
	blob := crdt.Change{Actor: d.eng.Actor(), Seq: d.seq, Ops: ops}.Encode()
	d.history = append(d.history, blob)
	if d.clog != nil {
		if err := d.clog.Append(d.eng.Actor(), d.seq, blob); err != nil {
			d.log.Error("change log append failed", "seq", d.seq, "err", err)
		}
	}
	Commits.Inc()
	CommitDuration.Observe(time.Since(start).Seconds())
	return blob
}
