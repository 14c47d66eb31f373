// Package model implements the four per-table consistency state machines
// (ASP, BSP, SSP, BSPResetAdd) described in SPEC_FULL.md §4.3-§4.6. Each
// keeps its own storage.Storage, progress.Tracker and pending.Buffer; none
// of them is ever touched by more than one goroutine, since a model
// instance belongs to exactly one server thread (SPEC_FULL.md §5).
//
// Grounded on flexps's server/abstract_model.hpp (the Clock/Add/Get/
// GetProgress/ResetWorker/Dump/Load capability set) and
// server/ssp_model.hpp / server/bsp_model_reset_add.{hpp,cpp} for the
// concrete state machines.
package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flexps/paramserver/errors"
	"github.com/flexps/paramserver/logger"
	"github.com/flexps/paramserver/message"
	"github.com/flexps/paramserver/pending"
	"github.com/flexps/paramserver/progress"
	"github.com/flexps/paramserver/storage"
)

const (
	// ErrUnknownOp is a programming error: a Message carried an Op this
	// entry point doesn't understand (e.g. Get dispatched to Add).
	ErrUnknownOp errors.Code = "UnknownOp"
)

// ReplyQueue is the transport-owned sink every model on a server thread
// pushes replies into. It is a multi-producer single-consumer channel in
// spirit (SPEC_FULL.md §5): many models push, one transport drains.
type ReplyQueue interface {
	Push(r message.Reply)
}

// ChanReplyQueue adapts a buffered channel of Reply to ReplyQueue. Pushing
// to a full channel blocks, which is the intended back-pressure behavior
// (SPEC_FULL.md §7 "Queue back-pressure").
type ChanReplyQueue chan message.Reply

func (q ChanReplyQueue) Push(r message.Reply) { q <- r }

// Model is the capability set every consistency state machine implements.
type Model interface {
	Add(msg message.Message)
	Get(msg message.Message)
	Clock(msg message.Message)
	GetProgress(worker int) int
	ResetWorker(msg message.Message)
	Dump(path string) error
	Load(path string) error

	// MinClock and PendingDepth expose read-only tracker/buffer state for
	// the registry's Prometheus collectors (SPEC_FULL.md §4.8 expansion);
	// they are not part of the request/reply protocol.
	MinClock() int
	PendingDepth() int
}

// base holds the fields every model variant shares: storage, progress
// tracking, the pending buffer, and where to push replies. Variants embed
// base and add only what's specific to their consistency rule, per the
// "avoid deep inheritance" guidance in SPEC_FULL.md §9 - this is Go
// composition, not a base class workers specialize.
type base struct {
	tableID  uint32
	serverID uint32

	dumpInterval int
	dataDir      string

	store   storage.Storage
	tracker *progress.Tracker
	buffer  *pending.Buffer
	replies ReplyQueue
	log     logger.Logger
}

// Config bundles the construction-time parameters shared by every model
// variant, so NewASP/NewBSP/NewSSP/NewBSPResetAdd all take one argument
// instead of a long positional list.
type Config struct {
	TableID      uint32
	ServerID     uint32
	Store        storage.Storage
	Replies      ReplyQueue
	DumpInterval int    // snapshot every N rounds of min-clock advance; 0 disables
	DataDir      string // snapshot destination; empty disables dumping regardless of DumpInterval
	Log          logger.Logger
}

func newBase(cfg Config) base {
	log := cfg.Log
	if log == nil {
		log = logger.NopLogger
	}
	return base{
		tableID:      cfg.TableID,
		serverID:     cfg.ServerID,
		dumpInterval: cfg.DumpInterval,
		dataDir:      cfg.DataDir,
		store:        cfg.Store,
		tracker:      progress.New(),
		buffer:       pending.New(),
		replies:      cfg.Replies,
		log:          log.WithPrefix("model"),
	}
}

// maybeDump snapshots storage to dataDir/table-<id>.snapshot when minClock
// just crossed a dump_interval boundary and a data directory is configured.
// Failures are logged, never fatal (SPEC_FULL.md §7).
func (b *base) maybeDump(minClock int) {
	if b.dataDir == "" || !shouldDump(b.dumpInterval, minClock) {
		return
	}
	path := filepath.Join(b.dataDir, fmt.Sprintf("table-%d.snapshot", b.tableID))
	if err := dump(b.store, path, b.log); err != nil {
		b.log.Warnf("snapshot at min_clock=%d failed: %v", minClock, err)
	}
}

// Dump writes a snapshot to an explicit path, for callers that don't want
// to wait for dump_interval.
func (b *base) Dump(path string) error { return dump(b.store, path, b.log) }

// Load replaces storage's state from an explicit snapshot path.
func (b *base) Load(path string) error { return load(b.store, path, b.log) }

func (b *base) GetProgress(worker int) int { return b.tracker.GetProgress(worker) }

func (b *base) MinClock() int     { return b.tracker.GetMinClock() }
func (b *base) PendingDepth() int { return b.buffer.Depth() }

// ResetWorker drops w's progress-tracker entry and discards any Gets it
// has pending, then acknowledges. This is the only way to release state
// belonging to a departed worker (SPEC_FULL.md §5).
func (b *base) ResetWorker(msg message.Message) {
	b.tracker.Remove(msg.Sender)
	discarded := b.buffer.DiscardWorker(msg.Sender)
	if discarded > 0 {
		b.log.Debugf("reset_worker: table=%d worker=%d discarded %d pending reads", b.tableID, msg.Sender, discarded)
	}
	b.replies.Push(message.Reply{Recipient: msg.Sender, TableID: b.tableID})
}

// applyAdd dispatches an Add/AddChunk Message straight to storage,
// independent of which model owns it. Shared by ASP (applies immediately)
// and BSP/SSP (also applies immediately; only Get visibility differs).
func applyAdd(store storage.Storage, msg message.Message) {
	switch msg.Op {
	case message.Add:
		store.Add(msg.Keys, msg.Vals)
	case message.AddChunk:
		store.AddChunk(msg.Keys, msg.Vals)
	default:
		panic(errors.New(ErrUnknownOp, "applyAdd: message is not an Add/AddChunk"))
	}
}

// readReply builds the Reply for a Get/GetChunk Message by reading
// storage, independent of which model owns it.
func readReply(store storage.Storage, msg message.Message) message.Reply {
	var vals []float64
	switch msg.Op {
	case message.Get:
		vals = store.Get(msg.Keys)
	case message.GetChunk:
		vals = store.GetChunk(msg.Keys)
	default:
		panic(errors.New(ErrUnknownOp, "readReply: message is not a Get/GetChunk"))
	}
	return message.Reply{Recipient: msg.Sender, TableID: msg.TableID, Keys: msg.Keys, Vals: vals}
}

// dump opens path and writes a storage snapshot, logging but not failing
// the model on I/O error (SPEC_FULL.md §7 "Snapshot I/O failure").
func dump(store storage.Storage, path string, log logger.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		log.Errorf("dump: opening %s: %v", path, err)
		return errors.Wrap(err, "opening snapshot file")
	}
	defer f.Close()
	if err := store.WriteTo(f); err != nil {
		log.Errorf("dump: writing %s: %v", path, err)
		return errors.Wrap(err, "writing snapshot")
	}
	return nil
}

// load opens path and replaces storage's state from it.
func load(store storage.Storage, path string, log logger.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		log.Errorf("load: opening %s: %v", path, err)
		return errors.Wrap(err, "opening snapshot file")
	}
	defer f.Close()
	if err := store.LoadFrom(f); err != nil {
		log.Errorf("load: reading %s: %v", path, err)
		return errors.Wrap(err, "reading snapshot")
	}
	return nil
}

// shouldDump reports whether a freshly-advanced min-clock should trigger a
// snapshot: dump_interval > 0 and min_clock is a nonzero multiple of it
// (SPEC_FULL.md §8 "Snapshot at min_clock=0 is suppressed").
func shouldDump(dumpInterval, minClock int) bool {
	return dumpInterval > 0 && minClock > 0 && minClock%dumpInterval == 0
}
