package model

import "github.com/flexps/paramserver/message"

// BSPModel is the bulk-synchronous model: a Get issued at clock c only sees
// storage once every worker has cleared round c, guaranteeing the reader
// observes every Add submitted up to that barrier. Adds apply to storage
// immediately; only read-visibility is gated, so the reader may also see
// Adds a faster worker has already submitted for a later round.
//
// Grounded on flexps's server/bsp_model_reset_add.{hpp,cpp}, which extends
// this exact rule (SPEC_FULL.md §4.4).
type BSPModel struct {
	base
}

// NewBSP constructs a BSPModel from cfg.
func NewBSP(cfg Config) *BSPModel {
	return &BSPModel{base: newBase(cfg)}
}

// Add applies an Add/AddChunk immediately; visibility, not the write
// itself, is what BSP delays.
func (m *BSPModel) Add(msg message.Message) {
	applyAdd(m.store, msg)
}

// Get serves immediately if every worker has already cleared msg.Clock,
// otherwise defers it until that barrier closes.
func (m *BSPModel) Get(msg message.Message) {
	if m.tracker.GetMinClock() >= msg.Clock {
		m.replies.Push(readReply(m.store, msg))
		return
	}
	m.buffer.Push(msg.Clock, msg)
}

// Clock advances the sender's round. When every worker has now cleared the
// new min-clock, the barrier closes: FinishIter lets storage compact, every
// Get waiting on that level is served, and a snapshot is taken if due.
func (m *BSPModel) Clock(msg message.Message) {
	newMin, changed := m.tracker.Advance(msg.Sender)
	if !changed {
		return
	}
	m.store.FinishIter()
	for _, req := range m.buffer.Pop(newMin) {
		m.replies.Push(readReply(m.store, req))
	}
	m.maybeDump(newMin)
}
