package model

import "github.com/flexps/paramserver/message"

// ASPModel is the no-barrier consistency model: Adds apply to storage the
// moment they arrive and Gets are always served immediately from whatever
// storage currently holds, regardless of any worker's progress. Clock still
// advances the progress tracker so GetProgress/min-clock stay meaningful
// for monitoring, but nothing ever blocks on it.
//
// Grounded on flexps's server/abstract_model.hpp base behavior with no
// staleness bound applied (SPEC_FULL.md §4.3).
type ASPModel struct {
	base
}

// NewASP constructs an ASPModel from cfg.
func NewASP(cfg Config) *ASPModel {
	return &ASPModel{base: newBase(cfg)}
}

// Add applies an Add/AddChunk immediately; ASP never defers a write.
func (m *ASPModel) Add(msg message.Message) {
	applyAdd(m.store, msg)
}

// Get always serves from current storage state; ASP never buffers a read.
func (m *ASPModel) Get(msg message.Message) {
	m.replies.Push(readReply(m.store, msg))
}

// Clock advances the sender's progress; ASP's read path never consults it.
// When the min-clock moves, a snapshot is taken if due.
func (m *ASPModel) Clock(msg message.Message) {
	if newMin, changed := m.tracker.Advance(msg.Sender); changed {
		m.maybeDump(newMin)
	}
}
