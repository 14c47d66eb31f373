package model

import "github.com/flexps/paramserver/message"

// SSPModel is the stale-synchronous model: a Get issued at clock c is
// served as soon as the slowest worker is within staleness rounds of c,
// rather than waiting for every worker to fully reach c. At staleness=0
// this coincides exactly with BSPModel's read-visibility rule, but SSP
// keeps its own bucket bookkeeping rather than delegating to a BSPModel
// value, since the bucket key (msg.Clock - staleness) differs in general.
//
// Grounded on flexps's server/ssp_model.hpp (SPEC_FULL.md §4.5).
type SSPModel struct {
	base
	staleness int
}

// NewSSP constructs an SSPModel with the given bound on how many rounds a
// reader may trail the slowest worker.
func NewSSP(cfg Config, staleness int) *SSPModel {
	return &SSPModel{base: newBase(cfg), staleness: staleness}
}

// Add applies an Add/AddChunk immediately.
func (m *SSPModel) Add(msg message.Message) {
	applyAdd(m.store, msg)
}

// Get serves immediately once the min-clock has reached msg.Clock minus the
// staleness bound, otherwise defers it until that level is reached.
func (m *SSPModel) Get(msg message.Message) {
	required := msg.Clock - m.staleness
	if required < 0 {
		required = 0
	}
	if m.tracker.GetMinClock() >= required {
		m.replies.Push(readReply(m.store, msg))
		return
	}
	m.buffer.Push(required, msg)
}

// Clock advances the sender's round and, if the min-clock moved, flushes
// every Get now within the staleness bound.
func (m *SSPModel) Clock(msg message.Message) {
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
