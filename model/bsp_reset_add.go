package model

import "github.com/flexps/paramserver/message"

// BSPResetAdd composes a BSPModel with an extra per-barrier stage: Adds
// submitted during a round never touch storage directly. Instead they
// queue in addBuffer, and only get applied to storage when that round's
// barrier closes - right after storage has been cleared of the previous
// round's total. This keeps storage, at every moment, equal to exactly one
// round's aggregate: never a half-formed mix of the round just closing and
// the round still in flight.
//
// The BSPModel is held as a named field, not embedded anonymously: this is
// deliberately composition rather than promotion-based inheritance, since
// Clock needs to interpose the Clear()-then-drain step between the barrier
// closing and the model being ready for the next round.
//
// Grounded on flexps's server/bsp_model_reset_add.{hpp,cpp}, whose
// add_buffer_ member is drained at exactly this point (SPEC_FULL.md §4.6).
type BSPResetAdd struct {
	bsp       *BSPModel
	addBuffer []message.Message
}

// NewBSPResetAdd constructs a BSPResetAdd from cfg.
func NewBSPResetAdd(cfg Config) *BSPResetAdd {
	return &BSPResetAdd{bsp: NewBSP(cfg)}
}

// Add queues msg rather than applying it to storage. It is only applied
// once the round it belongs to closes, in Clock.
func (m *BSPResetAdd) Add(msg message.Message) {
	m.addBuffer = append(m.addBuffer, msg)
}

func (m *BSPResetAdd) Get(msg message.Message)         { m.bsp.Get(msg) }
func (m *BSPResetAdd) GetProgress(worker int) int      { return m.bsp.GetProgress(worker) }
func (m *BSPResetAdd) ResetWorker(msg message.Message) { m.bsp.ResetWorker(msg) }
func (m *BSPResetAdd) Dump(path string) error          { return m.bsp.Dump(path) }
func (m *BSPResetAdd) Load(path string) error          { return m.bsp.Load(path) }
func (m *BSPResetAdd) MinClock() int                   { return m.bsp.MinClock() }
func (m *BSPResetAdd) PendingDepth() int               { return m.bsp.PendingDepth() }

// Clock advances the sender's round exactly as BSPModel does. When the
// barrier closes: storage is cleared of the round that was just read, the
// add_buffer_ for the round now closing is drained into it, FinishIter lets
// storage compact, a snapshot is taken if due, and only then are the Gets
// waiting on this barrier served - so they observe that round's complete
// total, never zero and never a partial drain.
func (m *BSPResetAdd) Clock(msg message.Message) {
	newMin, changed := m.bsp.tracker.Advance(msg.Sender)
	if !changed {
		return
	}
	m.bsp.store.Clear()
	m.drainAddBuffer()
	m.bsp.store.FinishIter()
	m.bsp.maybeDump(newMin)
	for _, req := range m.bsp.buffer.Pop(newMin) {
		m.bsp.replies.Push(readReply(m.bsp.store, req))
	}
}

// drainAddBuffer applies every queued Add/AddChunk to storage, in the order
// submitted, then empties the buffer for the next round.
func (m *BSPResetAdd) drainAddBuffer() {
	for _, msg := range m.addBuffer {
		applyAdd(m.bsp.store, msg)
	}
	m.addBuffer = m.addBuffer[:0]
}
