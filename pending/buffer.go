// Package pending implements the PendingBuffer: a map from clock level to
// the FIFO queue of Get requests waiting for that level to become
// serveable. Grounded on the PendingBuffer referenced by flexps's
// server/ssp_model.hpp (member buffer_) and SPEC_FULL.md §4.7.
package pending

import "github.com/flexps/paramserver/message"

// Buffer holds Get requests bucketed by the clock level at which they
// become serveable. Like Tracker, it is only ever touched by the single
// server thread that owns the model instance it belongs to.
type Buffer struct {
	levels map[int][]message.Message
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{levels: make(map[int][]message.Message)}
}

// Push appends req to the FIFO queue for level.
func (b *Buffer) Push(level int, req message.Message) {
	b.levels[level] = append(b.levels[level], req)
}

// Pop removes and returns the entire FIFO queue for level, in the order
// requests were pushed. Returns nil if nothing is buffered at level.
func (b *Buffer) Pop(level int) []message.Message {
	reqs := b.levels[level]
	delete(b.levels, level)
	return reqs
}

// Depth returns the total number of requests buffered across every level,
// for metrics (SPEC_FULL.md §4.8 expansion).
func (b *Buffer) Depth() int {
	n := 0
	for _, reqs := range b.levels {
		n += len(reqs)
	}
	return n
}

// DiscardWorker removes every buffered request sent by worker w, across
// every level, returning the count discarded. Used by ResetWorker
// (SPEC_FULL.md §5 "Cancellation / timeout").
func (b *Buffer) DiscardWorker(w int) int {
	discarded := 0
	for level, reqs := range b.levels {
		kept := reqs[:0]
		for _, r := range reqs {
			if r.Sender == w {
				discarded++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(b.levels, level)
		} else {
			b.levels[level] = kept
		}
	}
	return discarded
}
