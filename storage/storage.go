// Package storage implements the two pluggable key/value backends a model
// instance accumulates Adds into: a sparse MapStorage and a dense
// range-bound VectorStorage. Both are grounded on flexps's
// server/map_storage.hpp and server/vector_storage.hpp, translated from
// per-Val C++ templates into Go types fixed to float64, since the message
// layer (message.Message) has already decoded values to float64 by the
// time they reach storage.
package storage

import (
	"io"

	"github.com/flexps/paramserver/errors"
)

const (
	// ErrKeyOutOfRange is panicked with (a fatal programming error per
	// SPEC_FULL.md §7) when a key falls outside a VectorStorage's owned
	// Range.
	ErrKeyOutOfRange errors.Code = "KeyOutOfRange"
	// ErrChunkMismatch is panicked with when a chunked operation's vals
	// slice isn't exactly len(keys) times the configured chunk size.
	ErrChunkMismatch errors.Code = "ChunkMismatch"
)

// Key is the 64-bit unsigned key type used throughout the model layer.
type Key = uint64

// Range is a half-open key interval [Begin, End) owned by one server
// thread's shard of a table.
type Range struct {
	Begin Key
	End   Key
}

// Size returns the number of keys in the range.
func (r Range) Size() uint64 { return r.End - r.Begin }

// Contains reports whether k falls within [Begin, End).
func (r Range) Contains(k Key) bool { return k >= r.Begin && k < r.End }

// Storage is the contract every consistency model accumulates Adds into and
// serves Gets from. Implementations are never called concurrently: a model
// instance, and therefore its Storage, is only ever touched by the single
// server thread that owns it (SPEC_FULL.md §5).
type Storage interface {
	// Add accumulates values[i] into the slot named by keys[i].
	Add(keys []Key, values []float64)
	// AddChunk accumulates a chunk_size-long run of values into the slot
	// named by keys[i]. len(values) must equal len(keys)*ChunkSize().
	AddChunk(keys []Key, values []float64)
	// Get returns the current value of each key in keys, defaulting to
	// zero for keys nothing has ever been added to.
	Get(keys []Key) []float64
	// GetChunk returns len(keys)*ChunkSize() values, the chunks for each
	// key in keys concatenated in order.
	GetChunk(keys []Key) []float64
	// ChunkSize is the fixed per-table chunk width; 1 means scalar.
	ChunkSize() uint32
	// FinishIter is called by BSP-family models once per barrier, after
	// all Adds up to the barrier have been applied. The default
	// implementations below treat it as a no-op hook reserved for future
	// compaction.
	FinishIter()
	// Clear resets every slot to the identity value (zero).
	Clear()
	// WriteTo serializes the storage's full state to w in the format
	// fixed by SPEC_FULL.md §4.1/§6.3.
	WriteTo(w io.Writer) error
	// LoadFrom replaces the storage's state with the snapshot read from
	// r. It must be the mirror image of WriteTo.
	LoadFrom(r io.Reader) error
}
