package storage

import (
	"encoding/binary"
	"io"

	"github.com/flexps/paramserver/errors"
)

// VectorStorage is a dense Storage backed by a contiguous slice, indexed by
// key - range.Begin. Every key passed to it must lie in the owned Range;
// out-of-range keys are a programming error (SPEC_FULL.md §7), so this
// panics rather than returning an error, matching the CHECK_GE/CHECK_LT
// aborts in flexps's server/vector_storage.hpp.
type VectorStorage struct {
	rng       Range
	chunkSize uint32
	slots     []float64
}

// NewVectorStorage returns a zeroed VectorStorage owning rng, with each key
// holding chunkSize consecutive values.
func NewVectorStorage(rng Range, chunkSize uint32) *VectorStorage {
	if rng.End < rng.Begin {
		panic(errors.New(ErrKeyOutOfRange, "vector storage range end before begin"))
	}
	return &VectorStorage{
		rng:       rng,
		chunkSize: chunkSize,
		slots:     make([]float64, rng.Size()*uint64(chunkSize)),
	}
}

func (s *VectorStorage) ChunkSize() uint32 { return s.chunkSize }

// Range returns the key interval this storage owns.
func (s *VectorStorage) Range() Range { return s.rng }

func (s *VectorStorage) index(k Key) uint64 {
	if !s.rng.Contains(k) {
		panic(errors.New(ErrKeyOutOfRange, "key out of VectorStorage range"))
	}
	return (k - s.rng.Begin) * uint64(s.chunkSize)
}

func (s *VectorStorage) Add(keys []Key, values []float64) {
	for i, k := range keys {
		s.slots[s.index(k)] += values[i]
	}
}

func (s *VectorStorage) AddChunk(keys []Key, values []float64) {
	if len(keys) == 0 {
		return
	}
	if len(values)%len(keys) != 0 || uint32(len(values)/len(keys)) != s.chunkSize {
		panic(errors.New(ErrChunkMismatch, "AddChunk: len(values)/len(keys) does not match chunk size"))
	}
	c := int(s.chunkSize)
	for i, k := range keys {
		base := s.index(k)
		for j := 0; j < c; j++ {
			s.slots[base+uint64(j)] += values[i*c+j]
		}
	}
}

func (s *VectorStorage) Get(keys []Key) []float64 {
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = s.slots[s.index(k)]
	}
	return out
}

func (s *VectorStorage) GetChunk(keys []Key) []float64 {
	c := int(s.chunkSize)
	out := make([]float64, len(keys)*c)
	for i, k := range keys {
		base := s.index(k)
		for j := 0; j < c; j++ {
			out[i*c+j] = s.slots[base+uint64(j)]
		}
	}
	return out
}

func (s *VectorStorage) FinishIter() {}

func (s *VectorStorage) Clear() {
	for i := range s.slots {
		s.slots[i] = 0
	}
}

// WriteTo writes: u32 chunk_size, u32 range_begin, u32 range_end, u64
// count, then count * Value records, all big-endian. This is the exact
// layout of SPEC_FULL.md §4.1.
func (s *VectorStorage) WriteTo(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, s.chunkSize); err != nil {
		return errors.Wrap(err, "writing chunk size")
	}
	if err := binary.Write(w, binary.BigEndian, uint32(s.rng.Begin)); err != nil {
		return errors.Wrap(err, "writing range begin")
	}
	if err := binary.Write(w, binary.BigEndian, uint32(s.rng.End)); err != nil {
		return errors.Wrap(err, "writing range end")
	}
	if err := binary.Write(w, binary.BigEndian, uint64(len(s.slots))); err != nil {
		return errors.Wrap(err, "writing count")
	}
	if err := binary.Write(w, binary.BigEndian, s.slots); err != nil {
		return errors.Wrap(err, "writing values")
	}
	return nil
}

func (s *VectorStorage) LoadFrom(r io.Reader) error {
	var chunkSize, begin, end uint32
	if err := binary.Read(r, binary.BigEndian, &chunkSize); err != nil {
		return errors.Wrap(err, "reading chunk size")
	}
	if err := binary.Read(r, binary.BigEndian, &begin); err != nil {
		return errors.Wrap(err, "reading range begin")
	}
	if err := binary.Read(r, binary.BigEndian, &end); err != nil {
		return errors.Wrap(err, "reading range end")
	}
	var count uint64
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return errors.Wrap(err, "reading count")
	}
	slots := make([]float64, count)
	if err := binary.Read(r, binary.BigEndian, slots); err != nil {
		return errors.Wrap(err, "reading values")
	}
	s.chunkSize = chunkSize
	s.rng = Range{Begin: Key(begin), End: Key(end)}
	s.slots = slots
	return nil
}
