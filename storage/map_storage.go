package storage

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/flexps/paramserver/errors"
)

// MapStorage is a sparse Storage backed by a Go map, for key spaces where
// most keys are never touched. Grounded on flexps's
// server/map_storage.hpp: insert-on-miss default zero, same Add/AddChunk/
// Get/GetChunk/Clear/WriteTo/LoadFrom contract.
type MapStorage struct {
	chunkSize uint32
	slots     map[Key]float64
}

// NewMapStorage returns an empty MapStorage for the given chunk size.
// chunkSize must be >= 1; chunkSize == 1 is the scalar case.
func NewMapStorage(chunkSize uint32) *MapStorage {
	return &MapStorage{
		chunkSize: chunkSize,
		slots:     make(map[Key]float64),
	}
}

func (s *MapStorage) ChunkSize() uint32 { return s.chunkSize }

func (s *MapStorage) Add(keys []Key, values []float64) {
	for i, k := range keys {
		s.slots[k] += values[i]
	}
}

func (s *MapStorage) AddChunk(keys []Key, values []float64) {
	if len(keys) == 0 {
		return
	}
	if len(values)%len(keys) != 0 || uint32(len(values)/len(keys)) != s.chunkSize {
		panic(errors.New(ErrChunkMismatch, "AddChunk: len(values)/len(keys) does not match chunk size"))
	}
	c := int(s.chunkSize)
	for i, k := range keys {
		for j := 0; j < c; j++ {
			s.slots[k*Key(c)+Key(j)] += values[i*c+j]
		}
	}
}

func (s *MapStorage) Get(keys []Key) []float64 {
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = s.slots[k]
	}
	return out
}

func (s *MapStorage) GetChunk(keys []Key) []float64 {
	c := int(s.chunkSize)
	out := make([]float64, len(keys)*c)
	for i, k := range keys {
		for j := 0; j < c; j++ {
			out[i*c+j] = s.slots[k*Key(c)+Key(j)]
		}
	}
	return out
}

func (s *MapStorage) FinishIter() {}

func (s *MapStorage) Clear() {
	s.slots = make(map[Key]float64)
}

// WriteTo writes: u32 chunk_size, u64 count, then count * (Key, Value)
// records in ascending key order, all big-endian. This is the exact layout
// of SPEC_FULL.md §4.1; the fixed order makes re-dumping a loaded snapshot
// reproduce the same bytes.
func (s *MapStorage) WriteTo(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, s.chunkSize); err != nil {
		return errors.Wrap(err, "writing chunk size")
	}
	if err := binary.Write(w, binary.BigEndian, uint64(len(s.slots))); err != nil {
		return errors.Wrap(err, "writing count")
	}
	keys := make([]Key, 0, len(s.slots))
	for k := range s.slots {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		v := s.slots[k]
		if err := binary.Write(w, binary.BigEndian, k); err != nil {
			return errors.Wrap(err, "writing key")
		}
		if err := binary.Write(w, binary.BigEndian, v); err != nil {
			return errors.Wrap(err, "writing value")
		}
	}
	return nil
}

func (s *MapStorage) LoadFrom(r io.Reader) error {
	var chunkSize uint32
	if err := binary.Read(r, binary.BigEndian, &chunkSize); err != nil {
		return errors.Wrap(err, "reading chunk size")
	}
	var count uint64
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return errors.Wrap(err, "reading count")
	}
	slots := make(map[Key]float64, count)
	for i := uint64(0); i < count; i++ {
		var k Key
		var v float64
		if err := binary.Read(r, binary.BigEndian, &k); err != nil {
			return errors.Wrap(err, "reading key")
		}
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return errors.Wrap(err, "reading value")
		}
		slots[k] = v
	}
	s.chunkSize = chunkSize
	s.slots = slots
	return nil
}
