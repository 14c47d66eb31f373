package storage_test

import (
	"bytes"
	"testing"

	"github.com/flexps/paramserver/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStorage_ChunkedAdd(t *testing.T) {
	// S5: chunk_size=3, key=[5], vals=[1,2,3]; then key=[5], vals=[10,20,30].
	s := storage.NewMapStorage(3)
	s.AddChunk([]storage.Key{5}, []float64{1, 2, 3})
	s.AddChunk([]storage.Key{5}, []float64{10, 20, 30})
	got := s.GetChunk([]storage.Key{5})
	assert.Equal(t, []float64{11, 22, 33}, got)
}

func TestMapStorage_ScalarMatchesChunkSizeOne(t *testing.T) {
	scalar := storage.NewMapStorage(1)
	scalar.Add([]storage.Key{1, 2}, []float64{1.5, 2.5})

	chunked := storage.NewMapStorage(1)
	chunked.AddChunk([]storage.Key{1, 2}, []float64{1.5, 2.5})

	assert.Equal(t, scalar.Get([]storage.Key{1, 2}), chunked.GetChunk([]storage.Key{1, 2}))
}

func TestMapStorage_AdditionOrderIndependent(t *testing.T) {
	adds := []struct {
		key storage.Key
		val float64
	}{
		{1, 1}, {2, 2}, {1, 3}, {2, 4}, {1, 5},
	}
	forward := storage.NewMapStorage(1)
	for _, a := range adds {
		forward.Add([]storage.Key{a.key}, []float64{a.val})
	}
	backward := storage.NewMapStorage(1)
	for i := len(adds) - 1; i >= 0; i-- {
		backward.Add([]storage.Key{adds[i].key}, []float64{adds[i].val})
	}
	assert.Equal(t, forward.Get([]storage.Key{1, 2}), backward.Get([]storage.Key{1, 2}))
}

func TestMapStorage_EmptyGet(t *testing.T) {
	s := storage.NewMapStorage(1)
	got := s.Get(nil)
	assert.Empty(t, got)
}

func TestMapStorage_SnapshotRoundTrip(t *testing.T) {
	s := storage.NewMapStorage(2)
	s.AddChunk([]storage.Key{7, 9}, []float64{1, 2, 3, 4})

	var buf bytes.Buffer
	require.NoError(t, s.WriteTo(&buf))

	loaded := storage.NewMapStorage(0)
	require.NoError(t, loaded.LoadFrom(bytes.NewReader(buf.Bytes())))

	assert.Equal(t, s.GetChunk([]storage.Key{7, 9}), loaded.GetChunk([]storage.Key{7, 9}))

	var rewritten bytes.Buffer
	require.NoError(t, loaded.WriteTo(&rewritten))
	assert.Equal(t, buf.Bytes(), rewritten.Bytes())
}

func TestVectorStorage_SnapshotRoundTrip(t *testing.T) {
	// S4: VectorStorage with range [100,104), chunk_size=1.
	rng := storage.Range{Begin: 100, End: 104}
	s := storage.NewVectorStorage(rng, 1)
	s.Add([]storage.Key{100, 101, 102, 103}, []float64{10, 20, 30, 40})

	var buf bytes.Buffer
	require.NoError(t, s.WriteTo(&buf))

	loaded := storage.NewVectorStorage(storage.Range{}, 0)
	require.NoError(t, loaded.LoadFrom(bytes.NewReader(buf.Bytes())))

	assert.Equal(t, []float64{10, 20, 30, 40}, loaded.Get([]storage.Key{100, 101, 102, 103}))
	assert.Equal(t, rng, loaded.Range())

	var rewritten bytes.Buffer
	require.NoError(t, loaded.WriteTo(&rewritten))
	assert.Equal(t, buf.Bytes(), rewritten.Bytes(), "re-dumping a loaded snapshot reproduces identical bytes")
}

func TestVectorStorage_OutOfRangeKeyPanics(t *testing.T) {
	s := storage.NewVectorStorage(storage.Range{Begin: 10, End: 20}, 1)
	assert.Panics(t, func() {
		s.Add([]storage.Key{5}, []float64{1})
	})
}

func TestVectorStorage_Clear(t *testing.T) {
	s := storage.NewVectorStorage(storage.Range{Begin: 0, End: 4}, 1)
	s.Add([]storage.Key{0, 1, 2, 3}, []float64{1, 2, 3, 4})
	s.Clear()
	assert.Equal(t, []float64{0, 0, 0, 0}, s.Get([]storage.Key{0, 1, 2, 3}))
}
