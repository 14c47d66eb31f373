package pending_test

import (
	"testing"

	"github.com/flexps/paramserver/message"
	"github.com/flexps/paramserver/pending"
	"github.com/stretchr/testify/assert"
)

func TestBuffer_FIFOOrder(t *testing.T) {
	// S6: three Gets posted at the same level must flush in submission order.
	b := pending.New()
	b.Push(1, message.Message{Sender: 1, Keys: []message.Key{1}})
	b.Push(1, message.Message{Sender: 1, Keys: []message.Key{2}})
	b.Push(1, message.Message{Sender: 1, Keys: []message.Key{3}})

	reqs := b.Pop(1)
	if assert.Len(t, reqs, 3) {
		assert.Equal(t, message.Key(1), reqs[0].Keys[0])
		assert.Equal(t, message.Key(2), reqs[1].Keys[0])
		assert.Equal(t, message.Key(3), reqs[2].Keys[0])
	}
}

func TestBuffer_PopIsExactlyOnce(t *testing.T) {
	b := pending.New()
	b.Push(5, message.Message{Sender: 1})
	assert.Len(t, b.Pop(5), 1)
	assert.Empty(t, b.Pop(5), "a second Pop at the same level must see nothing")
}

func TestBuffer_PopEmptyLevel(t *testing.T) {
	b := pending.New()
	assert.Empty(t, b.Pop(42))
}

func TestBuffer_Depth(t *testing.T) {
	b := pending.New()
	assert.Equal(t, 0, b.Depth())
	b.Push(1, message.Message{Sender: 1})
	b.Push(2, message.Message{Sender: 2})
	b.Push(2, message.Message{Sender: 3})
	assert.Equal(t, 3, b.Depth())
	b.Pop(2)
	assert.Equal(t, 1, b.Depth())
}

func TestBuffer_DiscardWorker(t *testing.T) {
	b := pending.New()
	b.Push(1, message.Message{Sender: 1, Keys: []message.Key{1}})
	b.Push(1, message.Message{Sender: 2, Keys: []message.Key{2}})
	b.Push(2, message.Message{Sender: 1, Keys: []message.Key{3}})

	n := b.DiscardWorker(1)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, b.Depth())

	remaining := b.Pop(1)
	if assert.Len(t, remaining, 1) {
		assert.Equal(t, 2, remaining[0].Sender)
	}
	assert.Empty(t, b.Pop(2))
}
