package progress_test

import (
	"testing"

	"github.com/flexps/paramserver/progress"
	"github.com/stretchr/testify/assert"
)

func TestTracker_InitAndAdvance(t *testing.T) {
	tr := progress.New()
	tr.Init([]int{1, 2, 3})
	assert.Equal(t, 0, tr.GetMinClock())

	_, changed := tr.Advance(1)
	assert.False(t, changed, "min-clock shouldn't move until every worker advances")
	assert.Equal(t, 0, tr.GetMinClock())

	_, changed = tr.Advance(2)
	assert.False(t, changed)

	min, changed := tr.Advance(3)
	assert.True(t, changed)
	assert.Equal(t, 1, min)
	assert.Equal(t, 1, tr.GetMinClock())
}

func TestTracker_InvariantWorkerAtLeastMinClock(t *testing.T) {
	tr := progress.New()
	tr.Init([]int{1, 2})
	tr.Advance(1)
	tr.Advance(1)
	for _, w := range []int{1, 2} {
		assert.GreaterOrEqual(t, tr.GetProgress(w), tr.GetMinClock())
	}
}

func TestTracker_GetProgressUnregisteredWorker(t *testing.T) {
	tr := progress.New()
	assert.Equal(t, progress.NotAWorker, tr.GetProgress(99))
}

func TestTracker_RemoveReevaluatesMin(t *testing.T) {
	tr := progress.New()
	tr.Init([]int{1, 2, 3})
	tr.Advance(1)
	tr.Advance(2)
	// w3 lags at 0; min-clock is still 0.
	assert.Equal(t, 0, tr.GetMinClock())

	tr.Remove(3)
	// With w3 gone, the remaining workers are both at 1.
	assert.Equal(t, 1, tr.GetMinClock())
	assert.Equal(t, progress.NotAWorker, tr.GetProgress(3))
}

func TestTracker_MonotonicMinClock(t *testing.T) {
	tr := progress.New()
	tr.Init([]int{1, 2})
	prev := tr.GetMinClock()
	for i := 0; i < 10; i++ {
		tr.Advance(1)
		tr.Advance(2)
		cur := tr.GetMinClock()
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}
