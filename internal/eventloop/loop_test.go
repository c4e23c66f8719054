package eventloop

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsTasksInOrder(t *testing.T) {
	l := New(nil)
	defer l.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}

	var snapshot []int
	require.NoError(t, l.Call(func() { snapshot = append([]int(nil), got...) }))
	require.Len(t, snapshot, 100)
	for i, v := range snapshot {
		assert.Equal(t, i, v)
	}
}

func TestLoopPostFromTaskRunsAfterCurrent(t *testing.T) {
	l := New(nil)
	defer l.Close()

	var order []string
	require.NoError(t, l.Call(func() {
		l.Post(func() { order = append(order, "nested") })
		order = append(order, "outer")
	}))

	var snapshot []string
	require.NoError(t, l.Call(func() { snapshot = append([]string(nil), order...) }))
	assert.Equal(t, []string{"outer", "nested"}, snapshot)
}

func TestLoopConcurrentPosters(t *testing.T) {
	l := New(nil)
	defer l.Close()

	counter := 0
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Post(func() { counter++ })
			}
		}()
	}
	wg.Wait()

	var total int
	require.NoError(t, l.Call(func() { total = counter }))
	assert.Equal(t, 400, total)
}

func TestLoopCloseDrainsQueue(t *testing.T) {
	l := New(nil)

	ran := 0
	for i := 0; i < 10; i++ {
		l.Post(func() { ran++ })
	}
	l.Close()

	assert.Equal(t, 10, ran)
	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Call(func() {}), ErrClosed)

	// повторный Close не блокируется
	l.Close()
}

func TestLoopSurvivesPanic(t *testing.T) {
	l := New(nil)
	defer l.Close()

	l.Post(func() { panic("boom") })

	called := false
	require.NoError(t, l.Call(func() { called = true }))
	assert.True(t, called)
}
