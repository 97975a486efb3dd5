package watch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ready(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}

func TestReceiverSeesInitialValue(t *testing.T) {
	v := New("a")
	r := v.Subscribe()
	assert.True(t, ready(r.Changed()))
	assert.Equal(t, "a", r.Load())
	assert.False(t, ready(r.Changed()))
}

func TestReceiverSkipsToLatest(t *testing.T) {
	v := New(0)
	r := v.Subscribe()
	r.Load()

	for i := 1; i <= 5; i++ {
		v.Set(i)
	}
	assert.True(t, ready(r.Changed()))
	assert.Equal(t, 5, r.Load())
	assert.False(t, ready(r.Changed()))
}

func TestChangedWakesBlockedReader(t *testing.T) {
	v := New(0)
	r := v.Subscribe()
	r.Load()
	ch := r.Changed()

	go func() {
		time.Sleep(10 * time.Millisecond)
		v.Update(func(n int) int { return n + 41 })
	}()

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("receiver not woken")
	}
	assert.Equal(t, 41, r.Load())
}

func TestIndependentReceivers(t *testing.T) {
	v := New(0)
	a, b := v.Subscribe(), v.Subscribe()
	a.Load()
	b.Load()

	v.Set(1)
	assert.Equal(t, 1, a.Load())
	assert.True(t, ready(b.Changed()), "b has not loaded yet")
}

func TestConcurrentSet(t *testing.T) {
	v := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, v.Load())
}
