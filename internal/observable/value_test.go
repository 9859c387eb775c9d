package observable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	v := New("a")
	assert.Equal(t, "a", v.Get())
	v.Set("b")
	assert.Equal(t, "b", v.Get())
}

func TestZeroValueUsable(t *testing.T) {
	var v Value[int]
	ch, cancel := v.Subscribe()
	defer cancel()
	assert.Equal(t, 0, <-ch)
	v.Set(3)
	assert.Equal(t, 3, <-ch)
}

func TestSubscribe_ReceivesCurrentThenLatest(t *testing.T) {
	v := New(1)
	ch, cancel := v.Subscribe()
	defer cancel()

	require.Equal(t, 1, <-ch)

	v.Set(2)
	v.Set(3)
	v.Set(4)
	require.Equal(t, 4, <-ch)

	select {
	case got := <-ch:
		t.Fatalf("unexpected extra value %d", got)
	default:
	}
}

func TestCancel_ClosesAndStopsDelivery(t *testing.T) {
	v := New(0)
	ch, cancel := v.Subscribe()
	<-ch
	cancel()
	cancel()

	v.Set(1)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestConcurrentSetters(t *testing.T) {
	v := New(0)
	ch, cancel := v.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			v.Set(n)
		}(i)
	}
	wg.Wait()

	var last int
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, v.Get(), last)
}
