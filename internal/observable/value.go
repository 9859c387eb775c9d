// Package observable provides a value holder whose changes can be watched.
package observable

import "sync"

// Value holds a T and notifies subscribers on every Set. A subscriber that
// falls behind only sees the latest value.
type Value[T any] struct {
	mu   sync.Mutex
	v    T
	subs map[int]chan T
	next int
}

// New returns a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{v: initial, subs: make(map[int]chan T)}
}

// Get returns the current value.
func (o *Value[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.v
}

// Set stores v and offers it to every subscriber.
func (o *Value[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.v = v
	for _, ch := range o.subs {
		offer(ch, v)
	}
}

// Subscribe returns a channel that receives the current value immediately
// and then every later one. cancel closes the channel.
func (o *Value[T]) Subscribe() (<-chan T, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.subs == nil {
		o.subs = make(map[int]chan T)
	}
	id := o.next
	o.next++
	ch := make(chan T, 1)
	ch <- o.v
	o.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.subs, id)
			close(ch)
		})
	}
}

// offer replaces a pending value, if any, with v. Called with o.mu held,
// so ch has no other sender.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
