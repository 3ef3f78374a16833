// Package stream is the live-subscription abstraction the screen engine reads documents through.
package stream

import (
	"sort"
	"sync"
)

// Subscription stops a live stream. Cancel is idempotent.
type Subscription interface {
	Cancel()
}

// CancelFunc adapts a function to Subscription.
type CancelFunc func()

func (f CancelFunc) Cancel() {
	if f != nil {
		f()
	}
}

// Handler receives snapshots on the loop. Next gets nil when the document does not exist.
type Handler[T any] struct {
	Next func(v *T)
	Err  func(err error)
}

func (h Handler[T]) next(v *T) {
	if h.Next != nil {
		h.Next(v)
	}
}

func (h Handler[T]) fail(err error) {
	if h.Err != nil {
		h.Err(err)
	}
}

// Fake is a synchronous stream for tests. Push delivers to every live subscriber immediately.
type Fake[T any] struct {
	mu   sync.Mutex
	seq  int
	subs map[int]Handler[T]
	// Opened counts Subscribe calls.
	Opened int
}

func NewFake[T any]() *Fake[T] {
	return &Fake[T]{subs: map[int]Handler[T]{}}
}

func (f *Fake[T]) Subscribe(h Handler[T]) Subscription {
	f.mu.Lock()
	f.seq++
	id := f.seq
	f.subs[id] = h
	f.Opened++
	f.mu.Unlock()

	var once sync.Once
	return CancelFunc(func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	})
}

func (f *Fake[T]) Push(v *T) {
	for _, h := range f.handlers() {
		h.next(v)
	}
}

func (f *Fake[T]) Fail(err error) {
	for _, h := range f.handlers() {
		h.fail(err)
	}
}

// Live returns the number of subscriptions not yet cancelled.
func (f *Fake[T]) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Fake[T]) handlers() []Handler[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.subs))
	for id := range f.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	hs := make([]Handler[T], 0, len(ids))
	for _, id := range ids {
		hs = append(hs, f.subs[id])
	}
	return hs
}
