// Package loop runs the screen client on a single logical thread.
//
// Every timer callback, subscription snapshot and network completion is posted to the loop
// and runs there one at a time, so engine state needs no locks.
package loop

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Executor serialises work onto the loop.
type Executor interface {
	// Post queues fn to run on the loop.
	Post(fn func())
	// Go runs work off the loop and then posts then, if not nil.
	Go(work func(), then func())
}

// Loop is an unbounded FIFO drained by Run. Post never blocks.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) Go(work func(), then func()) {
	go func() {
		work()
		if then != nil {
			l.Post(then)
		}
	}()
}

// Run drains the queue until ctx is done. Posts made after Run returns are dropped.
func (l *Loop) Run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		l.closed = true
		l.queue = nil
		l.mu.Unlock()
	}()

	for {
		for {
			fn := l.next()
			if fn == nil {
				break
			}
			l.run(fn)
			if ctx.Err() != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("loop task panicked")
		}
	}()
	fn()
}

// Inline runs everything synchronously on the caller's goroutine. Used by tests.
type Inline struct{}

func (Inline) Post(fn func()) { fn() }

func (Inline) Go(work func(), then func()) {
	work()
	if then != nil {
		then()
	}
}
