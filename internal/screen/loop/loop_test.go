package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsPostsInOrder(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	var got []int
	finished := make(chan struct{})
	for i := 0; i < 100; i++ {
		l.Post(func() { got = append(got, i) })
	}
	l.Post(func() { close(finished) })

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("loop did not drain")
	}
	cancel()
	<-done

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoopGoPostsCompletion(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var mu sync.Mutex
	order := []string{}
	finished := make(chan struct{})
	l.Go(func() {
		mu.Lock()
		order = append(order, "work")
		mu.Unlock()
	}, func() {
		mu.Lock()
		order = append(order, "then")
		mu.Unlock()
		close(finished)
	})

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("completion not posted")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"work", "then"}, order)
}

func TestLoopSurvivesPanic(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	finished := make(chan struct{})
	l.Post(func() { panic("boom") })
	l.Post(func() { close(finished) })

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("loop died after panic")
	}
}

func TestInlineRunsImmediately(t *testing.T) {
	var got []string
	Inline{}.Post(func() { got = append(got, "post") })
	Inline{}.Go(func() { got = append(got, "work") }, func() { got = append(got, "then") })
	assert.Equal(t, []string{"post", "work", "then"}, got)
}
