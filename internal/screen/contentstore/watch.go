package contentstore

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/mqtt"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/stream"
)

const (
	kindScreen    = mqtt.ChangeScreen
	kindSchedules = mqtt.ChangeSchedules
	kindSettings  = mqtt.ChangeSettings
	kindPlaylist  = mqtt.ChangePlaylist
)

var kinds = map[string]struct{}{
	kindScreen:    {},
	kindSchedules: {},
	kindSettings:  {},
	kindPlaylist:  {},
}

// changeKey names what a watcher follows. Only playlists are told apart by id.
func changeKey(kind, id string) string {
	if kind == kindPlaylist {
		return kind + "/" + id
	}
	return kind
}

type watcher struct {
	key  string
	wake chan struct{}
	done atomic.Bool
}

func (w *watcher) nudge() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// watch polls path until the subscription is cancelled. The first poll runs immediately.
// Watchers with an empty key are never nudged.
func watch[T any](c *Client, key, path string, h stream.Handler[T]) stream.Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{key: key, wake: make(chan struct{}, 1)}

	c.mu.Lock()
	c.watchers[w] = struct{}{}
	c.mu.Unlock()

	go poll(ctx, c, w, path, h)

	return stream.CancelFunc(func() {
		if w.done.Swap(true) {
			return
		}
		cancel()
		c.mu.Lock()
		delete(c.watchers, w)
		c.mu.Unlock()
	})
}

func poll[T any](ctx context.Context, c *Client, w *watcher, path string, h stream.Handler[T]) {
	deliver := func(v *T, err error) {
		c.exec.Post(func() {
			// cancelled on the loop after this was queued
			if w.done.Load() {
				return
			}
			if err != nil {
				if h.Err != nil {
					h.Err(err)
				}
				return
			}
			if h.Next != nil {
				h.Next(v)
			}
		})
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	var (
		etag    string
		missing bool
		failed  bool
	)
	for {
		var v T
		tag, err := c.do(ctx, http.MethodGet, path, nil, etag, &v)
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, errNotFound):
			etag = ""
			if !missing {
				missing = true
				deliver(nil, nil)
			}
		case errors.Is(err, ErrUnauthorized), errors.Is(err, errDecode):
			if !failed {
				failed = true
				deliver(nil, err)
			}
		case err != nil:
			log.Warn().Err(err).Str("path", path).Msg("poll failed, keeping last snapshot")
		case etag != "" && tag == etag:
		default:
			etag = tag
			missing = false
			failed = false
			deliver(&v, nil)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-w.wake:
		}
	}
}
