package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/Nixie-Tech-LLC/lumen/internal/config"
	"github.com/Nixie-Tech-LLC/lumen/internal/logging"
	"github.com/Nixie-Tech-LLC/lumen/internal/mqtt"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/app"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/clock"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/contentstore"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/display"
	"github.com/Nixie-Tech-LLC/lumen/internal/screen/loop"
)

const httpTimeout = 30 * time.Second

// AppOptions is the screen client's dependency graph.
var AppOptions = fx.Options(
	fx.Provide(
		newConfig,
		newLifetime,
		loop.New,
		newClock,
		newHTTPClient,
		newContentStore,
		newNudger,
		newDisplay,
		newPresenceChannel,
		newChangeFeed,
		newApp,
	),
	fx.Invoke(registerHooks),
)

func main() {
	client := fx.New(
		AppOptions,
		fx.NopLogger,
	)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := client.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("screen client failed to start")
	}

	<-ctx.Done()

	if err := client.Stop(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("screen client failed to stop")
	}
}

// lifetime is the context every client component runs under. It ends when the app stops.
type lifetime struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func newLifetime() *lifetime {
	ctx, cancel := context.WithCancel(context.Background())
	return &lifetime{ctx: ctx, cancel: cancel}
}

func newConfig() (*config.ScreenConfig, error) {
	cfg, err := config.LoadScreen()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Environment, cfg.LogLevel)
	return cfg, nil
}

func newClock(l *loop.Loop) clock.Clock {
	return clock.NewReal(l.Post)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

func newContentStore(cfg *config.ScreenConfig, client *http.Client, l *loop.Loop) *contentstore.Client {
	return contentstore.New(cfg.APIBaseURL, client, l, cfg.PollInterval)
}

func newNudger(store *contentstore.Client) Nudger {
	return store
}

func newDisplay(lt *lifetime, cfg *config.ScreenConfig, client *http.Client, l *loop.Loop) *display.Driver {
	loader := display.NewHTTPLoader(client, cfg.Width, cfg.Height, cfg.ImageCacheMB)
	sink := display.NewFileSink(cfg.OutputPath, cfg.Width, cfg.Height, cfg.FadeDuration)
	return display.NewDriver(lt.ctx, l, loader, sink)
}

func newPresenceChannel(cfg *config.ScreenConfig) *mqtt.PresenceChannel {
	return mqtt.NewPresenceChannel(cfg.MQTT, nil)
}

func newApp(
	lt *lifetime,
	cfg *config.ScreenConfig,
	l *loop.Loop,
	clk clock.Clock,
	store *contentstore.Client,
	presence *mqtt.PresenceChannel,
	driver *display.Driver,
	feed *changeFeed,
) *app.App {
	return app.New(lt.ctx, app.Options{
		Exec:        l,
		Clock:       clk,
		Store:       store,
		Presence:    presence,
		Display:     driver,
		Credentials: app.NewCredentialFile(cfg.StateDir),
		Status:      app.NewStatusFile(cfg.StateDir),
		OnBound:     feed.Follow,
		OnUnbound:   feed.Unfollow,
	})
}

// registerHooks runs the loop for the lifetime of the app and routes operator signals to it.
// SIGUSR1 logs the screen out, SIGUSR2 asks for a new pairing code.
func registerHooks(lc fx.Lifecycle, lt *lifetime, l *loop.Loop, a *app.App, feed *changeFeed) {
	signals := make(chan os.Signal, 1)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go l.Run(lt.ctx)

			feed.OnConnectionChange(func(connected bool) {
				l.Post(func() { a.SetConnected(connected) })
			})
			feed.Connect()

			signal.Notify(signals, syscall.SIGUSR1, syscall.SIGUSR2)
			go forwardSignals(lt.ctx, signals, l, a)

			l.Post(a.Start)
			log.Info().Msg("screen client started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			signal.Stop(signals)

			stopped := make(chan struct{})
			l.Post(func() {
				a.Stop()
				close(stopped)
			})
			select {
			case <-stopped:
			case <-ctx.Done():
			}

			lt.cancel()
			feed.Close()
			log.Info().Msg("screen client stopped")
			return nil
		},
	})
}

func forwardSignals(ctx context.Context, signals <-chan os.Signal, l *loop.Loop, a *app.App) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-signals:
			switch sig {
			case syscall.SIGUSR1:
				l.Post(a.Logout)
			case syscall.SIGUSR2:
				l.Post(a.RequestNewCode)
			}
		}
	}
}
