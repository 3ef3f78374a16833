package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/lumen/internal/auth"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api"
	authapi "github.com/Nixie-Tech-LLC/lumen/internal/http/api/admin/auth/endpoints"
	adminapi "github.com/Nixie-Tech-LLC/lumen/internal/http/api/admin/control/endpoints"
	clientapi "github.com/Nixie-Tech-LLC/lumen/internal/http/api/tv/endpoints"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, env Environment) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"ETag",
		},
		AllowCredentials: false,
	}))

	secret := env.Config.JWTSecret

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
	},
		authapi.AuthPublicModule(secret, env.Store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: secret,
		Users:     env.Store,
	},
		// control modules
		adminapi.ScreenModule(env.Store, env.Presence, env.Pairing, env.Notifier),
		adminapi.ScheduleModule(env.Store, env.Notifier),
		adminapi.PlaylistModule(env.Store, env.Notifier),
		adminapi.SettingsModule(env.Store, env.Notifier),
		adminapi.MediaModule(env.Storage),
		// session endpoints that require auth
		authapi.AuthSessionModule(secret, env.Store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/tv",
	},
		clientapi.PairingModule(env.Pairing),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/tv",
		Auth:      true,
		Kind:      auth.KindScreen,
		SecretKey: secret,
	},
		clientapi.ContentModule(env.Store),
	)

	if env.Config.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(env.Metrics.Handler()))
	}
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	// Static content
	if !env.Config.Storage.UseSpaces {
		r.Static(uploadsRoute, env.Config.Storage.UploadDir)
	}
}
