package main

import (
	"github.com/Nixie-Tech-LLC/lumen/internal/config"
	"github.com/Nixie-Tech-LLC/lumen/internal/db"
	adminapi "github.com/Nixie-Tech-LLC/lumen/internal/http/api/admin/control/endpoints"
	clientapi "github.com/Nixie-Tech-LLC/lumen/internal/http/api/tv/endpoints"
	"github.com/Nixie-Tech-LLC/lumen/internal/metrics"
	"github.com/Nixie-Tech-LLC/lumen/internal/storage"
)

// PairingService is what both the admin and the screen side need from pairing.
type PairingService interface {
	clientapi.PairingService
	adminapi.Pairer
}

// Environment bundles everything the routes are built from.
type Environment struct {
	Config   *config.Config
	Store    db.Store
	Storage  storage.Storage
	Pairing  PairingService
	Presence adminapi.PresenceReader
	Notifier adminapi.Notifier
	Metrics  metrics.Metrics
}
