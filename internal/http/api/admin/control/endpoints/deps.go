package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Nixie-Tech-LLC/lumen/internal/db"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

type PresenceReader interface {
	Online(ctx context.Context, adminID, screenID string) (bool, error)
	Forget(ctx context.Context, adminID, screenID string) error
}

type Notifier interface {
	Notify(adminID, kind, id string)
}

type Pairer interface {
	CompletePairing(ctx context.Context, adminID, pin, screenID string) error
}

var (
	errForbidden = &api.APIError{Code: http.StatusForbidden, Message: "forbidden", Reason: "permission-denied"}
)

func notFound(what string) *api.APIError {
	return &api.APIError{Code: http.StatusNotFound, Message: what + " not found", Reason: "not-found"}
}

// lookupErr maps a store lookup failure to a response.
func lookupErr(err error, what string) *api.APIError {
	if errors.Is(err, db.ErrNotFound) {
		return notFound(what)
	}
	return api.Error(err)
}

// validateContent checks that content can be displayed and, for playlists, that the admin owns it.
func validateContent(ctx context.Context, store db.Store, adminID string, content *model.Content) *api.APIError {
	if err := content.Validate(); err != nil {
		return api.BadRequest(err)
	}
	ref, ok := content.Unwrap().(model.PlaylistRef)
	if !ok {
		return nil
	}
	playlist, err := store.GetPlaylist(ctx, ref.ID)
	if errors.Is(err, db.ErrNotFound) || (err == nil && playlist.AdminOwnerID != adminID) {
		return api.BadRequest(fmt.Errorf("unknown playlist %q", ref.ID))
	}
	if err != nil {
		return api.Error(err)
	}
	return nil
}
