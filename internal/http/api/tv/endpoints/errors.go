package endpoints

import (
	"errors"
	"net/http"

	"github.com/Nixie-Tech-LLC/lumen/internal/db"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api"
)

func lookupErr(err error, what string) *api.APIError {
	if errors.Is(err, db.ErrNotFound) {
		return &api.APIError{Code: http.StatusNotFound, Message: what + " not found", Reason: "not-found"}
	}
	return api.Error(err)
}
