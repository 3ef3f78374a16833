package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/apierr"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

// APIError is what a handler returns instead of writing an error response itself.
type APIError struct {
	Code    int
	Message string
	Reason  string
}

// Error converts any error into an APIError, keeping the status and code of apierr errors.
func Error(err error) *APIError {
	var e *apierr.Error
	if errors.As(err, &e) {
		return &APIError{Code: e.Status, Message: e.Message, Reason: e.Code}
	}
	log.Error().Err(err).Msg("unhandled error in endpoint")
	return &APIError{Code: http.StatusInternalServerError, Message: apierr.ErrInternal.Message, Reason: apierr.ErrInternal.Code}
}

func BadRequest(err error) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: err.Error(), Reason: apierr.ErrInvalidArgument.Code}
}

type HandlerFuncWithAuth func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFuncWithScreen func(ctx *gin.Context, screenID string) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func abort(ctx *gin.Context, e *APIError) {
	body := gin.H{"error": e.Message}
	if e.Reason != "" {
		body["code"] = e.Reason
	}
	ctx.AbortWithStatusJSON(e.Code, body)
}

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			abort(ctx, Error(apierr.ErrUnauthenticated))
			return
		}

		result, apiErr := h(ctx, user)
		if apiErr != nil {
			abort(ctx, apiErr)
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

// ResolveEndpointWithScreen serves screen reads with an ETag so polling clients get 304s.
func ResolveEndpointWithScreen(h HandlerFuncWithScreen) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		screenID, ok := middleware.GetCurrentScreen(ctx)
		if !ok {
			abort(ctx, Error(apierr.ErrUnauthenticated))
			return
		}

		result, apiErr := h(ctx, screenID)
		if apiErr != nil {
			abort(ctx, apiErr)
			return
		}

		writeWithETag(ctx, result)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			abort(ctx, apiErr)
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

// ETag returns the strong validator for body.
func ETag(body []byte) string {
	return fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
}

func writeWithETag(ctx *gin.Context, result any) {
	body, err := json.Marshal(result)
	if err != nil {
		abort(ctx, Error(err))
		return
	}

	tag := ETag(body)
	ctx.Header("ETag", tag)
	ctx.Header("Cache-Control", "no-cache")
	if ctx.GetHeader("If-None-Match") == tag {
		ctx.Status(http.StatusNotModified)
		return
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
