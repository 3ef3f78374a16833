package endpoints

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/lumen/internal/http/api"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api/tv/packets"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

type PairingService interface {
	GeneratePairingCode(ctx context.Context) (model.PairingCode, error)
	Status(ctx context.Context, sessionID string) (model.PairingRequest, error)
	ExchangeToken(ctx context.Context, token string) (model.ScreenSession, error)
}

type PairingController struct {
	service PairingService
}

// PairingModule mounts the unauthenticated endpoints an unpaired screen uses.
func PairingModule(service PairingService) api.Module {
	ctl := &PairingController{service: service}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/pairing", ctl.requestCode)
		c.PUBLIC_GET("/pairing/:session", ctl.pairingStatus)
		c.PUBLIC_POST("/session", ctl.exchangeToken)
	})
}

// POST /api/tv/pairing
func (p *PairingController) requestCode(ctx *gin.Context) (any, *api.APIError) {
	code, err := p.service.GeneratePairingCode(ctx)
	if err != nil {
		return nil, api.Error(err)
	}
	return code, nil
}

// GET /api/tv/pairing/:session
func (p *PairingController) pairingStatus(ctx *gin.Context) (any, *api.APIError) {
	req, err := p.service.Status(ctx, ctx.Param("session"))
	if err != nil {
		return nil, api.Error(err)
	}
	return packets.PairingStatusResponse{
		Status:         req.Status,
		ExpiresAt:      req.ExpiresAt,
		CustomToken:    req.CustomToken,
		PairedScreenID: req.PairedScreenID,
	}, nil
}

// POST /api/tv/session
func (p *PairingController) exchangeToken(ctx *gin.Context) (any, *api.APIError) {
	var request packets.ExchangeTokenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	session, err := p.service.ExchangeToken(ctx, request.Token)
	if err != nil {
		return nil, api.Error(err)
	}
	return session, nil
}
