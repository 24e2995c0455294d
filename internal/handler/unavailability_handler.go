package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subcover-api/internal/models"
	appErrors "github.com/noah-isme/subcover-api/pkg/errors"
	"github.com/noah-isme/subcover-api/pkg/response"
)

type unavailabilityService interface {
	List(ctx context.Context, actor models.Actor) ([]models.UnavailabilityException, error)
	Create(ctx context.Context, actor models.Actor, req models.CreateUnavailabilityRequest) (*models.UnavailabilityException, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

// UnavailabilityHandler manages the caller's unavailability exceptions.
type UnavailabilityHandler struct {
	service unavailabilityService
}

// NewUnavailabilityHandler constructs the handler.
func NewUnavailabilityHandler(svc unavailabilityService) *UnavailabilityHandler {
	return &UnavailabilityHandler{service: svc}
}

// List godoc
// @Summary List own unavailability
// @Tags Unavailability
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /unavailability [get]
func (h *UnavailabilityHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Add an unavailability exception
// @Tags Unavailability
// @Accept json
// @Produce json
// @Param payload body models.CreateUnavailabilityRequest true "Exception"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /unavailability [post]
func (h *UnavailabilityHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.CreateUnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid unavailability payload"))
		return
	}
	exc, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, exc, nil)
}

// Delete godoc
// @Summary Remove an unavailability exception
// @Tags Unavailability
// @Param id path string true "Exception ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /unavailability/{id} [delete]
func (h *UnavailabilityHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
