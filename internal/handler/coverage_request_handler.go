package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subcover-api/internal/models"
	appErrors "github.com/noah-isme/subcover-api/pkg/errors"
	"github.com/noah-isme/subcover-api/pkg/response"
)

type coverageService interface {
	Create(ctx context.Context, actor models.Actor, payload models.CreateCoverageRequest) (*models.CoverageResult, error)
	Accept(ctx context.Context, actor models.Actor, token string) (*models.CoverageResult, error)
	Get(ctx context.Context, actor models.Actor, token string) (*models.CoverageRequest, error)
	List(ctx context.Context, actor models.Actor, filter models.CoverageRequestFilter) ([]models.CoverageRequest, *models.Pagination, error)
	MatchingOpen(ctx context.Context, actor models.Actor) ([]models.CoverageRequest, error)
}

// CoverageRequestHandler exposes the coverage request workflow.
type CoverageRequestHandler struct {
	service coverageService
}

// NewCoverageRequestHandler constructs the handler.
func NewCoverageRequestHandler(svc coverageService) *CoverageRequestHandler {
	return &CoverageRequestHandler{service: svc}
}

// Create godoc
// @Summary Post a coverage request
// @Description Creates an Open request and notifies eligible substitutes. Partial notification failures are reported in meta.warning.
// @Tags Coverage
// @Accept json
// @Produce json
// @Param payload body models.CreateCoverageRequest true "Coverage request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /coverage-requests [post]
func (h *CoverageRequestHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var payload models.CreateCoverageRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid coverage request payload"))
		return
	}

	result, err := h.service.Create(c.Request.Context(), actor, payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Coverage(c, http.StatusCreated, result)
}

// Accept godoc
// @Summary Accept a coverage request
// @Tags Coverage
// @Produce json
// @Param token path string true "Request token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /coverage-requests/{token}/accept [post]
func (h *CoverageRequestHandler) Accept(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.service.Accept(c.Request.Context(), actor, c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Coverage(c, http.StatusOK, result)
}

// Get godoc
// @Summary Get a coverage request
// @Tags Coverage
// @Produce json
// @Param token path string true "Request token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /coverage-requests/{token} [get]
func (h *CoverageRequestHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	req, err := h.service.Get(c.Request.Context(), actor, c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// List godoc
// @Summary List coverage requests visible to the caller
// @Tags Coverage
// @Produce json
// @Param status query string false "Open or Filled"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /coverage-requests [get]
func (h *CoverageRequestHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter, err := parseCoverageFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Matching godoc
// @Summary Open requests the calling substitute is eligible for
// @Tags Coverage
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /coverage-requests/matching [get]
func (h *CoverageRequestHandler) Matching(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.service.MatchingOpen(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

func parseCoverageFilter(c *gin.Context) (models.CoverageRequestFilter, error) {
	var filter models.CoverageRequestFilter
	switch status := models.CoverageStatus(c.Query("status")); status {
	case "":
	case models.CoverageStatusOpen, models.CoverageStatusFilled:
		filter.Status = &status
	default:
		return filter, appErrors.Clone(appErrors.ErrValidation, "status must be Open or Filled")
	}

	var err error
	if filter.DateFrom, err = queryDate(c, "date_from"); err != nil {
		return filter, err
	}
	if filter.DateTo, err = queryDate(c, "date_to"); err != nil {
		return filter, err
	}
	if filter.Page, err = queryInt(c, "page"); err != nil {
		return filter, err
	}
	if filter.PageSize, err = queryInt(c, "page_size"); err != nil {
		return filter, err
	}
	return filter, nil
}
