package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/subcover-api/internal/models"
	appErrors "github.com/noah-isme/subcover-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}        `json:"data,omitempty"`
	Error      *appErrors.Error   `json:"error,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
	Meta       *Meta              `json:"meta,omitempty"`
}

// Meta carries soft outcomes that do not change the status code.
type Meta struct {
	Notifications *models.DispatchSummary `json:"notifications,omitempty"`
	Warning       string                  `json:"warning,omitempty"`
	Warnings      []string                `json:"warnings,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	write(c, status, Envelope{Data: data, Pagination: pagination})
}

// WithMeta sends a success response carrying meta.
func WithMeta(c *gin.Context, status int, data interface{}, meta *Meta) {
	write(c, status, Envelope{Data: data, Meta: meta})
}

// Coverage renders a coverage workflow result. Partial notification failures
// surface as a warning in meta.
func Coverage(c *gin.Context, status int, result *models.CoverageResult) {
	meta := &Meta{Notifications: &result.Notifications}
	if len(result.Warnings) > 0 {
		meta.Warning = result.Warnings[0]
		meta.Warnings = result.Warnings
	}
	WithMeta(c, status, result.Request, meta)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	write(c, appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func write(c *gin.Context, status int, envelope Envelope) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, envelope)
}
