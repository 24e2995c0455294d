package handler

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/subcover-api/pkg/errors"
	"github.com/noah-isme/subcover-api/pkg/response"
)

type absenceReportOpener interface {
	Open(signed string) (*os.File, string, error)
}

// AbsenceReportHandler serves generated absence forms through signed links.
type AbsenceReportHandler struct {
	reports absenceReportOpener
}

// NewAbsenceReportHandler constructs the handler.
func NewAbsenceReportHandler(reports absenceReportOpener) *AbsenceReportHandler {
	return &AbsenceReportHandler{reports: reports}
}

// Download godoc
// @Summary Download an absence report
// @Tags Absence Reports
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /absence-reports/download [get]
func (h *AbsenceReportHandler) Download(c *gin.Context) {
	signed := c.Query("token")
	if signed == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, name, err := h.reports.Open(signed)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read absence report"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Content-Type", "application/pdf")
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), file)
}
