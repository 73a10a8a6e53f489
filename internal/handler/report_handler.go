package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-api/internal/models"
	"github.com/noah-isme/hostel-api/internal/service"
	"github.com/noah-isme/hostel-api/pkg/response"
)

// ReportHandler exposes report downloads and stored exports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Download godoc
// @Summary Download a report
// @Tags Reports
// @Security BearerAuth
// @Produce text/csv
// @Produce application/pdf
// @Param kind path string true "students, fees-due or room-occupancy"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /reports/{kind} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	report, err := h.reports.Render(c.Request.Context(), models.ReportKind(c.Param("kind")), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, report.Filename, report.ContentType, report.Payload)
}

// CreateExport godoc
// @Summary Store a report behind a signed link
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param kind path string true "students, fees-due or room-occupancy"
// @Param format query string false "csv (default) or pdf"
// @Success 201 {object} response.Envelope
// @Router /reports/{kind}/exports [post]
func (h *ReportHandler) CreateExport(c *gin.Context) {
	stored, err := h.reports.CreateExport(c.Request.Context(), models.ReportKind(c.Param("kind")), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, stored)
}

// DownloadExport godoc
// @Summary Download a stored export
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ReportHandler) DownloadExport(c *gin.Context) {
	report, err := h.reports.OpenExport(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, report.Filename, report.ContentType, report.Payload)
}
