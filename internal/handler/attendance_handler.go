package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-api/internal/service"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
	"github.com/noah-isme/hostel-api/pkg/response"
)

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Daily godoc
// @Summary Daily attendance roster
// @Tags Attendance
// @Security BearerAuth
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendance/daily [get]
func (h *AttendanceHandler) Daily(c *gin.Context) {
	sheet, err := h.attendance.Daily(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// History godoc
// @Summary Attendance history
// @Description end_date defaults to today when omitted; pass it empty for an open range.
// @Tags Attendance
// @Security BearerAuth
// @Produce json
// @Param student_id query string false "Student ID or all"
// @Param start_date query string false "Inclusive start (YYYY-MM-DD)"
// @Param end_date query string false "Inclusive end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	query := service.AttendanceHistoryQuery{
		StudentID: c.Query("student_id"),
		StartDate: c.Query("start_date"),
	}
	if end, ok := c.GetQuery("end_date"); ok {
		query.EndDate = &end
	}
	rows, err := h.attendance.History(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Mark godoc
// @Summary Mark attendance
// @Description Creates or replaces the record for the student and day.
// @Tags Attendance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance mark"
// @Success 200 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// MarkBulk godoc
// @Summary Save a daily attendance sheet
// @Tags Attendance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body service.BulkAttendanceRequest true "Attendance sheet"
// @Success 200 {object} response.Envelope
// @Router /attendance/bulk [post]
func (h *AttendanceHandler) MarkBulk(c *gin.Context) {
	var req service.BulkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	records, err := h.attendance.MarkBulk(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
