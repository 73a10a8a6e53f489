package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-api/internal/service"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
	"github.com/noah-isme/hostel-api/pkg/response"
)

// AllocateRequest names the student to move into a room.
type AllocateRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

// RoomHandler exposes room and allocation endpoints.
type RoomHandler struct {
	rooms *service.RoomService
}

// NewRoomHandler constructs RoomHandler.
func NewRoomHandler(rooms *service.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// List godoc
// @Summary List rooms with occupants
// @Tags Rooms
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.rooms.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// Get godoc
// @Summary Get room detail
// @Tags Rooms
// @Security BearerAuth
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rooms/{id} [get]
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.rooms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Allocate godoc
// @Summary Allocate a student to a room
// @Description Moves the student out of any other room first.
// @Tags Rooms
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body AllocateRequest true "Student to allocate"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /rooms/{id}/occupants [post]
func (h *RoomHandler) Allocate(c *gin.Context) {
	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id is required"))
		return
	}
	alloc, err := h.rooms.Allocate(c.Request.Context(), c.Param("id"), req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alloc, nil)
}

// Deallocate godoc
// @Summary Remove a student from their room
// @Tags Rooms
// @Security BearerAuth
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/room [delete]
func (h *RoomHandler) Deallocate(c *gin.Context) {
	alloc, err := h.rooms.Deallocate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alloc, nil)
}
