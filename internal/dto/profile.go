package dto

import "github.com/noah-isme/hostel-api/internal/models"

// Profile is the caller's own view: the session user and, for students, the
// student record with the assigned room.
type Profile struct {
	User    models.User     `json:"user"`
	Student *models.Student `json:"student,omitempty"`
	Room    *models.Room    `json:"room,omitempty"`
}
