package models

// DefaultProfilePictureURL is assigned to newly created students.
const DefaultProfilePictureURL = "https://picsum.photos/seed/new/200"

// Student represents a hostel resident.
type Student struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	Address           string  `json:"address"`
	Course            string  `json:"course"`
	ProfilePictureURL string  `json:"profile_picture_url"`
	RoomID            *string `json:"room_id"`
}

// Clone returns a deep copy of the student.
func (s Student) Clone() Student {
	if s.RoomID != nil {
		roomID := *s.RoomID
		s.RoomID = &roomID
	}
	return s
}

// HasRoom reports whether the student is currently allocated.
func (s Student) HasRoom() bool {
	return s.RoomID != nil && *s.RoomID != ""
}

// StudentPatch is a partial profile update. Nil fields keep their current value.
type StudentPatch struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	Course  *string
}

// Apply copies the set fields onto s.
func (p StudentPatch) Apply(s *Student) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.Name, p.Name)
	set(&s.Email, p.Email)
	set(&s.Phone, p.Phone)
	set(&s.Address, p.Address)
	set(&s.Course, p.Course)
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search      string
	Unallocated bool
	Page        int
	PageSize    int
}
