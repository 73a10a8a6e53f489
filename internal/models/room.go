package models

// Room is a hostel room with an ordered occupant list of student IDs.
type Room struct {
	ID         string   `json:"id"`
	RoomNumber string   `json:"room_number"`
	Capacity   int      `json:"capacity"`
	Occupants  []string `json:"occupants"`
}

// Clone returns a deep copy of the room.
func (r Room) Clone() Room {
	occupants := make([]string, len(r.Occupants))
	copy(occupants, r.Occupants)
	r.Occupants = occupants
	return r
}

// IsFull reports whether no more occupants fit.
func (r Room) IsFull() bool {
	return len(r.Occupants) >= r.Capacity
}

// Has reports whether studentID is listed as an occupant.
func (r Room) Has(studentID string) bool {
	for _, id := range r.Occupants {
		if id == studentID {
			return true
		}
	}
	return false
}

// Occupant is a resolved room occupant.
type Occupant struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// RoomDetail is a room together with its resolved occupants. Orphaned IDs are dropped.
type RoomDetail struct {
	Room
	OccupantDetails []Occupant `json:"occupant_details"`
	Available       int        `json:"available"`
}

// Allocation describes the entities touched by an allocate or deallocate.
type Allocation struct {
	Student      Student `json:"student"`
	Room         Room    `json:"room"`
	PreviousRoom *Room   `json:"previous_room,omitempty"`
}
