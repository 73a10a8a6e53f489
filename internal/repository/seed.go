package repository

import (
	"time"

	"github.com/noah-isme/hostel-api/internal/models"
)

// Seed replaces the store contents with the demo hostel: five students, five
// double rooms, one fee per student and three days of attendance ending on today.
func (s *Store) Seed(today time.Time) {
	today = models.Day(today)
	yesterday := today.AddDate(0, 0, -1)
	dayBefore := today.AddDate(0, 0, -2)
	due := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.students = []models.Student{
		seedStudent("S001", "Alice Johnson", "alice@example.com", "123-456-7890", "123 Maple St", "Computer Science", "alice", "R101"),
		seedStudent("S002", "Bob Smith", "bob@example.com", "234-567-8901", "456 Oak Ave", "Mechanical Engineering", "bob", "R101"),
		seedStudent("S003", "Charlie Brown", "charlie@example.com", "345-678-9012", "789 Pine Ln", "Physics", "charlie", "R102"),
		seedStudent("S004", "Diana Prince", "diana@example.com", "456-789-0123", "101 Star Blvd", "History", "diana", "R103"),
		seedStudent("S005", "Ethan Hunt", "ethan@example.com", "567-890-1234", "202 Mission Rd", "Kinesiology", "ethan", ""),
	}

	s.rooms = []models.Room{
		{ID: "R101", RoomNumber: "101", Capacity: 2, Occupants: []string{"S001", "S002"}},
		{ID: "R102", RoomNumber: "102", Capacity: 2, Occupants: []string{"S003"}},
		{ID: "R103", RoomNumber: "103", Capacity: 2, Occupants: []string{"S004"}},
		{ID: "R201", RoomNumber: "201", Capacity: 2, Occupants: []string{}},
		{ID: "R202", RoomNumber: "202", Capacity: 2, Occupants: []string{}},
	}

	s.fees = []models.Fee{
		{ID: "F01", StudentID: "S001", Amount: 5000, Status: models.FeeStatusPaid, DueDate: due},
		{ID: "F02", StudentID: "S002", Amount: 5000, Status: models.FeeStatusDue, DueDate: due},
		{ID: "F03", StudentID: "S003", Amount: 5000, Status: models.FeeStatusPaid, DueDate: due},
		{ID: "F04", StudentID: "S004", Amount: 5000, Status: models.FeeStatusDue, DueDate: due},
		{ID: "F05", StudentID: "S005", Amount: 5000, Status: models.FeeStatusDue, DueDate: due},
	}

	s.attendance = []models.AttendanceRecord{
		{ID: "A01", StudentID: "S001", Date: today, Present: true},
		{ID: "A02", StudentID: "S002", Date: today, Present: false},
		{ID: "A03", StudentID: "S003", Date: today, Present: true},
		{ID: "A04", StudentID: "S001", Date: yesterday, Present: true},
		{ID: "A05", StudentID: "S002", Date: yesterday, Present: true},
		{ID: "A06", StudentID: "S003", Date: yesterday, Present: false},
		{ID: "A07", StudentID: "S001", Date: dayBefore, Present: false},
		{ID: "A08", StudentID: "S002", Date: dayBefore, Present: true},
	}

	s.nextStudentSeq, s.nextAttendanceSeq = 1, 1
	s.bumpSequences()
}

func seedStudent(id, name, email, phone, address, course, picture, roomID string) models.Student {
	st := models.Student{
		ID:                id,
		Name:              name,
		Email:             email,
		Phone:             phone,
		Address:           address,
		Course:            course,
		ProfilePictureURL: "https://picsum.photos/seed/" + picture + "/200",
	}
	if roomID != "" {
		st.RoomID = &roomID
	}
	return st
}
