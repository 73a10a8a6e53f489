package repository

import (
	"context"
	"strings"

	"github.com/noah-isme/hostel-api/internal/models"
)

// StudentRepository manages student records in the store.
type StudentRepository struct {
	store *Store
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(store *Store) *StudentRepository {
	return &StudentRepository{store: store}
}

// List returns students matching the filter in insertion order, paginated, plus the total match count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var (
		matched []models.Student
		search  = strings.ToLower(strings.TrimSpace(filter.Search))
	)
	err := r.store.read(ctx, "students.list", func() error {
		for _, st := range r.store.students {
			if filter.Unallocated && st.HasRoom() {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(st.Name), search) &&
				!strings.Contains(strings.ToLower(st.Email), search) &&
				!strings.Contains(strings.ToLower(st.ID), search) {
				continue
			}
			matched = append(matched, st.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	total := len(matched)
	if filter.PageSize <= 0 {
		return matched, total, nil
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * filter.PageSize
	if start >= total {
		return []models.Student{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// All returns every student.
func (r *StudentRepository) All(ctx context.Context) ([]models.Student, error) {
	students, _, err := r.List(ctx, models.StudentFilter{})
	return students, err
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	var found *models.Student
	err := r.store.read(ctx, "students.find", func() error {
		idx := r.store.studentIndex(id)
		if idx < 0 {
			return ErrStudentNotFound
		}
		st := r.store.students[idx].Clone()
		found = &st
		return nil
	})
	return found, err
}

// FindByEmail looks a student up by case-insensitive email.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	var found *models.Student
	err := r.store.read(ctx, "students.find_by_email", func() error {
		for _, st := range r.store.students {
			if strings.EqualFold(st.Email, email) {
				clone := st.Clone()
				found = &clone
				return nil
			}
		}
		return ErrStudentNotFound
	})
	return found, err
}

// Create assigns the next sequential ID and inserts the student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.store.write(ctx, "students.create", func() error {
		if r.store.emailTaken(student.Email, "") {
			return ErrEmailTaken
		}
		student.ID = r.store.newStudentID()
		student.RoomID = nil
		r.store.students = append(r.store.students, student.Clone())
		return nil
	})
}

// Update applies patch to the student's profile fields in one write section, so
// concurrent partial updates never overwrite each other. Room and picture are untouched.
func (r *StudentRepository) Update(ctx context.Context, id string, patch models.StudentPatch) (*models.Student, error) {
	var updated *models.Student
	err := r.store.write(ctx, "students.update", func() error {
		idx := r.store.studentIndex(id)
		if idx < 0 {
			return ErrStudentNotFound
		}
		if patch.Email != nil && r.store.emailTaken(*patch.Email, id) {
			return ErrEmailTaken
		}
		patch.Apply(&r.store.students[idx])
		st := r.store.students[idx].Clone()
		updated = &st
		return nil
	})
	return updated, err
}

// UpdatePicture replaces the student's picture reference.
func (r *StudentRepository) UpdatePicture(ctx context.Context, id, pictureURL string) (*models.Student, error) {
	var updated *models.Student
	err := r.store.write(ctx, "students.update_picture", func() error {
		idx := r.store.studentIndex(id)
		if idx < 0 {
			return ErrStudentNotFound
		}
		r.store.students[idx].ProfilePictureURL = pictureURL
		st := r.store.students[idx].Clone()
		updated = &st
		return nil
	})
	return updated, err
}

// Delete removes the student and scrubs the ID from every room's occupant list.
// Fees and attendance rows are kept.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, "students.delete", func() error {
		idx := r.store.studentIndex(id)
		if idx < 0 {
			return ErrStudentNotFound
		}
		r.store.students = append(r.store.students[:idx], r.store.students[idx+1:]...)
		r.store.removeOccupant(id)
		return nil
	})
}
