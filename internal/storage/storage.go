// Package storage defines the Storage interface that every backend must
// satisfy. Handlers depend only on this interface, so backends can be
// swapped from main.go and tests can pass a fake.
package storage

import (
	"errors"

	"github.com/aanand-mishra/students-registry/internal/types"
)

// ErrNotFound is returned when no student has the requested ID.
var ErrNotFound = errors.New("student not found")

// Storage is the student store contract.
//
// New IDs are one greater than the largest ID currently stored, or 1
// when the store is empty. Deleting the record with the largest ID
// frees that ID for the next create.
type Storage interface {
	// CreateStudent assigns the next ID, applies defaults for omitted
	// optional fields, and stores the record.
	CreateStudent(student types.NewStudent) (types.Student, error)

	// GetStudentByID returns ErrNotFound if id is not stored.
	GetStudentByID(id int64) (types.Student, error)

	// GetStudents returns every stored student in ascending ID order.
	// The slice is empty, not nil, when nothing is stored.
	GetStudents() ([]types.Student, error)

	// UpdateStudentByID applies patch to the stored record and returns
	// the result, or ErrNotFound.
	UpdateStudentByID(id int64, patch types.StudentPatch) (types.Student, error)

	// DeleteStudentByID removes the record, or returns ErrNotFound.
	DeleteStudentByID(id int64) error
}
