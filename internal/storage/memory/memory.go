// Package memory provides a map-backed implementation of the
// storage.Storage interface. Records live for the lifetime of the
// process.
package memory

import (
	"cmp"
	"slices"
	"sync"

	"github.com/aanand-mishra/students-registry/internal/storage"
	"github.com/aanand-mishra/students-registry/internal/types"
)

// Memory is safe for concurrent use. The mutex also covers ID
// assignment, so two concurrent creates never compute the same ID.
type Memory struct {
	mu       sync.RWMutex
	students map[int64]types.Student
}

// New returns an empty store.
func New() *Memory {
	return &Memory{students: make(map[int64]types.Student)}
}

// CreateStudent scans for the largest stored ID under the write lock and
// stores the new record at max+1.
func (m *Memory) CreateStudent(student types.NewStudent) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var maxID int64
	for id := range m.students {
		if id > maxID {
			maxID = id
		}
	}

	created := student.Build(maxID + 1)
	m.students[created.ID] = created
	return created, nil
}

// GetStudentByID returns a copy of the stored record, or
// storage.ErrNotFound.
func (m *Memory) GetStudentByID(id int64) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.students[id]
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	return s, nil
}

// GetStudents copies every record out of the map and sorts by ID; map
// iteration order is random.
func (m *Memory) GetStudents() ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.Student, 0, len(m.students))
	for _, s := range m.students {
		students = append(students, s)
	}
	slices.SortFunc(students, func(a, b types.Student) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return students, nil
}

// UpdateStudentByID applies patch to a copy and writes it back, so a
// missing id leaves the map untouched.
func (m *Memory) UpdateStudentByID(id int64, patch types.StudentPatch) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students[id]
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	patch.Apply(&s)
	m.students[id] = s
	return s, nil
}

// DeleteStudentByID removes id from the map, or returns
// storage.ErrNotFound.
func (m *Memory) DeleteStudentByID(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.students, id)
	return nil
}
