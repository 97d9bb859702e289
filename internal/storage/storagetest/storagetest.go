// Package storagetest holds the behaviour every storage.Storage backend
// must share. Backend packages call Run from their own tests.
package storagetest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-registry/internal/storage"
	"github.com/aanand-mishra/students-registry/internal/types"
)

// Run exercises a fresh store from newStore in each subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Run("CreateAssignsSequentialIDs", func(t *testing.T) {
		s := newStore(t)

		for want := int64(1); want <= 3; want++ {
			got, err := s.CreateStudent(types.NewStudent{Name: fmt.Sprintf("s%d", want)})
			require.NoError(t, err)
			assert.Equal(t, want, got.ID)
		}
	})

	t.Run("CreateAppliesDefaults", func(t *testing.T) {
		s := newStore(t)

		got, err := s.CreateStudent(types.NewStudent{Name: "Alice"})
		require.NoError(t, err)
		assert.Equal(t, types.Student{ID: 1, Name: "Alice", Grade: "N/A", Email: ""}, got)
	})

	t.Run("CreateKeepsExplicitFields", func(t *testing.T) {
		s := newStore(t)
		grade, email := "", "bob@example.com"

		got, err := s.CreateStudent(types.NewStudent{Name: "Bob", Grade: &grade, Email: &email})
		require.NoError(t, err)
		assert.Equal(t, "", got.Grade)
		assert.Equal(t, email, got.Email)
	})

	t.Run("GetReturnsCreatedRecord", func(t *testing.T) {
		s := newStore(t)
		grade := "B"

		created, err := s.CreateStudent(types.NewStudent{Name: "Bob", Grade: &grade})
		require.NoError(t, err)

		got, err := s.GetStudentByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetStudentByID(999)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListEmptyIsNotNil", func(t *testing.T) {
		s := newStore(t)

		got, err := s.GetStudents()
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("ListAscendingByID", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"a", "b", "c"} {
			_, err := s.CreateStudent(types.NewStudent{Name: name})
			require.NoError(t, err)
		}
		require.NoError(t, s.DeleteStudentByID(2))

		got, err := s.GetStudents()
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(1), got[0].ID)
		assert.Equal(t, int64(3), got[1].ID)
	})

	t.Run("UpdateIsPartial", func(t *testing.T) {
		s := newStore(t)
		email := "alice@example.com"
		created, err := s.CreateStudent(types.NewStudent{Name: "Alice", Email: &email})
		require.NoError(t, err)

		grade := "A"
		got, err := s.UpdateStudentByID(created.ID, types.StudentPatch{Grade: &grade})
		require.NoError(t, err)
		assert.Equal(t, types.Student{ID: created.ID, Name: "Alice", Grade: "A", Email: email}, got)

		stored, err := s.GetStudentByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, got, stored)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStore(t)
		name := "x"

		_, err := s.UpdateStudentByID(5, types.StudentPatch{Name: &name})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("DeleteThenGet", func(t *testing.T) {
		s := newStore(t)
		created, err := s.CreateStudent(types.NewStudent{Name: "Alice"})
		require.NoError(t, err)

		require.NoError(t, s.DeleteStudentByID(created.ID))
		_, err = s.GetStudentByID(created.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, s.DeleteStudentByID(created.ID), storage.ErrNotFound)
	})

	t.Run("DeleteLowerIDDoesNotReuse", func(t *testing.T) {
		s := newStore(t)
		mustCreate(t, s, "Alice")
		mustCreate(t, s, "Bob")
		require.NoError(t, s.DeleteStudentByID(1))

		got := mustCreate(t, s, "Carl")
		assert.Equal(t, int64(3), got.ID)
	})

	t.Run("DeleteMaxIDIsReused", func(t *testing.T) {
		s := newStore(t)
		mustCreate(t, s, "Alice")
		mustCreate(t, s, "Bob")
		require.NoError(t, s.DeleteStudentByID(2))

		got := mustCreate(t, s, "Carl")
		assert.Equal(t, int64(2), got.ID)
	})

	t.Run("ConcurrentCreatesGetDistinctIDs", func(t *testing.T) {
		s := newStore(t)
		const n = 32

		var wg sync.WaitGroup
		ids := make(chan int64, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				created, err := s.CreateStudent(types.NewStudent{Name: fmt.Sprintf("s%d", i)})
				if assert.NoError(t, err) {
					ids <- created.ID
				}
			}(i)
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]bool)
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
		assert.Len(t, seen, n)
	})
}

func mustCreate(t *testing.T, s storage.Storage, name string) types.Student {
	t.Helper()
	created, err := s.CreateStudent(types.NewStudent{Name: name})
	require.NoError(t, err)
	return created
}
