// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using database/sql.
//
// The default path ":memory:" keeps the database inside the process, so
// records are gone once the process exits, like the memory backend. A
// file path may be configured for local debugging.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/aanand-mishra/students-registry/internal/config"
	"github.com/aanand-mishra/students-registry/internal/storage"
	"github.com/aanand-mishra/students-registry/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the database/sql implementation of storage.Storage.
type SQLite struct {
	Db *sql.DB
}

// New opens the database at cfg.Path and creates the students table if
// it does not already exist.
func New(cfg config.Storage) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Every connection to ":memory:" is a separate database, so the pool
	// is pinned to one connection that is never recycled. This also
	// serialises writers, which keeps max(id)+1 race free.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// id has no AUTOINCREMENT: ids are assigned as max(id)+1 in
	// CreateStudent, and a deleted maximum id is handed out again.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id    INTEGER PRIMARY KEY,
			name  TEXT NOT NULL,
			grade TEXT NOT NULL,
			email TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the underlying database.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateStudent reads max(id)+1 and inserts the row inside one
// transaction. Placeholders (?) keep user input out of the SQL text.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateStudent(student types.NewStudent) (types.Student, error) {
	tx, err := s.Db.Begin()
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: begin: %w", err)
	}
	defer tx.Rollback()

	var nextID int64
	if err := tx.QueryRow("SELECT COALESCE(MAX(id), 0) + 1 FROM students").Scan(&nextID); err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: next id: %w", err)
	}

	created := student.Build(nextID)
	_, err = tx.Exec(
		"INSERT INTO students (id, name, grade, email) VALUES (?, ?, ?, ?)",
		created.ID, created.Name, created.Grade, created.Email,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: commit: %w", err)
	}
	return created, nil
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func getStudent(q rowQuerier, id int64) (types.Student, error) {
	var student types.Student
	err := q.QueryRow(
		"SELECT id, name, grade, email FROM students WHERE id = ? LIMIT 1", id,
	).Scan(&student.ID, &student.Name, &student.Grade, &student.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("scan student %d: %w", id, err)
	}
	return student, nil
}

// GetStudentByID fetches one row by primary key. sql.ErrNoRows is
// translated to storage.ErrNotFound.
func (s *SQLite) GetStudentByID(id int64) (types.Student, error) {
	return getStudent(s.Db, id)
}

// GetStudents returns every row ordered by id. Columns are listed
// explicitly so Scan order never drifts from the schema.
func (s *SQLite) GetStudents() ([]types.Student, error) {
	rows, err := s.Db.Query("SELECT id, name, grade, email FROM students ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var student types.Student
		if err := rows.Scan(&student.ID, &student.Name, &student.Grade, &student.Email); err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateStudentByID loads the row, applies patch in Go, and writes all
// three columns back in the same transaction.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) UpdateStudentByID(id int64, patch types.StudentPatch) (types.Student, error) {
	tx, err := s.Db.Begin()
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: begin: %w", err)
	}
	defer tx.Rollback()

	student, err := getStudent(tx, id)
	if err != nil {
		return types.Student{}, err
	}
	patch.Apply(&student)

	_, err = tx.Exec(
		"UPDATE students SET name = ?, grade = ?, email = ? WHERE id = ?",
		student.Name, student.Grade, student.Email, id,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: commit: %w", err)
	}
	return student, nil
}

// DeleteStudentByID removes the row. Zero rows affected means the id was
// not stored.
func (s *SQLite) DeleteStudentByID(id int64) error {
	result, err := s.Db.Exec("DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
