// Package types holds the shared data structures used across the
// application. Handlers, storage backends, and utils all import types
// without depending on each other.
package types

// DefaultGrade is assigned when a student is created without a grade.
const DefaultGrade = "N/A"

// Student is a stored student record.
//
// JSON keys are the capitalised field names; clients read and write
// "ID", "Name", "Grade" and "Email".
type Student struct {
	ID    int64  `json:"ID"`
	Name  string `json:"Name"`
	Grade string `json:"Grade"`
	Email string `json:"Email"`
}

// NewStudent is the payload accepted by create.
//
// Name is the only required field. Grade and Email are pointers so an
// omitted key can be told apart from an explicit empty string.
type NewStudent struct {
	Name  string  `json:"Name" validate:"required"`
	Grade *string `json:"Grade"`
	Email *string `json:"Email"`
}

// Build returns the record described by n with the given id, with
// defaults applied to the optional fields.
func (n NewStudent) Build(id int64) Student {
	s := Student{
		ID:    id,
		Name:  n.Name,
		Grade: DefaultGrade,
	}
	if n.Grade != nil {
		s.Grade = *n.Grade
	}
	if n.Email != nil {
		s.Email = *n.Email
	}
	return s
}

// StudentPatch is a partial update. A nil field leaves the stored value
// unchanged. A supplied Name must still be non-empty.
type StudentPatch struct {
	Name  *string `json:"Name" validate:"omitnil,min=1"`
	Grade *string `json:"Grade"`
	Email *string `json:"Email"`
}

// Apply overwrites the fields of s that are set in p.
func (p StudentPatch) Apply(s *Student) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Grade != nil {
		s.Grade = *p.Grade
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
}
