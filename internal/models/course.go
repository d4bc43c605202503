package models

import "time"

// Course represents a course offering with a fixed seat capacity.
type Course struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	Capacity      int       `db:"capacity" json:"capacity"`
	Prerequisites string    `db:"prerequisites" json:"prerequisites"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CourseSeats augments a course with its live seat occupancy. Only ACTIVE
// enrollments count against capacity.
type CourseSeats struct {
	Course
	EnrolledCount int `db:"enrolled_count" json:"enrolled_count"`
}

// HasAvailableSeats reports whether another student can be activated.
func (c CourseSeats) HasAvailableSeats() bool {
	return c.EnrolledCount < c.Capacity
}

// AvailableSeats returns the remaining seat count, never negative.
func (c CourseSeats) AvailableSeats() int {
	if c.EnrolledCount >= c.Capacity {
		return 0
	}
	return c.Capacity - c.EnrolledCount
}

// CourseFilter captures filtering criteria for the course catalog.
type CourseFilter struct {
	Title    string
	Page     int
	PageSize int
}
