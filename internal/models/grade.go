package models

import (
	"math"
	"time"
)

// Grade represents the recorded score for a (student, course) pair. At most
// one row exists per pair; re-recording overwrites score and comments.
type Grade struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	Score      float64   `db:"score" json:"score"`
	Comments   string    `db:"comments" json:"comments"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// GradeDetail enriches Grade with the course title and derived letter grade.
type GradeDetail struct {
	Grade
	CourseTitle string `db:"course_title" json:"course_title"`
	LetterGrade string `json:"letter_grade"`
}

// LetterGrade maps a percentage score onto the letter scale, highest
// threshold first.
func (g Grade) LetterGrade() string {
	switch {
	case g.Score >= 90:
		return "A"
	case g.Score >= 80:
		return "B"
	case g.Score >= 70:
		return "C"
	case g.Score >= 60:
		return "D"
	default:
		return "F"
	}
}

// GradePoints converts a percentage score onto the 4.0 scale. Used for
// display in transcripts only; GPA aggregation works on raw percentages.
func GradePoints(score float64) float64 {
	switch {
	case score >= 93:
		return 4.0
	case score >= 90:
		return 3.7
	case score >= 87:
		return 3.3
	case score >= 83:
		return 3.0
	case score >= 80:
		return 2.7
	case score >= 77:
		return 2.3
	case score >= 73:
		return 2.0
	case score >= 70:
		return 1.7
	case score >= 67:
		return 1.3
	case score >= 63:
		return 1.0
	case score >= 60:
		return 0.7
	default:
		return 0.0
	}
}

// RoundHalfUp rounds v half-up to two decimal places.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
