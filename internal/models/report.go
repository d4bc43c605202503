package models

// CourseEnrollmentStat summarises seat occupancy for one course.
type CourseEnrollmentStat struct {
	CourseID  string `json:"course_id"`
	Title     string `json:"title"`
	Capacity  int    `json:"capacity"`
	Enrolled  int    `json:"enrolled"`
	Available int    `json:"available"`
	Pending   int    `json:"pending"`
}

// EnrollmentReport aggregates system-wide enrollment figures.
type EnrollmentReport struct {
	TotalCourses     int                    `json:"total_courses"`
	TotalStudents    int                    `json:"total_students"`
	TotalEnrollments int                    `json:"total_enrollments"`
	Courses          []CourseEnrollmentStat `json:"courses"`
}

// CourseGradeStat summarises grading for one course.
type CourseGradeStat struct {
	CourseID     string  `json:"course_id"`
	Title        string  `json:"title"`
	AverageGrade float64 `json:"average_grade"`
	TotalGrades  int     `json:"total_grades"`
}

// GradeReport aggregates system-wide grading figures.
type GradeReport struct {
	TotalGrades int               `json:"total_grades"`
	Courses     []CourseGradeStat `json:"courses"`
}

// StudentReport collects one student's academic standing.
type StudentReport struct {
	Student     Student            `json:"student"`
	Enrollments []EnrollmentDetail `json:"enrollments"`
	Grades      []GradeDetail      `json:"grades"`
	GPA         float64            `json:"gpa"`
	GPA4Scale   float64            `json:"gpa_4_scale"`
}
