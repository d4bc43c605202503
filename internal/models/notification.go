package models

import "time"

// NotificationType classifies messages delivered to students.
type NotificationType string

const (
	NotificationEnrollment   NotificationType = "ENROLLMENT"
	NotificationWithdrawal   NotificationType = "WITHDRAWAL"
	NotificationGradeUpdate  NotificationType = "GRADE_UPDATE"
	NotificationCourseUpdate NotificationType = "COURSE_UPDATE"
	NotificationSystem       NotificationType = "SYSTEM"
)

// Notification is a mailbox entry addressed to a single student.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	Message     string           `db:"message" json:"message"`
	RecipientID string           `db:"recipient_id" json:"recipient_id"`
	Type        NotificationType `db:"type" json:"type"`
	Read        bool             `db:"read" json:"read"`
	SentAt      time.Time        `db:"sent_at" json:"sent_at"`
}
