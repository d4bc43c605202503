package models

import "time"

// AdminNotificationType classifies messages delivered to administrators.
type AdminNotificationType string

const (
	AdminNotifPendingEnrollment  AdminNotificationType = "PENDING_ENROLLMENT_REQUEST"
	AdminNotifPendingWithdrawal  AdminNotificationType = "PENDING_WITHDRAWAL_REQUEST"
	AdminNotifEnrollmentApproved AdminNotificationType = "ENROLLMENT_APPROVED"
	AdminNotifEnrollmentRejected AdminNotificationType = "ENROLLMENT_REJECTED"
	AdminNotifWithdrawalApproved AdminNotificationType = "WITHDRAWAL_APPROVED"
	AdminNotifWithdrawalRejected AdminNotificationType = "WITHDRAWAL_REJECTED"
	AdminNotifGradeAdded         AdminNotificationType = "GRADE_ADDED"
	AdminNotifGradeUpdated       AdminNotificationType = "GRADE_UPDATED"
	AdminNotifCourseCreated      AdminNotificationType = "COURSE_CREATED"
	AdminNotifCourseUpdated      AdminNotificationType = "COURSE_UPDATED"
	AdminNotifSystemAlert        AdminNotificationType = "SYSTEM_ALERT"
)

// AdminNotification is a mailbox entry addressed to one administrator,
// optionally referencing the entity that triggered it.
type AdminNotification struct {
	ID                string                `db:"id" json:"id"`
	Message           string                `db:"message" json:"message"`
	AdminID           string                `db:"admin_id" json:"admin_id"`
	Type              AdminNotificationType `db:"type" json:"type"`
	RelatedEntityID   *string               `db:"related_entity_id" json:"related_entity_id,omitempty"`
	RelatedEntityType *string               `db:"related_entity_type" json:"related_entity_type,omitempty"`
	Read              bool                  `db:"read" json:"read"`
	SentAt            time.Time             `db:"sent_at" json:"sent_at"`
}
