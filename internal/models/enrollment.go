package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Enrollment links a user to a course. Rows are never deleted; at most one
// non-cancelled row exists per (user, course).
type Enrollment struct {
	ID          string           `db:"id" json:"id"`
	UserID      string           `db:"user_id" json:"user_id"`
	CourseID    string           `db:"course_id" json:"course_id"`
	ScheduleID  *string          `db:"schedule_id" json:"schedule_id,omitempty"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	Progress    int              `db:"progress" json:"progress"`
	EnrolledAt  time.Time        `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
}

// EnrollmentDetail enriches Enrollment with course and schedule data for display.
type EnrollmentDetail struct {
	Enrollment
	CourseTitle       string     `db:"course_title" json:"course_title"`
	CourseSlug        string     `db:"course_slug" json:"course_slug"`
	CourseImageURL    *string    `db:"course_image_url" json:"course_image_url,omitempty"`
	CourseDuration    int        `db:"course_duration_hours" json:"course_duration_hours"`
	ScheduleStart     *time.Time `db:"schedule_start_date" json:"schedule_start_date,omitempty"`
	ScheduleEnd       *time.Time `db:"schedule_end_date" json:"schedule_end_date,omitempty"`
	ScheduleLocation  *string    `db:"schedule_location" json:"schedule_location,omitempty"`
	ScheduleDateLabel string     `db:"-" json:"schedule_date_label,omitempty"`
}

// EnrollmentAdminRow is the administrative view of an enrollment.
type EnrollmentAdminRow struct {
	Enrollment
	UserEmail    string `db:"user_email" json:"user_email"`
	UserFullName string `db:"user_full_name" json:"user_full_name"`
	CourseTitle  string `db:"course_title" json:"course_title"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	UserID    string
	CourseID  string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortOrder string
}
