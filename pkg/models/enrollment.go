package models

import "time"

// PaymentStatus tracks whether an enrollment has been paid for
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Progress bounds
const (
	MinProgress = 0
	MaxProgress = 100
)

// Enrollment links a student to a course
type Enrollment struct {
	ID            string        `json:"id" db:"id"`
	UserID        string        `json:"user_id" db:"user_id"`
	CourseID      string        `json:"course_id" db:"course_id"`
	Progress      int           `json:"progress" db:"progress"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// EnrollmentWithCourse is an enrollment joined with its course summary
type EnrollmentWithCourse struct {
	Enrollment
	Course CourseSummary `json:"course"`
}

// RosterEntry is one student row of an instructor's roster
type RosterEntry struct {
	EnrollmentID  string        `json:"enrollment_id"`
	CourseID      string        `json:"-"`
	Student       UserSummary   `json:"student"`
	Progress      int           `json:"progress"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	EnrolledAt    time.Time     `json:"enrolled_at"`
}

// CourseRoster groups the students enrolled in one course
type CourseRoster struct {
	CourseID      string         `json:"course_id"`
	Title         string         `json:"title"`
	TotalStudents int            `json:"totalStudents"`
	Students      []*RosterEntry `json:"students"`
}

// ClampProgress bounds p into [MinProgress, MaxProgress]
func ClampProgress(p int) int {
	if p < MinProgress {
		return MinProgress
	}
	if p > MaxProgress {
		return MaxProgress
	}
	return p
}
