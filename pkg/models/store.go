package models

import (
	"context"
	"time"
)

// UserStore persists user accounts
type UserStore interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetResetOTP(ctx context.Context, userID, otpHash string, expiresAt time.Time) error
	// ResetPassword replaces the password hash and clears the reset OTP
	ResetPassword(ctx context.Context, userID, passwordHash string) error
	PurgeExpiredOTPs(ctx context.Context, now time.Time) (int64, error)
}

// CourseStore persists courses and their content
type CourseStore interface {
	Create(ctx context.Context, course *Course) error
	GetByID(ctx context.Context, id string) (*Course, error)
	List(ctx context.Context, filter CourseFilter) ([]*Course, int64, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]*Course, error)
	Update(ctx context.Context, course *Course) error
	Delete(ctx context.Context, id string) error
	SetThumbnail(ctx context.Context, id, ref string) (*Course, error)
	AppendContent(ctx context.Context, id string, item ContentItem) (*Course, error)
}

// EnrollmentStore persists enrollments. Uniqueness of (user, course) is
// enforced by the store: Create reports ErrConflict for a duplicate pair.
type EnrollmentStore interface {
	Create(ctx context.Context, enrollment *Enrollment) error
	GetByID(ctx context.Context, id string) (*Enrollment, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID string) (*Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]*EnrollmentWithCourse, error)
	ListRosterByInstructor(ctx context.Context, instructorID string) ([]*RosterEntry, error)
	UpdateProgress(ctx context.Context, id string, progress int) (*Enrollment, error)
	Delete(ctx context.Context, id string) error
	// UpsertPaid inserts a paid enrollment or marks the existing one paid,
	// leaving its progress untouched
	UpsertPaid(ctx context.Context, userID, courseID string) (*Enrollment, error)
}
