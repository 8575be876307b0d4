package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

var _ models.EnrollmentStore = (*EnrollmentRepository)(nil)

const enrollmentColumns = `id, user_id, course_id, progress, payment_status, created_at, updated_at`

// EnrollmentRepository stores enrollments. The (user_id, course_id) pair is
// unique in the schema; every mutation here is a single statement.
type EnrollmentRepository struct {
	db *DB
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create inserts an enrollment. A duplicate (user, course) pair yields
// models.ErrConflict; a missing user or course yields models.ErrNotFound.
func (r *EnrollmentRepository) Create(ctx context.Context, e *models.Enrollment) error {
	if !validID(e.UserID) || !validID(e.CourseID) {
		return fmt.Errorf("create enrollment: %w", models.ErrNotFound)
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	query := `
		INSERT INTO enrollments (id, user_id, course_id, progress, payment_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		e.ID, e.UserID, e.CourseID, e.Progress, e.PaymentStatus,
	).Scan(&e.CreatedAt, &e.UpdatedAt)

	return translate(err, "create enrollment")
}

// GetByID retrieves an enrollment by ID
func (r *EnrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get enrollment: %w", models.ErrNotFound)
	}

	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`

	e, err := scanEnrollment(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get enrollment")
	}
	return e, nil
}

// GetByUserAndCourse retrieves the enrollment of a user in a course
func (r *EnrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	if !validID(userID) || !validID(courseID) {
		return nil, fmt.Errorf("get enrollment: %w", models.ErrNotFound)
	}

	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2`

	e, err := scanEnrollment(r.db.Pool.QueryRow(ctx, query, userID, courseID))
	if err != nil {
		return nil, translate(err, "get enrollment")
	}
	return e, nil
}

// ListByUser returns the user's enrollments joined with their courses in
// insertion order
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]*models.EnrollmentWithCourse, error) {
	result := []*models.EnrollmentWithCourse{}
	if !validID(userID) {
		return result, nil
	}

	query := `
		SELECT e.id, e.user_id, e.course_id, e.progress, e.payment_status, e.created_at, e.updated_at,
		       c.id, c.title, c.category, c.price, c.thumbnail_ref, c.instructor_id
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.created_at, e.id
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, translate(err, "list user enrollments")
	}
	defer rows.Close()

	for rows.Next() {
		var item models.EnrollmentWithCourse
		err := rows.Scan(
			&item.ID, &item.UserID, &item.CourseID, &item.Progress, &item.PaymentStatus,
			&item.CreatedAt, &item.UpdatedAt,
			&item.Course.ID, &item.Course.Title, &item.Course.Category, &item.Course.Price,
			&item.Course.ThumbnailRef, &item.Course.InstructorID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate enrollments: %w", err)
	}

	return result, nil
}

// ListRosterByInstructor returns every enrollment in courses owned by the
// instructor, joined with the enrolled student
func (r *EnrollmentRepository) ListRosterByInstructor(ctx context.Context, instructorID string) ([]*models.RosterEntry, error) {
	result := []*models.RosterEntry{}
	if !validID(instructorID) {
		return result, nil
	}

	query := `
		SELECT e.id, e.course_id, u.id, u.name, u.email, e.progress, e.payment_status, e.created_at
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		JOIN users u ON u.id = e.user_id
		WHERE c.instructor_id = $1
		ORDER BY e.created_at, e.id
	`

	rows, err := r.db.Pool.Query(ctx, query, instructorID)
	if err != nil {
		return nil, translate(err, "list instructor roster")
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.RosterEntry
		err := rows.Scan(
			&entry.EnrollmentID, &entry.CourseID, &entry.Student.ID, &entry.Student.Name,
			&entry.Student.Email, &entry.Progress, &entry.PaymentStatus, &entry.EnrolledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		result = append(result, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roster: %w", err)
	}

	return result, nil
}

// UpdateProgress sets the progress of an enrollment
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, id string, progress int) (*models.Enrollment, error) {
	if !validID(id) {
		return nil, fmt.Errorf("update progress: %w", models.ErrNotFound)
	}

	query := `
		UPDATE enrollments SET progress = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + enrollmentColumns

	e, err := scanEnrollment(r.db.Pool.QueryRow(ctx, query, id, progress))
	if err != nil {
		return nil, translate(err, "update progress")
	}
	return e, nil
}

// Delete removes an enrollment
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("delete enrollment: %w", models.ErrNotFound)
	}

	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete enrollment")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete enrollment: %w", models.ErrNotFound)
	}
	return nil
}

// UpsertPaid records a successful payment for (user, course). A new
// enrollment starts at zero progress; an existing one keeps its progress.
func (r *EnrollmentRepository) UpsertPaid(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	if !validID(userID) || !validID(courseID) {
		return nil, fmt.Errorf("upsert paid enrollment: %w", models.ErrNotFound)
	}

	query := `
		INSERT INTO enrollments (id, user_id, course_id, progress, payment_status)
		VALUES ($1, $2, $3, 0, 'paid')
		ON CONFLICT (user_id, course_id)
		DO UPDATE SET payment_status = 'paid',
		              updated_at = CASE WHEN enrollments.payment_status = 'paid'
		                                THEN enrollments.updated_at ELSE NOW() END
		RETURNING ` + enrollmentColumns

	e, err := scanEnrollment(r.db.Pool.QueryRow(ctx, query, uuid.New().String(), userID, courseID))
	if err != nil {
		return nil, translate(err, "upsert paid enrollment")
	}
	return e, nil
}

func scanEnrollment(row rowScanner) (*models.Enrollment, error) {
	var e models.Enrollment
	err := row.Scan(
		&e.ID, &e.UserID, &e.CourseID, &e.Progress, &e.PaymentStatus, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
