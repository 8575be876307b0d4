package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

var _ models.CourseStore = (*CourseRepository)(nil)

const courseColumns = `c.id, c.title, c.description, c.category, c.price, c.rating, c.thumbnail_ref,
	c.instructor_id, u.name, c.content, c.created_at, c.updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CourseRepository stores courses and their content items
type CourseRepository struct {
	db *DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a new course. An unknown instructor yields models.ErrNotFound.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.New().String()
	}
	if course.Content == nil {
		course.Content = models.ContentItems{}
	}

	query := `
		INSERT INTO courses (id, title, description, category, price, rating, thumbnail_ref, instructor_id, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		course.ID, course.Title, course.Description, course.Category, course.Price,
		course.Rating, course.ThumbnailRef, course.InstructorID, course.Content,
	).Scan(&course.CreatedAt, &course.UpdatedAt)

	return translate(err, "create course")
}

// GetByID retrieves a course with its instructor's name
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get course: %w", models.ErrNotFound)
	}

	query := `
		SELECT ` + courseColumns + `
		FROM courses c
		JOIN users u ON u.id = c.instructor_id
		WHERE c.id = $1
	`

	course, err := scanCourse(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get course")
	}
	return course, nil
}

// List returns one page of courses matching the filter and the total match count
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]*models.Course, int64, error) {
	where, args := courseFilterClause(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM courses c` + where
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "count courses")
	}

	args = append(args, filter.Limit, filter.Offset())
	query := fmt.Sprintf(`
		SELECT %s
		FROM courses c
		JOIN users u ON u.id = c.instructor_id
		%s
		ORDER BY c.created_at DESC, c.id
		LIMIT $%d OFFSET $%d
	`, courseColumns, where, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translate(err, "list courses")
	}

	courses, err := collectCourses(rows)
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// ListByInstructor returns every course owned by the instructor, oldest first
func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID string) ([]*models.Course, error) {
	if !validID(instructorID) {
		return []*models.Course{}, nil
	}

	query := `
		SELECT ` + courseColumns + `
		FROM courses c
		JOIN users u ON u.id = c.instructor_id
		WHERE c.instructor_id = $1
		ORDER BY c.created_at, c.id
	`

	rows, err := r.db.Pool.Query(ctx, query, instructorID)
	if err != nil {
		return nil, translate(err, "list instructor courses")
	}
	return collectCourses(rows)
}

// Update overwrites the mutable course fields. The owner is never changed.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	if !validID(course.ID) {
		return fmt.Errorf("update course: %w", models.ErrNotFound)
	}

	query := `
		UPDATE courses
		SET title = $2, description = $3, category = $4, price = $5, rating = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		course.ID, course.Title, course.Description, course.Category, course.Price, course.Rating,
	).Scan(&course.UpdatedAt)

	return translate(err, "update course")
}

// Delete removes a course. Its enrollments are removed by cascade.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("delete course: %w", models.ErrNotFound)
	}

	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete course")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete course: %w", models.ErrNotFound)
	}
	return nil
}

// SetThumbnail replaces the course thumbnail reference
func (r *CourseRepository) SetThumbnail(ctx context.Context, id, ref string) (*models.Course, error) {
	if !validID(id) {
		return nil, fmt.Errorf("set thumbnail: %w", models.ErrNotFound)
	}

	query := `
		WITH c AS (
			UPDATE courses SET thumbnail_ref = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + courseColumns + `
		FROM c
		JOIN users u ON u.id = c.instructor_id
	`

	course, err := scanCourse(r.db.Pool.QueryRow(ctx, query, id, ref))
	if err != nil {
		return nil, translate(err, "set thumbnail")
	}
	return course, nil
}

// AppendContent adds an item to the end of the course content in a single statement
func (r *CourseRepository) AppendContent(ctx context.Context, id string, item models.ContentItem) (*models.Course, error) {
	if !validID(id) {
		return nil, fmt.Errorf("append content: %w", models.ErrNotFound)
	}

	query := `
		WITH c AS (
			UPDATE courses SET content = content || $2::jsonb, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + courseColumns + `
		FROM c
		JOIN users u ON u.id = c.instructor_id
	`

	course, err := scanCourse(r.db.Pool.QueryRow(ctx, query, id, models.ContentItems{item}))
	if err != nil {
		return nil, translate(err, "append content")
	}
	return course, nil
}

func courseFilterClause(filter models.CourseFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("c.category = $%d", len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		conds = append(conds, fmt.Sprintf("c.price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		conds = append(conds, fmt.Sprintf("c.price <= $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
		conds = append(conds, fmt.Sprintf("(c.title ILIKE $%d OR c.description ILIKE $%d)", len(args), len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var course models.Course
	err := row.Scan(
		&course.ID, &course.Title, &course.Description, &course.Category, &course.Price,
		&course.Rating, &course.ThumbnailRef, &course.InstructorID, &course.InstructorName,
		&course.Content, &course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func collectCourses(rows pgx.Rows) ([]*models.Course, error) {
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}
	return courses, nil
}
