package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Course represents a course offered by an instructor
type Course struct {
	ID             string       `json:"id" db:"id"`
	Title          string       `json:"title" db:"title"`
	Description    string       `json:"description" db:"description"`
	Category       string       `json:"category" db:"category"`
	Price          float64      `json:"price" db:"price"`
	Rating         float64      `json:"rating" db:"rating"`
	ThumbnailRef   string       `json:"thumbnail_ref,omitempty" db:"thumbnail_ref"`
	InstructorID   string       `json:"instructor_id" db:"instructor_id"`
	InstructorName string       `json:"instructor_name,omitempty" db:"-"`
	Content        ContentItems `json:"content" db:"content"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// IsFree reports whether the course can be taken without payment
func (c *Course) IsFree() bool {
	return c.Price <= 0
}

// MediaKind classifies an uploaded course file
type MediaKind string

const (
	MediaKindThumbnail MediaKind = "thumbnail"
	MediaKindVideo     MediaKind = "video"
	MediaKindContent   MediaKind = "content"
)

// ContentItem is one entry of a course's ordered content
type ContentItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	StorageRef string    `json:"storage_ref"`
	Kind       MediaKind `json:"kind"`
}

// ContentItems is the ordered content of a course, stored as JSONB
type ContentItems []ContentItem

// Value implements driver.Valuer for database storage
func (ci ContentItems) Value() (driver.Value, error) {
	if ci == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(ci)
}

// Scan implements sql.Scanner for database retrieval
func (ci *ContentItems) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*ci = ContentItems{}
		return nil
	case []byte:
		return json.Unmarshal(v, ci)
	case string:
		return json.Unmarshal([]byte(v), ci)
	default:
		return fmt.Errorf("unsupported content type %T", value)
	}
}

// CourseFilter narrows a course listing
type CourseFilter struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Page     int
	Limit    int
}

// Offset returns the number of rows to skip for the filter's page
func (f CourseFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// CoursePage is one page of a course listing
type CoursePage struct {
	Data        []*Course `json:"data"`
	CurrentPage int       `json:"currentPage"`
	TotalPages  int       `json:"totalPages"`
	TotalItems  int64     `json:"totalItems"`
}

// CourseSummary is the slice of a course embedded into enrollment listings
type CourseSummary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	ThumbnailRef string  `json:"thumbnail_ref,omitempty"`
	InstructorID string  `json:"instructor_id"`
}
