package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/config"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

const courseListPattern = "courses:list:*"

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(cfg config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Course Cache Operations

// SetCourse caches a course
func (c *Cache) SetCourse(ctx context.Context, course *models.Course, ttl time.Duration) error {
	return c.setJSON(ctx, courseKey(course.ID), course, ttl)
}

// GetCourse retrieves a course from cache. A miss returns nil, nil.
func (c *Cache) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	var course models.Course
	found, err := c.getJSON(ctx, courseKey(courseID), &course)
	if err != nil || !found {
		return nil, err
	}
	return &course, nil
}

// DeleteCourse removes a course from cache
func (c *Cache) DeleteCourse(ctx context.Context, courseID string) error {
	return c.client.Del(ctx, courseKey(courseID)).Err()
}

// SetCourseList caches one page of a course listing
func (c *Cache) SetCourseList(ctx context.Context, filter models.CourseFilter, page *models.CoursePage, ttl time.Duration) error {
	key, err := courseListKey(filter)
	if err != nil {
		return err
	}
	return c.setJSON(ctx, key, page, ttl)
}

// GetCourseList retrieves a cached listing page. A miss returns nil, nil.
func (c *Cache) GetCourseList(ctx context.Context, filter models.CourseFilter) (*models.CoursePage, error) {
	key, err := courseListKey(filter)
	if err != nil {
		return nil, err
	}

	var page models.CoursePage
	found, err := c.getJSON(ctx, key, &page)
	if err != nil || !found {
		return nil, err
	}
	return &page, nil
}

// InvalidateCourseLists drops every cached listing page
func (c *Cache) InvalidateCourseLists(ctx context.Context) error {
	return c.deletePattern(ctx, courseListPattern)
}

// Rate Limiting Operations

// CheckRateLimit counts a hit against key and reports whether the caller is
// still within limit for the current window
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	rateLimitKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := c.client.Incr(ctx, rateLimitKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		if err := c.client.Expire(ctx, rateLimitKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set expiry: %w", err)
		}
	}

	return count <= limit, nil
}

// Ping checks the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

func (c *Cache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get value from cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return true, nil
}

func courseKey(courseID string) string {
	return fmt.Sprintf("course:%s", courseID)
}

func courseListKey(filter models.CourseFilter) (string, error) {
	data, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("failed to marshal filter: %w", err)
	}
	sum := sha1.Sum(data)
	return "courses:list:" + hex.EncodeToString(sum[:]), nil
}
