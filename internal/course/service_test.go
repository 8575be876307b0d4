package course

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/mocks"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/upload"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

type fakeCache struct {
	mu               sync.Mutex
	courses          map[string]*models.Course
	lists            map[models.CourseFilter]*models.CoursePage
	listsInvalidated int
	err              error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		courses: make(map[string]*models.Course),
		lists:   make(map[models.CourseFilter]*models.CoursePage),
	}
}

func (f *fakeCache) SetCourse(_ context.Context, course *models.Course, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courses[course.ID] = course
	return f.err
}

func (f *fakeCache) GetCourse(_ context.Context, id string) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.courses[id], nil
}

func (f *fakeCache) DeleteCourse(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.courses, id)
	return f.err
}

func (f *fakeCache) SetCourseList(_ context.Context, filter models.CourseFilter, page *models.CoursePage, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[filter] = page
	return f.err
}

func (f *fakeCache) GetCourseList(_ context.Context, filter models.CourseFilter) (*models.CoursePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.lists[filter], nil
}

func (f *fakeCache) InvalidateCourseLists(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = make(map[models.CourseFilter]*models.CoursePage)
	f.listsInvalidated++
	return f.err
}

type fakeObjects struct {
	uploaded  map[string][]byte
	deleted   []string
	uploadErr error
	purged    []string
	purgeErr  error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{uploaded: make(map[string][]byte)}
}

func (f *fakeObjects) Upload(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.uploaded[name] = data
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	delete(f.uploaded, name)
	return nil
}

func (f *fakeObjects) DeleteCourseMedia(_ context.Context, courseID string) (int, error) {
	f.purged = append(f.purged, courseID)
	return 0, f.purgeErr
}

var (
	instructor = models.Actor{ID: "instructor-1", Role: models.RoleInstructor}
	otherInstr = models.Actor{ID: "instructor-2", Role: models.RoleInstructor}
	admin      = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	student    = models.Actor{ID: "student-1", Role: models.RoleStudent}
)

type testEnv struct {
	svc     *Service
	courses *mocks.CourseStore
	users   *mocks.UserStore
	cache   *fakeCache
	objects *fakeObjects
}

func newTestEnv() *testEnv {
	env := &testEnv{
		courses: &mocks.CourseStore{},
		users:   &mocks.UserStore{},
		cache:   newFakeCache(),
		objects: newFakeObjects(),
	}
	env.svc = NewService(env.courses, env.users, env.cache, env.objects, upload.NewValidator(1<<20), time.Minute, logging.NewNopLogger())
	return env
}

func ownedCourse() *models.Course {
	return &models.Course{
		ID:           "course-1",
		Title:        "Go",
		Price:        49.99,
		InstructorID: instructor.ID,
		Content:      models.ContentItems{},
	}
}

func TestCreate(t *testing.T) {
	env := newTestEnv()
	env.users.On("GetByID", mock.Anything, instructor.ID).
		Return(&models.User{ID: instructor.ID, Name: "Ida", Role: models.RoleInstructor}, nil)
	env.courses.On("Create", mock.Anything, mock.AnythingOfType("*models.Course")).Return(nil)

	course, err := env.svc.Create(context.Background(), instructor, CourseInput{
		Title: " Concurrency in Go ", Category: "programming", Price: 19.5,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, course.ID)
	assert.Equal(t, "Concurrency in Go", course.Title)
	assert.Equal(t, instructor.ID, course.InstructorID)
	assert.Equal(t, "Ida", course.InstructorName)
	assert.Empty(t, course.Content)
	assert.Equal(t, 1, env.cache.listsInvalidated)
	env.courses.AssertExpectations(t)
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		actor   models.Actor
		input   CourseInput
		wantErr error
	}{
		{name: "student", actor: student, input: CourseInput{Title: "x"}, wantErr: models.ErrPermissionDenied},
		{name: "missing title", actor: instructor, input: CourseInput{Title: "  "}, wantErr: models.ErrInvalidInput},
		{name: "negative price", actor: instructor, input: CourseInput{Title: "x", Price: -1}, wantErr: models.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			_, err := env.svc.Create(context.Background(), tt.actor, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			env.courses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_OwnerMustExist(t *testing.T) {
	env := newTestEnv()
	env.users.On("GetByID", mock.Anything, instructor.ID).Return(nil, models.ErrNotFound)

	_, err := env.svc.Create(context.Background(), instructor, CourseInput{Title: "x"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreate_OwnerRoleChecked(t *testing.T) {
	env := newTestEnv()
	env.users.On("GetByID", mock.Anything, instructor.ID).
		Return(&models.User{ID: instructor.ID, Role: models.RoleStudent}, nil)

	_, err := env.svc.Create(context.Background(), instructor, CourseInput{Title: "x"})
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
}

func TestGet_ReadThrough(t *testing.T) {
	env := newTestEnv()
	env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil).Once()

	first, err := env.svc.Get(context.Background(), "course-1")
	require.NoError(t, err)

	second, err := env.svc.Get(context.Background(), "course-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	env.courses.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestGet_CacheFailureFallsBackToStore(t *testing.T) {
	env := newTestEnv()
	env.cache.err = errors.New("redis down")
	env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil)

	course, err := env.svc.Get(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, "course-1", course.ID)
}

func TestGet_NotFound(t *testing.T) {
	env := newTestEnv()
	env.courses.On("GetByID", mock.Anything, "missing").Return(nil, models.ErrNotFound)

	_, err := env.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestList_Pagination(t *testing.T) {
	env := newTestEnv()
	expected := models.CourseFilter{Category: "go", Page: 2, Limit: 10}
	env.courses.On("List", mock.Anything, expected).
		Return([]*models.Course{ownedCourse()}, int64(21), nil).Once()

	page, err := env.svc.List(context.Background(), models.CourseFilter{Category: " go ", Page: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(21), page.TotalItems)
	assert.Len(t, page.Data, 1)

	_, err = env.svc.List(context.Background(), models.CourseFilter{Category: "go", Page: 2, Limit: 10})
	require.NoError(t, err)
	env.courses.AssertNumberOfCalls(t, "List", 1)
}

func TestList_EmptyResult(t *testing.T) {
	env := newTestEnv()
	env.courses.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), nil)

	page, err := env.svc.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 0, page.TotalPages)
}

func TestNormalizeFilter(t *testing.T) {
	low, high, neg := 50.0, 10.0, -1.0

	f, err := normalizeFilter(models.CourseFilter{Page: -3, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.Limit)

	_, err = normalizeFilter(models.CourseFilter{MinPrice: &low, MaxPrice: &high})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = normalizeFilter(models.CourseFilter{MinPrice: &neg})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestUpdate(t *testing.T) {
	env := newTestEnv()
	env.cache.courses["course-1"] = ownedCourse()
	env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil)
	env.courses.On("Update", mock.Anything, mock.AnythingOfType("*models.Course")).Return(nil)

	title, price := "Advanced Go", 0.0
	course, err := env.svc.Update(context.Background(), instructor, "course-1", CourseUpdate{Title: &title, Price: &price})
	require.NoError(t, err)

	assert.Equal(t, "Advanced Go", course.Title)
	assert.Equal(t, 0.0, course.Price)
	assert.Equal(t, instructor.ID, course.InstructorID)
	assert.NotContains(t, env.cache.courses, "course-1")
}

func TestUpdate_Authorization(t *testing.T) {
	title := "x"

	for _, actor := range []models.Actor{otherInstr, student} {
		env := newTestEnv()
		env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil)

		_, err := env.svc.Update(context.Background(), actor, "course-1", CourseUpdate{Title: &title})
		assert.ErrorIs(t, err, models.ErrPermissionDenied)
		env.courses.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	}

	env := newTestEnv()
	env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil)
	env.courses.On("Update", mock.Anything, mock.Anything).Return(nil)
	_, err := env.svc.Update(context.Background(), admin, "course-1", CourseUpdate{Title: &title})
	assert.NoError(t, err)
}

func TestUpdate_InvalidFields(t *testing.T) {
	env := newTestEnv()
	env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil)

	empty, negative := " ", -5.0
	_, err := env.svc.Update(context.Background(), instructor, "course-1", CourseUpdate{Title: &empty})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = env.svc.Update(context.Background(), instructor, "course-1", CourseUpdate{Price: &negative})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestDelete(t *testing.T) {
	env := newTestEnv()
	env.cache.courses["course-1"] = ownedCourse()
	env.objects.purgeErr = errors.New("minio unavailable")
	env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil)
	env.courses.On("Delete", mock.Anything, "course-1").Return(nil)

	require.NoError(t, env.svc.Delete(context.Background(), instructor, "course-1"))

	assert.Equal(t, []string{"course-1"}, env.objects.purged)
	assert.NotContains(t, env.cache.courses, "course-1")
}

func TestDelete_NotOwner(t *testing.T) {
	env := newTestEnv()
	env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil)

	err := env.svc.Delete(context.Background(), otherInstr, "course-1")
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	env.courses.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	assert.Empty(t, env.objects.purged)
}

var pngData = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func pdfData() []byte {
	return []byte("%PDF-1.4\n" + strings.Repeat("x", 128))
}

func TestAttachMedia_Thumbnail(t *testing.T) {
	env := newTestEnv()
	updated := ownedCourse()
	env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil)
	env.courses.On("SetThumbnail", mock.Anything, "course-1", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { updated.ThumbnailRef = args.String(2) }).
		Return(updated, nil)

	result, err := env.svc.AttachMedia(context.Background(), instructor, "course-1", MediaUpload{
		Kind:     models.MediaKindThumbnail,
		Filename: "cover.PNG",
		Size:     int64(len(pngData)),
		Reader:   bytes.NewReader(pngData),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.StorageRef, "courses/course-1/thumbnail/"))
	assert.True(t, strings.HasSuffix(result.StorageRef, ".png"))
	assert.Equal(t, result.StorageRef, result.Course.ThumbnailRef)
	assert.Equal(t, pngData, env.objects.uploaded[result.StorageRef])
}

func TestAttachMedia_Content(t *testing.T) {
	env := newTestEnv()
	data := pdfData()
	env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil)

	var appended models.ContentItem
	env.courses.On("AppendContent", mock.Anything, "course-1", mock.AnythingOfType("models.ContentItem")).
		Run(func(args mock.Arguments) { appended = args.Get(2).(models.ContentItem) }).
		Return(ownedCourse(), nil)

	result, err := env.svc.AttachMedia(context.Background(), instructor, "course-1", MediaUpload{
		Kind:     models.MediaKindContent,
		Filename: "syllabus.pdf",
		Size:     int64(len(data)),
		Reader:   bytes.NewReader(data),
	})
	require.NoError(t, err)

	assert.Equal(t, "syllabus.pdf", appended.Title)
	assert.Equal(t, models.MediaKindContent, appended.Kind)
	assert.Equal(t, result.StorageRef, appended.StorageRef)
	assert.NotEmpty(t, appended.ID)
}

func TestAttachMedia_RejectedFile(t *testing.T) {
	env := newTestEnv()
	env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil)

	_, err := env.svc.AttachMedia(context.Background(), instructor, "course-1", MediaUpload{
		Kind:     models.MediaKindVideo,
		Filename: "movie.exe",
		Size:     10,
		Reader:   bytes.NewReader([]byte("MZ........")),
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Empty(t, env.objects.uploaded)
}

func TestAttachMedia_NotOwner(t *testing.T) {
	env := newTestEnv()
	env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil)

	_, err := env.svc.AttachMedia(context.Background(), student, "course-1", MediaUpload{
		Kind:     models.MediaKindThumbnail,
		Filename: "cover.png",
		Size:     int64(len(pngData)),
		Reader:   bytes.NewReader(pngData),
	})
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	assert.Empty(t, env.objects.uploaded)
}

func TestAttachMedia_StoreFailureRemovesObject(t *testing.T) {
	env := newTestEnv()
	data := pdfData()
	env.courses.On("GetByID", mock.Anything, "course-1").Return(ownedCourse(), nil)
	env.courses.On("AppendContent", mock.Anything, "course-1", mock.Anything).Return(nil, models.ErrNotFound)

	_, err := env.svc.AttachMedia(context.Background(), instructor, "course-1", MediaUpload{
		Kind:     models.MediaKindContent,
		Title:    "Syllabus",
		Filename: "syllabus.pdf",
		Size:     int64(len(data)),
		Reader:   bytes.NewReader(data),
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Len(t, env.objects.deleted, 1)
	assert.Empty(t, env.objects.uploaded)
}
