package enrollment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/mocks"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// memStore keeps courses and enrollments in memory and enforces the
// (user, course) uniqueness the database provides
type memStore struct {
	models.CourseStore

	mu          sync.Mutex
	seq         int
	users       map[string]*models.User
	courses     map[string]*models.Course
	enrollments map[string]*models.Enrollment
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*models.User),
		courses:     make(map[string]*models.Course),
		enrollments: make(map[string]*models.Enrollment),
	}
}

func (m *memStore) addUser(id, name string, role models.Role) models.Actor {
	m.users[id] = &models.User{ID: id, Name: name, Role: role}
	return models.Actor{ID: id, Role: role}
}

func (m *memStore) addCourse(id, title, instructorID string) {
	m.courses[id] = &models.Course{ID: id, Title: title, InstructorID: instructorID}
}

func (m *memStore) GetByID(_ context.Context, id string) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListByInstructor(_ context.Context, instructorID string) ([]*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Course
	for _, c := range m.courses {
		if c.InstructorID == instructorID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// enrollmentStore exposes the enrollment side of memStore
type enrollmentStore struct{ *memStore }

func (e enrollmentStore) Create(_ context.Context, en *models.Enrollment) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.courses[en.CourseID]; !ok {
		return models.ErrNotFound
	}
	for _, existing := range e.enrollments {
		if existing.UserID == en.UserID && existing.CourseID == en.CourseID {
			return fmt.Errorf("create enrollment: %w", models.ErrConflict)
		}
	}
	e.seq++
	en.ID = fmt.Sprintf("enrollment-%d", e.seq)
	en.CreatedAt = time.Unix(int64(e.seq), 0)
	en.UpdatedAt = en.CreatedAt
	cp := *en
	e.enrollments[en.ID] = &cp
	return nil
}

func (e enrollmentStore) GetByID(_ context.Context, id string) (*models.Enrollment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	en, ok := e.enrollments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *en
	return &cp, nil
}

func (e enrollmentStore) GetByUserAndCourse(_ context.Context, userID, courseID string) (*models.Enrollment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, en := range e.enrollments {
		if en.UserID == userID && en.CourseID == courseID {
			cp := *en
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (e enrollmentStore) ListByUser(_ context.Context, userID string) ([]*models.EnrollmentWithCourse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*models.EnrollmentWithCourse
	for _, en := range e.enrollments {
		if en.UserID != userID {
			continue
		}
		c := e.courses[en.CourseID]
		out = append(out, &models.EnrollmentWithCourse{
			Enrollment: *en,
			Course:     models.CourseSummary{ID: c.ID, Title: c.Title, InstructorID: c.InstructorID},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (e enrollmentStore) ListRosterByInstructor(_ context.Context, instructorID string) ([]*models.RosterEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*models.RosterEntry
	for _, en := range e.enrollments {
		if e.courses[en.CourseID].InstructorID != instructorID {
			continue
		}
		u := e.users[en.UserID]
		out = append(out, &models.RosterEntry{
			EnrollmentID:  en.ID,
			CourseID:      en.CourseID,
			Student:       models.UserSummary{ID: u.ID, Name: u.Name},
			Progress:      en.Progress,
			PaymentStatus: en.PaymentStatus,
			EnrolledAt:    en.CreatedAt,
		})
	}
	return out, nil
}

func (e enrollmentStore) UpdateProgress(_ context.Context, id string, progress int) (*models.Enrollment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	en, ok := e.enrollments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	en.Progress = progress
	cp := *en
	return &cp, nil
}

func (e enrollmentStore) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.enrollments[id]; !ok {
		return models.ErrNotFound
	}
	delete(e.enrollments, id)
	return nil
}

func (e enrollmentStore) UpsertPaid(context.Context, string, string) (*models.Enrollment, error) {
	panic("not used by the enrollment service")
}

func newMemService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(enrollmentStore{store}, store, logging.NewNopLogger()), store
}

func TestEnroll(t *testing.T) {
	svc, store := newMemService()
	instructor := store.addUser("i", "Ida", models.RoleInstructor)
	student := store.addUser("s", "Sam", models.RoleStudent)
	store.addCourse("c", "Go", instructor.ID)

	enrollment, err := svc.Enroll(context.Background(), student, "c")
	require.NoError(t, err)

	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, student.ID, enrollment.UserID)
	assert.Equal(t, "c", enrollment.CourseID)
	assert.Equal(t, 0, enrollment.Progress)
	assert.Equal(t, models.PaymentStatusPaid, enrollment.PaymentStatus)

	_, err = svc.Enroll(context.Background(), student, "c")
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestEnroll_Rejections(t *testing.T) {
	svc, store := newMemService()
	instructor := store.addUser("i", "Ida", models.RoleInstructor)
	admin := store.addUser("a", "Ann", models.RoleAdmin)
	student := store.addUser("s", "Sam", models.RoleStudent)
	store.addCourse("c", "Go", instructor.ID)

	_, err := svc.Enroll(context.Background(), instructor, "c")
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	_, err = svc.Enroll(context.Background(), admin, "c")
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	_, err = svc.Enroll(context.Background(), models.Actor{}, "c")
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	_, err = svc.Enroll(context.Background(), student, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEnroll_ConcurrentAttemptsCreateOne(t *testing.T) {
	svc, store := newMemService()
	instructor := store.addUser("i", "Ida", models.RoleInstructor)
	student := store.addUser("s", "Sam", models.RoleStudent)
	store.addCourse("c", "Go", instructor.ID)

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Enroll(context.Background(), student, "c")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case models.ErrorKind(err) == "conflict":
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	list, err := svc.ListForUser(context.Background(), student)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListForUser_InsertionOrder(t *testing.T) {
	svc, store := newMemService()
	instructor := store.addUser("i", "Ida", models.RoleInstructor)
	student := store.addUser("s", "Sam", models.RoleStudent)
	other := store.addUser("o", "Olive", models.RoleStudent)
	store.addCourse("c1", "First", instructor.ID)
	store.addCourse("c2", "Second", instructor.ID)

	_, err := svc.Enroll(context.Background(), student, "c2")
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), other, "c1")
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), student, "c1")
	require.NoError(t, err)

	list, err := svc.ListForUser(context.Background(), student)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].Course.Title)
	assert.Equal(t, "First", list[1].Course.Title)

	empty, err := svc.ListForUser(context.Background(), instructor)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestListForInstructor_NoCourses(t *testing.T) {
	svc, store := newMemService()
	instructor := store.addUser("i", "Ida", models.RoleInstructor)

	rosters, err := svc.ListForInstructor(context.Background(), instructor)
	require.NoError(t, err)
	assert.NotNil(t, rosters)
	assert.Empty(t, rosters)
}

func TestListForInstructor_Student(t *testing.T) {
	svc, store := newMemService()
	student := store.addUser("s", "Sam", models.RoleStudent)

	_, err := svc.ListForInstructor(context.Background(), student)
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
}

func TestListForInstructor_OnlyOwnCourses(t *testing.T) {
	svc, store := newMemService()
	ida := store.addUser("i", "Ida", models.RoleInstructor)
	ivan := store.addUser("v", "Ivan", models.RoleInstructor)
	student := store.addUser("s", "Sam", models.RoleStudent)
	store.addCourse("c1", "Ida's", ida.ID)
	store.addCourse("c2", "Ivan's", ivan.ID)
	store.addCourse("c3", "Ida's empty", ida.ID)

	_, err := svc.Enroll(context.Background(), student, "c1")
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), student, "c2")
	require.NoError(t, err)

	rosters, err := svc.ListForInstructor(context.Background(), ida)
	require.NoError(t, err)

	require.Len(t, rosters, 2)
	assert.Equal(t, 1, rosters["c1"].TotalStudents)
	assert.Equal(t, 0, rosters["c3"].TotalStudents)
	assert.NotNil(t, rosters["c3"].Students)
	assert.NotContains(t, rosters, "c2")
}

// Instructor I owns C1 and C2; student A enrolls in C1, student B in C2.
func TestScenario_InstructorRoster(t *testing.T) {
	svc, store := newMemService()
	instructor := store.addUser("I", "Ida", models.RoleInstructor)
	a := store.addUser("A", "Alice", models.RoleStudent)
	b := store.addUser("B", "Bob", models.RoleStudent)
	store.addCourse("C1", "Course One", instructor.ID)
	store.addCourse("C2", "Course Two", instructor.ID)

	_, err := svc.Enroll(context.Background(), a, "C1")
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), b, "C2")
	require.NoError(t, err)

	rosters, err := svc.ListForInstructor(context.Background(), instructor)
	require.NoError(t, err)
	require.Len(t, rosters, 2)

	require.Equal(t, 1, rosters["C1"].TotalStudents)
	require.Len(t, rosters["C1"].Students, 1)
	assert.Equal(t, "A", rosters["C1"].Students[0].Student.ID)
	assert.Equal(t, "Course One", rosters["C1"].Title)

	require.Equal(t, 1, rosters["C2"].TotalStudents)
	require.Len(t, rosters["C2"].Students, 1)
	assert.Equal(t, "B", rosters["C2"].Students[0].Student.ID)
}

// Student S enrolls directly in C, updates progress past the maximum, then
// unenrolls twice.
func TestScenario_StudentLifecycle(t *testing.T) {
	svc, store := newMemService()
	instructor := store.addUser("I", "Ida", models.RoleInstructor)
	s := store.addUser("S", "Sam", models.RoleStudent)
	store.addCourse("C", "Course", instructor.ID)

	enrollment, err := svc.Enroll(context.Background(), s, "C")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, enrollment.PaymentStatus)

	updated, err := svc.UpdateProgress(context.Background(), s, enrollment.ID, 150)
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Progress)

	require.NoError(t, svc.Unenroll(context.Background(), s, enrollment.ID))

	err = svc.Unenroll(context.Background(), s, enrollment.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateProgress_Clamped(t *testing.T) {
	svc, store := newMemService()
	instructor := store.addUser("i", "Ida", models.RoleInstructor)
	student := store.addUser("s", "Sam", models.RoleStudent)
	store.addCourse("c", "Go", instructor.ID)

	enrollment, err := svc.Enroll(context.Background(), student, "c")
	require.NoError(t, err)

	for _, tc := range []struct{ in, want int }{{-20, 0}, {0, 0}, {42, 42}, {100, 100}, {1000, 100}} {
		updated, err := svc.UpdateProgress(context.Background(), student, enrollment.ID, tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, updated.Progress, "progress %d", tc.in)
	}
}

func TestUpdateProgress_Ownership(t *testing.T) {
	svc, store := newMemService()
	instructor := store.addUser("i", "Ida", models.RoleInstructor)
	owner := store.addUser("s", "Sam", models.RoleStudent)
	other := store.addUser("o", "Olive", models.RoleStudent)
	admin := store.addUser("a", "Ann", models.RoleAdmin)
	store.addCourse("c", "Go", instructor.ID)

	enrollment, err := svc.Enroll(context.Background(), owner, "c")
	require.NoError(t, err)

	_, err = svc.UpdateProgress(context.Background(), other, enrollment.ID, 50)
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	_, err = svc.UpdateProgress(context.Background(), instructor, enrollment.ID, 50)
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	updated, err := svc.UpdateProgress(context.Background(), admin, enrollment.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Progress)

	_, err = svc.UpdateProgress(context.Background(), owner, "missing", 50)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUnenroll_Ownership(t *testing.T) {
	svc, store := newMemService()
	instructor := store.addUser("i", "Ida", models.RoleInstructor)
	owner := store.addUser("s", "Sam", models.RoleStudent)
	other := store.addUser("o", "Olive", models.RoleStudent)
	store.addCourse("c", "Go", instructor.ID)

	enrollment, err := svc.Enroll(context.Background(), owner, "c")
	require.NoError(t, err)

	err = svc.Unenroll(context.Background(), other, enrollment.ID)
	assert.ErrorIs(t, err, models.ErrPermissionDenied)

	assert.Contains(t, store.enrollments, enrollment.ID)
}

func TestEnroll_StoreFailureIsInternal(t *testing.T) {
	enrollments := &mocks.EnrollmentStore{}
	courses := &mocks.CourseStore{}
	svc := NewService(enrollments, courses, logging.NewNopLogger())

	courses.On("GetByID", mock.Anything, "c").Return(&models.Course{ID: "c"}, nil)
	enrollments.On("Create", mock.Anything, mock.Anything).Return(fmt.Errorf("create enrollment: connection refused"))

	_, err := svc.Enroll(context.Background(), models.Actor{ID: "s", Role: models.RoleStudent}, "c")
	require.Error(t, err)
	assert.Equal(t, "internal", models.ErrorKind(err))
}

func TestListForInstructor_RosterFailure(t *testing.T) {
	enrollments := &mocks.EnrollmentStore{}
	courses := &mocks.CourseStore{}
	svc := NewService(enrollments, courses, logging.NewNopLogger())

	actor := models.Actor{ID: "i", Role: models.RoleInstructor}
	courses.On("ListByInstructor", mock.Anything, "i").Return([]*models.Course{{ID: "c"}}, nil)
	enrollments.On("ListRosterByInstructor", mock.Anything, "i").Return(nil, fmt.Errorf("timeout"))

	_, err := svc.ListForInstructor(context.Background(), actor)
	assert.Error(t, err)
}
