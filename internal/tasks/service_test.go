package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// ── fakes ────────────────────────────────────────────────────────────────────

type memStore struct {
	mu        sync.Mutex
	tasks     map[primitive.ObjectID]*domain.Task
	updateErr error
	countErr  error
	writes    int
}

func newMemStore() *memStore {
	return &memStore{tasks: make(map[primitive.ObjectID]*domain.Task)}
}

func (s *memStore) Insert(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	cp := *t
	s.tasks[t.ID] = &cp
	s.writes++
	return nil
}

func (s *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "Task", ID: id.Hex()}
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) Find(_ context.Context, f domain.TaskFilter) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Task
	for _, t := range s.tasks {
		if f.Project != nil && t.Project != *f.Project {
			continue
		}
		if f.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *f.AssignedTo) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memStore) Update(_ context.Context, id primitive.ObjectID, p domain.TaskPatch, now time.Time) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	t, ok := s.tasks[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "Task", ID: id.Hex()}
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Project != nil {
		t.Project = *p.Project
	}
	if p.AssignedTo != nil {
		a := *p.AssignedTo
		t.AssignedTo = &a
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.CompletedAt != nil {
		c := *p.CompletedAt
		t.CompletedAt = &c
	}
	if p.ClearCompletedAt {
		t.CompletedAt = nil
	}
	t.UpdatedAt = now
	s.writes++
	cp := *t
	return &cp, nil
}

func (s *memStore) Delete(_ context.Context, id primitive.ObjectID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "Task", ID: id.Hex()}
	}
	delete(s.tasks, id)
	s.writes++
	return t, nil
}

func (s *memStore) CountByProject(_ context.Context, projectID primitive.ObjectID) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, 0, s.countErr
	}
	var total, completed int64
	for _, t := range s.tasks {
		if t.Project != projectID {
			continue
		}
		total++
		if t.Status == domain.TaskCompleted {
			completed++
		}
	}
	return total, completed, nil
}

type fakeProjects struct {
	mu       sync.Mutex
	progress map[primitive.ObjectID]int
	calls    int
	err      error
}

func newFakeProjects(ids ...primitive.ObjectID) *fakeProjects {
	p := &fakeProjects{progress: make(map[primitive.ObjectID]int)}
	for _, id := range ids {
		p.progress[id] = 0
	}
	return p
}

func (p *fakeProjects) SetProgress(_ context.Context, id primitive.ObjectID, progress int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	if _, ok := p.progress[id]; !ok {
		return &domain.NotFoundError{Entity: "Project", ID: id.Hex()}
	}
	p.progress[id] = progress
	return nil
}

func (p *fakeProjects) get(id primitive.ObjectID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress[id]
}

type fakeDirectory struct {
	projects  map[primitive.ObjectID]*domain.ProjectRef
	employees map[primitive.ObjectID]*domain.EmployeeRef
	users     map[primitive.ObjectID]*domain.UserRef
}

func (d *fakeDirectory) Projects(_ context.Context, _ []primitive.ObjectID) (map[primitive.ObjectID]*domain.ProjectRef, error) {
	return d.projects, nil
}
func (d *fakeDirectory) Employees(_ context.Context, _ []primitive.ObjectID) (map[primitive.ObjectID]*domain.EmployeeRef, error) {
	return d.employees, nil
}
func (d *fakeDirectory) Users(_ context.Context, _ []primitive.ObjectID) (map[primitive.ObjectID]*domain.UserRef, error) {
	return d.users, nil
}

type fakeCache struct {
	items       map[string]*domain.Task
	invalidated []string
}

func (c *fakeCache) Get(_ context.Context, id string) (*domain.Task, error) {
	t, ok := c.items[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "Task", ID: id}
	}
	return t, nil
}
func (c *fakeCache) Set(_ context.Context, t *domain.Task) error {
	c.items[t.ID.Hex()] = t
	return nil
}
func (c *fakeCache) Invalidate(_ context.Context, id string) error {
	delete(c.items, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*domain.Activity
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, a *domain.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, a)
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

type fixture struct {
	svc       *Service
	store     *memStore
	projects  *fakeProjects
	dir       *fakeDirectory
	publisher *fakePublisher
	projectID primitive.ObjectID
	userID    primitive.ObjectID
	now       time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:     newMemStore(),
		projectID: primitive.NewObjectID(),
		userID:    primitive.NewObjectID(),
		publisher: &fakePublisher{},
		now:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.projects = newFakeProjects(f.projectID)
	f.dir = &fakeDirectory{
		projects: map[primitive.ObjectID]*domain.ProjectRef{
			f.projectID: {ID: f.projectID, Name: "Apollo", Status: domain.ProjectInProgress},
		},
		employees: map[primitive.ObjectID]*domain.EmployeeRef{},
		users: map[primitive.ObjectID]*domain.UserRef{
			f.userID: {ID: f.userID, Name: "Ada", Email: "ada@example.com"},
		},
	}
	rollup := NewRollup(f.store, f.projects, nil, discardLogger)
	base := []Option{
		WithLogger(discardLogger),
		WithPublisher(f.publisher),
		WithClock(func() time.Time { return f.now }),
	}
	f.svc = NewService(f.store, f.dir, rollup, append(base, opts...)...)
	return f
}

func (f *fixture) createTask(t *testing.T, title string) primitive.ObjectID {
	t.Helper()
	v, err := f.svc.Create(context.Background(), domain.NewTask{Title: title, Project: f.projectID}, f.userID, Basic)
	require.NoError(t, err)
	return v.ID
}

func status(s domain.TaskStatus) *domain.TaskStatus { return &s }

// ── tests ─────────────────────────────────────────────────────────────────────

func TestService_Create_DefaultsAndNoRollup(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.Create(context.Background(), domain.NewTask{Title: "  Draft plan ", Project: f.projectID}, f.userID, Basic)
	require.NoError(t, err)

	assert.Equal(t, "Draft plan", v.Title)
	assert.Equal(t, domain.TaskPending, v.Status)
	assert.Equal(t, domain.PriorityMedium, v.Priority)
	assert.Nil(t, v.CompletedAt)
	require.NotNil(t, v.Project)
	assert.Equal(t, "Apollo", v.Project.Name)
	require.NotNil(t, v.CreatedBy)
	assert.Equal(t, f.userID, v.CreatedBy.ID)
	assert.Equal(t, 0, f.projects.calls, "create must not trigger a rollup")
}

func TestService_Create_MissingProject_NothingPersisted(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), domain.NewTask{Title: "orphan"}, f.userID, Basic)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, "Task must be associated with a project", err.Error())
	assert.Zero(t, f.store.writes)
}

func TestService_SetStatus_CompletedStampsAndRollsUp(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t, "only")

	v, err := f.svc.SetStatus(context.Background(), id, domain.TaskCompleted, Basic)
	require.NoError(t, err)

	assert.Equal(t, domain.TaskCompleted, v.Status)
	require.NotNil(t, v.CompletedAt)
	assert.True(t, v.CompletedAt.Equal(f.now))
	assert.Equal(t, 100, f.projects.get(f.projectID))

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, domain.ActivityTaskCompleted, f.publisher.published[0].Type)
	assert.Equal(t, id.Hex(), f.publisher.published[0].RelatedTo.ID)
}

func TestService_SetStatus_FourTaskScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := []primitive.ObjectID{
		f.createTask(t, "a"), f.createTask(t, "b"), f.createTask(t, "c"), f.createTask(t, "d"),
	}

	_, err := f.svc.SetStatus(ctx, ids[0], domain.TaskCompleted, Basic)
	require.NoError(t, err)
	assert.Equal(t, 25, f.projects.get(f.projectID))

	_, err = f.svc.SetStatus(ctx, ids[1], domain.TaskCompleted, Basic)
	require.NoError(t, err)
	assert.Equal(t, 50, f.projects.get(f.projectID))

	// Re-opening does not recompute; progress stays stale until the next completion.
	v, err := f.svc.SetStatus(ctx, ids[0], domain.TaskInProgress, Basic)
	require.NoError(t, err)
	assert.Equal(t, 50, f.projects.get(f.projectID))
	assert.Nil(t, v.CompletedAt, "completedAt cleared on reopen")
}

func TestService_SetStatus_NonCompletedLeavesProgress(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t, "a")
	f.projects.progress[f.projectID] = 42

	for _, st := range []domain.TaskStatus{domain.TaskInProgress, domain.TaskOnHold, domain.TaskPending} {
		_, err := f.svc.SetStatus(context.Background(), id, st, Basic)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, f.projects.calls)
	assert.Equal(t, 42, f.projects.get(f.projectID))
	assert.Empty(t, f.publisher.published)
}

func TestService_SetStatus_KeepOnReopen(t *testing.T) {
	f := newFixture(t, WithCompletedAtPolicy(KeepOnReopen))
	ctx := context.Background()
	id := f.createTask(t, "a")

	_, err := f.svc.SetStatus(ctx, id, domain.TaskCompleted, Basic)
	require.NoError(t, err)
	v, err := f.svc.SetStatus(ctx, id, domain.TaskPending, Basic)
	require.NoError(t, err)

	require.NotNil(t, v.CompletedAt)
	assert.True(t, v.CompletedAt.Equal(f.now))
}

func TestService_SetStatus_Validation(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t, "a")

	_, err := f.svc.SetStatus(context.Background(), id, "", Basic)
	require.Error(t, err)
	assert.Equal(t, "Please provide a status", err.Error())

	_, err = f.svc.SetStatus(context.Background(), id, "done", Basic)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestService_SetStatus_UnknownTask_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetStatus(context.Background(), primitive.NewObjectID(), domain.TaskCompleted, Basic)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.Equal(t, "Task not found", err.Error())
	assert.Equal(t, 0, f.projects.calls)
}

func TestService_SetStatus_RollupFailureNotRolledBack(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t, "a")
	f.projects.err = errors.New("mongo unavailable")

	_, err := f.svc.SetStatus(context.Background(), id, domain.TaskCompleted, Basic)
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))

	stored, err := f.store.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, stored.Status, "task write stays committed")
}

func TestService_SetStatus_MissingProjectSkipsRollup(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t, "a")
	delete(f.projects.progress, f.projectID)

	_, err := f.svc.SetStatus(context.Background(), id, domain.TaskCompleted, Basic)
	require.NoError(t, err)
}

func TestService_Update_CompletedTriggersRollup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createTask(t, "a")
	f.createTask(t, "b")

	title := "renamed"
	v, err := f.svc.Update(ctx, id, domain.TaskPatch{Title: &title, Status: status(domain.TaskCompleted)}, Basic)
	require.NoError(t, err)

	assert.Equal(t, "renamed", v.Title)
	require.NotNil(t, v.CompletedAt)
	assert.Equal(t, 50, f.projects.get(f.projectID))
}

func TestService_Update_MoveCompletedTaskRecomputesBothProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := primitive.NewObjectID()
	f.projects.progress[other] = 0

	id := f.createTask(t, "a")
	f.createTask(t, "b")
	_, err := f.svc.SetStatus(ctx, id, domain.TaskCompleted, Basic)
	require.NoError(t, err)
	require.Equal(t, 50, f.projects.get(f.projectID))

	_, err = f.svc.Update(ctx, id, domain.TaskPatch{Project: &other}, Basic)
	require.NoError(t, err)
	assert.Equal(t, 0, f.projects.get(f.projectID), "old project lost its completed task")
	assert.Equal(t, 100, f.projects.get(other))
}

func TestService_Update_MovePendingTaskNoRollup(t *testing.T) {
	f := newFixture(t)
	other := primitive.NewObjectID()
	f.projects.progress[other] = 0
	id := f.createTask(t, "a")
	calls := f.projects.calls

	_, err := f.svc.Update(context.Background(), id, domain.TaskPatch{Project: &other}, Basic)
	require.NoError(t, err)
	assert.Equal(t, calls, f.projects.calls)
}

func TestService_Update_MoveUnknownTask(t *testing.T) {
	f := newFixture(t)
	other := primitive.NewObjectID()
	_, err := f.svc.Update(context.Background(), primitive.NewObjectID(), domain.TaskPatch{Project: &other}, Basic)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestService_Update_ExplicitCompletedAtKept(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t, "a")
	when := f.now.Add(-48 * time.Hour)

	v, err := f.svc.Update(context.Background(), id, domain.TaskPatch{
		Status:      status(domain.TaskCompleted),
		CompletedAt: &when,
	}, Basic)
	require.NoError(t, err)
	require.NotNil(t, v.CompletedAt)
	assert.True(t, v.CompletedAt.Equal(when))
}

func TestService_Update_WithoutStatusNoRollup(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t, "a")
	prio := domain.PriorityUrgent

	v, err := f.svc.Update(context.Background(), id, domain.TaskPatch{Priority: &prio}, Basic)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityUrgent, v.Priority)
	assert.Equal(t, 0, f.projects.calls)
}

func TestService_Update_InvalidPatch(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t, "a")
	empty := "   "

	_, err := f.svc.Update(context.Background(), id, domain.TaskPatch{Title: &empty}, Basic)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestService_Delete_NoRollup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createTask(t, "a")
	f.createTask(t, "b")

	_, err := f.svc.SetStatus(ctx, a, domain.TaskCompleted, Basic)
	require.NoError(t, err)
	require.Equal(t, 50, f.projects.get(f.projectID))
	calls := f.projects.calls

	_, err = f.svc.Delete(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, calls, f.projects.calls)
	assert.Equal(t, 50, f.projects.get(f.projectID))

	_, err = f.svc.Get(ctx, a, Basic)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestService_Assign(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t, "a")
	emp := primitive.NewObjectID()
	f.dir.employees[emp] = &domain.EmployeeRef{ID: emp, FirstName: "Grace", LastName: "Hopper"}

	v, err := f.svc.Assign(context.Background(), id, emp, Basic)
	require.NoError(t, err)
	require.NotNil(t, v.AssignedTo)
	assert.Equal(t, "Grace", v.AssignedTo.FirstName)
	assert.Equal(t, 0, f.projects.calls)

	_, err = f.svc.Assign(context.Background(), id, primitive.NilObjectID, Basic)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestService_Projection(t *testing.T) {
	f := newFixture(t)
	id := f.createTask(t, "a")

	basic, err := f.svc.Get(context.Background(), id, Basic)
	require.NoError(t, err)
	assert.Empty(t, basic.Project.Status)
	assert.Empty(t, basic.CreatedBy.Email)

	ext, err := f.svc.Get(context.Background(), id, ParseProjection("extended"))
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectInProgress, ext.Project.Status)
	assert.Equal(t, "ada@example.com", ext.CreatedBy.Email)
}

func TestService_List_Filter(t *testing.T) {
	f := newFixture(t)
	f.createTask(t, "a")
	f.createTask(t, "b")
	other := primitive.NewObjectID()

	got, err := f.svc.List(context.Background(), domain.TaskFilter{Project: &f.projectID}, Basic)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.svc.List(context.Background(), domain.TaskFilter{Project: &other}, Basic)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_Cache_ReadThroughAndInvalidate(t *testing.T) {
	cache := &fakeCache{items: map[string]*domain.Task{}}
	f := newFixture(t, WithCache(cache))
	ctx := context.Background()
	id := f.createTask(t, "a")

	_, err := f.svc.Get(ctx, id, Basic)
	require.NoError(t, err)
	assert.Contains(t, cache.items, id.Hex(), "get populates cache")

	_, err = f.svc.SetStatus(ctx, id, domain.TaskOnHold, Basic)
	require.NoError(t, err)
	assert.NotContains(t, cache.items, id.Hex())
	assert.Contains(t, cache.invalidated, id.Hex())
}

func TestService_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("kafka down")
	id := f.createTask(t, "a")

	_, err := f.svc.SetStatus(context.Background(), id, domain.TaskCompleted, Basic)
	require.NoError(t, err)
	assert.Equal(t, 100, f.projects.get(f.projectID))
}

func TestService_ConcurrentCompletionsConverge(t *testing.T) {
	f := newFixture(t)
	const n = 20
	ids := make([]primitive.ObjectID, n)
	for i := range ids {
		ids[i] = f.createTask(t, "t")
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id primitive.ObjectID) {
			defer wg.Done()
			_, err := f.svc.SetStatus(context.Background(), id, domain.TaskCompleted, Basic)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 100, f.projects.get(f.projectID))
}

func TestParseCompletedAtPolicy(t *testing.T) {
	assert.Equal(t, KeepOnReopen, ParseCompletedAtPolicy("keep"))
	assert.Equal(t, ClearOnReopen, ParseCompletedAtPolicy("clear"))
	assert.Equal(t, ClearOnReopen, ParseCompletedAtPolicy(""))
}
