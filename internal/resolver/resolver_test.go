package resolver

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskpilot/internal/intent"
	"taskpilot/internal/task"
)

// fakeStore scripts store responses and records every mutation.
type fakeStore struct {
	pending     []task.Task
	byName      map[string]*task.Task
	byNumber    map[int]*task.Task
	byID        map[string]*task.Task
	updates     []recordedUpdate
	archived    []string
	createDraft *task.Draft
	createOut   *task.Task
}

type recordedUpdate struct {
	id     string
	fields task.Fields
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byName:   map[string]*task.Task{},
		byNumber: map[int]*task.Task{},
		byID:     map[string]*task.Task{},
	}
}

func (s *fakeStore) ListPending(ctx context.Context) ([]task.Task, error) {
	return s.pending, nil
}

func (s *fakeStore) FindByName(ctx context.Context, name string) (*task.Task, error) {
	return s.byName[name], nil
}

func (s *fakeStore) FindByNumericID(ctx context.Context, n int) (*task.Task, error) {
	return s.byNumber[n], nil
}

func (s *fakeStore) FetchByID(ctx context.Context, id string) (*task.Task, error) {
	return s.byID[id], nil
}

func (s *fakeStore) Create(ctx context.Context, draft task.Draft) (*task.Task, error) {
	s.createDraft = &draft
	if s.createOut != nil {
		return s.createOut, nil
	}
	return &task.Task{ID: "created", Title: draft.Title, Status: draft.Status, Priority: draft.Priority, DueDate: draft.DueDate}, nil
}

func (s *fakeStore) Update(ctx context.Context, id string, fields task.Fields) (*task.Task, error) {
	s.updates = append(s.updates, recordedUpdate{id: id, fields: fields})
	t := s.byID[id]
	if t == nil {
		t = &task.Task{ID: id}
	}
	out := *t
	if fields.Title != nil {
		out.Title = *fields.Title
	}
	if fields.Status != nil {
		out.Status = *fields.Status
	}
	if fields.Priority != nil {
		out.Priority = *fields.Priority
	}
	if fields.DueDate != nil {
		out.DueDate = fields.DueDate
	}
	if fields.ClearDueDate {
		out.DueDate = nil
	}
	return &out, nil
}

func (s *fakeStore) Archive(ctx context.Context, id string) error {
	s.archived = append(s.archived, id)
	return nil
}

func mustDate(t *testing.T, s string) task.Date {
	t.Helper()
	d, err := task.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestCreate_DefaultsFilled(t *testing.T) {
	store := newFakeStore()
	r := New(store, zap.NewNop())

	created, err := r.Create(context.Background(), &intent.Command{Intent: intent.IntentCreate})
	require.NoError(t, err)
	assert.Equal(t, task.DefaultTitle, created.Title)
	assert.Equal(t, task.StatusPending, created.Status)
	assert.Equal(t, task.PriorityMedium, created.Priority)

	require.NotNil(t, store.createDraft)
	assert.Equal(t, task.DefaultTitle, store.createDraft.Title)
}

func TestCreate_ExplicitFields(t *testing.T) {
	store := newFakeStore()
	r := New(store, zap.NewNop())

	title := "buy milk"
	priority := task.PriorityHigh
	due := mustDate(t, "2026-02-20")
	cmd := &intent.Command{
		Intent: intent.IntentCreate,
		Fields: task.Fields{Title: &title, Priority: &priority, DueDate: &due},
	}

	created, err := r.Create(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", created.Title)
	assert.Equal(t, task.PriorityHigh, created.Priority)
	require.NotNil(t, created.DueDate)
	assert.Equal(t, "2026-02-20", created.DueDate.String())
	// Status was not mentioned: defaulted, not absent.
	assert.Equal(t, task.StatusPending, created.Status)
}

func TestUpdate_ByName(t *testing.T) {
	store := newFakeStore()
	existing := &task.Task{ID: "p1", Title: "buy milk", Status: task.StatusPending}
	store.byName["buy milk"] = existing
	store.byID["p1"] = existing
	r := New(store, zap.NewNop())

	status := task.StatusDone
	cmd := &intent.Command{
		Intent:     intent.IntentUpdate,
		TargetName: "buy milk",
		Fields:     task.Fields{Status: &status},
	}

	updated, err := r.Update(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, updated.Status)

	require.Len(t, store.updates, 1)
	assert.Equal(t, "p1", store.updates[0].id)
	want := task.Fields{Status: &status}
	if diff := cmp.Diff(want, store.updates[0].fields, cmp.AllowUnexported(task.Date{})); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate_EmptyFieldsNoStoreCall(t *testing.T) {
	store := newFakeStore()
	store.byName["buy milk"] = &task.Task{ID: "p1"}
	r := New(store, zap.NewNop())

	cmd := &intent.Command{Intent: intent.IntentUpdate, TargetName: "buy milk"}
	_, err := r.Update(context.Background(), cmd)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "No updates detected.", ve.Message)
	assert.Empty(t, store.updates, "no store mutation on empty update")
}

func TestUpdate_DescriptionNotAnUpdateField(t *testing.T) {
	store := newFakeStore()
	store.byName["buy milk"] = &task.Task{ID: "p1"}
	r := New(store, zap.NewNop())

	desc := "some note"
	cmd := &intent.Command{
		Intent:     intent.IntentUpdate,
		TargetName: "buy milk",
		Fields:     task.Fields{Description: &desc},
	}

	_, err := r.Update(context.Background(), cmd)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, store.updates)
}

func TestUpdate_NumericIDMissIsTerminal(t *testing.T) {
	store := newFakeStore()
	// A task exists under the same name; numeric-ID resolution must not
	// fall back to it.
	store.byName["42"] = &task.Task{ID: "p-name"}
	r := New(store, zap.NewNop())

	n := 42
	status := task.StatusDone
	cmd := &intent.Command{
		Intent:          intent.IntentUpdate,
		TargetNumericID: &n,
		TargetName:      "42",
		Fields:          task.Fields{Status: &status},
	}

	_, err := r.Update(context.Background(), cmd)
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Could not find task with ID 42.", re.Message)
	assert.Empty(t, store.updates)
}

func TestUpdate_MissingTargetReference(t *testing.T) {
	store := newFakeStore()
	r := New(store, zap.NewNop())

	status := task.StatusDone
	cmd := &intent.Command{Intent: intent.IntentUpdate, Fields: task.Fields{Status: &status}}

	_, err := r.Update(context.Background(), cmd)
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "I need a task name or ID.", re.Message)
}

func TestDelete_ArchivesResolvedTask(t *testing.T) {
	store := newFakeStore()
	n := 7
	store.byNumber[7] = &task.Task{ID: "p7", Title: "pay rent"}
	r := New(store, zap.NewNop())

	cmd := &intent.Command{Intent: intent.IntentDelete, TargetNumericID: &n}
	deleted, err := r.Delete(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "p7", deleted.ID)
	assert.Equal(t, []string{"p7"}, store.archived)
}

func TestDelete_NameMiss(t *testing.T) {
	store := newFakeStore()
	r := New(store, zap.NewNop())

	cmd := &intent.Command{Intent: intent.IntentDelete, TargetName: "ghost"}
	_, err := r.Delete(context.Background(), cmd)

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, `Could not find task matching "ghost".`, re.Message)
	assert.Empty(t, store.archived)
}

func TestSnooze(t *testing.T) {
	t.Run("no due date lands on tomorrow", func(t *testing.T) {
		store := newFakeStore()
		store.byID["p1"] = &task.Task{ID: "p1", Title: "buy milk"}
		r := New(store, zap.NewNop())

		updated, err := r.Snooze(context.Background(), "p1", mustDate(t, "2026-02-19"))
		require.NoError(t, err)
		require.NotNil(t, updated.DueDate)
		assert.Equal(t, "2026-02-20", updated.DueDate.String())
	})

	t.Run("existing due date moves one day regardless of weekday", func(t *testing.T) {
		store := newFakeStore()
		due := mustDate(t, "2026-02-21") // a Saturday
		store.byID["p1"] = &task.Task{ID: "p1", DueDate: &due}
		r := New(store, zap.NewNop())

		updated, err := r.Snooze(context.Background(), "p1", mustDate(t, "2026-02-19"))
		require.NoError(t, err)
		require.NotNil(t, updated.DueDate)
		assert.Equal(t, "2026-02-22", updated.DueDate.String())
	})

	t.Run("vanished task is nil not error", func(t *testing.T) {
		store := newFakeStore()
		r := New(store, zap.NewNop())

		updated, err := r.Snooze(context.Background(), "gone", mustDate(t, "2026-02-19"))
		require.NoError(t, err)
		assert.Nil(t, updated)
		assert.Empty(t, store.updates)
	})
}

func TestSetStatusAndPriority(t *testing.T) {
	store := newFakeStore()
	store.byID["p1"] = &task.Task{ID: "p1"}
	r := New(store, zap.NewNop())

	updated, err := r.SetStatus(context.Background(), "p1", task.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, updated.Status)

	updated, err = r.SetPriority(context.Background(), "p1", task.PriorityLow)
	require.NoError(t, err)
	assert.Equal(t, task.PriorityLow, updated.Priority)

	updated, err = r.MarkDone(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, updated.Status)

	require.Len(t, store.updates, 3)
	// Each helper patches exactly one field.
	for _, u := range store.updates {
		count := 0
		if u.fields.Status != nil {
			count++
		}
		if u.fields.Priority != nil {
			count++
		}
		assert.Equal(t, 1, count)
	}
}
