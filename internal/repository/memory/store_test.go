package memory

import (
	"context"
	"testing"
	"time"

	"github.com/atinyakov/TaskTracker/internal/apperr"
	"github.com/atinyakov/TaskTracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "u1", Name: "Mike", Email: "mike@meyers.com"}))
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "u2", Name: "milos", Email: "milos@milos.com"}))
	require.NoError(t, s.CreateTask(ctx, &models.Task{ID: "t1", OwnerID: "u1", Description: "First task"}))
	require.NoError(t, s.CreateTask(ctx, &models.Task{ID: "t2", OwnerID: "u1", Description: "Second task", Completed: true}))
	require.NoError(t, s.CreateTask(ctx, &models.Task{ID: "t3", OwnerID: "u2", Description: "Third task", Completed: true}))
	return s
}

func ids(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestListTasks(t *testing.T) {
	yes, no := true, false
	cases := []struct {
		name  string
		owner string
		q     models.TaskQuery
		want  []string
	}{
		{"owner only", "u1", models.TaskQuery{}, []string{"t1", "t2"}},
		{"other owner", "u2", models.TaskQuery{}, []string{"t3"}},
		{"completed", "u1", models.TaskQuery{Completed: &yes}, []string{"t2"}},
		{"incomplete", "u1", models.TaskQuery{Completed: &no}, []string{"t1"}},
		{"completed desc", "u1", models.TaskQuery{Sort: &models.TaskSort{Field: models.SortByCompleted, Desc: true}}, []string{"t2", "t1"}},
		{"description desc", "u1", models.TaskQuery{Sort: &models.TaskSort{Field: models.SortByDescription, Desc: true}}, []string{"t2", "t1"}},
		{"createdAt desc", "u1", models.TaskQuery{Sort: &models.TaskSort{Field: models.SortByCreatedAt, Desc: true}}, []string{"t2", "t1"}},
		{"limit", "u1", models.TaskQuery{Limit: 1}, []string{"t1"}},
		{"offset", "u1", models.TaskQuery{Offset: 1}, []string{"t2"}},
		{"offset past end", "u1", models.TaskQuery{Offset: 5}, []string{}},
		{"unknown owner", "nobody", models.TaskQuery{}, []string{}},
	}

	s := seed(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.ListTasks(context.Background(), tc.owner, tc.q)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestOwnerScopedMutations(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	_, err := s.GetTask(ctx, "u2", "t1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	desc := "hijack"
	_, err = s.UpdateTask(ctx, "u2", "t1", models.TaskPatch{Description: &desc})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.DeleteTask(ctx, "u2", "t1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	task, err := s.GetTask(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "First task", task.Description)
}

func TestUpdateTaskStampsUpdatedAt(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	before, err := s.GetTask(ctx, "u1", "t1")
	require.NoError(t, err)

	done := true
	after, err := s.UpdateTask(ctx, "u1", "t1", models.TaskPatch{Completed: &done})
	require.NoError(t, err)
	assert.True(t, after.Completed)
	assert.Equal(t, "First task", after.Description)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestDeleteUserDropsTasksAndTokens(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.AddToken(ctx, "u1", "tok"))
	require.NoError(t, s.DeleteUser(ctx, "u1"))

	ok, err := s.HasToken(ctx, "u1", "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	tasks, err := s.ListTasks(ctx, "u1", models.TaskQuery{})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	others, err := s.ListTasks(ctx, "u2", models.TaskQuery{})
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestUserEmailConflicts(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := s.CreateUser(ctx, &models.User{ID: "u3", Email: "mike@meyers.com"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	u, err := s.GetUserByID(ctx, "u2")
	require.NoError(t, err)
	u.Email = "mike@meyers.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, u), apperr.ErrConflict)

	u.Email = "milos@new.com"
	require.NoError(t, s.UpdateUser(ctx, u))
	_, err = s.GetUserByEmail(ctx, "milos@milos.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	got, err := s.GetUserByEmail(ctx, "milos@new.com")
	require.NoError(t, err)
	assert.Equal(t, "u2", got.ID)
}

func TestTokens(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.AddToken(ctx, "u1", "a"))
	require.NoError(t, s.AddToken(ctx, "u1", "b"))
	require.NoError(t, s.RemoveToken(ctx, "u1", "a"))
	require.NoError(t, s.RemoveToken(ctx, "u1", "a"))

	ok, _ := s.HasToken(ctx, "u1", "a")
	assert.False(t, ok)
	ok, _ = s.HasToken(ctx, "u1", "b")
	assert.True(t, ok)

	require.NoError(t, s.RemoveAllTokens(ctx, "u1"))
	ok, _ = s.HasToken(ctx, "u1", "b")
	assert.False(t, ok)

	assert.ErrorIs(t, s.AddToken(ctx, "ghost", "x"), apperr.ErrNotFound)
}
