package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/atinyakov/TaskTracker/internal/apperr"
	"github.com/atinyakov/TaskTracker/internal/models"
	"github.com/atinyakov/TaskTracker/internal/notify"
	"github.com/atinyakov/TaskTracker/internal/repository/memory"
	"github.com/atinyakov/TaskTracker/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type sentNote struct {
	kind  notify.Kind
	email string
	name  string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []sentNote
}

func (r *recordingNotifier) Notify(kind notify.Kind, email, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, sentNote{kind, email, name})
}

type authFixture struct {
	svc      *AuthService
	store    *memory.Store
	issuer   *session.Issuer
	notifier *recordingNotifier
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	store := memory.New()
	issuer, err := session.NewIssuer(store, []byte("test-secret"))
	require.NoError(t, err)
	notifier := &recordingNotifier{}
	svc := NewAuthService(store, store, issuer, notifier, zap.NewNop(), WithHashCost(bcrypt.MinCost))
	return &authFixture{svc: svc, store: store, issuer: issuer, notifier: notifier}
}

func (f *authFixture) register(t *testing.T, name, email, password string) (*models.User, string) {
	t.Helper()
	u, tok, err := f.svc.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return u, tok
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	u, tok := f.register(t, " Mike ", " Mike@Meyers.com ", "brap555")
	assert.Equal(t, "Mike", u.Name)
	assert.Equal(t, "mike@meyers.com", u.Email)
	assert.NotEqual(t, "brap555", string(u.PasswordHash))
	require.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("brap555")))

	userID, err := f.issuer.Validate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)

	require.Len(t, f.notifier.notes, 1)
	assert.Equal(t, sentNote{notify.Welcome, "mike@meyers.com", "Mike"}, f.notifier.notes[0])
}

func TestRegister_Validation(t *testing.T) {
	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing name", RegisterInput{Name: " ", Email: "a@b.co", Password: "brap555"}, "name"},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "brap555"}, "email"},
		{"display-name email", RegisterInput{Name: "A", Email: "Bob <bob@b.co>", Password: "brap555"}, "email"},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "abc"}, "password"},
		{"password contains password", RegisterInput{Name: "A", Email: "a@b.co", Password: "myPassWord1"}, "password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuthFixture(t)
			_, _, err := f.svc.Register(context.Background(), tc.in)
			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
			assert.Empty(t, f.notifier.notes)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "Mike", "mike@meyers.com", "brap555")

	_, _, err := f.svc.Register(context.Background(), RegisterInput{Name: "Other", Email: "MIKE@meyers.com", Password: "foker555"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Len(t, f.notifier.notes, 1)
}

func TestAuthenticate_Indistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "Mike", "mike@meyers.com", "brap555")

	_, wrongPass := f.svc.Authenticate(ctx, "mike@meyers.com", "nope5555")
	_, wrongEmail := f.svc.Authenticate(ctx, "ghost@meyers.com", "brap555")

	require.ErrorIs(t, wrongPass, apperr.ErrInvalidCredentials)
	require.ErrorIs(t, wrongEmail, apperr.ErrInvalidCredentials)
	assert.Equal(t, wrongPass.Error(), wrongEmail.Error())

	u, err := f.svc.Authenticate(ctx, "MIKE@meyers.com", "brap555")
	require.NoError(t, err)
	assert.Equal(t, "Mike", u.Name)
}

func TestLoginLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, first := f.register(t, "Mike", "mike@meyers.com", "brap555")

	_, second, err := f.svc.Login(ctx, "mike@meyers.com", "brap555")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, u.ID, first))
	_, err = f.issuer.Validate(ctx, first)
	assert.ErrorIs(t, err, apperr.ErrRevokedToken)
	_, err = f.issuer.Validate(ctx, second)
	assert.NoError(t, err)

	require.NoError(t, f.svc.LogoutAll(ctx, u.ID))
	_, err = f.issuer.Validate(ctx, second)
	assert.ErrorIs(t, err, apperr.ErrRevokedToken)
}

func TestUpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, _ := f.register(t, "Mike", "mike@meyers.com", "brap555")
	f.register(t, "milos", "milos@milos.com", "foker555")

	name, pw := "Michael", "newsecret1"
	updated, err := f.svc.UpdateProfile(ctx, u.ID, models.UserPatch{Name: &name, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, "Michael", updated.Name)

	_, err = f.svc.Authenticate(ctx, "mike@meyers.com", "newsecret1")
	require.NoError(t, err)

	taken := "milos@milos.com"
	_, err = f.svc.UpdateProfile(ctx, u.ID, models.UserPatch{Email: &taken})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	weak := "password123"
	_, err = f.svc.UpdateProfile(ctx, u.ID, models.UserPatch{Password: &weak})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteAccount_Cascades(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, tok := f.register(t, "Mike", "mike@meyers.com", "brap555")
	other, _ := f.register(t, "milos", "milos@milos.com", "foker555")

	tasks := NewTaskService(f.store)
	mine, err := tasks.CreateTask(ctx, u.ID, models.NewTask{Description: "First task"})
	require.NoError(t, err)
	_, err = tasks.CreateTask(ctx, u.ID, models.NewTask{Description: "Second task"})
	require.NoError(t, err)
	theirs, err := tasks.CreateTask(ctx, other.ID, models.NewTask{Description: "Third task"})
	require.NoError(t, err)

	deleted, err := f.svc.DeleteAccount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, deleted.ID)

	left, err := tasks.ListTasks(ctx, u.ID, models.TaskQuery{})
	require.NoError(t, err)
	assert.Empty(t, left)
	_, err = tasks.GetTask(ctx, u.ID, mine.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = tasks.GetTask(ctx, other.ID, theirs.ID)
	assert.NoError(t, err)

	_, err = f.issuer.Validate(ctx, tok)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	last := f.notifier.notes[len(f.notifier.notes)-1]
	assert.Equal(t, sentNote{notify.Farewell, "mike@meyers.com", "Mike"}, last)
}

type failingTasks struct {
	TaskRepository
}

func (failingTasks) DeleteTasksByOwner(context.Context, string) (int64, error) {
	return 0, errors.New("db down")
}

func TestDeleteAccount_TaskCleanupFailureKeepsUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, _ := f.register(t, "Mike", "mike@meyers.com", "brap555")

	svc := NewAuthService(f.store, failingTasks{f.store}, f.issuer, f.notifier, zap.NewNop(), WithHashCost(bcrypt.MinCost))
	_, err := svc.DeleteAccount(ctx, u.ID)
	require.Error(t, err)

	_, err = f.svc.Profile(ctx, u.ID)
	assert.NoError(t, err)
	assert.Len(t, f.notifier.notes, 1, "no farewell on failure")
}
