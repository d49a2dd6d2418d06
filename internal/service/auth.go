package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/atinyakov/TaskTracker/internal/apperr"
	"github.com/atinyakov/TaskTracker/internal/models"
	"github.com/atinyakov/TaskTracker/internal/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 7
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLen = 72
)

// UserRepository defines the persistence operations for user records.
type UserRepository interface {
	// CreateUser inserts u; a duplicate email yields apperr.ErrConflict.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUserByID returns the user or apperr.ErrNotFound.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUserByEmail returns the user or apperr.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateUser overwrites the profile fields of u.
	UpdateUser(ctx context.Context, u *models.User) error
	// DeleteUser removes the user together with its session tokens.
	DeleteUser(ctx context.Context, id string) error
}

// Sessions issues and revokes bearer tokens.
type Sessions interface {
	Issue(ctx context.Context, userID string) (string, error)
	Revoke(ctx context.Context, userID, token string) error
	RevokeAll(ctx context.Context, userID string) error
}

// Notifier schedules lifecycle emails without waiting for delivery.
type Notifier interface {
	Notify(kind notify.Kind, email, name string)
}

// AuthService implements registration, authentication, sessions, and account management.
type AuthService struct {
	users    UserRepository
	tasks    TaskRepository
	sessions Sessions
	notifier Notifier
	log      *zap.Logger

	hashCost  int
	dummyOnce sync.Once
	dummyHash []byte
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithHashCost sets the bcrypt cost used for new password hashes.
func WithHashCost(cost int) AuthOption {
	return func(s *AuthService) { s.hashCost = cost }
}

// NewAuthService constructs an AuthService.
func NewAuthService(
	users UserRepository,
	tasks TaskRepository,
	sessions Sessions,
	notifier Notifier,
	log *zap.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:    users,
		tasks:    tasks,
		sessions: sessions,
		notifier: notifier,
		log:      log,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("name", "is required")
	}
	return name, nil
}

func validateEmail(email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", apperr.Validation("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("email", "is invalid")
	}
	return email, nil
}

func validatePassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	switch {
	case len(password) < minPasswordLen:
		return "", apperr.Validation("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	case len(password) > maxPasswordLen:
		return "", apperr.Validation("password", fmt.Sprintf("must be at most %d bytes", maxPasswordLen))
	case strings.Contains(strings.ToLower(password), "password"):
		return "", apperr.Validation("password", `must not contain "password"`)
	}
	return password, nil
}

func (s *AuthService) hash(password string) ([]byte, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

// dummy returns a hash to compare against when the email is unknown, so both
// failure paths cost one bcrypt comparison.
func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.hashCost)
	})
	return s.dummyHash
}

// Register creates an account, opens its first session, and schedules a welcome email.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, "", err
	}
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, "", err
	}
	password, err := validatePassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, "", err
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.sessions.Issue(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}

	s.notifier.Notify(notify.Welcome, u.Email, u.Name)
	s.log.Info("user registered", zap.String("user_id", u.ID))
	return u, token, nil
}

// Authenticate checks credentials. Unknown email and wrong password both
// return apperr.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(strings.TrimSpace(password))); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return u, nil
}

// Login authenticates and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	token, err := s.sessions.Issue(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Logout closes the session identified by token.
func (s *AuthService) Logout(ctx context.Context, userID, token string) error {
	return s.sessions.Revoke(ctx, userID, token)
}

// LogoutAll closes every session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.sessions.RevokeAll(ctx, userID)
}

// Profile returns the user's own record.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// UpdateProfile applies patch to the user's name, email, or password.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if u.Name, err = validateName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Email != nil {
		if u.Email, err = validateEmail(*patch.Email); err != nil {
			return nil, err
		}
	}
	if patch.Password != nil {
		password, err := validatePassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		if u.PasswordHash, err = s.hash(password); err != nil {
			return nil, err
		}
	}

	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteAccount removes the user's tasks and then the user, and schedules a
// farewell email. The two deletions are separate store operations.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	removed, err := s.tasks.DeleteTasksByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return nil, err
	}

	s.notifier.Notify(notify.Farewell, u.Email, u.Name)
	s.log.Info("account deleted", zap.String("user_id", userID), zap.Int64("tasks_removed", removed))
	return u, nil
}
