// Package memory is an in-process implementation of the user, token, and task
// stores. It backs the server when no database DSN is configured and is
// shared by tests that need real ownership semantics.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/TaskTracker/internal/apperr"
	"github.com/atinyakov/TaskTracker/internal/models"
)

// Store keeps users, tokens, and tasks in maps guarded by one lock,
// so each method is atomic like a single SQL statement.
type Store struct {
	mu     sync.RWMutex
	users  map[string]models.User
	emails map[string]string
	tokens map[string]map[string]struct{}
	tasks  map[string]models.Task
	order  []string
	now    func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:  make(map[string]models.User),
		emails: make(map[string]string),
		tokens: make(map[string]map[string]struct{}),
		tasks:  make(map[string]models.Task),
		now:    time.Now,
	}
}

// CreateUser stores u; a duplicate email yields apperr.ErrConflict.
func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[u.Email]; ok {
		return fmt.Errorf("create user: email %w", apperr.ErrConflict)
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = *u
	s.emails[u.Email] = u.ID
	s.tokens[u.ID] = make(map[string]struct{})
	return nil
}

// GetUserByID returns a copy of the user, or apperr.ErrNotFound.
func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &u, nil
}

// GetUserByEmail returns a copy of the user with that email, or apperr.ErrNotFound.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

// UpdateUser overwrites the stored profile of u.
func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[u.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	if owner, taken := s.emails[u.Email]; taken && owner != u.ID {
		return fmt.Errorf("update user: email %w", apperr.ErrConflict)
	}
	delete(s.emails, old.Email)
	s.emails[u.Email] = u.ID
	u.CreatedAt = old.CreatedAt
	u.UpdatedAt = s.now()
	s.users[u.ID] = *u
	return nil
}

// DeleteUser removes the user and their tokens.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	delete(s.users, id)
	delete(s.emails, u.Email)
	delete(s.tokens, id)
	// same as ON DELETE CASCADE on tasks.owner_id
	for tid, t := range s.tasks {
		if t.OwnerID == id {
			delete(s.tasks, tid)
		}
	}
	s.compact()
	return nil
}

// UserExists reports whether a user with id is stored.
func (s *Store) UserExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[id]
	return ok, nil
}

// AddToken adds token to the user's session set.
func (s *Store) AddToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.tokens[userID]
	if !ok {
		return apperr.ErrNotFound
	}
	set[token] = struct{}{}
	return nil
}

// HasToken reports whether token is in the user's session set.
func (s *Store) HasToken(_ context.Context, userID, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tokens[userID][token]
	return ok, nil
}

// RemoveToken drops one token; absent tokens are ignored.
func (s *Store) RemoveToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens[userID], token)
	return nil
}

// RemoveAllTokens empties the user's session set.
func (s *Store) RemoveAllTokens(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[userID]; ok {
		s.tokens[userID] = make(map[string]struct{})
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// CreateTask stores t and stamps it.
func (s *Store) CreateTask(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[t.OwnerID]; !ok {
		return fmt.Errorf("create task: owner %w", apperr.ErrNotFound)
	}
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	s.tasks[t.ID] = *t
	s.order = append(s.order, t.ID)
	return nil
}

// ListTasks selects the owner's tasks first, then filters, sorts, and pages them.
// Without a sort key tasks come back in insertion order.
func (s *Store) ListTasks(_ context.Context, ownerID string, q models.TaskQuery) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Task, 0)
	for _, id := range s.order {
		t, ok := s.tasks[id]
		if !ok || t.OwnerID != ownerID {
			continue
		}
		if q.Completed != nil && t.Completed != *q.Completed {
			continue
		}
		out = append(out, t)
	}

	if q.Sort != nil {
		less, err := lessFunc(q.Sort.Field)
		if err != nil {
			return nil, err
		}
		desc := q.Sort.Desc
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return less(out[j], out[i])
			}
			return less(out[i], out[j])
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return out[:0], nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func lessFunc(f models.SortField) (func(a, b models.Task) bool, error) {
	switch f {
	case models.SortByDescription:
		return func(a, b models.Task) bool { return strings.Compare(a.Description, b.Description) < 0 }, nil
	case models.SortByCompleted:
		return func(a, b models.Task) bool { return !a.Completed && b.Completed }, nil
	case models.SortByCreatedAt:
		return func(a, b models.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }, nil
	case models.SortByUpdatedAt:
		return func(a, b models.Task) bool { return a.UpdatedAt.Before(b.UpdatedAt) }, nil
	}
	return nil, apperr.Validation("sortBy", "unsupported field "+string(f))
}

// GetTask returns the task only when id and owner both match.
func (s *Store) GetTask(_ context.Context, ownerID, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, apperr.ErrNotFound
	}
	return &t, nil
}

// UpdateTask applies patch to the owner's task.
func (s *Store) UpdateTask(_ context.Context, ownerID, id string, patch models.TaskPatch) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, apperr.ErrNotFound
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	t.UpdatedAt = s.now()
	s.tasks[id] = t
	return &t, nil
}

// DeleteTask removes the owner's task and returns it.
func (s *Store) DeleteTask(_ context.Context, ownerID, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, apperr.ErrNotFound
	}
	delete(s.tasks, id)
	s.compact()
	return &t, nil
}

// DeleteTasksByOwner removes every task of the owner.
func (s *Store) DeleteTasksByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, t := range s.tasks {
		if t.OwnerID == ownerID {
			delete(s.tasks, id)
			n++
		}
	}
	s.compact()
	return n, nil
}

// compact drops ids of deleted tasks from the insertion order. Callers hold mu.
func (s *Store) compact() {
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.tasks[id]; ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
}
