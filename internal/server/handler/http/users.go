// Package http provides the HTTP handlers of the task tracker API.
package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/TaskTracker/internal/middleware"
	"github.com/atinyakov/TaskTracker/internal/models"
	"github.com/atinyakov/TaskTracker/internal/service"
	"go.uber.org/zap"
)

// UserService defines the account operations required by UserHandler.
type UserService interface {
	// Register creates an account and returns it with its first session token.
	Register(ctx context.Context, in service.RegisterInput) (*models.User, string, error)
	// Login checks credentials and opens a new session.
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	// Logout closes the session identified by token.
	Logout(ctx context.Context, userID, token string) error
	// LogoutAll closes every session of the user.
	LogoutAll(ctx context.Context, userID string) error
	// Profile returns the user's own record.
	Profile(ctx context.Context, userID string) (*models.User, error)
	// UpdateProfile changes name, email, or password.
	UpdateProfile(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error)
	// DeleteAccount removes the user and everything they own.
	DeleteAccount(ctx context.Context, userID string) (*models.User, error)
}

// UserHandler handles account and session requests.
type UserHandler struct {
	// UserService performs the underlying account operations.
	UserService UserService
	Log         *zap.Logger
}

// sessionResponse is returned by registration and login.
type sessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register handles POST /users.
// It expects a JSON body with name, email, and password and responds
// 201 with the new user and a session token.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	in, err := service.DecodeRegister(r.Body)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	u, token, err := h.UserService.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{User: u, Token: token})
}

// Login handles POST /users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	email, password, err := service.DecodeCredentials(r.Body)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	u, token, err := h.UserService.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: u, Token: token})
}

// Logout handles POST /users/logout and revokes only the presented token.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.UserService.Logout(ctx, middleware.GetUserIDFromContext(ctx), middleware.GetTokenFromContext(ctx)); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// LogoutAll handles POST /users/logoutAll.
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.UserService.LogoutAll(r.Context(), middleware.GetUserIDFromContext(r.Context())); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Me handles GET /users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.UserService.Profile(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateMe handles PATCH /users/me. Only name, email, and password may be changed.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	patch, err := service.DecodeUserPatch(r.Body)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	u, err := h.UserService.UpdateProfile(r.Context(), middleware.GetUserIDFromContext(r.Context()), patch)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteMe handles DELETE /users/me and returns the removed user.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.UserService.DeleteAccount(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
