package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/HammerMeetNail/friendgraph/internal/logging"
	"github.com/HammerMeetNail/friendgraph/internal/models"
	"github.com/HammerMeetNail/friendgraph/internal/services"
)

type UserHandler struct {
	userService  services.UserServiceInterface
	authService  services.AuthServiceInterface
	queryService services.FriendQueryServiceInterface
}

func NewUserHandler(userService services.UserServiceInterface, authService services.AuthServiceInterface, queryService services.FriendQueryServiceInterface) *UserHandler {
	return &UserHandler{
		userService:  userService,
		authService:  authService,
		queryService: queryService,
	}
}

type ProfileResponse struct {
	User         models.PublicUser        `json:"user"`
	Relationship models.RelationshipState `json:"relationship,omitempty"`
}

const (
	defaultUserPageSize = 50
	maxUserPageSize     = 100
)

type UserListResponse struct {
	Users []models.PublicUser `json:"users"`
}

// UpdateProfileRequest fields are optional; omitted ones keep their value.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Biography *string `json:"biography"`
}

// List pages through users ordered by username.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if GetUserFromContext(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit, err := queryInt(r, "limit", defaultUserPageSize)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	if limit > maxUserPageSize {
		limit = maxUserPageSize
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "Invalid offset")
		return
	}

	users, err := h.userService.List(r.Context(), limit, offset)
	if err != nil {
		logging.Error("Error listing users", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := UserListResponse{Users: make([]models.PublicUser, 0, len(users))}
	for i := range users {
		resp.Users = append(resp.Users, users[i].Public())
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update edits the profile fields of an account the caller may modify.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := GetUserFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	target, ok := lookupUser(w, r, h.userService)
	if !ok {
		return
	}
	if !canModifyUser(actor, target) {
		writeError(w, http.StatusForbidden, "You do not have permission to modify this user")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FirstName != nil {
		trimmed := strings.TrimSpace(*req.FirstName)
		req.FirstName = &trimmed
	}
	if req.LastName != nil {
		trimmed := strings.TrimSpace(*req.LastName)
		req.LastName = &trimmed
	}
	if err := validateProfileFields(deref(req.FirstName), deref(req.LastName), deref(req.Biography)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.userService.Update(r.Context(), target.ID, models.UpdateUserParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Biography: req.Biography,
	})
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		logging.Error("Error updating user", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{User: updated.Public()})
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Get returns another user's public profile and, for a signed in viewer, how
// the two are related.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer := GetUserFromContext(r.Context())
	if viewer == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	target, ok := lookupUser(w, r, h.userService)
	if !ok {
		return
	}

	state, err := h.queryService.Relationship(r.Context(), viewer.ID, target.ID)
	if err != nil {
		logging.Error("Error loading relationship", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{User: target.Public(), Relationship: state})
}

// Delete removes an account. Its friend requests and friendships go with it.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := GetUserFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	target, ok := lookupUser(w, r, h.userService)
	if !ok {
		return
	}
	if !canModifyUser(actor, target) {
		writeError(w, http.StatusForbidden, "You do not have permission to modify this user")
		return
	}

	if err := h.authService.DeleteAllUserSessions(r.Context(), target.ID); err != nil {
		logging.Warn("Error deleting sessions for removed user", map[string]interface{}{
			"user_id": target.ID.String(),
			"error":   err.Error(),
		})
	}

	err := h.userService.Delete(r.Context(), target.ID)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		logging.Error("Error deleting user", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logging.Info("User deleted", map[string]interface{}{
		"user_id":  target.ID.String(),
		"actor_id": actor.ID.String(),
	})
	w.WriteHeader(http.StatusNoContent)
}

// lookupUser resolves the {username} path segment. It writes the error
// response itself and reports whether the caller should continue.
func lookupUser(w http.ResponseWriter, r *http.Request, users services.UserServiceInterface) (*models.User, bool) {
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return nil, false
	}

	user, err := users.GetByUsername(r.Context(), username)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return nil, false
	}
	if err != nil {
		logging.Error("Error looking up user", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return user, true
}
