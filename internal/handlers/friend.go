package handlers

import (
	"errors"
	"net/http"

	"github.com/HammerMeetNail/friendgraph/internal/logging"
	"github.com/HammerMeetNail/friendgraph/internal/models"
	"github.com/HammerMeetNail/friendgraph/internal/services"
)

type FriendHandler struct {
	userService       services.UserServiceInterface
	requestService    services.FriendRequestServiceInterface
	friendshipService services.FriendshipServiceInterface
	queryService      services.FriendQueryServiceInterface
}

func NewFriendHandler(
	userService services.UserServiceInterface,
	requestService services.FriendRequestServiceInterface,
	friendshipService services.FriendshipServiceInterface,
	queryService services.FriendQueryServiceInterface,
) *FriendHandler {
	return &FriendHandler{
		userService:       userService,
		requestService:    requestService,
		friendshipService: friendshipService,
		queryService:      queryService,
	}
}

type FriendListResponse struct {
	Friends []models.Friend `json:"friends"`
}

type RequestListResponse struct {
	Requests []models.PendingRequest `json:"requests"`
}

type FriendActionResponse struct {
	Message  string                `json:"message"`
	Request  *models.FriendRequest `json:"request,omitempty"`
	Username string                `json:"username,omitempty"`
}

// SendRequest: POST /api/users/{username}/friend-request
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}

	request, err := h.requestService.Send(r.Context(), actor.ID, target.ID)
	if err != nil {
		writeRelationshipError(w, err, "sending friend request")
		return
	}

	writeJSON(w, http.StatusCreated, FriendActionResponse{
		Message:  "Friend request sent",
		Request:  request,
		Username: target.Username,
	})
}

// CancelRequest: DELETE /api/users/{username}/friend-request
func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}

	if err := h.requestService.Cancel(r.Context(), actor.ID, target.ID); err != nil {
		writeRelationshipError(w, err, "canceling friend request")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AcceptRequest: POST /api/users/{username}/accept-friend-request
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	actor, requester, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}

	if err := h.requestService.Accept(r.Context(), actor.ID, requester.ID); err != nil {
		writeRelationshipError(w, err, "accepting friend request")
		return
	}

	writeJSON(w, http.StatusCreated, FriendActionResponse{
		Message:  "Friend request accepted",
		Username: requester.Username,
	})
}

// DeclineRequest: DELETE /api/users/{username}/decline-friend-request
func (h *FriendHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	actor, requester, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}

	if err := h.requestService.Decline(r.Context(), actor.ID, requester.ID); err != nil {
		writeRelationshipError(w, err, "declining friend request")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove: DELETE /api/friends/{username}
func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor, friend, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}

	if err := h.friendshipService.Remove(r.Context(), actor.ID, friend.ID); err != nil {
		writeRelationshipError(w, err, "removing friend")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friends, err := h.queryService.ListFriends(r.Context(), user.ID)
	if err != nil {
		writeRelationshipError(w, err, "listing friends")
		return
	}
	writeJSON(w, http.StatusOK, FriendListResponse{Friends: friends})
}

func (h *FriendHandler) IncomingRequests(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requests, err := h.queryService.ListIncomingRequests(r.Context(), user.ID)
	if err != nil {
		writeRelationshipError(w, err, "listing incoming requests")
		return
	}
	writeJSON(w, http.StatusOK, RequestListResponse{Requests: requests})
}

func (h *FriendHandler) OutgoingRequests(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requests, err := h.queryService.ListOutgoingRequests(r.Context(), user.ID)
	if err != nil {
		writeRelationshipError(w, err, "listing outgoing requests")
		return
	}
	writeJSON(w, http.StatusOK, RequestListResponse{Requests: requests})
}

func (h *FriendHandler) actorAndTarget(w http.ResponseWriter, r *http.Request) (*models.User, *models.User, bool) {
	actor := GetUserFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil, nil, false
	}

	target, ok := lookupUser(w, r, h.userService)
	if !ok {
		return nil, nil, false
	}
	return actor, target, true
}

func writeRelationshipError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, services.ErrSelfRequest):
		writeError(w, http.StatusBadRequest, "Cannot send friend request to yourself")
	case errors.Is(err, services.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "Friend request already exists")
	case errors.Is(err, services.ErrAlreadyFriends):
		writeError(w, http.StatusConflict, "Already friends")
	case errors.Is(err, services.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "Friend request not found")
	case errors.Is(err, services.ErrNotFriends):
		writeError(w, http.StatusNotFound, "Not friends")
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	default:
		logging.Error("Error "+op, map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
