package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

// UserServiceInterface defines the contract for user operations.
type UserServiceInterface interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Update(ctx context.Context, id uuid.UUID, params models.UpdateUserParams) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuthServiceInterface defines the contract for authentication operations.
type AuthServiceInterface interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	CreateSession(ctx context.Context, userID uuid.UUID) (token string, err error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error
}

// FriendRequestServiceInterface defines the friend request state transitions.
type FriendRequestServiceInterface interface {
	Send(ctx context.Context, actorID, targetID uuid.UUID) (*models.FriendRequest, error)
	Cancel(ctx context.Context, actorID, targetID uuid.UUID) error
	Accept(ctx context.Context, actorID, requesterID uuid.UUID) error
	Decline(ctx context.Context, actorID, requesterID uuid.UUID) error
}

// FriendshipServiceInterface defines unfriending.
type FriendshipServiceInterface interface {
	Remove(ctx context.Context, actorID, otherID uuid.UUID) error
}

// FriendQueryServiceInterface defines the read-only relationship views.
type FriendQueryServiceInterface interface {
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Friend, error)
	ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error)
	ListOutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error)
	Relationship(ctx context.Context, userID, otherID uuid.UUID) (models.RelationshipState, error)
}

var (
	_ UserServiceInterface          = (*UserService)(nil)
	_ AuthServiceInterface          = (*AuthService)(nil)
	_ FriendRequestServiceInterface = (*FriendRequestService)(nil)
	_ FriendshipServiceInterface    = (*FriendshipService)(nil)
	_ FriendQueryServiceInterface   = (*FriendQueryService)(nil)
)
