package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

var (
	// ErrDuplicate indicates a write would violate a uniqueness or self-reference rule.
	ErrDuplicate = errors.New("relationship record already exists")
	// ErrNotFound indicates the record to delete does not exist.
	ErrNotFound = errors.New("relationship record not found")
)

// RelationshipTx is the write side of the relationship store. It is only valid
// inside RelationshipStore.WithinTx.
type RelationshipTx interface {
	// LockPair blocks other writers on the unordered pair {a, b} until the
	// transaction ends.
	LockPair(ctx context.Context, a, b uuid.UUID) error
	RequestExists(ctx context.Context, senderID, receiverID uuid.UUID) (bool, error)
	InsertRequest(ctx context.Context, senderID, receiverID uuid.UUID) (*models.FriendRequest, error)
	DeleteRequest(ctx context.Context, senderID, receiverID uuid.UUID) error
	FriendshipExists(ctx context.Context, a, b uuid.UUID) (bool, error)
	InsertFriendshipPair(ctx context.Context, a, b uuid.UUID) error
	DeleteFriendshipPair(ctx context.Context, a, b uuid.UUID) error
}

// RelationshipReader is the read side of the relationship store.
type RelationshipReader interface {
	FriendsOf(ctx context.Context, userID uuid.UUID) ([]models.Friend, error)
	IncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error)
	OutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error)
	Relationship(ctx context.Context, userID, otherID uuid.UUID) (models.RelationshipState, error)
}

// RelationshipStore owns friend requests and friendships.
type RelationshipStore interface {
	RelationshipReader
	// WithinTx runs fn in a single transaction. Writes are committed when fn
	// returns nil and discarded otherwise.
	WithinTx(ctx context.Context, fn func(tx RelationshipTx) error) error
}
