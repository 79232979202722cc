package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendRequest is a pending, directed request from SenderID to ReceiverID.
// It is deleted once cancelled, declined or accepted.
type FriendRequest struct {
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	SentOn     time.Time `json:"sent_on"`
}

type Friend struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	FriendsFrom time.Time `json:"friends_from"`
}

// PendingRequest is a request seen from one side: UserID is the other party.
type PendingRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	SentOn   time.Time `json:"sent_on"`
}

// RelationshipState is the collapsed state of an unordered user pair.
type RelationshipState string

const (
	RelationshipStrangers       RelationshipState = "strangers"
	RelationshipPendingOutgoing RelationshipState = "pending_outgoing"
	RelationshipPendingIncoming RelationshipState = "pending_incoming"
	RelationshipFriends         RelationshipState = "friends"
)
