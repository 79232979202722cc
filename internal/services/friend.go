package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/logging"
	"github.com/HammerMeetNail/friendgraph/internal/models"
)

var (
	ErrSelfRequest      = errors.New("cannot send friend request to yourself")
	ErrDuplicateRequest = errors.New("friend request already exists")
	ErrAlreadyFriends   = errors.New("users are already friends")
	ErrRequestNotFound  = errors.New("friend request not found")
	ErrNotFriends       = errors.New("users are not friends")
)

// FriendRequestService moves a user pair between strangers, pending and
// friends. Every operation is a single store transaction.
type FriendRequestService struct {
	store       RelationshipStore
	friendships *FriendshipService
}

func NewFriendRequestService(store RelationshipStore, friendships *FriendshipService) *FriendRequestService {
	return &FriendRequestService{store: store, friendships: friendships}
}

func (s *FriendRequestService) Send(ctx context.Context, actorID, targetID uuid.UUID) (*models.FriendRequest, error) {
	if actorID == targetID {
		return nil, ErrSelfRequest
	}

	var request *models.FriendRequest
	err := s.store.WithinTx(ctx, func(tx RelationshipTx) error {
		if err := tx.LockPair(ctx, actorID, targetID); err != nil {
			return err
		}

		friends, err := tx.FriendshipExists(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		if friends {
			return ErrAlreadyFriends
		}

		// A pending request in either direction blocks a new one.
		for _, pair := range [][2]uuid.UUID{{actorID, targetID}, {targetID, actorID}} {
			exists, err := tx.RequestExists(ctx, pair[0], pair[1])
			if err != nil {
				return err
			}
			if exists {
				return ErrDuplicateRequest
			}
		}

		request, err = tx.InsertRequest(ctx, actorID, targetID)
		if errors.Is(err, ErrDuplicate) {
			return ErrDuplicateRequest
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	logging.Debug("Friend request sent", map[string]interface{}{
		"sender_id":   actorID.String(),
		"receiver_id": targetID.String(),
	})
	return request, nil
}

// Cancel withdraws the request actor previously sent to target.
func (s *FriendRequestService) Cancel(ctx context.Context, actorID, targetID uuid.UUID) error {
	err := s.deleteRequest(ctx, actorID, targetID)
	if err != nil {
		return err
	}

	logging.Debug("Friend request canceled", map[string]interface{}{
		"sender_id":   actorID.String(),
		"receiver_id": targetID.String(),
	})
	return nil
}

// Accept consumes the request requester sent to actor and makes them friends.
func (s *FriendRequestService) Accept(ctx context.Context, actorID, requesterID uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx RelationshipTx) error {
		if err := tx.LockPair(ctx, requesterID, actorID); err != nil {
			return err
		}

		err := tx.DeleteRequest(ctx, requesterID, actorID)
		if errors.Is(err, ErrNotFound) {
			return ErrRequestNotFound
		}
		if err != nil {
			return err
		}

		return s.friendships.Establish(ctx, tx, requesterID, actorID)
	})
	if err != nil {
		return err
	}

	logging.Debug("Friend request accepted", map[string]interface{}{
		"sender_id":   requesterID.String(),
		"receiver_id": actorID.String(),
	})
	return nil
}

// Decline removes the request requester sent to actor without befriending.
func (s *FriendRequestService) Decline(ctx context.Context, actorID, requesterID uuid.UUID) error {
	err := s.deleteRequest(ctx, requesterID, actorID)
	if err != nil {
		return err
	}

	logging.Debug("Friend request declined", map[string]interface{}{
		"sender_id":   requesterID.String(),
		"receiver_id": actorID.String(),
	})
	return nil
}

func (s *FriendRequestService) deleteRequest(ctx context.Context, senderID, receiverID uuid.UUID) error {
	if senderID == receiverID {
		return ErrRequestNotFound
	}

	return s.store.WithinTx(ctx, func(tx RelationshipTx) error {
		if err := tx.LockPair(ctx, senderID, receiverID); err != nil {
			return err
		}

		err := tx.DeleteRequest(ctx, senderID, receiverID)
		if errors.Is(err, ErrNotFound) {
			return ErrRequestNotFound
		}
		return err
	})
}
