package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/logging"
)

// FriendshipService creates and removes both directed friendship rows together.
type FriendshipService struct {
	store RelationshipStore
}

func NewFriendshipService(store RelationshipStore) *FriendshipService {
	return &FriendshipService{store: store}
}

// Establish inserts the friendship pair inside an existing transaction.
func (s *FriendshipService) Establish(ctx context.Context, tx RelationshipTx, a, b uuid.UUID) error {
	err := tx.InsertFriendshipPair(ctx, a, b)
	if errors.Is(err, ErrDuplicate) {
		return ErrAlreadyFriends
	}
	return err
}

// Remove unfriends other on behalf of actor. Both rows go or neither does.
func (s *FriendshipService) Remove(ctx context.Context, actorID, otherID uuid.UUID) error {
	if actorID == otherID {
		return ErrNotFriends
	}

	err := s.store.WithinTx(ctx, func(tx RelationshipTx) error {
		if err := tx.LockPair(ctx, actorID, otherID); err != nil {
			return err
		}

		err := tx.DeleteFriendshipPair(ctx, actorID, otherID)
		if errors.Is(err, ErrNotFound) {
			return ErrNotFriends
		}
		return err
	})
	if err != nil {
		return err
	}

	logging.Debug("Friendship removed", map[string]interface{}{
		"user_id":   actorID.String(),
		"friend_id": otherID.String(),
	})
	return nil
}
