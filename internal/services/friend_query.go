package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

// FriendQueryService serves read-only views of the relationship graph.
type FriendQueryService struct {
	reader RelationshipReader
}

func NewFriendQueryService(reader RelationshipReader) *FriendQueryService {
	return &FriendQueryService{reader: reader}
}

func (s *FriendQueryService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	friends, err := s.reader.FriendsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if friends == nil {
		friends = []models.Friend{}
	}
	return friends, nil
}

func (s *FriendQueryService) ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	requests, err := s.reader.IncomingRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.PendingRequest{}
	}
	return requests, nil
}

func (s *FriendQueryService) ListOutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	requests, err := s.reader.OutgoingRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.PendingRequest{}
	}
	return requests, nil
}

// Relationship reports how userID relates to otherID.
func (s *FriendQueryService) Relationship(ctx context.Context, userID, otherID uuid.UUID) (models.RelationshipState, error) {
	if userID == otherID {
		return models.RelationshipStrangers, nil
	}
	return s.reader.Relationship(ctx, userID, otherID)
}
