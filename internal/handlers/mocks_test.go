package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/models"
	"github.com/HammerMeetNail/friendgraph/internal/services"
)

type mockUserService struct {
	CreateFunc        func(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByIDFunc       func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*models.User, error)
	ListFunc          func(ctx context.Context, limit, offset int) ([]models.User, error)
	UpdateFunc        func(ctx context.Context, id uuid.UUID, params models.UpdateUserParams) (*models.User, error)
	DeleteFunc        func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &models.User{ID: uuid.New(), Username: params.Username, Email: params.Email}, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockUserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockUserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []models.User{}, nil
}

func (m *mockUserService) Update(ctx context.Context, id uuid.UUID, params models.UpdateUserParams) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, params)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockUserService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockAuthService struct {
	HashPasswordFunc          func(password string) (string, error)
	VerifyPasswordFunc        func(hash, password string) bool
	CreateSessionFunc         func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateSessionFunc       func(ctx context.Context, token string) (*models.User, error)
	DeleteSessionFunc         func(ctx context.Context, token string) error
	DeleteAllUserSessionsFunc func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockAuthService) HashPassword(password string) (string, error) {
	if m.HashPasswordFunc != nil {
		return m.HashPasswordFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *mockAuthService) VerifyPassword(hash, password string) bool {
	if m.VerifyPasswordFunc != nil {
		return m.VerifyPasswordFunc(hash, password)
	}
	return hash == "hashed_"+password
}

func (m *mockAuthService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, userID)
	}
	return "token-" + userID.String(), nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, token)
	}
	return nil, services.ErrSessionNotFound
}

func (m *mockAuthService) DeleteSession(ctx context.Context, token string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, token)
	}
	return nil
}

func (m *mockAuthService) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	if m.DeleteAllUserSessionsFunc != nil {
		return m.DeleteAllUserSessionsFunc(ctx, userID)
	}
	return nil
}

type mockFriendRequestService struct {
	SendFunc    func(ctx context.Context, actorID, targetID uuid.UUID) (*models.FriendRequest, error)
	CancelFunc  func(ctx context.Context, actorID, targetID uuid.UUID) error
	AcceptFunc  func(ctx context.Context, actorID, requesterID uuid.UUID) error
	DeclineFunc func(ctx context.Context, actorID, requesterID uuid.UUID) error
}

func (m *mockFriendRequestService) Send(ctx context.Context, actorID, targetID uuid.UUID) (*models.FriendRequest, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, actorID, targetID)
	}
	return &models.FriendRequest{SenderID: actorID, ReceiverID: targetID}, nil
}

func (m *mockFriendRequestService) Cancel(ctx context.Context, actorID, targetID uuid.UUID) error {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, actorID, targetID)
	}
	return nil
}

func (m *mockFriendRequestService) Accept(ctx context.Context, actorID, requesterID uuid.UUID) error {
	if m.AcceptFunc != nil {
		return m.AcceptFunc(ctx, actorID, requesterID)
	}
	return nil
}

func (m *mockFriendRequestService) Decline(ctx context.Context, actorID, requesterID uuid.UUID) error {
	if m.DeclineFunc != nil {
		return m.DeclineFunc(ctx, actorID, requesterID)
	}
	return nil
}

type mockFriendshipService struct {
	RemoveFunc func(ctx context.Context, actorID, otherID uuid.UUID) error
}

func (m *mockFriendshipService) Remove(ctx context.Context, actorID, otherID uuid.UUID) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, actorID, otherID)
	}
	return nil
}

type mockFriendQueryService struct {
	ListFriendsFunc          func(ctx context.Context, userID uuid.UUID) ([]models.Friend, error)
	ListIncomingRequestsFunc func(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error)
	ListOutgoingRequestsFunc func(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error)
	RelationshipFunc         func(ctx context.Context, userID, otherID uuid.UUID) (models.RelationshipState, error)
}

func (m *mockFriendQueryService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, userID)
	}
	return []models.Friend{}, nil
}

func (m *mockFriendQueryService) ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	if m.ListIncomingRequestsFunc != nil {
		return m.ListIncomingRequestsFunc(ctx, userID)
	}
	return []models.PendingRequest{}, nil
}

func (m *mockFriendQueryService) ListOutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	if m.ListOutgoingRequestsFunc != nil {
		return m.ListOutgoingRequestsFunc(ctx, userID)
	}
	return []models.PendingRequest{}, nil
}

func (m *mockFriendQueryService) Relationship(ctx context.Context, userID, otherID uuid.UUID) (models.RelationshipState, error) {
	if m.RelationshipFunc != nil {
		return m.RelationshipFunc(ctx, userID, otherID)
	}
	return models.RelationshipStrangers, nil
}

// usersByName serves GetByUsername from a fixed set of users.
func usersByName(users ...*models.User) *mockUserService {
	byName := make(map[string]*models.User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return &mockUserService{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			if u, ok := byName[username]; ok {
				return u, nil
			}
			return nil, services.ErrUserNotFound
		},
	}
}
