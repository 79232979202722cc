package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/models"
	"github.com/HammerMeetNail/friendgraph/internal/services"
	"github.com/HammerMeetNail/friendgraph/internal/testutil"
)

// memoryUsers is a UserServiceInterface that keeps the relationship store's
// user set in sync, the way the users table foreign keys do in Postgres.
type memoryUsers struct {
	mu    sync.Mutex
	store *services.MemoryRelationshipStore
	byID  map[uuid.UUID]*models.User
}

func (m *memoryUsers) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Username, params.Username) {
			return nil, services.ErrUsernameAlreadyExists
		}
		if u.Email == params.Email {
			return nil, services.ErrEmailAlreadyExists
		}
	}
	u := &models.User{ID: uuid.New(), Username: params.Username, Email: params.Email, PasswordHash: params.PasswordHash}
	m.byID[u.ID] = u
	m.store.RegisterUser(u.ID, u.Username)
	return u, nil
}

func (m *memoryUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, services.ErrUserNotFound
}

func (m *memoryUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, services.ErrUserNotFound
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, services.ErrUserNotFound
}

func (m *memoryUsers) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	if offset >= len(users) {
		return []models.User{}, nil
	}
	users = users[offset:]
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (m *memoryUsers) Update(ctx context.Context, id uuid.UUID, params models.UpdateUserParams) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	if params.FirstName != nil {
		u.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		u.LastName = *params.LastName
	}
	if params.Biography != nil {
		u.Biography = *params.Biography
	}
	updated := *u
	return &updated, nil
}

func (m *memoryUsers) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return services.ErrUserNotFound
	}
	delete(m.byID, id)
	m.store.RemoveUser(id)
	return nil
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	users   *memoryUsers
	limited int
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := services.NewMemoryRelationshipStore()
	users := &memoryUsers{store: store, byID: make(map[uuid.UUID]*models.User)}
	auth := &mockAuthService{}
	friendships := services.NewFriendshipService(store)
	requests := services.NewFriendRequestService(store, friendships)
	queries := services.NewFriendQueryService(store)

	ts := &testServer{t: t, users: users}

	// Sessions are keyed by username so tests can act as anyone.
	requireAuth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := users.GetByUsername(r.Context(), r.Header.Get("X-Test-User"))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(SetUserInContext(r.Context(), user)))
		})
	}
	limitSend := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ts.limited++
			next.ServeHTTP(w, r)
		})
	}

	mux := http.NewServeMux()
	Routes{
		Health:  NewHealthHandler(stubChecker{}, stubChecker{}),
		Auth:    NewAuthHandler(users, auth, false),
		Users:   NewUserHandler(users, auth, queries),
		Friends: NewFriendHandler(users, requests, friendships, queries),
	}.Register(mux, requireAuth, limitSend)
	ts.handler = mux
	return ts
}

func (ts *testServer) do(as, method, path string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	req := testutil.NewJSONRequest(ts.t, method, path, body)
	if as != "" {
		req.Header.Set("X-Test-User", as)
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) register(username string) {
	ts.t.Helper()
	rr := ts.do("", http.MethodPost, "/api/auth/register", RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	testutil.AssertStatusCode(ts.t, rr, http.StatusCreated)
}

func (ts *testServer) relationship(as, other string) models.RelationshipState {
	ts.t.Helper()
	rr := ts.do(as, http.MethodGet, "/api/users/"+other, nil)
	testutil.AssertStatusCode(ts.t, rr, http.StatusOK)
	return testutil.DecodeJSON[ProfileResponse](ts.t, rr).Relationship
}

func TestRoutes_FriendshipLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.register("alice")
	ts.register("bob")

	rr := ts.do("alice", http.MethodPost, "/api/users/bob/friend-request", nil)
	testutil.AssertStatusCode(t, rr, http.StatusCreated)
	if ts.limited != 1 {
		t.Fatalf("expected send to pass through the limiter once, got %d", ts.limited)
	}

	rr = ts.do("alice", http.MethodPost, "/api/users/bob/friend-request", nil)
	testutil.AssertJSONError(t, rr, http.StatusConflict, "Friend request already exists")

	rr = ts.do("bob", http.MethodPost, "/api/users/alice/friend-request", nil)
	testutil.AssertJSONError(t, rr, http.StatusConflict, "Friend request already exists")

	if got := ts.relationship("alice", "bob"); got != models.RelationshipPendingOutgoing {
		t.Fatalf("alice sees %q", got)
	}
	if got := ts.relationship("bob", "alice"); got != models.RelationshipPendingIncoming {
		t.Fatalf("bob sees %q", got)
	}

	rr = ts.do("bob", http.MethodGet, "/api/friends/requests/incoming", nil)
	incoming := testutil.DecodeJSON[RequestListResponse](t, rr).Requests
	if len(incoming) != 1 || incoming[0].Username != "alice" {
		t.Fatalf("unexpected incoming requests: %+v", incoming)
	}

	rr = ts.do("alice", http.MethodPost, "/api/users/bob/accept-friend-request", nil)
	testutil.AssertJSONError(t, rr, http.StatusNotFound, "Friend request not found")

	rr = ts.do("bob", http.MethodPost, "/api/users/alice/accept-friend-request", nil)
	testutil.AssertStatusCode(t, rr, http.StatusCreated)

	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		rr = ts.do(pair[0], http.MethodGet, "/api/friends", nil)
		friends := testutil.DecodeJSON[FriendListResponse](t, rr).Friends
		if len(friends) != 1 || friends[0].Username != pair[1] {
			t.Fatalf("%s: unexpected friends %+v", pair[0], friends)
		}
	}

	rr = ts.do("alice", http.MethodGet, "/api/friends/requests/outgoing", nil)
	if out := testutil.DecodeJSON[RequestListResponse](t, rr).Requests; len(out) != 0 {
		t.Fatalf("accepted request should be gone, got %+v", out)
	}

	rr = ts.do("alice", http.MethodPost, "/api/users/bob/friend-request", nil)
	testutil.AssertJSONError(t, rr, http.StatusConflict, "Already friends")

	rr = ts.do("bob", http.MethodDelete, "/api/friends/alice", nil)
	testutil.AssertStatusCode(t, rr, http.StatusNoContent)

	if got := ts.relationship("alice", "bob"); got != models.RelationshipStrangers {
		t.Fatalf("expected strangers after removal, got %q", got)
	}

	rr = ts.do("bob", http.MethodDelete, "/api/friends/alice", nil)
	testutil.AssertJSONError(t, rr, http.StatusNotFound, "Not friends")
}

func TestRoutes_CancelAndDecline(t *testing.T) {
	ts := newTestServer(t)
	ts.register("alice")
	ts.register("bob")

	testutil.AssertStatusCode(t, ts.do("alice", http.MethodPost, "/api/users/bob/friend-request", nil), http.StatusCreated)
	testutil.AssertStatusCode(t, ts.do("alice", http.MethodDelete, "/api/users/bob/friend-request", nil), http.StatusNoContent)
	testutil.AssertJSONError(t, ts.do("alice", http.MethodDelete, "/api/users/bob/friend-request", nil), http.StatusNotFound, "Friend request not found")

	testutil.AssertStatusCode(t, ts.do("alice", http.MethodPost, "/api/users/bob/friend-request", nil), http.StatusCreated)
	testutil.AssertStatusCode(t, ts.do("bob", http.MethodDelete, "/api/users/alice/decline-friend-request", nil), http.StatusNoContent)

	if got := ts.relationship("bob", "alice"); got != models.RelationshipStrangers {
		t.Fatalf("expected strangers after decline, got %q", got)
	}
}

func TestRoutes_SelfRequestAndAuth(t *testing.T) {
	ts := newTestServer(t)
	ts.register("alice")

	rr := ts.do("alice", http.MethodPost, "/api/users/alice/friend-request", nil)
	testutil.AssertJSONError(t, rr, http.StatusBadRequest, "Cannot send friend request to yourself")

	rr = ts.do("", http.MethodGet, "/api/friends", nil)
	testutil.AssertJSONError(t, rr, http.StatusUnauthorized, "Authentication required")

	rr = ts.do("alice", http.MethodPost, "/api/users/nobody/friend-request", nil)
	testutil.AssertJSONError(t, rr, http.StatusNotFound, "User not found")

	rr = ts.do("", http.MethodGet, "/live", nil)
	testutil.AssertStatusCode(t, rr, http.StatusOK)
}

func TestRoutes_DeleteUserCascades(t *testing.T) {
	ts := newTestServer(t)
	ts.register("alice")
	ts.register("bob")
	ts.register("carol")

	testutil.AssertStatusCode(t, ts.do("alice", http.MethodPost, "/api/users/bob/friend-request", nil), http.StatusCreated)
	testutil.AssertStatusCode(t, ts.do("bob", http.MethodPost, "/api/users/alice/accept-friend-request", nil), http.StatusCreated)
	testutil.AssertStatusCode(t, ts.do("carol", http.MethodPost, "/api/users/alice/friend-request", nil), http.StatusCreated)

	testutil.AssertStatusCode(t, ts.do("bob", http.MethodDelete, "/api/users/alice", nil), http.StatusForbidden)
	testutil.AssertStatusCode(t, ts.do("alice", http.MethodDelete, "/api/users/alice", nil), http.StatusNoContent)

	rr := ts.do("bob", http.MethodGet, "/api/friends", nil)
	if friends := testutil.DecodeJSON[FriendListResponse](t, rr).Friends; len(friends) != 0 {
		t.Fatalf("expected no friends after deletion, got %+v", friends)
	}
	rr = ts.do("carol", http.MethodGet, "/api/friends/requests/outgoing", nil)
	if out := testutil.DecodeJSON[RequestListResponse](t, rr).Requests; len(out) != 0 {
		t.Fatalf("expected no outgoing requests after deletion, got %+v", out)
	}
}

func TestRoutes_ListAndUpdateUsers(t *testing.T) {
	ts := newTestServer(t)
	for _, name := range []string{"carol", "alice", "bob"} {
		ts.register(name)
	}

	rr := ts.do("", http.MethodGet, "/api/users", nil)
	testutil.AssertJSONError(t, rr, http.StatusUnauthorized, "Authentication required")

	rr = ts.do("alice", http.MethodGet, "/api/users?limit=2", nil)
	testutil.AssertStatusCode(t, rr, http.StatusOK)
	page := testutil.DecodeJSON[UserListResponse](t, rr)
	if len(page.Users) != 2 || page.Users[0].Username != "alice" || page.Users[1].Username != "bob" {
		t.Fatalf("unexpected first page: %+v", page.Users)
	}

	rr = ts.do("alice", http.MethodGet, "/api/users?limit=2&offset=2", nil)
	page = testutil.DecodeJSON[UserListResponse](t, rr)
	if len(page.Users) != 1 || page.Users[0].Username != "carol" {
		t.Fatalf("unexpected second page: %+v", page.Users)
	}

	rr = ts.do("alice", http.MethodPatch, "/api/users/alice", map[string]string{"biography": "hello"})
	testutil.AssertStatusCode(t, rr, http.StatusOK)

	rr = ts.do("bob", http.MethodGet, "/api/users/alice", nil)
	if got := testutil.DecodeJSON[ProfileResponse](t, rr).User.Biography; got != "hello" {
		t.Fatalf("expected updated biography, got %q", got)
	}

	rr = ts.do("bob", http.MethodPatch, "/api/users/alice", map[string]string{"biography": "hacked"})
	testutil.AssertJSONError(t, rr, http.StatusForbidden, "You do not have permission to modify this user")
}
