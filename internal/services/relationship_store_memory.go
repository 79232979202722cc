package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

type orderedPair struct {
	from uuid.UUID
	to   uuid.UUID
}

type memoryRecord struct {
	at  time.Time
	seq uint64
}

// MemoryRelationshipStore is an in-process RelationshipStore. Transactions are
// fully serialized and undone on error.
type MemoryRelationshipStore struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]string
	requests    map[orderedPair]memoryRecord
	friendships map[orderedPair]memoryRecord
	seq         uint64
	now         func() time.Time
}

func NewMemoryRelationshipStore() *MemoryRelationshipStore {
	return &MemoryRelationshipStore{
		users:       make(map[uuid.UUID]string),
		requests:    make(map[orderedPair]memoryRecord),
		friendships: make(map[orderedPair]memoryRecord),
		now:         time.Now,
	}
}

// RegisterUser makes a user known to the store. Unknown users cannot be locked
// and do not appear in listings.
func (s *MemoryRelationshipStore) RegisterUser(id uuid.UUID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = username
}

// RemoveUser deletes a user along with every request and friendship row that
// references them.
func (s *MemoryRelationshipStore) RemoveUser(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	for p := range s.requests {
		if p.from == id || p.to == id {
			delete(s.requests, p)
		}
	}
	for p := range s.friendships {
		if p.from == id || p.to == id {
			delete(s.friendships, p)
		}
	}
}

func (s *MemoryRelationshipStore) WithinTx(ctx context.Context, fn func(tx RelationshipTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryRelationshipTx{store: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *MemoryRelationshipStore) FriendsOf(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		friend models.Friend
		seq    uint64
	}
	var entries []entry
	for p, rec := range s.friendships {
		if p.from != userID {
			continue
		}
		username, ok := s.users[p.to]
		if !ok {
			continue
		}
		entries = append(entries, entry{
			friend: models.Friend{UserID: p.to, Username: username, FriendsFrom: rec.at},
			seq:    rec.seq,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].friend.FriendsFrom.Equal(entries[j].friend.FriendsFrom) {
			return entries[i].friend.FriendsFrom.Before(entries[j].friend.FriendsFrom)
		}
		return entries[i].seq < entries[j].seq
	})

	friends := make([]models.Friend, 0, len(entries))
	for _, e := range entries {
		friends = append(friends, e.friend)
	}
	return friends, nil
}

func (s *MemoryRelationshipStore) IncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	return s.listRequests(func(p orderedPair) (uuid.UUID, bool) {
		return p.from, p.to == userID
	}), nil
}

func (s *MemoryRelationshipStore) OutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	return s.listRequests(func(p orderedPair) (uuid.UUID, bool) {
		return p.to, p.from == userID
	}), nil
}

func (s *MemoryRelationshipStore) listRequests(match func(orderedPair) (uuid.UUID, bool)) []models.PendingRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		request models.PendingRequest
		seq     uint64
	}
	var entries []entry
	for p, rec := range s.requests {
		other, ok := match(p)
		if !ok {
			continue
		}
		username, known := s.users[other]
		if !known {
			continue
		}
		entries = append(entries, entry{
			request: models.PendingRequest{UserID: other, Username: username, SentOn: rec.at},
			seq:     rec.seq,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].request.SentOn.Equal(entries[j].request.SentOn) {
			return entries[i].request.SentOn.Before(entries[j].request.SentOn)
		}
		return entries[i].seq < entries[j].seq
	})

	requests := make([]models.PendingRequest, 0, len(entries))
	for _, e := range entries {
		requests = append(requests, e.request)
	}
	return requests
}

func (s *MemoryRelationshipStore) Relationship(ctx context.Context, userID, otherID uuid.UUID) (models.RelationshipState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, friends := s.friendships[orderedPair{userID, otherID}]
	_, outgoing := s.requests[orderedPair{userID, otherID}]
	_, incoming := s.requests[orderedPair{otherID, userID}]
	return relationshipState(friends, outgoing, incoming), nil
}

func (s *MemoryRelationshipStore) nextRecord() memoryRecord {
	s.seq++
	return memoryRecord{at: s.now().UTC(), seq: s.seq}
}

// memoryRelationshipTx runs with the store's write lock held.
type memoryRelationshipTx struct {
	store *MemoryRelationshipStore
	undo  []func()
}

func (t *memoryRelationshipTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memoryRelationshipTx) LockPair(ctx context.Context, a, b uuid.UUID) error {
	if _, ok := t.store.users[a]; !ok {
		return ErrUserNotFound
	}
	if _, ok := t.store.users[b]; !ok {
		return ErrUserNotFound
	}
	return nil
}

func (t *memoryRelationshipTx) RequestExists(ctx context.Context, senderID, receiverID uuid.UUID) (bool, error) {
	_, ok := t.store.requests[orderedPair{senderID, receiverID}]
	return ok, nil
}

func (t *memoryRelationshipTx) InsertRequest(ctx context.Context, senderID, receiverID uuid.UUID) (*models.FriendRequest, error) {
	key := orderedPair{senderID, receiverID}
	if senderID == receiverID {
		return nil, ErrDuplicate
	}
	if _, ok := t.store.requests[key]; ok {
		return nil, ErrDuplicate
	}
	if err := t.requireUsers(senderID, receiverID); err != nil {
		return nil, err
	}

	rec := t.store.nextRecord()
	t.store.requests[key] = rec
	t.undo = append(t.undo, func() { delete(t.store.requests, key) })

	return &models.FriendRequest{SenderID: senderID, ReceiverID: receiverID, SentOn: rec.at}, nil
}

func (t *memoryRelationshipTx) DeleteRequest(ctx context.Context, senderID, receiverID uuid.UUID) error {
	key := orderedPair{senderID, receiverID}
	rec, ok := t.store.requests[key]
	if !ok {
		return ErrNotFound
	}
	delete(t.store.requests, key)
	t.undo = append(t.undo, func() { t.store.requests[key] = rec })
	return nil
}

func (t *memoryRelationshipTx) FriendshipExists(ctx context.Context, a, b uuid.UUID) (bool, error) {
	_, ok := t.store.friendships[orderedPair{a, b}]
	return ok, nil
}

func (t *memoryRelationshipTx) InsertFriendshipPair(ctx context.Context, a, b uuid.UUID) error {
	forward, backward := orderedPair{a, b}, orderedPair{b, a}
	if a == b {
		return ErrDuplicate
	}
	if _, ok := t.store.friendships[forward]; ok {
		return ErrDuplicate
	}
	if _, ok := t.store.friendships[backward]; ok {
		return ErrDuplicate
	}
	if err := t.requireUsers(a, b); err != nil {
		return err
	}

	rec := t.store.nextRecord()
	t.store.friendships[forward] = rec
	t.store.friendships[backward] = rec
	t.undo = append(t.undo, func() {
		delete(t.store.friendships, forward)
		delete(t.store.friendships, backward)
	})
	return nil
}

func (t *memoryRelationshipTx) DeleteFriendshipPair(ctx context.Context, a, b uuid.UUID) error {
	forward, backward := orderedPair{a, b}, orderedPair{b, a}
	fwdRec, fwdOK := t.store.friendships[forward]
	bwdRec, bwdOK := t.store.friendships[backward]
	if !fwdOK || !bwdOK {
		return ErrNotFound
	}

	delete(t.store.friendships, forward)
	delete(t.store.friendships, backward)
	t.undo = append(t.undo, func() {
		t.store.friendships[forward] = fwdRec
		t.store.friendships[backward] = bwdRec
	})
	return nil
}

func (t *memoryRelationshipTx) requireUsers(ids ...uuid.UUID) error {
	for _, id := range ids {
		if _, ok := t.store.users[id]; !ok {
			return ErrUserNotFound
		}
	}
	return nil
}

var _ RelationshipStore = (*MemoryRelationshipStore)(nil)
var _ RelationshipStore = (*PostgresRelationshipStore)(nil)
