package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// PostgresRelationshipStore keeps friend requests and friendships in PostgreSQL.
type PostgresRelationshipStore struct {
	db DB
}

func NewPostgresRelationshipStore(db DB) *PostgresRelationshipStore {
	return &PostgresRelationshipStore{db: db}
}

func (s *PostgresRelationshipStore) WithinTx(ctx context.Context, fn func(tx RelationshipTx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin relationship transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(&pgRelationshipTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit relationship transaction: %w", err)
	}
	committed = true
	return nil
}

func (s *PostgresRelationshipStore) FriendsOf(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.username, f.friends_from
		 FROM friendships f
		 JOIN users u ON u.id = f.another_user_id
		 WHERE f.current_user_id = $1
		 ORDER BY f.friends_from, u.username`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	friends := []models.Friend{}
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.UserID, &f.Username, &f.FriendsFrom); err != nil {
			return nil, fmt.Errorf("scanning friend: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friends: %w", err)
	}
	return friends, nil
}

func (s *PostgresRelationshipStore) IncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	return s.listRequests(ctx,
		`SELECT u.id, u.username, r.sent_on
		 FROM friend_requests r
		 JOIN users u ON u.id = r.sender_id
		 WHERE r.receiver_id = $1
		 ORDER BY r.sent_on, u.username`,
		userID,
	)
}

func (s *PostgresRelationshipStore) OutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.PendingRequest, error) {
	return s.listRequests(ctx,
		`SELECT u.id, u.username, r.sent_on
		 FROM friend_requests r
		 JOIN users u ON u.id = r.receiver_id
		 WHERE r.sender_id = $1
		 ORDER BY r.sent_on, u.username`,
		userID,
	)
}

func (s *PostgresRelationshipStore) listRequests(ctx context.Context, query string, userID uuid.UUID) ([]models.PendingRequest, error) {
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing friend requests: %w", err)
	}
	defer rows.Close()

	requests := []models.PendingRequest{}
	for rows.Next() {
		var r models.PendingRequest
		if err := rows.Scan(&r.UserID, &r.Username, &r.SentOn); err != nil {
			return nil, fmt.Errorf("scanning friend request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friend requests: %w", err)
	}
	return requests, nil
}

func (s *PostgresRelationshipStore) Relationship(ctx context.Context, userID, otherID uuid.UUID) (models.RelationshipState, error) {
	var friends, outgoing, incoming bool
	err := s.db.QueryRow(ctx,
		`SELECT
			EXISTS(SELECT 1 FROM friendships WHERE current_user_id = $1 AND another_user_id = $2),
			EXISTS(SELECT 1 FROM friend_requests WHERE sender_id = $1 AND receiver_id = $2),
			EXISTS(SELECT 1 FROM friend_requests WHERE sender_id = $2 AND receiver_id = $1)`,
		userID, otherID,
	).Scan(&friends, &outgoing, &incoming)
	if err != nil {
		return "", fmt.Errorf("checking relationship: %w", err)
	}
	return relationshipState(friends, outgoing, incoming), nil
}

func relationshipState(friends, outgoing, incoming bool) models.RelationshipState {
	switch {
	case friends:
		return models.RelationshipFriends
	case outgoing:
		return models.RelationshipPendingOutgoing
	case incoming:
		return models.RelationshipPendingIncoming
	default:
		return models.RelationshipStrangers
	}
}

type pgRelationshipTx struct {
	tx Tx
}

// LockPair takes row locks on both users in id order so that two
// transactions on the same pair never deadlock.
func (t *pgRelationshipTx) LockPair(ctx context.Context, a, b uuid.UUID) error {
	rows, err := t.tx.Query(ctx,
		`SELECT id FROM users
		 WHERE id = $1 OR id = $2
		 ORDER BY id
		 FOR UPDATE`,
		a, b,
	)
	if err != nil {
		return fmt.Errorf("locking user pair: %w", err)
	}
	defer rows.Close()

	locked := 0
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning locked user: %w", err)
		}
		locked++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("locking user pair: %w", err)
	}

	want := 2
	if a == b {
		want = 1
	}
	if locked != want {
		return ErrUserNotFound
	}
	return nil
}

func (t *pgRelationshipTx) RequestExists(ctx context.Context, senderID, receiverID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE sender_id = $1 AND receiver_id = $2
		)`,
		senderID, receiverID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking friend request: %w", err)
	}
	return exists, nil
}

func (t *pgRelationshipTx) InsertRequest(ctx context.Context, senderID, receiverID uuid.UUID) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrDuplicate
	}

	request := &models.FriendRequest{}
	err := t.tx.QueryRow(ctx,
		`INSERT INTO friend_requests (sender_id, receiver_id)
		 VALUES ($1, $2)
		 RETURNING sender_id, receiver_id, sent_on`,
		senderID, receiverID,
	).Scan(&request.SenderID, &request.ReceiverID, &request.SentOn)
	if err != nil {
		return nil, mapWriteError("inserting friend request", err)
	}
	return request, nil
}

func (t *pgRelationshipTx) DeleteRequest(ctx context.Context, senderID, receiverID uuid.UUID) error {
	result, err := t.tx.Exec(ctx,
		"DELETE FROM friend_requests WHERE sender_id = $1 AND receiver_id = $2",
		senderID, receiverID,
	)
	if err != nil {
		return fmt.Errorf("deleting friend request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgRelationshipTx) FriendshipExists(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE current_user_id = $1 AND another_user_id = $2
		)`,
		a, b,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking friendship: %w", err)
	}
	return exists, nil
}

func (t *pgRelationshipTx) InsertFriendshipPair(ctx context.Context, a, b uuid.UUID) error {
	if a == b {
		return ErrDuplicate
	}

	_, err := t.tx.Exec(ctx,
		`INSERT INTO friendships (current_user_id, another_user_id)
		 VALUES ($1, $2), ($2, $1)`,
		a, b,
	)
	if err != nil {
		return mapWriteError("inserting friendship pair", err)
	}
	return nil
}

func (t *pgRelationshipTx) DeleteFriendshipPair(ctx context.Context, a, b uuid.UUID) error {
	result, err := t.tx.Exec(ctx,
		`DELETE FROM friendships
		 WHERE (current_user_id = $1 AND another_user_id = $2)
		    OR (current_user_id = $2 AND another_user_id = $1)`,
		a, b,
	)
	if err != nil {
		return fmt.Errorf("deleting friendship pair: %w", err)
	}
	// Both directions must go together; anything else rolls back.
	if result.RowsAffected() != 2 {
		return ErrNotFound
	}
	return nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgCheckViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrUserNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
