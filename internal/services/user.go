package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
)

const userColumns = `id, username, email, password_hash, first_name, last_name, biography, is_admin, created_at, updated_at`

type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	var emailExists, usernameExists bool
	err := s.db.QueryRow(ctx,
		`SELECT
			EXISTS(SELECT 1 FROM users WHERE email = $1),
			EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($2))`,
		params.Email, params.Username,
	).Scan(&emailExists, &usernameExists)
	if err != nil {
		return nil, fmt.Errorf("checking user existence: %w", err)
	}
	if emailExists {
		return nil, ErrEmailAlreadyExists
	}
	if usernameExists {
		return nil, ErrUsernameAlreadyExists
	}

	user := &models.User{}
	err = scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, biography)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		params.Username, params.Email, params.PasswordHash, params.FirstName, params.LastName, params.Biography,
	), user)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return nil, ErrEmailAlreadyExists
			}
			return nil, ErrUsernameAlreadyExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getOne(ctx, "getting user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getOne(ctx, "getting user by username", `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, "getting user by email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// List returns a page of users ordered by username.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY username, id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// Update applies a partial profile update and returns the stored user.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, params models.UpdateUserParams) (*models.User, error) {
	user := &models.User{}
	err := scanUser(s.db.QueryRow(ctx,
		`UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			biography  = COALESCE($4, biography),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, params.FirstName, params.LastName, params.Biography,
	), user)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return user, nil
}

// Delete removes the account. Friend requests and friendships cascade.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) getOne(ctx context.Context, op, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := scanUser(s.db.QueryRow(ctx, query, arg), user)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func scanUser(row Row, user *models.User) error {
	return row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.Biography, &user.IsAdmin,
		&user.CreatedAt, &user.UpdatedAt,
	)
}
