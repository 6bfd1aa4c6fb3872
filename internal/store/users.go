package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ticket-service/internal/models"
)

const userSelect = `
	SELECT u.id, u.email, u.password, u.first_name, u.last_name, u.phone, u.role_id,
		r.name AS role_name, u.created_at, u.updated_at
	FROM users u
	JOIN roles r ON u.role_id = r.id`

// CreateUser inserts a user with the named role
func (s *Store) CreateUser(ctx context.Context, user *models.User, roleName string) error {
	err := s.db.GetContext(ctx, user, `
		INSERT INTO users (email, password, first_name, last_name, phone, role_id)
		SELECT $1, $2, $3, $4, $5, r.id FROM roles r WHERE r.name = $6
		RETURNING id, role_id, created_at, updated_at`,
		user.Email, user.Password, user.FirstName, user.LastName, user.Phone, roleName)
	if isUniqueViolation(err) {
		return models.ErrEmailTaken
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("role %q is not seeded", roleName)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.RoleName = roleName
	return nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, userSelect+" WHERE u.email = $1", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, userSelect+" WHERE u.id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUsers retrieves all users, newest first
func (s *Store) GetUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users, userSelect+" ORDER BY u.created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUserProfile updates names and phone, and the password hash when set
func (s *Store) UpdateUserProfile(ctx context.Context, user *models.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, phone = $3,
			password = COALESCE(NULLIF($4, ''), password), updated_at = NOW()
		WHERE id = $5`,
		user.FirstName, user.LastName, user.Phone, user.Password, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectOneRow(res, models.ErrUserNotFound)
}

// GetRoleByID retrieves a role by ID
func (s *Store) GetRoleByID(ctx context.Context, id int64) (*models.Role, error) {
	var role models.Role
	err := s.db.GetContext(ctx, &role, "SELECT id, name FROM roles WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrInvalidRole
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

// UpdateUserRole assigns a role to a user
func (s *Store) UpdateUserRole(ctx context.Context, userID, roleID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET role_id = $1, updated_at = NOW() WHERE id = $2", roleID, userID)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	return expectOneRow(res, models.ErrUserNotFound)
}
