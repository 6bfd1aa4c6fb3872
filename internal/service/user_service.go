package service

import (
	"context"
	"errors"
	"strings"

	"ticket-service/internal/auth"
	"ticket-service/internal/models"
	"ticket-service/internal/util"

	"go.uber.org/zap"
)

// UserStore is the credential persistence the user service needs
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User, roleName string) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	UpdateUserProfile(ctx context.Context, user *models.User) error
	GetRoleByID(ctx context.Context, id int64) (*models.Role, error)
	UpdateUserRole(ctx context.Context, userID, roleID int64) error
}

// TokenIssuer signs bearer tokens
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

// UserService handles registration, login and account management
type UserService struct {
	store  UserStore
	tokens TokenIssuer
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(store UserStore, tokens TokenIssuer) *UserService {
	return &UserService{store: store, tokens: tokens, logger: util.GetLogger()}
}

// RegisterRequest represents a sign-up
type RegisterRequest struct {
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=6"`
	FirstName string  `json:"first_name" binding:"required,notblank"`
	LastName  string  `json:"last_name" binding:"required,notblank"`
	Phone     *string `json:"phone"`
}

func (RegisterRequest) messages() validationMessages {
	return validationMessages{
		"email":      "Please provide a valid email",
		"password":   "Password must be at least 6 characters",
		"first_name": "First name is required",
		"last_name":  "Last name is required",
	}
}

// LoginRequest represents a sign-in
type LoginRequest struct {
	Email    string `json:"email" binding:"required,notblank"`
	Password string `json:"password" binding:"required"`
}

func (LoginRequest) messages() validationMessages {
	return validationMessages{"": "Email and password are required"}
}

// AuthResult is a signed token with the account it was issued for
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an account with the user role and signs it in
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (result *AuthResult, err error) {
	ctx, span := util.StartSpan(ctx, "UserService.Register")
	defer func() { util.EndSpan(span, err) }()

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     req.Email,
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     emptyToNil(req.Phone),
	}
	if err := s.store.CreateUser(ctx, user, models.RoleUser); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return s.signIn(user)
}

// Login checks credentials and issues a token
func (s *UserService) Login(ctx context.Context, req LoginRequest) (result *AuthResult, err error) {
	ctx, span := util.StartSpan(ctx, "UserService.Login")
	defer func() { util.EndSpan(span, err) }()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Info("Rejected login", zap.Int64("user_id", user.ID))
		return nil, models.ErrBadCredentials
	}

	return s.signIn(user)
}

func (s *UserService) signIn(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(auth.Identity{UserID: user.ID, Email: user.Email, Role: user.RoleName})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Profile returns the caller's account
func (s *UserService) Profile(ctx context.Context, caller auth.Identity) (*models.User, error) {
	return s.store.GetUserByID(ctx, caller.UserID)
}

// ProfileUpdate carries the fields a user may change on their own account
type ProfileUpdate struct {
	FirstName       string  `json:"first_name" binding:"required,notblank"`
	LastName        string  `json:"last_name" binding:"required,notblank"`
	Phone           *string `json:"phone"`
	CurrentPassword string  `json:"current_password" binding:"required_with=NewPassword"`
	NewPassword     string  `json:"new_password" binding:"omitempty,min=6"`
}

func (ProfileUpdate) messages() validationMessages {
	return validationMessages{
		"first_name":       "First name and last name are required",
		"last_name":        "First name and last name are required",
		"current_password": "Current password is required to set a new password",
		"new_password":     "Password must be at least 6 characters",
	}
}

// UpdateProfile changes names and phone, and the password when the current one is given
func (s *UserService) UpdateProfile(ctx context.Context, caller auth.Identity, req ProfileUpdate) (err error) {
	ctx, span := util.StartSpan(ctx, "UserService.UpdateProfile")
	defer func() { util.EndSpan(span, err) }()

	if err := validateRequest(req); err != nil {
		return err
	}

	update := &models.User{
		ID:        caller.UserID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     emptyToNil(req.Phone),
	}

	if req.NewPassword != "" {
		user, err := s.store.GetUserByID(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if !auth.CheckPassword(user.Password, req.CurrentPassword) {
			return models.ErrWrongPassword
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			return err
		}
		update.Password = hash
	}

	return s.store.UpdateUserProfile(ctx, update)
}

// List returns every account, newest first
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.GetUsers(ctx)
}

// SetRole assigns roleID to userID
func (s *UserService) SetRole(ctx context.Context, userID, roleID int64) error {
	if roleID < 1 {
		return models.NewValidationError("Role ID is required")
	}
	if _, err := s.store.GetRoleByID(ctx, roleID); err != nil {
		return err
	}
	if userID < 1 {
		return models.ErrUserNotFound
	}
	if err := s.store.UpdateUserRole(ctx, userID, roleID); err != nil {
		return err
	}

	s.logger.Info("User role updated", zap.Int64("user_id", userID), zap.Int64("role_id", roleID))
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
