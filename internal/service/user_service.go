package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskhub/internal/apierr"
	"taskhub/internal/auth"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

const bcryptCost = 10

// Expected authentication failures, carrying the status they map to.
var (
	// ErrUserExists is returned when a registration collides on username or email.
	ErrUserExists = apierr.Conflict("user with email or username already exists")
	// ErrUserNotFound is returned when no user matches the login identifier.
	ErrUserNotFound = apierr.NotFound("user not found")
	// ErrPasswordRequired is returned when the login password is missing.
	ErrPasswordRequired = apierr.BadRequest("password is required")
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = apierr.Unauthorized("invalid credentials")
	// ErrInvalidRefreshToken is returned when a refresh token fails
	// verification or no longer matches the value stored on the user record.
	ErrInvalidRefreshToken = apierr.Unauthorized("invalid or expired refresh token")
	// ErrInvalidOldPassword is returned when a password change presents a
	// wrong current password.
	ErrInvalidOldPassword = apierr.BadRequest("invalid old password")
)

// TokenPair bundles the two credentials minted on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService drives the session lifecycle: anonymous -> authenticated ->
// anonymous (logout) or re-authenticated (refresh).
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, identifier, password string) (*model.User, *TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ChangePassword(ctx context.Context, user *model.User, oldPassword, newPassword string) error
}

type userService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
}

// NewUserService creates a user service.
func NewUserService(users repository.UserRepository, tokens *auth.TokenService) UserService {
	return &userService{users: users, tokens: tokens}
}

// Register creates a new user with a hashed password. Username and email
// collisions yield ErrUserExists regardless of which field collided.
func (s *userService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check user existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login authenticates by username or email. The unknown-user check runs
// before the missing-password check, so an unknown identifier is reported as
// 404 even when no password was sent.
func (s *userService) Login(ctx context.Context, identifier, password string) (*model.User, *TokenPair, error) {
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}

	if password == "" {
		return nil, nil, ErrPasswordRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.rotateTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout clears the stored refresh token, ending the session.
func (s *userService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// Refresh verifies an incoming refresh token against both its signature and
// the value currently stored on the user record. A mismatch means the token
// was rotated away (a later login or refresh) and is rejected.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return nil, ErrInvalidRefreshToken
	}

	return s.rotateTokens(ctx, user)
}

// ChangePassword replaces the password after verifying the current one.
func (s *userService) ChangePassword(ctx context.Context, user *model.User, oldPassword, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidOldPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// rotateTokens mints a fresh pair and persists the refresh token on the user
// record, invalidating whatever token was stored before. This gives each user
// single-session semantics.
func (s *userService) rotateTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, &refresh); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
