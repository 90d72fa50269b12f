package auth

import (
	"context"
	"strings"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/pkg/logger"
)

// LoginResult is what a successful login returns.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// Service handles authentication: credential verification and token
// issuance. Role evaluation stays in the HTTP middleware.
type Service struct {
	users Repository
	jwt   *JWTService
}

// NewService constructs an auth service.
func NewService(users Repository, jwtService *JWTService) *Service {
	return &Service{users: users, jwt: jwtService}
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.NewValidation("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Same response as a wrong password so the endpoint does
			// not leak which emails exist.
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(user.ID.String(), user.Email, user.Roles)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.jwt.TTL()),
		User:      user,
	}, nil
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, email, password, fullName string, roles []string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperror.NewDuplicate("user", "email", email)
	} else if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}

	now := time.Now()
	user := &User{
		ID:           id.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Roles:        roles,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureSeedUser creates the initial admin account when the user table
// is empty. Called at startup with credentials from the environment.
func (s *Service) EnsureSeedUser(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	user, err := s.Register(ctx, email, password, "Administrator", []string{RoleAdmin})
	if err != nil {
		return err
	}
	logger.Info(ctx, "seed admin user created", "user_id", user.ID, "email", user.Email)
	return nil
}
