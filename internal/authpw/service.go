// Package authpw provides username/email + password registration and sign-in.
package authpw

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/store"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInactiveUser       = errors.New("inactive user")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrMissingFields      = errors.New("email, username and password are required")
)

// MinPasswordLength is enforced on every password write.
const MinPasswordLength = 8

// Service provides password authentication
type Service struct {
	store UserStore
	cost  int
}

// UserStore defines the storage interface for auth
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
	GetUserByLogin(ctx context.Context, login string) (store.User, error)
	GetUserByID(ctx context.Context, id int64) (store.User, error)
	CreateUser(ctx context.Context, user store.User) (store.User, error)
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error
}

func NewService(store UserStore) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost}
}

// RegisterRequest contains sign-up parameters
type RegisterRequest struct {
	Email    string
	Username string
	Password string
	FullName string
}

// Register creates an active account with the default role.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (store.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" || req.Password == "" {
		return store.User{}, ErrMissingFields
	}
	if len(req.Password) < MinPasswordLength {
		return store.User{}, ErrWeakPassword
	}

	if err := s.ensureFree(ctx, email, username); err != nil {
		return store.User{}, err
	}

	hash, err := s.Hash(req.Password)
	if err != nil {
		return store.User{}, err
	}

	user, err := s.store.CreateUser(ctx, store.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		IsActive:     true,
		Role:         domain.RoleUser,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return store.User{}, ErrEmailTaken
		}
		return store.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *Service) ensureFree(ctx context.Context, email, username string) error {
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup email: %w", err)
	}
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup username: %w", err)
	}
	return nil
}

// Authenticate checks a username-or-email and password pair.
func (s *Service) Authenticate(ctx context.Context, login, password string) (store.User, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		return store.User{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByLogin(ctx, login)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, fmt.Errorf("lookup user: %w", err)
	}

	// OAuth-only accounts have no password and cannot sign in this way.
	if user.PasswordHash == "" || !Matches(user.PasswordHash, password) {
		return store.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return store.User{}, ErrInactiveUser
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new one.
// Accounts created through OAuth have no current password and may set one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if len(next) < MinPasswordLength {
		return ErrWeakPassword
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash != "" && !Matches(user.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := s.Hash(next)
	if err != nil {
		return err
	}
	return s.store.UpdateUserPassword(ctx, userID, hash)
}

// SetPassword replaces a password without checking the old one. Used by the
// admin CLI.
func (s *Service) SetPassword(ctx context.Context, userID int64, password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := s.Hash(password)
	if err != nil {
		return err
	}
	return s.store.UpdateUserPassword(ctx, userID, hash)
}

func (s *Service) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
