package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"friend-chat-service/internal/models"
	"friend-chat-service/internal/repositories"
)

const (
	minSearchQueryLength = 2
	maxSearchResults     = 20
)

// UserService exposes the directory operations of the request surface.
type UserService struct {
	users repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(users repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

// Search finds up to 20 users whose username contains query, excluding the caller.
func (s *UserService) Search(ctx context.Context, callerID int64, query string) ([]models.PublicUser, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchQueryLength {
		return nil, validationError("Search query must be at least 2 characters")
	}
	users, err := s.users.SearchUsers(ctx, query, callerID, maxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

// Brief returns the public brief of a user.
func (s *UserService) Brief(ctx context.Context, userID int64) (models.PublicUser, error) {
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.PublicUser{}, notFoundError(MsgUserNotFound)
	}
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("get user: %w", err)
	}
	return user.Public(), nil
}

// Friends lists the caller's friends.
func (s *UserService) Friends(ctx context.Context, userID int64) ([]models.PublicUser, error) {
	friends, err := s.users.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

// UpdateStatus sets the durable status of the caller.
func (s *UserService) UpdateStatus(ctx context.Context, userID int64, status string) (models.PublicUser, error) {
	st := models.UserStatus(status)
	if !st.Valid() {
		return models.PublicUser{}, validationError("Status must be one of online, offline, away")
	}
	user, err := s.users.UpdateStatus(ctx, userID, st)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.PublicUser{}, notFoundError(MsgUserNotFound)
	}
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("update status: %w", err)
	}
	return user.Public(), nil
}

// Provision creates a directory entry. Only the development routes call it;
// in production the directory is owned by the user service.
func (s *UserService) Provision(ctx context.Context, username string) (models.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 30 {
		return models.User{}, validationError("Username must be between 3 and 30 characters")
	}
	user, err := s.users.CreateUser(ctx, username)
	if errors.Is(err, repositories.ErrUsernameTaken) {
		return models.User{}, conflictError("Username already taken")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
