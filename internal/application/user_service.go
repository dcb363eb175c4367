package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// UserService orchestrates validation and persistence for users.
type UserService struct {
	users  UserRepository
	logger *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository) *UserService {
	return NewUserServiceWithLogger(users, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new user. The id is caller
// chosen, typically an e-mail address, and must be unique.
func (s *UserService) CreateUser(ctx context.Context, input UserInput) (user User, err error) {
	if s == nil {
		err = errors.New("UserService is nil")
		return
	}

	normalized := normalizeUserInput(input)
	logger := s.loggerWith(ctx, "CreateUser", "user_id", normalized.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", failureAttrs(err)...)
			return
		}
		logger.InfoContext(ctx, "user created")
	}()

	if vErr := validateUserInput(normalized); vErr.HasErrors() {
		err = vErr
		return
	}

	user = User{ID: normalized.ID, Name: normalized.Name}
	if s.users == nil {
		return
	}

	user, err = s.users.CreateUser(ctx, user)
	err = mapRepoError(err)
	return
}

// GetUser returns a single user.
func (s *UserService) GetUser(ctx context.Context, id string) (User, error) {
	if s == nil {
		return User{}, errors.New("UserService is nil")
	}
	if s.users == nil {
		return User{}, errors.New("user repository not configured")
	}
	user, err := s.users.GetUser(ctx, strings.TrimSpace(id))
	if err != nil {
		return User{}, mapRepoError(err)
	}
	return user, nil
}

// DeleteUser removes a user. Devices managed by the user and reservations
// made by the user are left untouched.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if s == nil {
		return errors.New("UserService is nil")
	}
	if s.users == nil {
		return errors.New("user repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteUser", "user_id", id)
	if err := s.users.DeleteUser(ctx, strings.TrimSpace(id)); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete user", failureAttrs(err)...)
		return err
	}

	logger.InfoContext(ctx, "user deleted")
	return nil
}

// ListUsers returns all users ordered by name, then id.
func (s *UserService) ListUsers(ctx context.Context) ([]User, error) {
	if s == nil {
		return nil, errors.New("UserService is nil")
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	out := make([]User, len(users))
	copy(out, users)

	sort.Slice(out, func(i, j int) bool {
		if strings.EqualFold(out[i].Name, out[j].Name) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})

	return out, nil
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		ID:   strings.TrimSpace(input.ID),
		Name: strings.TrimSpace(input.Name),
	}
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.ID == "" {
		vErr.add("id", "Benutzer-ID fehlt.")
	}
	if input.Name == "" {
		vErr.add("name", "Name fehlt.")
	}

	return vErr
}
