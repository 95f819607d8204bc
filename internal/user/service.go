package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailAlreadyInUse = errors.New("email already in use")
	ErrUserAlreadyExists = errors.New("username or email already in use")
	ErrInvalidUsername   = errors.New("username may only contain letters, digits, '_', '.' and '-'")
)

// Store is the persistence the service needs
type Store interface {
	Create(ctx context.Context, req *CreateUserRequest) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsernames(ctx context.Context, usernames []string) ([]*User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
}

// Service handles user business logic
type Service struct {
	repo Store
}

// NewService creates a new user service with repository dependency injected
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// NormalizeUsername lowercases a username and drops a leading '@', so that
// "@John" and "john" name the same user.
func NormalizeUsername(raw string) (string, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
	if name == "" {
		return "", ErrInvalidUsername
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
		default:
			return "", ErrInvalidUsername
		}
	}
	return name, nil
}

// Create creates a new user
func (s *Service) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	name, err := NormalizeUsername(req.Username)
	if err != nil {
		return nil, err
	}
	req.Username = name
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyInUse
	}

	return s.repo.Create(ctx, req)
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ResolveUsernames maps each normalized username to its user. Names with no
// user are returned in missing, in input order.
func (s *Service) ResolveUsernames(ctx context.Context, usernames []string) (found map[string]*User, missing []string, err error) {
	users, err := s.repo.GetByUsernames(ctx, usernames)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve usernames: %w", err)
	}

	found = make(map[string]*User, len(users))
	for _, u := range users {
		found[u.Username] = u
	}
	for _, name := range usernames {
		if _, ok := found[name]; !ok {
			missing = append(missing, name)
		}
	}
	return found, missing, nil
}

// Directory returns the users with the given ids, keyed by id
func (s *Service) Directory(ctx context.Context, ids []int64) (map[int64]*User, error) {
	users, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	out := make(map[int64]*User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// List retrieves all users with pagination
func (s *Service) List(ctx context.Context, page, perPage int) ([]*User, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, perPage, offset)
}
