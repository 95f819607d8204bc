package group

import (
	"context"
	"errors"
	"fmt"

	"github.com/fkhayef/splitledger/internal/money"
	"github.com/fkhayef/splitledger/pkg/logger"
)

// Common errors
var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("user is already a member of this group")
	ErrNotAuthorized       = errors.New("not authorized to perform this action")
	ErrNotMember           = errors.New("user is not an active member of this group")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCurrency     = errors.New("invalid currency code")
)

// Store is the persistence the service needs
type Store interface {
	Create(ctx context.Context, creatorID int64, req *CreateGroupRequest, currency money.Currency) (*Group, error)
	GetByID(ctx context.Context, id int64) (*Group, error)
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Group, int, error)
	UpsertMember(ctx context.Context, groupID int64, req *AddMemberRequest) (*GroupMember, error)
	GetMembers(ctx context.Context, groupID int64) ([]*GroupMember, error)
	GetMember(ctx context.Context, groupID, userID int64) (*GroupMember, error)
	SetMemberStatus(ctx context.Context, groupID, userID int64, status MemberStatus) (bool, error)
}

// Service handles group business logic
type Service struct {
	repo            Store
	defaultCurrency money.Currency
	log             *logger.Logger
}

// NewService creates a new group service
func NewService(repo Store, defaultCurrency money.Currency, log *logger.Logger) *Service {
	return &Service{repo: repo, defaultCurrency: defaultCurrency, log: log}
}

// Create creates a new group and adds the creator as admin
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest) (*Group, error) {
	currency := s.defaultCurrency
	if req.Currency != "" {
		parsed, err := money.ParseCurrency(req.Currency)
		if err != nil {
			return nil, ErrInvalidCurrency
		}
		currency = parsed
	}

	group, err := s.repo.Create(ctx, creatorID, req, currency)
	if err != nil {
		return nil, err
	}

	s.log.Ctx(ctx).Info().
		Int64("group_id", group.ID).
		Str("currency", currency.String()).
		Msg("group created")
	return group, nil
}

// GetByID retrieves a group by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Group, error) {
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// GetByIDWithMembers retrieves a group with all its members
func (s *Service) GetByIDWithMembers(ctx context.Context, id int64) (*Group, []*GroupMember, error) {
	group, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.repo.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return group, members, nil
}

// ListByUserID retrieves all groups for a user
func (s *Service) ListByUserID(ctx context.Context, userID int64, page, perPage int) ([]*Group, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByUserID(ctx, userID, perPage, offset)
}

// AddMember adds a user to a group. Any active member may add others; a
// member who left can be added back.
func (s *Service) AddMember(ctx context.Context, actorID, groupID int64, req *AddMemberRequest) (*GroupMember, error) {
	if _, err := s.RequireMember(ctx, groupID, actorID); err != nil {
		if errors.Is(err, ErrNotMember) {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}

	existing, err := s.repo.GetMember(ctx, groupID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing.Active() {
		return nil, ErrMemberAlreadyExists
	}

	member, err := s.repo.UpsertMember(ctx, groupID, req)
	if err != nil {
		return nil, err
	}

	s.log.Ctx(ctx).Info().
		Int64("group_id", groupID).
		Int64("member_id", req.UserID).
		Msg("member added")
	return member, nil
}

// Leave marks userID as having left the group. Members may leave themselves;
// admins may remove anyone. Their expenses and balances stay on the ledger.
func (s *Service) Leave(ctx context.Context, actorID, groupID, userID int64) error {
	actor, err := s.RequireMember(ctx, groupID, actorID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			return ErrNotAuthorized
		}
		return err
	}
	if actorID != userID && actor.Role != MemberRoleAdmin {
		return ErrNotAuthorized
	}

	ok, err := s.repo.SetMemberStatus(ctx, groupID, userID, MemberStatusLeft)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMemberNotFound
	}

	s.log.Ctx(ctx).Info().
		Int64("group_id", groupID).
		Int64("member_id", userID).
		Msg("member left")
	return nil
}

// RequireMember returns the membership of userID, failing unless it is active
func (s *Service) RequireMember(ctx context.Context, groupID, userID int64) (*GroupMember, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member.Active() {
		return nil, ErrNotMember
	}
	return member, nil
}

// ActiveMembers returns the members who currently belong to the group, in
// join order. They are the default population of an equal split.
func (s *Service) ActiveMembers(ctx context.Context, groupID int64) ([]*GroupMember, error) {
	members, err := s.repo.GetMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	active := make([]*GroupMember, 0, len(members))
	for _, m := range members {
		if m.Active() {
			active = append(active, m)
		}
	}
	return active, nil
}
