package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/money"
	"github.com/fkhayef/splitledger/internal/user"
	"github.com/fkhayef/splitledger/pkg/logger"
	"github.com/fkhayef/splitledger/pkg/metrics"
)

// Common errors
var (
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrNotPayer             = errors.New("only the payer can delete an expense")
	ErrAlreadyDeleted       = errors.New("expense is already deleted")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrCurrencyMismatch     = errors.New("currency does not match the group's currency")
	ErrUnknownUser          = errors.New("unknown user")
	ErrParticipantNotMember = errors.New("participant is not an active member of this group")
)

// Store is the persistence the service needs
type Store interface {
	Create(ctx context.Context, expense *Expense, splits []*Split) (*ExpenseWithSplits, error)
	GetByID(ctx context.Context, id int64) (*Expense, error)
	GetSplits(ctx context.Context, expenseID int64) ([]*Split, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Expense, int, error)
	SoftDelete(ctx context.Context, expense *Expense) (bool, error)
}

// Users resolves mentions to registered users
type Users interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	ResolveUsernames(ctx context.Context, usernames []string) (map[string]*user.User, []string, error)
}

// Groups answers membership questions
type Groups interface {
	GetByID(ctx context.Context, id int64) (*group.Group, error)
	RequireMember(ctx context.Context, groupID, userID int64) (*group.GroupMember, error)
	ActiveMembers(ctx context.Context, groupID int64) ([]*group.GroupMember, error)
}

// Service handles expense business logic
type Service struct {
	repo            Store
	users           Users
	groups          Groups
	defaultCurrency money.Currency
	log             *logger.Logger
	metrics         *metrics.LedgerMetrics
}

// NewService creates a new expense service with dependencies injected
func NewService(repo Store, users Users, groups Groups, defaultCurrency money.Currency, log *logger.Logger, m *metrics.LedgerMetrics) *Service {
	return &Service{
		repo:            repo,
		users:           users,
		groups:          groups,
		defaultCurrency: defaultCurrency,
		log:             log,
		metrics:         m,
	}
}

// CreateExpense parses the split instruction and records the expense with
// its splits. The acting user pays unless the instruction says paid:@user.
func (s *Service) CreateExpense(ctx context.Context, actorID int64, req *CreateExpenseRequest) (*ExpenseWithSplits, error) {
	draft, err := s.prepare(ctx, actorID, req)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, draft.Expense, draft.Splits)
	if err != nil {
		return nil, err
	}

	scope := "group"
	if created.Expense.GroupID == balance.PersonalGroupID {
		scope = "personal"
	}
	s.metrics.IncExpenseLogged(scope)
	s.log.Ctx(ctx).Info().
		Int64("expense_id", created.Expense.ID).
		Int64("group_id", created.Expense.GroupID).
		Int64("payer_id", created.Expense.PayerID).
		Str("amount", created.Expense.Amount.Display()).
		Int("participants", len(created.Splits)).
		Msg("expense logged")
	return created, nil
}

// PreviewExpense runs the same parsing and checks as CreateExpense without
// recording anything
func (s *Service) PreviewExpense(ctx context.Context, actorID int64, req *CreateExpenseRequest) (*ExpenseWithSplits, error) {
	return s.prepare(ctx, actorID, req)
}

func (s *Service) prepare(ctx context.Context, actorID int64, req *CreateExpenseRequest) (*ExpenseWithSplits, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var (
		currency = s.defaultCurrency
		fallback []split.UserRef
		members  map[string]bool
	)
	if req.GroupID != balance.PersonalGroupID {
		g, err := s.groups.GetByID(ctx, req.GroupID)
		if err != nil {
			return nil, err
		}
		if _, err := s.groups.RequireMember(ctx, req.GroupID, actorID); err != nil {
			return nil, err
		}
		active, err := s.groups.ActiveMembers(ctx, req.GroupID)
		if err != nil {
			return nil, err
		}
		members = make(map[string]bool, len(active))
		for _, m := range active {
			members[m.Username] = true
			fallback = append(fallback, split.NewUserRef(m.Username))
		}
		currency = g.Currency
	} else {
		fallback = []split.UserRef{split.NewUserRef(actor.Username)}
	}

	if req.Currency != "" {
		requested, err := money.ParseCurrency(req.Currency)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		if members != nil && requested != currency {
			return nil, fmt.Errorf("%w: group uses %s", ErrCurrencyMismatch, currency)
		}
		currency = requested
	}

	total, err := money.Parse(req.Amount, currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}

	result, err := split.ParseSplits(split.Tokenize(req.Split), total,
		split.WithFallback(fallback...),
		split.WithPayer(split.NewUserRef(actor.Username)),
	)
	if err != nil {
		var splitErr *split.Error
		if errors.As(err, &splitErr) {
			s.metrics.IncSplitRejected(string(splitErr.Code))
		}
		s.log.Ctx(ctx).Warn().Err(err).Str("split", req.Split).Msg("split rejected")
		return nil, err
	}

	names := make([]string, 0, len(result.Order)+1)
	for _, ref := range result.Order {
		names = append(names, string(ref))
	}
	if result.PayerOverride != nil {
		if _, listed := result.Kinds[*result.PayerOverride]; !listed {
			names = append(names, string(*result.PayerOverride))
		}
	}

	found, missing, err := s.users.ResolveUsernames(ctx, names)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: @%s", ErrUnknownUser, strings.Join(missing, ", @"))
	}
	if members != nil {
		var outsiders []string
		for _, name := range names {
			if !members[name] {
				outsiders = append(outsiders, name)
			}
		}
		if len(outsiders) > 0 {
			return nil, fmt.Errorf("%w: @%s", ErrParticipantNotMember, strings.Join(outsiders, ", @"))
		}
	}

	payer := actor
	if result.PayerOverride != nil {
		payer = found[string(*result.PayerOverride)]
	}

	expense := &Expense{
		GroupID:       req.GroupID,
		Trip:          strings.TrimSpace(req.Trip),
		PayerID:       payer.ID,
		PayerUsername: payer.Username,
		CreatedBy:     actor.ID,
		Description:   strings.TrimSpace(req.Description),
		Amount:        total,
		SplitInput:    strings.TrimSpace(req.Split),
	}
	splits := make([]*Split, 0, len(result.Order))
	for _, ref := range result.Order {
		u := found[string(ref)]
		splits = append(splits, &Split{
			UserID:   u.ID,
			Owed:     result.PerUser[ref],
			Kind:     result.Kinds[ref],
			Username: u.Username,
		})
	}

	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

// GetExpenseByID retrieves an expense with its splits. Group expenses are
// visible to active members; personal ones to the people they involve.
func (s *Service) GetExpenseByID(ctx context.Context, actorID, id int64) (*ExpenseWithSplits, error) {
	expense, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, ErrExpenseNotFound
	}

	splits, err := s.repo.GetSplits(ctx, id)
	if err != nil {
		return nil, err
	}

	if expense.GroupID != balance.PersonalGroupID {
		if _, err := s.groups.RequireMember(ctx, expense.GroupID, actorID); err != nil {
			return nil, err
		}
	} else if !involves(expense, splits, actorID) {
		return nil, ErrExpenseNotFound
	}

	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

func involves(expense *Expense, splits []*Split, userID int64) bool {
	if expense.PayerID == userID || expense.CreatedBy == userID {
		return true
	}
	for _, s := range splits {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// ListExpenses retrieves the expenses of a scope. Group 0 lists the acting
// user's personal ledger.
func (s *Service) ListExpenses(ctx context.Context, actorID int64, filter ListFilter, page, perPage int) ([]*Expense, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	if filter.GroupID == balance.PersonalGroupID {
		filter.ViewerID = actorID
	} else if _, err := s.groups.RequireMember(ctx, filter.GroupID, actorID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, filter, perPage, offset)
}

// DeleteExpense soft-deletes an expense. Only the payer may delete it; the
// row stays on the ledger flagged as deleted and stops counting toward
// balances.
func (s *Service) DeleteExpense(ctx context.Context, actorID, id int64) error {
	expense, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if expense == nil {
		return ErrExpenseNotFound
	}
	if expense.PayerID != actorID {
		return ErrNotPayer
	}

	deleted, err := s.repo.SoftDelete(ctx, expense)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAlreadyDeleted
	}

	s.log.Ctx(ctx).Info().
		Int64("expense_id", id).
		Int64("group_id", expense.GroupID).
		Msg("expense deleted")
	return nil
}
