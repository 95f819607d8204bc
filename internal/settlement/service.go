package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/money"
	"github.com/fkhayef/splitledger/internal/settlement/simplify"
	"github.com/fkhayef/splitledger/internal/user"
	"github.com/fkhayef/splitledger/pkg/logger"
	"github.com/fkhayef/splitledger/pkg/metrics"
)

// Common errors
var (
	ErrAlreadySettled   = errors.New("already settled up - nothing is owed")
	ErrCannotSettleSelf = errors.New("cannot settle with yourself")
	ErrNotParty         = errors.New("only the payer or the receiver can record a settlement")
	ErrNotGroupMember   = errors.New("user has never been a member of this group")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrCurrencyMismatch = errors.New("currency does not match the group's currency")
	ErrTripRequired     = errors.New("trip is required")
)

// Store is the persistence the service needs
type Store interface {
	Create(ctx context.Context, s *Settlement, settle *SettleAll) (*Settlement, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Settlement, int, error)
	LoadSnapshot(ctx context.Context, filter SnapshotFilter) (*Snapshot, error)
}

// Users looks up the people named in balances
type Users interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	Directory(ctx context.Context, ids []int64) (map[int64]*user.User, error)
}

// Groups answers membership questions
type Groups interface {
	GetByID(ctx context.Context, id int64) (*group.Group, error)
	GetByIDWithMembers(ctx context.Context, id int64) (*group.Group, []*group.GroupMember, error)
	RequireMember(ctx context.Context, groupID, userID int64) (*group.GroupMember, error)
}

// Service records settlements and serves every view derived from a scope's
// balances. All of them go through the same aggregator.
type Service struct {
	repo            Store
	users           Users
	groups          Groups
	defaultCurrency money.Currency
	log             *logger.Logger
	metrics         *metrics.LedgerMetrics
}

// NewService creates a new settlement service
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

// ledger is one computed scope together with the rows it was folded from
type ledger struct {
	actorID  int64
	currency money.Currency
	snapshot *Snapshot
	balances *balance.Balances
}

// scopeCurrency checks the actor may see scope and returns the currency its
// balances are kept in. A group has one currency; the personal ledger keeps
// one balance per currency and defaults to the configured one.
func (s *Service) scopeCurrency(ctx context.Context, actorID int64, scope balance.Scope, requested string) (money.Currency, error) {
	var want money.Currency
	if requested != "" {
		c, err := money.ParseCurrency(requested)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		want = c
	}

	if scope.Personal() {
		if want == "" {
			want = s.defaultCurrency
		}
		return want, nil
	}

	g, err := s.groups.GetByID(ctx, scope.GroupID)
	if err != nil {
		return "", err
	}
	if _, err := s.groups.RequireMember(ctx, scope.GroupID, actorID); err != nil {
		return "", err
	}
	if want != "" && want != g.Currency {
		return "", fmt.Errorf("%w: group uses %s", ErrCurrencyMismatch, g.Currency)
	}
	return g.Currency, nil
}

func (s *Service) load(ctx context.Context, actorID int64, scope balance.Scope, currency string) (*ledger, error) {
	c, err := s.scopeCurrency(ctx, actorID, scope, currency)
	if err != nil {
		return nil, err
	}

	snap, err := s.repo.LoadSnapshot(ctx, snapshotFilter(actorID, scope, c))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	b, err := balance.Compute(scope, snap.Expenses, snap.Settlements)
	s.metrics.ObserveBalanceDuration(time.Since(start))
	if err != nil {
		s.log.Error(ctx, "balance computation failed", err)
		return nil, fmt.Errorf("failed to compute balances: %w", err)
	}

	return &ledger{actorID: actorID, currency: c, snapshot: snap, balances: b}, nil
}

// snapshotFilter selects a scope's rows. On the personal ledger that is only
// what involves the actor.
func snapshotFilter(actorID int64, scope balance.Scope, c money.Currency) SnapshotFilter {
	filter := SnapshotFilter{Scope: scope, Currency: c}
	if scope.Personal() {
		filter.ViewerID = actorID
	}
	return filter
}

// Record appends a settlement. Without an amount it settles the whole of what
// the payer owes the receiver in the scope.
func (s *Service) Record(ctx context.Context, actorID int64, req *RecordSettlementRequest) (*Settlement, error) {
	from, to := req.FromUserID, req.ToUserID
	if from == 0 {
		from = actorID
	}
	if from == to {
		return nil, ErrCannotSettleSelf
	}
	if actorID != from && actorID != to {
		return nil, ErrNotParty
	}

	scope := balance.Scope{GroupID: req.GroupID, Trip: strings.TrimSpace(req.Trip)}
	currency, err := s.scopeCurrency(ctx, actorID, scope, req.Currency)
	if err != nil {
		return nil, err
	}

	// members who left still owe what they owed, so they may settle up
	if !scope.Personal() {
		_, members, err := s.groups.GetByIDWithMembers(ctx, scope.GroupID)
		if err != nil {
			return nil, err
		}
		known := make(map[int64]bool, len(members))
		for _, m := range members {
			known[m.UserID] = true
		}
		if !known[from] || !known[to] {
			return nil, ErrNotGroupMember
		}
	}

	names, err := s.users.Directory(ctx, []int64{from, to})
	if err != nil {
		return nil, err
	}
	if names[from] == nil || names[to] == nil {
		return nil, user.ErrUserNotFound
	}

	draft := &Settlement{
		GroupID:    scope.GroupID,
		Trip:       scope.Trip,
		FromUserID: from,
		ToUserID:   to,
		Amount:     money.Zero(currency),
		Note:       strings.TrimSpace(req.Note),
		CreatedBy:  actorID,
	}

	var settle *SettleAll
	if strings.TrimSpace(req.Amount) != "" {
		amount, err := money.Parse(req.Amount, currency)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		if !amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
		}
		draft.Amount = amount
	} else {
		settle = &SettleAll{
			Filter: snapshotFilter(actorID, scope, currency),
			Amount: func(snap *Snapshot) (money.Money, error) {
				b, err := balance.Compute(scope, snap.Expenses, snap.Settlements)
				if err != nil {
					s.log.Error(ctx, "balance computation failed", err)
					return money.Money{}, fmt.Errorf("failed to compute balances: %w", err)
				}
				// what the payer owes the receiver; nothing to settle otherwise
				owed := b.Position(to, from)
				if !owed.IsPositive() {
					return money.Money{}, ErrAlreadySettled
				}
				return owed, nil
			},
		}
	}

	settlement, err := s.repo.Create(ctx, draft, settle)
	if err != nil {
		return nil, err
	}
	settlement.FromUsername = names[from].Username
	settlement.ToUsername = names[to].Username

	s.metrics.IncSettlementRecorded()
	s.log.Ctx(ctx).Info().
		Int64("settlement_id", settlement.ID).
		Int64("group_id", settlement.GroupID).
		Int64("from_user_id", from).
		Int64("to_user_id", to).
		Str("amount", settlement.Amount.Display()).
		Msg("settlement recorded")
	return settlement, nil
}

// List retrieves the settlements of a scope. Group 0 lists the acting user's
// personal ledger.
func (s *Service) List(ctx context.Context, actorID int64, filter ListFilter, page, perPage int) ([]*Settlement, int, error) {
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

// Balances returns the outstanding pairwise balances of a scope with every
// user's net position. On the personal ledger only the acting user's pairs
// are shown.
func (s *Service) Balances(ctx context.Context, actorID int64, scope balance.Scope, currency string) (*BalancesResponse, error) {
	l, err := s.load(ctx, actorID, scope, currency)
	if err != nil {
		return nil, err
	}
	names, err := s.directory(ctx, l.balances.Users())
	if err != nil {
		return nil, err
	}

	resp := &BalancesResponse{
		GroupID:  scope.GroupID,
		Trip:     scope.Trip,
		Currency: l.currency.String(),
		Balances: pairResponses(l.outstanding(), names),
		Nets:     []*UserNetResponse{},
	}
	nets := l.balances.Nets()
	for _, id := range l.balances.Users() {
		if scope.Personal() && id != actorID {
			continue
		}
		resp.Nets = append(resp.Nets, &UserNetResponse{UserID: id, Username: names[id], Net: nets[id].Text()})
	}
	return resp, nil
}

// BalanceWith returns the balance between the acting user and another user
func (s *Service) BalanceWith(ctx context.Context, actorID int64, scope balance.Scope, otherUserID int64, currency string) (*NetBalanceResponse, error) {
	if otherUserID == actorID {
		return nil, ErrCannotSettleSelf
	}
	other, err := s.users.GetByID(ctx, otherUserID)
	if err != nil {
		return nil, err
	}
	l, err := s.load(ctx, actorID, scope, currency)
	if err != nil {
		return nil, err
	}

	// positive when the actor owes the other user
	amount := l.balances.Position(actorID, otherUserID).Negate()
	if amount.Currency() == "" {
		amount = money.Signed(amount.Minor(), l.currency)
	}

	var message string
	switch {
	case amount.Abs().Minor() < 1:
		message = fmt.Sprintf("You and %s are settled up", other.Username)
	case amount.IsPositive():
		message = fmt.Sprintf("You owe %s %s", other.Username, amount.Display())
	default:
		message = fmt.Sprintf("%s owes you %s", other.Username, amount.Abs().Display())
	}

	return &NetBalanceResponse{
		UserID:   other.ID,
		Username: other.Username,
		Amount:   amount.Text(),
		Currency: l.currency.String(),
		Message:  message,
	}, nil
}

// Plan suggests the fewest payments that clear every balance in a scope. On
// the personal ledger it lists the acting user's own debts and credits, one
// payment per person.
func (s *Service) Plan(ctx context.Context, actorID int64, scope balance.Scope, currency string) (*PlanResponse, error) {
	l, err := s.load(ctx, actorID, scope, currency)
	if err != nil {
		return nil, err
	}
	plan := l.plan()
	s.metrics.ObservePlanSize(len(plan.Payments))

	names, err := s.directory(ctx, l.balances.Users())
	if err != nil {
		return nil, err
	}
	return l.planResponse(plan, names), nil
}

// TripSummary reports, for one trip, what everyone paid and consumed, the
// balances the trip left behind and the plan that clears them.
func (s *Service) TripSummary(ctx context.Context, actorID, groupID int64, trip, currency string) (*TripSummaryResponse, error) {
	trip = strings.TrimSpace(trip)
	if trip == "" {
		return nil, ErrTripRequired
	}
	scope := balance.Scope{GroupID: groupID, Trip: trip}
	l, err := s.load(ctx, actorID, scope, currency)
	if err != nil {
		return nil, err
	}

	paid := map[int64]money.Money{}
	share := map[int64]money.Money{}
	total := money.Zero(l.currency)
	for _, e := range l.snapshot.Expenses {
		if e.Deleted {
			continue
		}
		total = total.Add(e.Amount)
		paid[e.PayerID] = addTo(paid, e.PayerID, e.Amount, l.currency)
		for _, sp := range e.Splits {
			share[sp.UserID] = addTo(share, sp.UserID, sp.Owed, l.currency)
		}
	}

	ids := make([]int64, 0, len(paid)+len(share))
	seen := map[int64]bool{}
	for _, m := range []map[int64]money.Money{paid, share} {
		for id := range m {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	names, err := s.directory(ctx, append(ids, l.balances.Users()...))
	if err != nil {
		return nil, err
	}

	plan := l.plan()
	s.metrics.ObservePlanSize(len(plan.Payments))

	resp := &TripSummaryResponse{
		GroupID:      groupID,
		Trip:         trip,
		Currency:     l.currency.String(),
		ExpenseCount: len(l.snapshot.Expenses),
		TotalSpent:   total.Text(),
		Spending:     make([]*SpendingResponse, 0, len(ids)),
		Balances:     pairResponses(l.outstanding(), names),
		Plan:         l.planResponse(plan, names),
	}
	for _, id := range ids {
		resp.Spending = append(resp.Spending, &SpendingResponse{
			UserID:   id,
			Username: names[id],
			Paid:     addTo(paid, id, money.Zero(l.currency), l.currency).Text(),
			Share:    addTo(share, id, money.Zero(l.currency), l.currency).Text(),
		})
	}
	return resp, nil
}

func addTo(m map[int64]money.Money, id int64, amount money.Money, currency money.Currency) money.Money {
	current, ok := m[id]
	if !ok {
		current = money.Zero(currency)
	}
	return current.Add(amount)
}

func (s *Service) directory(ctx context.Context, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}
	users, err := s.users.Directory(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for id, u := range users {
		names[id] = u.Username
	}
	return names, nil
}

func (l *ledger) outstanding() []balance.PairBalance {
	if l.balances.Scope().Personal() {
		return l.balances.For(l.actorID)
	}
	return l.balances.Outstanding()
}

// plan clears the scope. A personal ledger holds only the rows that involve
// the actor, so it is paid back pair by pair instead of netted across users.
func (l *ledger) plan() *simplify.Plan {
	if l.balances.Scope().Personal() {
		return simplify.Direct(l.balances, l.actorID)
	}
	return simplify.Simplify(l.balances)
}

func (l *ledger) planResponse(plan *simplify.Plan, names map[int64]string) *PlanResponse {
	payments := plan.Payments

	resp := &PlanResponse{
		Kind:     plan.Kind,
		GroupID:  plan.Scope.GroupID,
		Trip:     plan.Scope.Trip,
		Currency: l.currency.String(),
		Payments: make([]*PaymentResponse, len(payments)),
	}
	for i, p := range payments {
		resp.Payments[i] = &PaymentResponse{
			FromUserID:   p.From,
			FromUsername: names[p.From],
			ToUserID:     p.To,
			ToUsername:   names[p.To],
			Amount:       p.Amount.Text(),
		}
	}
	switch {
	case len(payments) == 0:
		resp.Message = "Everyone is settled up"
	case plan.Kind == simplify.DirectKind:
		resp.Message = "These payments settle your own balances with each person"
	default:
		resp.Message = "Optimized settlement: these payments clear every balance, and may route money between people who never shared an expense"
	}
	return resp
}

func pairResponses(pairs []balance.PairBalance, names map[int64]string) []*PairBalanceResponse {
	out := make([]*PairBalanceResponse, 0, len(pairs))
	for _, pb := range pairs {
		from, to := pb.Debtor(), pb.Creditor()
		out = append(out, &PairBalanceResponse{
			FromUserID:   from,
			FromUsername: names[from],
			ToUserID:     to,
			ToUsername:   names[to],
			Amount:       pb.Amount.Abs().Text(),
		})
	}
	return out
}
