package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/internal/database"
	"github.com/fkhayef/splitledger/internal/money"
	"github.com/fkhayef/splitledger/internal/user"
)

// foreignKeyViolation is the Postgres SQLSTATE for a missing referenced row
const foreignKeyViolation = "23503"

// Repository handles settlement data persistence and the balance snapshot
// read
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create appends a settlement under the scope's ledger lock. With settle set,
// the amount is derived from the balances read after the lock is taken, so
// two requests to settle the same debt cannot both record it.
func (r *Repository) Create(ctx context.Context, s *Settlement, settle *SettleAll) (*Settlement, error) {
	var settleErr error
	err := database.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		if err := database.LockScope(ctx, tx, s.GroupID, s.FromUserID, s.ToUserID); err != nil {
			return err
		}

		if settle != nil {
			snap, err := readSnapshot(ctx, tx, settle.Filter)
			if err != nil {
				return err
			}
			amount, err := settle.Amount(snap)
			if err != nil {
				settleErr = err
				return err
			}
			s.Amount = amount
		}

		query := `
			INSERT INTO settlements (group_id, trip, from_user_id, to_user_id, amount_minor, currency_code, note, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
			RETURNING id, created_at
		`
		return tx.QueryRowContext(ctx, query,
			s.GroupID,
			s.Trip,
			s.FromUserID,
			s.ToUserID,
			s.Amount.Minor(),
			s.Amount.Currency().String(),
			s.Note,
			s.CreatedBy,
		).Scan(&s.ID, &s.CreatedAt)
	})
	if err != nil {
		if settleErr != nil {
			return nil, settleErr
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}

	return s, nil
}

// List retrieves settlements matching filter, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Settlement, int, error) {
	conds := []string{"s.group_id = $1"}
	args := []any{filter.GroupID}
	if filter.Trip != nil {
		args = append(args, *filter.Trip)
		conds = append(conds, fmt.Sprintf("s.trip = $%d", len(args)))
	}
	if filter.ViewerID != 0 {
		args = append(args, filter.ViewerID)
		conds = append(conds, fmt.Sprintf(
			"(s.from_user_id = $%[1]d OR s.to_user_id = $%[1]d OR s.created_by = $%[1]d)", len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM settlements s WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT s.id, s.group_id, s.trip, s.from_user_id, s.to_user_id, s.amount_minor, s.currency_code,
		       COALESCE(s.note, ''), s.created_by, s.created_at,
		       f.username AS from_username, t.username AS to_username
		FROM settlements s
		JOIN users f ON s.from_user_id = f.id
		JOIN users t ON s.to_user_id = t.id
		WHERE %s
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*Settlement
	for rows.Next() {
		var (
			s        = &Settlement{}
			minor    int64
			currency string
		)
		if err := rows.Scan(
			&s.ID,
			&s.GroupID,
			&s.Trip,
			&s.FromUserID,
			&s.ToUserID,
			&minor,
			&currency,
			&s.Note,
			&s.CreatedBy,
			&s.CreatedAt,
			&s.FromUsername,
			&s.ToUsername,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan settlement: %w", err)
		}
		s.Amount = money.Signed(minor, money.Currency(currency))
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, total, nil
}

// LoadSnapshot reads every live expense, split and settlement selected by
// filter inside one repeatable-read transaction, so concurrent writers can
// never leave the aggregator with half an expense.
func (r *Repository) LoadSnapshot(ctx context.Context, filter SnapshotFilter) (*Snapshot, error) {
	var snap *Snapshot
	err := database.WithTx(ctx, r.db, database.Snapshot, func(tx *sql.Tx) error {
		var err error
		snap, err = readSnapshot(ctx, tx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func readSnapshot(ctx context.Context, tx *sql.Tx, filter SnapshotFilter) (*Snapshot, error) {
	expenses, err := loadExpenses(ctx, tx, filter)
	if err != nil {
		return nil, err
	}
	settlements, err := loadSettlements(ctx, tx, filter)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Expenses: expenses, Settlements: settlements}, nil
}

func scopeConditions(alias string, filter SnapshotFilter) ([]string, []any) {
	conds := []string{alias + ".group_id = $1", alias + ".currency_code = $2"}
	args := []any{filter.Scope.GroupID, filter.Currency.String()}
	if filter.Scope.Trip != "" {
		args = append(args, filter.Scope.Trip)
		conds = append(conds, fmt.Sprintf("%s.trip = $%d", alias, len(args)))
	}
	return conds, args
}

func loadExpenses(ctx context.Context, tx *sql.Tx, filter SnapshotFilter) ([]balance.ExpenseSnapshot, error) {
	conds, args := scopeConditions("e", filter)
	conds = append(conds, "NOT e.deleted")
	if filter.ViewerID != 0 {
		args = append(args, filter.ViewerID)
		conds = append(conds, fmt.Sprintf(
			"(e.payer_id = $%[1]d OR e.created_by = $%[1]d OR EXISTS (SELECT 1 FROM expense_splits x WHERE x.expense_id = e.id AND x.user_id = $%[1]d))",
			len(args)))
	}

	query := `
		SELECT e.id, e.group_id, e.trip, e.payer_id, e.amount_minor, e.currency_code, e.created_at
		FROM expenses e
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY e.id
	`
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	defer rows.Close()

	var (
		expenses []balance.ExpenseSnapshot
		ids      []int64
	)
	for rows.Next() {
		var (
			e        balance.ExpenseSnapshot
			minor    int64
			currency string
		)
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Trip, &e.PayerID, &minor, &currency, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Amount = money.Signed(minor, money.Currency(currency))
		expenses = append(expenses, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	splits, err := loadSplits(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		for _, s := range splits[expenses[i].ID] {
			s.Owed = money.Signed(s.Owed.Minor(), expenses[i].Amount.Currency())
			expenses[i].Splits = append(expenses[i].Splits, s)
		}
	}
	return expenses, nil
}

func loadSplits(ctx context.Context, tx *sql.Tx, expenseIDs []int64) (map[int64][]balance.SplitSnapshot, error) {
	query := `
		SELECT expense_id, user_id, owed_minor
		FROM expense_splits
		WHERE expense_id = ANY($1)
		ORDER BY expense_id, id
	`
	rows, err := tx.QueryContext(ctx, query, pq.Array(expenseIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load splits: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]balance.SplitSnapshot, len(expenseIDs))
	for rows.Next() {
		var (
			expenseID int64
			s         balance.SplitSnapshot
			minor     int64
		)
		if err := rows.Scan(&expenseID, &s.UserID, &minor); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		// currency is filled in from the owning expense
		s.Owed = money.Signed(minor, "")
		out[expenseID] = append(out[expenseID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return out, nil
}

func loadSettlements(ctx context.Context, tx *sql.Tx, filter SnapshotFilter) ([]balance.SettlementSnapshot, error) {
	conds, args := scopeConditions("s", filter)
	if filter.ViewerID != 0 {
		args = append(args, filter.ViewerID)
		conds = append(conds, fmt.Sprintf(
			"(s.from_user_id = $%[1]d OR s.to_user_id = $%[1]d OR s.created_by = $%[1]d)", len(args)))
	}

	query := `
		SELECT s.id, s.group_id, s.trip, s.from_user_id, s.to_user_id, s.amount_minor, s.currency_code, s.created_at
		FROM settlements s
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY s.id
	`
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load settlements: %w", err)
	}
	defer rows.Close()

	var settlements []balance.SettlementSnapshot
	for rows.Next() {
		var (
			s        balance.SettlementSnapshot
			minor    int64
			currency string
		)
		if err := rows.Scan(&s.ID, &s.GroupID, &s.Trip, &s.FromUserID, &s.ToUserID, &minor, &currency, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		s.Amount = money.Signed(minor, money.Currency(currency))
		settlements = append(settlements, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}
