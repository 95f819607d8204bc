package expense

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fkhayef/splitledger/internal/database"
	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/money"
)

// Repository handles expense and split data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const expenseColumns = `
	e.id, e.group_id, e.trip, e.payer_id, e.created_by, e.description,
	e.amount_minor, e.currency_code, e.split_input, e.deleted, e.created_at, u.username`

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (*Expense, error) {
	var (
		expense  = &Expense{}
		minor    int64
		currency string
	)
	err := row.Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.Trip,
		&expense.PayerID,
		&expense.CreatedBy,
		&expense.Description,
		&minor,
		&currency,
		&expense.SplitInput,
		&expense.Deleted,
		&expense.CreatedAt,
		&expense.PayerUsername,
	)
	if err != nil {
		return nil, err
	}
	expense.Amount = money.Signed(minor, money.Currency(currency))
	return expense, nil
}

// Create inserts an expense and all of its splits in one transaction, holding
// the scope's ledger lock so concurrent writers cannot interleave.
func (r *Repository) Create(ctx context.Context, expense *Expense, splits []*Split) (*ExpenseWithSplits, error) {
	err := database.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		users := []int64{expense.PayerID, expense.CreatedBy}
		for _, s := range splits {
			users = append(users, s.UserID)
		}
		if err := database.LockScope(ctx, tx, expense.GroupID, users...); err != nil {
			return err
		}

		query := `
			INSERT INTO expenses (group_id, trip, payer_id, created_by, description, amount_minor, currency_code, split_input)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at
		`
		err := tx.QueryRowContext(ctx, query,
			expense.GroupID,
			expense.Trip,
			expense.PayerID,
			expense.CreatedBy,
			expense.Description,
			expense.Amount.Minor(),
			expense.Amount.Currency().String(),
			expense.SplitInput,
		).Scan(&expense.ID, &expense.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO expense_splits (expense_id, user_id, owed_minor, kind)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare split insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range splits {
			s.ExpenseID = expense.ID
			if err := stmt.QueryRowContext(ctx, s.ExpenseID, s.UserID, s.Owed.Minor(), string(s.Kind)).Scan(&s.ID); err != nil {
				return fmt.Errorf("failed to create split: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ExpenseWithSplits{Expense: expense, Splits: splits}, nil
}

// GetByID retrieves an expense by its ID, deleted or not
func (r *Repository) GetByID(ctx context.Context, id int64) (*Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		WHERE e.id = $1
	`

	expense, err := scanExpense(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// GetSplits retrieves all splits for an expense
func (r *Repository) GetSplits(ctx context.Context, expenseID int64) ([]*Split, error) {
	query := `
		SELECT s.id, s.expense_id, s.user_id, s.owed_minor, s.kind, e.currency_code, u.username
		FROM expense_splits s
		JOIN expenses e ON s.expense_id = e.id
		JOIN users u ON s.user_id = u.id
		WHERE s.expense_id = $1
		ORDER BY s.id
	`

	rows, err := r.db.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	var splits []*Split
	for rows.Next() {
		var (
			s        = &Split{}
			minor    int64
			kind     string
			currency string
		)
		if err := rows.Scan(&s.ID, &s.ExpenseID, &s.UserID, &minor, &kind, &currency, &s.Username); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		s.Owed = money.Signed(minor, money.Currency(currency))
		s.Kind = split.Kind(kind)
		splits = append(splits, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return splits, nil
}

// List retrieves expenses matching filter, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Expense, int, error) {
	conds := []string{"e.group_id = $1"}
	args := []any{filter.GroupID}
	if filter.Trip != nil {
		args = append(args, *filter.Trip)
		conds = append(conds, fmt.Sprintf("e.trip = $%d", len(args)))
	}
	if !filter.IncludeDeleted {
		conds = append(conds, "NOT e.deleted")
	}
	if filter.ViewerID != 0 {
		args = append(args, filter.ViewerID)
		conds = append(conds, fmt.Sprintf(
			"(e.payer_id = $%[1]d OR e.created_by = $%[1]d OR EXISTS (SELECT 1 FROM expense_splits s WHERE s.expense_id = e.id AND s.user_id = $%[1]d))",
			len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM expenses e WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		WHERE %s
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT $%d OFFSET $%d
	`, expenseColumns, where, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return expenses, total, nil
}

// SoftDelete flags an expense as deleted under the scope's ledger lock. It
// reports false when the expense was already deleted.
func (r *Repository) SoftDelete(ctx context.Context, expense *Expense) (bool, error) {
	var deleted bool
	err := database.WithTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		users := []int64{expense.PayerID, expense.CreatedBy}
		if expense.GroupID == 0 {
			// split rows never change, so they are safe to read before locking
			participants, err := splitUsers(ctx, tx, expense.ID)
			if err != nil {
				return err
			}
			users = append(users, participants...)
		}
		if err := database.LockScope(ctx, tx, expense.GroupID, users...); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `UPDATE expenses SET deleted = TRUE WHERE id = $1 AND NOT deleted`, expense.ID)
		if err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		deleted = rowsAffected > 0
		return nil
	})
	return deleted, err
}

func splitUsers(ctx context.Context, tx *sql.Tx, expenseID int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT user_id FROM expense_splits WHERE expense_id = $1`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load split users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan split user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate split users: %w", err)
	}
	return ids, nil
}
