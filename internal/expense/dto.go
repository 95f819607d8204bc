package expense

// CreateExpenseRequest represents the request to log an expense. Split holds
// the split instruction, e.g. "@john=60% @sarah paid:@mike"; when it names no
// participant the amount is split equally between the group's active members.
type CreateExpenseRequest struct {
	// GroupID 0 logs to the acting user's personal ledger
	GroupID     int64  `json:"group_id" validate:"gte=0"`
	Description string `json:"description" validate:"required,min=1,max=255"`
	Amount      string `json:"amount" validate:"required,max=32"`
	// Currency defaults to the group's currency; for a group it must match
	Currency string `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Split    string `json:"split,omitempty" validate:"max=1000"`
	Trip     string `json:"trip,omitempty" validate:"max=64"`
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID            int64            `json:"id,omitempty"`
	GroupID       int64            `json:"group_id"`
	Trip          string           `json:"trip,omitempty"`
	PayerID       int64            `json:"payer_id"`
	PayerUsername string           `json:"payer_username,omitempty"`
	CreatedBy     int64            `json:"created_by"`
	Description   string           `json:"description"`
	Amount        string           `json:"amount"`
	Currency      string           `json:"currency"`
	SplitInput    string           `json:"split_input,omitempty"`
	Deleted       bool             `json:"deleted"`
	CreatedAt     string           `json:"created_at,omitempty"`
	Splits        []*SplitResponse `json:"splits,omitempty"`
}

// SplitResponse represents the response for a split
type SplitResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Owed     string `json:"owed"`
	Kind     string `json:"kind"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	resp := &ExpenseResponse{
		ID:            e.ID,
		GroupID:       e.GroupID,
		Trip:          e.Trip,
		PayerID:       e.PayerID,
		PayerUsername: e.PayerUsername,
		CreatedBy:     e.CreatedBy,
		Description:   e.Description,
		Amount:        e.Amount.Text(),
		Currency:      e.Amount.Currency().String(),
		SplitInput:    e.SplitInput,
		Deleted:       e.Deleted,
	}
	if !e.CreatedAt.IsZero() {
		resp.CreatedAt = e.CreatedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// ToResponse converts a Split model to a SplitResponse DTO
func (s *Split) ToResponse() *SplitResponse {
	return &SplitResponse{
		UserID:   s.UserID,
		Username: s.Username,
		Owed:     s.Owed.Text(),
		Kind:     string(s.Kind),
	}
}

// ToResponse renders the expense with its splits
func (e *ExpenseWithSplits) ToResponse() *ExpenseResponse {
	resp := e.Expense.ToResponse()
	resp.Splits = make([]*SplitResponse, len(e.Splits))
	for i, s := range e.Splits {
		resp.Splits[i] = s.ToResponse()
	}
	return resp
}
