package settlement

// RecordSettlementRequest represents the request to record a payment between
// two users. FromUserID defaults to the acting user; an empty Amount settles
// whatever the payer currently owes the receiver.
type RecordSettlementRequest struct {
	// GroupID 0 records on the personal ledger
	GroupID    int64  `json:"group_id" validate:"gte=0"`
	FromUserID int64  `json:"from_user_id,omitempty" validate:"omitempty,gt=0"`
	ToUserID   int64  `json:"to_user_id" validate:"required,gt=0"`
	Amount     string `json:"amount,omitempty" validate:"max=32"`
	Currency   string `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Trip       string `json:"trip,omitempty" validate:"max=64"`
	Note       string `json:"note,omitempty" validate:"max=255"`
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID           int64  `json:"id"`
	GroupID      int64  `json:"group_id"`
	Trip         string `json:"trip,omitempty"`
	FromUserID   int64  `json:"from_user_id"`
	FromUsername string `json:"from_username,omitempty"`
	ToUserID     int64  `json:"to_user_id"`
	ToUsername   string `json:"to_username,omitempty"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Note         string `json:"note,omitempty"`
	CreatedBy    int64  `json:"created_by"`
	CreatedAt    string `json:"created_at"`
}

// PairBalanceResponse is one outstanding debt: From owes To Amount
type PairBalanceResponse struct {
	FromUserID   int64  `json:"from_user_id"`
	FromUsername string `json:"from_username,omitempty"`
	ToUserID     int64  `json:"to_user_id"`
	ToUsername   string `json:"to_username,omitempty"`
	Amount       string `json:"amount"`
}

// UserNetResponse is a user's position across the whole scope. Net is
// positive when the user is owed money.
type UserNetResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Net      string `json:"net"`
}

// BalancesResponse represents the balance view of a scope
type BalancesResponse struct {
	GroupID  int64                  `json:"group_id"`
	Trip     string                 `json:"trip,omitempty"`
	Currency string                 `json:"currency"`
	Balances []*PairBalanceResponse `json:"balances"`
	Nets     []*UserNetResponse     `json:"nets"`
}

// NetBalanceResponse represents the net balance with another user
type NetBalanceResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	// Amount is positive when you owe them and negative when they owe you
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Message  string `json:"message"` // e.g., "You owe john 50.00 SAR" or "john owes you 30.00 SAR"
}

// PaymentResponse is one suggested transfer
type PaymentResponse struct {
	FromUserID   int64  `json:"from_user_id"`
	FromUsername string `json:"from_username,omitempty"`
	ToUserID     int64  `json:"to_user_id"`
	ToUsername   string `json:"to_username,omitempty"`
	Amount       string `json:"amount"`
}

// PlanResponse is a suggested settlement plan. Kind is always
// "optimized_settlement": the payments may route money between people who
// never shared an expense.
type PlanResponse struct {
	Kind     string             `json:"kind"`
	GroupID  int64              `json:"group_id"`
	Trip     string             `json:"trip,omitempty"`
	Currency string             `json:"currency"`
	Payments []*PaymentResponse `json:"payments"`
	Message  string             `json:"message,omitempty"`
}

// SpendingResponse is what one user paid for and consumed during a trip
type SpendingResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Paid     string `json:"paid"`
	Share    string `json:"share"`
}

// TripSummaryResponse is the end-of-trip report
type TripSummaryResponse struct {
	GroupID      int64                  `json:"group_id"`
	Trip         string                 `json:"trip"`
	Currency     string                 `json:"currency"`
	ExpenseCount int                    `json:"expense_count"`
	TotalSpent   string                 `json:"total_spent"`
	Spending     []*SpendingResponse    `json:"spending"`
	Balances     []*PairBalanceResponse `json:"balances"`
	Plan         *PlanResponse          `json:"plan"`
}

// ToResponse converts a Settlement model to a SettlementResponse DTO
func (s *Settlement) ToResponse() *SettlementResponse {
	return &SettlementResponse{
		ID:           s.ID,
		GroupID:      s.GroupID,
		Trip:         s.Trip,
		FromUserID:   s.FromUserID,
		FromUsername: s.FromUsername,
		ToUserID:     s.ToUserID,
		ToUsername:   s.ToUsername,
		Amount:       s.Amount.Text(),
		Currency:     s.Amount.Currency().String(),
		Note:         s.Note,
		CreatedBy:    s.CreatedBy,
		CreatedAt:    s.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
