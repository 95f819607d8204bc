package expense

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/user"
	"github.com/fkhayef/splitledger/pkg/logger"
	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/response"
	"github.com/fkhayef/splitledger/pkg/validate"
)

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a new expense handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes returns the router for expense endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Post("/preview", h.Preview)
	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Delete)

	// Group-based listing; group 0 is the personal ledger
	r.Get("/group/{groupId}", h.ListByGroup)

	return r
}

// writeError maps service errors to responses. Split errors keep their code
// so the caller can ask for a corrected instruction.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var splitErr *split.Error
	switch {
	case errors.As(err, &splitErr):
		details := map[string]string{}
		if splitErr.Token != "" {
			details["token"] = splitErr.Token
		}
		response.Rejected(w, string(splitErr.Code), splitErr.Error(), details)
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrCurrencyMismatch),
		errors.Is(err, ErrUnknownUser), errors.Is(err, ErrParticipantNotMember):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrExpenseNotFound), errors.Is(err, group.ErrGroupNotFound), errors.Is(err, user.ErrUserNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotPayer), errors.Is(err, group.ErrNotMember):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrAlreadyDeleted):
		response.Conflict(w, err.Error())
	default:
		h.log.Error(r.Context(), fallback, err)
		response.InternalError(w, fallback)
	}
}

// Create handles POST /expenses
// @Summary      Log an expense
// @Description  Log an expense from a split instruction such as "@john=60% @sarah paid:@mike". Mentions take an equal share, a percentage (N%), shares (Nx) or a fixed amount; an instruction without mentions splits equally between the group's active members.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int true "Acting user"
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Acting user required")
		return
	}

	var req CreateExpenseRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Invalid(w, err)
		return
	}

	result, err := h.service.CreateExpense(r.Context(), actorID, &req)
	if err != nil {
		h.writeError(w, r, err, "Failed to create expense")
		return
	}

	response.JSON(w, http.StatusCreated, result.ToResponse())
}

// Preview handles POST /expenses/preview
// @Summary      Preview an expense split
// @Description  Parse a split instruction and show each participant's share without recording anything
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int true "Acting user"
// @Param        request body CreateExpenseRequest true "Expense to preview"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /expenses/preview [post]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Acting user required")
		return
	}

	var req CreateExpenseRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Invalid(w, err)
		return
	}

	result, err := h.service.PreviewExpense(r.Context(), actorID, &req)
	if err != nil {
		h.writeError(w, r, err, "Failed to preview expense")
		return
	}

	response.JSON(w, http.StatusOK, result.ToResponse())
}

// GetByID handles GET /expenses/{id}
// @Summary      Get expense by ID
// @Description  Get an expense with all its splits
// @Tags         expenses
// @Produce      json
// @Param        X-User-ID header int true "Acting user"
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Acting user required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}

	result, err := h.service.GetExpenseByID(r.Context(), actorID, id)
	if err != nil {
		h.writeError(w, r, err, "Failed to get expense")
		return
	}

	response.JSON(w, http.StatusOK, result.ToResponse())
}

// ListByGroup handles GET /expenses/group/{groupId}
// @Summary      List group expenses
// @Description  Get a paginated list of expenses for a group, newest first. Group 0 is the acting user's personal ledger
// @Tags         expenses
// @Produce      json
// @Param        X-User-ID header int true "Acting user"
// @Param        groupId path int true "Group ID"
// @Param        trip query string false "Only expenses tagged with this trip"
// @Param        include_deleted query bool false "Include soft-deleted expenses"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Router       /expenses/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Acting user required")
		return
	}

	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupId"), 10, 64)
	if err != nil || groupID < 0 {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	page, err := validate.QueryInt(r, "page", 1, 1, 100000)
	if err != nil {
		response.Invalid(w, err)
		return
	}
	perPage, err := validate.QueryInt(r, "per_page", 20, 1, 100)
	if err != nil {
		response.Invalid(w, err)
		return
	}

	filter := ListFilter{GroupID: groupID}
	query := r.URL.Query()
	if query.Has("trip") {
		trip := query.Get("trip")
		filter.Trip = &trip
	}
	filter.IncludeDeleted, _ = strconv.ParseBool(query.Get("include_deleted"))

	expenses, total, err := h.service.ListExpenses(r.Context(), actorID, filter, page, perPage)
	if err != nil {
		h.writeError(w, r, err, "Failed to list expenses")
		return
	}

	expenseResponses := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		expenseResponses[i] = e.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, expenseResponses, response.Pagination(page, perPage, total))
}

// Delete handles DELETE /expenses/{id}
// @Summary      Delete an expense
// @Description  Soft-delete an expense (only the payer). It stays listable with include_deleted and stops counting toward balances
// @Tags         expenses
// @Produce      json
// @Param        X-User-ID header int true "Acting user"
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /expenses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Acting user required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}

	if err := h.service.DeleteExpense(r.Context(), actorID, id); err != nil {
		h.writeError(w, r, err, "Failed to delete expense")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}
