package settlement

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/user"
	"github.com/fkhayef/splitledger/pkg/logger"
	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/response"
	"github.com/fkhayef/splitledger/pkg/validate"
)

// Handler handles HTTP requests for settlement and balance operations
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)

	// Group 0 is the personal ledger
	r.Route("/group/{groupId}", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/balances", h.GetBalances)
		r.Get("/balances/{userId}", h.GetBalanceWithUser)
		r.Get("/plan", h.GetPlan)
		r.Get("/trips/{trip}/summary", h.GetTripSummary)
	})

	return r
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrCannotSettleSelf), errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrCurrencyMismatch), errors.Is(err, ErrNotGroupMember),
		errors.Is(err, ErrTripRequired):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrAlreadySettled):
		response.Conflict(w, err.Error())
	case errors.Is(err, group.ErrGroupNotFound), errors.Is(err, user.ErrUserNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotParty), errors.Is(err, group.ErrNotMember):
		response.Forbidden(w, err.Error())
	default:
		h.log.Error(r.Context(), fallback, err)
		response.InternalError(w, fallback)
	}
}

// scopeParam reads the group path parameter and the optional trip query
func scopeParam(r *http.Request) (balance.Scope, bool) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupId"), 10, 64)
	if err != nil || groupID < 0 {
		return balance.Scope{}, false
	}
	return balance.Scope{GroupID: groupID, Trip: strings.TrimSpace(r.URL.Query().Get("trip"))}, true
}

// Create handles POST /settlements
// @Summary      Record a settlement
// @Description  Record a payment from one user to another. Settlements cannot be edited; record one in the other direction to correct a mistake. Without an amount the payer's whole debt to the receiver is settled
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int true "Acting user"
// @Param        request body RecordSettlementRequest true "Settlement"
// @Success      201 {object} response.APIResponse{data=SettlementResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /settlements [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Acting user required")
		return
	}

	var req RecordSettlementRequest
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Invalid(w, err)
		return
	}

	settlement, err := h.service.Record(r.Context(), actorID, &req)
	if err != nil {
		h.writeError(w, r, err, "Failed to record settlement")
		return
	}

	response.JSON(w, http.StatusCreated, settlement.ToResponse())
}

// List handles GET /settlements/group/{groupId}
// @Summary      List settlements
// @Description  Get a paginated list of the settlements recorded in a group, newest first
// @Tags         settlements
// @Produce      json
// @Param        X-User-ID header int true "Acting user"
// @Param        groupId path int true "Group ID (0 for the personal ledger)"
// @Param        trip query string false "Only settlements tagged with this trip"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Router       /settlements/group/{groupId} [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Acting user required")
		return
	}

	sc, ok := scopeParam(r)
	if !ok {
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

	filter := ListFilter{GroupID: sc.GroupID}
	if r.URL.Query().Has("trip") {
		filter.Trip = &sc.Trip
	}

	settlements, total, err := h.service.List(r.Context(), actorID, filter, page, perPage)
	if err != nil {
		h.writeError(w, r, err, "Failed to list settlements")
		return
	}

	settlementResponses := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		settlementResponses[i] = s.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, settlementResponses, response.Pagination(page, perPage, total))
}

// GetBalances handles GET /settlements/group/{groupId}/balances
// @Summary      Get balances
// @Description  Who owes whom in a group, or in one trip of it, with every member's net position
// @Tags         balances
// @Produce      json
// @Param        X-User-ID header int true "Acting user"
// @Param        groupId path int true "Group ID (0 for the personal ledger)"
// @Param        trip query string false "Limit to one trip"
// @Param        currency query string false "Personal ledger currency"
// @Success      200 {object} response.APIResponse{data=BalancesResponse}
// @Router       /settlements/group/{groupId}/balances [get]
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Acting user required")
		return
	}

	sc, ok := scopeParam(r)
	if !ok {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	balances, err := h.service.Balances(r.Context(), actorID, sc, r.URL.Query().Get("currency"))
	if err != nil {
		h.writeError(w, r, err, "Failed to get balances")
		return
	}

	response.JSON(w, http.StatusOK, balances)
}

// GetBalanceWithUser handles GET /settlements/group/{groupId}/balances/{userId}
// @Summary      Get balance with a user
// @Description  The net balance between the acting user and another user, e.g. "You owe john 50.00 SAR"
// @Tags         balances
// @Produce      json
// @Param        X-User-ID header int true "Acting user"
// @Param        groupId path int true "Group ID (0 for the personal ledger)"
// @Param        userId path int true "Other user ID"
// @Param        trip query string false "Limit to one trip"
// @Param        currency query string false "Personal ledger currency"
// @Success      200 {object} response.APIResponse{data=NetBalanceResponse}
// @Router       /settlements/group/{groupId}/balances/{userId} [get]
func (h *Handler) GetBalanceWithUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Acting user required")
		return
	}

	sc, ok := scopeParam(r)
	if !ok {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	otherUserID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	net, err := h.service.BalanceWith(r.Context(), actorID, sc, otherUserID, r.URL.Query().Get("currency"))
	if err != nil {
		h.writeError(w, r, err, "Failed to get net balance")
		return
	}

	response.JSON(w, http.StatusOK, net)
}

// GetPlan handles GET /settlements/group/{groupId}/plan
// @Summary      Get the optimized settlement plan
// @Description  The fewest payments that clear every balance. The plan may have people pay someone they never shared an expense with, so it is tagged "optimized_settlement". On the personal ledger it lists the caller's own debts one per person, tagged "direct_settlement"
// @Tags         balances
// @Produce      json
// @Param        X-User-ID header int true "Acting user"
// @Param        groupId path int true "Group ID (0 for the personal ledger)"
// @Param        trip query string false "Limit to one trip"
// @Param        currency query string false "Personal ledger currency"
// @Success      200 {object} response.APIResponse{data=PlanResponse}
// @Router       /settlements/group/{groupId}/plan [get]
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Acting user required")
		return
	}

	sc, ok := scopeParam(r)
	if !ok {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	plan, err := h.service.Plan(r.Context(), actorID, sc, r.URL.Query().Get("currency"))
	if err != nil {
		h.writeError(w, r, err, "Failed to build settlement plan")
		return
	}

	response.JSON(w, http.StatusOK, plan)
}

// GetTripSummary handles GET /settlements/group/{groupId}/trips/{trip}/summary
// @Summary      Get a trip summary
// @Description  What everyone paid and consumed during a trip, the balances it left and the plan that clears them
// @Tags         balances
// @Produce      json
// @Param        X-User-ID header int true "Acting user"
// @Param        groupId path int true "Group ID (0 for the personal ledger)"
// @Param        trip path string true "Trip tag"
// @Param        currency query string false "Personal ledger currency"
// @Success      200 {object} response.APIResponse{data=TripSummaryResponse}
// @Router       /settlements/group/{groupId}/trips/{trip}/summary [get]
func (h *Handler) GetTripSummary(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Acting user required")
		return
	}

	sc, ok := scopeParam(r)
	if !ok {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	summary, err := h.service.TripSummary(r.Context(), actorID, sc.GroupID, chi.URLParam(r, "trip"), r.URL.Query().Get("currency"))
	if err != nil {
		h.writeError(w, r, err, "Failed to build trip summary")
		return
	}

	response.JSON(w, http.StatusOK, summary)
}
