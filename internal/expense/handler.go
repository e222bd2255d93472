package expense

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fairsplit/fairsplit/pkg/middleware"
	"github.com/fairsplit/fairsplit/pkg/response"
	"github.com/fairsplit/fairsplit/pkg/validate"
)

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for expense endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Delete)

	// Group-based listing
	r.Get("/group/{groupId}", h.ListByGroup)

	// Split operations
	r.Post("/splits/{splitId}/pay", h.MarkSplitAsPaid)
	r.Post("/splits/{splitId}/confirm", h.ConfirmSplitPayment)
	r.Post("/splits/{splitId}/dispute", h.DisputeSplit)

	return r
}

// Create handles POST /expenses
// @Summary      Create a new expense
// @Description  Create an expense with automatic split calculation using EVEN, PERCENTAGE, or EXACT strategy
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.Envelope{data=ExpenseResponse}
// @Failure      400 {object} response.Envelope
// @Failure      403 {object} response.Envelope
// @Router       /expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	payerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.ValidationFailed(w, validate.Messages(err))
		return
	}

	result, err := h.service.CreateExpense(r.Context(), payerID, &req)
	if err != nil {
		if errors.Is(err, ErrNotGroupMember) {
			response.Forbidden(w, err.Error())
			return
		}
		// Split strategy validation errors surface as 400s
		response.BadRequest(w, err.Error())
		return
	}

	response.JSON(w, http.StatusCreated, toExpenseResponse(result))
}

// GetByID handles GET /expenses/{id}
// @Summary      Get expense by ID
// @Description  Get an expense with all its splits
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID"
// @Success      200 {object} response.Envelope{data=ExpenseResponse}
// @Failure      404 {object} response.Envelope
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetExpenseByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrExpenseNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get expense")
		return
	}

	response.JSON(w, http.StatusOK, toExpenseResponse(result))
}

// ListByGroup handles GET /expenses/group/{groupId}
// @Summary      List expenses by group
// @Description  Get a paginated list of expenses for a group
// @Tags         expenses
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.Envelope{data=[]ExpenseResponse}
// @Router       /expenses/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	expenses, total, err := h.service.ListExpensesByGroupID(r.Context(), groupID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list expenses")
		return
	}

	expenseResponses := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		expenseResponses[i] = e.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, expenseResponses, response.NewMeta(page, perPage, total))
}

// Delete handles DELETE /expenses/{id}
// @Summary      Delete an expense
// @Description  Delete an expense while all of its splits are still pending
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID"
// @Success      200 {object} response.Envelope
// @Failure      404 {object} response.Envelope
// @Failure      409 {object} response.Envelope
// @Router       /expenses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	if err := h.service.DeleteExpense(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		if errors.Is(err, ErrExpenseNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		if errors.Is(err, ErrNotPayer) {
			response.Forbidden(w, err.Error())
			return
		}
		if errors.Is(err, ErrCannotDeleteExpense) || errors.Is(err, ErrSplitLocked) {
			response.Conflict(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to delete expense")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}

// MarkSplitAsPaid handles POST /expenses/splits/{splitId}/pay
// @Summary      Mark split as paid
// @Description  The split's member marks their share as paid, pending payer confirmation
// @Tags         splits
// @Produce      json
// @Param        splitId path string true "Split ID"
// @Success      200 {object} response.Envelope{data=SplitResponse}
// @Failure      400 {object} response.Envelope
// @Failure      404 {object} response.Envelope
// @Router       /expenses/splits/{splitId}/pay [post]
func (h *Handler) MarkSplitAsPaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	split, err := h.service.MarkSplitAsPaid(r.Context(), chi.URLParam(r, "splitId"), userID)
	if err != nil {
		h.splitError(w, err, "Failed to mark split as paid")
		return
	}

	response.JSON(w, http.StatusOK, split.ToResponse())
}

// ConfirmSplitPayment handles POST /expenses/splits/{splitId}/confirm
// @Summary      Confirm split payment
// @Description  The expense's payer confirms they received the payment; the split settles
// @Tags         splits
// @Produce      json
// @Param        splitId path string true "Split ID"
// @Success      200 {object} response.Envelope{data=SplitResponse}
// @Failure      400 {object} response.Envelope
// @Failure      404 {object} response.Envelope
// @Router       /expenses/splits/{splitId}/confirm [post]
func (h *Handler) ConfirmSplitPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	split, err := h.service.ConfirmSplitPayment(r.Context(), chi.URLParam(r, "splitId"), userID)
	if err != nil {
		h.splitError(w, err, "Failed to confirm payment")
		return
	}

	response.JSON(w, http.StatusOK, split.ToResponse())
}

// DisputeSplit handles POST /expenses/splits/{splitId}/dispute
// @Summary      Dispute a split
// @Description  The split's member disputes their share with a reason
// @Tags         splits
// @Accept       json
// @Produce      json
// @Param        splitId path string true "Split ID"
// @Param        request body DisputeSplitRequest true "Dispute reason"
// @Success      200 {object} response.Envelope{data=SplitResponse}
// @Failure      400 {object} response.Envelope
// @Failure      404 {object} response.Envelope
// @Router       /expenses/splits/{splitId}/dispute [post]
func (h *Handler) DisputeSplit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req DisputeSplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.ValidationFailed(w, validate.Messages(err))
		return
	}

	split, err := h.service.DisputeSplit(r.Context(), chi.URLParam(r, "splitId"), userID, req.Reason)
	if err != nil {
		h.splitError(w, err, "Failed to dispute split")
		return
	}

	response.JSON(w, http.StatusOK, split.ToResponse())
}

func (h *Handler) splitError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrSplitNotFound), errors.Is(err, ErrExpenseNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotSplitMember), errors.Is(err, ErrNotPayer):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrSplitLocked), errors.Is(err, ErrInvalidStatusChange):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

func toExpenseResponse(result *ExpenseWithSplits) *ExpenseResponse {
	resp := result.Expense.ToResponse()
	resp.Splits = make([]*SplitResponse, len(result.Splits))
	for i, s := range result.Splits {
		resp.Splits[i] = s.ToResponse()
	}
	return resp
}
