package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fairsplit/fairsplit/internal/expense"
	"github.com/fairsplit/fairsplit/pkg/middleware"
	"github.com/fairsplit/fairsplit/pkg/response"
	"github.com/fairsplit/fairsplit/pkg/validate"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.ListMine)
	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/pay", h.MarkAsPaid)
	r.Post("/{id}/confirm", h.Confirm)
	r.Post("/{id}/reject", h.Reject)

	return r
}

// Create handles POST /settlements
// @Summary      Create a settlement
// @Description  Open a bulk settlement with another group member; direction and amount come from the pair's open splits
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body CreateSettlementRequest true "Settlement creation request"
// @Success      201 {object} response.Envelope{data=SettlementResponse}
// @Failure      400 {object} response.Envelope
// @Failure      409 {object} response.Envelope
// @Router       /settlements [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req CreateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.ValidationFailed(w, validate.Messages(err))
		return
	}

	settlement, err := h.service.CreateSettlement(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrCannotSettleSelf) {
			response.BadRequest(w, err.Error())
			return
		}
		if errors.Is(err, ErrAlreadySettled) {
			response.Conflict(w, err.Error())
			return
		}
		if errors.Is(err, expense.ErrSplitLocked) {
			response.Conflict(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to create settlement")
		return
	}

	response.JSON(w, http.StatusCreated, settlement.ToResponse())
}

// ListMine handles GET /settlements
// @Summary      List the caller's settlements
// @Tags         settlements
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.Envelope{data=[]SettlementResponse}
// @Router       /settlements [get]
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	settlements, total, err := h.service.ListByUserID(r.Context(), userID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list settlements")
		return
	}

	settlementResponses := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		settlementResponses[i] = s.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, settlementResponses, response.NewMeta(page, perPage, total))
}

// GetByID handles GET /settlements/{id}
// @Summary      Get settlement by ID
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.Envelope{data=SettlementResponse}
// @Failure      404 {object} response.Envelope
// @Router       /settlements/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrSettlementNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get settlement")
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}

// MarkAsPaid handles POST /settlements/{id}/pay
// @Summary      Mark settlement as paid
// @Description  The payer reports that the money was sent
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.Envelope{data=SettlementResponse}
// @Failure      400 {object} response.Envelope
// @Failure      404 {object} response.Envelope
// @Router       /settlements/{id}/pay [post]
func (h *Handler) MarkAsPaid(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkAsPaid, "Failed to mark settlement as paid")
}

// Confirm handles POST /settlements/{id}/confirm
// @Summary      Confirm a settlement
// @Description  The receiver confirms the payment; all locked splits settle
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.Envelope{data=SettlementResponse}
// @Failure      400 {object} response.Envelope
// @Failure      404 {object} response.Envelope
// @Router       /settlements/{id}/confirm [post]
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Confirm, "Failed to confirm settlement")
}

// Reject handles POST /settlements/{id}/reject
// @Summary      Reject a settlement
// @Description  The receiver rejects the settlement; locked splits are released
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.Envelope{data=SettlementResponse}
// @Failure      400 {object} response.Envelope
// @Failure      404 {object} response.Envelope
// @Router       /settlements/{id}/reject [post]
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject, "Failed to reject settlement")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, settlementID, userID string) (*Settlement, error), fallback string) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	settlement, err := fn(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSettlementNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotPayer), errors.Is(err, ErrNotReceiver):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidStatusChange):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, fallback)
		}
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}
