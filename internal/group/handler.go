package group

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

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.ListMine)
	r.Post("/join", h.Join)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	r.Post("/{id}/members", h.AddMember)
	r.Get("/{id}/members", h.GetMembers)
	r.Delete("/{id}/members/{userId}", h.RemoveMember)

	r.Get("/{id}/balances", h.Balances)
	r.Get("/{id}/settle-up", h.SettleUp)

	return r
}

// Create handles POST /groups
// @Summary      Create a new group
// @Description  Create a group; the caller becomes a joined admin
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.Envelope{data=GroupResponse}
// @Failure      400 {object} response.Envelope
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.ValidationFailed(w, validate.Messages(err))
		return
	}

	group, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		response.InternalError(w, "Failed to create group")
		return
	}

	response.JSON(w, http.StatusCreated, group.ToResponse())
}

// ListMine handles GET /groups
// @Summary      List the caller's groups
// @Tags         groups
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.Envelope{data=[]GroupResponse}
// @Router       /groups [get]
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

	groups, total, err := h.service.ListByUserID(r.Context(), userID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list groups")
		return
	}

	groupResponses := make([]*GroupResponse, len(groups))
	for i, g := range groups {
		groupResponses[i] = g.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, groupResponses, response.NewMeta(page, perPage, total))
}

// Join handles POST /groups/join
// @Summary      Join a group by invite token
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request body JoinGroupRequest true "Join request"
// @Success      200 {object} response.Envelope{data=GroupResponse}
// @Failure      404 {object} response.Envelope
// @Failure      409 {object} response.Envelope
// @Router       /groups/join [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var req JoinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.ValidationFailed(w, validate.Messages(err))
		return
	}

	group, _, err := h.service.Join(r.Context(), userID, req.InviteToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInviteToken):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrMemberAlreadyExists):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to join group")
		}
		return
	}

	response.JSON(w, http.StatusOK, group.ToResponse())
}

// GetByID handles GET /groups/{id}
// @Summary      Get group by ID
// @Description  Get a group with all its members
// @Tags         groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200 {object} response.Envelope{data=GroupResponse}
// @Failure      404 {object} response.Envelope
// @Router       /groups/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	group, members, err := h.service.GetByIDWithMembers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get group")
		return
	}

	groupResp := group.ToResponse()
	groupResp.Members = make([]*GroupMemberResponse, len(members))
	for i, m := range members {
		groupResp.Members[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, groupResp)
}

// Update handles PUT /groups/{id}
// @Summary      Update a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Group ID"
// @Param        request body UpdateGroupRequest true "Group update request"
// @Success      200 {object} response.Envelope{data=GroupResponse}
// @Failure      404 {object} response.Envelope
// @Router       /groups/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.ValidationFailed(w, validate.Messages(err))
		return
	}

	group, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to update group")
		return
	}

	response.JSON(w, http.StatusOK, group.ToResponse())
}

// Delete handles DELETE /groups/{id}
// @Summary      Delete a group
// @Tags         groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200 {object} response.Envelope
// @Failure      404 {object} response.Envelope
// @Router       /groups/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to delete group")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "group deleted"})
}

// AddMember handles POST /groups/{id}/members
// @Summary      Invite a user to a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Group ID"
// @Param        request body AddMemberRequest true "Member request"
// @Success      201 {object} response.Envelope{data=GroupMemberResponse}
// @Failure      404 {object} response.Envelope
// @Failure      409 {object} response.Envelope
// @Router       /groups/{id}/members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.ValidationFailed(w, validate.Messages(err))
		return
	}

	member, err := h.service.AddMember(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrMemberAlreadyExists):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to add member")
		}
		return
	}

	response.JSON(w, http.StatusCreated, member.ToResponse())
}

// GetMembers handles GET /groups/{id}/members
// @Summary      List group members
// @Tags         groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200 {object} response.Envelope{data=[]GroupMemberResponse}
// @Failure      404 {object} response.Envelope
// @Router       /groups/{id}/members [get]
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.GetMembers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get members")
		return
	}

	memberResponses := make([]*GroupMemberResponse, len(members))
	for i, m := range members {
		memberResponses[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, memberResponses)
}

// RemoveMember handles DELETE /groups/{id}/members/{userId}
// @Summary      Remove a member from a group
// @Tags         groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Param        userId path string true "User ID"
// @Success      200 {object} response.Envelope
// @Failure      404 {object} response.Envelope
// @Router       /groups/{id}/members/{userId} [delete]
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveMember(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) || errors.Is(err, ErrMemberNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to remove member")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "member removed"})
}

// Balances handles GET /groups/{id}/balances
// @Summary      Get group balances
// @Description  Net position per member: total paid, total owed and net balance
// @Tags         groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200 {object} response.Envelope{data=[]balance.GroupBalance}
// @Failure      404 {object} response.Envelope
// @Router       /groups/{id}/balances [get]
func (h *Handler) Balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.Balances(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to compute balances")
		return
	}

	response.JSON(w, http.StatusOK, balances)
}

// SettleUp handles GET /groups/{id}/settle-up
// @Summary      Suggest settling payments
// @Description  Greedy simplification of the group's debt graph into payer-to-payee transactions
// @Tags         groups
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200 {object} response.Envelope{data=[]balance.Transaction}
// @Failure      404 {object} response.Envelope
// @Router       /groups/{id}/settle-up [get]
func (h *Handler) SettleUp(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.SettleUp(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to compute settle-up plan")
		return
	}

	response.JSON(w, http.StatusOK, transactions)
}
