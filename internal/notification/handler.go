package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fairsplit/fairsplit/pkg/middleware"
	"github.com/fairsplit/fairsplit/pkg/response"
)

// Handler handles HTTP requests for notification operations
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for notification endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/unread-count", h.UnreadCount)
	r.Post("/read-all", h.MarkAllAsRead)
	r.Post("/{id}/read", h.MarkAsRead)

	return r
}

// List handles GET /notifications
// @Summary      List notifications
// @Description  Get a paginated list of the caller's notifications
// @Tags         notifications
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Param        unread_only query bool false "Only unread notifications"
// @Success      200 {object} response.Envelope{data=[]Notification}
// @Router       /notifications [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	notifications, total, err := h.service.ListByRecipientID(r.Context(), userID, page, perPage, unreadOnly)
	if err != nil {
		response.InternalError(w, "Failed to list notifications")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, notifications, response.NewMeta(page, perPage, total))
}

// UnreadCount handles GET /notifications/unread-count
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Success      200 {object} response.Envelope
// @Router       /notifications/unread-count [get]
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	count, err := h.service.GetUnreadCount(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "Failed to count notifications")
		return
	}

	response.JSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// MarkAsRead handles POST /notifications/{id}/read
// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Param        id path string true "Notification ID"
// @Success      200 {object} response.Envelope
// @Failure      403 {object} response.Envelope
// @Failure      404 {object} response.Envelope
// @Router       /notifications/{id}/read [post]
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	if err := h.service.MarkAsRead(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		if errors.Is(err, ErrNotRecipient) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to mark notification as read")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// MarkAllAsRead handles POST /notifications/read-all
// @Summary      Mark all notifications as read
// @Tags         notifications
// @Produce      json
// @Success      200 {object} response.Envelope
// @Router       /notifications/read-all [post]
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	if err := h.service.MarkAllAsRead(r.Context(), userID); err != nil {
		response.InternalError(w, "Failed to mark notifications as read")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}
