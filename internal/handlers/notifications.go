package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/askdev/internal/database"
	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/models"
	"github.com/benvon/askdev/internal/request"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NotificationHandler serves the caller's own notifications
type NotificationHandler struct {
	store  database.NotificationStore
	logger *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(store database.NotificationStore, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{store: store, logger: logger}
}

// RegisterRoutes registers notification routes on the API router. All of them require auth.
func (h *NotificationHandler) RegisterRoutes(r *mux.Router, g Guards) {
	r.Handle("/notifications", g.required(h.List)).Methods("GET")
	r.Handle("/notifications/unread-count", g.required(h.UnreadCount)).Methods("GET")
	r.Handle("/notifications/read-all", g.required(h.MarkAllRead)).Methods("POST")
	r.Handle("/notifications/{id}/read", g.required(h.MarkRead)).Methods("POST")
	r.Handle("/notifications/{id}", g.required(h.Delete)).Methods("DELETE")
}

// List returns the newest notifications, ?limit= defaults to 20
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	limit := queryInt(r, "limit", models.DefaultNotificationLimit)
	list, err := h.store.ListByUser(r.Context(), user.ID, limit)
	if err != nil {
		h.fail(w, "notification_list_failed", err, "Failed to retrieve notifications")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// UnreadCount returns how many notifications are unread
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	n, err := h.store.UnreadCount(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "notification_count_failed", err, "Failed to count notifications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": n})
}

// MarkRead marks one notification read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid notification ID")
		return
	}
	err = h.store.MarkRead(r.Context(), user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Notification not found")
		return
	}
	if err != nil {
		h.fail(w, "notification_mark_read_failed", err, "Failed to update notification")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "is_read": true})
}

// MarkAllRead marks every notification read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	n, err := h.store.MarkAllRead(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "notification_mark_all_read_failed", err, "Failed to update notifications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// Delete removes one notification
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid notification ID")
		return
	}
	err = h.store.Delete(r.Context(), user.ID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Notification not found")
		return
	}
	if err != nil {
		h.fail(w, "notification_delete_failed", err, "Failed to delete notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) fail(w http.ResponseWriter, event string, err error, message string) {
	h.logger.Error(event, zap.String("error", logpkg.SanitizeError(err)))
	respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", message)
}
