package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/inspecasa/internal/model"
	"github.com/erazemk/inspecasa/internal/store"
)

// NotificationsHandler serves the current user's notifications.
type NotificationsHandler struct {
	DB *sql.DB
}

// List handles GET /api/notifications.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	notifications, err := store.ListNotifications(r.Context(), h.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to list notifications", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	jsonResponse(w, http.StatusOK, notifications)
}

// Unread handles GET /api/notifications/unread.
func (h *NotificationsHandler) Unread(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	n, err := store.CountUnreadNotifications(r.Context(), h.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to count notifications", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to count notifications")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"unread": n})
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	claims := GetClaims(r.Context())
	ok, err := store.MarkNotificationRead(r.Context(), h.DB, claims.UserID, id)
	if err != nil {
		slog.Error("failed to mark notification read", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "notification not found")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "notification read"})
}

// MarkAllRead handles POST /api/notifications/read.
func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if err := store.MarkAllNotificationsRead(r.Context(), h.DB, claims.UserID); err != nil {
		slog.Error("failed to mark notifications read", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update notifications")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "all notifications read"})
}
