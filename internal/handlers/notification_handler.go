package handlers

import (
	"net/http"

	"finlearn/internal/notify"
)

// NotificationHandler upgrades authenticated requests to the event stream
type NotificationHandler struct {
	hub *notify.Hub
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(hub *notify.Hub) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// Serve streams progression events for the signed-in user until the socket closes
func (h *NotificationHandler) Serve(w http.ResponseWriter, r *http.Request) {
	h.hub.Serve(w, r, UserIDFromContext(r.Context()))
}
