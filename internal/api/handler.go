// Package api provides HTTP handlers for the LapakChat relay.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aditpras/lapakchat/internal/domain"
	"github.com/aditpras/lapakchat/internal/relay"
	"github.com/aditpras/lapakchat/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler serves the send half of the relay contract.
type Handler struct {
	router   *relay.Router
	registry *relay.Registry
}

// NewHandler creates a new Handler.
func NewHandler(router *relay.Router, registry *relay.Registry) *Handler {
	return &Handler{
		router:   router,
		registry: registry,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// SendMessage accepts one message for routing and returns the ack.
// The ack reflects acceptance, not end-to-end delivery; a routing miss
// (recipient offline) is still HTTP 200 with success=false.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var msg domain.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		Error(w, http.StatusBadRequest, "invalid message payload")
		return
	}

	if strings.TrimSpace(msg.SenderID) == "" {
		Error(w, http.StatusBadRequest, "sender_id is required")
		return
	}
	if !msg.SenderType.Valid() {
		Error(w, http.StatusBadRequest, "unknown sender_type")
		return
	}
	if strings.TrimSpace(msg.Content) == "" {
		Error(w, http.StatusBadRequest, "content is required")
		return
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	ack := h.router.Send(r.Context(), msg)
	JSON(w, http.StatusOK, ack)
}

// RegisterRoutes registers the relay API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat/send", h.SendMessage)
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo     store.Repository
	registry *relay.Registry
	router   *relay.Router
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository, registry *relay.Registry, router *relay.Router) *HealthHandler {
	return &HealthHandler{repo: repo, registry: registry, router: router}
}

// Health returns the health status of the relay and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, admins := h.registry.Counts()
	status := map[string]interface{}{
		"status":              "healthy",
		"checks":              map[string]string{"api": "ok"},
		"users":               users,
		"admins":              admins,
		"admin_available":     h.registry.AdminAvailable(),
		"pending_escalations": h.router.PendingCount(),
	}
	statusCode := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		status["checks"].(map[string]string)["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		status["checks"].(map[string]string)["database"] = "ok"
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
}
