package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/wayfarerhq/wayfarer/internal/models"
	"github.com/wayfarerhq/wayfarer/internal/services"
	"github.com/wayfarerhq/wayfarer/internal/services/ai"
)

// AssistantProvider is the slice of the AI assistant the handlers need.
type AssistantProvider interface {
	Chat(ctx context.Context, trip *models.Trip, snap models.ItinerarySnapshot, history []models.ChatMessage, userMessage string) (*ai.Reply, error)
	RegenerateOutline(ctx context.Context, trip *models.Trip, snap models.ItinerarySnapshot, stagedPrompt string) ([]ai.OutlineDay, error)
}

// AssistantHandler drives a chat turn end to end: snapshot, model call,
// message persistence, and the directive-aware suggestion reconciliation
// that follows every assistant reply.
type AssistantHandler struct {
	tripService       services.TripServiceInterface
	suggestionService services.SuggestionServiceInterface
	assistant         AssistantProvider
}

func NewAssistantHandler(tripService services.TripServiceInterface, suggestionService services.SuggestionServiceInterface, assistant AssistantProvider) *AssistantHandler {
	return &AssistantHandler{
		tripService:       tripService,
		suggestionService: suggestionService,
		assistant:         assistant,
	}
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply       models.ChatMessage  `json:"reply"`
	Suggestions []models.Suggestion `json:"suggestions"`
	Hash        string              `json:"hash"`
	Changed     bool                `json:"changed"`
}

func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	trip, err := h.tripService.GetByID(r.Context(), user.ID, tripID)
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		log.Printf("Error loading trip for chat: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	snap, err := h.tripService.Snapshot(r.Context(), user.ID, tripID)
	if err != nil {
		log.Printf("Error loading itinerary for chat: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	history, err := h.tripService.ListMessages(r.Context(), user.ID, tripID, 50)
	if err != nil {
		log.Printf("Error loading chat history: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	reply, err := h.assistant.Chat(r.Context(), trip, snap, history, req.Message)
	if errors.Is(err, ai.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if errors.Is(err, ai.ErrRateLimitExceeded) {
		writeError(w, http.StatusTooManyRequests, "Too many requests, try again shortly")
		return
	}
	if errors.Is(err, ai.ErrProviderUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "Assistant is temporarily unavailable")
		return
	}
	if err != nil {
		log.Printf("Error from assistant: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if _, err := h.tripService.AddMessage(r.Context(), user.ID, tripID, models.RoleUser, req.Message); err != nil {
		log.Printf("Error storing user message: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	stored, err := h.tripService.AddMessage(r.Context(), user.ID, tripID, models.RoleAssistant, reply.Content)
	if err != nil {
		log.Printf("Error storing assistant message: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// The reply's directive block, if any, is consumed by exactly one
	// reconciliation pass.
	res, err := h.suggestionService.ListForTrip(r.Context(), user.ID, tripID, trip.Country, reply.Directives)
	if err != nil {
		log.Printf("Error reconciling suggestions after chat: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:       *stored,
		Suggestions: res.Suggestions,
		Hash:        res.Hash,
		Changed:     res.Changed,
	})
}

type RegenerateRequest struct {
	Instructions string `json:"instructions,omitempty"`
}

type RegenerateResponse struct {
	Schedule []models.ScheduleEntry `json:"schedule"`
}

// Regenerate replaces the trip's day-by-day outline with a fresh one from the
// assistant, honoring any staged logistics edits, then clears pending state.
func (h *AssistantHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	var req RegenerateRequest
	if r.Body != nil {
		// An empty body means regenerate with no extra instructions.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	trip, err := h.tripService.GetByID(r.Context(), user.ID, tripID)
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		log.Printf("Error loading trip for regeneration: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	snap, err := h.tripService.Snapshot(r.Context(), user.ID, tripID)
	if err != nil {
		log.Printf("Error loading itinerary for regeneration: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	outline, err := h.assistant.RegenerateOutline(r.Context(), trip, snap, req.Instructions)
	if errors.Is(err, ai.ErrProviderUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "Assistant is temporarily unavailable")
		return
	}
	if err != nil {
		log.Printf("Error regenerating outline: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	entries := make([]models.AddScheduleEntryParams, 0, len(outline))
	for _, day := range outline {
		entries = append(entries, models.AddScheduleEntryParams{
			TripID: tripID,
			Day:    day.Day,
			Title:  day.Title,
			Detail: day.Detail,
		})
	}
	if err := h.tripService.ReplaceSchedule(r.Context(), user.ID, tripID, entries); err != nil {
		log.Printf("Error replacing schedule: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.suggestionService.MarkRegenerated(tripID)

	updated, err := h.tripService.Snapshot(r.Context(), user.ID, tripID)
	if err != nil {
		log.Printf("Error reloading itinerary: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, RegenerateResponse{Schedule: updated.DailySchedule})
}
