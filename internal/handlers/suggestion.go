package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/wayfarerhq/wayfarer/internal/models"
	"github.com/wayfarerhq/wayfarer/internal/services"
)

// SuggestionHandler serves the suggestion list and the actions that mutate
// per-trip suggestion state: dismissals and inline logistics forms.
type SuggestionHandler struct {
	tripService       services.TripServiceInterface
	suggestionService services.SuggestionServiceInterface
}

func NewSuggestionHandler(tripService services.TripServiceInterface, suggestionService services.SuggestionServiceInterface) *SuggestionHandler {
	return &SuggestionHandler{
		tripService:       tripService,
		suggestionService: suggestionService,
	}
}

type SuggestionListResponse struct {
	Suggestions []models.Suggestion `json:"suggestions"`
	Hash        string              `json:"hash"`
	Changed     bool                `json:"changed"`
}

func (h *SuggestionHandler) List(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	trip, err := h.tripService.GetByID(r.Context(), user.ID, tripID)
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		log.Printf("Error loading trip for suggestions: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	res, err := h.suggestionService.ListForTrip(r.Context(), user.ID, tripID, trip.Country, nil)
	if err != nil {
		log.Printf("Error reconciling suggestions: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, SuggestionListResponse{
		Suggestions: res.Suggestions,
		Hash:        res.Hash,
		Changed:     res.Changed,
	})
}

type DismissRequest struct {
	ID string `json:"id"`
}

func (h *SuggestionHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	var req DismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Suggestion ID is required")
		return
	}

	if _, err := h.tripService.GetByID(r.Context(), user.ID, tripID); err != nil {
		if errors.Is(err, services.ErrTripNotFound) {
			writeError(w, http.StatusNotFound, "Trip not found")
			return
		}
		log.Printf("Error checking trip ownership: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.suggestionService.Dismiss(r.Context(), tripID, req.ID); err != nil {
		log.Printf("Error dismissing suggestion: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Suggestion dismissed"})
}

// LogisticsRequest is the union body for the three inline forms. Which fields
// are required depends on the {kind} path value.
type LogisticsRequest struct {
	// flight
	Airline      string  `json:"airline,omitempty"`
	FlightNumber string  `json:"flight_number,omitempty"`
	Origin       string  `json:"origin,omitempty"`
	Destination  string  `json:"destination,omitempty"`
	Departure    string  `json:"departure,omitempty"`
	Arrival      *string `json:"arrival,omitempty"`

	// hotel
	Name         string `json:"name,omitempty"`
	Address      string `json:"address,omitempty"`
	CheckIn      string `json:"check_in,omitempty"`
	CheckOut     string `json:"check_out,omitempty"`
	Confirmation string `json:"confirmation,omitempty"`

	// dates
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Logistics handles an inline structured-form submission: it persists the
// entry, stages the matching suggestion category, and records the synthesized
// prompt as a user chat message so the next regeneration sees it.
func (h *SuggestionHandler) Logistics(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	kind := models.FormKind(r.PathValue("kind"))

	var req LogisticsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var fields []string
	var apply func() error

	switch kind {
	case models.FormKindFlight:
		if req.Airline == "" || req.Origin == "" || req.Destination == "" {
			writeError(w, http.StatusBadRequest, "Airline, origin, and destination are required")
			return
		}
		departure, err := time.Parse(time.RFC3339, req.Departure)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid departure, expected RFC3339")
			return
		}
		var arrival *time.Time
		if req.Arrival != nil {
			t, err := time.Parse(time.RFC3339, *req.Arrival)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid arrival, expected RFC3339")
				return
			}
			arrival = &t
		}
		fields = []string{req.Airline, req.FlightNumber, req.Origin, req.Destination, departure.Format("2006-01-02T15:04")}
		apply = func() error {
			_, err := h.tripService.AddFlight(r.Context(), user.ID, models.AddFlightParams{
				TripID:       tripID,
				Airline:      req.Airline,
				FlightNumber: req.FlightNumber,
				Origin:       req.Origin,
				Destination:  req.Destination,
				Departure:    departure,
				Arrival:      arrival,
			})
			return err
		}

	case models.FormKindHotel:
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "Name is required")
			return
		}
		checkIn, err := time.Parse(dateLayout, req.CheckIn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid check_in, expected YYYY-MM-DD")
			return
		}
		checkOut, err := time.Parse(dateLayout, req.CheckOut)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid check_out, expected YYYY-MM-DD")
			return
		}
		fields = []string{req.Name, req.CheckIn, req.CheckOut}
		apply = func() error {
			_, err := h.tripService.AddLodging(r.Context(), user.ID, models.AddLodgingParams{
				TripID:       tripID,
				Name:         req.Name,
				Address:      req.Address,
				CheckIn:      checkIn,
				CheckOut:     checkOut,
				Confirmation: req.Confirmation,
			})
			return err
		}

	case models.FormKindDates:
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD")
			return
		}
		end, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD")
			return
		}
		if end.Before(start) {
			writeError(w, http.StatusBadRequest, "end_date must not precede start_date")
			return
		}
		fields = []string{req.StartDate, req.EndDate}
		apply = func() error {
			_, err := h.tripService.Update(r.Context(), user.ID, tripID, models.UpdateTripParams{
				StartDate: &start,
				EndDate:   &end,
			})
			return err
		}

	default:
		writeError(w, http.StatusBadRequest, "Unsupported logistics kind")
		return
	}

	if err := apply(); err != nil {
		if errors.Is(err, services.ErrTripNotFound) {
			writeError(w, http.StatusNotFound, "Trip not found")
			return
		}
		log.Printf("Error applying %s logistics: %v", kind, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	prompt, err := h.suggestionService.StageLogistics(r.Context(), tripID, kind, fields)
	if err != nil {
		log.Printf("Error staging %s logistics: %v", kind, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if _, err := h.tripService.AddMessage(r.Context(), user.ID, tripID, models.RoleUser, prompt); err != nil {
		log.Printf("Error recording logistics prompt: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"prompt": prompt})
}
