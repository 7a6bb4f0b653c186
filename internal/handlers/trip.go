package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarerhq/wayfarer/internal/models"
	"github.com/wayfarerhq/wayfarer/internal/services"
)

const dateLayout = "2006-01-02"

type TripHandler struct {
	tripService services.TripServiceInterface
}

func NewTripHandler(tripService services.TripServiceInterface) *TripHandler {
	return &TripHandler{tripService: tripService}
}

type CreateTripRequest struct {
	Name        string   `json:"name"`
	Destination string   `json:"destination"`
	Country     *string  `json:"country,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	StartDate   *string  `json:"start_date,omitempty"`
	EndDate     *string  `json:"end_date,omitempty"`
}

type UpdateTripRequest struct {
	Name        *string `json:"name,omitempty"`
	Destination *string `json:"destination,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}

func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Name == "" || req.Destination == "" {
		writeError(w, http.StatusBadRequest, "Name and destination are required")
		return
	}

	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD")
		return
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD")
		return
	}
	if start != nil && end != nil && end.Before(*start) {
		writeError(w, http.StatusBadRequest, "end_date must not precede start_date")
		return
	}

	trip, err := h.tripService.Create(r.Context(), models.CreateTripParams{
		UserID:      user.ID,
		Name:        req.Name,
		Destination: req.Destination,
		Country:     req.Country,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		log.Printf("Error creating trip: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, trip)
}

func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	trips, err := h.tripService.ListByUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing trips: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if trips == nil {
		trips = []*models.Trip{}
	}

	writeJSON(w, http.StatusOK, trips)
}

func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("Error getting trip: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	var req UpdateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD")
		return
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD")
		return
	}

	trip, err := h.tripService.Update(r.Context(), user.ID, tripID, models.UpdateTripParams{
		Name:        req.Name,
		Destination: req.Destination,
		StartDate:   start,
		EndDate:     end,
	})
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		log.Printf("Error updating trip: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	err := h.tripService.Delete(r.Context(), user.ID, tripID)
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting trip: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Trip deleted"})
}

func (h *TripHandler) Itinerary(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	snap, err := h.tripService.Snapshot(r.Context(), user.ID, tripID)
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		log.Printf("Error assembling itinerary: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

type AddFlightRequest struct {
	Airline      string  `json:"airline"`
	FlightNumber string  `json:"flight_number,omitempty"`
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	Departure    string  `json:"departure"`
	Arrival      *string `json:"arrival,omitempty"`
}

func (h *TripHandler) AddFlight(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	var req AddFlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
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

	entry, err := h.tripService.AddFlight(r.Context(), user.ID, models.AddFlightParams{
		TripID:       tripID,
		Airline:      req.Airline,
		FlightNumber: req.FlightNumber,
		Origin:       req.Origin,
		Destination:  req.Destination,
		Departure:    departure,
		Arrival:      arrival,
	})
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		log.Printf("Error adding flight: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (h *TripHandler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	h.deleteEntry(w, r, "flightID", h.tripService.DeleteFlight)
}

type AddLodgingRequest struct {
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	CheckIn      string `json:"check_in"`
	CheckOut     string `json:"check_out"`
	Confirmation string `json:"confirmation,omitempty"`
}

func (h *TripHandler) AddLodging(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	var req AddLodgingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
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
	if checkOut.Before(checkIn) {
		writeError(w, http.StatusBadRequest, "check_out must not precede check_in")
		return
	}

	entry, err := h.tripService.AddLodging(r.Context(), user.ID, models.AddLodgingParams{
		TripID:       tripID,
		Name:         req.Name,
		Address:      req.Address,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Confirmation: req.Confirmation,
	})
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		log.Printf("Error adding lodging: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (h *TripHandler) DeleteLodging(w http.ResponseWriter, r *http.Request) {
	h.deleteEntry(w, r, "lodgingID", h.tripService.DeleteLodging)
}

type AddScheduleEntryRequest struct {
	Day       int     `json:"day"`
	Title     string  `json:"title"`
	Detail    string  `json:"detail,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
}

func (h *TripHandler) AddScheduleEntry(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	var req AddScheduleEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Day < 1 {
		writeError(w, http.StatusBadRequest, "Day must be 1 or greater")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	var startTime *time.Time
	if req.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_time, expected RFC3339")
			return
		}
		startTime = &t
	}

	entry, err := h.tripService.AddScheduleEntry(r.Context(), user.ID, models.AddScheduleEntryParams{
		TripID:    tripID,
		Day:       req.Day,
		Title:     req.Title,
		Detail:    req.Detail,
		StartTime: startTime,
	})
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		log.Printf("Error adding schedule entry: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (h *TripHandler) DeleteScheduleEntry(w http.ResponseWriter, r *http.Request) {
	h.deleteEntry(w, r, "entryID", h.tripService.DeleteScheduleEntry)
}

type AddNoteRequest struct {
	Topic string `json:"topic,omitempty"`
	Body  string `json:"body"`
}

func (h *TripHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	var req AddNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		writeError(w, http.StatusBadRequest, "Body is required")
		return
	}

	note, err := h.tripService.AddNote(r.Context(), user.ID, models.AddNoteParams{
		TripID: tripID,
		Topic:  req.Topic,
		Body:   req.Body,
	})
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		log.Printf("Error adding note: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

func (h *TripHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	h.deleteEntry(w, r, "noteID", h.tripService.DeleteNote)
}

func (h *TripHandler) Messages(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	messages, err := h.tripService.ListMessages(r.Context(), user.ID, tripID, 50)
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		log.Printf("Error listing messages: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}

	writeJSON(w, http.StatusOK, messages)
}

// userAndTrip resolves the authenticated user and the {id} path value, the
// shared preamble of every trip-scoped handler.
func userAndTrip(w http.ResponseWriter, r *http.Request) (*models.User, uuid.UUID, bool) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return nil, uuid.Nil, false
	}

	tripID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid trip ID")
		return nil, uuid.Nil, false
	}

	return user, tripID, true
}

func (h *TripHandler) deleteEntry(w http.ResponseWriter, r *http.Request, pathKey string, del func(ctx context.Context, userID, tripID, entryID uuid.UUID) error) {
	user, tripID, ok := userAndTrip(w, r)
	if !ok {
		return
	}

	entryID, err := uuid.Parse(r.PathValue(pathKey))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry ID")
		return
	}

	err = del(r.Context(), user.ID, tripID, entryID)
	if errors.Is(err, services.ErrTripNotFound) {
		writeError(w, http.StatusNotFound, "Trip not found")
		return
	}
	if errors.Is(err, services.ErrEntryNotFound) {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting itinerary entry: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
