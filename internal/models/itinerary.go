package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type FlightEntry struct {
	ID           uuid.UUID  `json:"id"`
	TripID       uuid.UUID  `json:"trip_id"`
	Airline      string     `json:"airline"`
	FlightNumber string     `json:"flight_number,omitempty"`
	Origin       string     `json:"origin"`
	Destination  string     `json:"destination"`
	Departure    time.Time  `json:"departure"`
	Arrival      *time.Time `json:"arrival,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type LodgingEntry struct {
	ID           uuid.UUID `json:"id"`
	TripID       uuid.UUID `json:"trip_id"`
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	CheckIn      time.Time `json:"check_in"`
	CheckOut     time.Time `json:"check_out"`
	Confirmation string    `json:"confirmation,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ScheduleEntry struct {
	ID        uuid.UUID  `json:"id"`
	TripID    uuid.UUID  `json:"trip_id"`
	Day       int        `json:"day"`
	Title     string     `json:"title"`
	Detail    string     `json:"detail,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type TripNote struct {
	ID        uuid.UUID `json:"id"`
	TripID    uuid.UUID `json:"trip_id"`
	Topic     string    `json:"topic,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type AddFlightParams struct {
	TripID       uuid.UUID
	Airline      string
	FlightNumber string
	Origin       string
	Destination  string
	Departure    time.Time
	Arrival      *time.Time
}

type AddLodgingParams struct {
	TripID       uuid.UUID
	Name         string
	Address      string
	CheckIn      time.Time
	CheckOut     time.Time
	Confirmation string
}

type AddScheduleEntryParams struct {
	TripID    uuid.UUID
	Day       int
	Title     string
	Detail    string
	StartTime *time.Time
}

type AddNoteParams struct {
	TripID uuid.UUID
	Topic  string
	Body   string
}

// ItineraryHeader carries the trip-level dates of an itinerary.
type ItineraryHeader struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

func (h ItineraryHeader) HasDates() bool {
	return h.StartDate != nil
}

// ItinerarySnapshot is a read-only view of a trip's itinerary, assembled by
// the trip service and consumed by the suggestion engine. The engine only
// inspects presence, counts, and note text; it never mutates a snapshot.
type ItinerarySnapshot struct {
	Header        ItineraryHeader `json:"header"`
	Flights       []FlightEntry   `json:"flights,omitempty"`
	Accommodation []LodgingEntry  `json:"accommodation,omitempty"`
	DailySchedule []ScheduleEntry `json:"daily_schedule,omitempty"`
	HelpfulNotes  []TripNote      `json:"helpful_notes,omitempty"`
}

// HasAnySection reports whether any itinerary section holds data.
func (s ItinerarySnapshot) HasAnySection() bool {
	return len(s.Flights) > 0 || len(s.Accommodation) > 0 ||
		len(s.DailySchedule) > 0 || len(s.HelpfulNotes) > 0
}

// HasCoreScaffold reports whether the itinerary has enough anchored data
// (header dates plus at least one logistic booking) to make broad advisory
// suggestions worthwhile.
func (s ItinerarySnapshot) HasCoreScaffold() bool {
	return s.Header.HasDates() && (len(s.Flights) > 0 || len(s.Accommodation) > 0)
}

// NotesText returns the helpful-notes text joined for keyword scanning.
func (s ItinerarySnapshot) NotesText() string {
	if len(s.HelpfulNotes) == 0 {
		return ""
	}
	var b strings.Builder
	for _, n := range s.HelpfulNotes {
		b.WriteString(n.Topic)
		b.WriteString(" ")
		b.WriteString(n.Body)
		b.WriteString("\n")
	}
	return b.String()
}
