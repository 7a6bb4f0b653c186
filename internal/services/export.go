package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/wayfarerhq/wayfarer/internal/models"
)

// ExportService renders a trip's itinerary as an iCalendar feed. Flights and
// timed schedule entries become events, lodgings become all-day spans.
type ExportService struct {
	trips *TripService
}

func NewExportService(trips *TripService) *ExportService {
	return &ExportService{trips: trips}
}

// ICS returns the serialized calendar for a trip.
func (s *ExportService) ICS(ctx context.Context, userID, tripID uuid.UUID) (string, error) {
	trip, err := s.trips.GetByID(ctx, userID, tripID)
	if err != nil {
		return "", err
	}

	snap, err := s.trips.Snapshot(ctx, userID, tripID)
	if err != nil {
		return "", err
	}

	loc := time.UTC
	if trip.Timezone != nil {
		if l, err := time.LoadLocation(*trip.Timezone); err == nil {
			loc = l
		}
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Wayfarer//Trip Export//EN")
	cal.SetName(trip.Name)

	for _, f := range snap.Flights {
		ev := cal.AddEvent(fmt.Sprintf("flight-%s@wayfarer", f.ID))
		ev.SetSummary(flightSummary(f))
		ev.SetStartAt(f.Departure.In(loc))
		if f.Arrival != nil {
			ev.SetEndAt(f.Arrival.In(loc))
		} else {
			ev.SetEndAt(f.Departure.Add(2 * time.Hour).In(loc))
		}
		ev.SetLocation(f.Origin)
		ev.SetCreatedTime(f.CreatedAt)
	}

	for _, l := range snap.Accommodation {
		ev := cal.AddEvent(fmt.Sprintf("lodging-%s@wayfarer", l.ID))
		ev.SetSummary("Stay: " + l.Name)
		ev.SetAllDayStartAt(l.CheckIn.In(loc))
		ev.SetAllDayEndAt(l.CheckOut.In(loc))
		if l.Address != "" {
			ev.SetLocation(l.Address)
		}
		if l.Confirmation != "" {
			ev.SetDescription("Confirmation: " + l.Confirmation)
		}
		ev.SetCreatedTime(l.CreatedAt)
	}

	// Schedule entries are day-indexed; without header dates they cannot be
	// anchored to the calendar.
	if snap.Header.HasDates() {
		start := *snap.Header.StartDate
		for _, e := range snap.DailySchedule {
			day := start.AddDate(0, 0, e.Day-1)
			ev := cal.AddEvent(fmt.Sprintf("schedule-%s@wayfarer", e.ID))
			ev.SetSummary(e.Title)
			if e.Detail != "" {
				ev.SetDescription(e.Detail)
			}
			if e.StartTime != nil {
				at := time.Date(day.Year(), day.Month(), day.Day(),
					e.StartTime.Hour(), e.StartTime.Minute(), 0, 0, loc)
				ev.SetStartAt(at)
				ev.SetEndAt(at.Add(time.Hour))
			} else {
				ev.SetAllDayStartAt(day)
				ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
			}
			ev.SetCreatedTime(e.CreatedAt)
		}
	}

	if len(snap.HelpfulNotes) > 0 && snap.Header.HasDates() {
		topics := lo.Map(snap.HelpfulNotes, func(n models.TripNote, _ int) string {
			if n.Topic != "" {
				return n.Topic
			}
			return n.Body
		})
		ev := cal.AddEvent(fmt.Sprintf("notes-%s@wayfarer", trip.ID))
		ev.SetSummary("Trip notes: " + trip.Destination)
		ev.SetDescription(strings.Join(topics, "\n"))
		ev.SetAllDayStartAt(*snap.Header.StartDate)
		ev.SetAllDayEndAt(snap.Header.StartDate.AddDate(0, 0, 1))
	}

	return cal.Serialize(), nil
}

func flightSummary(f models.FlightEntry) string {
	label := f.Airline
	if f.FlightNumber != "" {
		label += " " + f.FlightNumber
	}
	return fmt.Sprintf("Flight %s: %s → %s", label, f.Origin, f.Destination)
}
