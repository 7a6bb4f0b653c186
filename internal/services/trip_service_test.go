package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wayfarerhq/wayfarer/internal/models"
)

type fakeFinder struct {
	name string
}

func (f fakeFinder) GetTimezoneName(lng, lat float64) string { return f.name }

func tripRowValues(tripID, userID uuid.UUID, start, end *time.Time) []any {
	now := time.Now()
	return []any{
		tripID, userID, "Kyoto in autumn", "Kyoto", "Japan",
		35.0116, 135.7681, "Asia/Tokyo", start, end, now, now,
	}
}

func TestTripService_Create_ResolvesTimezone(t *testing.T) {
	var gotTZ any
	tripID := uuid.New()
	userID := uuid.New()
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			gotTZ = args[6]
			return rowFromValues(tripRowValues(tripID, userID, nil, nil)...)
		},
	}

	lat, lon := 35.0116, 135.7681
	service := NewTripService(db, fakeFinder{name: "Asia/Tokyo"})
	trip, err := service.Create(context.Background(), models.CreateTripParams{
		UserID:      userID,
		Name:        "Kyoto in autumn",
		Destination: "Kyoto",
		Latitude:    &lat,
		Longitude:   &lon,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tz, ok := gotTZ.(*string)
	if !ok || tz == nil || *tz != "Asia/Tokyo" {
		t.Fatalf("expected timezone Asia/Tokyo to be passed, got %v", gotTZ)
	}
	if trip.ID != tripID {
		t.Fatalf("expected trip id %v, got %v", tripID, trip.ID)
	}
}

func TestTripService_Create_NoCoordinatesNoTimezone(t *testing.T) {
	var gotTZ any
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			gotTZ = args[6]
			return rowFromValues(tripRowValues(uuid.New(), uuid.New(), nil, nil)...)
		},
	}

	service := NewTripService(db, fakeFinder{name: "Asia/Tokyo"})
	_, err := service.Create(context.Background(), models.CreateTripParams{
		UserID:      uuid.New(),
		Name:        "Somewhere",
		Destination: "Somewhere",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tz, ok := gotTZ.(*string); !ok || tz != nil {
		t.Fatalf("expected nil timezone, got %v", gotTZ)
	}
}

func TestTripService_GetByID_NotFound(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return fakeRow{scanFunc: func(dest ...any) error {
				return pgx.ErrNoRows
			}}
		},
	}

	service := NewTripService(db, nil)
	_, err := service.GetByID(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
}

func TestTripService_Delete_NotFound(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 0}, nil
		},
	}

	service := NewTripService(db, nil)
	if err := service.Delete(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
}

func TestTripService_AddFlight_OwnershipDenied(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(false)
		},
	}

	service := NewTripService(db, nil)
	_, err := service.AddFlight(context.Background(), uuid.New(), models.AddFlightParams{
		TripID:      uuid.New(),
		Airline:     "ANA",
		Origin:      "SFO",
		Destination: "HND",
		Departure:   time.Now(),
	})
	if !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
}

func TestTripService_Snapshot_AssemblesSections(t *testing.T) {
	tripID := uuid.New()
	userID := uuid.New()
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)
	departure := start.Add(10 * time.Hour)
	now := time.Now()

	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(tripRowValues(tripID, userID, &start, &end)...)
		},
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			switch {
			case strings.Contains(sql, "FROM flights"):
				return rowsFromValues([]any{
					uuid.New(), tripID, "ANA", "NH107", "SFO", "HND", departure, nil, now,
				}), nil
			case strings.Contains(sql, "FROM lodgings"):
				return rowsFromValues([]any{
					uuid.New(), tripID, "Gion Ryokan", "Kyoto", start, end, "CONF-1", now,
				}), nil
			case strings.Contains(sql, "FROM schedule_entries"):
				return rowsFromValues(), nil
			case strings.Contains(sql, "FROM trip_notes"):
				return rowsFromValues([]any{
					uuid.New(), tripID, "etiquette", "Bow when greeting.", now,
				}), nil
			}
			return rowsFromValues(), nil
		},
	}

	service := NewTripService(db, nil)
	snap, err := service.Snapshot(context.Background(), userID, tripID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Header.HasDates() {
		t.Fatal("expected header dates")
	}
	if len(snap.Flights) != 1 || len(snap.Accommodation) != 1 || len(snap.HelpfulNotes) != 1 {
		t.Fatalf("unexpected section counts: %d flights, %d lodgings, %d notes",
			len(snap.Flights), len(snap.Accommodation), len(snap.HelpfulNotes))
	}
	if len(snap.DailySchedule) != 0 {
		t.Fatalf("expected empty schedule, got %d", len(snap.DailySchedule))
	}
	if !snap.HasCoreScaffold() {
		t.Fatal("dates plus flight should form a core scaffold")
	}
}

func TestTripService_CountUserMessages(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(4)
		},
	}

	service := NewTripService(db, nil)
	count, err := service.CountUserMessages(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4, got %d", count)
	}
}

func TestTripService_ReplaceSchedule_ClearsThenInserts(t *testing.T) {
	var execs []string
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(true)
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			execs = append(execs, sql)
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}

	service := NewTripService(db, nil)
	err := service.ReplaceSchedule(context.Background(), uuid.New(), uuid.New(), []models.AddScheduleEntryParams{
		{Day: 1, Title: "Arrive"},
		{Day: 2, Title: "Old town"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(execs) != 3 {
		t.Fatalf("expected 3 execs (delete + 2 inserts), got %d", len(execs))
	}
	if !strings.Contains(execs[0], "DELETE FROM schedule_entries") {
		t.Fatalf("first exec should clear the schedule, got %q", execs[0])
	}
}
