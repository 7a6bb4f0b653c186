package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wayfarerhq/wayfarer/internal/models"
)

var (
	ErrTripNotFound  = errors.New("trip not found")
	ErrEntryNotFound = errors.New("itinerary entry not found")
)

// TimezoneFinder resolves an IANA timezone name from coordinates. Satisfied
// by tzf.DefaultFinder; tests substitute a stub.
type TimezoneFinder interface {
	GetTimezoneName(lng, lat float64) string
}

type TripService struct {
	db     DB
	tzffnd TimezoneFinder
}

func NewTripService(db DB, finder TimezoneFinder) *TripService {
	return &TripService{db: db, tzffnd: finder}
}

func (s *TripService) Create(ctx context.Context, params models.CreateTripParams) (*models.Trip, error) {
	var tz *string
	if s.tzffnd != nil && params.Latitude != nil && params.Longitude != nil {
		if name := s.tzffnd.GetTimezoneName(*params.Longitude, *params.Latitude); name != "" {
			tz = &name
		}
	}

	trip := &models.Trip{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO trips (user_id, name, destination, country, latitude, longitude, timezone, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, user_id, name, destination, country, latitude, longitude, timezone, start_date, end_date, created_at, updated_at`,
		params.UserID, params.Name, params.Destination, params.Country,
		params.Latitude, params.Longitude, tz, params.StartDate, params.EndDate,
	).Scan(&trip.ID, &trip.UserID, &trip.Name, &trip.Destination, &trip.Country,
		&trip.Latitude, &trip.Longitude, &trip.Timezone, &trip.StartDate, &trip.EndDate,
		&trip.CreatedAt, &trip.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("creating trip: %w", err)
	}

	return trip, nil
}

func (s *TripService) GetByID(ctx context.Context, userID, tripID uuid.UUID) (*models.Trip, error) {
	trip := &models.Trip{}
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, name, destination, country, latitude, longitude, timezone, start_date, end_date, created_at, updated_at
		 FROM trips WHERE id = $1 AND user_id = $2`,
		tripID, userID,
	).Scan(&trip.ID, &trip.UserID, &trip.Name, &trip.Destination, &trip.Country,
		&trip.Latitude, &trip.Longitude, &trip.Timezone, &trip.StartDate, &trip.EndDate,
		&trip.CreatedAt, &trip.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting trip: %w", err)
	}

	return trip, nil
}

func (s *TripService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Trip, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, destination, country, latitude, longitude, timezone, start_date, end_date, created_at, updated_at
		 FROM trips WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	defer rows.Close()

	var trips []*models.Trip
	for rows.Next() {
		trip := &models.Trip{}
		if err := rows.Scan(&trip.ID, &trip.UserID, &trip.Name, &trip.Destination, &trip.Country,
			&trip.Latitude, &trip.Longitude, &trip.Timezone, &trip.StartDate, &trip.EndDate,
			&trip.CreatedAt, &trip.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

func (s *TripService) Update(ctx context.Context, userID, tripID uuid.UUID, params models.UpdateTripParams) (*models.Trip, error) {
	trip := &models.Trip{}
	err := s.db.QueryRow(ctx,
		`UPDATE trips SET
			name = COALESCE($1, name),
			destination = COALESCE($2, destination),
			start_date = COALESCE($3, start_date),
			end_date = COALESCE($4, end_date),
			updated_at = NOW()
		 WHERE id = $5 AND user_id = $6
		 RETURNING id, user_id, name, destination, country, latitude, longitude, timezone, start_date, end_date, created_at, updated_at`,
		params.Name, params.Destination, params.StartDate, params.EndDate, tripID, userID,
	).Scan(&trip.ID, &trip.UserID, &trip.Name, &trip.Destination, &trip.Country,
		&trip.Latitude, &trip.Longitude, &trip.Timezone, &trip.StartDate, &trip.EndDate,
		&trip.CreatedAt, &trip.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating trip: %w", err)
	}

	return trip, nil
}

func (s *TripService) Delete(ctx context.Context, userID, tripID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		`DELETE FROM trips WHERE id = $1 AND user_id = $2`,
		tripID, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting trip: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

// ownedTrip verifies the trip exists and belongs to the user before any
// itinerary mutation.
func (s *TripService) ownedTrip(ctx context.Context, userID, tripID uuid.UUID) error {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM trips WHERE id = $1 AND user_id = $2)`,
		tripID, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking trip ownership: %w", err)
	}
	if !exists {
		return ErrTripNotFound
	}
	return nil
}

func (s *TripService) AddFlight(ctx context.Context, userID uuid.UUID, params models.AddFlightParams) (*models.FlightEntry, error) {
	if err := s.ownedTrip(ctx, userID, params.TripID); err != nil {
		return nil, err
	}

	entry := &models.FlightEntry{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO flights (trip_id, airline, flight_number, origin, destination, departure, arrival)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, trip_id, airline, flight_number, origin, destination, departure, arrival, created_at`,
		params.TripID, params.Airline, params.FlightNumber, params.Origin, params.Destination,
		params.Departure, params.Arrival,
	).Scan(&entry.ID, &entry.TripID, &entry.Airline, &entry.FlightNumber, &entry.Origin,
		&entry.Destination, &entry.Departure, &entry.Arrival, &entry.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("adding flight: %w", err)
	}

	return entry, nil
}

func (s *TripService) DeleteFlight(ctx context.Context, userID, tripID, flightID uuid.UUID) error {
	if err := s.ownedTrip(ctx, userID, tripID); err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM flights WHERE id = $1 AND trip_id = $2`,
		flightID, tripID,
	)
	if err != nil {
		return fmt.Errorf("deleting flight: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (s *TripService) AddLodging(ctx context.Context, userID uuid.UUID, params models.AddLodgingParams) (*models.LodgingEntry, error) {
	if err := s.ownedTrip(ctx, userID, params.TripID); err != nil {
		return nil, err
	}

	entry := &models.LodgingEntry{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO lodgings (trip_id, name, address, check_in, check_out, confirmation)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, trip_id, name, address, check_in, check_out, confirmation, created_at`,
		params.TripID, params.Name, params.Address, params.CheckIn, params.CheckOut, params.Confirmation,
	).Scan(&entry.ID, &entry.TripID, &entry.Name, &entry.Address, &entry.CheckIn,
		&entry.CheckOut, &entry.Confirmation, &entry.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("adding lodging: %w", err)
	}

	return entry, nil
}

func (s *TripService) DeleteLodging(ctx context.Context, userID, tripID, lodgingID uuid.UUID) error {
	if err := s.ownedTrip(ctx, userID, tripID); err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM lodgings WHERE id = $1 AND trip_id = $2`,
		lodgingID, tripID,
	)
	if err != nil {
		return fmt.Errorf("deleting lodging: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (s *TripService) AddScheduleEntry(ctx context.Context, userID uuid.UUID, params models.AddScheduleEntryParams) (*models.ScheduleEntry, error) {
	if err := s.ownedTrip(ctx, userID, params.TripID); err != nil {
		return nil, err
	}

	entry := &models.ScheduleEntry{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO schedule_entries (trip_id, day, title, detail, start_time)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, trip_id, day, title, detail, start_time, created_at`,
		params.TripID, params.Day, params.Title, params.Detail, params.StartTime,
	).Scan(&entry.ID, &entry.TripID, &entry.Day, &entry.Title, &entry.Detail,
		&entry.StartTime, &entry.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("adding schedule entry: %w", err)
	}

	return entry, nil
}

func (s *TripService) DeleteScheduleEntry(ctx context.Context, userID, tripID, entryID uuid.UUID) error {
	if err := s.ownedTrip(ctx, userID, tripID); err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM schedule_entries WHERE id = $1 AND trip_id = $2`,
		entryID, tripID,
	)
	if err != nil {
		return fmt.Errorf("deleting schedule entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ReplaceSchedule swaps out the full daily schedule, used when the assistant
// regenerates the outline.
func (s *TripService) ReplaceSchedule(ctx context.Context, userID, tripID uuid.UUID, entries []models.AddScheduleEntryParams) error {
	if err := s.ownedTrip(ctx, userID, tripID); err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM schedule_entries WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("clearing schedule: %w", err)
	}

	for _, e := range entries {
		_, err := s.db.Exec(ctx,
			`INSERT INTO schedule_entries (trip_id, day, title, detail, start_time)
			 VALUES ($1, $2, $3, $4, $5)`,
			tripID, e.Day, e.Title, e.Detail, e.StartTime,
		)
		if err != nil {
			return fmt.Errorf("inserting schedule entry: %w", err)
		}
	}

	return nil
}

func (s *TripService) AddNote(ctx context.Context, userID uuid.UUID, params models.AddNoteParams) (*models.TripNote, error) {
	if err := s.ownedTrip(ctx, userID, params.TripID); err != nil {
		return nil, err
	}

	note := &models.TripNote{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO trip_notes (trip_id, topic, body)
		 VALUES ($1, $2, $3)
		 RETURNING id, trip_id, topic, body, created_at`,
		params.TripID, params.Topic, params.Body,
	).Scan(&note.ID, &note.TripID, &note.Topic, &note.Body, &note.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("adding note: %w", err)
	}

	return note, nil
}

func (s *TripService) DeleteNote(ctx context.Context, userID, tripID, noteID uuid.UUID) error {
	if err := s.ownedTrip(ctx, userID, tripID); err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM trip_notes WHERE id = $1 AND trip_id = $2`,
		noteID, tripID,
	)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Snapshot assembles the full read-only itinerary view the suggestion engine
// and exporter consume.
func (s *TripService) Snapshot(ctx context.Context, userID, tripID uuid.UUID) (models.ItinerarySnapshot, error) {
	var snap models.ItinerarySnapshot

	trip, err := s.GetByID(ctx, userID, tripID)
	if err != nil {
		return snap, err
	}
	snap.Header = models.ItineraryHeader{StartDate: trip.StartDate, EndDate: trip.EndDate}

	flights, err := s.listFlights(ctx, tripID)
	if err != nil {
		return snap, err
	}
	snap.Flights = flights

	lodgings, err := s.listLodgings(ctx, tripID)
	if err != nil {
		return snap, err
	}
	snap.Accommodation = lodgings

	schedule, err := s.listSchedule(ctx, tripID)
	if err != nil {
		return snap, err
	}
	snap.DailySchedule = schedule

	notes, err := s.listNotes(ctx, tripID)
	if err != nil {
		return snap, err
	}
	snap.HelpfulNotes = notes

	return snap, nil
}

func (s *TripService) listFlights(ctx context.Context, tripID uuid.UUID) ([]models.FlightEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, trip_id, airline, flight_number, origin, destination, departure, arrival, created_at
		 FROM flights WHERE trip_id = $1 ORDER BY departure`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing flights: %w", err)
	}
	defer rows.Close()

	var out []models.FlightEntry
	for rows.Next() {
		var e models.FlightEntry
		if err := rows.Scan(&e.ID, &e.TripID, &e.Airline, &e.FlightNumber, &e.Origin,
			&e.Destination, &e.Departure, &e.Arrival, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning flight: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *TripService) listLodgings(ctx context.Context, tripID uuid.UUID) ([]models.LodgingEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, trip_id, name, address, check_in, check_out, confirmation, created_at
		 FROM lodgings WHERE trip_id = $1 ORDER BY check_in`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing lodgings: %w", err)
	}
	defer rows.Close()

	var out []models.LodgingEntry
	for rows.Next() {
		var e models.LodgingEntry
		if err := rows.Scan(&e.ID, &e.TripID, &e.Name, &e.Address, &e.CheckIn,
			&e.CheckOut, &e.Confirmation, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning lodging: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *TripService) listSchedule(ctx context.Context, tripID uuid.UUID) ([]models.ScheduleEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, trip_id, day, title, detail, start_time, created_at
		 FROM schedule_entries WHERE trip_id = $1 ORDER BY day, start_time NULLS LAST, created_at`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing schedule: %w", err)
	}
	defer rows.Close()

	var out []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		if err := rows.Scan(&e.ID, &e.TripID, &e.Day, &e.Title, &e.Detail,
			&e.StartTime, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning schedule entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *TripService) listNotes(ctx context.Context, tripID uuid.UUID) ([]models.TripNote, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, trip_id, topic, body, created_at
		 FROM trip_notes WHERE trip_id = $1 ORDER BY created_at`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var out []models.TripNote
	for rows.Next() {
		var n models.TripNote
		if err := rows.Scan(&n.ID, &n.TripID, &n.Topic, &n.Body, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *TripService) AddMessage(ctx context.Context, userID, tripID uuid.UUID, role models.ChatRole, content string) (*models.ChatMessage, error) {
	if err := s.ownedTrip(ctx, userID, tripID); err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO chat_messages (trip_id, role, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, trip_id, role, content, created_at`,
		tripID, role, content,
	).Scan(&msg.ID, &msg.TripID, &msg.Role, &msg.Content, &msg.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("adding chat message: %w", err)
	}

	return msg, nil
}

func (s *TripService) ListMessages(ctx context.Context, userID, tripID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	if err := s.ownedTrip(ctx, userID, tripID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, trip_id, role, content, created_at
		 FROM (
			SELECT id, trip_id, role, content, created_at
			FROM chat_messages WHERE trip_id = $1
			ORDER BY created_at DESC LIMIT $2
		 ) recent ORDER BY created_at`,
		tripID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.TripID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountUserMessages returns how many user-authored chat messages the trip has,
// which drives stale-pending detection in the suggestion engine.
func (s *TripService) CountUserMessages(ctx context.Context, tripID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE trip_id = $1 AND role = 'user'`,
		tripID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting user messages: %w", err)
	}
	return count, nil
}
