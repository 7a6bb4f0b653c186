package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/wayfarerhq/wayfarer/internal/models"
	"github.com/wayfarerhq/wayfarer/internal/suggest"
)

// UserServiceInterface defines the contract for user operations.
type UserServiceInterface interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) error
}

// AuthServiceInterface defines the contract for authentication operations.
type AuthServiceInterface interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	GenerateSessionToken() (token string, hash string, err error)
	CreateSession(ctx context.Context, userID uuid.UUID) (token string, err error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error
}

// TripServiceInterface defines the contract for trip and itinerary operations
// used by handlers.
type TripServiceInterface interface {
	Create(ctx context.Context, params models.CreateTripParams) (*models.Trip, error)
	GetByID(ctx context.Context, userID, tripID uuid.UUID) (*models.Trip, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Trip, error)
	Update(ctx context.Context, userID, tripID uuid.UUID, params models.UpdateTripParams) (*models.Trip, error)
	Delete(ctx context.Context, userID, tripID uuid.UUID) error
	AddFlight(ctx context.Context, userID uuid.UUID, params models.AddFlightParams) (*models.FlightEntry, error)
	DeleteFlight(ctx context.Context, userID, tripID, flightID uuid.UUID) error
	AddLodging(ctx context.Context, userID uuid.UUID, params models.AddLodgingParams) (*models.LodgingEntry, error)
	DeleteLodging(ctx context.Context, userID, tripID, lodgingID uuid.UUID) error
	AddScheduleEntry(ctx context.Context, userID uuid.UUID, params models.AddScheduleEntryParams) (*models.ScheduleEntry, error)
	DeleteScheduleEntry(ctx context.Context, userID, tripID, entryID uuid.UUID) error
	ReplaceSchedule(ctx context.Context, userID, tripID uuid.UUID, entries []models.AddScheduleEntryParams) error
	AddNote(ctx context.Context, userID uuid.UUID, params models.AddNoteParams) (*models.TripNote, error)
	DeleteNote(ctx context.Context, userID, tripID, noteID uuid.UUID) error
	Snapshot(ctx context.Context, userID, tripID uuid.UUID) (models.ItinerarySnapshot, error)
	AddMessage(ctx context.Context, userID, tripID uuid.UUID, role models.ChatRole, content string) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, userID, tripID uuid.UUID, limit int) ([]models.ChatMessage, error)
	CountUserMessages(ctx context.Context, tripID uuid.UUID) (int, error)
}

// SuggestionServiceInterface defines the contract for suggestion operations.
type SuggestionServiceInterface interface {
	ListForTrip(ctx context.Context, userID, tripID uuid.UUID, country *string, directives *models.UIDirectives) (suggest.Result, error)
	Dismiss(ctx context.Context, tripID uuid.UUID, rawID string) error
	StageLogistics(ctx context.Context, tripID uuid.UUID, kind models.FormKind, fields []string) (string, error)
	MarkRegenerated(tripID uuid.UUID)
}

// EmailServiceInterface defines the contract for email operations.
type EmailServiceInterface interface {
	SendVerificationEmail(ctx context.Context, userID uuid.UUID, email string) error
	VerifyEmail(ctx context.Context, token string) (uuid.UUID, error)
}

// ExportServiceInterface defines the contract for itinerary export.
type ExportServiceInterface interface {
	ICS(ctx context.Context, userID, tripID uuid.UUID) (string, error)
}
