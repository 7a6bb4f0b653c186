package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/wayfarerhq/wayfarer/internal/models"
	"github.com/wayfarerhq/wayfarer/internal/services"
	"github.com/wayfarerhq/wayfarer/internal/services/ai"
	"github.com/wayfarerhq/wayfarer/internal/suggest"
)

type mockUserService struct {
	CreateFunc            func(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByIDFunc           func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc        func(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordFunc    func(ctx context.Context, userID uuid.UUID, newPasswordHash string) error
	MarkEmailVerifiedFunc func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockUserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, userID, newPasswordHash)
	}
	return nil
}

func (m *mockUserService) MarkEmailVerified(ctx context.Context, userID uuid.UUID) error {
	if m.MarkEmailVerifiedFunc != nil {
		return m.MarkEmailVerifiedFunc(ctx, userID)
	}
	return nil
}

type mockAuthService struct {
	HashPasswordFunc          func(password string) (string, error)
	VerifyPasswordFunc        func(hash, password string) bool
	GenerateSessionTokenFunc  func() (string, string, error)
	CreateSessionFunc         func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateSessionFunc       func(ctx context.Context, token string) (*models.User, error)
	DeleteSessionFunc         func(ctx context.Context, token string) error
	DeleteAllUserSessionsFunc func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockAuthService) HashPassword(password string) (string, error) {
	if m.HashPasswordFunc != nil {
		return m.HashPasswordFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *mockAuthService) VerifyPassword(hash, password string) bool {
	if m.VerifyPasswordFunc != nil {
		return m.VerifyPasswordFunc(hash, password)
	}
	return hash == "hashed_"+password
}

func (m *mockAuthService) GenerateSessionToken() (string, string, error) {
	if m.GenerateSessionTokenFunc != nil {
		return m.GenerateSessionTokenFunc()
	}
	return "token", "hash", nil
}

func (m *mockAuthService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, userID)
	}
	return "test_session_token", nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, token)
	}
	return nil, nil
}

func (m *mockAuthService) DeleteSession(ctx context.Context, token string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, token)
	}
	return nil
}

func (m *mockAuthService) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	if m.DeleteAllUserSessionsFunc != nil {
		return m.DeleteAllUserSessionsFunc(ctx, userID)
	}
	return nil
}

type mockEmailService struct {
	SendVerificationEmailFunc func(ctx context.Context, userID uuid.UUID, email string) error
	VerifyEmailFunc           func(ctx context.Context, token string) (uuid.UUID, error)
}

func (m *mockEmailService) SendVerificationEmail(ctx context.Context, userID uuid.UUID, email string) error {
	if m.SendVerificationEmailFunc != nil {
		return m.SendVerificationEmailFunc(ctx, userID, email)
	}
	return nil
}

func (m *mockEmailService) VerifyEmail(ctx context.Context, token string) (uuid.UUID, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, token)
	}
	return uuid.Nil, nil
}

type mockTripService struct {
	CreateFunc              func(ctx context.Context, params models.CreateTripParams) (*models.Trip, error)
	GetByIDFunc             func(ctx context.Context, userID, tripID uuid.UUID) (*models.Trip, error)
	ListByUserFunc          func(ctx context.Context, userID uuid.UUID) ([]*models.Trip, error)
	UpdateFunc              func(ctx context.Context, userID, tripID uuid.UUID, params models.UpdateTripParams) (*models.Trip, error)
	DeleteFunc              func(ctx context.Context, userID, tripID uuid.UUID) error
	AddFlightFunc           func(ctx context.Context, userID uuid.UUID, params models.AddFlightParams) (*models.FlightEntry, error)
	DeleteFlightFunc        func(ctx context.Context, userID, tripID, flightID uuid.UUID) error
	AddLodgingFunc          func(ctx context.Context, userID uuid.UUID, params models.AddLodgingParams) (*models.LodgingEntry, error)
	DeleteLodgingFunc       func(ctx context.Context, userID, tripID, lodgingID uuid.UUID) error
	AddScheduleEntryFunc    func(ctx context.Context, userID uuid.UUID, params models.AddScheduleEntryParams) (*models.ScheduleEntry, error)
	DeleteScheduleEntryFunc func(ctx context.Context, userID, tripID, entryID uuid.UUID) error
	ReplaceScheduleFunc     func(ctx context.Context, userID, tripID uuid.UUID, entries []models.AddScheduleEntryParams) error
	AddNoteFunc             func(ctx context.Context, userID uuid.UUID, params models.AddNoteParams) (*models.TripNote, error)
	DeleteNoteFunc          func(ctx context.Context, userID, tripID, noteID uuid.UUID) error
	SnapshotFunc            func(ctx context.Context, userID, tripID uuid.UUID) (models.ItinerarySnapshot, error)
	AddMessageFunc          func(ctx context.Context, userID, tripID uuid.UUID, role models.ChatRole, content string) (*models.ChatMessage, error)
	ListMessagesFunc        func(ctx context.Context, userID, tripID uuid.UUID, limit int) ([]models.ChatMessage, error)
	CountUserMessagesFunc   func(ctx context.Context, tripID uuid.UUID) (int, error)
}

func (m *mockTripService) Create(ctx context.Context, params models.CreateTripParams) (*models.Trip, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockTripService) GetByID(ctx context.Context, userID, tripID uuid.UUID) (*models.Trip, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID, tripID)
	}
	return nil, services.ErrTripNotFound
}

func (m *mockTripService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Trip, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockTripService) Update(ctx context.Context, userID, tripID uuid.UUID, params models.UpdateTripParams) (*models.Trip, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userID, tripID, params)
	}
	return nil, nil
}

func (m *mockTripService) Delete(ctx context.Context, userID, tripID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, tripID)
	}
	return nil
}

func (m *mockTripService) AddFlight(ctx context.Context, userID uuid.UUID, params models.AddFlightParams) (*models.FlightEntry, error) {
	if m.AddFlightFunc != nil {
		return m.AddFlightFunc(ctx, userID, params)
	}
	return &models.FlightEntry{}, nil
}

func (m *mockTripService) DeleteFlight(ctx context.Context, userID, tripID, flightID uuid.UUID) error {
	if m.DeleteFlightFunc != nil {
		return m.DeleteFlightFunc(ctx, userID, tripID, flightID)
	}
	return nil
}

func (m *mockTripService) AddLodging(ctx context.Context, userID uuid.UUID, params models.AddLodgingParams) (*models.LodgingEntry, error) {
	if m.AddLodgingFunc != nil {
		return m.AddLodgingFunc(ctx, userID, params)
	}
	return &models.LodgingEntry{}, nil
}

func (m *mockTripService) DeleteLodging(ctx context.Context, userID, tripID, lodgingID uuid.UUID) error {
	if m.DeleteLodgingFunc != nil {
		return m.DeleteLodgingFunc(ctx, userID, tripID, lodgingID)
	}
	return nil
}

func (m *mockTripService) AddScheduleEntry(ctx context.Context, userID uuid.UUID, params models.AddScheduleEntryParams) (*models.ScheduleEntry, error) {
	if m.AddScheduleEntryFunc != nil {
		return m.AddScheduleEntryFunc(ctx, userID, params)
	}
	return &models.ScheduleEntry{}, nil
}

func (m *mockTripService) DeleteScheduleEntry(ctx context.Context, userID, tripID, entryID uuid.UUID) error {
	if m.DeleteScheduleEntryFunc != nil {
		return m.DeleteScheduleEntryFunc(ctx, userID, tripID, entryID)
	}
	return nil
}

func (m *mockTripService) ReplaceSchedule(ctx context.Context, userID, tripID uuid.UUID, entries []models.AddScheduleEntryParams) error {
	if m.ReplaceScheduleFunc != nil {
		return m.ReplaceScheduleFunc(ctx, userID, tripID, entries)
	}
	return nil
}

func (m *mockTripService) AddNote(ctx context.Context, userID uuid.UUID, params models.AddNoteParams) (*models.TripNote, error) {
	if m.AddNoteFunc != nil {
		return m.AddNoteFunc(ctx, userID, params)
	}
	return &models.TripNote{}, nil
}

func (m *mockTripService) DeleteNote(ctx context.Context, userID, tripID, noteID uuid.UUID) error {
	if m.DeleteNoteFunc != nil {
		return m.DeleteNoteFunc(ctx, userID, tripID, noteID)
	}
	return nil
}

func (m *mockTripService) Snapshot(ctx context.Context, userID, tripID uuid.UUID) (models.ItinerarySnapshot, error) {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(ctx, userID, tripID)
	}
	return models.ItinerarySnapshot{}, nil
}

func (m *mockTripService) AddMessage(ctx context.Context, userID, tripID uuid.UUID, role models.ChatRole, content string) (*models.ChatMessage, error) {
	if m.AddMessageFunc != nil {
		return m.AddMessageFunc(ctx, userID, tripID, role, content)
	}
	return &models.ChatMessage{TripID: tripID, Role: role, Content: content}, nil
}

func (m *mockTripService) ListMessages(ctx context.Context, userID, tripID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, userID, tripID, limit)
	}
	return nil, nil
}

func (m *mockTripService) CountUserMessages(ctx context.Context, tripID uuid.UUID) (int, error) {
	if m.CountUserMessagesFunc != nil {
		return m.CountUserMessagesFunc(ctx, tripID)
	}
	return 0, nil
}

type mockSuggestionService struct {
	ListForTripFunc     func(ctx context.Context, userID, tripID uuid.UUID, country *string, directives *models.UIDirectives) (suggest.Result, error)
	DismissFunc         func(ctx context.Context, tripID uuid.UUID, rawID string) error
	StageLogisticsFunc  func(ctx context.Context, tripID uuid.UUID, kind models.FormKind, fields []string) (string, error)
	MarkRegeneratedFunc func(tripID uuid.UUID)
}

func (m *mockSuggestionService) ListForTrip(ctx context.Context, userID, tripID uuid.UUID, country *string, directives *models.UIDirectives) (suggest.Result, error) {
	if m.ListForTripFunc != nil {
		return m.ListForTripFunc(ctx, userID, tripID, country, directives)
	}
	return suggest.Result{}, nil
}

func (m *mockSuggestionService) Dismiss(ctx context.Context, tripID uuid.UUID, rawID string) error {
	if m.DismissFunc != nil {
		return m.DismissFunc(ctx, tripID, rawID)
	}
	return nil
}

func (m *mockSuggestionService) StageLogistics(ctx context.Context, tripID uuid.UUID, kind models.FormKind, fields []string) (string, error) {
	if m.StageLogisticsFunc != nil {
		return m.StageLogisticsFunc(ctx, tripID, kind, fields)
	}
	return string(kind), nil
}

func (m *mockSuggestionService) MarkRegenerated(tripID uuid.UUID) {
	if m.MarkRegeneratedFunc != nil {
		m.MarkRegeneratedFunc(tripID)
	}
}

type mockExportService struct {
	ICSFunc func(ctx context.Context, userID, tripID uuid.UUID) (string, error)
}

func (m *mockExportService) ICS(ctx context.Context, userID, tripID uuid.UUID) (string, error) {
	if m.ICSFunc != nil {
		return m.ICSFunc(ctx, userID, tripID)
	}
	return "", nil
}

type mockAssistant struct {
	ChatFunc              func(ctx context.Context, trip *models.Trip, snap models.ItinerarySnapshot, history []models.ChatMessage, userMessage string) (*ai.Reply, error)
	RegenerateOutlineFunc func(ctx context.Context, trip *models.Trip, snap models.ItinerarySnapshot, stagedPrompt string) ([]ai.OutlineDay, error)
}

func (m *mockAssistant) Chat(ctx context.Context, trip *models.Trip, snap models.ItinerarySnapshot, history []models.ChatMessage, userMessage string) (*ai.Reply, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, trip, snap, history, userMessage)
	}
	return &ai.Reply{Content: "ok"}, nil
}

func (m *mockAssistant) RegenerateOutline(ctx context.Context, trip *models.Trip, snap models.ItinerarySnapshot, stagedPrompt string) ([]ai.OutlineDay, error) {
	if m.RegenerateOutlineFunc != nil {
		return m.RegenerateOutlineFunc(ctx, trip, snap, stagedPrompt)
	}
	return nil, nil
}
