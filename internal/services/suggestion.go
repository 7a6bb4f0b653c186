package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/wayfarerhq/wayfarer/internal/logging"
	"github.com/wayfarerhq/wayfarer/internal/models"
	"github.com/wayfarerhq/wayfarer/internal/suggest"
)

const catalogCacheKey = "catalog:"

// SnapshotProvider is the slice of the trip service the suggestion
// orchestrator needs.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, userID, tripID uuid.UUID) (models.ItinerarySnapshot, error)
	CountUserMessages(ctx context.Context, tripID uuid.UUID) (int, error)
}

// SuggestionService assembles reconciliation inputs per request: the trip's
// itinerary snapshot, deterministic contextual candidates, the fetched
// catalog, and the trip's persisted dismissal state.
type SuggestionService struct {
	db             DB
	trips          SnapshotProvider
	storage        suggest.Storage
	catalog        *cache.Cache
	staleThreshold int

	mu     sync.Mutex
	states map[uuid.UUID]*tripState
}

// tripState is the per-trip mutable state kept across requests: the dismissal
// store (itself persisted through Storage) and the last published list hash.
type tripState struct {
	store    *suggest.DismissalStore
	lastHash string
}

func NewSuggestionService(db DB, trips SnapshotProvider, storage suggest.Storage, catalogTTL time.Duration, staleThreshold int) *SuggestionService {
	if catalogTTL <= 0 {
		catalogTTL = 5 * time.Minute
	}
	if staleThreshold <= 0 {
		staleThreshold = suggest.DefaultStaleThreshold
	}
	return &SuggestionService{
		db:             db,
		trips:          trips,
		storage:        storage,
		catalog:        cache.New(catalogTTL, 2*catalogTTL),
		staleThreshold: staleThreshold,
		states:         make(map[uuid.UUID]*tripState),
	}
}

func (s *SuggestionService) state(ctx context.Context, tripID uuid.UUID) *tripState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[tripID]
	if !ok {
		store := suggest.NewDismissalStore(ctx, s.storage, tripID.String())
		store.SetStaleThreshold(s.staleThreshold)
		st = &tripState{store: store}
		s.states[tripID] = st
	}
	return st
}

// ListForTrip runs one full reconciliation pass for a trip and returns the
// ordered list plus the changed flag. Directives, when non-nil, come from the
// most recent assistant turn and are consumed exactly once.
func (s *SuggestionService) ListForTrip(ctx context.Context, userID, tripID uuid.UUID, country *string, directives *models.UIDirectives) (suggest.Result, error) {
	var res suggest.Result

	snap, err := s.trips.Snapshot(ctx, userID, tripID)
	if err != nil {
		return res, err
	}

	st := s.state(ctx, tripID)
	if err := st.store.Observe(ctx, snap); err != nil {
		return res, fmt.Errorf("observing snapshot: %w", err)
	}

	userMessages, err := s.trips.CountUserMessages(ctx, tripID)
	if err != nil {
		return res, err
	}

	pending := st.store.Pending()

	var firstTravel *time.Time
	if len(snap.Flights) > 0 {
		firstTravel = &snap.Flights[0].Departure
	}

	contextual := suggest.BuildContextual(suggest.ContextInput{
		Snapshot:        snap,
		FirstTravelDate: firstTravel,
		PendingRegen:    pending.Regen,
		StalePending:    pending.Stale(userMessages),
	})

	// A failed catalog fetch must not take reconciliation down with it: the
	// pass degrades to contextual plus directive-synthesized suggestions.
	fetched, err := s.fetchCatalog(ctx, country)
	if err != nil {
		logging.Warn("Suggestion catalog unavailable", map[string]interface{}{
			"trip_id": tripID.String(),
			"error":   err.Error(),
		})
		fetched = nil
	}

	res = suggest.Reconcile(suggest.Input{
		Contextual: contextual,
		Fetched:    fetched,
		Directives: directives,
		Dismissed:  st.store.Dismissed(),
		Pending:    pending,
		Snapshot:   snap,
		PrevHash:   st.lastHash,
	})
	st.lastHash = res.Hash

	return res, nil
}

// Dismiss records a canonical dismissal for the trip. Unknown ids are a
// silent no-op, matching the engine's pass-through identity rules.
func (s *SuggestionService) Dismiss(ctx context.Context, tripID uuid.UUID, rawID string) error {
	st := s.state(ctx, tripID)
	if err := st.store.Dismiss(ctx, rawID); err != nil {
		return fmt.Errorf("dismissing suggestion: %w", err)
	}
	return nil
}

// StageLogistics records an inline-form submission: it stages the edit,
// dismisses the matching contextual category, and returns the deterministic
// pipe-delimited prompt the chat flow sends on the user's behalf.
func (s *SuggestionService) StageLogistics(ctx context.Context, tripID uuid.UUID, kind models.FormKind, fields []string) (string, error) {
	canonical, ok := formCanonical(kind)
	if !ok {
		return "", fmt.Errorf("unsupported logistics kind %q", kind)
	}

	userMessages, err := s.trips.CountUserMessages(ctx, tripID)
	if err != nil {
		return "", err
	}

	st := s.state(ctx, tripID)
	st.store.Stage(kind, userMessages)
	if err := st.store.Dismiss(ctx, string(canonical)); err != nil {
		return "", fmt.Errorf("dismissing staged category: %w", err)
	}

	parts := append([]string{string(kind)}, fields...)
	return strings.Join(parts, "|"), nil
}

// MarkRegenerated clears staged-edit state after a successful regeneration.
func (s *SuggestionService) MarkRegenerated(tripID uuid.UUID) {
	s.mu.Lock()
	st, ok := s.states[tripID]
	s.mu.Unlock()
	if ok {
		st.store.ClearStaged()
	}
}

func formCanonical(kind models.FormKind) (suggest.CanonicalID, bool) {
	switch kind {
	case models.FormKindFlight:
		return suggest.AddFlights, true
	case models.FormKindHotel:
		return suggest.AddHotel, true
	case models.FormKindDates:
		return suggest.SetTravelDates, true
	}
	return "", false
}

// fetchCatalog loads the deterministic suggestion catalog, country-filtered,
// through a short-TTL in-process cache.
func (s *SuggestionService) fetchCatalog(ctx context.Context, country *string) ([]models.Suggestion, error) {
	key := catalogCacheKey
	if country != nil {
		key += *country
	}
	if cached, ok := s.catalog.Get(key); ok {
		return cached.([]models.Suggestion), nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, type, title, detail, action_prompt, relevance, source, tags, created_at
		 FROM suggestions
		 WHERE country IS NULL OR country = $1
		 ORDER BY relevance DESC, id`,
		country,
	)
	if err != nil {
		return nil, fmt.Errorf("querying suggestion catalog: %w", err)
	}
	defer rows.Close()

	var out []models.Suggestion
	for rows.Next() {
		var sg models.Suggestion
		if err := rows.Scan(&sg.ID, &sg.Type, &sg.Title, &sg.Detail, &sg.ActionPrompt,
			&sg.Relevance, &sg.Source, &sg.Tags, &sg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		out = append(out, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading suggestion catalog: %w", err)
	}

	s.catalog.SetDefault(key, out)
	return out, nil
}
