package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarerhq/wayfarer/internal/models"
)

type fakeTrips struct {
	snap         models.ItinerarySnapshot
	userMessages int
}

func (f *fakeTrips) Snapshot(ctx context.Context, userID, tripID uuid.UUID) (models.ItinerarySnapshot, error) {
	return f.snap, nil
}

func (f *fakeTrips) CountUserMessages(ctx context.Context, tripID uuid.UUID) (int, error) {
	return f.userMessages, nil
}

func catalogDB(rows ...[]any) *fakeDB {
	return &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			return rowsFromValues(rows...), nil
		},
	}
}

func etiquetteCatalogRow() []any {
	return []any{
		"cat-etiquette", "etiquette", "Local etiquette tips", "A primer on local customs.",
		"Give me etiquette tips for this destination.", 0.5, "deterministic", []string{"culture"}, time.Now(),
	}
}

func suggestionIDs(list []models.Suggestion) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}

func TestSuggestionService_EmptyItinerary(t *testing.T) {
	svc := NewSuggestionService(catalogDB(etiquetteCatalogRow()), &fakeTrips{}, newMemSuggestStorage(), time.Minute, 3)

	res, err := svc.ListForTrip(context.Background(), uuid.New(), uuid.New(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Empty itinerary: dates, flight, hotel, etiquette contextual prompts;
	// the catalog etiquette entry is premature without a core scaffold.
	want := []string{"ctx-dates", "ctx-flight", "ctx-hotel", "ctx-etiquette"}
	got := suggestionIDs(res.Suggestions)
	if len(got) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected ids %v, got %v", want, got)
		}
	}
	if !res.Changed {
		t.Fatal("first pass should report a change")
	}
}

func TestSuggestionService_Idempotent(t *testing.T) {
	svc := NewSuggestionService(catalogDB(), &fakeTrips{}, newMemSuggestStorage(), time.Minute, 3)
	tripID := uuid.New()
	userID := uuid.New()

	first, err := svc.ListForTrip(context.Background(), userID, tripID, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.ListForTrip(context.Background(), userID, tripID, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.Changed {
		t.Fatal("first pass should report a change")
	}
	if second.Changed {
		t.Fatal("identical second pass should not report a change")
	}
	if first.Hash != second.Hash {
		t.Fatalf("hashes should match: %q vs %q", first.Hash, second.Hash)
	}
}

func TestSuggestionService_DismissExcludes(t *testing.T) {
	svc := NewSuggestionService(catalogDB(), &fakeTrips{}, newMemSuggestStorage(), time.Minute, 3)
	tripID := uuid.New()
	userID := uuid.New()

	if err := svc.Dismiss(context.Background(), tripID, "add_hotel"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := svc.ListForTrip(context.Background(), userID, tripID, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range res.Suggestions {
		if s.CanonicalID == "add_hotel" {
			t.Fatalf("dismissed category surfaced: %v", suggestionIDs(res.Suggestions))
		}
	}
}

func TestSuggestionService_DismissalPersistsAcrossStates(t *testing.T) {
	storage := newMemSuggestStorage()
	tripID := uuid.New()
	userID := uuid.New()

	svc := NewSuggestionService(catalogDB(), &fakeTrips{}, storage, time.Minute, 3)
	if err := svc.Dismiss(context.Background(), tripID, "ctx-hotel"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A fresh service instance over the same storage sees the dismissal.
	svc2 := NewSuggestionService(catalogDB(), &fakeTrips{}, storage, time.Minute, 3)
	res, err := svc2.ListForTrip(context.Background(), userID, tripID, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range res.Suggestions {
		if s.CanonicalID == "add_hotel" {
			t.Fatalf("dismissal did not persist: %v", suggestionIDs(res.Suggestions))
		}
	}
}

func TestSuggestionService_StageLogistics(t *testing.T) {
	svc := NewSuggestionService(catalogDB(), &fakeTrips{userMessages: 2}, newMemSuggestStorage(), time.Minute, 3)
	tripID := uuid.New()
	userID := uuid.New()

	prompt, err := svc.StageLogistics(context.Background(), tripID, models.FormKindFlight, []string{"ANA", "NH107", "SFO", "HND", "2026-10-01T10:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompt != "flight|ANA|NH107|SFO|HND|2026-10-01T10:00" {
		t.Fatalf("unexpected prompt: %q", prompt)
	}

	res, err := svc.ListForTrip(context.Background(), userID, tripID, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range res.Suggestions {
		if s.CanonicalID == "add_flights" {
			t.Fatalf("staged category surfaced: %v", suggestionIDs(res.Suggestions))
		}
	}

	// The empty itinerary now also carries the regenerate prompt, since a
	// regeneration is pending.
	found := false
	for _, s := range res.Suggestions {
		if s.ID == "ctx-regen" {
			found = true
			if s.Title != "Regenerate with your updates" {
				t.Fatalf("expected pending regen title, got %q", s.Title)
			}
		}
	}
	if !found {
		t.Fatalf("expected ctx-regen while pending: %v", suggestionIDs(res.Suggestions))
	}
}

func TestSuggestionService_PendingSurvivesFormWrite(t *testing.T) {
	trips := &fakeTrips{userMessages: 1}
	svc := NewSuggestionService(catalogDB(), trips, newMemSuggestStorage(), time.Minute, 3)
	tripID := uuid.New()
	userID := uuid.New()

	if _, err := svc.StageLogistics(context.Background(), tripID, models.FormKindFlight, []string{"ANA", "NH107", "SFO", "HND", "2026-10-01T10:00"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The form handler writes the flight row before staging, so the very next
	// snapshot already contains it. That write is not a regeneration: the
	// pending prompt must keep offering to weave the edits in.
	trips.snap = models.ItinerarySnapshot{
		Flights: []models.FlightEntry{{Airline: "ANA", Departure: time.Now()}},
	}

	res, err := svc.ListForTrip(context.Background(), userID, tripID, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, s := range res.Suggestions {
		if s.ID == "ctx-regen" {
			found = true
			if s.Title != "Regenerate with your updates" {
				t.Fatalf("pending regen collapsed by the form write, got title %q", s.Title)
			}
		}
	}
	if !found {
		t.Fatalf("expected ctx-regen while pending: %v", suggestionIDs(res.Suggestions))
	}

	// Three user messages later the reminder fires; the window is still open.
	trips.userMessages = 4
	res, err = svc.ListForTrip(context.Background(), userID, tripID, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stale := false
	for _, s := range res.Suggestions {
		if s.ID == "ctx-stale" {
			stale = true
		}
	}
	if !stale {
		t.Fatalf("expected stale reminder after threshold: %v", suggestionIDs(res.Suggestions))
	}
}

func TestSuggestionService_CatalogFailureDegrades(t *testing.T) {
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewSuggestionService(db, &fakeTrips{}, newMemSuggestStorage(), time.Minute, 3)

	res, err := svc.ListForTrip(context.Background(), uuid.New(), uuid.New(), nil, nil)
	if err != nil {
		t.Fatalf("catalog failure must not fail reconciliation: %v", err)
	}

	want := []string{"ctx-dates", "ctx-flight", "ctx-hotel", "ctx-etiquette"}
	got := suggestionIDs(res.Suggestions)
	if len(got) != len(want) {
		t.Fatalf("expected contextual-only list %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected contextual-only list %v, got %v", want, got)
		}
	}
}

func TestSuggestionService_StageLogistics_UnknownKind(t *testing.T) {
	svc := NewSuggestionService(catalogDB(), &fakeTrips{}, newMemSuggestStorage(), time.Minute, 3)

	if _, err := svc.StageLogistics(context.Background(), uuid.New(), models.FormKindNone, nil); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}

func TestSuggestionService_MarkRegenerated(t *testing.T) {
	svc := NewSuggestionService(catalogDB(), &fakeTrips{}, newMemSuggestStorage(), time.Minute, 3)
	tripID := uuid.New()
	userID := uuid.New()

	if _, err := svc.StageLogistics(context.Background(), tripID, models.FormKindDates, []string{"2026-10-01", "2026-10-07"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.MarkRegenerated(tripID)

	res, err := svc.ListForTrip(context.Background(), userID, tripID, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range res.Suggestions {
		if s.ID == "ctx-regen" && s.Title == "Regenerate with your updates" {
			t.Fatal("pending state should be cleared after regeneration")
		}
	}
}

func TestSuggestionService_DirectivesFlow(t *testing.T) {
	svc := NewSuggestionService(catalogDB(), &fakeTrips{}, newMemSuggestStorage(), time.Minute, 3)
	tripID := uuid.New()
	userID := uuid.New()

	directives := &models.UIDirectives{
		Type: "ui_directives",
		Suggestions: []models.DirectiveEntry{
			{ID: "add_hotel", Actions: []string{"highlight"}},
			{ID: "ctx-dates", Actions: []string{"hide"}},
		},
		OrderingHints: []string{"add_hotel"},
		GeneratedAt:   time.Now(),
	}

	res, err := svc.ListForTrip(context.Background(), userID, tripID, nil, directives)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := suggestionIDs(res.Suggestions)
	if len(got) == 0 || got[0] != "ctx-hotel" {
		t.Fatalf("expected hinted hotel first, got %v", got)
	}
	if !res.Suggestions[0].Highlighted {
		t.Fatal("hotel should be highlighted")
	}
	for _, s := range res.Suggestions {
		if s.ID == "ctx-dates" {
			t.Fatalf("hidden suggestion surfaced: %v", got)
		}
	}
}

func TestSuggestionService_CatalogCacheReused(t *testing.T) {
	calls := 0
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			calls++
			return rowsFromValues(), nil
		},
	}
	svc := NewSuggestionService(db, &fakeTrips{}, newMemSuggestStorage(), time.Minute, 3)
	tripID := uuid.New()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := svc.ListForTrip(context.Background(), userID, tripID, nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 catalog query, got %d", calls)
	}
}
