package suggest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/wayfarerhq/wayfarer/internal/models"
)

// Storage persists the dismissal set for one trip as an opaque blob. Load
// returns (nil, nil) when nothing is stored. Writes are last-write-wins;
// dismissal is a best-effort affordance, not a correctness-critical record.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// DismissalStore owns the per-trip dismissal set and transient staged-edit
// state. The dismissal set is persisted through Storage; staged edits and
// section-presence tracking live only in memory, mirroring their transient
// lifecycle.
type DismissalStore struct {
	mu        sync.Mutex
	storage   Storage
	key       string
	dismissed DismissalSet
	pending   PendingState

	// seen tracks whether each canonical section was present in the last
	// observed snapshot, so resurrection only triggers on a non-empty to
	// empty transition.
	seen   map[CanonicalID]bool
	seeded bool
}

// NewDismissalStore loads the persisted dismissal set for a trip, migrating
// legacy raw ids to canonical form. A missing or corrupt blob yields an empty
// set: a parse failure must never leave a suggestion permanently dismissed.
func NewDismissalStore(ctx context.Context, storage Storage, tripID string) *DismissalStore {
	st := &DismissalStore{
		storage:   storage,
		key:       "suggest:dismissed:" + tripID,
		dismissed: make(DismissalSet),
		seen:      make(map[CanonicalID]bool),
	}

	data, err := storage.Load(ctx, st.key)
	if err != nil || len(data) == 0 {
		return st
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		// Fail open: treat corrupt state as empty.
		return st
	}

	migrated := false
	for _, id := range raw {
		c := Canonicalize(id)
		if !c.Known() {
			migrated = true
			continue
		}
		if string(c) != id {
			migrated = true
		}
		st.dismissed.Add(c)
	}
	if migrated {
		_ = st.save(ctx)
	}
	return st
}

// Dismiss adds a canonical id to the dismissal set and persists. Pass-through
// ids are ignored: only the closed vocabulary is dismissible.
func (st *DismissalStore) Dismiss(ctx context.Context, raw string) error {
	c := Canonicalize(raw)
	if !c.Known() {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.dismissed.Has(c) {
		return nil
	}
	st.dismissed.Add(c)
	return st.save(ctx)
}

func (st *DismissalStore) IsDismissed(raw string) bool {
	c := Canonicalize(raw)
	st.mu.Lock()
	defer st.mu.Unlock()
	return c.Known() && st.dismissed.Has(c)
}

// Dismissed returns a copy of the current dismissal set for reconciliation.
func (st *DismissalStore) Dismissed() DismissalSet {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make(DismissalSet, len(st.dismissed))
	for c := range st.dismissed {
		out.Add(c)
	}
	return out
}

// Stage records a local logistic edit awaiting regeneration. userMessages is
// the current user chat message count, snapshotted once per pending window to
// compute staleness.
func (st *DismissalStore) Stage(kind models.FormKind, userMessages int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.pending.Regen {
		st.pending.StartCount = userMessages
	}
	st.pending.Regen = true
	switch kind {
	case models.FormKindFlight:
		st.pending.Staged.Flights = true
	case models.FormKindHotel:
		st.pending.Staged.Hotel = true
	case models.FormKindDates:
		st.pending.Staged.Dates = true
	}
}

// ClearStaged resets all staged edits and the pending flag, e.g. after a
// regeneration completed.
func (st *DismissalStore) ClearStaged() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pending = PendingState{StaleThreshold: st.pending.StaleThreshold}
}

// SetStaleThreshold overrides the stale-pending message threshold.
func (st *DismissalStore) SetStaleThreshold(n int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pending.StaleThreshold = n
}

// Pending returns a copy of the current pending state.
func (st *DismissalStore) Pending() PendingState {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pending
}

// Observe ingests a fresh itinerary snapshot and resurrects dismissed
// categories whose section went from present back to empty. Call it whenever
// the snapshot changes. Staged-edit state is untouched: form data landing in
// the itinerary is not a regeneration, so the pending window stays open until
// ClearStaged.
func (st *DismissalStore) Observe(ctx context.Context, snap models.ItinerarySnapshot) error {
	present := sectionPresence(snap)

	st.mu.Lock()
	defer st.mu.Unlock()

	changed := false
	if st.seeded {
		for c, now := range present {
			if st.seen[c] && !now && st.dismissed.Has(c) {
				st.dismissed.Remove(c)
				changed = true
			}
		}
	}
	st.seen = present
	st.seeded = true

	if !changed {
		return nil
	}
	return st.save(ctx)
}

func sectionPresence(snap models.ItinerarySnapshot) map[CanonicalID]bool {
	return map[CanonicalID]bool{
		SetTravelDates:    snap.Header.HasDates(),
		AddFlights:        len(snap.Flights) > 0,
		AddHotel:          len(snap.Accommodation) > 0,
		DraftDailyOutline: len(snap.DailySchedule) > 0,
		AddEtiquetteNotes: len(snap.HelpfulNotes) > 0,
	}
}

// save writes the dismissal set as a sorted JSON array. Caller holds st.mu.
func (st *DismissalStore) save(ctx context.Context) error {
	ids := make([]string, 0, len(st.dismissed))
	for _, c := range KnownCanonicalIDs {
		if st.dismissed.Has(c) {
			ids = append(ids, string(c))
		}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return st.storage.Save(ctx, st.key, data)
}
