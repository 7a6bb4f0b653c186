package suggest

import (
	"time"

	"github.com/wayfarerhq/wayfarer/internal/models"
)

// Contextual suggestion ids. ctx-regen and ctx-stale have no canonical form:
// they follow trip state, not a dismissible category.
const (
	ctxDatesID     = "ctx-dates"
	ctxFlightID    = "ctx-flight"
	ctxHotelID     = "ctx-hotel"
	ctxOutlineID   = "ctx-outline"
	ctxEtiquetteID = "ctx-etiquette"
	ctxRegenID     = "ctx-regen"
	ctxStaleID     = "ctx-stale"
)

// ContextInput is the snapshot-derived state the contextual builder inspects.
type ContextInput struct {
	Snapshot        models.ItinerarySnapshot
	FirstTravelDate *time.Time
	PendingRegen    bool
	StalePending    bool
}

// BuildContextual deterministically derives candidate suggestions from
// itinerary state. Rules are evaluated independently, in a fixed order that
// defines the returned order before downstream re-ranking. No rule emits
// more than once per call.
func BuildContextual(in ContextInput) []models.Suggestion {
	snap := in.Snapshot
	var out []models.Suggestion

	emit := func(id string, c CanonicalID) {
		s, ok := baseSuggestion(c)
		if !ok {
			return
		}
		s.ID = id
		s.CanonicalID = string(c)
		s.Source = models.SourceDeterministic
		out = append(out, s)
	}

	if !snap.Header.HasDates() && in.FirstTravelDate == nil {
		emit(ctxDatesID, SetTravelDates)
	}
	if len(snap.Flights) == 0 {
		emit(ctxFlightID, AddFlights)
	}
	if len(snap.Accommodation) == 0 {
		emit(ctxHotelID, AddHotel)
	}
	if len(snap.DailySchedule) == 0 && (len(snap.Flights) > 0 || len(snap.Accommodation) > 0) {
		emit(ctxOutlineID, DraftDailyOutline)
	}
	if len(snap.HelpfulNotes) == 0 {
		emit(ctxEtiquetteID, AddEtiquetteNotes)
	}

	if snap.HasAnySection() || in.PendingRegen {
		regen := models.Suggestion{
			ID:           ctxRegenID,
			Type:         models.TypeOptimization,
			Title:        "Regenerate itinerary",
			Detail:       "Refresh the plan with the latest trip details.",
			ActionPrompt: "Regenerate the full itinerary.",
			Relevance:    0.99,
			Source:       models.SourceDeterministic,
			FormKind:     models.FormKindNone,
		}
		if in.PendingRegen {
			regen.Title = "Regenerate with your updates"
			regen.Detail = "Weave the staged flight, hotel, and date edits into the plan."
		}
		out = append(out, regen)
	}

	if in.StalePending {
		out = append(out, models.Suggestion{
			ID:           ctxStaleID,
			Type:         models.TypeOptimization,
			Title:        "Your edits are still waiting",
			Detail:       "A few messages have gone by since you staged changes. Regenerate to apply them.",
			ActionPrompt: "Regenerate the itinerary with my staged edits.",
			Relevance:    0.97,
			Source:       models.SourceDeterministic,
			Mode:         models.ModePrefill,
			FormKind:     models.FormKindNone,
		})
	}

	return out
}
