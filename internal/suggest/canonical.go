// Package suggest implements the suggestion reconciliation engine: one
// ordered, deduplicated suggestion list merged from contextual rules, the
// fetched catalog, assistant UI directives, and per-trip dismissal/staging
// state. Everything in this package is pure computation; persistence happens
// through the narrow Storage interface at the store boundary.
package suggest

import "strings"

// CanonicalID is the stable identity of a suggestion category, independent of
// which source produced it. Ids outside the known vocabulary pass through
// unchanged (e.g. "ctx-regen" has no durable identity and is never dismissed).
type CanonicalID string

const (
	AddFlights        CanonicalID = "add_flights"
	AddHotel          CanonicalID = "add_hotel"
	SetTravelDates    CanonicalID = "set_travel_dates"
	DraftDailyOutline CanonicalID = "draft_daily_outline"
	AddEtiquetteNotes CanonicalID = "add_etiquette_notes"
)

// KnownCanonicalIDs lists the closed canonical vocabulary in display order.
var KnownCanonicalIDs = []CanonicalID{
	SetTravelDates,
	AddFlights,
	AddHotel,
	DraftDailyOutline,
	AddEtiquetteNotes,
}

// Known reports whether the id belongs to the closed canonical vocabulary.
func (c CanonicalID) Known() bool {
	switch c {
	case AddFlights, AddHotel, SetTravelDates, DraftDailyOutline, AddEtiquetteNotes:
		return true
	}
	return false
}

// aliases maps every contextual and legacy raw id ever used for a canonical
// category to its canonical form.
var aliases = map[string]CanonicalID{
	"ctx-flight":    AddFlights,
	"ctx-flights":   AddFlights,
	"ctx-hotel":     AddHotel,
	"ctx-dates":     SetTravelDates,
	"ctx-outline":   DraftDailyOutline,
	"ctx-etiquette": AddEtiquetteNotes,

	// Legacy raw ids persisted by old clients, migrated on store load.
	"flights":   AddFlights,
	"flight":    AddFlights,
	"hotel":     AddHotel,
	"dates":     SetTravelDates,
	"outline":   DraftDailyOutline,
	"etiquette": AddEtiquetteNotes,
}

// Canonicalize resolves any raw suggestion id seen anywhere in the system to
// its canonical form. Total over strings: ids with no mapping are returned
// unchanged.
func Canonicalize(raw string) CanonicalID {
	if c, ok := aliases[raw]; ok {
		return c
	}
	if c := CanonicalID(raw); c.Known() {
		return c
	}
	if stripped, ok := strings.CutPrefix(raw, "ai-"); ok {
		if c, ok := aliases[stripped]; ok {
			return c
		}
		if c := CanonicalID(stripped); c.Known() {
			return c
		}
	}
	return CanonicalID(raw)
}
