package suggest

import "github.com/wayfarerhq/wayfarer/internal/models"

// baseSuggestion returns the built-in template for a canonical category.
// The contextual builder and the directive show-synthesis both start from
// these so the two sources surface identical copy for the same category.
func baseSuggestion(c CanonicalID) (models.Suggestion, bool) {
	switch c {
	case SetTravelDates:
		return models.Suggestion{
			Type:         models.TypeLogistics,
			Title:        "Set travel dates",
			Detail:       "Lock in when the trip starts and ends so the plan has an anchor.",
			ActionPrompt: "Set the travel dates for this trip.",
			Relevance:    0.95,
			FormKind:     models.FormKindDates,
		}, true
	case AddFlights:
		return models.Suggestion{
			Type:         models.TypeLogistics,
			Title:        "Add flights",
			Detail:       "Add flight details so arrivals and departures shape the daily plan.",
			ActionPrompt: "Add my flight details to this trip.",
			Relevance:    0.90,
			FormKind:     models.FormKindFlight,
		}, true
	case AddHotel:
		return models.Suggestion{
			Type:         models.TypeLogistics,
			Title:        "Add hotel",
			Detail:       "Add where you're staying so each day can start and end somewhere real.",
			ActionPrompt: "Add my hotel details to this trip.",
			Relevance:    0.85,
			FormKind:     models.FormKindHotel,
		}, true
	case DraftDailyOutline:
		return models.Suggestion{
			Type:         models.TypeGap,
			Title:        "Draft a daily outline",
			Detail:       "Sketch a day-by-day outline around the bookings already in place.",
			ActionPrompt: "Draft a day-by-day outline for this trip.",
			Relevance:    0.70,
			FormKind:     models.FormKindNone,
		}, true
	case AddEtiquetteNotes:
		return models.Suggestion{
			Type:         models.TypeEtiquette,
			Title:        "Add etiquette tips",
			Detail:       "Collect local etiquette and customs worth knowing before arrival.",
			ActionPrompt: "Add local etiquette and customs notes for the destination.",
			Relevance:    0.60,
			FormKind:     models.FormKindNone,
		}, true
	}
	return models.Suggestion{}, false
}
