package suggest

// DefaultStaleThreshold is the number of user chat messages after a staged
// edit before the pending regeneration is considered stale. Tunable; the
// default matches long-standing product behavior.
const DefaultStaleThreshold = 3

// StagedEdits records which logistic sections the user has supplied locally
// via an inline form but that the regenerated itinerary does not yet reflect.
type StagedEdits struct {
	Flights bool `json:"flights"`
	Hotel   bool `json:"hotel"`
	Dates   bool `json:"dates"`
}

func (s StagedEdits) Any() bool {
	return s.Flights || s.Hotel || s.Dates
}

// PendingState tracks the window between a staged edit and the next full
// itinerary regeneration.
type PendingState struct {
	Regen  bool        `json:"regen"`
	Staged StagedEdits `json:"staged"`

	// StartCount is the number of user chat messages at the time staging
	// began, used to detect a stale pending regeneration.
	StartCount int `json:"start_count"`

	// StaleThreshold overrides DefaultStaleThreshold when positive.
	StaleThreshold int `json:"stale_threshold,omitempty"`
}

// Stale reports whether the pending regeneration has gone stale: the user has
// kept chatting past the threshold without regenerating.
func (p PendingState) Stale(userMessages int) bool {
	if !p.Regen {
		return false
	}
	threshold := p.StaleThreshold
	if threshold <= 0 {
		threshold = DefaultStaleThreshold
	}
	return userMessages-p.StartCount >= threshold
}

// Suppresses reports whether a suggestion with the given canonical id is
// redundant while its staged edit awaits regeneration.
func (p PendingState) Suppresses(c CanonicalID) bool {
	if !p.Regen {
		return false
	}
	switch c {
	case AddFlights:
		return p.Staged.Flights
	case AddHotel:
		return p.Staged.Hotel
	case SetTravelDates:
		return p.Staged.Dates
	}
	return false
}
