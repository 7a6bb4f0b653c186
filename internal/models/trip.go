package models

import (
	"time"

	"github.com/google/uuid"
)

type Trip struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Name        string     `json:"name"`
	Destination string     `json:"destination"`
	Country     *string    `json:"country,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Timezone    *string    `json:"timezone,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DaySpan returns the trip length in days, or 0 when dates are not set.
func (t *Trip) DaySpan() int {
	if t.StartDate == nil || t.EndDate == nil {
		return 0
	}
	span := int(t.EndDate.Sub(*t.StartDate).Hours()/24) + 1
	if span < 0 {
		return 0
	}
	return span
}

type CreateTripParams struct {
	UserID      uuid.UUID
	Name        string
	Destination string
	Country     *string
	Latitude    *float64
	Longitude   *float64
	StartDate   *time.Time
	EndDate     *time.Time
}

type UpdateTripParams struct {
	Name        *string
	Destination *string
	StartDate   *time.Time
	EndDate     *time.Time
}

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	TripID    uuid.UUID `json:"trip_id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
