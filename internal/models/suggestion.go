package models

import "time"

type SuggestionType string

const (
	TypeSeasonal     SuggestionType = "seasonal"
	TypeWeather      SuggestionType = "weather"
	TypeLogistics    SuggestionType = "logistics"
	TypeEtiquette    SuggestionType = "etiquette"
	TypeOptimization SuggestionType = "optimization"
	TypeDining       SuggestionType = "dining"
	TypeGap          SuggestionType = "gap"
	TypeOther        SuggestionType = "other"
)

type SuggestionSource string

const (
	SourceDeterministic SuggestionSource = "deterministic"
	SourceAI            SuggestionSource = "ai"
	SourceHybrid        SuggestionSource = "hybrid"
)

// SuggestionMode controls what activating a suggestion does: send the action
// prompt as a chat message immediately, or only populate the chat input.
type SuggestionMode string

const (
	ModeSend    SuggestionMode = "send"
	ModePrefill SuggestionMode = "prefill"
)

// FormKind marks suggestions whose activation opens an inline structured
// form instead of going through chat.
type FormKind string

const (
	FormKindNone   FormKind = "none"
	FormKindFlight FormKind = "flight"
	FormKindHotel  FormKind = "hotel"
	FormKindDates  FormKind = "dates"
)

type Suggestion struct {
	ID           string           `json:"id"`
	CanonicalID  string           `json:"canonical_id,omitempty"`
	Type         SuggestionType   `json:"type"`
	Title        string           `json:"title"`
	Detail       string           `json:"detail,omitempty"`
	ActionPrompt string           `json:"action_prompt,omitempty"`
	Relevance    float64          `json:"relevance"`
	Source       SuggestionSource `json:"source"`
	Tags         []string         `json:"tags,omitempty"`
	CreatedAt    time.Time        `json:"created_at,omitempty"`

	// Display-only fields resolved during reconciliation.
	Mode        SuggestionMode `json:"mode,omitempty"`
	FormKind    FormKind       `json:"form_kind,omitempty"`
	Highlighted bool           `json:"highlighted,omitempty"`
	Hidden      bool           `json:"hidden,omitempty"`
}

// UIDirectives is the structured instruction block the assistant may embed in
// a chat reply, telling the client which suggestion bubbles to show, hide,
// highlight, or change activation mode for. Produced once per chat turn and
// consumed once by reconciliation; never persisted.
type UIDirectives struct {
	Type          string           `json:"type"`
	Suggestions   []DirectiveEntry `json:"suggestions,omitempty"`
	OrderingHints []string         `json:"orderingHints,omitempty"`
	GeneratedAt   time.Time        `json:"generatedAt,omitempty"`
}

type DirectiveEntry struct {
	ID      string   `json:"id"`
	Actions []string `json:"actions"`
}

// Directive action vocabulary. Unknown actions are ignored: directives come
// out of generative text and are untrusted.
const (
	ActionShow        = "show"
	ActionHide        = "hide"
	ActionHighlight   = "highlight"
	ActionPrefillMode = "prefillMode"
	ActionSendMode    = "sendMode"
)
