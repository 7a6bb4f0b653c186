package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/wayfarerhq/wayfarer/internal/config"
	"github.com/wayfarerhq/wayfarer/internal/logging"
	"github.com/wayfarerhq/wayfarer/internal/models"
)

const (
	historyLimit = 20

	systemPrompt = `You are Wayfarer's trip-planning assistant. Use the trip context to answer questions, reference actual plans, and offer proactive suggestions when helpful. Keep answers concise, organized, and grounded in the provided data unless the user explicitly asks for speculation.

When you want the client to adjust its suggestion bubbles, append exactly one JSON object at the very end of your reply, shaped like:
{"type":"ui_directives","suggestions":[{"id":"add_flights","actions":["highlight"]}],"orderingHints":["add_flights"]}
Valid actions are show, hide, highlight, prefillMode, sendMode. Valid ids are set_travel_dates, add_flights, add_hotel, draft_daily_outline, add_etiquette_notes. Omit the object entirely when no adjustment is needed.`
)

// Turn is one prior message in the conversation sent to the provider.
type Turn struct {
	Role    models.ChatRole
	Content string
}

// Provider abstracts the chat-completion backend so tests and dev mode can
// swap in a stub.
type Provider interface {
	Complete(ctx context.Context, system string, turns []Turn) (string, error)
}

// Reply is one assistant turn: the display text plus any directives parsed
// out of it.
type Reply struct {
	Content    string
	Directives *models.UIDirectives
}

// Assistant drives the chat flow: it assembles the trip context block, calls
// the provider, and splits directives out of the raw reply.
type Assistant struct {
	provider Provider
}

func NewAssistant(cfg *config.AIConfig) *Assistant {
	var provider Provider
	if cfg.Stub || cfg.OpenAIAPIKey == "" {
		provider = NewStubProvider()
	} else {
		provider = NewOpenAIProvider(cfg)
	}
	return &Assistant{provider: provider}
}

// NewAssistantWithProvider wires an explicit provider, used by tests.
func NewAssistantWithProvider(provider Provider) *Assistant {
	return &Assistant{provider: provider}
}

// tripContext is the JSON block injected ahead of the conversation so the
// model answers against the real itinerary instead of hallucinating one.
type tripContext struct {
	Trip          contextTrip       `json:"trip"`
	Flights       []contextFlight   `json:"flights,omitempty"`
	Accommodation []contextLodging  `json:"accommodation,omitempty"`
	DailySchedule []contextSchedule `json:"dailySchedule,omitempty"`
	HelpfulNotes  []contextNote     `json:"helpfulNotes,omitempty"`
	GeneratedAt   string            `json:"generatedAt"`
}

type contextTrip struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
	Country     string `json:"country,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
}

type contextFlight struct {
	Airline      string `json:"airline"`
	FlightNumber string `json:"flightNumber,omitempty"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Departure    string `json:"departure"`
	Arrival      string `json:"arrival,omitempty"`
}

type contextLodging struct {
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

type contextSchedule struct {
	Day    int    `json:"day"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

type contextNote struct {
	Topic string `json:"topic,omitempty"`
	Body  string `json:"body"`
}

// Chat runs one assistant turn for a trip.
func (a *Assistant) Chat(ctx context.Context, trip *models.Trip, snap models.ItinerarySnapshot, history []models.ChatMessage, userMessage string) (*Reply, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return nil, ErrInvalidInput
	}

	ctxBlock, err := buildTripContext(trip, snap)
	if err != nil {
		return nil, fmt.Errorf("building trip context: %w", err)
	}

	system := systemPrompt + "\n\nLatest trip context:\n" + ctxBlock

	turns := make([]Turn, 0, historyLimit+1)
	for _, m := range truncateHistory(history, historyLimit) {
		if m.Content == "" {
			continue
		}
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	turns = append(turns, Turn{Role: models.RoleUser, Content: userMessage})

	raw, err := a.provider.Complete(ctx, system, turns)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyReply
	}

	content, directives := ExtractDirectives(raw)
	if content == "" {
		// The whole reply was a directive block; keep the turn visible.
		content = "Done. I've updated the suggestions."
	}

	return &Reply{Content: content, Directives: directives}, nil
}

// OutlineDay is one generated daily-schedule row from a regeneration call.
type OutlineDay struct {
	Day    int    `json:"day"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// RegenerateOutline asks the provider for a fresh day-by-day outline as
// strict JSON and parses it.
func (a *Assistant) RegenerateOutline(ctx context.Context, trip *models.Trip, snap models.ItinerarySnapshot, stagedPrompt string) ([]OutlineDay, error) {
	ctxBlock, err := buildTripContext(trip, snap)
	if err != nil {
		return nil, fmt.Errorf("building trip context: %w", err)
	}

	days := trip.DaySpan()
	if days <= 0 {
		days = 3
	}

	system := fmt.Sprintf(`You are Wayfarer's itinerary generator. Produce a day-by-day outline for the trip below as a JSON array only, no prose, each element shaped like {"day":1,"title":"...","detail":"..."}. Cover all %d days.

Trip context:
%s`, days, ctxBlock)

	request := "Regenerate the full daily outline."
	if stagedPrompt != "" {
		request += " Incorporate these staged updates: " + stagedPrompt
	}

	raw, err := a.provider.Complete(ctx, system, []Turn{{Role: models.RoleUser, Content: request}})
	if err != nil {
		return nil, err
	}

	outline, err := parseOutline(raw)
	if err != nil {
		logging.Warn("Assistant outline was not valid JSON", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("parsing outline: %w", err)
	}
	return outline, nil
}

func parseOutline(raw string) ([]OutlineDay, error) {
	raw = strings.TrimSpace(raw)
	if inner, _, ok := trailingFence(raw); ok {
		raw = inner
	}
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in reply")
	}

	var outline []OutlineDay
	if err := json.Unmarshal([]byte(raw[start:end+1]), &outline); err != nil {
		return nil, err
	}
	if len(outline) == 0 {
		return nil, fmt.Errorf("empty outline")
	}
	return outline, nil
}

func buildTripContext(trip *models.Trip, snap models.ItinerarySnapshot) (string, error) {
	tc := tripContext{
		Trip: contextTrip{
			Name:        trip.Name,
			Destination: trip.Destination,
			StartDate:   formatDate(trip.StartDate),
			EndDate:     formatDate(trip.EndDate),
		},
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if trip.Country != nil {
		tc.Trip.Country = *trip.Country
	}
	if trip.Timezone != nil {
		tc.Trip.Timezone = *trip.Timezone
	}

	for _, f := range snap.Flights {
		cf := contextFlight{
			Airline:      f.Airline,
			FlightNumber: f.FlightNumber,
			Origin:       f.Origin,
			Destination:  f.Destination,
			Departure:    f.Departure.UTC().Format(time.RFC3339),
		}
		if f.Arrival != nil {
			cf.Arrival = f.Arrival.UTC().Format(time.RFC3339)
		}
		tc.Flights = append(tc.Flights, cf)
	}
	for _, l := range snap.Accommodation {
		tc.Accommodation = append(tc.Accommodation, contextLodging{
			Name:     l.Name,
			Address:  l.Address,
			CheckIn:  l.CheckIn.UTC().Format(time.RFC3339),
			CheckOut: l.CheckOut.UTC().Format(time.RFC3339),
		})
	}
	for _, e := range snap.DailySchedule {
		tc.DailySchedule = append(tc.DailySchedule, contextSchedule{
			Day:    e.Day,
			Title:  e.Title,
			Detail: e.Detail,
		})
	}
	for _, n := range snap.HelpfulNotes {
		tc.HelpfulNotes = append(tc.HelpfulNotes, contextNote{Topic: n.Topic, Body: n.Body})
	}

	data, err := json.MarshalIndent(tc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func truncateHistory(messages []models.ChatMessage, limit int) []models.ChatMessage {
	if len(messages) <= limit {
		return messages
	}
	return messages[len(messages)-limit:]
}

// OpenAIProvider calls the OpenAI chat completions API.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

func NewOpenAIProvider(cfg *config.AIConfig) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (p *OpenAIProvider) Complete(ctx context.Context, system string, turns []Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	messages = append(messages, openai.SystemMessage(system))
	for _, t := range turns {
		switch t.Role {
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(t.Content))
		default:
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: messages,
	})
	if err != nil {
		logging.Error("OpenAI chat completion failed", map[string]interface{}{"error": err.Error(), "model": p.model})
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}

// StubProvider is a deterministic provider for tests and keyless dev setups.
type StubProvider struct{}

func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

func (p *StubProvider) Complete(ctx context.Context, system string, turns []Turn) (string, error) {
	if strings.Contains(system, "itinerary generator") {
		return `[{"day":1,"title":"Arrive and settle in","detail":"Check in, walk the neighborhood."},{"day":2,"title":"Old town highlights","detail":"Morning museum, afternoon market."},{"day":3,"title":"Day trip","detail":"Pick a nearby town and wander."}]`, nil
	}
	last := ""
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == models.RoleUser {
			last = turns[i].Content
			break
		}
	}
	return fmt.Sprintf("Here's a thought on %q: start with the basics and lock in your dates and flights first.", last), nil
}
