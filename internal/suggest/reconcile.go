package suggest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/wayfarerhq/wayfarer/internal/models"
)

// DismissalSet holds canonically-dismissed suggestion ids for one trip.
type DismissalSet map[CanonicalID]struct{}

func (d DismissalSet) Has(c CanonicalID) bool {
	_, ok := d[c]
	return ok
}

func (d DismissalSet) Add(c CanonicalID) {
	d[c] = struct{}{}
}

func (d DismissalSet) Remove(c CanonicalID) {
	delete(d, c)
}

// Input carries everything one reconciliation pass consumes. Reconcile never
// mutates any of it.
type Input struct {
	Contextual []models.Suggestion
	Fetched    []models.Suggestion
	Directives *models.UIDirectives
	Dismissed  DismissalSet
	Pending    PendingState
	Snapshot   models.ItinerarySnapshot

	// PrevHash is the hash published by the previous pass for this trip;
	// empty on the first pass.
	PrevHash string
}

// Result is the reconciled list plus the change signal consumers gate
// announcements on.
type Result struct {
	Suggestions []models.Suggestion
	Hash        string
	Changed     bool
}

// Reconcile merges contextual candidates, the fetched catalog, and optional
// assistant directives into one ordered, deduplicated list, filtered by the
// dismissal set and staged-edit suppression. It is a total function: malformed
// directive entries are ignored, never fatal. Re-running with identical inputs
// yields an identical list and Changed=false, which is what keeps the
// consuming render loop from feeding back into itself.
func Reconcile(in Input) Result {
	acc := make([]models.Suggestion, 0, len(in.Contextual)+len(in.Fetched))
	titles := make(map[string]struct{})

	// First-source-wins on exact title collisions, so a contextual rule and
	// a fetched catalog row never surface the same human-readable text twice.
	add := func(s models.Suggestion) {
		if _, dup := titles[s.Title]; dup {
			return
		}
		titles[s.Title] = struct{}{}
		acc = append(acc, s)
	}

	for _, s := range in.Contextual {
		c := Canonicalize(s.ID)
		if in.blocked(c) {
			continue
		}
		s.CanonicalID = string(c)
		if s.Mode == "" && (s.FormKind == "" || s.FormKind == models.FormKindNone) {
			s.Mode = models.ModeSend
		}
		add(s)
	}

	notes := strings.ToLower(in.Snapshot.NotesText())
	for _, s := range in.Fetched {
		c := Canonicalize(s.ID)
		if in.blocked(c) {
			continue
		}
		if s.Source == models.SourceDeterministic {
			if premature(in.Snapshot, in.Pending, s) {
				continue
			}
			if coveredByNotes(notes, s) {
				continue
			}
		}
		s.CanonicalID = string(c)
		s.Mode = models.ModeSend
		add(s)
	}

	if in.Directives != nil {
		acc = applyDirectives(acc, in.Directives)
		acc = applyOrderingHints(acc, in.Directives.OrderingHints)
		acc = prependShown(acc, in, titles)
	}

	acc = dedupeCanonical(acc)

	hash := listHash(acc)
	return Result{
		Suggestions: acc,
		Hash:        hash,
		Changed:     hash != in.PrevHash,
	}
}

// blocked applies the suppression every insertion path shares: dismissal of a
// known canonical id, and staged-edit suppression while a regeneration is
// pending. Dismissal is checked before any insertion, so it also wins over a
// directive "show".
func (in Input) blocked(c CanonicalID) bool {
	if c.Known() && in.Dismissed.Has(c) {
		return true
	}
	return in.Pending.Suppresses(c)
}

// premature suppresses broad advisory catalog suggestions until the user has
// anchored a real plan: without header dates plus at least one booking, a
// seasonal-timing or etiquette or transit-pass bubble is noise.
func premature(snap models.ItinerarySnapshot, pending PendingState, s models.Suggestion) bool {
	if snap.HasCoreScaffold() || pending.Regen {
		return false
	}
	return genericCategory(s)
}

func genericCategory(s models.Suggestion) bool {
	switch s.Type {
	case models.TypeSeasonal, models.TypeEtiquette:
		return true
	}
	for _, tag := range s.Tags {
		if strings.EqualFold(tag, "transit") {
			return true
		}
	}
	return false
}

// categoryKeywords drives the duplicate check against helpful-notes text:
// when the notes already talk about a category's topic, the catalog
// suggestion for it is redundant.
var categoryKeywords = map[models.SuggestionType][]string{
	models.TypeSeasonal:  {"season", "weather", "climate", "best time"},
	models.TypeEtiquette: {"etiquette", "custom", "manners", "tipping"},
}

var transitKeywords = []string{"transit", "rail pass", "metro", "subway", "train"}

func coveredByNotes(lowerNotes string, s models.Suggestion) bool {
	if lowerNotes == "" {
		return false
	}
	keywords := categoryKeywords[s.Type]
	if genericCategory(s) && len(keywords) == 0 {
		keywords = transitKeywords
	}
	for _, kw := range keywords {
		if strings.Contains(lowerNotes, kw) {
			return true
		}
	}
	return false
}

// applyDirectives resolves each accumulated suggestion against the directive
// entries: hide removes it, mode actions override activation mode, highlight
// sets display emphasis. Unknown actions and unknown ids are ignored.
func applyDirectives(list []models.Suggestion, d *models.UIDirectives) []models.Suggestion {
	entries := make(map[CanonicalID][]string, len(d.Suggestions))
	for _, e := range d.Suggestions {
		if e.ID == "" || len(e.Actions) == 0 {
			continue
		}
		c := Canonicalize(e.ID)
		entries[c] = append(entries[c], e.Actions...)
	}

	out := list[:0]
	for _, s := range list {
		actions, ok := entries[Canonicalize(s.ID)]
		if !ok {
			out = append(out, s)
			continue
		}
		hidden := false
		for _, a := range actions {
			switch a {
			case models.ActionHide:
				hidden = true
			case models.ActionPrefillMode:
				s.Mode = models.ModePrefill
			case models.ActionSendMode:
				s.Mode = models.ModeSend
			case models.ActionHighlight:
				s.Highlighted = true
			}
		}
		if hidden {
			continue
		}
		out = append(out, s)
	}
	return out
}

// applyOrderingHints stable-partitions the list: hinted canonical ids first in
// hint order, everything else after in its prior relative order.
func applyOrderingHints(list []models.Suggestion, hints []string) []models.Suggestion {
	if len(hints) == 0 {
		return list
	}
	used := make([]bool, len(list))
	out := make([]models.Suggestion, 0, len(list))
	for _, h := range hints {
		hc := Canonicalize(h)
		for i := range list {
			if !used[i] && Canonicalize(list[i].ID) == hc {
				used[i] = true
				out = append(out, list[i])
			}
		}
	}
	for i := range list {
		if !used[i] {
			out = append(out, list[i])
		}
	}
	return out
}

// prependShown synthesizes suggestions for directive "show" entries whose
// canonical id is not yet present, from the built-in category templates.
// Dismissal and staged suppression still apply: a dismissed category stays
// gone even when the assistant asks for it.
func prependShown(list []models.Suggestion, in Input, titles map[string]struct{}) []models.Suggestion {
	present := make(map[CanonicalID]struct{}, len(list))
	for _, s := range list {
		present[Canonicalize(s.ID)] = struct{}{}
	}

	var synth []models.Suggestion
	for _, e := range in.Directives.Suggestions {
		wantsShow := false
		for _, a := range e.Actions {
			if a == models.ActionShow {
				wantsShow = true
				break
			}
		}
		if !wantsShow {
			continue
		}
		c := Canonicalize(e.ID)
		if _, ok := present[c]; ok {
			continue
		}
		if in.blocked(c) {
			continue
		}
		s, ok := baseSuggestion(c)
		if !ok {
			continue
		}
		if _, dup := titles[s.Title]; dup {
			continue
		}
		s.ID = "ai-" + string(c)
		s.CanonicalID = string(c)
		s.Source = models.SourceAI
		s.CreatedAt = in.Directives.GeneratedAt
		if s.FormKind == "" || s.FormKind == models.FormKindNone {
			s.Mode = models.ModeSend
		}
		titles[s.Title] = struct{}{}
		present[c] = struct{}{}
		synth = append(synth, s)
	}

	if len(synth) == 0 {
		return list
	}
	return append(synth, list...)
}

// dedupeCanonical enforces unique canonical identity: first occurrence wins,
// except a later highlighted duplicate replaces an unhighlighted kept entry
// in place. Plain last-write-wins would change observable behavior around
// highlight precedence.
func dedupeCanonical(list []models.Suggestion) []models.Suggestion {
	index := make(map[CanonicalID]int, len(list))
	out := make([]models.Suggestion, 0, len(list))
	for _, s := range list {
		c := Canonicalize(s.ID)
		if i, ok := index[c]; ok {
			if s.Highlighted && !out[i].Highlighted {
				out[i] = s
			}
			continue
		}
		index[c] = len(out)
		out = append(out, s)
	}
	return out
}

// listHash folds the semantic content of the list into a SHA-256 digest of
// the ordered (id, mode, highlight) tuples. Fields are length-prefixed so ids
// containing delimiter characters cannot alias a different tuple sequence.
// Anything not in the hash does not count as a change, which is what makes
// repeated reconciliation with identical inputs a no-op for consumers.
func listHash(list []models.Suggestion) string {
	h := sha256.New()
	for _, s := range list {
		fmt.Fprintf(h, "%d:%s;%d:%s;%t\n", len(s.ID), s.ID, len(s.Mode), s.Mode, s.Highlighted)
	}
	return hex.EncodeToString(h.Sum(nil))
}
