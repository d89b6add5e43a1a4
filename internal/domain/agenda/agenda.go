// Package agenda models the fixed expedition itinerary and the rules for
// recognizing agenda questions in free text.
package agenda

import (
	"sort"
	"strings"
)

// Activity is a single scheduled item on one day.
type Activity struct {
	Time    string
	Title   string
	Address string
	MapsURL string
}

// Schedule maps ISO dates (YYYY-MM-DD) to the activities of that day.
type Schedule map[string][]Activity

// Dates returns the schedule's dates in ascending order.
func (s Schedule) Dates() []string {
	dates := make([]string, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Context renders the whole schedule as plain-text prompt context for the
// language model.
func (s Schedule) Context() string {
	var b strings.Builder
	b.WriteString("Esta es la agenda de visitas programadas:\n")
	for _, date := range s.Dates() {
		b.WriteString("\n")
		b.WriteString(date)
		b.WriteString("\n")
		for _, act := range s[date] {
			b.WriteString("  - ")
			b.WriteString(act.Time)
			b.WriteString(": ")
			b.WriteString(act.Title)
			b.WriteString("\n")
			if act.Address != "" {
				b.WriteString("    Direccion: ")
				b.WriteString(act.Address)
				b.WriteString("\n")
			}
			if act.MapsURL != "" {
				b.WriteString("    Maps: ")
				b.WriteString(act.MapsURL)
				b.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(b.String())
}
