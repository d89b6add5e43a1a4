// Package agenda answers structured itinerary questions without touching
// the language model.
package agenda

import (
	"fmt"
	"strings"
	"time"

	domagenda "github.com/gemba-cloud/gembot/internal/domain/agenda"
)

// Service resolves date and intent from free text against a fixed schedule.
type Service struct {
	schedule domagenda.Schedule
	year     int
	now      func() time.Time
}

// New creates an agenda service. year must match the year the schedule
// dates are keyed with. now is injectable for tests; nil means time.Now.
func New(schedule domagenda.Schedule, year int, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{schedule: schedule, year: year, now: now}
}

// Lookup tries to answer message as a structured agenda question. The
// second return value is false when the message names no date or no
// recognizable intent, meaning another handler should take over.
func (s *Service) Lookup(message string) (string, bool) {
	date, ok := domagenda.NormalizeDate(message, s.now(), s.year)
	if !ok {
		return "", false
	}

	switch domagenda.DetectIntent(message) {
	case domagenda.IntentPlace:
		return s.Places(date), true
	case domagenda.IntentActivity:
		return s.Activities(date), true
	default:
		return "", false
	}
}

// Places lists the locations scheduled for date.
func (s *Service) Places(date string) string {
	acts, ok := s.schedule[date]
	if !ok {
		return fmt.Sprintf("No encontré actividades programadas para el %s.", date)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Lugares para el %s:\n", date)
	for _, act := range acts {
		if act.Address != "" {
			fmt.Fprintf(&b, "- %s\n  %s\n", act.Title, act.Address)
		}
		if act.MapsURL != "" {
			fmt.Fprintf(&b, "  Maps: %s\n", act.MapsURL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Activities lists the full program for date.
func (s *Service) Activities(date string) string {
	acts, ok := s.schedule[date]
	if !ok {
		return fmt.Sprintf("No encontré actividades programadas para el %s.", date)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Actividades para el %s:\n", date)
	for _, act := range acts {
		fmt.Fprintf(&b, "%s – %s\n", act.Time, act.Title)
		if act.Address != "" {
			fmt.Fprintf(&b, "  %s\n", act.Address)
		}
		if act.MapsURL != "" {
			fmt.Fprintf(&b, "  Maps: %s\n", act.MapsURL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Context renders the schedule for inclusion in chat prompts.
func (s *Service) Context() string {
	return s.schedule.Context()
}
