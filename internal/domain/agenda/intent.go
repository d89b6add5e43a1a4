package agenda

import "strings"

// Intent classifies what an agenda question asks for.
type Intent int

const (
	// IntentUnknown means the message is not a structured agenda question.
	IntentUnknown Intent = iota
	// IntentPlace asks where an activity happens.
	IntentPlace
	// IntentActivity asks what happens or when.
	IntentActivity
)

var placeKeywords = []string{"dónde", "donde está", "direccion", "dirección", "lugar", "cómo llego", "como llego"}

var activityKeywords = []string{"hora", "horario", "actividad", "qué hay", "que hay", "hacemos"}

// DetectIntent classifies a free-text message with keyword rules.
// Place keywords take priority over activity keywords.
func DetectIntent(message string) Intent {
	msg := strings.ToLower(message)
	for _, kw := range placeKeywords {
		if strings.Contains(msg, kw) {
			return IntentPlace
		}
	}
	for _, kw := range activityKeywords {
		if strings.Contains(msg, kw) {
			return IntentActivity
		}
	}
	return IntentUnknown
}
