package coach

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Intent is the classified purpose of a coach message.
type Intent string

const (
	IntentEmergency          Intent = "emergency"
	IntentFastingDifficulty  Intent = "fasting_difficulty"
	IntentHealthConcern      Intent = "health_concern"
	IntentMotivationNeed     Intent = "motivation_need"
	IntentScheduleAdjustment Intent = "schedule_adjustment"
	IntentInformationRequest Intent = "information_request"
)

// route binds an intent to the keywords that select it and the handler that
// answers it. Routes are checked in slice order and the first hit wins.
type route struct {
	intent   Intent
	keywords []string
	handle   func(c *Coach, in Context) Response
}

// routes is ordered by priority. The last entry has no keywords and is the
// fallback.
var routes = []route{
	{
		intent:   IntentEmergency,
		keywords: []string{"chest pain", "emergency", "help", "stop", "dizzy", "nauseous", "faint", "passing out", "can't breathe", "cannot breathe", "confused"},
		handle:   (*Coach).handleEmergency,
	},
	{
		intent:   IntentFastingDifficulty,
		keywords: []string{"hungry", "hunger", "starving", "craving", "tired", "weak", "exhausted", "struggling", "difficult", "hard"},
		handle:   (*Coach).handleDifficulty,
	},
	{
		intent:   IntentHealthConcern,
		keywords: []string{"glucose", "blood sugar", "sugar", "headache", "shaky", "sweaty", "symptom", "worried", "ketone", "insulin", "medication"},
		handle:   (*Coach).handleHealthConcern,
	},
	{
		intent:   IntentMotivationNeed,
		keywords: []string{"motivat", "give up", "giving up", "quit", "can't do", "encourag", "discouraged", "not worth"},
		handle:   (*Coach).handleMotivation,
	},
	{
		intent:   IntentScheduleAdjustment,
		keywords: []string{"extend", "shorten", "schedule", "reschedule", "longer", "end early", "adjust", "change my"},
		handle:   (*Coach).handleSchedule,
	},
	{
		intent: IntentInformationRequest,
		handle: (*Coach).handleInformation,
	},
}

// Classify maps a free-text message to exactly one intent.
func Classify(message string) Intent {
	return match(normalize(message)).intent
}

func match(text string) route {
	for _, r := range routes {
		if containsAny(text, r.keywords) {
			return r
		}
	}
	return routes[len(routes)-1]
}

func routeFor(intent Intent) route {
	for _, r := range routes {
		if r.intent == intent {
			return r
		}
	}
	return routes[len(routes)-1]
}

// normalize lower-cases with Unicode rules. A Caser keeps state, so one is
// built per call.
func normalize(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
