package coach

import (
	"strings"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
)

// Urgency of a coach response. Empty means none.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
)

// Response is what the coach sends back to the client.
type Response struct {
	Intent          Intent   `json:"intent"`
	Message         string   `json:"message"`
	Tips            []string `json:"tips,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Actions         []string `json:"actions,omitempty"`
	Urgency         Urgency  `json:"urgency,omitempty"`
	Encouragement   string   `json:"encouragement,omitempty"`
	Warning         string   `json:"warning,omitempty"`
	Emergency       bool     `json:"emergency,omitempty"`
}

// Context is the message plus whatever is known about the current fast.
type Context struct {
	Message        string
	HoursElapsed   float64
	Phase          entity.Phase
	GlucoseLevel   *float64
	Symptoms       []string
	EmergencyLevel string
	History        []entity.Session
}

// Thresholds are the numeric cut-offs the handlers branch on.
type Thresholds struct {
	DifficultyWarningHours float64 `yaml:"difficulty_warning_hours"`
	GlucoseUrgent          float64 `yaml:"glucose_urgent"`
	GlucoseCaution         float64 `yaml:"glucose_caution"`
}

// DefaultThresholds returns the stock cut-offs: warn past 20 hours, glucose
// below 70 is urgent and below 80 calls for caution.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DifficultyWarningHours: 20,
		GlucoseUrgent:          70,
		GlucoseCaution:         80,
	}
}

// Coach answers fasting questions from a fixed decision table.
type Coach struct {
	th Thresholds
}

// New builds a Coach; zero thresholds fall back to the defaults.
func New(th Thresholds) *Coach {
	def := DefaultThresholds()
	if th.DifficultyWarningHours <= 0 {
		th.DifficultyWarningHours = def.DifficultyWarningHours
	}
	if th.GlucoseUrgent <= 0 {
		th.GlucoseUrgent = def.GlucoseUrgent
	}
	if th.GlucoseCaution <= 0 {
		th.GlucoseCaution = def.GlucoseCaution
	}
	return &Coach{th: th}
}

// Thresholds returns the cut-offs in effect.
func (c *Coach) Thresholds() Thresholds { return c.th }

// Respond classifies the message and answers it. A client-reported emergency
// level of high or critical overrides the text.
func (c *Coach) Respond(in Context) Response {
	return c.dispatch(resolve(in), in)
}

// Intent is the intent Respond would answer with.
func (c *Coach) Intent(in Context) Intent {
	return resolve(in).intent
}

// Escalated reports whether a client-reported emergency level forces the
// emergency route.
func Escalated(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "high", "critical":
		return true
	}
	return false
}

func resolve(in Context) route {
	if Escalated(in.EmergencyLevel) {
		return routeFor(IntentEmergency)
	}
	return match(normalize(in.Message))
}

// Dispatch answers for an already known intent.
func (c *Coach) Dispatch(intent Intent, in Context) Response {
	return c.dispatch(routeFor(intent), in)
}

func (c *Coach) dispatch(r route, in Context) Response {
	resp := r.handle(c, in)
	resp.Intent = r.intent
	return resp
}
