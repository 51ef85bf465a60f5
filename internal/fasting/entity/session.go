package entity

import (
	"encoding/json"
	"time"
)

// Status of a fasting session.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusBroken    Status = "broken"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted, StatusBroken:
		return true
	}
	return false
}

// Ended reports whether the session reached a terminal status.
func (s Status) Ended() bool {
	return s == StatusCompleted || s == StatusBroken
}

// Phase is the coarse elapsed-time bucket of a fast.
type Phase string

const (
	PhasePreparation Phase = "preparation"
	PhaseEarly       Phase = "early"
	PhaseDeep        Phase = "deep"
	PhaseExtended    Phase = "extended"
	PhaseRefeeding   Phase = "refeeding"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhasePreparation, PhaseEarly, PhaseDeep, PhaseExtended, PhaseRefeeding:
		return true
	}
	return false
}

// PhaseFor maps elapsed fasting hours to a phase. Ended sessions are
// refeeding regardless of duration; see Session.CurrentPhase.
func PhaseFor(hours float64) Phase {
	switch {
	case hours < 4:
		return PhasePreparation
	case hours < 12:
		return PhaseEarly
	case hours < 24:
		return PhaseDeep
	default:
		return PhaseExtended
	}
}

// protocolHours are the planned durations for named protocols.
var protocolHours = map[string]float64{
	"12:12":    12,
	"14:10":    14,
	"16:8":     16,
	"18:6":     18,
	"20:4":     20,
	"omad":     23,
	"24h":      24,
	"36h":      36,
	"48h":      48,
	"extended": 72,
}

// ProtocolHours returns the planned duration for a protocol label.
func ProtocolHours(fastingType string) (float64, bool) {
	h, ok := protocolHours[fastingType]
	return h, ok
}

// Session represents a row in fasting_sessions.
type Session struct {
	ID             string     `db:"id" json:"id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	FastingType    string     `db:"fasting_type" json:"fasting_type"`
	StartTime      time.Time  `db:"start_time" json:"start_time"`
	PlannedEndTime time.Time  `db:"planned_end_time" json:"planned_end_time"`
	ActualEndTime  *time.Time `db:"actual_end_time" json:"actual_end_time,omitempty"`
	Status         Status     `db:"status" json:"status"`
	CurrentPhase   Phase      `db:"current_phase" json:"current_phase"`
	StartGlucose   *float64   `db:"start_glucose" json:"start_glucose,omitempty"`
	EndGlucose     *float64   `db:"end_glucose" json:"end_glucose,omitempty"`
	StartWeight    *float64   `db:"start_weight" json:"start_weight,omitempty"`
	EndWeight      *float64   `db:"end_weight" json:"end_weight,omitempty"`
	StartEnergy    *int       `db:"start_energy" json:"start_energy,omitempty"`
	EndEnergy      *int       `db:"end_energy" json:"end_energy,omitempty"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// ElapsedHours is the fasting time up to now, or up to the actual end for
// ended sessions.
func (s *Session) ElapsedHours(now time.Time) float64 {
	end := now
	if s.ActualEndTime != nil {
		end = *s.ActualEndTime
	}
	h := end.Sub(s.StartTime).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// DurationHours is the length of an ended session; zero while it runs.
func (s *Session) DurationHours() float64 {
	if s.ActualEndTime == nil {
		return 0
	}
	return s.ElapsedHours(*s.ActualEndTime)
}

// PlannedHours is the planned fasting length.
func (s *Session) PlannedHours() float64 {
	return s.PlannedEndTime.Sub(s.StartTime).Hours()
}

// MarshalJSON adds the planned length in hours to the row's fields.
func (s Session) MarshalJSON() ([]byte, error) {
	type row Session
	return json.Marshal(struct {
		row
		PlannedHours float64 `json:"planned_hours"`
	}{row(s), s.PlannedHours()})
}

// CurrentPhaseAt derives the phase from status and elapsed time.
func (s *Session) CurrentPhaseAt(now time.Time) Phase {
	if s.Status.Ended() {
		return PhaseRefeeding
	}
	return PhaseFor(s.ElapsedHours(now))
}
