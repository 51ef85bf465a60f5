package entity

import (
	"encoding/json"
	"time"
)

// LogType classifies a fasting_logs row.
type LogType string

const (
	LogSymptom          LogType = "symptom"
	LogGlucose          LogType = "glucose"
	LogHydration        LogType = "hydration"
	LogEnergy           LogType = "energy"
	LogMood             LogType = "mood"
	LogEmergency        LogType = "emergency"
	LogCoachInteraction LogType = "coach_interaction"
	LogHealthMonitoring LogType = "health_monitoring"
	LogMealPlanning     LogType = "meal_planning"
)

// Valid reports whether t is one of the known log types.
func (t LogType) Valid() bool {
	switch t {
	case LogSymptom, LogGlucose, LogHydration, LogEnergy, LogMood,
		LogEmergency, LogCoachInteraction, LogHealthMonitoring, LogMealPlanning:
		return true
	}
	return false
}

// Log is an append-only event attached to a session.
type Log struct {
	ID         string          `db:"id" json:"id"`
	SessionID  string          `db:"session_id" json:"session_id"`
	UserID     int64           `db:"user_id" json:"user_id"`
	LoggedAt   time.Time       `db:"logged_at" json:"logged_at"`
	LogType    LogType         `db:"log_type" json:"log_type"`
	Value      json.RawMessage `db:"value" json:"value"`
	AIResponse *string         `db:"ai_response" json:"ai_response,omitempty"`
}

// NumericValue extracts {"value": n} or a bare number from the payload.
func (l *Log) NumericValue() (float64, bool) {
	if len(l.Value) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(l.Value, &n); err == nil {
		return n, true
	}
	var obj struct {
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal(l.Value, &obj); err == nil && obj.Value != nil {
		return *obj.Value, true
	}
	return 0, false
}
