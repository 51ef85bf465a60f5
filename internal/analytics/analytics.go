// Package analytics aggregates a user's fasting history into summary
// statistics. Everything here is a pure function of its inputs.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
)

// Timeframe limits which sessions a report looks at.
type Timeframe string

const (
	TimeframeWeek    Timeframe = "week"
	TimeframeMonth   Timeframe = "month"
	TimeframeQuarter Timeframe = "quarter"
	TimeframeYear    Timeframe = "year"
	TimeframeAll     Timeframe = "all"
)

// ParseTimeframe accepts the known names; empty means month.
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(s); tf {
	case "":
		return TimeframeMonth, nil
	case TimeframeWeek, TimeframeMonth, TimeframeQuarter, TimeframeYear, TimeframeAll:
		return tf, nil
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

// Cutoff returns the earliest start time included, or false for all time.
func (tf Timeframe) Cutoff(now time.Time) (time.Time, bool) {
	switch tf {
	case TimeframeWeek:
		return now.AddDate(0, 0, -7), true
	case TimeframeMonth:
		return now.AddDate(0, -1, 0), true
	case TimeframeQuarter:
		return now.AddDate(0, -3, 0), true
	case TimeframeYear:
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// FilterByTimeframe keeps sessions started on or after the cutoff.
func FilterByTimeframe(sessions []entity.Session, tf Timeframe, now time.Time) []entity.Session {
	cutoff, ok := tf.Cutoff(now)
	if !ok {
		return sessions
	}
	out := make([]entity.Session, 0, len(sessions))
	for _, s := range sessions {
		if !s.StartTime.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// FilterLogsByTimeframe keeps logs written on or after the cutoff.
func FilterLogsByTimeframe(logs []entity.Log, tf Timeframe, now time.Time) []entity.Log {
	cutoff, ok := tf.Cutoff(now)
	if !ok {
		return logs
	}
	out := make([]entity.Log, 0, len(logs))
	for _, l := range logs {
		if !l.LoggedAt.Before(cutoff) {
			out = append(out, l)
		}
	}
	return out
}

type Overview struct {
	TotalSessions        int     `json:"totalSessions"`
	CompletedSessions    int     `json:"completedSessions"`
	BrokenSessions       int     `json:"brokenSessions"`
	SuccessRate          float64 `json:"successRate"`
	AverageDurationHours float64 `json:"averageDurationHours"`
	LongestFastHours     float64 `json:"longestFastHours"`
	TotalFastingHours    float64 `json:"totalFastingHours"`
	CurrentStreak        int     `json:"currentStreak"`
	Achievements         int     `json:"achievements"`
}

// GenerateOverviewStats summarises sessions. Success rate is the percentage
// of all sessions that completed; averages cover completed sessions only.
func GenerateOverviewStats(sessions []entity.Session, achievements []entity.Achievement) Overview {
	o := Overview{
		TotalSessions: len(sessions),
		Achievements:  len(achievements),
	}
	var completedHours float64
	for i := range sessions {
		s := &sessions[i]
		d := s.DurationHours()
		o.TotalFastingHours += d
		switch s.Status {
		case entity.StatusCompleted:
			o.CompletedSessions++
			completedHours += d
			if d > o.LongestFastHours {
				o.LongestFastHours = d
			}
		case entity.StatusBroken:
			o.BrokenSessions++
		}
	}
	if o.TotalSessions > 0 {
		o.SuccessRate = percent(o.CompletedSessions, o.TotalSessions)
	}
	if o.CompletedSessions > 0 {
		o.AverageDurationHours = completedHours / float64(o.CompletedSessions)
	}
	o.CurrentStreak = CalculateStreak(sessions)
	return o
}

// streakGapDays is the largest gap between consecutive sessions that keeps a
// streak alive.
const streakGapDays = 2

// CalculateStreak walks completed sessions from the most recent one and counts
// consecutive steps whose start dates are at most streakGapDays apart,
// stopping at the first larger gap.
func CalculateStreak(sessions []entity.Session) int {
	completed := make([]entity.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Status == entity.StatusCompleted {
			completed = append(completed, s)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].StartTime.After(completed[j].StartTime)
	})

	streak := 0
	for i := 1; i < len(completed); i++ {
		if dayGap(completed[i].StartTime, completed[i-1].StartTime) > streakGapDays {
			break
		}
		streak++
	}
	return streak
}

// dayGap counts calendar days from a to b.
func dayGap(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	days := int(db.Sub(da).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
