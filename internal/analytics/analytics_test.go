package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
)

var day0 = time.Date(2026, 3, 20, 19, 0, 0, 0, time.UTC) // a Friday

func session(daysAgo int, hours float64, status entity.Status) entity.Session {
	start := day0.AddDate(0, 0, -daysAgo)
	s := entity.Session{
		ID:             start.Format("20060102"),
		FastingType:    "16:8",
		StartTime:      start,
		PlannedEndTime: start.Add(16 * time.Hour),
		Status:         status,
	}
	if status.Ended() {
		end := start.Add(time.Duration(hours * float64(time.Hour)))
		s.ActualEndTime = &end
	}
	return s
}

func TestGenerateOverviewStatsEmpty(t *testing.T) {
	o := GenerateOverviewStats(nil, nil)
	assert.Equal(t, Overview{}, o)

	o = GenerateOverviewStats([]entity.Session{}, []entity.Achievement{})
	assert.Zero(t, o.TotalSessions)
	assert.Zero(t, o.SuccessRate)
	assert.Zero(t, o.AverageDurationHours)
}

func TestGenerateOverviewStats(t *testing.T) {
	sessions := []entity.Session{
		session(0, 18, entity.StatusCompleted),
		session(1, 16, entity.StatusCompleted),
		session(2, 6, entity.StatusBroken),
		session(3, 0, entity.StatusActive),
	}
	o := GenerateOverviewStats(sessions, []entity.Achievement{{AchievementType: "first_fast"}})
	assert.Equal(t, 4, o.TotalSessions)
	assert.Equal(t, 2, o.CompletedSessions)
	assert.Equal(t, 1, o.BrokenSessions)
	assert.InDelta(t, 50.0, o.SuccessRate, 1e-9)
	assert.InDelta(t, 17.0, o.AverageDurationHours, 1e-9)
	assert.InDelta(t, 18.0, o.LongestFastHours, 1e-9)
	assert.InDelta(t, 40.0, o.TotalFastingHours, 1e-9)
	assert.Equal(t, 1, o.CurrentStreak)
	assert.Equal(t, 1, o.Achievements)
}

func TestOverviewJSONUsesCamelCase(t *testing.T) {
	b, err := json.Marshal(GenerateOverviewStats(nil, nil))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"totalSessions":0`)
	assert.Contains(t, string(b), `"successRate":0`)
}

func TestCalculateStreak(t *testing.T) {
	sessions := []entity.Session{
		session(3, 16, entity.StatusCompleted),
		session(0, 16, entity.StatusCompleted),
		session(1, 16, entity.StatusCompleted),
	}
	assert.Equal(t, 2, CalculateStreak(sessions))

	sessions = append(sessions, session(6, 16, entity.StatusCompleted))
	assert.Equal(t, 2, CalculateStreak(sessions))
}

func TestCalculateStreakIgnoresUnfinished(t *testing.T) {
	sessions := []entity.Session{
		session(0, 16, entity.StatusCompleted),
		session(1, 4, entity.StatusBroken),
		session(2, 16, entity.StatusCompleted),
		session(10, 16, entity.StatusCompleted),
	}
	assert.Equal(t, 1, CalculateStreak(sessions))
	assert.Zero(t, CalculateStreak(sessions[:1]))
	assert.Zero(t, CalculateStreak(nil))
}

func TestDayGapUsesCalendarDays(t *testing.T) {
	late := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	early := time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, 2, dayGap(late, early))
	assert.Equal(t, 2, dayGap(early, late))
}

func TestParseTimeframe(t *testing.T) {
	tf, err := ParseTimeframe("")
	require.NoError(t, err)
	assert.Equal(t, TimeframeMonth, tf)

	tf, err = ParseTimeframe("quarter")
	require.NoError(t, err)
	assert.Equal(t, TimeframeQuarter, tf)

	_, err = ParseTimeframe("decade")
	assert.Error(t, err)
}

func TestFilterByTimeframe(t *testing.T) {
	sessions := []entity.Session{
		session(1, 16, entity.StatusCompleted),
		session(6, 16, entity.StatusCompleted),
		session(20, 16, entity.StatusCompleted),
		session(200, 16, entity.StatusCompleted),
	}
	assert.Len(t, FilterByTimeframe(sessions, TimeframeWeek, day0), 2)
	assert.Len(t, FilterByTimeframe(sessions, TimeframeMonth, day0), 3)
	assert.Len(t, FilterByTimeframe(sessions, TimeframeYear, day0), 4)
	assert.Len(t, FilterByTimeframe(sessions, TimeframeAll, day0), 4)
}

func TestGeneratePatterns(t *testing.T) {
	sessions := []entity.Session{
		session(0, 16, entity.StatusCompleted), // Friday 19:00
		session(7, 6, entity.StatusBroken),     // Friday 19:00
		session(1, 16, entity.StatusCompleted), // Thursday 19:00
	}
	sessions[2].FastingType = "18:6"
	sessions[2].StartTime = sessions[2].StartTime.Add(-12 * time.Hour) // Thursday 07:00

	p := GeneratePatterns(sessions)
	assert.Equal(t, Rate{Total: 2, Completed: 1, SuccessRate: 50}, p.ByWeekday["Friday"])
	assert.Equal(t, Rate{Total: 1, Completed: 1, SuccessRate: 100}, p.ByWeekday["Thursday"])
	assert.Equal(t, 2, p.ByHour[19].Total)
	assert.Equal(t, 100.0, p.ByType["18:6"].SuccessRate)
	assert.Equal(t, 3, p.ByMonth["March"].Total)
	assert.Equal(t, "Thursday", p.BestWeekday)
	require.NotNil(t, p.BestHour)
	assert.Equal(t, 7, *p.BestHour)
}

func TestGeneratePatternsEmpty(t *testing.T) {
	p := GeneratePatterns(nil)
	assert.Empty(t, p.ByWeekday)
	assert.Empty(t, p.BestWeekday)
	assert.Nil(t, p.BestHour)
}

func TestGenerateTrends(t *testing.T) {
	sessions := []entity.Session{
		session(10, 4, entity.StatusBroken),
		session(8, 5, entity.StatusBroken),
		session(2, 16, entity.StatusCompleted),
		session(1, 16, entity.StatusCompleted),
	}
	logs := []entity.Log{
		{LogType: entity.LogGlucose, LoggedAt: day0.Add(-2 * time.Hour), Value: json.RawMessage(`{"value": 90}`)},
		{LogType: entity.LogGlucose, LoggedAt: day0.Add(-5 * time.Hour), Value: json.RawMessage(`110`)},
		{LogType: entity.LogMood, LoggedAt: day0, Value: json.RawMessage(`{"value": 3}`)},
	}
	tr := GenerateTrends(sessions, logs)
	assert.Equal(t, TrendImproving, tr.Direction)
	assert.Equal(t, 0.0, tr.FirstHalfSuccessRate)
	assert.Equal(t, 100.0, tr.SecondHalfSuccessRate)
	require.NotNil(t, tr.AverageGlucose)
	assert.InDelta(t, 100.0, *tr.AverageGlucose, 1e-9)
	require.NotNil(t, tr.GlucoseChange)
	assert.InDelta(t, -20.0, *tr.GlucoseChange, 1e-9)
	assert.NotEmpty(t, tr.Weekly)
}

func TestGenerateTrendsNeedsEnoughSessions(t *testing.T) {
	tr := GenerateTrends([]entity.Session{session(1, 16, entity.StatusCompleted)}, nil)
	assert.Equal(t, TrendInsufficient, tr.Direction)
	assert.Nil(t, tr.AverageGlucose)
}

func TestGeneratePredictions(t *testing.T) {
	assert.Equal(t, Predictions{Confidence: 0.3}, GeneratePredictions(nil))

	sessions := []entity.Session{
		session(10, 4, entity.StatusBroken),
		session(8, 16, entity.StatusCompleted),
		session(2, 17, entity.StatusCompleted),
		session(1, 18, entity.StatusCompleted),
	}
	p := GeneratePredictions(sessions)
	// halves: 50% then 100%, extrapolated and capped
	assert.Equal(t, 100.0, p.NextSuccessRate)
	assert.Equal(t, 17.0, p.RecommendedDurationHours)
	assert.Equal(t, 0.6, p.Confidence)
}

func TestWeekStartIsMonday(t *testing.T) {
	ws := weekStart(day0)
	assert.Equal(t, time.Monday, ws.Weekday())
	assert.Equal(t, "2026-03-16", ws.Format("2006-01-02"))
}

func TestBuildReport(t *testing.T) {
	sessions := []entity.Session{
		session(0, 16, entity.StatusCompleted),
		session(2, 16, entity.StatusCompleted),
		session(4, 16, entity.StatusCompleted),
		session(40, 16, entity.StatusCompleted),
	}
	r := BuildReport(sessions, nil, nil, TimeframeWeek, day0)
	assert.Equal(t, TimeframeWeek, r.Timeframe)
	assert.Equal(t, 3, r.Overview.TotalSessions)
	assert.Equal(t, 2, r.Overview.CurrentStreak)
	assert.Equal(t, day0, r.GeneratedAt)
}
