package fasting

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/coach"
	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/health"
)

const userID = int64(11)

func f64(v float64) *float64 { return &v }

func start(t *testing.T, f *fixture, fastingType string) *entity.Session {
	t.Helper()
	sess, err := f.svc.StartSession(context.Background(), userID, StartInput{FastingType: fastingType})
	require.NoError(t, err)
	return sess
}

func TestStartSession(t *testing.T) {
	f := newFixture(t)
	sess := start(t, f, "16:8")

	assert.Equal(t, entity.StatusActive, sess.Status)
	assert.Equal(t, entity.PhasePreparation, sess.CurrentPhase)
	assert.Equal(t, base, sess.StartTime)
	assert.Equal(t, base.Add(16*time.Hour), sess.PlannedEndTime)
	assert.Equal(t, userID, sess.UserID)
}

func TestStartSessionRejectsSecondOpenSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := start(t, f, "16:8")

	_, err := f.svc.StartSession(ctx, userID, StartInput{FastingType: "18:6"})
	assert.ErrorIs(t, err, ErrActiveSession)

	_, err = f.svc.PauseSession(ctx, userID, sess.ID)
	require.NoError(t, err)
	_, err = f.svc.StartSession(ctx, userID, StartInput{FastingType: "18:6"})
	assert.ErrorIs(t, err, ErrActiveSession, "paused sessions still block")

	_, err = f.svc.StartSession(ctx, userID+1, StartInput{FastingType: "18:6"})
	assert.NoError(t, err, "other users are independent")
}

func TestStartSessionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, userID, StartInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.StartSession(ctx, userID, StartInput{FastingType: "custom"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.StartSession(ctx, userID, StartInput{FastingType: "16:8", PlannedHours: f64(-1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	energy := 11
	_, err = f.svc.StartSession(ctx, userID, StartInput{FastingType: "16:8", StartEnergy: &energy})
	assert.ErrorIs(t, err, ErrInvalidInput)

	sess, err := f.svc.StartSession(ctx, userID, StartInput{FastingType: "custom", PlannedHours: f64(30)})
	require.NoError(t, err)
	assert.Equal(t, 30.0, sess.PlannedHours())
}

func TestGetSessionScopesToOwner(t *testing.T) {
	f := newFixture(t)
	sess := start(t, f, "16:8")

	f.advance(13 * time.Hour)
	got, err := f.svc.GetSession(context.Background(), userID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PhaseDeep, got.CurrentPhase)

	_, err = f.svc.GetSession(context.Background(), userID+1, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.GetSession(context.Background(), userID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSessionsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := start(t, f, "16:8")
	f.advance(17 * time.Hour)
	_, err := f.svc.EndSession(ctx, userID, first.ID, EndInput{})
	require.NoError(t, err)
	f.advance(time.Hour)
	second := start(t, f, "18:6")

	list, err := f.svc.ListSessions(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, entity.PhaseRefeeding, list[1].CurrentPhase)
}

func TestEndSessionCompletesAndAwards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := start(t, f, "16:8")
	f.advance(17 * time.Hour)

	res, err := f.svc.EndSession(ctx, userID, sess.ID, EndInput{EndGlucose: f64(85), Notes: "felt fine"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, res.Session.Status)
	assert.Equal(t, entity.PhaseRefeeding, res.Session.CurrentPhase)
	require.NotNil(t, res.Session.ActualEndTime)
	assert.InDelta(t, 17.0, res.Session.DurationHours(), 1e-9)
	assert.Equal(t, "felt fine", res.Session.Notes)

	var kinds []string
	for _, a := range res.Achievements {
		kinds = append(kinds, a.AchievementType)
	}
	assert.Equal(t, []string{"first_fast", "fast_16h"}, kinds)

	_, err = f.svc.EndSession(ctx, userID, sess.ID, EndInput{})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestEndSessionAwardsEachTypeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var last *EndResult
	for day := 0; day < 4; day++ {
		f.clock = base.AddDate(0, 0, day)
		sess := start(t, f, "16:8")
		f.advance(17 * time.Hour)
		res, err := f.svc.EndSession(ctx, userID, sess.ID, EndInput{})
		require.NoError(t, err)
		if day > 0 && day < 3 {
			assert.Empty(t, res.Achievements, "day %d", day)
		}
		last = res
	}
	require.Len(t, last.Achievements, 1)
	assert.Equal(t, "streak_3", last.Achievements[0].AchievementType)
	assert.Len(t, f.achievements.rows, 3)
}

func TestEndSessionBrokenSkipsAchievements(t *testing.T) {
	f := newFixture(t)
	sess := start(t, f, "16:8")
	f.advance(5 * time.Hour)

	res, err := f.svc.EndSession(context.Background(), userID, sess.ID, EndInput{Status: entity.StatusBroken})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusBroken, res.Session.Status)
	assert.Empty(t, res.Achievements)

	_, err = f.svc.EndSession(context.Background(), userID, sess.ID, EndInput{Status: entity.StatusPaused})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := start(t, f, "16:8")

	_, err := f.svc.ResumeSession(ctx, userID, sess.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	paused, err := f.svc.PauseSession(ctx, userID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaused, paused.Status)

	_, err = f.svc.PauseSession(ctx, userID, sess.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	resumed, err := f.svc.ResumeSession(ctx, userID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, resumed.Status)
}

func TestUpdateErrorIsWrapped(t *testing.T) {
	f := newFixture(t)
	sess := start(t, f, "16:8")
	boom := errors.New("db down")
	f.sessions.updateFn = func(*entity.Session) error { return boom }

	_, err := f.svc.PauseSession(context.Background(), userID, sess.ID)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestAddAndListLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := start(t, f, "16:8")

	l, err := f.svc.AddLog(ctx, userID, sess.ID, LogInput{LogType: entity.LogGlucose, Value: json.RawMessage(`{"value": 92}`)})
	require.NoError(t, err)
	assert.Equal(t, base, l.LoggedAt)

	_, err = f.svc.AddLog(ctx, userID, sess.ID, LogInput{LogType: "selfie", Value: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.AddLog(ctx, userID, sess.ID, LogInput{LogType: entity.LogMood, Value: json.RawMessage(`{nope`)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.AddLog(ctx, userID+1, sess.ID, LogInput{LogType: entity.LogMood, Value: json.RawMessage(`3`)})
	assert.ErrorIs(t, err, ErrNotFound)

	logs, err := f.svc.ListLogs(ctx, userID, sess.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	v, ok := logs[0].NumericValue()
	assert.True(t, ok)
	assert.Equal(t, 92.0, v)
}

func TestCoachUsesSessionContextAndLogs(t *testing.T) {
	f := newFixture(t)
	sess := start(t, f, "16:8")
	f.advance(3 * time.Hour)

	resp, err := f.svc.Coach(context.Background(), userID, CoachInput{Message: "I'm so hungry", SessionID: sess.ID})
	require.NoError(t, err)
	assert.Equal(t, coach.IntentFastingDifficulty, resp.Intent)
	assert.Contains(t, resp.Message, "3.0 hours")

	logs := f.logs.ofType(entity.LogCoachInteraction)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].AIResponse)
	assert.Equal(t, resp.Message, *logs[0].AIResponse)
	assert.Contains(t, string(logs[0].Value), `"intent":"fasting_difficulty"`)
}

func TestCoachEmergencyWritesEmergencyLog(t *testing.T) {
	f := newFixture(t)
	sess := start(t, f, "16:8")

	resp, err := f.svc.Coach(context.Background(), userID, CoachInput{
		Message:      "I'm hungry and feel dizzy",
		SessionID:    sess.ID,
		GlucoseLevel: f64(120),
	})
	require.NoError(t, err)
	assert.True(t, resp.Emergency)
	assert.Equal(t, coach.IntentEmergency, resp.Intent)
	assert.Len(t, f.logs.ofType(entity.LogEmergency), 1)
	assert.Empty(t, f.logs.ofType(entity.LogCoachInteraction))
}

func TestCoachClientValuesWin(t *testing.T) {
	f := newFixture(t)
	sess := start(t, f, "16:8")

	resp, err := f.svc.Coach(context.Background(), userID, CoachInput{
		Message:      "my blood sugar is low",
		SessionID:    sess.ID,
		TimeIntoFast: f64(14),
		GlucoseLevel: f64(65),
	})
	require.NoError(t, err)
	assert.Equal(t, coach.IntentHealthConcern, resp.Intent)
	assert.Equal(t, coach.UrgencyHigh, resp.Urgency)
	assert.Contains(t, resp.Message, "65")
}

func TestCoachLogFailureDoesNotChangeReply(t *testing.T) {
	f := newFixture(t)
	sess := start(t, f, "16:8")
	f.logs.createErr = errors.New("insert failed")

	resp, err := f.svc.Coach(context.Background(), userID, CoachInput{Message: "tell me about autophagy", SessionID: sess.ID})
	require.NoError(t, err)
	assert.Equal(t, coach.IntentInformationRequest, resp.Intent)
	assert.NotEmpty(t, resp.Message)
}

func TestCoachValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Coach(context.Background(), userID, CoachInput{Message: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Coach(context.Background(), userID, CoachInput{Message: "hi", SessionID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	resp, err := f.svc.Coach(context.Background(), userID, CoachInput{EmergencyLevel: "critical"})
	require.NoError(t, err)
	assert.True(t, resp.Emergency)
	assert.Empty(t, f.logs.rows, "no session, nothing logged")
}

func TestCoachEmergencySurvivesHistoryFailure(t *testing.T) {
	f := newFixture(t)
	sess := start(t, f, "16:8")
	f.sessions.listErr = errors.New("db down")

	resp, err := f.svc.Coach(context.Background(), userID, CoachInput{Message: "chest pain, help"})
	require.NoError(t, err)
	assert.Equal(t, coach.IntentEmergency, resp.Intent)
	assert.True(t, resp.Emergency)

	resp, err = f.svc.Coach(context.Background(), userID, CoachInput{
		Message:        "tell me about ketosis",
		SessionID:      sess.ID,
		EmergencyLevel: "critical",
	})
	require.NoError(t, err)
	assert.True(t, resp.Emergency)
	assert.Len(t, f.logs.ofType(entity.LogEmergency), 1)

	// motivation is the one reply built from history
	_, err = f.svc.Coach(context.Background(), userID, CoachInput{Message: "I need motivation"})
	assert.ErrorContains(t, err, "db down")
}

func TestCoachBlankMessageNeedsEscalatedLevel(t *testing.T) {
	f := newFixture(t)
	for _, level := range []string{"", "low", "medium", "bogus"} {
		_, err := f.svc.Coach(context.Background(), userID, CoachInput{EmergencyLevel: level})
		assert.ErrorIs(t, err, ErrInvalidInput, "level=%q", level)
	}
	resp, err := f.svc.Coach(context.Background(), userID, CoachInput{Message: " ", EmergencyLevel: "High"})
	require.NoError(t, err)
	assert.True(t, resp.Emergency)
}

func TestCoachIgnoresUnknownPhase(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.Coach(context.Background(), userID, CoachInput{
		Message:      "what should I know",
		CurrentPhase: "<script>alert(1)</script>",
		TimeIntoFast: f64(14),
	})
	require.NoError(t, err)
	assert.Equal(t, coach.IntentInformationRequest, resp.Intent)
	assert.NotContains(t, resp.Message, "script")
	assert.Contains(t, resp.Message, "deep phase")

	resp, err = f.svc.Coach(context.Background(), userID, CoachInput{Message: "what should I know", CurrentPhase: "extended"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "extended phase")
}

func TestMonitorHealthCriticalBreaksFast(t *testing.T) {
	f := newFixture(t)
	sess := start(t, f, "16:8")
	f.advance(10 * time.Hour)

	res, err := f.svc.MonitorHealth(context.Background(), userID, MonitorInput{
		SessionID: sess.ID,
		Reading:   health.Reading{GlucoseLevel: f64(50)},
	})
	require.NoError(t, err)
	assert.Equal(t, health.LevelCritical, res.Assessment.Level)
	assert.True(t, res.Assessment.EscalationRequired)
	assert.True(t, res.FastBroken)
	assert.Equal(t, entity.StatusBroken, res.SessionStatus)

	stored, err := f.svc.GetSession(context.Background(), userID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusBroken, stored.Status)
	require.NotNil(t, stored.ActualEndTime)
	assert.Equal(t, base.Add(10*time.Hour), *stored.ActualEndTime)

	assert.Len(t, f.logs.ofType(entity.LogHealthMonitoring), 1)
	assert.Len(t, f.logs.ofType(entity.LogEmergency), 1)
}

func TestMonitorHealthLowRiskKeepsFast(t *testing.T) {
	f := newFixture(t)
	sess := start(t, f, "16:8")
	f.advance(2 * time.Hour)

	res, err := f.svc.MonitorHealth(context.Background(), userID, MonitorInput{
		SessionID: sess.ID,
		Reading:   health.Reading{GlucoseLevel: f64(95)},
	})
	require.NoError(t, err)
	assert.Equal(t, health.LevelLow, res.Assessment.Level)
	assert.False(t, res.FastBroken)
	assert.Equal(t, entity.StatusActive, res.SessionStatus)
	assert.Empty(t, f.logs.ofType(entity.LogEmergency))
}

func TestMonitorHealthWithoutSession(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.MonitorHealth(context.Background(), userID, MonitorInput{
		TimeIntoFast: f64(5),
		Reading:      health.Reading{GlucoseLevel: f64(45)},
	})
	require.NoError(t, err)
	assert.Equal(t, health.LevelCritical, res.Assessment.Level)
	assert.False(t, res.FastBroken)
	assert.Empty(t, f.logs.rows)
}

func TestPlanMealsFillsFromSession(t *testing.T) {
	f := newFixture(t)
	sess := start(t, f, "18:6")
	f.advance(19 * time.Hour)

	plan, err := f.svc.PlanMeals(context.Background(), userID, MealInput{
		SessionID:   sess.ID,
		MealRequest: coach.MealRequest{Message: "what should I eat in my eating window"},
	})
	require.NoError(t, err)
	assert.Equal(t, coach.MealPlanEatingWindow, plan.Type)
	assert.Contains(t, plan.Message, "18:6")
	assert.NotEmpty(t, plan.Meals)
	assert.Len(t, f.logs.ofType(entity.LogMealPlanning), 1)
}

func TestAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for day := 0; day < 3; day++ {
		f.clock = base.AddDate(0, 0, day)
		sess := start(t, f, "16:8")
		f.advance(17 * time.Hour)
		_, err := f.svc.EndSession(ctx, userID, sess.ID, EndInput{})
		require.NoError(t, err)
	}

	report, err := f.svc.Analytics(ctx, userID, "week")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Overview.TotalSessions)
	assert.Equal(t, 3, report.Overview.CompletedSessions)
	assert.Equal(t, 2, report.Overview.CurrentStreak)
	assert.Equal(t, 2, report.Overview.Achievements)

	_, err = f.svc.Analytics(ctx, userID, "decade")
	assert.ErrorIs(t, err, ErrInvalidInput)

	boom := errors.New("logs unavailable")
	f.logs.listErr = boom
	_, err = f.svc.Analytics(ctx, userID, "")
	assert.ErrorIs(t, err, boom)
}
