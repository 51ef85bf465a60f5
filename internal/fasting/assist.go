package fasting

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/analytics"
	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/coach"
	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/health"
)

// CoachInput is the coach request body.
type CoachInput struct {
	Message        string   `json:"message"`
	SessionID      string   `json:"sessionId,omitempty"`
	CurrentPhase   string   `json:"currentPhase,omitempty"`
	TimeIntoFast   *float64 `json:"timeIntoFast,omitempty"`
	Symptoms       []string `json:"symptoms,omitempty"`
	GlucoseLevel   *float64 `json:"glucoseLevel,omitempty"`
	EmergencyLevel string   `json:"emergencyLevel,omitempty"`
}

// Coach answers a message. Elapsed time and phase come from the session when
// the client leaves them out. With a session the exchange is logged.
func (s *Service) Coach(ctx context.Context, userID int64, in CoachInput) (coach.Response, error) {
	if strings.TrimSpace(in.Message) == "" && !coach.Escalated(in.EmergencyLevel) {
		return coach.Response{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	cc := coach.Context{
		Message:        in.Message,
		GlucoseLevel:   in.GlucoseLevel,
		Symptoms:       in.Symptoms,
		EmergencyLevel: in.EmergencyLevel,
	}
	if p := entity.Phase(in.CurrentPhase); p.Valid() {
		cc.Phase = p
	}
	if in.TimeIntoFast != nil {
		cc.HoursElapsed = *in.TimeIntoFast
	}
	if in.SessionID != "" {
		sess, err := s.load(ctx, userID, in.SessionID)
		if err != nil {
			return coach.Response{}, err
		}
		now := s.now()
		if in.TimeIntoFast == nil {
			cc.HoursElapsed = sess.ElapsedHours(now)
		}
		if cc.Phase == "" {
			cc.Phase = sess.CurrentPhaseAt(now)
		}
	}
	if cc.Phase == "" {
		cc.Phase = entity.PhaseFor(cc.HoursElapsed)
	}

	// only the motivation reply reads history
	if s.coach.Intent(cc) == coach.IntentMotivationNeed {
		history, err := s.sessions.ListByUser(ctx, userID, historyLimit)
		if err != nil {
			return coach.Response{}, fmt.Errorf("load history: %w", err)
		}
		cc.History = history
	}

	resp := s.coach.Respond(cc)

	if in.SessionID != "" {
		typ := entity.LogCoachInteraction
		if resp.Emergency {
			typ = entity.LogEmergency
		}
		s.record(ctx, userID, in.SessionID, typ, map[string]any{
			"message":        in.Message,
			"intent":         resp.Intent,
			"emergency":      resp.Emergency,
			"symptoms":       in.Symptoms,
			"glucoseLevel":   in.GlucoseLevel,
			"emergencyLevel": in.EmergencyLevel,
		}, &resp.Message)
	}
	return resp, nil
}

// MonitorInput is the health-monitor request body.
type MonitorInput struct {
	SessionID    string         `json:"sessionId,omitempty"`
	TimeIntoFast *float64       `json:"timeIntoFast,omitempty"`
	Reading      health.Reading `json:"healthData"`
}

// MonitorResult is the assessment plus what happened to the session.
type MonitorResult struct {
	Assessment    health.Assessment `json:"assessment"`
	SessionStatus entity.Status     `json:"sessionStatus,omitempty"`
	FastBroken    bool              `json:"fastBroken"`
}

// MonitorHealth scores the reading. A critical level on a running session
// breaks it and writes an emergency log.
func (s *Service) MonitorHealth(ctx context.Context, userID int64, in MonitorInput) (*MonitorResult, error) {
	var sess *entity.Session
	hours := 0.0
	if in.TimeIntoFast != nil {
		hours = *in.TimeIntoFast
	}
	if in.SessionID != "" {
		var err error
		if sess, err = s.load(ctx, userID, in.SessionID); err != nil {
			return nil, err
		}
		if in.TimeIntoFast == nil {
			hours = sess.ElapsedHours(s.now())
		}
	}

	a := health.Assess(in.Reading, hours)
	res := &MonitorResult{Assessment: a}
	if sess == nil {
		return res, nil
	}

	s.record(ctx, userID, sess.ID, entity.LogHealthMonitoring, map[string]any{
		"reading":      in.Reading,
		"hoursElapsed": hours,
		"assessment":   a,
	}, nil)

	if a.Level == health.LevelCritical && !sess.Status.Ended() {
		now := s.now()
		sess.Status = entity.StatusBroken
		sess.ActualEndTime = &now
		sess.CurrentPhase = entity.PhaseRefeeding
		sess.Notes = joinNotes(sess.Notes, "ended automatically after a critical health assessment")
		sess.UpdatedAt = now
		if err := s.update(ctx, sess); err != nil {
			return nil, err
		}
		res.FastBroken = true
		s.logger.Warnw("fast broken by critical health assessment",
			"user_id", userID, "session_id", sess.ID, "factors", a.Factors)
		s.record(ctx, userID, sess.ID, entity.LogEmergency, map[string]any{
			"reason":        "critical_health_assessment",
			"factors":       a.Factors,
			"interventions": a.Interventions,
		}, nil)
	}
	res.SessionStatus = sess.Status
	return res, nil
}

// MealInput is the meal-plan request body.
type MealInput struct {
	SessionID string `json:"sessionId,omitempty"`
	coach.MealRequest
}

// PlanMeals builds a meal plan, filling fast details from the session.
func (s *Service) PlanMeals(ctx context.Context, userID int64, in MealInput) (coach.MealPlan, error) {
	req := in.MealRequest
	if in.SessionID != "" {
		sess, err := s.load(ctx, userID, in.SessionID)
		if err != nil {
			return coach.MealPlan{}, err
		}
		if req.HoursElapsed == 0 {
			req.HoursElapsed = sess.ElapsedHours(s.now())
		}
		if req.FastingType == "" {
			req.FastingType = sess.FastingType
		}
	}

	plan := s.planner.Plan(req)

	if in.SessionID != "" {
		s.record(ctx, userID, in.SessionID, entity.LogMealPlanning, map[string]any{
			"request": req,
			"plan":    plan.Type,
		}, &plan.Message)
	}
	return plan, nil
}

// Analytics loads the user's history concurrently and builds the report.
func (s *Service) Analytics(ctx context.Context, userID int64, timeframe string) (*analytics.Report, error) {
	tf, err := analytics.ParseTimeframe(timeframe)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var (
		sessions     []entity.Session
		logs         []entity.Log
		achievements []entity.Achievement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sessions, err = s.sessions.ListByUser(gctx, userID, 0)
		if err != nil {
			return fmt.Errorf("load sessions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		logs, err = s.logs.ListByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("load logs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		achievements, err = s.achievements.ListByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("load achievements: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := analytics.BuildReport(sessions, logs, achievements, tf, s.now())
	return &report, nil
}
