package fasting

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/coach"
	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
	"github.com/ovaphlow/pitchfork/service-fasting-go/pkg/utilities"
)

// SessionStore is implemented by repo.SessionRepo.
type SessionStore interface {
	Create(ctx context.Context, s *entity.Session) error
	GetByID(ctx context.Context, userID int64, id string) (*entity.Session, error)
	FindOpen(ctx context.Context, userID int64) (*entity.Session, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]entity.Session, error)
	Update(ctx context.Context, s *entity.Session) (int64, error)
}

// LogStore is implemented by repo.LogRepo.
type LogStore interface {
	Create(ctx context.Context, l *entity.Log) error
	ListBySession(ctx context.Context, userID int64, sessionID string) ([]entity.Log, error)
	ListByUser(ctx context.Context, userID int64) ([]entity.Log, error)
}

// AchievementStore is implemented by repo.AchievementRepo.
type AchievementStore interface {
	Award(ctx context.Context, a *entity.Achievement) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]entity.Achievement, error)
}

// sentinel errors for common failure modes
var (
	ErrNotFound      = errors.New("not found")
	ErrActiveSession = errors.New("an active fasting session already exists")
	ErrInvalidStatus = errors.New("invalid session status for this operation")
	ErrInvalidInput  = errors.New("invalid input")
)

// historyLimit caps how many past sessions feed the coach.
const historyLimit = 30

// Service holds the fasting business logic.
type Service struct {
	sessions     SessionStore
	logs         LogStore
	achievements AchievementStore
	coach        *coach.Coach
	planner      *coach.Planner
	logger       *zap.SugaredLogger

	now   func() time.Time
	newID func() string
}

func NewService(sessions SessionStore, logs LogStore, achievements AchievementStore, th coach.Thresholds, logger *zap.SugaredLogger) *Service {
	return &Service{
		sessions:     sessions,
		logs:         logs,
		achievements: achievements,
		coach:        coach.New(th),
		planner:      coach.NewPlanner(th),
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        utilities.NewSnowflakeID,
	}
}

// StartInput is the payload for StartSession.
type StartInput struct {
	FastingType  string   `json:"fasting_type"`
	PlannedHours *float64 `json:"planned_hours,omitempty"`
	StartGlucose *float64 `json:"start_glucose,omitempty"`
	StartWeight  *float64 `json:"start_weight,omitempty"`
	StartEnergy  *int     `json:"start_energy,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// StartSession opens a new fast. Known protocols set the planned length;
// anything else needs planned_hours.
func (s *Service) StartSession(ctx context.Context, userID int64, in StartInput) (*entity.Session, error) {
	in.FastingType = strings.TrimSpace(in.FastingType)
	if in.FastingType == "" {
		return nil, fmt.Errorf("%w: fasting_type is required", ErrInvalidInput)
	}
	hours, ok := entity.ProtocolHours(in.FastingType)
	if in.PlannedHours != nil {
		if *in.PlannedHours <= 0 {
			return nil, fmt.Errorf("%w: planned_hours must be positive", ErrInvalidInput)
		}
		hours, ok = *in.PlannedHours, true
	}
	if !ok {
		return nil, fmt.Errorf("%w: unknown fasting_type %q without planned_hours", ErrInvalidInput, in.FastingType)
	}
	if in.StartEnergy != nil && (*in.StartEnergy < 1 || *in.StartEnergy > 10) {
		return nil, fmt.Errorf("%w: start_energy must be 1-10", ErrInvalidInput)
	}

	if _, err := s.sessions.FindOpen(ctx, userID); err == nil {
		return nil, ErrActiveSession
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find open session: %w", err)
	}

	now := s.now()
	sess := &entity.Session{
		ID:             s.newID(),
		UserID:         userID,
		FastingType:    in.FastingType,
		StartTime:      now,
		PlannedEndTime: now.Add(time.Duration(hours * float64(time.Hour))),
		Status:         entity.StatusActive,
		CurrentPhase:   entity.PhasePreparation,
		StartGlucose:   in.StartGlucose,
		StartWeight:    in.StartWeight,
		StartEnergy:    in.StartEnergy,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// GetSession returns the caller's session with its phase brought up to date.
func (s *Service) GetSession(ctx context.Context, userID int64, id string) (*entity.Session, error) {
	sess, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	sess.CurrentPhase = sess.CurrentPhaseAt(s.now())
	return sess, nil
}

// ListSessions returns the caller's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, userID int64, limit int) ([]entity.Session, error) {
	out, err := s.sessions.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	now := s.now()
	for i := range out {
		out[i].CurrentPhase = out[i].CurrentPhaseAt(now)
	}
	return out, nil
}

// EndInput is the payload for EndSession. Status defaults to completed.
type EndInput struct {
	Status     entity.Status `json:"status"`
	EndGlucose *float64      `json:"end_glucose,omitempty"`
	EndWeight  *float64      `json:"end_weight,omitempty"`
	EndEnergy  *int          `json:"end_energy,omitempty"`
	Notes      string        `json:"notes,omitempty"`
}

// EndResult is the ended session and any achievement it unlocked.
type EndResult struct {
	Session      *entity.Session      `json:"session"`
	Achievements []entity.Achievement `json:"achievements"`
}

// EndSession completes or breaks an active or paused session.
func (s *Service) EndSession(ctx context.Context, userID int64, id string, in EndInput) (*EndResult, error) {
	if in.Status == "" {
		in.Status = entity.StatusCompleted
	}
	if !in.Status.Ended() {
		return nil, fmt.Errorf("%w: status must be completed or broken", ErrInvalidInput)
	}
	sess, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sess.Status.Ended() {
		return nil, fmt.Errorf("%w: session is already %s", ErrInvalidStatus, sess.Status)
	}

	now := s.now()
	sess.ActualEndTime = &now
	sess.Status = in.Status
	sess.CurrentPhase = entity.PhaseRefeeding
	sess.EndGlucose = in.EndGlucose
	sess.EndWeight = in.EndWeight
	sess.EndEnergy = in.EndEnergy
	if in.Notes != "" {
		sess.Notes = joinNotes(sess.Notes, in.Notes)
	}
	sess.UpdatedAt = now
	if err := s.update(ctx, sess); err != nil {
		return nil, err
	}

	res := &EndResult{Session: sess, Achievements: []entity.Achievement{}}
	if sess.Status == entity.StatusCompleted {
		earned, err := s.awardAchievements(ctx, sess)
		if err != nil {
			return nil, err
		}
		res.Achievements = earned
	}
	return res, nil
}

// PauseSession moves an active session to paused.
func (s *Service) PauseSession(ctx context.Context, userID int64, id string) (*entity.Session, error) {
	return s.transition(ctx, userID, id, entity.StatusActive, entity.StatusPaused)
}

// ResumeSession moves a paused session back to active.
func (s *Service) ResumeSession(ctx context.Context, userID int64, id string) (*entity.Session, error) {
	return s.transition(ctx, userID, id, entity.StatusPaused, entity.StatusActive)
}

func (s *Service) transition(ctx context.Context, userID int64, id string, from, to entity.Status) (*entity.Session, error) {
	sess, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != from {
		return nil, fmt.Errorf("%w: session is %s, expected %s", ErrInvalidStatus, sess.Status, from)
	}
	now := s.now()
	sess.Status = to
	sess.CurrentPhase = sess.CurrentPhaseAt(now)
	sess.UpdatedAt = now
	if err := s.update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// LogInput is the payload for AddLog.
type LogInput struct {
	LogType entity.LogType  `json:"log_type"`
	Value   json.RawMessage `json:"value"`
}

// AddLog appends a user-reported log to the session.
func (s *Service) AddLog(ctx context.Context, userID int64, sessionID string, in LogInput) (*entity.Log, error) {
	if !in.LogType.Valid() {
		return nil, fmt.Errorf("%w: unknown log_type %q", ErrInvalidInput, in.LogType)
	}
	if len(in.Value) == 0 || !json.Valid(in.Value) {
		return nil, fmt.Errorf("%w: value must be JSON", ErrInvalidInput)
	}
	if _, err := s.load(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	l := &entity.Log{
		ID:        s.newID(),
		SessionID: sessionID,
		UserID:    userID,
		LoggedAt:  s.now(),
		LogType:   in.LogType,
		Value:     in.Value,
	}
	if err := s.logs.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create log: %w", err)
	}
	return l, nil
}

// ListLogs returns a session's logs, newest first.
func (s *Service) ListLogs(ctx context.Context, userID int64, sessionID string) ([]entity.Log, error) {
	if _, err := s.load(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	out, err := s.logs.ListBySession(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, userID int64, id string) (*entity.Session, error) {
	sess, err := s.sessions.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

func (s *Service) update(ctx context.Context, sess *entity.Session) error {
	n, err := s.sessions.Update(ctx, sess)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// record writes a system log row. Failures are logged and dropped so they
// never change the reply.
func (s *Service) record(ctx context.Context, userID int64, sessionID string, typ entity.LogType, value any, reply *string) {
	b, err := json.Marshal(value)
	if err != nil {
		s.logger.Warnw("encode log value", "type", typ, "err", err)
		return
	}
	l := &entity.Log{
		ID:         s.newID(),
		SessionID:  sessionID,
		UserID:     userID,
		LoggedAt:   s.now(),
		LogType:    typ,
		Value:      b,
		AIResponse: reply,
	}
	if err := s.logs.Create(ctx, l); err != nil {
		s.logger.Warnw("write fasting log failed", "type", typ, "session_id", sessionID, "err", err)
	}
}

func joinNotes(old, add string) string {
	if old == "" {
		return add
	}
	return old + "\n" + add
}
