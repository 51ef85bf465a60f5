package fasting

import (
	"context"
	"fmt"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/analytics"
	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
)

type achievementRule struct {
	kind        string
	title       string
	description string
	earned      func(done *entity.Session, history []entity.Session) bool
}

func minHours(h float64) func(*entity.Session, []entity.Session) bool {
	return func(done *entity.Session, _ []entity.Session) bool { return done.DurationHours() >= h }
}

func minStreak(n int) func(*entity.Session, []entity.Session) bool {
	return func(_ *entity.Session, history []entity.Session) bool { return analytics.CalculateStreak(history) >= n }
}

var achievementRules = []achievementRule{
	{"first_fast", "First fast", "Completed your first fast.", minHours(0)},
	{"fast_16h", "Sixteen hours", "Completed a fast of 16 hours or more.", minHours(16)},
	{"fast_24h", "Full day", "Completed a fast of 24 hours or more.", minHours(24)},
	{"fast_48h", "Two days", "Completed a fast of 48 hours or more.", minHours(48)},
	{"streak_3", "On a roll", "Reached a fasting streak of 3.", minStreak(3)},
	{"streak_7", "Consistent", "Reached a fasting streak of 7.", minStreak(7)},
}

// awardAchievements checks every rule against the just-completed session and
// returns the ones newly earned. Award is idempotent per user and type.
func (s *Service) awardAchievements(ctx context.Context, done *entity.Session) ([]entity.Achievement, error) {
	history, err := s.sessions.ListByUser(ctx, done.UserID, 0)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history = withSession(history, done)

	earned := []entity.Achievement{}
	for _, r := range achievementRules {
		if !r.earned(done, history) {
			continue
		}
		a := entity.Achievement{
			ID:              s.newID(),
			UserID:          done.UserID,
			AchievementType: r.kind,
			Title:           r.title,
			Description:     r.description,
			EarnedAt:        *done.ActualEndTime,
		}
		ok, err := s.achievements.Award(ctx, &a)
		if err != nil {
			return nil, fmt.Errorf("award %s: %w", r.kind, err)
		}
		if ok {
			earned = append(earned, a)
		}
	}
	return earned, nil
}

// withSession replaces or adds done in history so the streak sees its final state.
func withSession(history []entity.Session, done *entity.Session) []entity.Session {
	for i := range history {
		if history[i].ID == done.ID {
			history[i] = *done
			return history
		}
	}
	return append(history, *done)
}
