package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
)

// AchievementRepo stores earned badges.
type AchievementRepo struct {
	db *sqlx.DB
}

func NewAchievementRepo(db *sqlx.DB) *AchievementRepo { return &AchievementRepo{db: db} }

// Award inserts the achievement unless the user already holds that type.
// Reports whether a row was written.
func (r *AchievementRepo) Award(ctx context.Context, a *entity.Achievement) (bool, error) {
	const q = `INSERT INTO fasting_achievements (id, user_id, achievement_type, title, description, earned_at)
		VALUES (:id, :user_id, :achievement_type, :title, :description, :earned_at)
		ON CONFLICT (user_id, achievement_type) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, q, a)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUser returns the user's achievements, oldest first.
func (r *AchievementRepo) ListByUser(ctx context.Context, userID int64) ([]entity.Achievement, error) {
	const q = `SELECT id, user_id, achievement_type, title, description, earned_at
		FROM fasting_achievements WHERE user_id=$1 ORDER BY earned_at`
	out := []entity.Achievement{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}
