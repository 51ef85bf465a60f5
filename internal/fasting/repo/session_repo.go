package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
)

// SessionRepo reads and writes fasting_sessions.
type SessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = `id, user_id, fasting_type, start_time, planned_end_time, actual_end_time,
	status, current_phase, start_glucose, end_glucose, start_weight, end_weight,
	start_energy, end_energy, notes, created_at, updated_at`

// Create inserts a new session row.
func (r *SessionRepo) Create(ctx context.Context, s *entity.Session) error {
	const q = `INSERT INTO fasting_sessions (` + sessionColumns + `)
		VALUES (:id, :user_id, :fasting_type, :start_time, :planned_end_time, :actual_end_time,
		:status, :current_phase, :start_glucose, :end_glucose, :start_weight, :end_weight,
		:start_energy, :end_energy, :notes, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, q, s)
	return err
}

// GetByID returns the session owned by userID or sql.ErrNoRows.
func (r *SessionRepo) GetByID(ctx context.Context, userID int64, id string) (*entity.Session, error) {
	var s entity.Session
	q := `SELECT ` + sessionColumns + ` FROM fasting_sessions WHERE id=$1 AND user_id=$2`
	if err := r.db.GetContext(ctx, &s, q, id, userID); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindOpen returns the user's active or paused session or sql.ErrNoRows.
func (r *SessionRepo) FindOpen(ctx context.Context, userID int64) (*entity.Session, error) {
	var s entity.Session
	q := `SELECT ` + sessionColumns + ` FROM fasting_sessions
		WHERE user_id=$1 AND status IN ('active', 'paused')
		ORDER BY start_time DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &s, q, userID); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByUser returns the user's sessions, newest first. limit <= 0 means all.
func (r *SessionRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]entity.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM fasting_sessions WHERE user_id=$1 ORDER BY start_time DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	out := []entity.Session{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes the mutable columns. Returns rows affected.
func (r *SessionRepo) Update(ctx context.Context, s *entity.Session) (int64, error) {
	const q = `UPDATE fasting_sessions SET
		actual_end_time=:actual_end_time, status=:status, current_phase=:current_phase,
		end_glucose=:end_glucose, end_weight=:end_weight, end_energy=:end_energy,
		notes=:notes, updated_at=:updated_at
		WHERE id=:id AND user_id=:user_id`
	res, err := r.db.NamedExecContext(ctx, q, s)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
