package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-fasting-go/internal/fasting/entity"
)

// LogRepo appends to and reads fasting_logs.
type LogRepo struct {
	db *sqlx.DB
}

func NewLogRepo(db *sqlx.DB) *LogRepo { return &LogRepo{db: db} }

const logColumns = `id, session_id, user_id, logged_at, log_type, value, ai_response`

// Create inserts a log row. value is sent as text so jsonb accepts it.
func (r *LogRepo) Create(ctx context.Context, l *entity.Log) error {
	const q = `INSERT INTO fasting_logs (` + logColumns + `) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`
	_, err := r.db.ExecContext(ctx, q, l.ID, l.SessionID, l.UserID, l.LoggedAt, l.LogType, string(l.Value), l.AIResponse)
	return err
}

// ListBySession returns a session's logs, newest first.
func (r *LogRepo) ListBySession(ctx context.Context, userID int64, sessionID string) ([]entity.Log, error) {
	q := `SELECT ` + logColumns + ` FROM fasting_logs WHERE session_id=$1 AND user_id=$2 ORDER BY logged_at DESC`
	out := []entity.Log{}
	if err := r.db.SelectContext(ctx, &out, q, sessionID, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns every log of the user, newest first.
func (r *LogRepo) ListByUser(ctx context.Context, userID int64) ([]entity.Log, error) {
	q := `SELECT ` + logColumns + ` FROM fasting_logs WHERE user_id=$1 ORDER BY logged_at DESC`
	out := []entity.Log{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}
