package entity

import "time"

// Achievement is a badge earned once per user and type.
type Achievement struct {
	ID              string    `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	AchievementType string    `db:"achievement_type" json:"achievement_type"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description,omitempty"`
	EarnedAt        time.Time `db:"earned_at" json:"earned_at"`
}
