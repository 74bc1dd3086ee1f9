package model

import (
	"fmt"
	"time"
)

// CompletionStatus is a user's progress on a catalogued game.
type CompletionStatus string

const (
	StatusPlaying   CompletionStatus = "Playing"
	StatusBeaten    CompletionStatus = "Beaten"
	StatusCompleted CompletionStatus = "Completed"
	StatusSuspended CompletionStatus = "Suspended"
	StatusAbandoned CompletionStatus = "Abandoned"
)

// CompletionStatuses lists every status in display order.
var CompletionStatuses = []CompletionStatus{
	StatusPlaying,
	StatusBeaten,
	StatusCompleted,
	StatusSuspended,
	StatusAbandoned,
}

// ParseCompletionStatus accepts the exact status names only.
func ParseCompletionStatus(s string) (CompletionStatus, error) {
	for _, status := range CompletionStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("model: unknown completion status %q", s)
}

// GameCompletion is one game in a user's collection. GameID points into the
// external catalog and is not validated locally.
type GameCompletion struct {
	ID        string           `json:"id"         db:"id"`
	UserID    string           `json:"user_id"    db:"user_id"`
	GameID    int64            `json:"game_id"    db:"game_id"`
	Status    CompletionStatus `json:"status"     db:"status"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}
