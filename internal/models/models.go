package models

import (
	"time"
)

type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

type Exercise struct {
	ID          string    `json:"-" db:"id"`
	UserID      string    `json:"-" db:"user_id"`
	Description string    `json:"description" db:"description"`
	Duration    int       `json:"duration" db:"duration"`
	Date        time.Time `json:"date" db:"date"`
	CreatedAt   time.Time `json:"-" db:"created_at"`
}

// LogQuery selects a user's exercises. Nil bounds and a nil limit mean
// "unbounded"; both bounds are inclusive.
type LogQuery struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  *int
}

type LoggedExercise struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Date        string `json:"date"`
	Duration    int    `json:"duration"`
	Description string `json:"description"`
}

type LogEntry struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

type LogResult struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Count    int        `json:"count"`
	Log      []LogEntry `json:"log"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
	Cache     string `json:"cache"`
}
