// Package sqlstore implements store.Store on database/sql for MySQL,
// PostgreSQL and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"exercise-tracker/internal/database"
	"exercise-tracker/internal/models"
	"exercise-tracker/internal/store"
)

const (
	sqlInsertUser = `INSERT INTO users (id, username, created_at) VALUES (?, ?, ?)`

	sqlListUsers = `SELECT id, username, created_at FROM users ORDER BY created_at, id`

	sqlGetUser = `SELECT id, username, created_at FROM users WHERE id = ?`

	sqlInsertExercise = `INSERT INTO exercises (id, user_id, description, duration, performed_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	sqlSelectExercises = `SELECT id, user_id, description, duration, performed_on, created_at FROM exercises`
)

type Store struct {
	db      *sql.DB
	dialect database.Dialect
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

// New wraps an open connection whose schema already exists.
func New(db *sql.DB, dialect database.Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

func (s *Store) CreateUser(ctx context.Context, username string) (*models.User, error) {
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(sqlInsertUser), user.ID, user.Username, user.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, sqlListUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var (
			user      models.User
			createdAt int64
		)
		if err := rows.Scan(&user.ID, &user.Username, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.CreatedAt = time.Unix(0, createdAt).UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var (
		user      models.User
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(sqlGetUser), strings.TrimSpace(id)).
		Scan(&user.ID, &user.Username, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.CreatedAt = time.Unix(0, createdAt).UTC()
	return &user, nil
}

func (s *Store) CreateExercise(ctx context.Context, exercise models.Exercise) (*models.Exercise, error) {
	exercise.ID = uuid.NewString()
	if exercise.CreatedAt.IsZero() {
		exercise.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(sqlInsertExercise),
		exercise.ID,
		exercise.UserID,
		exercise.Description,
		exercise.Duration,
		exercise.Date.UTC(),
		exercise.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert exercise: %w", err)
	}
	return &exercise, nil
}

func (s *Store) FindExercises(ctx context.Context, query models.LogQuery) ([]models.Exercise, error) {
	if query.Limit != nil && *query.Limit == 0 {
		return []models.Exercise{}, nil
	}

	stmt, args := buildExerciseQuery(query)
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(stmt), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}
	defer rows.Close()

	exercises := make([]models.Exercise, 0)
	for rows.Next() {
		var (
			ex        models.Exercise
			createdAt int64
		)
		if err := rows.Scan(&ex.ID, &ex.UserID, &ex.Description, &ex.Duration, &ex.Date, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		ex.Date = ex.Date.UTC()
		ex.CreatedAt = time.Unix(0, createdAt).UTC()
		exercises = append(exercises, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exercises: %w", err)
	}
	return exercises, nil
}

// buildExerciseQuery renders the filtered, ordered and limited select with
// ? placeholders.
func buildExerciseQuery(query models.LogQuery) (string, []any) {
	var b strings.Builder
	b.WriteString(sqlSelectExercises)
	b.WriteString(" WHERE user_id = ?")
	args := []any{query.UserID}

	if query.From != nil {
		b.WriteString(" AND performed_on >= ?")
		args = append(args, query.From.UTC())
	}
	if query.To != nil {
		b.WriteString(" AND performed_on <= ?")
		args = append(args, query.To.UTC())
	}

	b.WriteString(" ORDER BY performed_on, created_at")

	if query.Limit != nil && *query.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, *query.Limit)
	}
	return b.String(), args
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
