// Package store defines the persistence contract shared by every backend.
package store

import (
	"context"
	"errors"

	"exercise-tracker/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("store: record not found")

// Store persists users and their exercises.
//
// FindExercises must return exercises ordered by date ascending with ties
// broken by creation order, honouring the inclusive bounds and the limit of
// the query.
type Store interface {
	CreateUser(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateExercise(ctx context.Context, exercise models.Exercise) (*models.Exercise, error)
	FindExercises(ctx context.Context, query models.LogQuery) ([]models.Exercise, error)
	Ping(ctx context.Context) error
	Close() error
}
