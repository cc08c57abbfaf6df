// Package memory is an in-process store. Each instance owns its data, so
// tests can build an isolated store per case.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"exercise-tracker/internal/models"
	"exercise-tracker/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	users     map[string]models.User
	userOrder []string
	exercises map[string]models.Exercise
	byUser    map[string][]string
	now       func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:     make(map[string]models.User),
		exercises: make(map[string]models.Exercise),
		byUser:    make(map[string][]string),
		now:       time.Now,
	}
}

func (s *Store) CreateUser(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: s.now().UTC(),
	}
	s.users[user.ID] = user
	s.userOrder = append(s.userOrder, user.ID)
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		users = append(users, s.users[id])
	}
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[strings.TrimSpace(id)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

// CreateExercise stores the exercise under a fresh id. The user reference is
// not checked here; callers verify the user first.
func (s *Store) CreateExercise(ctx context.Context, exercise models.Exercise) (*models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exercise.ID = uuid.NewString()
	if exercise.CreatedAt.IsZero() {
		exercise.CreatedAt = s.now().UTC()
	}
	s.exercises[exercise.ID] = exercise
	s.byUser[exercise.UserID] = append(s.byUser[exercise.UserID], exercise.ID)
	return &exercise, nil
}

func (s *Store) FindExercises(ctx context.Context, query models.LogQuery) ([]models.Exercise, error) {
	s.mu.RLock()
	ids := s.byUser[query.UserID]
	matched := make([]models.Exercise, 0, len(ids))
	for _, id := range ids {
		ex := s.exercises[id]
		if query.From != nil && ex.Date.Before(*query.From) {
			continue
		}
		if query.To != nil && ex.Date.After(*query.To) {
			continue
		}
		matched = append(matched, ex)
	}
	s.mu.RUnlock()

	// ids are kept in insertion order, so a stable sort keeps creation order
	// for exercises on the same date.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.Before(matched[j].Date)
	})

	if query.Limit != nil && *query.Limit >= 0 && *query.Limit < len(matched) {
		matched = matched[:*query.Limit]
	}
	return matched, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}
