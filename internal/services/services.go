package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"exercise-tracker/internal/cache"
	"exercise-tracker/internal/events"
	appmetrics "exercise-tracker/internal/metrics"
	"exercise-tracker/internal/models"
	"exercise-tracker/internal/store"
)

type UserService struct {
	store  store.Store
	cache  cache.UserCache
	logger *zap.Logger
}

type ExerciseService struct {
	store     store.Store
	users     *UserService
	publisher events.Publisher
	strict    bool
	now       func() time.Time
	logger    *zap.Logger
}

func NewUserService(st store.Store, userCache cache.UserCache, logger *zap.Logger) *UserService {
	if userCache == nil {
		userCache = cache.Nop{}
	}
	return &UserService{store: st, cache: userCache, logger: logger}
}

// NewExerciseService builds the log service. strict selects the validation
// policy for duration, date, and the log filters.
func NewExerciseService(st store.Store, users *UserService, publisher events.Publisher, strict bool, logger *zap.Logger) *ExerciseService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ExerciseService{
		store:     st,
		users:     users,
		publisher: publisher,
		strict:    strict,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *UserService) CreateUser(ctx context.Context, username string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, invalid("Username is required")
	}

	start := time.Now()
	user, err := s.store.CreateUser(ctx, username)
	appmetrics.ObserveStore("create_user", start)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	appmetrics.UsersCreatedTotal.Inc()
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	start := time.Now()
	users, err := s.store.ListUsers(ctx)
	appmetrics.ObserveStore("list_users", start)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser resolves a user id, consulting the cache first.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &NotFoundError{Resource: "User", ID: id, Err: store.ErrNotFound}
	}

	if cached, err := s.cache.GetUser(ctx, id); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("user cache read failed", zap.String("user_id", id), zap.Error(err))
	}

	start := time.Now()
	user, err := s.store.GetUser(ctx, id)
	appmetrics.ObserveStore("get_user", start)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &NotFoundError{Resource: "User", ID: id, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.cache.SetUser(ctx, *user); err != nil {
		s.logger.Warn("user cache write failed", zap.String("user_id", id), zap.Error(err))
	}
	return user, nil
}

type AddExerciseInput struct {
	Description string
	Duration    string
	Date        string
}

// AddExercise validates the input, stores the exercise against an existing
// user and returns the user's identity merged with the exercise.
func (s *ExerciseService) AddExercise(ctx context.Context, userID string, input AddExerciseInput) (*models.LoggedExercise, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Description) == "" {
		return nil, invalid("Description is required")
	}
	duration, err := parseDuration(input.Duration, s.strict)
	if err != nil {
		return nil, err
	}
	now := s.now()
	date, err := resolveDate(input.Date, s.strict, now)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	saved, err := s.store.CreateExercise(ctx, models.Exercise{
		UserID:      user.ID,
		Description: input.Description,
		Duration:    duration,
		Date:        date,
		CreatedAt:   now.UTC(),
	})
	appmetrics.ObserveStore("create_exercise", start)
	if err != nil {
		return nil, fmt.Errorf("failed to save exercise: %w", err)
	}
	appmetrics.ExercisesLoggedTotal.Inc()

	logged := &models.LoggedExercise{
		ID:          user.ID,
		Username:    user.Username,
		Date:        FormatDate(saved.Date),
		Duration:    saved.Duration,
		Description: saved.Description,
	}

	err = s.publisher.PublishExerciseLogged(ctx, events.ExerciseLogged{
		ExerciseID:  saved.ID,
		UserID:      user.ID,
		Username:    user.Username,
		Description: saved.Description,
		Duration:    saved.Duration,
		Date:        logged.Date,
		LoggedAt:    now.UTC(),
	})
	if err != nil {
		appmetrics.EventPublishFailuresTotal.Inc()
		s.logger.Warn("exercise event not published", zap.String("user_id", user.ID), zap.Error(err))
	}

	return logged, nil
}

type LogFilter struct {
	From  string
	To    string
	Limit string
}

// GetLogs returns the user's exercises ordered by date, within the optional
// inclusive bounds and truncated to the optional limit.
func (s *ExerciseService) GetLogs(ctx context.Context, userID string, filter LogFilter) (*models.LogResult, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	query, err := s.buildQuery(user.ID, filter)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	exercises, err := s.store.FindExercises(ctx, query)
	appmetrics.ObserveStore("find_exercises", start)
	if err != nil {
		return nil, fmt.Errorf("failed to find exercises: %w", err)
	}

	log := make([]models.LogEntry, 0, len(exercises))
	for _, ex := range exercises {
		log = append(log, models.LogEntry{
			Description: ex.Description,
			Duration:    ex.Duration,
			Date:        FormatDate(ex.Date),
		})
	}

	return &models.LogResult{
		ID:       user.ID,
		Username: user.Username,
		Count:    len(log),
		Log:      log,
	}, nil
}

func (s *ExerciseService) buildQuery(userID string, filter LogFilter) (models.LogQuery, error) {
	query := models.LogQuery{UserID: userID}

	from, err := parseBound("from", filter.From, s.strict)
	if err != nil {
		return query, err
	}
	to, err := parseBound("to", filter.To, s.strict)
	if err != nil {
		return query, err
	}
	limit, err := parseLimit(filter.Limit, s.strict)
	if err != nil {
		return query, err
	}

	query.From, query.To, query.Limit = from, to, limit
	return query, nil
}
