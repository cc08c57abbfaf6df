// Package mongostore keeps one document per user and per exercise in MongoDB,
// linked by the user's ObjectID.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"exercise-tracker/internal/models"
	"exercise-tracker/internal/store"
)

const (
	usersCollection     = "users"
	exercisesCollection = "exercises"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Username  string             `bson:"username"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type exerciseDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	UserID      primitive.ObjectID `bson:"userId"`
	Description string             `bson:"description"`
	Duration    int                `bson:"duration"`
	Date        time.Time          `bson:"date"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

type Store struct {
	client    *mongo.Client
	users     *mongo.Collection
	exercises *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// New binds the store to database dbName and makes sure the log index exists.
func New(ctx context.Context, client *mongo.Client, dbName string) (*Store, error) {
	db := client.Database(dbName)
	s := &Store{
		client:    client,
		users:     db.Collection(usersCollection),
		exercises: db.Collection(exercisesCollection),
	}

	_, err := s.exercises.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exercise index: %w", err)
	}
	return s, nil
}

func (s *Store) CreateUser(ctx context.Context, username string) (*models.User, error) {
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	user := doc.toModel()
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1, "username": 1, "createdAt": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toModel())
	}
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		// not an ObjectID, so it cannot name a stored user
		return nil, store.ErrNotFound
	}

	var doc userDoc
	err = s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user := doc.toModel()
	return &user, nil
}

func (s *Store) CreateExercise(ctx context.Context, exercise models.Exercise) (*models.Exercise, error) {
	userID, err := primitive.ObjectIDFromHex(exercise.UserID)
	if err != nil {
		return nil, store.ErrNotFound
	}
	if exercise.CreatedAt.IsZero() {
		exercise.CreatedAt = time.Now().UTC()
	}

	doc := exerciseDoc{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.Date.UTC(),
		CreatedAt:   exercise.CreatedAt,
	}
	if _, err := s.exercises.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert exercise: %w", err)
	}

	exercise.ID = doc.ID.Hex()
	return &exercise, nil
}

func (s *Store) FindExercises(ctx context.Context, query models.LogQuery) ([]models.Exercise, error) {
	if query.Limit != nil && *query.Limit == 0 {
		return []models.Exercise{}, nil
	}

	filter, err := exerciseFilter(query)
	if err != nil {
		return nil, store.ErrNotFound
	}

	cur, err := s.exercises.Find(ctx, filter, findOptions(query))
	if err != nil {
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}

	var docs []exerciseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode exercises: %w", err)
	}

	exercises := make([]models.Exercise, 0, len(docs))
	for _, doc := range docs {
		exercises = append(exercises, models.Exercise{
			ID:          doc.ID.Hex(),
			UserID:      doc.UserID.Hex(),
			Description: doc.Description,
			Duration:    doc.Duration,
			Date:        doc.Date.UTC(),
			CreatedAt:   doc.CreatedAt.UTC(),
		})
	}
	return exercises, nil
}

// exerciseFilter scopes the query to one user with optional inclusive date
// bounds.
func exerciseFilter(query models.LogQuery) (bson.M, error) {
	userID, err := primitive.ObjectIDFromHex(query.UserID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"userId": userID}
	if query.From != nil || query.To != nil {
		date := bson.M{}
		if query.From != nil {
			date["$gte"] = query.From.UTC()
		}
		if query.To != nil {
			date["$lte"] = query.To.UTC()
		}
		filter["date"] = date
	}
	return filter, nil
}

// findOptions sorts by date then insertion (_id) and applies a positive limit.
func findOptions(query models.LogQuery) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	if query.Limit != nil && *query.Limit > 0 {
		opts.SetLimit(int64(*query.Limit))
	}
	return opts
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (d userDoc) toModel() models.User {
	return models.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		CreatedAt: d.CreatedAt.UTC(),
	}
}
