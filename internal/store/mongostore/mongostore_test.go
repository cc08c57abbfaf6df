package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"exercise-tracker/internal/models"
	"exercise-tracker/internal/store"
)

func TestExerciseFilter(t *testing.T) {
	oid := primitive.NewObjectID()
	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

	t.Run("user only", func(t *testing.T) {
		filter, err := exerciseFilter(models.LogQuery{UserID: oid.Hex()})
		require.NoError(t, err)
		assert.Equal(t, bson.M{"userId": oid}, filter)
	})

	t.Run("both bounds", func(t *testing.T) {
		filter, err := exerciseFilter(models.LogQuery{UserID: oid.Hex(), From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, bson.M{
			"userId": oid,
			"date":   bson.M{"$gte": from, "$lte": to},
		}, filter)
	})

	t.Run("upper bound only", func(t *testing.T) {
		filter, err := exerciseFilter(models.LogQuery{UserID: oid.Hex(), To: &to})
		require.NoError(t, err)
		assert.Equal(t, bson.M{"$lte": to}, filter["date"])
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := exerciseFilter(models.LogQuery{UserID: "not-an-object-id"})
		assert.Error(t, err)
	})
}

func TestFindOptions(t *testing.T) {
	limit := 5
	opts := findOptions(models.LogQuery{Limit: &limit})
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(5), *opts.Limit)
	assert.Equal(t, bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}, opts.Sort)

	opts = findOptions(models.LogQuery{})
	assert.Nil(t, opts.Limit)
}

func TestMalformedUserIDIsNotFound(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	_, err := s.FindExercises(ctx, models.LogQuery{UserID: "not-an-object-id"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.CreateExercise(ctx, models.Exercise{UserID: "not-an-object-id", Description: "run", Duration: 10})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetUser(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
