package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/franckabsuser/bam/internal/models"
)

type pauseMongoRepo struct {
	coll *mongo.Collection
}

func NewPauseMongoRepository(coll *mongo.Collection) PauseRepository {
	idx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user", Value: 1},
			{Key: "startTime", Value: -1},
		},
		Options: options.Index().SetName("user_start_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), idx)
	return &pauseMongoRepo{coll: coll}
}

func (r *pauseMongoRepo) Insert(ctx context.Context, p *models.Pause) error {
	res, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

func (r *pauseMongoRepo) FindActiveByUser(ctx context.Context, userID primitive.ObjectID) (*models.Pause, error) {
	var p models.Pause
	err := r.coll.FindOne(ctx, bson.M{"user": userID, "isPaused": true}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *pauseMongoRepo) End(ctx context.Context, id primitive.ObjectID, endedAt time.Time, duration float64) error {
	update := bson.M{"$set": bson.M{
		"endTime":  endedAt.UTC(),
		"duration": duration,
		"isPaused": false,
	}}
	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pauseMongoRepo) ListActive(ctx context.Context) ([]*models.Pause, error) {
	return r.findAll(ctx, bson.M{"isPaused": true})
}

func (r *pauseMongoRepo) ListStartedBetween(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]*models.Pause, error) {
	return r.findAll(ctx, bson.M{
		"user":      userID,
		"startTime": bson.M{"$gte": from, "$lt": to},
	})
}

func (r *pauseMongoRepo) findAll(ctx context.Context, filter bson.M) ([]*models.Pause, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Pause
	for cur.Next(ctx) {
		var p models.Pause
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}
