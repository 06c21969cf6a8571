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

type messageMongoRepo struct {
	coll *mongo.Collection
}

func NewMessageMongoRepository(coll *mongo.Collection) MessageRepository {
	idx := mongo.IndexModel{
		Keys: bson.D{
			{Key: "conversationId", Value: 1},
			{Key: "created_at", Value: 1},
		},
		Options: options.Index().SetName("conversation_created_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), idx)
	return &messageMongoRepo{coll: coll}
}

func (r *messageMongoRepo) Insert(ctx context.Context, m *models.Message) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, m)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid
	}
	return nil
}

func (r *messageMongoRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var m models.Message
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *messageMongoRepo) ListForConversation(ctx context.Context, convID primitive.ObjectID) ([]*models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"conversationId": convID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

func (r *messageMongoRepo) CountUnread(ctx context.Context, convID, receiver primitive.ObjectID) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{
		"conversationId": convID,
		"receiver":       receiver,
		"isRead":         false,
	})
}

func (r *messageMongoRepo) MarkRead(ctx context.Context, convID, receiver primitive.ObjectID) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"conversationId": convID, "receiver": receiver, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// SetReaction first tries to overwrite an existing reaction with a
// positional update, then falls back to a push. Both steps are single
// document writes, so concurrent reactors cannot corrupt the list, though
// two first-time reactions from the same user racing each other can still
// both land.
func (r *messageMongoRepo) SetReaction(ctx context.Context, msgID, userID primitive.ObjectID, reactionType string) ([]models.Reaction, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": msgID, "reactions.user": userID},
		bson.M{"$set": bson.M{"reactions.$.reactionType": reactionType, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		push, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": msgID},
			bson.M{
				"$push": bson.M{"reactions": models.Reaction{User: userID, ReactionType: reactionType}},
				"$set":  bson.M{"updated_at": time.Now().UTC()},
			},
		)
		if err != nil {
			return nil, err
		}
		if push.MatchedCount == 0 {
			return nil, ErrNotFound
		}
	}
	return r.reactions(ctx, msgID)
}

func (r *messageMongoRepo) UpdateReaction(ctx context.Context, msgID, userID primitive.ObjectID, reactionType string) ([]models.Reaction, error) {
	if _, err := r.FindByID(ctx, msgID); err != nil {
		return nil, err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": msgID, "reactions.user": userID},
		bson.M{"$set": bson.M{"reactions.$.reactionType": reactionType, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return r.reactions(ctx, msgID)
}

func (r *messageMongoRepo) RemoveReaction(ctx context.Context, msgID, userID primitive.ObjectID) ([]models.Reaction, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": msgID},
		bson.M{
			"$pull": bson.M{"reactions": bson.M{"user": userID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return r.reactions(ctx, msgID)
}

func (r *messageMongoRepo) reactions(ctx context.Context, msgID primitive.ObjectID) ([]models.Reaction, error) {
	m, err := r.FindByID(ctx, msgID)
	if err != nil {
		return nil, err
	}
	return m.Reactions, nil
}
