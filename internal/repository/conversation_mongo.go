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

type conversationMongoRepo struct {
	coll *mongo.Collection
}

func NewConversationMongoRepository(coll *mongo.Collection) ConversationRepository {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "participants", Value: 1}},
		Options: options.Index().SetName("participants_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), idx)
	return &conversationMongoRepo{coll: coll}
}

func (r *conversationMongoRepo) Insert(ctx context.Context, c *models.Conversation) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, c)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = oid
	}
	return nil
}

func (r *conversationMongoRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	var c models.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *conversationMongoRepo) FindDirectByPair(ctx context.Context, a, b primitive.ObjectID) (*models.Conversation, error) {
	filter := bson.M{
		"participants": bson.M{"$all": bson.A{a, b}},
		"isGroup":      false,
	}
	var c models.Conversation
	if err := r.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *conversationMongoRepo) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Conversation
	for cur.Next(ctx) {
		var c models.Conversation
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}

func (r *conversationMongoRepo) SetLastMessage(ctx context.Context, convID, msgID primitive.ObjectID, at time.Time) error {
	update := bson.M{"$set": bson.M{"lastMessage": msgID, "updated_at": at.UTC()}}
	res, err := r.coll.UpdateByID(ctx, convID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *conversationMongoRepo) SetArchived(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	return r.findAndSet(ctx, id, bson.M{"isArchived": true})
}

func (r *conversationMongoRepo) SetName(ctx context.Context, id primitive.ObjectID, name string) (*models.Conversation, error) {
	return r.findAndSet(ctx, id, bson.M{"conversationName": name})
}

func (r *conversationMongoRepo) findAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Conversation, error) {
	set["updated_at"] = time.Now().UTC()
	after := options.After
	var c models.Conversation
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *conversationMongoRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
