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

type userMongoRepo struct {
	coll *mongo.Collection
}

func NewUserMongoRepository(coll *mongo.Collection) UserRepository {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), idx)
	return &userMongoRepo{coll: coll}
}

func (r *userMongoRepo) Insert(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, u)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func (r *userMongoRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userMongoRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userMongoRepo) FindByEmails(ctx context.Context, emails []string) ([]*models.User, error) {
	return r.findAll(ctx, bson.M{"email": bson.M{"$in": emails}})
}

func (r *userMongoRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	return r.findAll(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *userMongoRepo) findAll(ctx context.Context, filter bson.M) ([]*models.User, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.User
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

func (r *userMongoRepo) ApplyUpdate(ctx context.Context, id primitive.ObjectID, upd models.UserUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.NameAndFirstName != nil {
		set["nameAndFirstName"] = *upd.NameAndFirstName
	}
	if upd.JeSuis != nil {
		set["jeSuis"] = *upd.JeSuis
	}
	if upd.Password != nil {
		// already hashed by the service layer
		set["password"] = *upd.Password
	}
	if upd.ProfilePhoto != nil {
		set["profilePhoto"] = *upd.ProfilePhoto
	}
	after := options.After
	var u models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userMongoRepo) SetTyping(ctx context.Context, id primitive.ObjectID, typing bool) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"isTyping": typing, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userMongoRepo) AddBlockedUser(ctx context.Context, id, blocked primitive.ObjectID) error {
	update := bson.M{
		"$addToSet": bson.M{"blockedUsers": blocked},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userMongoRepo) SetLastConnection(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"lastConnection": at.UTC()}})
	return err
}
