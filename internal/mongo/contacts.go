package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// ContactRepository persists contact-form messages.
type ContactRepository struct {
	coll *mongo.Collection
}

func NewContactRepository(db *mongo.Database) *ContactRepository {
	return &ContactRepository{coll: db.Collection(collContacts)}
}

func (r *ContactRepository) Insert(ctx context.Context, c *domain.Contact) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) List(ctx context.Context) ([]*domain.Contact, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find contacts: %w", err)
	}
	out := make([]*domain.Contact, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	return out, nil
}

func (r *ContactRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.ContactStatus) (*domain.Contact, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c domain.Contact
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}}, opts).Decode(&c)
	if err != nil {
		return nil, translate(err, "Contact", id.Hex())
	}
	return &c, nil
}
