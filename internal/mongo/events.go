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

// EventRepository persists calendar events.
type EventRepository struct {
	coll *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{coll: db.Collection(collEvents)}
}

func (r *EventRepository) Insert(ctx context.Context, e *domain.Event) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Event, error) {
	var e domain.Event
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, translate(err, "Event", id.Hex())
	}
	return &e, nil
}

func (r *EventRepository) Find(ctx context.Context, f domain.EventFilter) ([]*domain.Event, error) {
	filter := bson.M{}
	date := bson.M{}
	if f.From != nil {
		date["$gte"] = *f.From
	}
	if f.To != nil {
		date["$lte"] = *f.To
	}
	if len(date) > 0 {
		filter["date"] = date
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	out := make([]*domain.Event, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return out, nil
}

func (r *EventRepository) Update(ctx context.Context, id primitive.ObjectID, p domain.EventPatch) (*domain.Event, error) {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Date != nil {
		set["date"] = *p.Date
	}
	if p.EndDate != nil {
		set["endDate"] = *p.EndDate
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	if p.Participants != nil {
		set["participants"] = *p.Participants
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e domain.Event
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&e)
	if err != nil {
		return nil, translate(err, "Event", id.Hex())
	}
	return &e, nil
}

func (r *EventRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return &domain.NotFoundError{Entity: "Event", ID: id.Hex()}
	}
	return nil
}
