package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// ProjectRepository persists projects in the projects collection.
type ProjectRepository struct {
	coll *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{coll: db.Collection(collProjects)}
}

func (r *ProjectRepository) Insert(ctx context.Context, p *domain.Project) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Project, error) {
	var p domain.Project
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err, "Project", id.Hex())
	}
	return &p, nil
}

func (r *ProjectRepository) Find(ctx context.Context, f domain.ProjectFilter) ([]*domain.Project, error) {
	filter := bson.M{}
	if f.Manager != nil {
		filter["manager"] = *f.Manager
	}
	if f.Department != nil {
		filter["department"] = *f.Department
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	out := make([]*domain.Project, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return out, nil
}

func (r *ProjectRepository) Update(ctx context.Context, id primitive.ObjectID, p domain.ProjectPatch, now time.Time) (*domain.Project, error) {
	set := bson.M{"updatedAt": now}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.StartDate != nil {
		set["startDate"] = *p.StartDate
	}
	if p.EndDate != nil {
		set["endDate"] = *p.EndDate
	}
	if p.Budget != nil {
		set["budget"] = *p.Budget
	}
	if p.Manager != nil {
		set["manager"] = *p.Manager
	}
	if p.Team != nil {
		set["team"] = *p.Team
	}
	if p.Department != nil {
		set["department"] = *p.Department
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out domain.Project
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		return nil, translate(err, "Project", id.Hex())
	}
	return &out, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id primitive.ObjectID) (*domain.Project, error) {
	var p domain.Project
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err, "Project", id.Hex())
	}
	return &p, nil
}

// SetProgress writes the progress field only.
func (r *ProjectRepository) SetProgress(ctx context.Context, id primitive.ObjectID, progress int) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"progress": progress, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("set progress of project %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return &domain.NotFoundError{Entity: "Project", ID: id.Hex()}
	}
	return nil
}

// IDs lists the id of every project.
func (r *ProjectRepository) IDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list project ids: %w", err)
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode project id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}
