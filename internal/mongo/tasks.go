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

// TaskRepository persists tasks in the tasks collection.
type TaskRepository struct {
	coll *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{coll: db.Collection(collTasks)}
}

func (r *TaskRepository) Insert(ctx context.Context, t *domain.Task) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Task, error) {
	var t domain.Task
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, translate(err, "Task", id.Hex())
	}
	return &t, nil
}

// Find returns matching tasks, newest first.
func (r *TaskRepository) Find(ctx context.Context, f domain.TaskFilter) ([]*domain.Task, error) {
	filter := bson.M{}
	if f.Project != nil {
		filter["project"] = *f.Project
	}
	if f.AssignedTo != nil {
		filter["assignedTo"] = *f.AssignedTo
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	out := make([]*domain.Task, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return out, nil
}

// Update applies the patch with a single findOneAndUpdate and returns the
// document as it is after the write.
func (r *TaskRepository) Update(ctx context.Context, id primitive.ObjectID, p domain.TaskPatch, now time.Time) (*domain.Task, error) {
	set := bson.M{"updatedAt": now}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Project != nil {
		set["project"] = *p.Project
	}
	if p.AssignedTo != nil {
		set["assignedTo"] = *p.AssignedTo
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
	}
	if p.DueDate != nil {
		set["dueDate"] = *p.DueDate
	}
	if p.CompletedAt != nil {
		set["completedAt"] = *p.CompletedAt
	} else if p.ClearCompletedAt {
		set["completedAt"] = nil
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t domain.Task
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&t)
	if err != nil {
		return nil, translate(err, "Task", id.Hex())
	}
	return &t, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id primitive.ObjectID) (*domain.Task, error) {
	var t domain.Task
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, translate(err, "Task", id.Hex())
	}
	return &t, nil
}

// CountByProject returns the number of tasks of the project and how many of
// them are completed.
func (r *TaskRepository) CountByProject(ctx context.Context, projectID primitive.ObjectID) (int64, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{"project": projectID})
	if err != nil {
		return 0, 0, fmt.Errorf("count tasks: %w", err)
	}
	completed, err := r.coll.CountDocuments(ctx, bson.M{"project": projectID, "status": domain.TaskCompleted})
	if err != nil {
		return 0, 0, fmt.Errorf("count completed tasks: %w", err)
	}
	return total, completed, nil
}
