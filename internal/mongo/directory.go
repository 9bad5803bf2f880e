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

// Directory resolves references with one $in query per collection.
type Directory struct {
	db *mongo.Database
}

func NewDirectory(db *mongo.Database) *Directory {
	return &Directory{db: db}
}

func (d *Directory) Projects(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.ProjectRef, error) {
	return lookup(ctx, d.db.Collection(collProjects), ids,
		bson.M{"name": 1, "status": 1},
		func(r *domain.ProjectRef) primitive.ObjectID { return r.ID })
}

func (d *Directory) Employees(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.EmployeeRef, error) {
	return lookup(ctx, d.db.Collection(collEmployees), ids,
		bson.M{"firstName": 1, "lastName": 1, "email": 1, "position": 1},
		func(r *domain.EmployeeRef) primitive.ObjectID { return r.ID })
}

func (d *Directory) Users(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.UserRef, error) {
	return lookup(ctx, d.db.Collection(collUsers), ids,
		bson.M{"name": 1, "email": 1},
		func(r *domain.UserRef) primitive.ObjectID { return r.ID })
}

func (d *Directory) Teams(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.NamedRef, error) {
	return lookup(ctx, d.db.Collection(collTeams), ids,
		bson.M{"name": 1},
		func(r *domain.NamedRef) primitive.ObjectID { return r.ID })
}

func (d *Directory) Departments(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.NamedRef, error) {
	return lookup(ctx, d.db.Collection(collDepartments), ids,
		bson.M{"name": 1},
		func(r *domain.NamedRef) primitive.ObjectID { return r.ID })
}

func lookup[T any](ctx context.Context, coll *mongo.Collection, ids []primitive.ObjectID, projection bson.M, key func(*T) primitive.ObjectID) (map[primitive.ObjectID]*T, error) {
	out := make(map[primitive.ObjectID]*T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", coll.Name(), err)
	}
	var docs []*T
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	for _, doc := range docs {
		out[key(doc)] = doc
	}
	return out, nil
}
