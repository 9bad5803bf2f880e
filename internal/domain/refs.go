package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// ProjectRef is the populated form of a task's project reference.
type ProjectRef struct {
	ID     primitive.ObjectID `bson:"_id" json:"_id"`
	Name   string             `bson:"name" json:"name"`
	Status ProjectStatus      `bson:"status,omitempty" json:"status,omitempty"`
}

// EmployeeRef is the populated form of an employee reference.
type EmployeeRef struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	Email     string             `bson:"email" json:"email"`
	Position  string             `bson:"position" json:"position"`
}

// UserRef is the populated form of a user reference.
type UserRef struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email,omitempty" json:"email,omitempty"`
}

// NamedRef is used for teams and departments.
type NamedRef struct {
	ID   primitive.ObjectID `bson:"_id" json:"_id"`
	Name string             `bson:"name" json:"name"`
}
