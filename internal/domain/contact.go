package domain

import (
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactStatus tracks how far an inbound contact message has been handled.
type ContactStatus string

const (
	ContactNew      ContactStatus = "new"
	ContactRead     ContactStatus = "read"
	ContactReplied  ContactStatus = "replied"
	ContactArchived ContactStatus = "archived"
)

func (s ContactStatus) Valid() bool {
	switch s {
	case ContactNew, ContactRead, ContactReplied, ContactArchived:
		return true
	}
	return false
}

// Contact is a message left through the public contact form.
type Contact struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Company   string             `bson:"company,omitempty" json:"company,omitempty"`
	Employees string             `bson:"employees,omitempty" json:"employees,omitempty"`
	Message   string             `bson:"message" json:"message"`
	Status    ContactStatus      `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Validate normalises c and checks required fields.
func (c *Contact) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Name == "" {
		return Invalid("name", "Please add a name")
	}
	if c.Email == "" {
		return Invalid("email", "Please add an email")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return Invalid("email", "Please add a valid email")
	}
	if strings.TrimSpace(c.Message) == "" {
		return Invalid("message", "Please add a message")
	}
	if c.Status == "" {
		c.Status = ContactNew
	}
	if !c.Status.Valid() {
		return Invalid("status", "%q is not a valid contact status", c.Status)
	}
	return nil
}
