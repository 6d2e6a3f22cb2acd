package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant represents a room participant document in MongoDB.
// LastStatus is the epoch-millis timestamp of the last heartbeat (or the
// join time); the sweeper compares it against the presence deadline.
type Participant struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	LastStatus int64              `json:"lastStatus" bson:"lastStatus"`
}
