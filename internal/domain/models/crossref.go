// internal/domain/models/crossref.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserMessage is a bulletin delivered to one account. UserID references an
// accounts document key; after an identity-key migration every message must
// be rewritten to the new key.
type UserMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"userId"`
	Subject   string             `bson:"subject" json:"subject"`
	Body      string             `bson:"body" json:"body"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// UserAlert is a short-lived notification for one account. Same keying and
// migration rules as UserMessage.
type UserAlert struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"userId"`
	Kind      string             `bson:"kind" json:"kind"`
	Text      string             `bson:"text" json:"text"`
	Dismissed bool               `bson:"dismissed" json:"dismissed"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
