package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Review    string             `bson:"review" json:"review" validate:"required,notblank"`
	Rating    int                `bson:"rating" json:"rating" validate:"required,min=1,max=5"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	Tour      primitive.ObjectID `bson:"tour" json:"tour" validate:"required"`
	User      primitive.ObjectID `bson:"user" json:"user" validate:"required"`
}

type ReviewDetails struct {
	*Review
	User *UserSummary `json:"user"`
}

type RatingStats struct {
	Average  float64
	Quantity int
}
