package models

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TourDifficulty string

const (
	Easy      TourDifficulty = "easy"
	Medium    TourDifficulty = "medium"
	Difficult TourDifficulty = "difficult"
)

const (
	DefaultRatingsAverage = 4.5
)

type Tour struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name            string               `bson:"name" json:"name" validate:"required,min=4,max=40"`
	Slug            string               `bson:"slug,omitempty" json:"slug,omitempty"`
	Duration        int                  `bson:"duration" json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int                  `bson:"maxGroupSize" json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      TourDifficulty       `bson:"difficulty" json:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64              `bson:"ratingsAverage" json:"ratingsAverage" validate:"gte=1,lte=5"`
	RatingsQuantity int                  `bson:"ratingsQuantity" json:"ratingsQuantity" validate:"gte=0"`
	Price           float64              `bson:"price" json:"price" validate:"gte=0"`
	PriceDiscount   *float64             `bson:"priceDiscount,omitempty" json:"priceDiscount,omitempty"`
	Summary         string               `bson:"summary" json:"summary" validate:"required"`
	Description     string               `bson:"description,omitempty" json:"description,omitempty"`
	ImageCover      string               `bson:"imageCover" json:"imageCover" validate:"required"`
	Images          []string             `bson:"images" json:"images"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	StartDates      []time.Time          `bson:"startDates" json:"startDates"`
	StartLocation   StartLocation        `bson:"startLocation" json:"startLocation" validate:"required"`
	Locations       []Location           `bson:"locations" json:"locations" validate:"dive"`
	Guides          []primitive.ObjectID `bson:"guides" json:"guides"`
}

// TourDetails is the response shape of a tour with its guides and, for
// single-tour reads, its reviews expanded.
type TourDetails struct {
	*Tour
	Guides  []UserSummary   `json:"guides"`
	Reviews []ReviewDetails `json:"reviews,omitempty"`
}

type TourStats struct {
	Difficulty string  `bson:"_id" json:"_id"`
	NumTours   int     `bson:"numTours" json:"numTours"`
	NumRatings int     `bson:"numRatings" json:"numRatings"`
	AvgRating  float64 `bson:"avgRating" json:"avgRating"`
	AvgPrice   float64 `bson:"avgPrice" json:"avgPrice"`
	MinPrice   float64 `bson:"minPrice" json:"minPrice"`
	MaxPrice   float64 `bson:"maxPrice" json:"maxPrice"`
}

type TourDistance struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Name     string             `bson:"name" json:"name"`
	Distance float64            `bson:"distance" json:"distance"`
}

// ApplyDefaults fills the values a new tour gets when the client omits them.
func (t *Tour) ApplyDefaults(now time.Time) {
	if t.RatingsAverage == 0 {
		t.RatingsAverage = DefaultRatingsAverage
	}
	if t.StartLocation.Type == "" {
		t.StartLocation.Type = PointType
	}
	for i := range t.Locations {
		if t.Locations[i].Type == "" {
			t.Locations[i].Type = PointType
		}
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
	if t.Locations == nil {
		t.Locations = []Location{}
	}
	if t.Guides == nil {
		t.Guides = []primitive.ObjectID{}
	}
	t.Slug = Slugify(t.Name)
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
