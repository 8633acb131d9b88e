package models

const PointType = "Point"

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates" validate:"len=2,dive,gte=-180,lte=180"`
}

func NewPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: PointType, Coordinates: []float64{lng, lat}}
}

func (p GeoPoint) Lng() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

func (p GeoPoint) Lat() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

type StartLocation struct {
	GeoPoint    `bson:",inline"`
	Address     string `bson:"address,omitempty" json:"address,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

type Location struct {
	GeoPoint    `bson:",inline"`
	Address     string `bson:"address,omitempty" json:"address,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Day         int    `bson:"day,omitempty" json:"day,omitempty"`
}
