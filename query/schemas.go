package query

var TourSchema = Schema{
	"_id":             ObjectID,
	"duration":        Number,
	"maxGroupSize":    Number,
	"ratingsAverage":  Number,
	"ratingsQuantity": Number,
	"price":           Number,
	"priceDiscount":   Number,
	"createdAt":       Date,
	"startDates":      Date,
	"guides":          ObjectID,
}

var UserSchema = Schema{
	"_id": ObjectID,
}

var ReviewSchema = Schema{
	"_id":       ObjectID,
	"rating":    Number,
	"createdAt": Date,
	"tour":      ObjectID,
	"user":      ObjectID,
}
