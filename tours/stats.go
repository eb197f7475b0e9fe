package tours

import (
	"time"

	"github.com/aasimohyeah/natours"
)

// StatsPipeline groups well-rated tours by difficulty, cheapest group first.
func StatsPipeline() []natours.H {
	return []natours.H{
		{"$match": natours.H{"ratingsAverage": natours.H{"$gte": 4.5}}},
		{"$group": natours.H{
			"_id":        natours.H{"$toUpper": "$difficulty"},
			"numTours":   natours.H{"$sum": 1},
			"numRatings": natours.H{"$sum": "$ratingsQuantity"},
			"avgRating":  natours.H{"$avg": "$ratingsAverage"},
			"avgPrice":   natours.H{"$avg": "$price"},
			"minPrice":   natours.H{"$min": "$price"},
			"maxPrice":   natours.H{"$max": "$price"},
		}},
		{"$sort": natours.H{"avgPrice": 1}},
	}
}

// MonthlyPlanPipeline counts the tour starts of each month of year, busiest
// month first.
func MonthlyPlanPipeline(year int) []natours.H {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return []natours.H{
		{"$unwind": "$startDates"},
		{"$match": natours.H{"startDates": natours.H{"$gte": from, "$lte": to}}},
		{"$group": natours.H{
			"_id":           natours.H{"$month": "$startDates"},
			"numTourStarts": natours.H{"$sum": 1},
			"tours":         natours.H{"$push": "$name"},
		}},
		{"$addFields": natours.H{"month": "$_id"}},
		{"$project": natours.H{"_id": 0}},
		{"$sort": natours.H{"numTourStarts": -1}},
		{"$limit": 12},
	}
}
