// Package tours serves the tour resource of the API.
package tours

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aasimohyeah/natours/apifeatures"
)

// DefaultRatingsAverage is given to tours created without a rating.
const DefaultRatingsAverage = 4.5

type Tour struct {
	ID              string      `json:"_id,omitempty" bson:"_id,omitempty" gorm:"primaryKey;size:36"`
	Name            string      `json:"name" bson:"name" binding:"required" gorm:"uniqueIndex;size:255;not null"`
	Duration        float64     `json:"duration" bson:"duration" binding:"required"`
	MaxGroupSize    int         `json:"maxGroupSize" bson:"maxGroupSize" binding:"required"`
	Difficulty      string      `json:"difficulty" bson:"difficulty" binding:"required"`
	RatingsAverage  float64     `json:"ratingsAverage" bson:"ratingsAverage"`
	RatingsQuantity int         `json:"ratingsQuantity" bson:"ratingsQuantity"`
	Price           float64     `json:"price" bson:"price" binding:"required"`
	PriceDiscount   float64     `json:"priceDiscount,omitempty" bson:"priceDiscount,omitempty"`
	Summary         string      `json:"summary,omitempty" bson:"summary,omitempty"`
	Description     string      `json:"description" bson:"description" binding:"required"`
	ImageCover      string      `json:"imageCover" bson:"imageCover" binding:"required"`
	Images          []string    `json:"images" bson:"images" gorm:"serializer:json"`
	CreatedAt       time.Time   `json:"createdAt" bson:"createdAt"`
	StartDates      []time.Time `json:"startDates" bson:"startDates" gorm:"serializer:json"`
	V               int         `json:"__v" bson:"__v" gorm:"column:version"`
}

// Prepare trims text fields and fills in defaults before a tour is stored.
func (t *Tour) Prepare(now time.Time) {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	if t.RatingsAverage == 0 {
		t.RatingsAverage = DefaultRatingsAverage
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now.UTC()
	}
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
}

// BeforeCreate gives SQL rows a UUID primary key.
func (t *Tour) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Schema casts query-string filters on tours.
var Schema = apifeatures.Schema{
	"_id":             apifeatures.String,
	"name":            apifeatures.String,
	"duration":        apifeatures.Number,
	"maxGroupSize":    apifeatures.Number,
	"difficulty":      apifeatures.String,
	"ratingsAverage":  apifeatures.Number,
	"ratingsQuantity": apifeatures.Number,
	"price":           apifeatures.Number,
	"priceDiscount":   apifeatures.Number,
	"summary":         apifeatures.String,
	"description":     apifeatures.String,
	"imageCover":      apifeatures.String,
	"images":          apifeatures.StringList,
	"createdAt":       apifeatures.Date,
	"startDates":      apifeatures.DateList,
}

// ReadOnly fields cannot be changed by a PATCH.
var ReadOnly = []string{"_id", "createdAt", "__v"}
