package observation

import "time"

// Category is the fixed observation taxonomy.
type Category string

const (
	CategoryBird      Category = "Bird"
	CategoryMammal    Category = "Mammal"
	CategoryReptile   Category = "Reptile"
	CategoryInsect    Category = "Insect"
	CategoryPlant     Category = "Plant"
	CategoryFish      Category = "Fish"
	CategoryAmphibian Category = "Amphibian"
	CategoryOther     Category = "Other"
)

var validCategories = map[Category]bool{
	CategoryBird:      true,
	CategoryMammal:    true,
	CategoryReptile:   true,
	CategoryInsect:    true,
	CategoryPlant:     true,
	CategoryFish:      true,
	CategoryAmphibian: true,
	CategoryOther:     true,
}

// ValidCategory reports whether c is part of the taxonomy.
func ValidCategory(c Category) bool { return validCategories[c] }

// Observation is a single georeferenced, categorized data point. Immutable
// once created except for the Verified flag.
type Observation struct {
	ID              string    `json:"id"`
	Category        Category  `json:"category"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	AILabel         string    `json:"aiLabel,omitempty"`
	ConfidenceScore *float64  `json:"confidenceScore,omitempty"`
	UserName        string    `json:"userName"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	Verified        bool      `json:"verified"`
}

// Draft is the validated-at-the-boundary submission shape. Coordinates are
// pointers so that "absent" and "zero" stay distinguishable.
type Draft struct {
	Category        string   `json:"category"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	ImageURL        string   `json:"imageUrl"`
	AILabel         string   `json:"aiLabel"`
	ConfidenceScore *float64 `json:"confidenceScore"`
	UserName        string   `json:"userName"`
	Notes           string   `json:"notes"`
}
