package wardrobe

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is the clothing category an item is filed under.
type Category string

const (
	Tops        Category = "tops"
	Bottoms     Category = "bottoms"
	Shoes       Category = "shoes"
	Outerwear   Category = "outerwear"
	Dresses     Category = "dresses"
	Accessories Category = "accessories"
	Other       Category = "other"
)

// Categories lists every category in canonical order. Anything serialized
// per category (prompts, listings) iterates in this order.
var Categories = []Category{Tops, Bottoms, Shoes, Outerwear, Dresses, Accessories, Other}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory normalizes a user or model supplied category name.
// Unknown names map to Other. The styler page label "dresses/jumpsuits"
// is accepted as Dresses.
func ParseCategory(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "dresses/jumpsuits" {
		return Dresses
	}
	c := Category(s)
	if c.Valid() {
		return c
	}
	return Other
}

// Item is one product the user saved to their closet.
type Item struct {
	ID                  string    `json:"id" validate:"required"`
	Title               string    `json:"title,omitempty" validate:"max=500"`
	Brand               string    `json:"brand,omitempty"`
	Description         string    `json:"description,omitempty"`
	DetailedDescription string    `json:"detailedDescription,omitempty"`
	Price               string    `json:"price,omitempty"`
	OriginalPrice       string    `json:"originalPrice,omitempty"`
	Color               string    `json:"color,omitempty"`
	Material            string    `json:"material,omitempty"`
	Category            Category  `json:"category" validate:"required,category"`
	ImageURL            string    `json:"imageUrl"`
	SourceURL           string    `json:"sourceUrl"`
	AddedAt             time.Time `json:"addedAt"`
}

// SameAs reports whether two records describe the same product, which is
// the case when both the source page and the image match. Items with
// neither URL are never the same as anything.
func (i Item) SameAs(other Item) bool {
	if i.SourceURL == "" && i.ImageURL == "" {
		return false
	}
	return i.SourceURL == other.SourceURL && i.ImageURL == other.ImageURL
}

// NewID returns a fresh item identifier.
func NewID() string {
	return uuid.NewString()
}
