package models

// Review is a customer review attached to a single product.
type Review struct {
	UserName string  `json:"userName" bson:"userName"`
	Rating   float64 `json:"rating" bson:"rating"`
	Comment  string  `json:"comment" bson:"comment"`
}

// Specifications maps a specification name to its value. Order is not significant.
type Specifications map[string]string

// Product represents a storefront product.
// Schema matches the upstream product service's JSON and document shape.
type Product struct {
	ID              int            `json:"id" bson:"id"`
	Name            string         `json:"name" bson:"name"`
	Price           float64        `json:"price" bson:"price"`
	Image           string         `json:"image" bson:"image"`
	Description     string         `json:"description" bson:"description"`
	CategoryID      int            `json:"categoryId" bson:"categoryId"`
	Featured        bool           `json:"featured,omitempty" bson:"featured,omitempty"`
	FullDescription string         `json:"fullDescription,omitempty" bson:"fullDescription,omitempty"`
	Rating          float64        `json:"rating,omitempty" bson:"rating,omitempty"`
	ReviewCount     int            `json:"reviewCount,omitempty" bson:"reviewCount,omitempty"`
	Specifications  Specifications `json:"specifications,omitempty" bson:"specifications,omitempty"`
	Reviews         []Review       `json:"reviews,omitempty" bson:"reviews,omitempty"`
}

// Category groups products. Products reference it by ID; a reference to a
// missing category is allowed and means "unknown category".
type Category struct {
	ID   int    `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// CategoryName resolves id against categories, returning ok=false when no
// category has that id.
func CategoryName(categories []Category, id int) (string, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}
