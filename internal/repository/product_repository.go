package repository

import (
	"context"
	"errors"
	"slices"

	"github.com/insecurazon/ins-webserver/internal/models"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
}

// InMemoryProductRepository implements ProductRepository with a fixed built-in
// catalog. It is the fallback when the configured upstream cannot be read.
// Every product's CategoryID resolves to one of its categories.
type InMemoryProductRepository struct {
	products   []models.Product
	categories []models.Category
}

// NewInMemoryProductRepository creates a new in-memory product repository with seed data
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products:   seedProducts(),
		categories: seedCategories(),
	}
}

// GetAll returns all products in catalog order.
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	return slices.Clone(r.products), nil
}

// GetCategories returns all categories in catalog order.
func (r *InMemoryProductRepository) GetCategories(ctx context.Context) ([]models.Category, error) {
	return slices.Clone(r.categories), nil
}

func seedCategories() []models.Category {
	return []models.Category{
		{ID: 1, Name: "Electronics"},
		{ID: 2, Name: "Clothing"},
		{ID: 3, Name: "Home & Garden"},
		{ID: 4, Name: "Books"},
		{ID: 5, Name: "Toys"},
	}
}

func seedProducts() []models.Product {
	return []models.Product{
		{
			ID:              1,
			Name:            "Smartphone X",
			Featured:        true,
			Price:           799.99,
			Image:           "https://via.placeholder.com/300?text=Smartphone+X",
			Description:     "The latest smartphone with amazing features and long battery life.",
			CategoryID:      1,
			FullDescription: "Experience the future of mobile technology with the Smartphone X. Featuring a stunning 6.5-inch OLED display, powerful octa-core processor, and advanced camera system, this smartphone delivers exceptional performance in a sleek design. With all-day battery life and fast charging capabilities, you can stay connected without interruption.",
			Rating:          4.5,
			ReviewCount:     127,
			Specifications: models.Specifications{
				"Display":   "6.5-inch OLED",
				"Processor": "Octa-core 2.8GHz",
				"RAM":       "8GB",
				"Storage":   "128GB",
				"Camera":    "12MP + 16MP dual rear, 8MP front",
				"Battery":   "4500mAh",
				"OS":        "Android 12",
			},
			Reviews: []models.Review{
				{UserName: "John D.", Rating: 5, Comment: "Best phone I've ever owned. The battery life is incredible!"},
				{UserName: "Sarah M.", Rating: 4, Comment: "Great phone, but a bit expensive."},
				{UserName: "Michael K.", Rating: 4.5, Comment: "Excellent camera quality and fast performance."},
			},
		},
		{
			ID:              2,
			Name:            "Wireless Headphones",
			Featured:        true,
			Price:           149.99,
			Image:           "https://via.placeholder.com/300?text=Wireless+Headphones",
			Description:     "Premium wireless headphones with noise cancellation.",
			CategoryID:      1,
			FullDescription: "Immerse yourself in superior sound quality with these premium wireless headphones. Featuring advanced noise cancellation technology, these headphones block out ambient noise so you can focus on your music. With cushioned ear cups and an adjustable headband, they provide exceptional comfort for extended listening sessions.",
			Rating:          4.7,
			ReviewCount:     89,
			Specifications: models.Specifications{
				"Type":               "Over-ear",
				"Connectivity":       "Bluetooth 5.0",
				"Battery Life":       "Up to 30 hours",
				"Noise Cancellation": "Active",
				"Charging":           "USB-C",
				"Weight":             "250g",
			},
			Reviews: []models.Review{
				{UserName: "Emily R.", Rating: 5, Comment: "The noise cancellation is amazing! Perfect for travel."},
				{UserName: "David T.", Rating: 4.5, Comment: "Great sound quality and comfortable to wear."},
			},
		},
		{
			ID:              3,
			Name:            "Smart Watch",
			Featured:        true,
			Price:           249.99,
			Image:           "https://via.placeholder.com/300?text=Smart+Watch",
			Description:     "Track your fitness and stay connected with this smart watch.",
			CategoryID:      1,
			FullDescription: "Stay connected and monitor your health with this feature-packed smart watch. Track your steps, heart rate, sleep quality, and more with accurate sensors. Receive notifications, answer calls, and control your music right from your wrist. With a water-resistant design and long battery life, this smart watch is perfect for an active lifestyle.",
			Rating:          4.2,
			ReviewCount:     64,
			Specifications: models.Specifications{
				"Display":          "1.4-inch AMOLED",
				"Sensors":          "Heart rate, accelerometer, GPS",
				"Battery Life":     "Up to 7 days",
				"Water Resistance": "5 ATM",
				"Connectivity":     "Bluetooth, Wi-Fi",
				"Compatibility":    "Android, iOS",
			},
			Reviews: []models.Review{
				{UserName: "Robert J.", Rating: 4, Comment: "Great fitness tracking features but battery life could be better."},
				{UserName: "Lisa M.", Rating: 5, Comment: "Love how it tracks my workouts and sleep!"},
			},
		},
		{
			ID:              4,
			Name:            "Designer T-shirt",
			Price:           39.99,
			Image:           "https://via.placeholder.com/300?text=Designer+T-shirt",
			Description:     "Comfortable cotton t-shirt with modern design.",
			CategoryID:      2,
			FullDescription: "A very comfortable cotton t-shirt with a modern design, perfect for casual wear.",
			Rating:          4.0,
			ReviewCount:     25,
			Specifications: models.Specifications{
				"Material": "100% Cotton",
				"Fit":      "Regular",
			},
		},
		{
			ID:              5,
			Name:            "Jeans",
			Price:           59.99,
			Image:           "https://via.placeholder.com/300?text=Jeans",
			Description:     "Classic jeans with perfect fit and durability.",
			CategoryID:      2,
			FullDescription: "Classic denim jeans that offer both style and durability. A wardrobe essential.",
			Rating:          4.3,
			ReviewCount:     40,
			Specifications: models.Specifications{
				"Material": "Denim",
				"Fit":      "Straight Leg",
			},
		},
		{
			ID:              6,
			Name:            "Coffee Maker",
			Price:           99.99,
			Image:           "https://via.placeholder.com/300?text=Coffee+Maker",
			Description:     "Brew the perfect cup of coffee every morning.",
			CategoryID:      3,
			FullDescription: "Start your day right with this easy-to-use coffee maker. Brews a perfect cup every time.",
			Rating:          4.6,
			ReviewCount:     70,
			Specifications: models.Specifications{
				"Capacity": "12 Cups",
				"Features": "Programmable Timer, Auto Shut-off",
			},
		},
	}
}
