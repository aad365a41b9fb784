package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/insecurazon/ins-webserver/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsColl   = "products"
	categoriesColl = "categories"
)

// MongoProductRepository reads the catalog straight from the product database,
// bypassing the product service.
type MongoProductRepository struct {
	client     *mongo.Client
	products   *mongo.Collection
	categories *mongo.Collection
}

// NewMongoProductRepository connects to uri. The driver connects lazily, so an
// unreachable server surfaces on the first read rather than here.
func NewMongoProductRepository(ctx context.Context, uri, database string, timeout time.Duration) (*MongoProductRepository, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	db := client.Database(database)
	return &MongoProductRepository{
		client:     client,
		products:   db.Collection(productsColl),
		categories: db.Collection(categoriesColl),
	}, nil
}

// Close disconnects from MongoDB
func (r *MongoProductRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// GetAll returns every document of the products collection ordered by id.
func (r *MongoProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := findAll(ctx, r.products, &products); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

// GetCategories returns every document of the categories collection ordered by id.
func (r *MongoProductRepository) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := findAll(ctx, r.categories, &categories); err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return categories, nil
}

func findAll(ctx context.Context, coll *mongo.Collection, out any) error {
	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, out)
}
