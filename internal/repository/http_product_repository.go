package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/insecurazon/ins-webserver/internal/models"
)

// HTTPProductRepository reads the catalog from the upstream product service.
type HTTPProductRepository struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProductRepository creates a repository for the product service at baseURL.
// timeout bounds each request including reading the body.
func NewHTTPProductRepository(baseURL string, timeout time.Duration) *HTTPProductRepository {
	return &HTTPProductRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetAll returns GET {base}/products
func (r *HTTPProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.getJSON(ctx, "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetCategories returns GET {base}/products/categories
func (r *HTTPProductRepository) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.getJSON(ctx, "/products/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *HTTPProductRepository) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return nil
}
