package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/insecurazon/ins-webserver/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryProductRepository_CategoriesResolve(t *testing.T) {
	repo := NewInMemoryProductRepository()
	ctx := context.Background()

	products, err := repo.GetAll(ctx)
	require.NoError(t, err)
	categories, err := repo.GetCategories(ctx)
	require.NoError(t, err)

	require.NotEmpty(t, products)
	require.NotEmpty(t, categories)

	seen := make(map[int]bool)
	for _, p := range products {
		assert.False(t, seen[p.ID], "duplicate product id %d", p.ID)
		seen[p.ID] = true

		_, ok := models.CategoryName(categories, p.CategoryID)
		assert.True(t, ok, "product %d references missing category %d", p.ID, p.CategoryID)
		assert.GreaterOrEqual(t, p.Price, 0.0)
		assert.GreaterOrEqual(t, p.ReviewCount, 0)
		assert.True(t, p.Rating >= 0 && p.Rating <= 5, "product %d rating out of range", p.ID)
	}
}

func TestInMemoryProductRepository_ReturnsCopies(t *testing.T) {
	repo := NewInMemoryProductRepository()
	ctx := context.Background()

	first, _ := repo.GetAll(ctx)
	first[0].Name = "mutated"

	second, _ := repo.GetAll(ctx)
	assert.Equal(t, "Smartphone X", second[0].Name)
}

func TestHTTPProductRepository_GetAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":7,"name":"Kettle","price":20.5,"categoryId":3,"specifications":{"Volume":"1.7L"}}]`))
		case "/products/categories":
			_, _ = w.Write([]byte(`[{"id":3,"name":"Home & Garden"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	repo := NewHTTPProductRepository(srv.URL+"/", time.Second)

	products, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 7, products[0].ID)
	assert.Equal(t, "Kettle", products[0].Name)
	assert.Equal(t, "1.7L", products[0].Specifications["Volume"])

	categories, err := repo.GetCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Category{{ID: 3, Name: "Home & Garden"}}, categories)
}

func TestHTTPProductRepository_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  bool
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			status: true,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"not":"an array"`))
			},
		},
		{
			name: "slow upstream",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			repo := NewHTTPProductRepository(srv.URL, 100*time.Millisecond)
			_, err := repo.GetAll(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.status, errors.Is(err, ErrUnexpectedStatus))
		})
	}
}

func TestHTTPProductRepository_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	repo := NewHTTPProductRepository(url, time.Second)
	_, err := repo.GetCategories(context.Background())
	assert.Error(t, err)
}

func TestNewMongoProductRepository_InvalidURI(t *testing.T) {
	_, err := NewMongoProductRepository(context.Background(), "bogus://nowhere", "insecurazon", time.Second)
	assert.Error(t, err)
}
