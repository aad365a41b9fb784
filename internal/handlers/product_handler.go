package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/insecurazon/ins-webserver/internal/models"
	"github.com/insecurazon/ins-webserver/internal/repository"
)

// catalog is the read side of the product service the handler depends on.
type catalog interface {
	LoadProducts(ctx context.Context) ([]models.Product, bool)
	LoadCategories(ctx context.Context) ([]models.Category, bool)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
}

// ProductHandler serves the read-only product API.
type ProductHandler struct {
	catalog catalog
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog catalog, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// Routes mounts the product API under every given prefix. "/categories" is a
// static segment, so chi matches it ahead of the "/{productId}" parameter.
func (h *ProductHandler) Routes(prefixes ...string) chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Not Found", h.logger)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", h.logger)
	})

	for _, prefix := range prefixes {
		r.Route(prefix, func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/categories", h.ListCategories)
			r.Get("/{productId}", h.GetProduct)
		})
	}
	return r
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, fallback := h.catalog.LoadProducts(r.Context())
	h.logger.Debug("serving products", "count", len(products), "fallback", fallback)

	WriteJSON(w, http.StatusOK, products, h.logger)
}

// ListCategories handles GET /products/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, fallback := h.catalog.LoadCategories(r.Context())
	h.logger.Debug("serving categories", "count", len(categories), "fallback", fallback)

	WriteJSON(w, http.StatusOK, categories, h.logger)
}

// GetProduct handles GET /products/{productId}
// - 200: the product
// - 400: productId is not a plain non-negative integer
// - 404: no product with that id
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	id, ok := parseID(productID)
	if !ok {
		h.logger.Warn("invalid product ID format", "productId", productID)
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.logger)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			h.logger.Info("product not found", "productId", id)
			WriteError(w, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id), h.logger)
			return
		}

		h.logger.Error("failed to get product", "productId", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, product, h.logger)
}

// parseID accepts decimal digits only, so signs like "+5" or "-1" are rejected
// before strconv sees them.
func parseID(s string) (int, bool) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, false
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return id, true
}
