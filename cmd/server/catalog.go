package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/insecurazon/ins-webserver/internal/config"
	"github.com/insecurazon/ins-webserver/internal/models"
	"github.com/insecurazon/ins-webserver/internal/repository"
	"github.com/insecurazon/ins-webserver/internal/service"
	"github.com/insecurazon/ins-webserver/pkg/logger"
)

var warningColor = color.New(color.FgYellow, color.Bold)

func newCatalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Resolve the product catalog once and print it",
		Long: `catalog loads products and categories through the same path the server
uses, including the fallback to the built-in catalog, and prints them as a table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			log := logger.New(cfg.LogLevel)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			primary, closeSource, err := openProductSource(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeSource()

			svc := service.NewProductService(primary, repository.NewInMemoryProductRepository(), cfg.Products.Timeout, log)
			return printCatalog(ctx, cmd.OutOrStdout(), svc)
		},
	}
}

// printCatalog renders every product with its category name. Products whose
// category is missing from the category set show as "unknown".
func printCatalog(ctx context.Context, out io.Writer, svc *service.ProductService) error {
	state := svc.Warm(ctx)
	products, _ := svc.LoadProducts(ctx)
	categories, _ := svc.LoadCategories(ctx)

	if state.UsingFallback {
		warningColor.Fprintf(out, "⚠ product service unavailable, showing built-in catalog (products: %s, categories: %s)\n",
			state.Products, state.Categories)
	}

	table := tablewriter.NewWriter(out)
	table.Header("ID", "Name", "Price", "Category", "Featured")

	for _, p := range products {
		category, ok := models.CategoryName(categories, p.CategoryID)
		if !ok {
			category = "unknown"
		}

		featured := ""
		if p.Featured {
			featured = "yes"
		}

		if err := table.Append([]string{
			strconv.Itoa(p.ID),
			p.Name,
			fmt.Sprintf("%.2f", p.Price),
			category,
			featured,
		}); err != nil {
			return fmt.Errorf("failed to add catalog row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render catalog: %w", err)
	}

	fmt.Fprintf(out, "%d products, %d categories\n", len(products), len(categories))
	return nil
}
