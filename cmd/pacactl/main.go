// pacactl is the admin CLI for the PacaPrints dashboard: schema
// migrations, demo data seeding and a quick tax-year report without
// opening the web UI.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pacaprints/internal/config"
	"pacaprints/internal/core"
	"pacaprints/internal/finance"
	applog "pacaprints/internal/log"
	"pacaprints/internal/services"
	"pacaprints/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:           "pacactl",
	Short:         "Admin tooling for the PacaPrints operations dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
			return err
		}
		fmt.Printf("Database at %s is up to date\n", cfg.SQLiteDBPath)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert a small demo dataset into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		repo, err := storage.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			return err
		}
		defer repo.Close()
		return seed(cmd.Context(), repo)
	},
}

var taxyearCmd = &cobra.Command{
	Use:   "taxyear [start-year]",
	Short: "Print the tax-year range and aggregated figures",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year := finance.CurrentTaxYear(time.Now().UTC()).StartYear
		if len(args) == 1 {
			y, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid start year %q", args[0])
			}
			year = y
		}

		cfg := config.Load()
		repo, err := storage.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			return err
		}
		defer repo.Close()

		svc := services.NewFinanceService(repo)
		ov, err := svc.Overview(cmd.Context(), year)
		if err != nil {
			return err
		}

		from, to := ov.Year.Range()
		fmt.Printf("Tax year %s: %s to %s (exclusive)\n",
			ov.Year.Label(), from.Format("2006-01-02"), to.Format("2006-01-02"))
		fmt.Printf("  Gross revenue   £%.2f\n", ov.Figures.GrossRevenue)
		fmt.Printf("  Platform fees   £%.2f\n", ov.Figures.PlatformFees)
		fmt.Printf("  Expenses        £%.2f\n", ov.Figures.ExpensesTotal)
		fmt.Printf("  Mileage         %.1f miles (claim £%.2f)\n", ov.Figures.TotalMiles, ov.Figures.MileageClaim)
		fmt.Printf("  Profit          £%.2f\n", ov.Figures.Profit)
		fmt.Printf("  Per owner       £%.2f\n", ov.Figures.PerOwner)
		fmt.Printf("  Est. tax each   £%.2f\n", ov.Figures.EstTaxEach)
		fmt.Printf("  Est. tax total  £%.2f\n", ov.Figures.EstTaxTotal)
		return nil
	},
}

func seed(ctx context.Context, repo *storage.Repository) error {
	today := core.Date{Time: time.Now().UTC().Truncate(24 * time.Hour)}

	filamentID, err := repo.CreateStockItem(ctx, core.StockItem{Name: "PLA filament, oat", Unit: "g", ReorderLevel: 500})
	if err != nil {
		return fmt.Errorf("seed stock item: %w", err)
	}
	boxID, err := repo.CreateStockItem(ctx, core.StockItem{Name: "Mailer box, small", Unit: "pcs", ReorderLevel: 20})
	if err != nil {
		return fmt.Errorf("seed stock item: %w", err)
	}

	if _, err := repo.AddStockBatch(ctx, core.StockBatch{ItemID: filamentID, ReceivedOn: today, Quantity: 2000, UnitCost: core.Money{Pence: 2}}); err != nil {
		return fmt.Errorf("seed stock batch: %w", err)
	}
	if _, err := repo.AddStockBatch(ctx, core.StockBatch{ItemID: boxID, ReceivedOn: today, Quantity: 100, UnitCost: core.Money{Pence: 35}}); err != nil {
		return fmt.Errorf("seed stock batch: %w", err)
	}

	productID, err := repo.CreateProduct(ctx, core.Product{SKU: "ALP-KEY-01", Name: "Alpaca keyring"})
	if err != nil {
		return fmt.Errorf("seed product: %w", err)
	}
	for _, line := range []core.RecipeLine{
		{ProductID: productID, ItemID: filamentID, Quantity: 25},
		{ProductID: productID, ItemID: boxID, Quantity: 1},
	} {
		if err := repo.UpsertRecipeLine(ctx, line); err != nil {
			return fmt.Errorf("seed recipe line: %w", err)
		}
	}

	if _, err := repo.CreateOrder(ctx, core.Order{
		PlacedOn:  today,
		Platform:  "etsy",
		Reference: "ETSY-1001",
		ProductID: productID,
		Quantity:  2,
		Gross:     core.Money{Pence: 1800},
		Fees:      core.Money{Pence: 220},
		Payout:    core.Money{Pence: 1580},
	}); err != nil {
		return fmt.Errorf("seed order: %w", err)
	}

	if _, err := repo.CreateExpense(ctx, core.Expense{
		SpentOn:     today,
		Description: "Etsy listing fees",
		Amount:      core.Money{Pence: 160},
		Category:    "Fees",
		Vendor:      "Etsy",
		Source:      core.SourceBusiness,
	}); err != nil {
		return fmt.Errorf("seed expense: %w", err)
	}

	if _, err := repo.CreateMileageLog(ctx, core.MileageLog{
		TraveledOn:    today,
		Person:        "Sam",
		Miles:         14.6,
		StartLocation: "Workshop",
		EndLocation:   "Post office",
	}); err != nil {
		return fmt.Errorf("seed mileage log: %w", err)
	}

	fmt.Println("Seeded demo data: 2 stock items, 1 product with recipe, 1 order, 1 expense, 1 mileage log")
	return nil
}

func main() {
	_ = godotenv.Load()
	applog.Setup(applog.ParseLevel(os.Getenv("LOG_LEVEL")), "pacactl")

	rootCmd.AddCommand(migrateCmd, seedCmd, taxyearCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
