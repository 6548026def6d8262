package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"fourneau/internal/config"
	"fourneau/internal/db"
	"fourneau/internal/dbctx"
	applog "fourneau/internal/log"
	"fourneau/internal/recalc"
	"fourneau/models"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "recalculation failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return err
	}

	database, err := db.Configure(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	total, err := recalculateAll(ctx, database, cfg.Engine.RecalcWorkers)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Recalculated %d goods and %d recipes\n", total.Goods, total.Recipes)
	return nil
}

// recalculateAll rebuilds the cached costs of every tenant, at most workers
// tenants at a time. Each tenant runs in its own transaction; the first
// failure cancels the tenants not yet started.
func recalculateAll(ctx context.Context, database *gorm.DB, workers int) (recalc.Result, error) {
	var tenantIDs []uint
	if err := database.WithContext(ctx).Model(&models.Tenant{}).Order("id asc").Pluck("id", &tenantIDs).Error; err != nil {
		return recalc.Result{}, fmt.Errorf("list tenants: %w", err)
	}

	dispatcher := recalc.NewDispatcher(database)

	var (
		mu    sync.Mutex
		total recalc.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for _, tenantID := range tenantIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := dispatcher.RecalculateTenant(dbctx.New(gctx), tenantID)
			if err != nil {
				return fmt.Errorf("tenant %d: %w", tenantID, err)
			}
			applog.Info(gctx, "tenant recalculated", "tenant_id", tenantID, "goods", result.Goods, "recipes", result.Recipes)

			mu.Lock()
			total.Goods += result.Goods
			total.Recipes += result.Recipes
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return recalc.Result{}, err
	}
	return total, nil
}
