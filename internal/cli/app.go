package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/pflag"

	"nestgrid/internal/config"
	"nestgrid/internal/gateway"
	"nestgrid/internal/grid"
	"nestgrid/internal/schema"
	"nestgrid/internal/state"
)

// App carries flags that are resolved before config loading.
type App struct {
	CfgFile string
	Demo    bool
}

// buildEngine resolves config, opens the configured gateway, loads persisted
// scoped state, and wires the engine. The returned cleanup closes any
// database handle; it is safe to call on a nil error path only.
func buildEngine(app *App, flags *pflag.FlagSet) (*grid.Engine, *config.Config, func(), error) {
	cfg, err := config.Load(app.CfgFile, flags)
	if err != nil {
		return nil, nil, nil, err
	}
	if app.Demo {
		cfg.Gateway.Kind = "demo"
	}

	cleanup := func() {}
	var (
		gw   gateway.Gateway
		hier schema.Hierarchy
		root string
	)

	switch cfg.Gateway.Kind {
	case "demo":
		db, driver, err := gateway.OpenSQL(gateway.SQLConfig{Driver: "sqlite", DSN: cfg.Gateway.DSN})
		if err != nil {
			return nil, nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := gateway.SeedDemo(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("seed demo data: %w", err)
		}
		hier = schema.Demo()
		gw = gateway.NewSQL(db, driver, hier)
		root = gateway.DemoRootID
		cleanup = func() { db.Close() }

	case "sql":
		hier, err = cfg.ToHierarchy()
		if err != nil {
			return nil, nil, nil, err
		}
		db, driver, err := gateway.OpenSQL(gateway.SQLConfig{Driver: cfg.Gateway.Driver, DSN: cfg.Gateway.DSN})
		if err != nil {
			return nil, nil, nil, err
		}
		gw = gateway.NewSQL(db, driver, hier)
		root = cfg.Record
		cleanup = func() { db.Close() }

	case "odata":
		hier, err = cfg.ToHierarchy()
		if err != nil {
			return nil, nil, nil, err
		}
		gw = gateway.NewOData(cfg.Gateway.BaseURL, &http.Client{Timeout: 30 * time.Second})
		root = cfg.Record

	default:
		return nil, nil, nil, fmt.Errorf("unknown gateway kind %q", cfg.Gateway.Kind)
	}

	st, err := state.Load(cfg.StatePath)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("load state: %w", err)
	}

	return grid.New(hier, gw, st, root), cfg, cleanup, nil
}
