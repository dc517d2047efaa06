// Package commands implements the planner-admin subcommands. Every
// command opens the database itself from the regular configuration, so
// the tool runs against whatever the server runs against.
package commands

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/nicunursekatie/adhd-planner/internal/config"
	"github.com/nicunursekatie/adhd-planner/internal/gateway"
	"github.com/nicunursekatie/adhd-planner/internal/store"
)

// openGateway connects to the configured database. The returned closer
// logs to stderr on failure since commands run outside the zap setup.
func openGateway() (*gateway.Gateway, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	driver, dsn := cfg.DSN()
	gw, closeGateway, err := gateway.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	cleanup := func() {
		if err := closeGateway(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return gw, cleanup, nil
}

// resolveOwners expands the --owner/--all flag pair into concrete ids.
func resolveOwners(ctx context.Context, gw *gateway.Gateway, owner string, all bool) ([]string, error) {
	if owner != "" {
		return []string{owner}, nil
	}
	if !all {
		return nil, fmt.Errorf("either --owner or --all is required")
	}
	if gw.Owners == nil {
		return nil, fmt.Errorf("this backend cannot enumerate owners")
	}
	owners, err := gw.Owners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	return owners, nil
}

// session loads one owner's store without the server's session cache.
func session(ctx context.Context, gw *gateway.Gateway, ownerID string) (*store.Store, error) {
	st := store.New(gw, ownerID, zap.NewNop())
	if err := st.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load session for %s: %w", ownerID, err)
	}
	return st, nil
}
