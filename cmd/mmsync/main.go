package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/despuyt/mmsync/pkg/mattermost"
)

func main() {
	// A .env next to the binary is optional.
	_ = godotenv.Load()

	if rootCmd.ExecuteContext(context.Background()) != nil {
		os.Exit(1)
	}
}

// runMode resolves the dry-run and execute flags against the config
// wet-run gate. A wet run needs both an explicit flag and
// import.enable_wet_run.
func runMode(dryRun, execute bool) (bool, error) {
	dry := dryRun && !execute
	if !dry && !cfg.Import.EnableWetRun {
		return false, errors.New("wet runs are disabled: set import.enable_wet_run to apply changes")
	}
	if dry {
		logger.Info("dry run: no changes will be made")
	}
	return dry, nil
}

// newClient builds an authenticated API client from the loaded config.
// A personal access token wins over username/password login.
func newClient(ctx context.Context) (*mattermost.Client, error) {
	if cfg.Server.URL == "" {
		return nil, errors.New("no server URL configured")
	}

	if cfg.HasToken() {
		return mattermost.NewClient(cfg.Server.URL, cfg.Server.Token, logger), nil
	}
	if cfg.HasCredentials() {
		client, err := mattermost.Login(ctx, cfg.Server.URL, cfg.Server.AdminUser, cfg.Server.AdminPass, logger)
		if err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		return client, nil
	}

	return nil, errors.New("no server token or admin credentials configured")
}
