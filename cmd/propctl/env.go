package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"propertyhub/internal/engine/organizations"
	"propertyhub/internal/pkg/logger"
	"propertyhub/internal/platform/auth"
	"propertyhub/internal/platform/config"
	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/models"
	"propertyhub/internal/platform/repositories"
)

// env holds the connections a command needs. close releases them.
type env struct {
	cfg      *config.Config
	globalDB *sql.DB
	pool     *database.TenantDBPool
	orgs     *organizations.Service
	orgRepo  *repositories.OrganizationRepository
}

func openEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Logging)

	globalDB, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		return nil, fmt.Errorf("connect to global DB: %w", err)
	}
	pool := database.NewTenantDBPool(cfg.Database.Tenant)

	return &env{
		cfg:      cfg,
		globalDB: globalDB,
		pool:     pool,
		orgs:     organizations.NewService(globalDB, pool, auth.NewTokenService(cfg.JWT), cfg.Billing),
		orgRepo:  repositories.NewOrganizationRepository(globalDB),
	}, nil
}

func (e *env) close() {
	e.pool.CloseAll()
	e.globalDB.Close()
}

// findOrg accepts either an organization ID or its slug.
func (e *env) findOrg(ctx context.Context, ref string) (*models.Organization, error) {
	org, err := e.orgRepo.GetByID(ctx, ref)
	if err != nil {
		return nil, err
	}
	if org == nil {
		org, err = e.orgRepo.GetBySlug(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	if org == nil {
		return nil, fmt.Errorf("organization %q not found", ref)
	}
	return org, nil
}
