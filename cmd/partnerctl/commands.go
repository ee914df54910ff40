// cmd/partnerctl/commands.go
package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/partnerlink/partnerlink-backend/internal/config"
	"github.com/partnerlink/partnerlink-backend/internal/database"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *gorm.DB, _ *config.Config) error {
			if err := database.RunMigrations(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo accounts and products",
	Long: `Insert the demo admin, vendor and partner accounts plus a small
active catalog. Existing rows are left alone, so seeding twice is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *gorm.DB, _ *config.Config) error {
			if err := database.RunMigrations(db); err != nil {
				return err
			}
			if err := database.SeedInitialData(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed data inserted")
			return nil
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token [admin|vendor|partner|<account-id>]",
	Short: "Mint a development access token",
	Long: `Mint a bearer token signed with JWT_SECRET for local development.
The argument is one of the seeded roles or the id of an existing account.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *gorm.DB, cfg *config.Config) error {
			id, err := resolveAccountID(args[0])
			if err != nil {
				return err
			}

			var account models.Account
			if err := db.First(&account, "id = ?", id).Error; err != nil {
				return fmt.Errorf("account %s: %w", id, err)
			}

			ttl, _ := cmd.Flags().GetInt("ttl")
			if ttl <= 0 {
				ttl = cfg.JWT.AccessTokenTTL
			}

			utils.SetJWTSecret(cfg.JWT.SecretKey)
			utils.SetJWTIssuer(cfg.JWT.Issuer)
			token, err := utils.GenerateJWT(account.ID, account.Email, account.DisplayName, string(account.AccountType), ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		})
	},
}

func init() {
	tokenCmd.Flags().Int("ttl", 0, "token lifetime in hours (defaults to JWT_ACCESS_TTL)")
}

func resolveAccountID(arg string) (uuid.UUID, error) {
	switch arg {
	case "admin":
		return database.SeedAdminID, nil
	case "vendor":
		return database.SeedVendorID, nil
	case "partner":
		return database.SeedPartnerID, nil
	}
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("expected admin, vendor, partner or an account id, got %q", arg)
	}
	return id, nil
}

func withDatabase(fn func(*gorm.DB, *config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close(db)

	return fn(db, cfg)
}
