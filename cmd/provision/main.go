// Command provision creates a login profile for the results dashboard.
//
//	provision -email registrar@school.edu -password '...' -role admin
//	provision -email jane@school.edu -password '...' -roll-no S100
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/results/internal/admin"
	"github.com/JonMunkholm/results/internal/config"
	"github.com/JonMunkholm/results/internal/database"
	"github.com/JonMunkholm/results/internal/logging"
)

func main() {
	var acct admin.Account
	flag.StringVar(&acct.Email, "email", "", "login email (required)")
	flag.StringVar(&acct.Password, "password", os.Getenv("PROVISION_PASSWORD"), "password, at least 8 characters (default $PROVISION_PASSWORD)")
	flag.StringVar(&acct.Name, "name", "", "display name")
	flag.StringVar(&acct.Role, "role", "student", "student or admin")
	flag.StringVar(&acct.RollNo, "roll-no", "", "roll number linking a student login to its results")
	flag.Parse()

	if acct.Email == "" || acct.Password == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(acct); err != nil {
		if errors.Is(err, admin.ErrProfileExists) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(3)
		}
		slog.Error("provision failed", "error", err)
		os.Exit(1)
	}
}

func run(acct admin.Account) error {
	_ = godotenv.Load()

	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), admin.ProvisionTimeout)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	id, err := admin.Provision(ctx, database.New(pool), acct)
	if err != nil {
		return err
	}
	acct = acct.Normalize()
	slog.Info("profile created", "id", id, "email", acct.Email, "role", acct.Role)
	return nil
}
