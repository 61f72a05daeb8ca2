package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/ferreirogomes/tijolo/config"
	"github.com/ferreirogomes/tijolo/logging"
	"github.com/ferreirogomes/tijolo/storage"

	"github.com/google/subcommands"
	migrate "github.com/rubenv/sql-migrate"
)

type migrateCmd struct {
	down bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "aplica ou desfaz as migrações do espelho PostgreSQL" }
func (*migrateCmd) Usage() string {
	return `tijolo [-config <arquivo>] migrate [-down]

  Aplica as migrações de database.migrations_dir em database.url.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.down, "down", false, "Desfaz as migrações em vez de aplicá-las")
}

func (c *migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("%v", err)
		return subcommands.ExitUsageError
	}
	logging.SetLevel(cfg.LogLevel)
	if !cfg.MirrorEnabled() {
		logging.Error("database.url não configurado")
		return subcommands.ExitUsageError
	}

	// NewDB já aplica as migrações pendentes
	db, err := storage.NewDB(cfg.DatabaseURL, cfg.MigrationsDir)
	if err != nil {
		logging.Error("%v", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	if c.down {
		n, err := db.Migrate(cfg.MigrationsDir, migrate.Down)
		if err != nil {
			logging.Error("%v", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("%d migrações desfeitas\n", n)
	}
	return subcommands.ExitSuccess
}
