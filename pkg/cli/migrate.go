package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/repository/firestore"
	"github.com/secmon-lab/briareos/pkg/repository/postgres"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
	"github.com/secmon-lab/briareos/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Prepare the storage backend",
		Commands: []*cli.Command{
			cmdMigrateFirestore(),
			cmdMigratePostgres(),
		},
	}
}

func cmdMigrateFirestore() *cli.Command {
	var projectID string
	var databaseID string
	var dryRun bool

	return &cli.Command{
		Name:  "firestore",
		Usage: "Migrate Firestore composite indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("BRIAREOS_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Value:       "(default)",
				Sources:     cli.EnvVars("BRIAREOS_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"dryRun", dryRun)

			if err := getIndexConfig().Validate(); err != nil {
				return goerr.Wrap(err, "invalid index configuration")
			}

			client, err := fireconf.New(ctx, projectID, databaseID, getIndexConfig(),
				fireconf.WithLogger(logger),
				fireconf.WithDryRun(dryRun),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer safe.Close(ctx, client, "fireconf client")

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
			} else {
				logger.Info("Applying migrations")
			}
			if err := client.Migrate(ctx); err != nil {
				return goerr.Wrap(err, "failed to apply migrations",
					goerr.V("project_id", projectID),
					goerr.V("database_id", databaseID))
			}
			if dryRun {
				return nil
			}
			logger.Info("Migrations applied successfully")
			return nil
		},
	}
}

func cmdMigratePostgres() *cli.Command {
	var dsn string

	return &cli.Command{
		Name:  "postgres",
		Usage: "Apply PostgreSQL schema migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "postgres-dsn",
				Usage:       "PostgreSQL connection string (required)",
				Required:    true,
				Sources:     cli.EnvVars("BRIAREOS_POSTGRES_DSN"),
				Destination: &dsn,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := postgres.Migrate(dsn); err != nil {
				return goerr.Wrap(err, "failed to migrate postgres schema")
			}
			return nil
		},
	}
}

func desc(path string) fireconf.IndexField {
	return fireconf.IndexField{Path: path, Order: fireconf.OrderDescending}
}

func asc(path string) fireconf.IndexField {
	return fireconf.IndexField{Path: path, Order: fireconf.OrderAscending}
}

// getIndexConfig returns the composite indexes the Firestore repository
// queries need. Collections live under teams/{team_id}.
func getIndexConfig() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.CollectionWorkItems,
				Indexes: []fireconf.Index{
					// ListWorkOrders: kind, project_id, id
					{Fields: []fireconf.IndexField{asc("kind"), asc("project_id"), asc("id")}},
					// ListTasks: kind, work_order_id, id
					{Fields: []fireconf.IndexField{asc("kind"), asc("work_order_id"), asc("id")}},
				},
			},
			{
				Name: firestore.CollectionStatusTransitions,
				Indexes: []fireconf.Index{
					{Fields: []fireconf.IndexField{asc("item"), desc("sequence")}},
					// LatestInto: item, to_status, sequence
					{Fields: []fireconf.IndexField{asc("item"), asc("to_status"), desc("sequence")}},
				},
			},
			{
				Name: firestore.CollectionInboxItems,
				Indexes: []fireconf.Index{
					{Fields: []fireconf.IndexField{asc("archived"), desc("created_at")}},
					{Fields: []fireconf.IndexField{asc("reviewer_id"), desc("created_at")}},
					{Fields: []fireconf.IndexField{asc("archived"), asc("reviewer_id"), desc("created_at")}},
					{Fields: []fireconf.IndexField{asc("approvable"), desc("created_at")}},
				},
			},
			{
				Name: firestore.CollectionAuditLogs,
				Indexes: []fireconf.Index{
					{Fields: []fireconf.IndexField{asc("target"), desc("timestamp")}},
					{Fields: []fireconf.IndexField{asc("action"), desc("timestamp")}},
					{Fields: []fireconf.IndexField{asc("target_id"), desc("timestamp")}},
					{Fields: []fireconf.IndexField{asc("target"), asc("action"), desc("timestamp")}},
					{Fields: []fireconf.IndexField{asc("target"), asc("target_id"), desc("timestamp")}},
					{Fields: []fireconf.IndexField{asc("target"), asc("target_id"), asc("action"), desc("timestamp")}},
				},
			},
			{
				Name: firestore.CollectionTimeEntries,
				Indexes: []fireconf.Index{
					{Fields: []fireconf.IndexField{asc("task_id"), desc("started_at")}},
				},
			},
		},
	}
}
