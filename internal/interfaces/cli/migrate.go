package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/CaseIntel/internal/infrastructure/database/postgres"
	"github.com/turtacn/CaseIntel/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

// Topic layout created by "migrate up" when Kafka is enabled.
const (
	defaultTopicPartitions  = 6
	defaultTopicReplication = 1
	defaultTopicRetentionMs = 7 * 24 * 60 * 60 * 1000
)

// NewMigrateCmd manages the PostgreSQL schema and the event topic.
func NewMigrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (default from config)")

	var skipTopic bool
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations and create the event topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd, dir, func(cc *CLIContext, conn *postgres.Connection, path string) error {
				if err := conn.RunMigrations(path); err != nil {
					return err
				}
				if cc.Config.Kafka.Enabled && !skipTopic {
					if err := ensureTopic(cmd, cc); err != nil {
						return err
					}
				}
				return printStatus(cmd, conn, path)
			})
		},
	}
	up.Flags().BoolVar(&skipTopic, "skip-topic", false, "do not create the Kafka topic")

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 {
				return errors.InvalidParam("--steps must be positive")
			}
			return withConnection(cmd, dir, func(_ *CLIContext, conn *postgres.Connection, path string) error {
				if err := conn.RollbackMigrations(path, steps); err != nil {
					return err
				}
				return printStatus(cmd, conn, path)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd, dir, func(_ *CLIContext, conn *postgres.Connection, path string) error {
				return printStatus(cmd, conn, path)
			})
		},
	}

	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 {
				return errors.InvalidParam("VERSION must be a non-negative integer").WithDetail(args[0])
			}
			return withConnection(cmd, dir, func(_ *CLIContext, conn *postgres.Connection, path string) error {
				if err := conn.ForceMigrationVersion(path, v); err != nil {
					return err
				}
				return printStatus(cmd, conn, path)
			})
		},
	}

	cmd.AddCommand(up, down, status, force)
	return cmd
}

func withConnection(cmd *cobra.Command, dir string, fn func(*CLIContext, *postgres.Connection, string) error) error {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cc.Config.Database.MigrationPath
	}
	if _, err := postgres.MigrationFiles(dir); err != nil {
		return err
	}
	conn, err := postgres.NewConnection(cc.Config.Database, cc.Logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(cc, conn, dir)
}

func printStatus(cmd *cobra.Command, conn *postgres.Connection, dir string) error {
	files, err := postgres.MigrationFiles(dir)
	if err != nil {
		return err
	}
	version, dirty, err := conn.MigrationStatus(dir)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t), available: %s\n",
		version, dirty, strings.Join(files, ", "))
	return err
}

func ensureTopic(cmd *cobra.Command, cc *CLIContext) error {
	tm, err := kafka.NewTopicManager(cc.Config.Kafka.Brokers, cc.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := tm.Close(); err != nil {
			cc.Logger.Warn("closing topic manager failed", logging.Err(err))
		}
	}()
	return tm.EnsureTopic(cmd.Context(), kafka.TopicConfig{
		Name:              cc.Config.Kafka.Topic,
		NumPartitions:     defaultTopicPartitions,
		ReplicationFactor: defaultTopicReplication,
		RetentionMs:       defaultTopicRetentionMs,
	})
}

//Personal.AI order the ending
