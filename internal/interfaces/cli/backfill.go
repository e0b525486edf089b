package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/CaseIntel/internal/application/backfill"
	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

type backfillOptions struct {
	category string
	entities []string
	stage    string
	workers  int
	dryRun   bool
	resume   bool
}

// NewBackfillCmd recomputes statistics and analytics for existing entities.
func NewBackfillCmd(factory ServiceFactory) *cobra.Command {
	opts := &backfillOptions{}
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Recompute case statistics and risk analytics",
		Long: "Aggregates the cases linked to each entity, classifies outcomes and stores the\n" +
			"statistics and risk analytics.  Exits non-zero when any entity fails.",
		Example: "  caseintel backfill --category bank\n" +
			"  caseintel backfill --entity 7f3c... --entity 9a21...\n" +
			"  caseintel backfill --stage score --workers 4 --resume",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBackfill(cmd, factory, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.category, "category", "", "only entities of this category (person, bank, insurance, company)")
	f.StringSliceVar(&opts.entities, "entity", nil, "run exactly these entity ids")
	f.StringVar(&opts.stage, "stage", string(backfill.StageAll), "stage to run (all, aggregate, score)")
	f.IntVar(&opts.workers, "workers", 0, "parallel entity workers (default from config)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "compute results without writing or publishing")
	f.BoolVar(&opts.resume, "resume", false, "continue after the last checkpointed entity")
	cmd.MarkFlagsMutuallyExclusive("category", "entity")
	cmd.MarkFlagsMutuallyExclusive("entity", "resume")
	return cmd
}

func runBackfill(cmd *cobra.Command, factory ServiceFactory, opts *backfillOptions) error {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	stage, err := backfill.ParseStage(opts.stage)
	if err != nil {
		return err
	}
	var category entity.Category
	if opts.category != "" {
		if category, err = entity.ParseCategory(opts.category); err != nil {
			return err
		}
	}
	if opts.workers < 0 {
		return errors.InvalidParam("--workers must be positive")
	}

	ctx, cancel := cc.RunContext(cmd)
	defer cancel()

	if cc.ConfigPath != "" {
		watchLogLevel(cc)
	}

	svc, err := factory(ctx, cc)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			cc.Logger.Warn("closing services failed", logging.Err(err))
		}
	}()

	stopOps, err := startOps(cc, svc, "backfill")
	if err != nil {
		return err
	}
	defer stopOps()

	driver, err := newDriver(cc.Config, svc, cc.Logger)
	if err != nil {
		return err
	}
	report, runErr := driver.Run(ctx, backfill.Options{
		Category:  category,
		EntityIDs: opts.entities,
		Stage:     stage,
		Workers:   opts.workers,
		DryRun:    opts.dryRun,
		Resume:    opts.resume,
	})
	if report == nil {
		return runErr
	}

	finishMetrics(ctx, cc.Config, svc, common.StageBackfill, report.Succeeded, report.Failed, report.Skipped, cc.Logger)
	if err := PrintResult(cmd, cc.OutputFormat, reportView{report}); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if report.HasFailures() {
		return errors.Newf(errors.ErrCodeUnitFailed, "%d of %d entities failed", report.Failed, len(report.Results))
	}
	return nil
}

// watchLogLevel applies log level changes from the config file mid-run.
func watchLogLevel(cc *CLIContext) {
	err := config.Watch(cc.ConfigPath, func(cfg *config.Config) {
		if logging.SetLevel(cc.Logger, cfg.Log.Level) {
			cc.Logger.Info("log level reloaded", logging.String("level", cfg.Log.Level))
		}
	}, func(err error) {
		cc.Logger.Warn("config reload rejected", logging.Err(err))
	})
	if err != nil {
		cc.Logger.Warn("config watch disabled", logging.Err(err))
	}
}

type reportView struct {
	*backfill.Report
}

func (v reportView) TableHeaders() []string {
	return []string{"ENTITY", "STATUS", "CASES", "RISK", "LEVEL", "ELAPSED", "ERROR"}
}

func (v reportView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Results)+2)
	for _, r := range v.Results {
		rows = append(rows, []string{
			r.EntityID,
			r.Status.String(),
			strconv.Itoa(r.Total),
			strconv.FormatFloat(r.RiskScore, 'f', 2, 64),
			string(r.RiskLevel),
			r.Elapsed.Round(time.Millisecond).String(),
			r.Error,
		})
	}
	rows = append(rows, []string{}, []string{
		"run " + v.RunID,
		string(v.Stage),
		fmt.Sprintf("ok=%d", v.Succeeded),
		fmt.Sprintf("failed=%d", v.Failed),
		fmt.Sprintf("skipped=%d", v.Skipped),
		v.Elapsed.Round(time.Millisecond).String(),
		fmt.Sprintf("not_started=%d dry_run=%t", v.NotStarted, v.DryRun),
	})
	return rows
}

//Personal.AI order the ending
