package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/internal/intelligence/entity_extractor"
)

type extractOptions struct {
	categories []string
	dryRun     bool
	resume     bool
}

// NewExtractCmd scans the case corpus and creates or links entities.
func NewExtractCmd(factory ServiceFactory) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract entities from the case corpus",
		Long: "Scans every case in id order, recognises person, bank, insurance and company\n" +
			"names and creates an entity per normalised name, recording spelling variants as aliases.",
		Example: "  caseintel extract\n  caseintel extract --category bank --dry-run\n  caseintel extract --resume",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, factory, opts)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&opts.categories, "category", nil, "restrict to these categories (person, bank, insurance, company)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "match names without writing entities")
	f.BoolVar(&opts.resume, "resume", false, "continue after the last checkpointed case")
	return cmd
}

func runExtract(cmd *cobra.Command, factory ServiceFactory, opts *extractOptions) error {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	categories := make([]entity.Category, 0, len(opts.categories))
	for _, raw := range opts.categories {
		c, err := entity.ParseCategory(raw)
		if err != nil {
			return err
		}
		categories = append(categories, c)
	}

	ctx, cancel := cc.RunContext(cmd)
	defer cancel()

	svc, err := factory(ctx, cc)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			cc.Logger.Warn("closing services failed", logging.Err(err))
		}
	}()

	stopOps, err := startOps(cc, svc, "extract")
	if err != nil {
		return err
	}
	defer stopOps()

	summary, runErr := newExtractor(cc.Config, svc, cc.Logger).Run(ctx, entity_extractor.RunOptions{
		DryRun:     opts.dryRun,
		Resume:     opts.resume,
		Categories: categories,
	})
	if summary != nil {
		finishMetrics(ctx, cc.Config, svc, common.StageExtract,
			summary.CasesScanned-summary.CasesFailed, summary.CasesFailed, 0, cc.Logger)
		if err := PrintResult(cmd, cc.OutputFormat, extractView{Summary: summary, DryRun: opts.dryRun}); err != nil {
			return err
		}
	}
	return runErr
}

type extractView struct {
	*entity_extractor.Summary
	DryRun bool `json:"dry_run"`
}

func (v extractView) TableHeaders() []string { return []string{"METRIC", "VALUE"} }

func (v extractView) TableRows() [][]string {
	return [][]string{
		{"cases scanned", strconv.Itoa(v.CasesScanned)},
		{"cases failed", strconv.Itoa(v.CasesFailed)},
		{"mentions", strconv.Itoa(v.MentionsFound)},
		{"entities created", strconv.Itoa(v.EntitiesCreated)},
		{"aliases added", strconv.Itoa(v.AliasesAdded)},
		{"seeds created", strconv.Itoa(v.SeedsCreated)},
		{"last case id", strconv.FormatInt(v.LastCaseID, 10)},
		{"dry run", strconv.FormatBool(v.DryRun)},
		{"elapsed", v.Elapsed.String()},
	}
}

//Personal.AI order the ending
