// Package entity_extractor scans the case corpus for names of people, banks,
// insurers and companies and maintains one Entity per normalised name, with
// every surface variant recorded as an alias.
package entity_extractor

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/entity"
	"github.com/turtacn/CaseIntel/internal/domain/litigation"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/pkg/errors"
	ctypes "github.com/turtacn/CaseIntel/pkg/types/common"
)

// CheckpointName is the checkpoint key used by extraction runs.
const CheckpointName = "extract"

// ---------------------------------------------------------------------------
// Options and results
// ---------------------------------------------------------------------------

// RunOptions controls a single extraction run.
type RunOptions struct {
	// DryRun matches and resolves names but writes nothing.
	DryRun bool
	// Resume starts after the last checkpointed case id.
	Resume bool
	// Categories restricts the run; empty means every configured category.
	Categories []entity.Category
}

// Summary reports what a run did.
type Summary struct {
	CasesScanned    int           `json:"cases_scanned"`
	CasesFailed     int           `json:"cases_failed"`
	MentionsFound   int           `json:"mentions_found"`
	EntitiesCreated int           `json:"entities_created"`
	AliasesAdded    int           `json:"aliases_added"`
	SeedsCreated    int           `json:"seeds_created"`
	LastCaseID      int64         `json:"last_case_id"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(e *Extractor) { e.log = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m common.StageMetrics) Option { return func(e *Extractor) { e.metrics = m } }

// WithClock sets the clock used for timestamps.
func WithClock(c ctypes.Clock) Option { return func(e *Extractor) { e.clock = c } }

// WithCheckpointer enables checkpoint and resume.
func WithCheckpointer(c common.Checkpointer) Option { return func(e *Extractor) { e.checkpoint = c } }

// WithRetryPolicy sets the policy for transient repository failures.
func WithRetryPolicy(p common.RetryPolicy) Option { return func(e *Extractor) { e.retry = p } }

// ---------------------------------------------------------------------------
// Extractor
// ---------------------------------------------------------------------------

// Extractor runs entity extraction over the case corpus.  A run is
// sequential over cases; it is not safe to start two runs on one Extractor
// concurrently.
type Extractor struct {
	cfg        config.ExtractionConfig
	matcher    *Matcher
	cases      litigation.CaseReader
	entities   entity.Repository
	checkpoint common.Checkpointer
	metrics    common.StageMetrics
	retry      common.RetryPolicy
	clock      ctypes.Clock
	log        logging.Logger

	// index maps category -> normalised key -> entity.  Alias keys point at
	// the same entity as the canonical key.
	index map[entity.Category]map[string]*entity.Entity
}

// NewExtractor builds an Extractor.  cfg must already carry defaults.
func NewExtractor(cfg config.ExtractionConfig, cases litigation.CaseReader, entities entity.Repository, opts ...Option) *Extractor {
	e := &Extractor{
		cfg:        cfg,
		matcher:    NewMatcher(cfg),
		cases:      cases,
		entities:   entities,
		checkpoint: common.NopCheckpointer{},
		metrics:    common.NopMetrics(),
		retry:      common.RetryPolicy{MaxRetries: config.DefaultMaxRetries, InitialBackoff: config.DefaultInitialBackoff, MaxBackoff: config.DefaultMaxBackoff, BackoffMultiplier: config.DefaultBackoffMultiplier},
		clock:      ctypes.SystemClock{},
		log:        logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(logging.Stage(common.StageExtract))
	return e
}

// ExtractMentions returns the distinct mentions in c, one per
// (category, normalised key), keeping the first surface form seen.
func (e *Extractor) ExtractMentions(c *litigation.CaseRecord) []Mention {
	return ExtractMentions(e.matcher, c)
}

// ExtractMentions runs m over every text field of c and deduplicates the
// result by (category, normalised key).
func ExtractMentions(m *Matcher, c *litigation.CaseRecord) []Mention {
	seen := map[string]bool{}
	var out []Mention
	for _, f := range c.TextFields() {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		for _, mention := range m.Match(f.Name, f.Text) {
			k := string(mention.Category) + "\x00" + mention.Key
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, mention)
		}
	}
	return out
}

// Run executes one extraction pass.  Per-case failures are logged and
// counted; Run itself fails only when the corpus cannot be read, the entity
// index cannot be loaded, or ctx is cancelled.  On cancellation the case in
// progress completes and the checkpoint reflects it.
func (e *Extractor) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	start := time.Now()
	sum := &Summary{}
	enabled := e.enabledCategories(opts.Categories)
	log := e.log.With(logging.Bool("dry_run", opts.DryRun))

	if err := e.loadIndex(ctx, enabled); err != nil {
		return sum, err
	}
	if err := e.applySeeds(ctx, enabled, opts.DryRun, sum); err != nil {
		return sum, err
	}

	var after int64
	if opts.Resume {
		pos, ok, err := e.checkpoint.Load(ctx, CheckpointName)
		if err != nil {
			return sum, errors.Wrap(err, errors.ErrCodeCheckpointFailed, "load extraction checkpoint")
		}
		if ok {
			if after, err = strconv.ParseInt(pos, 10, 64); err != nil {
				return sum, errors.Wrap(err, errors.ErrCodeCheckpointFailed, "parse extraction checkpoint").WithDetail(pos)
			}
			log.Info("resuming extraction", logging.Int64("after_case_id", after))
		}
	}

	pageSize := e.cfg.PageSize
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}

	for {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = time.Since(start)
			return sum, err
		}
		var page []*litigation.CaseRecord
		_, err := common.Retry(ctx, e.retry, e.retryHook(), func(ctx context.Context) error {
			var scanErr error
			page, scanErr = e.cases.Scan(ctx, ctypes.PageRequest{After: after, Limit: pageSize})
			return scanErr
		})
		if err != nil {
			sum.Elapsed = time.Since(start)
			return sum, errors.Wrap(err, errors.ErrCodeCaseScanFail, "scan case corpus").WithDetail("after=" + strconv.FormatInt(after, 10))
		}
		if len(page) == 0 {
			break
		}

		for _, c := range page {
			if err := ctx.Err(); err != nil {
				e.saveCheckpoint(ctx, after, opts.DryRun)
				sum.Elapsed = time.Since(start)
				return sum, err
			}
			unitStart := time.Now()
			err := e.processCase(ctx, c, enabled, opts.DryRun, sum)
			status := common.ClassifyError(err)
			e.metrics.UnitProcessed(common.StageExtract, status, time.Since(unitStart))
			sum.CasesScanned++
			if err != nil {
				sum.CasesFailed++
				log.Warn("case skipped", logging.CaseID(c.ID), logging.String("status", status.String()), logging.Err(err))
			}
			after = c.ID
			sum.LastCaseID = c.ID
		}
		e.saveCheckpoint(ctx, after, opts.DryRun)
	}

	if !opts.DryRun {
		if err := e.checkpoint.Clear(ctx, CheckpointName); err != nil {
			log.Warn("failed to clear extraction checkpoint", logging.Err(err))
		}
	}
	sum.Elapsed = time.Since(start)
	log.Info("extraction finished",
		logging.Int("cases_scanned", sum.CasesScanned),
		logging.Int("cases_failed", sum.CasesFailed),
		logging.Int("entities_created", sum.EntitiesCreated),
		logging.Int("aliases_added", sum.AliasesAdded),
		logging.Duration("elapsed", sum.Elapsed))
	return sum, nil
}

func (e *Extractor) enabledCategories(requested []entity.Category) map[entity.Category]bool {
	out := map[entity.Category]bool{}
	for _, c := range e.cfg.Categories {
		out[entity.Category(c)] = true
	}
	if len(e.cfg.Categories) == 0 {
		for _, c := range entity.AllCategories {
			out[c] = true
		}
	}
	if len(requested) == 0 {
		return out
	}
	filtered := map[entity.Category]bool{}
	for _, c := range requested {
		if out[c] {
			filtered[c] = true
		}
	}
	return filtered
}

func (e *Extractor) retryHook() common.RetryHook {
	return func(attempt int, err error, delay time.Duration) {
		e.metrics.Retried(common.StageExtract)
		e.log.Warn("retrying after transient failure",
			logging.Int("attempt", attempt), logging.Duration("delay", delay), logging.Err(err))
	}
}

func (e *Extractor) saveCheckpoint(ctx context.Context, after int64, dryRun bool) {
	if dryRun || after == 0 {
		return
	}
	// The run context may already be cancelled; the position still has to land.
	if err := e.checkpoint.Save(context.WithoutCancel(ctx), CheckpointName, strconv.FormatInt(after, 10)); err != nil {
		e.log.Warn("failed to save extraction checkpoint", logging.Int64("after_case_id", after), logging.Err(err))
	}
}

// ---------------------------------------------------------------------------
// Index
// ---------------------------------------------------------------------------

func (e *Extractor) loadIndex(ctx context.Context, enabled map[entity.Category]bool) error {
	e.index = map[entity.Category]map[string]*entity.Entity{}
	for _, cat := range entity.AllCategories {
		if !enabled[cat] {
			continue
		}
		if err := e.loadCategory(ctx, cat); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) loadCategory(ctx context.Context, cat entity.Category) error {
	var list []*entity.Entity
	_, err := common.Retry(ctx, e.retry, e.retryHook(), func(ctx context.Context) error {
		var listErr error
		list, listErr = e.entities.ListByCategory(ctx, cat)
		return listErr
	})
	if err != nil {
		return errors.Wrap(err, "", "load entity index").WithDetail(string(cat))
	}
	idx := make(map[string]*entity.Entity, len(list))
	for _, ent := range list {
		e.indexEntity(idx, ent)
	}
	e.index[cat] = idx
	return nil
}

// indexEntity registers ent under its canonical key and every alias key.
// An alias never displaces another entity's canonical key.
func (e *Extractor) indexEntity(idx map[string]*entity.Entity, ent *entity.Entity) {
	idx[ent.NormalizedKey] = ent
	for _, a := range ent.Aliases.Values() {
		k := entity.NormalizeKey(a)
		if cur, ok := idx[k]; ok && cur.NormalizedKey == k {
			continue
		}
		idx[k] = ent
	}
}

func (e *Extractor) applySeeds(ctx context.Context, enabled map[entity.Category]bool, dryRun bool, sum *Summary) error {
	for rawCat, names := range e.cfg.Seeds {
		cat, err := entity.ParseCategory(rawCat)
		if err != nil {
			e.log.Warn("ignoring seeds for unknown category", logging.Category(rawCat))
			continue
		}
		if !enabled[cat] {
			continue
		}
		for _, name := range names {
			key := entity.NormalizeKey(name)
			if key == "" {
				continue
			}
			if cur, ok := e.index[cat][key]; ok {
				if cur.Verified {
					continue
				}
				next := cur.Clone()
				next.Verified = true
				next.UpdatedAt = e.clock.Now()
				if err := e.save(ctx, next, false, dryRun); err != nil {
					return err
				}
				e.indexEntity(e.index[cat], next)
				continue
			}
			ent, err := entity.NewEntity(cat, name, e.clock.Now())
			if err != nil {
				e.log.Warn("invalid seed name", logging.Category(string(cat)), logging.String("name", name), logging.Err(err))
				continue
			}
			ent.Verified = true
			applyAttributes(ent)
			if err := e.save(ctx, ent, true, dryRun); err != nil {
				return err
			}
			e.indexEntity(e.index[cat], ent)
			sum.SeedsCreated++
			e.metrics.EntityCreated(string(cat))
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Per-case resolution
// ---------------------------------------------------------------------------

// processCase resolves every mention of c against the index.  Writes are
// applied to the index only after the repository accepts them, so a failed
// case leaves no phantom entities behind.
func (e *Extractor) processCase(ctx context.Context, c *litigation.CaseRecord, enabled map[entity.Category]bool, dryRun bool, sum *Summary) error {
	for _, m := range e.ExtractMentions(c) {
		if !enabled[m.Category] {
			continue
		}
		sum.MentionsFound++
		if err := e.resolve(ctx, m, dryRun, sum); err != nil {
			return errors.Wrap(err, "", "resolve mention").WithDetail(string(m.Category) + ":" + m.Surface)
		}
	}
	return nil
}

func (e *Extractor) resolve(ctx context.Context, m Mention, dryRun bool, sum *Summary) error {
	idx := e.index[m.Category]
	now := e.clock.Now()

	cur, ok := idx[m.Key]
	if !ok {
		ent, err := entity.NewEntity(m.Category, m.Surface, now)
		if err != nil {
			return err
		}
		applyAttributes(ent)
		err = e.save(ctx, ent, true, dryRun)
		if errors.IsCode(err, errors.ErrCodeEntityAlreadyExists) {
			// Another writer created it since the index was loaded.
			if err := e.loadCategory(ctx, m.Category); err != nil {
				return err
			}
			idx = e.index[m.Category]
			if cur, ok = idx[m.Key]; !ok {
				return errors.Invariant("entity %q reported as existing but not listed", m.Key)
			}
		} else if err != nil {
			return err
		} else {
			idx[m.Key] = ent
			sum.EntitiesCreated++
			e.metrics.EntityCreated(string(m.Category))
			return nil
		}
	}

	next := cur.Clone()
	aliased := next.AddAlias(m.Surface, now)
	attrs := applyAttributes(next)
	if !aliased && !attrs {
		return nil
	}
	if attrs {
		next.UpdatedAt = now
	}
	if err := e.save(ctx, next, false, dryRun); err != nil {
		return err
	}
	e.indexEntity(idx, next)
	if aliased {
		sum.AliasesAdded++
		e.metrics.AliasAdded(string(m.Category))
	}
	return nil
}

// save creates or updates ent with retry.  In a dry run nothing is written.
func (e *Extractor) save(ctx context.Context, ent *entity.Entity, create, dryRun bool) error {
	if dryRun {
		return nil
	}
	_, err := common.Retry(ctx, e.retry, e.retryHook(), func(ctx context.Context) error {
		if create {
			return e.entities.Create(ctx, ent)
		}
		return e.entities.Update(ctx, ent)
	})
	return err
}

// applyAttributes derives category attributes from the canonical name.  It
// reports whether anything was set.
func applyAttributes(ent *entity.Entity) bool {
	if ent.Category != entity.CategoryBank {
		return false
	}
	changed := false
	words := " " + ent.NormalizedKey + " "
	if strings.Contains(words, " ghana ") {
		changed = ent.SetAttribute(entity.AttrCountry, "Ghana") || changed
	}
	bankType := "commercial"
	if strings.Contains(words, " rural ") || strings.Contains(words, " community ") {
		bankType = "rural"
	}
	changed = ent.SetAttribute(entity.AttrBankType, bankType) || changed
	return changed
}

//Personal.AI order the ending
