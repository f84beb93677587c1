// Package pipeline drives imports from DOI lists to created items.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/openalexbot/internal/doi"
	"github.com/ppiankov/openalexbot/internal/metrics"
	"github.com/ppiankov/openalexbot/internal/model"
	"github.com/ppiankov/openalexbot/internal/throttle"
)

// Resolver checks the knowledge base for existing items
type Resolver interface {
	Exists(ctx context.Context, query string) (string, bool, error)
	Remember(query, id string)
}

// Source fetches records by DOI
type Source interface {
	FetchByDOI(ctx context.Context, doi string) (*model.WorkRecord, error)
}

// Assembler builds an item from a record
type Assembler interface {
	Assemble(ctx context.Context, doi string, rec *model.WorkRecord) (*model.KnowledgeBaseItem, error)
}

// Writer submits new items
type Writer interface {
	CreateItem(ctx context.Context, item *model.KnowledgeBaseItem, summary string) (string, error)
}

// Settings are the orchestrator toggles
type Settings struct {
	Upload      bool          // false assembles without writing
	Pause       time.Duration // minimum spacing between imports
	EditSummary string
}

// Importer runs the per-identifier state machine sequentially
type Importer struct {
	resolver  Resolver
	source    Source
	assembler Assembler
	writer    Writer
	settings  Settings
	entityURL func(id string) string
	metrics   *metrics.Recorder
	progress  func(model.Outcome)
	logger    *slog.Logger
}

// Option configures an Importer
type Option func(*Importer)

// WithEntityURL sets how item ids are turned into report links
func WithEntityURL(fn func(id string) string) Option {
	return func(i *Importer) { i.entityURL = fn }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(i *Importer) { i.metrics = r }
}

// WithProgress registers a callback invoked after every outcome
func WithProgress(fn func(model.Outcome)) Option {
	return func(i *Importer) { i.progress = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(i *Importer) { i.logger = l }
}

// New creates an importer. writer may be nil for dry runs.
func New(resolver Resolver, source Source, assembler Assembler, writer Writer, settings Settings, opts ...Option) *Importer {
	i := &Importer{
		resolver:  resolver,
		source:    source,
		assembler: assembler,
		writer:    writer,
		settings:  settings,
		entityURL: func(id string) string { return id },
		metrics:   metrics.New(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run imports every distinct DOI once. Invalid identifiers abort the run
// before any network activity; record failures never do.
func (i *Importer) Run(ctx context.Context, input string, dois []string) (*model.RunReport, error) {
	// 1. Normalize everything up front
	normalized := make([]string, 0, len(dois))
	for _, raw := range dois {
		bare, err := doi.Normalize(raw)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, bare)
	}

	report := &model.RunReport{
		RunID:     uuid.NewString(),
		Input:     input,
		DryRun:    !i.settings.Upload,
		StartedAt: time.Now().UTC(),
	}
	logger := i.logger.With("run", report.RunID)
	logger.Info("import started", "identifiers", len(normalized), "dry_run", report.DryRun)

	// 2. One pass, duplicates collapse through the processed set
	processed := make(map[string]struct{}, len(normalized))
	pacer := throttle.NewPacer(i.settings.Pause)

	for _, bare := range normalized {
		if _, done := processed[bare]; done {
			logger.Debug("duplicate identifier skipped", "doi", bare)
			continue
		}
		if err := pacer.Wait(ctx); err != nil {
			report.FinishedAt = time.Now().UTC()
			return report, fmt.Errorf("import interrupted: %w", err)
		}

		outcome := i.importOne(ctx, logger, bare)
		processed[bare] = struct{}{}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	report.FinishedAt = time.Now().UTC()
	logger.Info("import finished",
		"created", report.Count(model.StateCreated),
		"exists", report.Count(model.StateExists),
		"failed", report.Failures(),
	)
	return report, nil
}

// ImportOne normalizes and imports a single DOI outside a batch run
func (i *Importer) ImportOne(ctx context.Context, raw string) (model.Outcome, error) {
	bare, err := doi.Normalize(raw)
	if err != nil {
		return model.Outcome{}, err
	}
	return i.importOne(ctx, i.logger, bare), nil
}

func (i *Importer) importOne(ctx context.Context, logger *slog.Logger, bare string) model.Outcome {
	start := time.Now()
	logger = logger.With("doi", bare)

	outcome := i.decide(ctx, logger, bare)
	outcome.Duration = time.Since(start)

	level := slog.LevelInfo
	if outcome.State.Failed() {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "identifier processed", "state", outcome.State, "item", outcome.ItemID, "message", outcome.Message)

	i.metrics.ObserveOutcome(outcome)
	if i.progress != nil {
		i.progress(outcome)
	}
	return outcome
}

func (i *Importer) decide(ctx context.Context, logger *slog.Logger, bare string) model.Outcome {
	out := model.Outcome{DOI: bare}

	// Resolving
	id, found, err := i.resolver.Exists(ctx, bare)
	if err != nil {
		return failed(logger, out, model.StateAssemblingFailed, err)
	}
	if found {
		out.State = model.StateExists
		out.ItemID = id
		out.URL = i.entityURL(id)
		out.Message = "already exists, skipped"
		return out
	}

	// Fetching
	rec, err := i.source.FetchByDOI(ctx, bare)
	if err != nil {
		return failed(logger, out, model.StateAssemblingFailed, err)
	}
	if rec == nil {
		out.State = model.StateNotFound
		out.Message = "not found in source nor knowledge base"
		return out
	}

	// Assembling
	item, err := i.assembler.Assemble(ctx, bare, rec)
	if err != nil {
		return failed(logger, out, model.StateAssemblingFailed, err)
	}
	i.metrics.ObserveItem(item)
	out.Claims = len(item.Claims)
	out.Warnings = item.Warnings

	if !i.settings.Upload {
		out.State = model.StateAssembled
		out.Message = fmt.Sprintf("assembled %d claims, upload disabled", out.Claims)
		return out
	}

	// Submitting
	if i.writer == nil {
		return failed(logger, out, model.StateSubmissionFailed, errors.New("no writer configured"))
	}
	newID, err := i.writer.CreateItem(ctx, item, i.settings.EditSummary)
	if err != nil {
		return failed(logger, out, model.StateSubmissionFailed, err)
	}
	i.resolver.Remember(bare, newID)
	logger.Debug("item submitted", "item", newID)

	out.State = model.StateCreated
	out.ItemID = newID
	out.URL = i.entityURL(newID)
	out.Message = "created " + out.URL
	return out
}

// Lookup reports where a DOI exists without importing it
func (i *Importer) Lookup(ctx context.Context, raw string) (model.Outcome, error) {
	bare, err := doi.Normalize(raw)
	if err != nil {
		return model.Outcome{}, err
	}
	out := model.Outcome{DOI: bare}
	start := time.Now()

	id, found, err := i.resolver.Exists(ctx, bare)
	if err != nil {
		return out, err
	}
	rec, err := i.source.FetchByDOI(ctx, bare)
	if err != nil {
		return out, err
	}

	switch {
	case found && rec != nil:
		out.State = model.StateExists
		out.Message = "already exists in knowledge base"
	case found:
		out.State = model.StateSourceMissing
		out.Message = "found in knowledge base but not in source"
	case rec != nil:
		out.State = model.StateImportable
		out.Message = fmt.Sprintf("found in source (%s), not in knowledge base", rec.ID)
	default:
		out.State = model.StateNotFound
		out.Message = "not found in source nor knowledge base"
	}
	if found {
		out.ItemID = id
		out.URL = i.entityURL(id)
	}
	out.Duration = time.Since(start)
	return out, nil
}

// failed records a record-level failure. Errors outside the record-fatal
// taxonomy point at a bug or misconfiguration and are logged as such.
func failed(logger *slog.Logger, out model.Outcome, state model.State, err error) model.Outcome {
	if !model.IsRecordFatal(err) {
		logger.Error("unexpected failure", "state", state, "error", err)
	}
	out.State = state
	out.Message = err.Error()
	return out
}
