package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/restaurant-etl/internal/logging"
)

// DefaultImportTimeout bounds a single import when none is configured.
const DefaultImportTimeout = 10 * time.Minute

// Request names one file to import.
type Request struct {
	// FileName is used for format dispatch and reporting. When Body is nil
	// it is also opened from disk.
	FileName string
	Body     io.Reader

	// Entity pre-supplies the entity kind and skips classification.
	Entity EntityKind
}

// Result is everything a run reports back to its caller.
type Result struct {
	ImportID   string           `json:"import_id,omitempty"`
	FileName   string           `json:"file_name"`
	Entity     EntityKind       `json:"entity"`
	Columns    []string         `json:"columns"`
	Rows       int              `json:"rows"`
	Validation ValidationReport `json:"validation"`
	Load       *LoadOutcome     `json:"load,omitempty"`
	DurationMS int64            `json:"duration_ms"`
}

// ServiceConfig tunes the import service.
type ServiceConfig struct {
	Load          LoadOptions
	MaxConcurrent int
	MaxWait       time.Duration
	Timeout       time.Duration
}

// Service runs the import pipeline: read, classify, transform, validate, load.
type Service struct {
	store       Store
	runs        RunRecorder
	limiter     *ImportLimiter
	loaders     *LoaderRegistry
	transformer *Transformer
	validator   *Validator
	opts        LoadOptions
	timeout     time.Duration
}

// NewService wires the pipeline over store. runs may be nil, in which case
// import runs are not recorded. store may be nil for inspect-only use.
func NewService(store Store, runs RunRecorder, cfg ServiceConfig) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultImportTimeout
	}
	transformer := NewTransformer()
	transformer.StrictBools = cfg.Load.BoolFallback == FallbackReject

	return &Service{
		store:       store,
		runs:        runs,
		limiter:     NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		loaders:     NewLoaderRegistry(NewRestaurantLoader(cfg.Load)),
		transformer: transformer,
		validator:   NewValidator(),
		opts:        cfg.Load,
		timeout:     cfg.Timeout,
	}
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Inspect reads, classifies, transforms and validates a file without
// touching storage.
func (s *Service) Inspect(ctx context.Context, req Request) (*Result, error) {
	logger := logging.WithFields(ctx, "file", req.FileName)
	start := time.Now()

	_, res, err := s.prepare(ctx, req, logger)
	if err != nil {
		return nil, err
	}
	res.DurationMS = time.Since(start).Milliseconds()
	return res, nil
}

// Import runs the full pipeline and persists the rows.
//
// A non-nil error with a nil Result means nothing was persisted. ErrUnknownEntityKind
// comes with the validation report filled in. ErrBatchRollback and
// cancellation come with the full load outcome.
func (s *Service) Import(ctx context.Context, req Request) (*Result, error) {
	if s.store == nil {
		return nil, errors.New("import: no store configured")
	}
	if err := CheckFileName(req.FileName); err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	importID := uuid.NewString()
	logger := logging.WithFields(ctx, "import_id", importID, "file", req.FileName)
	ctx = logging.NewContext(ctx, logger)
	start := time.Now()

	table, res, err := s.prepare(ctx, req, logger)
	if err != nil {
		return nil, err
	}
	res.ImportID = importID

	loader, ok := s.loaders.Get(res.Entity)
	if !ok {
		res.DurationMS = time.Since(start).Milliseconds()
		logger.Warn("no loader for entity", "entity", res.Entity)
		return res, fmt.Errorf("%w: %s (loadable: %s)", ErrUnknownEntityKind, res.Entity, joinKinds(s.loaders.Kinds()))
	}

	logger.Info("load started", "entity", res.Entity, "rows", table.Len(), "commit_mode", s.opts.CommitMode)
	outcome, loadErr := Load(ctx, s.store, loader, table, s.opts)
	if outcome == nil {
		return nil, loadErr
	}
	res.Load = outcome
	res.DurationMS = time.Since(start).Milliseconds()

	logger.Info("load finished",
		"total", outcome.Total,
		"successful", outcome.Successful,
		"failed", outcome.Failed,
		"skipped", outcome.Skipped,
		"duration_ms", res.DurationMS,
	)

	s.recordRun(ctx, logger, res, start)
	return res, loadErr
}

// prepare runs every stage up to and including validation.
func (s *Service) prepare(ctx context.Context, req Request, logger *slog.Logger) (*RawTable, *Result, error) {
	raw, err := s.read(req)
	if err != nil {
		logger.Warn("read failed", "error", err)
		return nil, nil, err
	}

	kind := req.Entity
	if kind == "" {
		kind = Classify(raw.Columns)
	}
	logger.Info("file read", "rows", raw.Len(), "columns", len(raw.Columns), "entity", kind)

	table := s.transformer.Transform(raw)
	report := s.validator.Validate(table, kind)
	if n := report.Count(); n > 0 {
		logger.Info("validation findings", "count", n)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	return table, &Result{
		FileName:   filepath.Base(req.FileName),
		Entity:     kind,
		Columns:    table.Columns,
		Rows:       table.Len(),
		Validation: report,
	}, nil
}

func (s *Service) read(req Request) (*RawTable, error) {
	if req.Body == nil {
		return ReadFile(req.FileName)
	}
	if err := CheckFileName(req.FileName); err != nil {
		return nil, err
	}
	return ReadTable(req.Body, filepath.Ext(req.FileName))
}

func (s *Service) recordRun(ctx context.Context, logger *slog.Logger, res *Result, start time.Time) {
	if s.runs == nil || res.Load == nil {
		return
	}

	run := ImportRun{
		ID:         res.ImportID,
		FileName:   res.FileName,
		Entity:     res.Entity,
		Total:      res.Load.Total,
		Successful: res.Load.Successful,
		Failed:     res.Load.Failed,
		Skipped:    res.Load.Skipped,
		FatalError: res.Load.FatalError,
		StartedAt:  start,
		Duration:   time.Duration(res.DurationMS) * time.Millisecond,
	}

	// A cancelled import still gets its summary row.
	if err := s.runs.RecordImportRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("failed to record import run", "error", err)
	}
}
