// ABOUTME: Bulk operation processor with per-item failure isolation
// ABOUTME: Runs one operation over many entities in batches and records a single run log
package bulk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harperreed/crmpulse/config"
	"github.com/harperreed/crmpulse/db"
	"github.com/harperreed/crmpulse/health"
	"github.com/harperreed/crmpulse/metrics"
	"github.com/harperreed/crmpulse/models"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Store is the persistence the processor mutates and logs into. db.Store implements it.
type Store interface {
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	PatchLead(ctx context.Context, id string, p db.Patch) error
	DeleteLead(ctx context.Context, id string) error

	GetCompany(ctx context.Context, id string) (*models.Company, error)
	PatchCompany(ctx context.Context, id string, p db.Patch) error

	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	PatchSubscription(ctx context.Context, id string, p db.Patch) error

	UpsertDailySnapshot(ctx context.Context, snap *models.HealthScoreSnapshot) error

	CreateBulkLog(ctx context.Context, log *models.BulkOperationLog) error
	FinishBulkLog(ctx context.Context, log *models.BulkOperationLog) error
	GetBulkLog(ctx context.Context, id string) (*models.BulkOperationLog, error)
	ListBulkLogs(ctx context.Context, limit int) ([]models.BulkOperationLog, error)
}

// Scorer recalculates and stores a company's health snapshot. health.Engine implements it.
type Scorer interface {
	Recalculate(ctx context.Context, companyID string, w health.SnapshotWriter) (*models.HealthScoreSnapshot, error)
}

// Request is one bulk invocation.
type Request struct {
	EntityType string                 `json:"entity_type" validate:"required"`
	Operation  string                 `json:"operation" validate:"required"`
	EntityIDs  []string               `json:"entity_ids" validate:"required,min=1"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	ExecutedBy string                 `json:"executed_by,omitempty"`
}

// ErrInvalidRequest marks a request rejected before any run log exists.
var ErrInvalidRequest = errors.New("invalid bulk request")

// DefaultExecutor is recorded when a request does not name who ran it.
const DefaultExecutor = "system"

type Processor struct {
	store  Store
	scorer Scorer
	cfg    config.BulkConfig
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

type Option func(*Processor)

func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIDGenerator overrides ULID generation for run log IDs.
func WithIDGenerator(newID func() string) Option {
	return func(p *Processor) { p.newID = newID }
}

func NewProcessor(store Store, scorer Scorer, cfg config.BulkConfig, opts ...Option) *Processor {
	defaults := config.DefaultBulkConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}

	p := &Processor{
		store:  store,
		scorer: scorer,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return ulid.Make().String() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute applies the requested operation to every entity ID. Item failures are
// collected in the response and never abort the run. The only returned errors are
// an invalid request and a failure to create the run log.
func (p *Processor) Execute(ctx context.Context, req Request) (*models.BulkOperationResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, describeValidation(err))
	}
	if req.ExecutedBy == "" {
		req.ExecutedBy = DefaultExecutor
	}

	started := p.now()
	op, parseErr := ParseOperation(req.EntityType, req.Operation, req.Parameters)
	r := run{op: op, parseErr: parseErr, entityType: req.EntityType, operation: req.Operation}

	log := &models.BulkOperationLog{
		ID:         p.newID(),
		EntityType: req.EntityType,
		Operation:  req.Operation,
		EntityIDs:  req.EntityIDs,
		Parameters: req.Parameters,
		TotalCount: len(req.EntityIDs),
		Status:     models.BulkStatusProcessing,
		ExecutedBy: req.ExecutedBy,
		CreatedAt:  started,
	}
	if err := p.store.CreateBulkLog(ctx, log); err != nil {
		return nil, fmt.Errorf("create bulk operation log: %w", err)
	}

	logger := p.logger.With(
		zap.String("operation_id", log.ID),
		zap.String("entity_type", req.EntityType),
		zap.String("operation", req.Operation),
	)
	logger.Info("bulk operation started", zap.Int("total", log.TotalCount), zap.String("executed_by", req.ExecutedBy))
	if parseErr != nil {
		logger.Warn("bulk operation rejected for every item", zap.Error(parseErr))
	}

	// Items keep running even if the caller goes away.
	itemCtx := context.WithoutCancel(ctx)

	results := make([]error, len(req.EntityIDs))
	for start := 0; start < len(req.EntityIDs); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(req.EntityIDs) {
			end = len(req.EntityIDs)
		}
		p.runBatch(itemCtx, r, req.EntityIDs, results, start, end)

		failed := 0
		for _, err := range results[start:end] {
			if err != nil {
				failed++
			}
		}
		logger.Debug("bulk batch processed",
			zap.Int("batch", start/p.cfg.BatchSize),
			zap.Int("size", end-start),
			zap.Int("failed", failed),
		)
	}

	for i, err := range results {
		if err != nil {
			log.FailedCount++
			log.ErrorDetails = append(log.ErrorDetails, models.ErrorDetail{
				EntityID:     req.EntityIDs[i],
				ErrorMessage: err.Error(),
			})
		} else {
			log.SuccessCount++
		}
	}

	log.Status = models.BulkStatusCompleted
	if log.FailedCount == log.TotalCount {
		log.Status = models.BulkStatusFailed
	}
	completed := p.now()
	log.CompletedAt = &completed

	if err := p.store.FinishBulkLog(itemCtx, log); err != nil {
		logger.Error("failed to finalise bulk operation log", zap.Error(err))
	}

	metrics.BulkRunsTotal.WithLabelValues(req.EntityType, req.Operation, log.Status).Inc()
	metrics.BulkRunDuration.WithLabelValues(req.EntityType, req.Operation).Observe(completed.Sub(started).Seconds())
	logger.Info("bulk operation finished",
		zap.String("status", log.Status),
		zap.Int("succeeded", log.SuccessCount),
		zap.Int("failed", log.FailedCount),
	)

	return &models.BulkOperationResponse{
		Success:      log.FailedCount == 0,
		OperationID:  log.ID,
		TotalCount:   log.TotalCount,
		SuccessCount: log.SuccessCount,
		FailedCount:  log.FailedCount,
		Errors:       log.ErrorDetails,
		Message:      summarize(req.Operation, req.EntityType, log),
	}, nil
}

// run is the per-invocation state shared by every item.
type run struct {
	op         Operation
	parseErr   error
	entityType string
	operation  string
}

// runBatch fills results[start:end]. With one worker items run in order.
func (p *Processor) runBatch(ctx context.Context, r run, ids []string, results []error, start, end int) {
	if p.cfg.Workers <= 1 {
		for i := start; i < end; i++ {
			results[i] = p.runItem(ctx, r, ids[i])
		}
		return
	}

	sem := make(chan struct{}, p.cfg.Workers)
	var wg sync.WaitGroup
	for i := start; i < end; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.runItem(ctx, r, ids[i])
		}(i)
	}
	wg.Wait()
}

// runItem isolates a single entity: errors and panics become that item's failure.
func (p *Processor) runItem(ctx context.Context, r run, id string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while processing %s: %v", id, rec)
			p.logger.Error("bulk item panicked", zap.String("entity_id", id), zap.Any("panic", rec))
		}
		metrics.RecordBulkItem(r.entityType, r.operation, err == nil)
	}()

	if r.parseErr != nil {
		return r.parseErr
	}
	return p.apply(ctx, r.op, id)
}

// GetLog returns a run log by operation ID.
func (p *Processor) GetLog(ctx context.Context, id string) (*models.BulkOperationLog, error) {
	return p.store.GetBulkLog(ctx, id)
}

// ListLogs returns the most recent run logs.
func (p *Processor) ListLogs(ctx context.Context, limit int) ([]models.BulkOperationLog, error) {
	return p.store.ListBulkLogs(ctx, limit)
}

func summarize(operation, entityType string, log *models.BulkOperationLog) string {
	noun := entityType + "s"
	if log.TotalCount == 1 {
		noun = entityType
	}

	switch {
	case log.FailedCount == 0:
		return fmt.Sprintf("%s succeeded for all %d %s", operation, log.TotalCount, noun)
	case log.SuccessCount == 0:
		return fmt.Sprintf("%s failed for all %d %s", operation, log.TotalCount, noun)
	default:
		return fmt.Sprintf("%s partially succeeded: %d of %d %s processed, %d failed",
			operation, log.SuccessCount, log.TotalCount, noun, log.FailedCount)
	}
}
