package parse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wealthwise/docparse/internal/domain/document"
	"github.com/wealthwise/docparse/internal/domain/transaction"
	"github.com/wealthwise/docparse/pkg/storage"
)

var (
	// ErrParseInFlight indicates the document is already queued or parsing.
	ErrParseInFlight = errors.New("document parse already in progress")
	// ErrQueueFull indicates the parse queue has no room for another document.
	ErrQueueFull = errors.New("parse queue is full")
)

// Categorizer assigns categories to freshly extracted transactions before
// they are persisted. Implemented by the categorize service.
type Categorizer interface {
	Categorize(ctx context.Context, businessID uuid.UUID, txs []*transaction.Transaction) error
}

// Config sizes the parse worker pool.
type Config struct {
	Workers   int
	QueueSize int
}

// Service orchestrates asynchronous document parsing: it owns the worker
// pool, drives the parse status lifecycle and hands extracted transactions to
// the categorizer before persisting them.
type Service struct {
	docs        document.Repository
	txs         transaction.Repository
	files       storage.Storage
	router      Parser
	categorizer Categorizer
	logger      *slog.Logger
	metrics     *Metrics
	tracer      trace.Tracer

	queue chan uuid.UUID
	wg    sync.WaitGroup

	mu       sync.Mutex
	inflight map[uuid.UUID]chan struct{}
}

// NewService creates the parse service. Start must be called before Trigger.
func NewService(cfg Config, docs document.Repository, txs transaction.Repository, files storage.Storage, categorizer Categorizer, metrics *Metrics, logger *slog.Logger) *Service {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = workers
	}

	return &Service{
		docs:        docs,
		txs:         txs,
		files:       files,
		router:      NewRouter(),
		categorizer: categorizer,
		logger:      logger,
		metrics:     metrics,
		tracer:      otel.Tracer("docparse/parse"),
		queue:       make(chan uuid.UUID, queueSize),
		inflight:    make(map[uuid.UUID]chan struct{}),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled and the
// queue has drained.
func (s *Service) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	s.logger.Info("parse workers started", slog.Int("workers", workers))
}

// Stop closes the queue and waits for in-flight parses to finish.
func (s *Service) Stop() {
	close(s.queue)
	s.wg.Wait()
}

// Trigger enqueues a document for parsing. A document can be in flight at
// most once; a second trigger while the first is still running fails with
// ErrParseInFlight.
func (s *Service) Trigger(ctx context.Context, documentID uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.inflight[documentID]; ok {
		s.mu.Unlock()
		return ErrParseInFlight
	}
	done := make(chan struct{})
	s.inflight[documentID] = done
	s.mu.Unlock()

	select {
	case s.queue <- documentID:
		if s.metrics != nil {
			s.metrics.QueueDepth.Inc()
		}
		return nil
	default:
		s.finish(documentID)
		return ErrQueueFull
	}
}

// Await blocks until the document's current parse finishes or ctx is
// cancelled. Returns immediately when nothing is in flight.
func (s *Service) Await(ctx context.Context, documentID uuid.UUID) error {
	s.mu.Lock()
	done, ok := s.inflight[documentID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case documentID, ok := <-s.queue:
			if !ok {
				return
			}
			if s.metrics != nil {
				s.metrics.QueueDepth.Dec()
			}
			s.run(ctx, documentID)
		case <-ctx.Done():
			return
		}
	}
}

// run executes one parse end to end. A panic anywhere in the pipeline is
// converted into a FAILED status instead of taking the worker down.
func (s *Service) run(ctx context.Context, documentID uuid.UUID) {
	defer s.finish(documentID)

	ctx, span := s.tracer.Start(ctx, "parse.document",
		trace.WithAttributes(attribute.String("document.id", documentID.String())))
	defer span.End()

	start := time.Now()
	status := document.StatusFailed

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("parse panicked",
				slog.String("document_id", documentID.String()),
				slog.Any("panic", r),
			)
			span.SetStatus(codes.Error, fmt.Sprint(r))
			s.fail(ctx, documentID, fmt.Errorf("parse panicked: %v", r))
		}
		if s.metrics != nil {
			s.metrics.ParseDuration.Observe(time.Since(start).Seconds())
			s.metrics.ParsesTotal.WithLabelValues(string(status)).Inc()
		}
	}()

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		s.logger.Error("parse skipped, document not loadable",
			slog.String("document_id", documentID.String()),
			slog.Any("error", err),
		)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	if err := s.docs.UpdateParseStatus(ctx, doc.ID, document.StatusProcessing, "", 0, 0); err != nil {
		s.logger.Error("failed to mark document processing",
			slog.String("document_id", doc.ID.String()),
			slog.Any("error", err),
		)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	result, err := s.parse(ctx, doc)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.fail(ctx, doc.ID, err)
		return
	}
	if len(result.Transactions) == 0 {
		err := errors.New("no transactions could be extracted from this document")
		span.SetStatus(codes.Error, err.Error())
		s.fail(ctx, doc.ID, err)
		return
	}

	if s.categorizer != nil && len(result.Transactions) > 0 {
		if err := s.categorizer.Categorize(ctx, doc.BusinessID, result.Transactions); err != nil {
			// Categorization is best effort; transactions persist uncategorized.
			s.logger.Warn("categorization failed",
				slog.String("document_id", doc.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	if err := s.txs.InsertBatch(ctx, result.Transactions); err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.fail(ctx, doc.ID, err)
		return
	}

	status = document.StatusCompleted
	if len(result.Transactions) > 0 && result.DroppedRows > 0 {
		status = document.StatusPartial
	}
	if err := s.docs.UpdateParseStatus(ctx, doc.ID, status, "", result.RowCount, len(result.Transactions)); err != nil {
		s.logger.Error("failed to record parse outcome",
			slog.String("document_id", doc.ID.String()),
			slog.Any("error", err),
		)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	if s.metrics != nil {
		s.metrics.TransactionsExtracted.Add(float64(len(result.Transactions)))
		s.metrics.RowsDropped.Add(float64(result.DroppedRows))
	}
	span.SetAttributes(
		attribute.Int("parse.rows", result.RowCount),
		attribute.Int("parse.transactions", len(result.Transactions)),
		attribute.Int("parse.dropped", result.DroppedRows),
	)

	s.logger.Info("document parsed",
		slog.String("document_id", doc.ID.String()),
		slog.String("status", string(status)),
		slog.Int("rows", result.RowCount),
		slog.Int("transactions", len(result.Transactions)),
		slog.Int("dropped", result.DroppedRows),
		slog.Duration("took", time.Since(start)),
	)
}

func (s *Service) parse(ctx context.Context, doc *document.Document) (*Result, error) {
	rc, err := s.files.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored document: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored document: %w", err)
	}

	return s.router.Parse(doc, data)
}

func (s *Service) fail(ctx context.Context, documentID uuid.UUID, parseErr error) {
	if err := s.docs.UpdateParseStatus(ctx, documentID, document.StatusFailed, parseErr.Error(), 0, 0); err != nil {
		s.logger.Error("failed to record parse failure",
			slog.String("document_id", documentID.String()),
			slog.Any("error", err),
		)
	}
	s.logger.Error("parse failed",
		slog.String("document_id", documentID.String()),
		slog.Any("error", parseErr),
	)
}

func (s *Service) finish(documentID uuid.UUID) {
	s.mu.Lock()
	if done, ok := s.inflight[documentID]; ok {
		close(done)
		delete(s.inflight, documentID)
	}
	s.mu.Unlock()
}
