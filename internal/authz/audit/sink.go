// Package audit dispatches audit records to the store without blocking the
// request path. Audit durability is best-effort: a failed or dropped write is
// logged and never rolls back the primary operation it accompanies.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"classhub/internal/authz"
	"classhub/internal/domain"
	"classhub/internal/platform/telemetry"
)

const writeTimeout = 5 * time.Second

// Sink queues audit records on a bounded channel and drains them with
// background workers. When the queue is full the record is dropped and
// counted; callers are never blocked.
type Sink struct {
	writer  authz.AuditWriter
	metrics *telemetry.Metrics
	queue   chan domain.AuditRecord
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewSink starts a sink with the given queue capacity and worker count.
// The metrics parameter is optional; pass nil to skip metric recording.
func NewSink(writer authz.AuditWriter, queueSize, workers int, m *telemetry.Metrics) *Sink {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if workers <= 0 {
		workers = 1
	}
	s := &Sink{
		writer:  writer,
		metrics: m,
		queue:   make(chan domain.AuditRecord, queueSize),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.drain()
	}
	return s
}

// Record enqueues an audit record. Fire-and-forget: returns immediately,
// drops with a warning if the queue is full.
func (s *Sink) Record(rec domain.AuditRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		slog.Warn("audit record after sink close", "action", rec.Action, "tenant_id", rec.TenantID)
		return
	}
	select {
	case s.queue <- rec:
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		slog.Warn("audit queue full, dropping record",
			"action", rec.Action,
			"tenant_id", rec.TenantID,
			"resource_type", rec.ResourceType,
		)
		if s.metrics != nil {
			s.metrics.RecordAuditDrop(context.Background())
		}
	}
}

func (s *Sink) drain() {
	defer s.wg.Done()
	for rec := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := s.writer.WriteAudit(ctx, rec)
		cancel()
		if err != nil {
			slog.Error("audit write failed",
				"error", err,
				"action", rec.Action,
				"tenant_id", rec.TenantID,
			)
		}
	}
}

// Close stops accepting records and waits up to timeout for the queue to
// drain.
func (s *Sink) Close(timeout time.Duration) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		slog.Warn("audit sink close timed out", "pending", len(s.queue))
		return context.DeadlineExceeded
	}
}
