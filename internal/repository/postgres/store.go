package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/practiva/scheduling-api/internal/repository"
	"github.com/practiva/scheduling-api/pkg/metrics"
)

// Store is the sqlx-backed implementation of repository.Store. Outside a
// transaction its repositories run against the pool; inside WithTx they all
// share the same *sqlx.Tx.
type Store struct {
	db      *sqlx.DB
	ext     sqlx.ExtContext
	metrics *metrics.Metrics
}

func NewStore(db *sqlx.DB, m *metrics.Metrics) *Store {
	return &Store{db: db, ext: db, metrics: m}
}

func (s *Store) Availability() repository.AvailabilityRepository {
	return &availabilityRepository{ext: s.ext}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{ext: s.ext}
}

// WithTx executes fn within a transaction. Nested calls reuse the transaction
// already in flight.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.observe("tx", "error", start)
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{ext: tx, metrics: s.metrics}); err != nil {
		tx.Rollback()
		s.observe("tx", "rollback", start)
		return err
	}

	if err := tx.Commit(); err != nil {
		s.observe("tx", "error", start)
		return err
	}
	s.observe("tx", "commit", start)
	return nil
}

func (s *Store) observe(operation, status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.DatabaseOperations.WithLabelValues(operation, status).Inc()
	s.metrics.DatabaseLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
