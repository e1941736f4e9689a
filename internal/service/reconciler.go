package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"payments/internal/domain"
	"payments/internal/metrics"
	"payments/internal/processor"
	"payments/internal/repository"
)

// Reconciler polls the processor for the settlement outcome of non-terminal
// payments and applies the transitions locally. Delivery is at-least-once:
// a transition can be observed more than once, which is safe because writes
// are monotonic compare-and-set updates, so replays and races lose cleanly.
type Reconciler struct {
	paymentRepo repository.PaymentRepository
	gateway     processor.Gateway
	publisher   EventPublisher
	logger      *zap.Logger
	interval    time.Duration
	batchSize   int
}

// NewReconciler creates a new Reconciler.
func NewReconciler(
	paymentRepo repository.PaymentRepository,
	gateway processor.Gateway,
	publisher EventPublisher,
	logger *zap.Logger,
	interval time.Duration,
	batchSize int,
) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Reconciler{
		paymentRepo: paymentRepo,
		gateway:     gateway,
		publisher:   publisher,
		logger:      logger,
		interval:    interval,
		batchSize:   batchSize,
	}
}

// Run polls until ctx is cancelled. Intended to be started in its own
// goroutine from main.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			if err := r.ReconcileOnce(ctx); err != nil {
				r.logger.Error("reconciliation pass failed", zap.Error(err))
			}
		}
	}
}

// ReconcileOnce runs a single reconciliation pass over non-terminal
// payments.
func (r *Reconciler) ReconcileOnce(ctx context.Context) error {
	payments, err := r.paymentRepo.ListByStatuses(ctx, []domain.PaymentStatus{
		domain.PaymentStatusPending,
		domain.PaymentStatusProcessing,
	}, r.batchSize)
	if err != nil {
		return err
	}

	for _, payment := range payments {
		if payment.ProcessorRef == "" {
			continue
		}

		status, err := r.gateway.ChargeStatus(ctx, payment.ProcessorRef)
		if err != nil {
			// A single unreachable charge must not stall the batch.
			r.logger.Warn("charge status query failed",
				zap.String("payment_id", payment.ID), zap.Error(err))
			continue
		}

		if !payment.Status.CanTransitionTo(status) {
			continue
		}

		updated, err := r.paymentRepo.UpdateStatusFrom(ctx, payment.ID, payment.Status, status)
		if err != nil {
			r.logger.Warn("status transition failed",
				zap.String("payment_id", payment.ID), zap.Error(err))
			continue
		}
		if !updated {
			// Someone else applied a newer transition between our read and
			// write.
			continue
		}

		metrics.PaymentTransitions.WithLabelValues(string(status)).Inc()
		r.logger.Info("payment status reconciled",
			zap.String("payment_id", payment.ID),
			zap.String("from", string(payment.Status)),
			zap.String("to", string(status)))

		if r.publisher != nil {
			payment.Status = status
			if err := r.publisher.PaymentStatusChanged(ctx, payment); err != nil {
				r.logger.Warn("publish payment status event failed",
					zap.String("payment_id", payment.ID), zap.Error(err))
			}
		}
	}

	return nil
}
