package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"payments/internal/domain"
	"payments/internal/service"
)

func newReconcilerFixture(gateway *MockGateway) (*service.Reconciler, *MockPaymentRepository, *MockPublisher) {
	paymentRepo := NewMockPaymentRepository()
	publisher := &MockPublisher{}
	reconciler := service.NewReconciler(paymentRepo, gateway, publisher, nil, time.Second, 100)
	return reconciler, paymentRepo, publisher
}

func processingPayment(id string) *domain.Payment {
	return &domain.Payment{
		ID:             id,
		Status:         domain.PaymentStatusProcessing,
		IdempotencyKey: "key-" + id,
		ProcessorRef:   "charge-" + id,
	}
}

func TestReconcileOnce_AppliesSettlement(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{ChargeStatusResult: domain.PaymentStatusCompleted}
	reconciler, paymentRepo, publisher := newReconcilerFixture(gateway)
	paymentRepo.AddPayment(processingPayment("pay-1"))

	if err := reconciler.ReconcileOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := paymentRepo.GetPayment("pay-1").Status; got != domain.PaymentStatusCompleted {
		t.Errorf("expected status %s, got %s", domain.PaymentStatusCompleted, got)
	}
	if publisher.EventCount() != 1 {
		t.Errorf("expected 1 published event, got %d", publisher.EventCount())
	}
}

func TestReconcileOnce_DiscardsStaleStatus(t *testing.T) {
	t.Parallel()

	// The gateway reports an older state than we already hold.
	gateway := &MockGateway{ChargeStatusResult: domain.PaymentStatusPending}
	reconciler, paymentRepo, publisher := newReconcilerFixture(gateway)
	paymentRepo.AddPayment(processingPayment("pay-1"))

	if err := reconciler.ReconcileOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := paymentRepo.GetPayment("pay-1").Status; got != domain.PaymentStatusProcessing {
		t.Errorf("stale status must not be applied, got %s", got)
	}
	if publisher.EventCount() != 0 {
		t.Error("no event must be published when nothing changed")
	}
}

func TestReconcileOnce_SkipsTerminalPayments(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{ChargeStatusResult: domain.PaymentStatusCompleted}
	reconciler, paymentRepo, _ := newReconcilerFixture(gateway)

	done := processingPayment("pay-done")
	done.Status = domain.PaymentStatusFailed
	paymentRepo.AddPayment(done)

	if err := reconciler.ReconcileOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gateway.ChargeStatusCallCount != 0 {
		t.Errorf("terminal payments must not be queried, got %d calls", gateway.ChargeStatusCallCount)
	}
	if got := paymentRepo.GetPayment("pay-done").Status; got != domain.PaymentStatusFailed {
		t.Errorf("terminal status must never change, got %s", got)
	}
}

func TestReconcileOnce_GatewayErrorSkipsPayment(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{ChargeStatusError: errors.New("rail unreachable")}
	reconciler, paymentRepo, _ := newReconcilerFixture(gateway)
	paymentRepo.AddPayment(processingPayment("pay-1"))

	// The pass itself succeeds; the unreachable charge is retried next tick.
	if err := reconciler.ReconcileOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := paymentRepo.GetPayment("pay-1").Status; got != domain.PaymentStatusProcessing {
		t.Errorf("status must be untouched on gateway error, got %s", got)
	}
}

func TestReconcileOnce_SkipsPaymentsWithoutProcessorRef(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{ChargeStatusResult: domain.PaymentStatusCompleted}
	reconciler, paymentRepo, _ := newReconcilerFixture(gateway)

	orphan := processingPayment("pay-1")
	orphan.ProcessorRef = ""
	paymentRepo.AddPayment(orphan)

	if err := reconciler.ReconcileOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gateway.ChargeStatusCallCount != 0 {
		t.Error("payments without a processor ref must not be queried")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{ChargeStatusResult: domain.PaymentStatusCompleted}
	reconciler, _, _ := newReconcilerFixture(gateway)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reconciler.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop after context cancellation")
	}
}
